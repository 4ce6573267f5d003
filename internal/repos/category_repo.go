package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"storekeep/internal/domain"
)

type CategoryRepo struct{ q sqlx.ExtContext }

func NewCategoryRepo(q sqlx.ExtContext) *CategoryRepo { return &CategoryRepo{q: q} }

const categoryCols = `c.id, c.store_id, c.category_name, COALESCE(c.image,'') AS image, c.status, c.created_at, c.updated_at`

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO categories(id, store_id, category_name, image, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		c.ID, c.StoreID, c.Name, nullable(c.Image), c.Active, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *CategoryRepo) ByID(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	err := sqlx.GetContext(ctx, r.q, &c, r.q.Rebind(`SELECT `+categoryCols+` FROM categories c WHERE c.id = ?`), id)
	if err != nil {
		return nil, noRows(err, "category %s", id)
	}
	return &c, nil
}

// ListByOwner returns the categories of every store the owner has.
func (r *CategoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Category, error) {
	var out []domain.Category
	err := sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(`
		SELECT `+categoryCols+`
		FROM categories c
		JOIN stores s ON s.id = c.store_id
		WHERE s.owner_id = ?
		ORDER BY c.created_at, c.id`), ownerID)
	return out, err
}

func (r *CategoryRepo) ListByStore(ctx context.Context, storeID string) ([]domain.Category, error) {
	var out []domain.Category
	err := sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(`
		SELECT `+categoryCols+` FROM categories c
		WHERE c.store_id = ?
		ORDER BY c.created_at, c.id`), storeID)
	return out, err
}

func (r *CategoryRepo) IDsByStores(ctx context.Context, storeIDs []string) ([]string, error) {
	return idsIn(ctx, r.q, "categories", "store_id", storeIDs)
}

func (r *CategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE categories SET category_name = ?, image = ?, status = ?, updated_at = ?
		WHERE id = ?`),
		c.Name, nullable(c.Image), c.Active, c.UpdatedAt, c.ID)
	if err != nil {
		return err
	}
	return affected(res, "category %s", c.ID)
}

func (r *CategoryRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	return deleteIn(ctx, r.q, "categories", "id", ids)
}

func (r *CategoryRepo) SetImage(ctx context.Context, id, image string) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`UPDATE categories SET image = ? WHERE id = ?`), nullable(image), id)
	return err
}
