package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"storekeep/internal/domain"
)

type ProductRepo struct{ q sqlx.ExtContext }

func NewProductRepo(q sqlx.ExtContext) *ProductRepo { return &ProductRepo{q: q} }

const productCols = `p.id, p.category_id, p.product_name, p.stock_level, p.price,
	COALESCE(p.image,'') AS image, p.status, p.created_at, p.updated_at`

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO products(id, category_id, product_name, stock_level, price, image, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.CategoryID, p.Name, p.StockLevel, p.Price, nullable(p.Image), p.Active, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, r.q, &p, r.q.Rebind(`SELECT `+productCols+` FROM products p WHERE p.id = ?`), id)
	if err != nil {
		return nil, noRows(err, "product %s", id)
	}
	return &p, nil
}

// GetForUpdate reads the product and, on drivers that support it, locks the
// row until the surrounding transaction ends.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, r.q, &p, r.q.Rebind(`SELECT `+productCols+` FROM products p WHERE p.id = ?`+forUpdate(r.q)), id)
	if err != nil {
		return nil, noRows(err, "product %s", id)
	}
	return &p, nil
}

func (r *ProductRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Product, error) {
	var out []domain.Product
	err := sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(`
		SELECT `+productCols+`
		FROM products p
		JOIN categories c ON c.id = p.category_id
		JOIN stores s ON s.id = c.store_id
		WHERE s.owner_id = ?
		ORDER BY p.created_at, p.id`), ownerID)
	return out, err
}

func (r *ProductRepo) ListByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	var out []domain.Product
	err := sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(`
		SELECT `+productCols+` FROM products p
		WHERE p.category_id = ?
		ORDER BY p.created_at, p.id`), categoryID)
	return out, err
}

func (r *ProductRepo) IDsByCategories(ctx context.Context, categoryIDs []string) ([]string, error) {
	return idsIn(ctx, r.q, "products", "category_id", categoryIDs)
}

// Update writes the descriptive fields. Stock goes through InventoryRepo.
func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE products SET category_id = ?, product_name = ?, price = ?, image = ?, status = ?, updated_at = ?
		WHERE id = ?`),
		p.CategoryID, p.Name, p.Price, nullable(p.Image), p.Active, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	return affected(res, "product %s", p.ID)
}

func (r *ProductRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	return deleteIn(ctx, r.q, "products", "id", ids)
}

func (r *ProductRepo) SetImage(ctx context.Context, id, image string) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`UPDATE products SET image = ? WHERE id = ?`), nullable(image), id)
	return err
}
