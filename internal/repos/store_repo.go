package repos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"storekeep/internal/domain"
)

type StoreRepo struct{ q sqlx.ExtContext }

func NewStoreRepo(q sqlx.ExtContext) *StoreRepo { return &StoreRepo{q: q} }

const storeCols = `id, owner_id, store_name, location, COALESCE(image,'') AS image, status, created_at, updated_at`

func (r *StoreRepo) Create(ctx context.Context, s *domain.Store) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO stores(id, owner_id, store_name, location, image, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		s.ID, s.OwnerID, s.Name, s.Location, nullable(s.Image), s.Active, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *StoreRepo) ByID(ctx context.Context, id string) (*domain.Store, error) {
	var s domain.Store
	err := sqlx.GetContext(ctx, r.q, &s, r.q.Rebind(`SELECT `+storeCols+` FROM stores WHERE id = ?`), id)
	if err != nil {
		return nil, noRows(err, "store %s", id)
	}
	return &s, nil
}

func (r *StoreRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Store, error) {
	var out []domain.Store
	err := sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(`
		SELECT `+storeCols+` FROM stores
		WHERE owner_id = ?
		ORDER BY created_at, id`), ownerID)
	return out, err
}

func (r *StoreRepo) IDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	return idsIn(ctx, r.q, "stores", "owner_id", []string{ownerID})
}

func (r *StoreRepo) Update(ctx context.Context, s *domain.Store) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE stores SET store_name = ?, location = ?, image = ?, status = ?, updated_at = ?
		WHERE id = ?`),
		s.Name, s.Location, nullable(s.Image), s.Active, s.UpdatedAt, s.ID)
	if err != nil {
		return err
	}
	return affected(res, "store %s", s.ID)
}

func (r *StoreRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	return deleteIn(ctx, r.q, "stores", "id", ids)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// SetImage replaces only the image reference.
func (r *StoreRepo) SetImage(ctx context.Context, id, image string) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`UPDATE stores SET image = ? WHERE id = ?`), nullable(image), id)
	return err
}
