package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"storekeep/internal/domain"
)

type AdminRepo struct{ q sqlx.ExtContext }

func NewAdminRepo(q sqlx.ExtContext) *AdminRepo { return &AdminRepo{q: q} }

func (r *AdminRepo) ByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	var a domain.Admin
	err := sqlx.GetContext(ctx, r.q, &a, r.q.Rebind(`
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM admins WHERE LOWER(email) = LOWER(?)`), email)
	if err != nil {
		return nil, noRows(err, "admin %s", email)
	}
	return &a, nil
}

func (r *AdminRepo) ByID(ctx context.Context, id string) (*domain.Admin, error) {
	var a domain.Admin
	err := sqlx.GetContext(ctx, r.q, &a, r.q.Rebind(`
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM admins WHERE id = ?`), id)
	if err != nil {
		return nil, noRows(err, "admin %s", id)
	}
	return &a, nil
}

// Ensure inserts the admin unless one with the same email already exists.
func (r *AdminRepo) Ensure(ctx context.Context, a *domain.Admin) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO admins(id, email, name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`),
		a.ID, a.Email, a.Name, a.Hash, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *AdminRepo) List(ctx context.Context) ([]domain.Admin, error) {
	var out []domain.Admin
	err := sqlx.SelectContext(ctx, r.q, &out, `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM admins ORDER BY created_at`)
	return out, err
}

func (r *AdminRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM admins`)
	return n, err
}

func (r *AdminRepo) Update(ctx context.Context, a *domain.Admin) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE admins SET email = ?, name = ?, updated_at = ? WHERE id = ?`),
		a.Email, a.Name, a.UpdatedAt, a.ID)
	if err != nil {
		return err
	}
	return affected(res, "admin %s", a.ID)
}

func (r *AdminRepo) SetPassword(ctx context.Context, id, hash string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE admins SET password_hash = ?, updated_at = ? WHERE id = ?`), hash, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return affected(res, "admin %s", id)
}

func (r *AdminRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM admins WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return affected(res, "admin %s", id)
}
