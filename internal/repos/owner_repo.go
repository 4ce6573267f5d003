package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"storekeep/internal/domain"
)

type OwnerRepo struct{ q sqlx.ExtContext }

func NewOwnerRepo(q sqlx.ExtContext) *OwnerRepo { return &OwnerRepo{q: q} }

const ownerCols = `id, first_name, last_name, email, password_hash, status, created_at, updated_at`

func (r *OwnerRepo) Create(ctx context.Context, o *domain.Owner) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO owners(`+ownerCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		o.ID, o.FirstName, o.LastName, o.Email, o.Hash, o.Active, o.CreatedAt, o.UpdatedAt)
	return err
}

func (r *OwnerRepo) ByID(ctx context.Context, id string) (*domain.Owner, error) {
	var o domain.Owner
	err := sqlx.GetContext(ctx, r.q, &o, r.q.Rebind(`SELECT `+ownerCols+` FROM owners WHERE id = ?`), id)
	if err != nil {
		return nil, noRows(err, "owner %s", id)
	}
	return &o, nil
}

func (r *OwnerRepo) ByEmail(ctx context.Context, email string) (*domain.Owner, error) {
	var o domain.Owner
	err := sqlx.GetContext(ctx, r.q, &o, r.q.Rebind(`SELECT `+ownerCols+` FROM owners WHERE LOWER(email) = LOWER(?)`), email)
	if err != nil {
		return nil, noRows(err, "owner %s", email)
	}
	return &o, nil
}

func (r *OwnerRepo) List(ctx context.Context) ([]domain.Owner, error) {
	var out []domain.Owner
	err := sqlx.SelectContext(ctx, r.q, &out, `SELECT `+ownerCols+` FROM owners ORDER BY created_at DESC`)
	return out, err
}

// UpdateProfile writes the owner's names and updated_at.
func (r *OwnerRepo) UpdateProfile(ctx context.Context, o *domain.Owner) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE owners SET first_name = ?, last_name = ?, updated_at = ? WHERE id = ?`),
		o.FirstName, o.LastName, o.UpdatedAt, o.ID)
	if err != nil {
		return err
	}
	return affected(res, "owner %s", o.ID)
}

func (r *OwnerRepo) SetPassword(ctx context.Context, id, hash string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE owners SET password_hash = ?, updated_at = ? WHERE id = ?`), hash, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return affected(res, "owner %s", id)
}

func (r *OwnerRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE owners SET status = ?, updated_at = ? WHERE id = ?`), active, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return affected(res, "owner %s", id)
}

func (r *OwnerRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM owners WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return affected(res, "owner %s", id)
}
