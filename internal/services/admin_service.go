package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"storekeep/internal/domain"
	"storekeep/internal/repos"
	"storekeep/internal/validate"
)

type NewAdmin struct {
	Name  string
	Email string
}

// AdminPatch carries the admin fields a PUT may change. Nil means keep.
type AdminPatch struct {
	Name  *string
	Email *string
}

// AdminService manages administrator accounts. The seeded admin is created
// by AuthService.SeedAdmin; everything after that goes through here.
type AdminService struct {
	Store *repos.Datastore
	Now   func() time.Time
}

func NewAdminService(store *repos.Datastore) *AdminService {
	return &AdminService{Store: store, Now: func() time.Time { return time.Now().UTC() }}
}

// Create adds an admin with a generated password, returned once.
func (s *AdminService) Create(ctx context.Context, in NewAdmin) (*domain.Admin, string, error) {
	name, ok := validate.Name(in.Name)
	if !ok {
		return nil, "", domain.Invalid("name is required")
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return nil, "", domain.Invalid("email is invalid")
	}
	email = strings.ToLower(email)

	pw, err := generatePassword(generatedPasswordLen)
	if err != nil {
		return nil, "", err
	}
	hash, err := hashPassword(pw)
	if err != nil {
		return nil, "", err
	}
	now := s.Now()
	a := &domain.Admin{ID: uuid.NewString(), Email: email, Name: name, Hash: hash, CreatedAt: now, UpdatedAt: now}
	err = s.Store.InTx(ctx, func(r *repos.Repos) error {
		_, err := r.Admins.ByEmail(ctx, email)
		switch {
		case err == nil:
			return errors.Wrapf(domain.ErrConflict, "admin with email %s", email)
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		return r.Admins.Ensure(ctx, a)
	})
	if err != nil {
		return nil, "", err
	}
	return a, pw, nil
}

func (s *AdminService) List(ctx context.Context) ([]domain.Admin, error) {
	return s.Store.Repos().Admins.List(ctx)
}

func (s *AdminService) Get(ctx context.Context, id string) (*domain.Admin, error) {
	return s.Store.Repos().Admins.ByID(ctx, id)
}

func (s *AdminService) Update(ctx context.Context, id string, patch AdminPatch) (*domain.Admin, error) {
	var name, email string
	if patch.Name != nil {
		n, ok := validate.Name(*patch.Name)
		if !ok {
			return nil, domain.Invalid("name must be 1-120 characters")
		}
		name = n
	}
	if patch.Email != nil {
		e, ok := validate.Email(*patch.Email)
		if !ok {
			return nil, domain.Invalid("email is invalid")
		}
		email = strings.ToLower(e)
	}

	var out *domain.Admin
	err := s.Store.InTx(ctx, func(r *repos.Repos) error {
		a, err := r.Admins.ByID(ctx, id)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			a.Name = name
		}
		if patch.Email != nil && email != a.Email {
			other, err := r.Admins.ByEmail(ctx, email)
			switch {
			case err == nil && other.ID != a.ID:
				return errors.Wrapf(domain.ErrConflict, "admin with email %s", email)
			case err != nil && !errors.Is(err, domain.ErrNotFound):
				return err
			}
			a.Email = email
		}
		a.UpdatedAt = s.Now()
		if err := r.Admins.Update(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AdminService) ChangePassword(ctx context.Context, id, current, next string) error {
	if !validate.Password(next) {
		return domain.Invalid("new password must be 8-72 characters with upper, lower, digit and symbol")
	}
	r := s.Store.Repos()
	a, err := r.Admins.ByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.Hash), []byte(current)) != nil {
		return ErrBadCreds
	}
	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	return r.Admins.SetPassword(ctx, id, hash)
}

// Delete removes an admin account. The last remaining admin cannot be
// removed.
func (s *AdminService) Delete(ctx context.Context, id string) error {
	return s.Store.InTx(ctx, func(r *repos.Repos) error {
		if _, err := r.Admins.ByID(ctx, id); err != nil {
			return err
		}
		n, err := r.Admins.Count(ctx)
		if err != nil {
			return err
		}
		if n <= 1 {
			return errors.Wrap(domain.ErrConflict, "cannot delete the last admin")
		}
		return r.Admins.Delete(ctx, id)
	})
}
