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

const generatedPasswordLen = 16

type NewOwner struct {
	FirstName string
	LastName  string
	Email     string
}

// OwnerPatch carries the profile fields an owner may change. Nil means keep.
type OwnerPatch struct {
	FirstName *string
	LastName  *string
}

// OwnerDetails is an owner with everything it owns, nested.
type OwnerDetails struct {
	Owner  domain.Owner
	Stores []StoreTree
}

type StoreTree struct {
	domain.Store
	Categories []CategoryTree
}

type CategoryTree struct {
	domain.Category
	Products []domain.Product
}

// OwnerService covers the owner account lifecycle: admin side registration,
// listing, password resets and removal, and the owner's own settings.
type OwnerService struct {
	Store   *repos.Datastore
	Cascade *CascadeService
	Now     func() time.Time
}

func NewOwnerService(store *repos.Datastore, cascade *CascadeService) *OwnerService {
	return &OwnerService{Store: store, Cascade: cascade, Now: func() time.Time { return time.Now().UTC() }}
}

// Register creates an active owner with a generated password. The password is
// returned once and never stored in clear.
func (s *OwnerService) Register(ctx context.Context, in NewOwner) (*domain.Owner, string, error) {
	first, ok := validate.Name(in.FirstName)
	if !ok {
		return nil, "", domain.Invalid("first_name is required")
	}
	last, ok := validate.Name(in.LastName)
	if !ok {
		return nil, "", domain.Invalid("last_name is required")
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
	o := &domain.Owner{
		ID:        uuid.NewString(),
		FirstName: first,
		LastName:  last,
		Email:     email,
		Hash:      hash,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.Store.InTx(ctx, func(r *repos.Repos) error {
		_, err := r.Owners.ByEmail(ctx, email)
		switch {
		case err == nil:
			return errors.Wrapf(domain.ErrConflict, "owner with email %s", email)
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		return r.Owners.Create(ctx, o)
	})
	if err != nil {
		return nil, "", err
	}
	return o, pw, nil
}

func (s *OwnerService) List(ctx context.Context) ([]domain.Owner, error) {
	return s.Store.Repos().Owners.List(ctx)
}

func (s *OwnerService) Get(ctx context.Context, id string) (*domain.Owner, error) {
	return s.Store.Repos().Owners.ByID(ctx, id)
}

// Details loads the owner's stores, categories and products as a tree.
func (s *OwnerService) Details(ctx context.Context, id string) (*OwnerDetails, error) {
	r := s.Store.Repos()
	o, err := r.Owners.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	stores, err := r.Stores.ListByOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	cats, err := r.Categories.ListByOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	prods, err := r.Products.ListByOwner(ctx, id)
	if err != nil {
		return nil, err
	}

	byCat := make(map[string][]domain.Product)
	for _, p := range prods {
		byCat[p.CategoryID] = append(byCat[p.CategoryID], p)
	}
	byStore := make(map[string][]CategoryTree)
	for _, c := range cats {
		byStore[c.StoreID] = append(byStore[c.StoreID], CategoryTree{Category: c, Products: byCat[c.ID]})
	}
	out := &OwnerDetails{Owner: *o, Stores: make([]StoreTree, 0, len(stores))}
	for _, st := range stores {
		out.Stores = append(out.Stores, StoreTree{Store: st, Categories: byStore[st.ID]})
	}
	return out, nil
}

func (s *OwnerService) UpdateProfile(ctx context.Context, id string, patch OwnerPatch) (*domain.Owner, error) {
	r := s.Store.Repos()
	o, err := r.Owners.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.FirstName != nil {
		first, ok := validate.Name(*patch.FirstName)
		if !ok {
			return nil, domain.Invalid("first_name must be 1-120 characters")
		}
		o.FirstName = first
	}
	if patch.LastName != nil {
		last, ok := validate.Name(*patch.LastName)
		if !ok {
			return nil, domain.Invalid("last_name must be 1-120 characters")
		}
		o.LastName = last
	}
	o.UpdatedAt = s.Now()
	if err := r.Owners.UpdateProfile(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ResetPassword replaces the owner's password with a generated one and
// returns it.
func (s *OwnerService) ResetPassword(ctx context.Context, id string) (string, error) {
	pw, err := generatePassword(generatedPasswordLen)
	if err != nil {
		return "", err
	}
	hash, err := hashPassword(pw)
	if err != nil {
		return "", err
	}
	if err := s.Store.Repos().Owners.SetPassword(ctx, id, hash); err != nil {
		return "", err
	}
	return pw, nil
}

func (s *OwnerService) ChangePassword(ctx context.Context, id, current, next string) error {
	if !validate.Password(next) {
		return domain.Invalid("new password must be 8-72 characters with upper, lower, digit and symbol")
	}
	r := s.Store.Repos()
	o, err := r.Owners.ByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(o.Hash), []byte(current)) != nil {
		return ErrBadCreds
	}
	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	return r.Owners.SetPassword(ctx, id, hash)
}

func (s *OwnerService) Deactivate(ctx context.Context, id string) error {
	return s.Store.Repos().Owners.SetActive(ctx, id, false)
}

// Delete removes the owner and everything it owns.
func (s *OwnerService) Delete(ctx context.Context, id string) (*CascadeReport, error) {
	return s.Cascade.DeleteOwner(ctx, id)
}
