package services

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storekeep/internal/domain"
	applog "storekeep/internal/log"
	"storekeep/internal/repos"
	"storekeep/internal/storage"
	"storekeep/internal/validate"
)

// Image is an uploaded file to attach to a store, category or product.
type Image struct {
	Filename string
	Body     io.Reader
}

func (img *Image) ext() (string, error) {
	if img == nil {
		return "", nil
	}
	ext, ok := storage.ImageExt(img.Filename)
	if !ok {
		return "", domain.Invalid("image must be a .png, .jpg, .jpeg or .gif file")
	}
	return ext, nil
}

type NewStore struct {
	Name     string
	Location string
	Image    *Image
}

type StorePatch struct {
	Name     *string
	Location *string
	Active   *bool
	Image    *Image
}

type NewCategory struct {
	StoreID string
	Name    string
	Image   *Image
}

type CategoryPatch struct {
	Name   *string
	Active *bool
	Image  *Image
}

type NewProduct struct {
	CategoryID string
	Name       string
	StockLevel int
	Price      decimal.Decimal
	Image      *Image
}

type ProductPatch struct {
	CategoryID *string
	Name       *string
	StockLevel *int
	Price      *decimal.Decimal
	Active     *bool
	Image      *Image
}

// CatalogService manages an owner's stores, categories and products.
// Deletes live in CascadeService.
type CatalogService struct {
	Store  *repos.Datastore
	Files  storage.Storage
	Images bool // when false uploads are ignored
	Now    func() time.Time
}

func NewCatalogService(store *repos.Datastore, files storage.Storage, images bool) *CatalogService {
	return &CatalogService{Store: store, Files: files, Images: images, Now: func() time.Time { return time.Now().UTC() }}
}

// ---------- Stores ----------

func (s *CatalogService) CreateStore(ctx context.Context, ownerID string, in NewStore) (*domain.Store, error) {
	name, ok := validate.Name(in.Name)
	if !ok {
		return nil, domain.Invalid("store_name is required")
	}
	loc, ok := validate.Name(in.Location)
	if !ok {
		return nil, domain.Invalid("location is required")
	}
	ext, err := in.Image.ext()
	if err != nil {
		return nil, err
	}

	now := s.Now()
	st := &domain.Store{ID: uuid.NewString(), OwnerID: ownerID, Name: name, Location: loc, Active: true, CreatedAt: now, UpdatedAt: now}
	err = s.Store.InTx(ctx, func(r *repos.Repos) error {
		if _, err := r.Owners.ByID(ctx, ownerID); err != nil {
			return err
		}
		return r.Stores.Create(ctx, st)
	})
	if err != nil {
		return nil, err
	}
	st.Image = s.attach(ctx, s.Store.Repos().Stores.SetImage, storage.StoreDir(ownerID, st.ID), st.ID, "", in.Image, ext)
	return st, nil
}

func (s *CatalogService) ListStores(ctx context.Context, ownerID string) ([]domain.Store, error) {
	return s.Store.Repos().Stores.ListByOwner(ctx, ownerID)
}

func (s *CatalogService) GetStore(ctx context.Context, ownerID, storeID string) (*domain.Store, error) {
	r := s.Store.Repos()
	if _, err := AssertOwns(ctx, r, ownerID, domain.KindStore, storeID); err != nil {
		return nil, err
	}
	return r.Stores.ByID(ctx, storeID)
}

func (s *CatalogService) UpdateStore(ctx context.Context, ownerID, storeID string, in StorePatch) (*domain.Store, error) {
	name, loc, err := patchNames(in.Name, "store_name", in.Location, "location")
	if err != nil {
		return nil, err
	}
	ext, err := in.Image.ext()
	if err != nil {
		return nil, err
	}

	var st *domain.Store
	err = s.Store.InTx(ctx, func(r *repos.Repos) error {
		if _, err := AssertOwns(ctx, r, ownerID, domain.KindStore, storeID); err != nil {
			return err
		}
		var err error
		if st, err = r.Stores.ByID(ctx, storeID); err != nil {
			return err
		}
		if name != nil {
			st.Name = *name
		}
		if loc != nil {
			st.Location = *loc
		}
		if in.Active != nil {
			st.Active = *in.Active
		}
		st.UpdatedAt = s.Now()
		return r.Stores.Update(ctx, st)
	})
	if err != nil {
		return nil, err
	}
	st.Image = s.attach(ctx, s.Store.Repos().Stores.SetImage, storage.StoreDir(ownerID, st.ID), st.ID, st.Image, in.Image, ext)
	return st, nil
}

// ---------- Categories ----------

func (s *CatalogService) CreateCategory(ctx context.Context, ownerID string, in NewCategory) (*domain.Category, error) {
	name, ok := validate.Name(in.Name)
	if !ok {
		return nil, domain.Invalid("category_name is required")
	}
	if strings.TrimSpace(in.StoreID) == "" {
		return nil, domain.Invalid("store_id is required")
	}
	ext, err := in.Image.ext()
	if err != nil {
		return nil, err
	}

	now := s.Now()
	c := &domain.Category{ID: uuid.NewString(), StoreID: in.StoreID, Name: name, Active: true, CreatedAt: now, UpdatedAt: now}
	var sc domain.Scope
	err = s.Store.InTx(ctx, func(r *repos.Repos) error {
		var err error
		if sc, err = AssertOwns(ctx, r, ownerID, domain.KindStore, in.StoreID); err != nil {
			return err
		}
		return r.Categories.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	dir := storage.CategoryDir(sc.OwnerID, sc.StoreID, c.ID)
	c.Image = s.attach(ctx, s.Store.Repos().Categories.SetImage, dir, c.ID, "", in.Image, ext)
	return c, nil
}

func (s *CatalogService) ListCategories(ctx context.Context, ownerID string) ([]domain.Category, error) {
	return s.Store.Repos().Categories.ListByOwner(ctx, ownerID)
}

func (s *CatalogService) ListCategoriesByStore(ctx context.Context, ownerID, storeID string) ([]domain.Category, error) {
	r := s.Store.Repos()
	if _, err := AssertOwns(ctx, r, ownerID, domain.KindStore, storeID); err != nil {
		return nil, err
	}
	return r.Categories.ListByStore(ctx, storeID)
}

func (s *CatalogService) ListProductsByCategory(ctx context.Context, ownerID, categoryID string) ([]domain.Product, error) {
	r := s.Store.Repos()
	if _, err := AssertOwns(ctx, r, ownerID, domain.KindCategory, categoryID); err != nil {
		return nil, err
	}
	return r.Products.ListByCategory(ctx, categoryID)
}

func (s *CatalogService) GetCategory(ctx context.Context, ownerID, categoryID string) (*domain.Category, error) {
	r := s.Store.Repos()
	if _, err := AssertOwns(ctx, r, ownerID, domain.KindCategory, categoryID); err != nil {
		return nil, err
	}
	return r.Categories.ByID(ctx, categoryID)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, ownerID, categoryID string, in CategoryPatch) (*domain.Category, error) {
	name, _, err := patchNames(in.Name, "category_name", nil, "")
	if err != nil {
		return nil, err
	}
	ext, err := in.Image.ext()
	if err != nil {
		return nil, err
	}

	var c *domain.Category
	var sc domain.Scope
	err = s.Store.InTx(ctx, func(r *repos.Repos) error {
		var err error
		if sc, err = AssertOwns(ctx, r, ownerID, domain.KindCategory, categoryID); err != nil {
			return err
		}
		if c, err = r.Categories.ByID(ctx, categoryID); err != nil {
			return err
		}
		if name != nil {
			c.Name = *name
		}
		if in.Active != nil {
			c.Active = *in.Active
		}
		c.UpdatedAt = s.Now()
		return r.Categories.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	c.Image = s.attach(ctx, s.Store.Repos().Categories.SetImage, storage.Dir(sc, domain.KindCategory), c.ID, c.Image, in.Image, ext)
	return c, nil
}

// ---------- Products ----------

func (s *CatalogService) CreateProduct(ctx context.Context, ownerID string, in NewProduct) (*domain.Product, error) {
	name, ok := validate.Name(in.Name)
	if !ok {
		return nil, domain.Invalid("product_name is required")
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return nil, domain.Invalid("category_id is required")
	}
	if !validate.Stock(in.StockLevel) {
		return nil, domain.Invalid("stock_level must not be negative")
	}
	if !validate.Money(in.Price) {
		return nil, domain.Invalid("price must be a non-negative amount with at most two decimals")
	}
	ext, err := in.Image.ext()
	if err != nil {
		return nil, err
	}

	now := s.Now()
	p := &domain.Product{
		ID:         uuid.NewString(),
		CategoryID: in.CategoryID,
		Name:       name,
		StockLevel: in.StockLevel,
		Price:      in.Price,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	var sc domain.Scope
	err = s.Store.InTx(ctx, func(r *repos.Repos) error {
		var err error
		if sc, err = AssertOwns(ctx, r, ownerID, domain.KindCategory, in.CategoryID); err != nil {
			return err
		}
		return r.Products.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	dir := storage.ProductDir(sc.OwnerID, sc.StoreID, sc.CategoryID, p.ID)
	p.Image = s.attach(ctx, s.Store.Repos().Products.SetImage, dir, p.ID, "", in.Image, ext)
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, ownerID string) ([]domain.Product, error) {
	return s.Store.Repos().Products.ListByOwner(ctx, ownerID)
}

func (s *CatalogService) GetProduct(ctx context.Context, ownerID, productID string) (*domain.Product, error) {
	r := s.Store.Repos()
	if _, err := AssertOwns(ctx, r, ownerID, domain.KindProduct, productID); err != nil {
		return nil, err
	}
	return r.Products.Get(ctx, productID)
}

// UpdateProduct applies a partial update. Setting stock_level overwrites the
// stock directly (a restock); sales adjust it through the ledger instead.
// Moving a product to another of the owner's categories moves its image
// directory along with it.
func (s *CatalogService) UpdateProduct(ctx context.Context, ownerID, productID string, in ProductPatch) (*domain.Product, error) {
	name, _, err := patchNames(in.Name, "product_name", nil, "")
	if err != nil {
		return nil, err
	}
	if in.CategoryID != nil && strings.TrimSpace(*in.CategoryID) == "" {
		return nil, domain.Invalid("category_id must not be empty")
	}
	if in.StockLevel != nil && !validate.Stock(*in.StockLevel) {
		return nil, domain.Invalid("stock_level must not be negative")
	}
	if in.Price != nil && !validate.Money(*in.Price) {
		return nil, domain.Invalid("price must be a non-negative amount with at most two decimals")
	}
	ext, err := in.Image.ext()
	if err != nil {
		return nil, err
	}

	var (
		p             *domain.Product
		dir, moveFrom string
	)
	err = s.Store.InTx(ctx, func(r *repos.Repos) error {
		sc, err := AssertOwns(ctx, r, ownerID, domain.KindProduct, productID)
		if err != nil {
			return err
		}
		if p, err = r.Products.GetForUpdate(ctx, productID); err != nil {
			return err
		}
		dir = storage.Dir(sc, domain.KindProduct)

		if in.CategoryID != nil && *in.CategoryID != p.CategoryID {
			target, err := AssertOwns(ctx, r, ownerID, domain.KindCategory, *in.CategoryID)
			if err != nil {
				return err
			}
			moveFrom = dir
			dir = storage.ProductDir(target.OwnerID, target.StoreID, target.CategoryID, p.ID)
			if p.Image != "" {
				p.Image = path.Join(dir, path.Base(p.Image))
			}
			p.CategoryID = target.CategoryID
		}
		if name != nil {
			p.Name = *name
		}
		if in.Price != nil {
			p.Price = *in.Price
		}
		if in.Active != nil {
			p.Active = *in.Active
		}
		if in.StockLevel != nil && *in.StockLevel != p.StockLevel {
			p.StockLevel = *in.StockLevel
			if err := r.Inventory.SaveStock(ctx, p); err != nil {
				return err
			}
		}
		p.UpdatedAt = s.Now()
		return r.Products.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	if moveFrom != "" {
		if err := s.Files.Move(context.WithoutCancel(ctx), moveFrom, dir); err != nil {
			applog.Warn(nil, "image.move.fail", err, map[string]any{"from": moveFrom, "to": dir})
		}
	}
	p.Image = s.attach(ctx, s.Store.Repos().Products.SetImage, dir, p.ID, p.Image, in.Image, ext)
	return p, nil
}

// attach stores img under dir and points the entity at it, replacing old.
// It runs after the entity's transaction has committed, so a failure keeps
// the previous image and is only logged. It returns the image now in effect.
func (s *CatalogService) attach(ctx context.Context, set func(ctx context.Context, id, image string) error,
	dir, id, old string, img *Image, ext string) string {
	if img == nil || !s.Images {
		return old
	}
	ctx = context.WithoutCancel(ctx)
	rel := path.Join(dir, storage.FileName(id, ext))
	if err := s.Files.Save(ctx, rel, img.Body); err != nil {
		applog.Warn(nil, "image.save.fail", err, map[string]any{"id": id})
		return old
	}
	if err := set(ctx, id, rel); err != nil {
		_ = s.Files.Remove(ctx, rel)
		applog.Warn(nil, "image.attach.fail", err, map[string]any{"id": id})
		return old
	}
	if old != "" {
		if err := s.Files.Remove(ctx, old); err != nil {
			applog.Warn(nil, "image.remove.fail", err, map[string]any{"id": id, "path": old})
		}
	}
	return rel
}

// patchNames validates up to two optional name-like fields of a patch.
func patchNames(a *string, aField string, b *string, bField string) (*string, *string, error) {
	var outA, outB *string
	if a != nil {
		v, ok := validate.Name(*a)
		if !ok {
			return nil, nil, domain.Invalid("%s must not be empty", aField)
		}
		outA = &v
	}
	if b != nil {
		v, ok := validate.Name(*b)
		if !ok {
			return nil, nil, domain.Invalid("%s must not be empty", bField)
		}
		outB = &v
	}
	return outA, outB, nil
}
