package services_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storekeep/internal/domain"
	"storekeep/internal/repos"
	"storekeep/internal/services"
	"storekeep/internal/storage"
)

type fixture struct {
	t       *testing.T
	ctx     context.Context
	store   *repos.Datastore
	root    string
	files   storage.Storage
	catalog *services.CatalogService
	sales   *services.SaleService
	cascade *services.CascadeService
	inv     *services.InventoryService
	owners  *services.OwnerService
	admins  *services.AdminService
	auth    *services.AuthService
	seq     int
}

// newFixture opens a migrated in-memory database and wires every service
// over it, with images stored under a temp dir.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := repos.NewDatastore(db)
	root := t.TempDir()
	files := storage.NewLocal(root, "/media")
	cascade := services.NewCascadeService(store, files)
	return &fixture{
		t:       t,
		ctx:     context.Background(),
		store:   store,
		root:    root,
		files:   files,
		catalog: services.NewCatalogService(store, files, true),
		sales:   services.NewSaleService(store),
		cascade: cascade,
		inv:     services.NewInventoryService(store),
		owners:  services.NewOwnerService(store, cascade),
		admins:  services.NewAdminService(store),
		auth:    services.NewAuthService(store, "test-secret", 0),
	}
}

func (f *fixture) next() int {
	f.seq++
	return f.seq
}

func (f *fixture) owner() string {
	f.t.Helper()
	n := f.next()
	o, _, err := f.owners.Register(f.ctx, services.NewOwner{
		FirstName: "Owner",
		LastName:  fmt.Sprintf("N%d", n),
		Email:     fmt.Sprintf("owner%d@storekeep.test", n),
	})
	require.NoError(f.t, err)
	return o.ID
}

func (f *fixture) shop(ownerID string) *domain.Store {
	f.t.Helper()
	st, err := f.catalog.CreateStore(f.ctx, ownerID, services.NewStore{
		Name:     fmt.Sprintf("Store %d", f.next()),
		Location: "Main street",
	})
	require.NoError(f.t, err)
	return st
}

func (f *fixture) category(ownerID, storeID string) *domain.Category {
	f.t.Helper()
	c, err := f.catalog.CreateCategory(f.ctx, ownerID, services.NewCategory{
		StoreID: storeID,
		Name:    fmt.Sprintf("Category %d", f.next()),
	})
	require.NoError(f.t, err)
	return c
}

func (f *fixture) product(ownerID, categoryID string, stock int, price string) *domain.Product {
	f.t.Helper()
	p, err := f.catalog.CreateProduct(f.ctx, ownerID, services.NewProduct{
		CategoryID: categoryID,
		Name:       fmt.Sprintf("Product %d", f.next()),
		StockLevel: stock,
		Price:      decimal.RequireFromString(price),
	})
	require.NoError(f.t, err)
	return p
}

// productFor creates a whole owner → store → category → product chain.
func (f *fixture) productFor(ownerID string, stock int, price string) *domain.Product {
	f.t.Helper()
	st := f.shop(ownerID)
	c := f.category(ownerID, st.ID)
	return f.product(ownerID, c.ID, stock, price)
}

func (f *fixture) stock(productID string) int {
	f.t.Helper()
	qty, err := f.store.Repos().Inventory.Qty(f.ctx, productID)
	require.NoError(f.t, err)
	return qty
}

func (f *fixture) sell(ownerID, productID string, qty int) domain.Sale {
	f.t.Helper()
	b, err := f.sales.CreateSales(f.ctx, ownerID, []domain.SaleItem{{ProductID: productID, Quantity: qty}})
	require.NoError(f.t, err)
	require.Len(f.t, b.Sales, 1)
	return b.Sales[0]
}

func png() *services.Image {
	return &services.Image{Filename: "photo.PNG", Body: bytes.NewReader([]byte("\x89PNG fake"))}
}
