package handlers

import (
	"time"

	"storekeep/internal/domain"
	"storekeep/internal/services"
	"storekeep/internal/storage"
)

const saleDateLayout = "2006-01-02 15:04"

type adminJSON struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ownerJSON struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Status    bool      `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type storeJSON struct {
	ID         string         `json:"id"`
	OwnerID    string         `json:"owner_id"`
	Name       string         `json:"store_name"`
	Location   string         `json:"location"`
	Image      string         `json:"image,omitempty"`
	Status     bool           `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Categories []categoryJSON `json:"categories,omitempty"`
}

type categoryJSON struct {
	ID        string        `json:"id"`
	StoreID   string        `json:"store_id"`
	Name      string        `json:"category_name"`
	Image     string        `json:"image,omitempty"`
	Status    bool          `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Products  []productJSON `json:"products,omitempty"`
}

type productJSON struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	Name       string    `json:"product_name"`
	StockLevel int       `json:"stock_level"`
	Price      string    `json:"price"`
	Image      string    `json:"image,omitempty"`
	Status     bool      `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type saleJSON struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	TotalPrice string `json:"total_price"`
	SaleDate   string `json:"sale_date"`
	Status     string `json:"status"`
}

func adminOut(a domain.Admin) adminJSON {
	return adminJSON{ID: a.ID, Email: a.Email, Name: a.Name, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt}
}

func adminsOut(in []domain.Admin) []adminJSON {
	out := make([]adminJSON, 0, len(in))
	for _, a := range in {
		out = append(out, adminOut(a))
	}
	return out
}

func ownerOut(o domain.Owner) ownerJSON {
	return ownerJSON{
		ID:        o.ID,
		FirstName: o.FirstName,
		LastName:  o.LastName,
		Email:     o.Email,
		Status:    o.Active,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func ownersOut(in []domain.Owner) []ownerJSON {
	out := make([]ownerJSON, 0, len(in))
	for _, o := range in {
		out = append(out, ownerOut(o))
	}
	return out
}

func storeOut(files storage.Storage, s domain.Store) storeJSON {
	return storeJSON{
		ID:        s.ID,
		OwnerID:   s.OwnerID,
		Name:      s.Name,
		Location:  s.Location,
		Image:     files.URL(s.Image),
		Status:    s.Active,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func storesOut(files storage.Storage, in []domain.Store) []storeJSON {
	out := make([]storeJSON, 0, len(in))
	for _, s := range in {
		out = append(out, storeOut(files, s))
	}
	return out
}

func categoryOut(files storage.Storage, c domain.Category) categoryJSON {
	return categoryJSON{
		ID:        c.ID,
		StoreID:   c.StoreID,
		Name:      c.Name,
		Image:     files.URL(c.Image),
		Status:    c.Active,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func categoriesOut(files storage.Storage, in []domain.Category) []categoryJSON {
	out := make([]categoryJSON, 0, len(in))
	for _, c := range in {
		out = append(out, categoryOut(files, c))
	}
	return out
}

func productOut(files storage.Storage, p domain.Product) productJSON {
	return productJSON{
		ID:         p.ID,
		CategoryID: p.CategoryID,
		Name:       p.Name,
		StockLevel: p.StockLevel,
		Price:      p.Price.StringFixed(2),
		Image:      files.URL(p.Image),
		Status:     p.Active,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func productsOut(files storage.Storage, in []domain.Product) []productJSON {
	out := make([]productJSON, 0, len(in))
	for _, p := range in {
		out = append(out, productOut(files, p))
	}
	return out
}

func saleOut(s domain.Sale) saleJSON {
	return saleJSON{
		ID:         s.ID,
		ProductID:  s.ProductID,
		Quantity:   s.Quantity,
		TotalPrice: s.TotalPrice.StringFixed(2),
		SaleDate:   s.SaleDate.Format(saleDateLayout),
		Status:     string(s.Status),
	}
}

func salesOut(in []domain.Sale) []saleJSON {
	out := make([]saleJSON, 0, len(in))
	for _, s := range in {
		out = append(out, saleOut(s))
	}
	return out
}

// detailsOut renders an owner with its nested stores, categories and products.
func detailsOut(files storage.Storage, d *services.OwnerDetails) map[string]any {
	stores := make([]storeJSON, 0, len(d.Stores))
	for _, st := range d.Stores {
		sj := storeOut(files, st.Store)
		for _, ct := range st.Categories {
			cj := categoryOut(files, ct.Category)
			cj.Products = productsOut(files, ct.Products)
			sj.Categories = append(sj.Categories, cj)
		}
		stores = append(stores, sj)
	}
	return map[string]any{"owner": ownerOut(d.Owner), "stores": stores}
}

func reportOut(rep *services.CascadeReport) map[string]any {
	out := map[string]any{"deleted": rep}
	if rep.CleanupErr != nil {
		out["cleanup_error"] = "image files could not be removed"
	}
	return out
}
