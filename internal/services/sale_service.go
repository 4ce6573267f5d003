package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storekeep/internal/domain"
	"storekeep/internal/repos"
	"storekeep/internal/validate"
)

type SaleService struct {
	Store *repos.Datastore
	Now   func() time.Time
}

func NewSaleService(store *repos.Datastore) *SaleService {
	return &SaleService{Store: store, Now: func() time.Time { return time.Now().UTC() }}
}

// SalesBatch is the result of one CreateSales call.
type SalesBatch struct {
	Sales      []domain.Sale
	GrandTotal decimal.Decimal
}

func lineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// CreateSales records a batch of sales. The batch is one transaction: every
// product is locked, checked and decremented, and the first failing item
// rolls back all of them.
func (s *SaleService) CreateSales(ctx context.Context, ownerID string, items []domain.SaleItem) (*SalesBatch, error) {
	if len(items) == 0 {
		return nil, domain.Invalid("sales list is required")
	}
	items = append([]domain.SaleItem(nil), items...)
	for i, it := range items {
		id, ok := validate.ID(it.ProductID)
		if !ok {
			return nil, domain.Invalid("sale %d: product_id must be a valid id", i)
		}
		if !validate.Quantity(it.Quantity) {
			return nil, domain.Invalid("sale %d: quantity must be positive", i)
		}
		items[i].ProductID = id
	}

	batch := &SalesBatch{GrandTotal: decimal.Zero}
	err := s.Store.InTx(ctx, func(r *repos.Repos) error {
		ids := make([]string, 0, len(items))
		for _, it := range items {
			if _, err := AssertOwns(ctx, r, ownerID, domain.KindProduct, it.ProductID); err != nil {
				return err
			}
			ids = append(ids, it.ProductID)
		}
		products, err := lockProducts(ctx, r, ids...)
		if err != nil {
			return err
		}

		for _, it := range items {
			p := products[it.ProductID]
			if err := Reserve(p, it.Quantity); err != nil {
				return err
			}
			if err := r.Inventory.SaveStock(ctx, p); err != nil {
				return err
			}
			now := s.Now()
			sale := domain.Sale{
				ID:         uuid.NewString(),
				ProductID:  p.ID,
				Quantity:   it.Quantity,
				TotalPrice: lineTotal(p.Price, it.Quantity),
				SaleDate:   now,
				Status:     domain.SaleCompleted,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := r.Sales.Create(ctx, &sale); err != nil {
				return err
			}
			batch.Sales = append(batch.Sales, sale)
			batch.GrandTotal = batch.GrandTotal.Add(sale.TotalPrice)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// UpdateSale changes a sale's product, quantity and/or status and moves stock
// accordingly:
//   - same product, new quantity: the difference is released or reserved;
//   - new product: the old quantity goes back to the old product and the new
//     quantity is reserved on the new one;
//   - neither: stock is untouched.
//
// The total is always recomputed from the current price of the product the
// sale ends up on.
func (s *SaleService) UpdateSale(ctx context.Context, ownerID, saleID string, patch domain.SalePatch) (*domain.Sale, error) {
	if patch.ProductID != nil {
		id, ok := validate.ID(*patch.ProductID)
		if !ok {
			return nil, domain.Invalid("product_id must be a valid id")
		}
		patch.ProductID = &id
	}
	if patch.Quantity != nil && !validate.Quantity(*patch.Quantity) {
		return nil, domain.Invalid("quantity must be positive")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, domain.Invalid("status must be one of completed, pending, canceled")
	}

	var out domain.Sale
	err := s.Store.InTx(ctx, func(r *repos.Repos) error {
		if _, err := AssertOwns(ctx, r, ownerID, domain.KindSale, saleID); err != nil {
			return err
		}
		sale, err := r.Sales.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}

		newProductID, newQty := sale.ProductID, sale.Quantity
		if patch.ProductID != nil {
			newProductID = *patch.ProductID
		}
		if patch.Quantity != nil {
			newQty = *patch.Quantity
		}
		if newProductID != sale.ProductID {
			if _, err := AssertOwns(ctx, r, ownerID, domain.KindProduct, newProductID); err != nil {
				return err
			}
		}

		products, err := lockProducts(ctx, r, sale.ProductID, newProductID)
		if err != nil {
			return err
		}
		oldP, newP := products[sale.ProductID], products[newProductID]

		switch {
		case newProductID != sale.ProductID:
			if err := Release(oldP, sale.Quantity); err != nil {
				return err
			}
			if err := Reserve(newP, newQty); err != nil {
				return err
			}
			if err := r.Inventory.SaveStock(ctx, oldP); err != nil {
				return err
			}
			if err := r.Inventory.SaveStock(ctx, newP); err != nil {
				return err
			}
		case newQty != sale.Quantity:
			if err := Adjust(oldP, sale.Quantity-newQty); err != nil {
				return err
			}
			if err := r.Inventory.SaveStock(ctx, oldP); err != nil {
				return err
			}
		}

		sale.ProductID = newProductID
		sale.Quantity = newQty
		sale.TotalPrice = lineTotal(newP.Price, newQty)
		if patch.Status != nil {
			sale.Status = *patch.Status
		}
		sale.UpdatedAt = s.Now()
		if err := r.Sales.Update(ctx, sale); err != nil {
			return err
		}
		out = *sale
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSale removes a sale and returns its quantity to the product, both or
// neither.
func (s *SaleService) DeleteSale(ctx context.Context, ownerID, saleID string) error {
	return s.Store.InTx(ctx, func(r *repos.Repos) error {
		if _, err := AssertOwns(ctx, r, ownerID, domain.KindSale, saleID); err != nil {
			return err
		}
		sale, err := r.Sales.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		p, err := r.Products.GetForUpdate(ctx, sale.ProductID)
		if err != nil {
			return err
		}
		if err := Release(p, sale.Quantity); err != nil {
			return err
		}
		if err := r.Inventory.SaveStock(ctx, p); err != nil {
			return err
		}
		return r.Sales.Delete(ctx, sale.ID)
	})
}

func (s *SaleService) ListSales(ctx context.Context, ownerID string) ([]domain.Sale, error) {
	return s.Store.Repos().Sales.ListByOwner(ctx, ownerID)
}

func (s *SaleService) GetSale(ctx context.Context, ownerID, saleID string) (*domain.Sale, error) {
	r := s.Store.Repos()
	if _, err := AssertOwns(ctx, r, ownerID, domain.KindSale, saleID); err != nil {
		return nil, err
	}
	return r.Sales.Get(ctx, saleID)
}

func (s *SaleService) ListSalesByStore(ctx context.Context, ownerID, storeID string) ([]domain.Sale, error) {
	r := s.Store.Repos()
	if _, err := AssertOwns(ctx, r, ownerID, domain.KindStore, storeID); err != nil {
		return nil, err
	}
	return r.Sales.ListByStore(ctx, storeID)
}

func (s *SaleService) ListSalesByProduct(ctx context.Context, ownerID, productID string) ([]domain.Sale, error) {
	r := s.Store.Repos()
	if _, err := AssertOwns(ctx, r, ownerID, domain.KindProduct, productID); err != nil {
		return nil, err
	}
	return r.Sales.ListByProduct(ctx, productID)
}

// lockProducts reads and locks each distinct product once, in id order, so
// concurrent transactions touching the same products cannot deadlock.
func lockProducts(ctx context.Context, r *repos.Repos, ids ...string) (map[string]*domain.Product, error) {
	uniq := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	sort.Strings(uniq)

	out := make(map[string]*domain.Product, len(uniq))
	for _, id := range uniq {
		p, err := r.Products.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}
