package services

import (
	"context"

	"github.com/pkg/errors"

	"storekeep/internal/domain"
	"storekeep/internal/repos"
	"storekeep/internal/validate"
)

// Reserve takes qty units out of p's stock. p is only changed on success;
// persisting it is the caller's job, inside the same transaction.
func Reserve(p *domain.Product, qty int) error {
	if !validate.Quantity(qty) {
		return domain.Invalid("quantity must be positive, got %d", qty)
	}
	if p.StockLevel < qty {
		return errors.Wrapf(domain.ErrInsufficientStock, "product %s has %d, need %d", p.ID, p.StockLevel, qty)
	}
	p.StockLevel -= qty
	return nil
}

// Release puts qty units back. Stock has no upper bound.
func Release(p *domain.Product, qty int) error {
	if !validate.Quantity(qty) {
		return domain.Invalid("quantity must be positive, got %d", qty)
	}
	p.StockLevel += qty
	return nil
}

// Adjust applies a signed delta and refuses to go below zero.
func Adjust(p *domain.Product, delta int) error {
	if p.StockLevel+delta < 0 {
		return errors.Wrapf(domain.ErrInsufficientStock, "product %s has %d, need %d", p.ID, p.StockLevel, -delta)
	}
	p.StockLevel += delta
	return nil
}

type InventoryService struct {
	Store *repos.Datastore
}

func NewInventoryService(store *repos.Datastore) *InventoryService {
	return &InventoryService{Store: store}
}

// CheckAvailability maps a product's stock level to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(ctx context.Context, ownerID, productID string) (domain.Availability, error) {
	r := s.Store.Repos()
	if _, err := AssertOwns(ctx, r, ownerID, domain.KindProduct, productID); err != nil {
		return domain.Availability{}, err
	}
	qty, err := r.Inventory.Qty(ctx, productID)
	if err != nil {
		return domain.Availability{}, err
	}

	status := "OUT_OF_STOCK"
	switch {
	case qty >= 5:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}
