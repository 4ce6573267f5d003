package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SalePending   SaleStatus = "pending"
	SaleCanceled  SaleStatus = "canceled"
)

func (s SaleStatus) Valid() bool {
	switch s {
	case SaleCompleted, SalePending, SaleCanceled:
		return true
	}
	return false
}

type Sale struct {
	ID         string          `db:"id"`
	ProductID  string          `db:"product_id"`
	Quantity   int             `db:"quantity"`
	TotalPrice decimal.Decimal `db:"total_price"`
	SaleDate   time.Time       `db:"sale_date"`
	Status     SaleStatus      `db:"status"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

// SaleItem is one line of a batch sale request.
type SaleItem struct {
	ProductID string
	Quantity  int
}

// SalePatch carries the optional fields of a sale update; nil means unchanged.
type SalePatch struct {
	ProductID *string
	Quantity  *int
	Status    *SaleStatus
}
