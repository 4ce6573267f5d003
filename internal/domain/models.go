package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Admin struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	Hash      string    `db:"password_hash"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Owner struct {
	ID        string    `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	Hash      string    `db:"password_hash"`
	Active    bool      `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Store struct {
	ID        string    `db:"id"`
	OwnerID   string    `db:"owner_id"`
	Name      string    `db:"store_name"`
	Location  string    `db:"location"`
	Image     string    `db:"image"` // path relative to the media root, "" when none
	Active    bool      `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Category struct {
	ID        string    `db:"id"`
	StoreID   string    `db:"store_id"`
	Name      string    `db:"category_name"`
	Image     string    `db:"image"`
	Active    bool      `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Product struct {
	ID         string          `db:"id"`
	CategoryID string          `db:"category_id"`
	Name       string          `db:"product_name"`
	StockLevel int             `db:"stock_level"`
	Price      decimal.Decimal `db:"price"`
	Image      string          `db:"image"`
	Active     bool            `db:"status"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}
