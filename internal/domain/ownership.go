package domain

// ResourceKind names a level of the owner → store → category → product → sale
// hierarchy.
type ResourceKind string

const (
	KindStore    ResourceKind = "store"
	KindCategory ResourceKind = "category"
	KindProduct  ResourceKind = "product"
	KindSale     ResourceKind = "sale"
)

// Scope is the resolved ownership chain of a resource. Levels above the
// resource are filled in; levels below it stay empty.
type Scope struct {
	OwnerID    string `db:"owner_id"`
	StoreID    string `db:"store_id"`
	CategoryID string `db:"category_id"`
	ProductID  string `db:"product_id"`
	SaleID     string `db:"sale_id"`
}
