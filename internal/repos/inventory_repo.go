package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"storekeep/internal/domain"
)

// InventoryRepo persists stock levels. The arithmetic itself lives in the
// services ledger; this repo only reads and writes the column.
type InventoryRepo struct{ q sqlx.ExtContext }

func NewInventoryRepo(q sqlx.ExtContext) *InventoryRepo { return &InventoryRepo{q: q} }

// Qty returns the current stock level of a product.
func (r *InventoryRepo) Qty(ctx context.Context, productID string) (int, error) {
	var qty int
	err := sqlx.GetContext(ctx, r.q, &qty, r.q.Rebind(`SELECT stock_level FROM products WHERE id = ?`), productID)
	if err != nil {
		return 0, noRows(err, "product %s", productID)
	}
	return qty, nil
}

// SaveStock writes p.StockLevel back. The CHECK constraint on stock_level is
// the last line against a negative value slipping through.
func (r *InventoryRepo) SaveStock(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE products SET stock_level = ?, updated_at = ? WHERE id = ?`),
		p.StockLevel, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	return affected(res, "product %s", p.ID)
}
