package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"storekeep/internal/domain"
)

type SaleRepo struct{ q sqlx.ExtContext }

func NewSaleRepo(q sqlx.ExtContext) *SaleRepo { return &SaleRepo{q: q} }

const saleCols = `sa.id, sa.product_id, sa.quantity, sa.total_price, sa.sale_date, sa.status, sa.created_at, sa.updated_at`

// ownedSales joins a sale up to its store so listings can filter by owner.
const ownedSales = `
	FROM sales sa
	JOIN products p ON p.id = sa.product_id
	JOIN categories c ON c.id = p.category_id
	JOIN stores s ON s.id = c.store_id`

func (r *SaleRepo) Create(ctx context.Context, s *domain.Sale) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO sales(id, product_id, quantity, total_price, sale_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		s.ID, s.ProductID, s.Quantity, s.TotalPrice, s.SaleDate, string(s.Status), s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *SaleRepo) Get(ctx context.Context, id string) (*domain.Sale, error) {
	var s domain.Sale
	err := sqlx.GetContext(ctx, r.q, &s, r.q.Rebind(`SELECT `+saleCols+` FROM sales sa WHERE sa.id = ?`), id)
	if err != nil {
		return nil, noRows(err, "sale %s", id)
	}
	return &s, nil
}

// GetForUpdate reads and, where supported, locks the sale row.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*domain.Sale, error) {
	var s domain.Sale
	err := sqlx.GetContext(ctx, r.q, &s, r.q.Rebind(`SELECT `+saleCols+` FROM sales sa WHERE sa.id = ?`+forUpdate(r.q)), id)
	if err != nil {
		return nil, noRows(err, "sale %s", id)
	}
	return &s, nil
}

func (r *SaleRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Sale, error) {
	var out []domain.Sale
	err := sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(`
		SELECT `+saleCols+ownedSales+`
		WHERE s.owner_id = ?
		ORDER BY sa.sale_date DESC, sa.id`), ownerID)
	return out, err
}

func (r *SaleRepo) ListByStore(ctx context.Context, storeID string) ([]domain.Sale, error) {
	var out []domain.Sale
	err := sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(`
		SELECT `+saleCols+ownedSales+`
		WHERE s.id = ?
		ORDER BY sa.sale_date DESC, sa.id`), storeID)
	return out, err
}

func (r *SaleRepo) ListByProduct(ctx context.Context, productID string) ([]domain.Sale, error) {
	var out []domain.Sale
	err := sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(`
		SELECT `+saleCols+` FROM sales sa
		WHERE sa.product_id = ?
		ORDER BY sa.sale_date DESC, sa.id`), productID)
	return out, err
}

func (r *SaleRepo) Update(ctx context.Context, s *domain.Sale) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE sales SET product_id = ?, quantity = ?, total_price = ?, status = ?, updated_at = ?
		WHERE id = ?`),
		s.ProductID, s.Quantity, s.TotalPrice, string(s.Status), s.UpdatedAt, s.ID)
	if err != nil {
		return err
	}
	return affected(res, "sale %s", s.ID)
}

func (r *SaleRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM sales WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return affected(res, "sale %s", id)
}

func (r *SaleRepo) DeleteByProducts(ctx context.Context, productIDs []string) (int64, error) {
	return deleteIn(ctx, r.q, "sales", "product_id", productIDs)
}
