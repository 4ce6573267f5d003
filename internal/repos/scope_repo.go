package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"storekeep/internal/domain"
)

// ScopeRepo resolves the ownership chain of any resource in one query.
type ScopeRepo struct{ q sqlx.ExtContext }

func NewScopeRepo(q sqlx.ExtContext) *ScopeRepo { return &ScopeRepo{q: q} }

var scopeQueries = map[domain.ResourceKind]string{
	domain.KindStore: `
		SELECT s.owner_id, s.id AS store_id, '' AS category_id, '' AS product_id, '' AS sale_id
		FROM stores s
		WHERE s.id = ?`,
	domain.KindCategory: `
		SELECT s.owner_id, s.id AS store_id, c.id AS category_id, '' AS product_id, '' AS sale_id
		FROM categories c
		JOIN stores s ON s.id = c.store_id
		WHERE c.id = ?`,
	domain.KindProduct: `
		SELECT s.owner_id, s.id AS store_id, c.id AS category_id, p.id AS product_id, '' AS sale_id
		FROM products p
		JOIN categories c ON c.id = p.category_id
		JOIN stores s ON s.id = c.store_id
		WHERE p.id = ?`,
	domain.KindSale: `
		SELECT s.owner_id, s.id AS store_id, c.id AS category_id, p.id AS product_id, sa.id AS sale_id
		FROM sales sa
		JOIN products p ON p.id = sa.product_id
		JOIN categories c ON c.id = p.category_id
		JOIN stores s ON s.id = c.store_id
		WHERE sa.id = ?`,
}

func (r *ScopeRepo) Resolve(ctx context.Context, kind domain.ResourceKind, id string) (domain.Scope, error) {
	query, ok := scopeQueries[kind]
	if !ok {
		return domain.Scope{}, errors.Errorf("unknown resource kind %q", kind)
	}
	var sc domain.Scope
	if err := sqlx.GetContext(ctx, r.q, &sc, r.q.Rebind(query), id); err != nil {
		return domain.Scope{}, noRows(err, "%s %s", kind, id)
	}
	return sc, nil
}
