package services_test

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storekeep/internal/domain"
	"storekeep/internal/services"
)

func ptr[T any](v T) *T { return &v }

func TestCreateSales_PriceTenStockFive(t *testing.T) {
	f := newFixture(t)
	o := f.owner()
	p := f.productFor(o, 5, "10.00")

	b, err := f.sales.CreateSales(f.ctx, o, []domain.SaleItem{{ProductID: p.ID, Quantity: 3}})
	require.NoError(t, err)
	require.Len(t, b.Sales, 1)
	assert.Equal(t, "30.00", b.Sales[0].TotalPrice.StringFixed(2))
	assert.Equal(t, "30.00", b.GrandTotal.StringFixed(2))
	assert.Equal(t, domain.SaleCompleted, b.Sales[0].Status)
	assert.Equal(t, 2, f.stock(p.ID))

	_, err = f.sales.CreateSales(f.ctx, o, []domain.SaleItem{{ProductID: p.ID, Quantity: 3}})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 2, f.stock(p.ID))
}

func TestCreateSales_DecrementsForAnyQuantityWithinStock(t *testing.T) {
	f := newFixture(t)
	o := f.owner()
	for q := 1; q <= 4; q++ {
		p := f.productFor(o, 4, "2.50")
		s := f.sell(o, p.ID, q)
		assert.Equal(t, 4-q, f.stock(p.ID))
		assert.True(t, p.Price.Mul(decimal.NewFromInt(int64(q))).Equal(s.TotalPrice), "total for q=%d", q)
	}
}

func TestCreateSales_BatchIsAtomic(t *testing.T) {
	f := newFixture(t)
	o := f.owner()
	a := f.productFor(o, 5, "1.00")
	b := f.productFor(o, 1, "1.00")

	_, err := f.sales.CreateSales(f.ctx, o, []domain.SaleItem{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 2},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 5, f.stock(a.ID), "first item must be rolled back")
	assert.Equal(t, 1, f.stock(b.ID))

	sales, err := f.sales.ListSales(f.ctx, o)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestCreateSales_SameProductTwiceInBatch(t *testing.T) {
	f := newFixture(t)
	o := f.owner()
	p := f.productFor(o, 5, "4.00")

	b, err := f.sales.CreateSales(f.ctx, o, []domain.SaleItem{
		{ProductID: p.ID, Quantity: 2},
		{ProductID: p.ID, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Len(t, b.Sales, 2)
	assert.Equal(t, "20.00", b.GrandTotal.StringFixed(2))
	assert.Equal(t, 0, f.stock(p.ID))
}

func TestCreateSales_Validation(t *testing.T) {
	f := newFixture(t)
	o := f.owner()
	p := f.productFor(o, 5, "1.00")

	cases := map[string][]domain.SaleItem{
		"empty":         nil,
		"zero quantity": {{ProductID: p.ID, Quantity: 0}},
		"negative":      {{ProductID: p.ID, Quantity: -1}},
		"no product":    {{ProductID: " ", Quantity: 1}},
		"malformed id":  {{ProductID: "abc", Quantity: 1}},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.sales.CreateSales(f.ctx, o, items)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
	assert.Equal(t, 5, f.stock(p.ID))
}

func TestCreateSales_UnknownAndForeignProducts(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.owner(), f.owner()
	p := f.productFor(bob, 5, "1.00")

	_, err := f.sales.CreateSales(f.ctx, alice, []domain.SaleItem{{ProductID: "00000000-0000-0000-0000-000000000000", Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.sales.CreateSales(f.ctx, alice, []domain.SaleItem{{ProductID: p.ID, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, 5, f.stock(p.ID))
}

func TestDeleteSale_RestoresStock(t *testing.T) {
	f := newFixture(t)
	o := f.owner()
	p := f.productFor(o, 7, "3.00")
	s := f.sell(o, p.ID, 4)
	require.Equal(t, 3, f.stock(p.ID))

	require.NoError(t, f.sales.DeleteSale(f.ctx, o, s.ID))
	assert.Equal(t, 7, f.stock(p.ID))

	_, err := f.sales.GetSale(f.ctx, o, s.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.sales.DeleteSale(f.ctx, o, s.ID), domain.ErrNotFound)
}

func TestDeleteSale_ForeignOwner(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.owner(), f.owner()
	p := f.productFor(bob, 5, "1.00")
	s := f.sell(bob, p.ID, 2)

	assert.ErrorIs(t, f.sales.DeleteSale(f.ctx, alice, s.ID), domain.ErrForbidden)
	assert.Equal(t, 3, f.stock(p.ID))
}

func TestUpdateSale_SameProductQuantity(t *testing.T) {
	f := newFixture(t)
	o := f.owner()
	p := f.productFor(o, 10, "2.00")
	s := f.sell(o, p.ID, 3)
	require.Equal(t, 7, f.stock(p.ID))

	got, err := f.sales.UpdateSale(f.ctx, o, s.ID, domain.SalePatch{Quantity: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, f.stock(p.ID), "stock moves by old-new")
	assert.Equal(t, "10.00", got.TotalPrice.StringFixed(2))

	got, err = f.sales.UpdateSale(f.ctx, o, s.ID, domain.SalePatch{Quantity: ptr(1)})
	require.NoError(t, err)
	assert.Equal(t, 9, f.stock(p.ID))
	assert.Equal(t, "2.00", got.TotalPrice.StringFixed(2))

	_, err = f.sales.UpdateSale(f.ctx, o, s.ID, domain.SalePatch{Quantity: ptr(11)})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 9, f.stock(p.ID))
}

func TestUpdateSale_RejectsMalformedProductID(t *testing.T) {
	f := newFixture(t)
	o := f.owner()
	p := f.productFor(o, 10, "2.00")
	s := f.sell(o, p.ID, 3)

	_, err := f.sales.UpdateSale(f.ctx, o, s.ID, domain.SalePatch{ProductID: ptr("abc")})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.sales.UpdateSale(f.ctx, o, s.ID, domain.SalePatch{Quantity: ptr(0)})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 7, f.stock(p.ID))
}

func TestUpdateSale_ChangeProduct(t *testing.T) {
	f := newFixture(t)
	o := f.owner()
	p1 := f.productFor(o, 10, "2.00")
	p2 := f.productFor(o, 4, "5.00")
	s := f.sell(o, p1.ID, 3)

	got, err := f.sales.UpdateSale(f.ctx, o, s.ID, domain.SalePatch{ProductID: ptr(p2.ID)})
	require.NoError(t, err)
	assert.Equal(t, 10, f.stock(p1.ID))
	assert.Equal(t, 1, f.stock(p2.ID))
	assert.Equal(t, p2.ID, got.ProductID)
	assert.Equal(t, "15.00", got.TotalPrice.StringFixed(2))
}

func TestUpdateSale_ChangeProductInsufficientLeavesBothUntouched(t *testing.T) {
	f := newFixture(t)
	o := f.owner()
	p1 := f.productFor(o, 10, "2.00")
	p2 := f.productFor(o, 2, "5.00")
	s := f.sell(o, p1.ID, 3)

	_, err := f.sales.UpdateSale(f.ctx, o, s.ID, domain.SalePatch{ProductID: ptr(p2.ID)})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 7, f.stock(p1.ID))
	assert.Equal(t, 2, f.stock(p2.ID))

	after, err := f.sales.GetSale(f.ctx, o, s.ID)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, after.ProductID)
}

func TestUpdateSale_ChangeProductAndQuantity(t *testing.T) {
	f := newFixture(t)
	o := f.owner()
	p1 := f.productFor(o, 10, "2.00")
	p2 := f.productFor(o, 10, "1.50")
	s := f.sell(o, p1.ID, 3)

	got, err := f.sales.UpdateSale(f.ctx, o, s.ID, domain.SalePatch{ProductID: ptr(p2.ID), Quantity: ptr(6)})
	require.NoError(t, err)
	assert.Equal(t, 10, f.stock(p1.ID))
	assert.Equal(t, 4, f.stock(p2.ID))
	assert.Equal(t, "9.00", got.TotalPrice.StringFixed(2))
}

func TestUpdateSale_StatusOnlyRecomputesTotal(t *testing.T) {
	f := newFixture(t)
	o := f.owner()
	p := f.productFor(o, 10, "2.00")
	s := f.sell(o, p.ID, 3)

	_, err := f.catalog.UpdateProduct(f.ctx, o, p.ID, services.ProductPatch{Price: ptr(decimal.RequireFromString("3.00"))})
	require.NoError(t, err)

	got, err := f.sales.UpdateSale(f.ctx, o, s.ID, domain.SalePatch{Status: ptr(domain.SaleCanceled)})
	require.NoError(t, err)
	assert.Equal(t, domain.SaleCanceled, got.Status)
	assert.Equal(t, "9.00", got.TotalPrice.StringFixed(2))
	assert.Equal(t, 7, f.stock(p.ID))

	stored, err := f.sales.GetSale(f.ctx, o, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SaleCanceled, stored.Status)

	_, err = f.sales.UpdateSale(f.ctx, o, s.ID, domain.SalePatch{Status: ptr(domain.SaleStatus("refunded"))})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateSale_ForeignTargets(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.owner(), f.owner()
	mine := f.productFor(alice, 5, "1.00")
	theirs := f.productFor(bob, 5, "1.00")
	s := f.sell(alice, mine.ID, 1)
	bs := f.sell(bob, theirs.ID, 1)

	_, err := f.sales.UpdateSale(f.ctx, alice, s.ID, domain.SalePatch{ProductID: ptr(theirs.ID)})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, 4, f.stock(mine.ID))
	assert.Equal(t, 4, f.stock(theirs.ID))

	_, err = f.sales.UpdateSale(f.ctx, alice, bs.ID, domain.SalePatch{Quantity: ptr(2)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.sales.UpdateSale(f.ctx, alice, "00000000-0000-0000-0000-000000000000", domain.SalePatch{Quantity: ptr(2)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaleListings(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.owner(), f.owner()
	st := f.shop(alice)
	c := f.category(alice, st.ID)
	p1 := f.product(alice, c.ID, 10, "1.00")
	p2 := f.product(alice, c.ID, 10, "1.00")
	f.sell(alice, p1.ID, 1)
	f.sell(alice, p1.ID, 1)
	f.sell(alice, p2.ID, 1)
	f.sell(bob, f.productFor(bob, 3, "1.00").ID, 1)

	all, err := f.sales.ListSales(f.ctx, alice)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byStore, err := f.sales.ListSalesByStore(f.ctx, alice, st.ID)
	require.NoError(t, err)
	assert.Len(t, byStore, 3)

	byProduct, err := f.sales.ListSalesByProduct(f.ctx, alice, p1.ID)
	require.NoError(t, err)
	assert.Len(t, byProduct, 2)

	_, err = f.sales.ListSalesByStore(f.ctx, bob, st.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	empty := f.shop(alice)
	none, err := f.sales.ListSalesByStore(f.ctx, alice, empty.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateSales_ConcurrentBuyersNeverOversell(t *testing.T) {
	f := newFixture(t)
	o := f.owner()
	p := f.productFor(o, 5, "1.00")

	const buyers = 12
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sales.CreateSales(f.ctx, o, []domain.SaleItem{{ProductID: p.ID, Quantity: 2}})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else {
				assert.ErrorIs(t, err, domain.ErrInsufficientStock)
				fail++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, ok)
	assert.Equal(t, buyers-2, fail)
	assert.Equal(t, 1, f.stock(p.ID))
}
