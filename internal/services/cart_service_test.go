package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
	"hanythrift/internal/money"
	"hanythrift/internal/repositories"
	"hanythrift/internal/services"
)

func newCartFixture(t *testing.T) (*services.CartService, *repositories.MockProductRepository) {
	t.Helper()
	productRepo := repositories.NewMockProductRepository()
	cartRepo := repositories.NewMockCartRepository(productRepo)
	return services.NewCartService(cartRepo, productRepo), productRepo
}

func TestCartService_AddUpsertsQuantity(t *testing.T) {
	cartService, productRepo := newCartFixture(t)

	jacket := &models.Product{
		Name:       "Vintage Denim Jacket",
		PriceCents: 129999,
		Stock:      3,
		SellerID:   "seller-1",
	}
	assert.NoError(t, productRepo.Create(jacket))

	item, err := cartService.Add("buyer-1", jacket.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)

	// Adding the same product again grows the existing row instead of
	// creating a second one.
	item, err = cartService.Add("buyer-1", jacket.ID, 2)
	assert.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)

	items, err := cartService.List("buyer-1")
	assert.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCartService_AddRejectsBadQuantity(t *testing.T) {
	cartService, productRepo := newCartFixture(t)

	lamp := &models.Product{Name: "Desk Lamp", PriceCents: 4500, Stock: 2, SellerID: "seller-1"}
	assert.NoError(t, productRepo.Create(lamp))

	_, err := cartService.Add("buyer-1", lamp.ID, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)

	_, err = cartService.Add("buyer-1", lamp.ID, -1)
	assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)

	// Requesting more than stock fails, including via the upsert path.
	_, err = cartService.Add("buyer-1", lamp.ID, 3)
	assert.ErrorIs(t, err, apperr.ErrOutOfStock)

	_, err = cartService.Add("buyer-1", lamp.ID, 2)
	assert.NoError(t, err)
	_, err = cartService.Add("buyer-1", lamp.ID, 1)
	assert.ErrorIs(t, err, apperr.ErrOutOfStock)
}

func TestCartService_UpdateAndRemoveCheckOwnership(t *testing.T) {
	cartService, productRepo := newCartFixture(t)

	lamp := &models.Product{Name: "Desk Lamp", PriceCents: 4500, Stock: 5, SellerID: "seller-1"}
	assert.NoError(t, productRepo.Create(lamp))

	item, err := cartService.Add("buyer-1", lamp.ID, 1)
	assert.NoError(t, err)

	// Another user cannot touch the item; it is reported as missing.
	_, err = cartService.UpdateQuantity("buyer-2", item.ID, 2)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	err = cartService.Remove("buyer-2", item.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	updated, err := cartService.UpdateQuantity("buyer-1", item.ID, 4)
	assert.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	_, err = cartService.UpdateQuantity("buyer-1", item.ID, 6)
	assert.ErrorIs(t, err, apperr.ErrOutOfStock)

	assert.NoError(t, cartService.Remove("buyer-1", item.ID))
	items, err := cartService.List("buyer-1")
	assert.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartService_ComputeTotals(t *testing.T) {
	cartService, productRepo := newCartFixture(t)

	jacket := &models.Product{Name: "Vintage Denim Jacket", PriceCents: 129999, Stock: 1, SellerID: "seller-1"}
	assert.NoError(t, productRepo.Create(jacket))

	_, err := cartService.Add("buyer-1", jacket.ID, 1)
	assert.NoError(t, err)

	items, err := cartService.List("buyer-1")
	assert.NoError(t, err)

	totals := cartService.ComputeTotals(items)
	assert.Equal(t, int64(129999), totals.Subtotal)
	assert.Equal(t, int64(money.ShippingFeeCents), totals.Shipping)
	assert.Equal(t, int64(money.ServiceFeeCents), totals.ServiceFee)
	assert.Equal(t, int64(159998), totals.Total)

	// An empty cart carries no fees at all.
	empty := cartService.ComputeTotals(nil)
	assert.Equal(t, int64(0), empty.Total)
}
