package services_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
	"hanythrift/internal/repositories"
	"hanythrift/internal/services"
)

type orderFixture struct {
	orders   *repositories.MockOrderRepository
	products *repositories.MockProductRepository
	carts    *repositories.MockCartRepository
	service  *services.OrderService
}

func newOrderFixture(t *testing.T, protectionWindow time.Duration) *orderFixture {
	t.Helper()
	products := repositories.NewMockProductRepository()
	carts := repositories.NewMockCartRepository(products)
	orders := repositories.NewMockOrderRepository()
	return &orderFixture{
		orders:   orders,
		products: products,
		carts:    carts,
		service:  services.NewOrderService(orders, products, carts, nil, protectionWindow),
	}
}

func (f *orderFixture) seedProduct(t *testing.T, sellerID string, priceCents int64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:       "Vintage Denim Jacket",
		PriceCents: priceCents,
		Stock:      stock,
		SellerID:   sellerID,
	}
	assert.NoError(t, f.products.Create(p))
	return p
}

var shipping = services.CheckoutRequest{
	ShippingName:    "Hany A.",
	ShippingAddress: "12 Market Lane",
	ShippingPhone:   "555-0101",
}

// buyNow places a single-item order and returns it in Created state.
func (f *orderFixture) buyNow(t *testing.T, buyerID, productID string, qty int) *models.Order {
	t.Helper()
	req := shipping
	req.BuyNow = &services.BuyNowItem{ProductID: productID, Quantity: qty}
	order, err := f.service.Checkout(buyerID, req)
	assert.NoError(t, err)
	return order
}

// deliveredOrder walks a fresh order to Delivered.
func (f *orderFixture) deliveredOrder(t *testing.T, buyerID, sellerID string) *models.Order {
	t.Helper()
	p := f.seedProduct(t, sellerID, 129999, 1)
	order := f.buyNow(t, buyerID, p.ID, 1)
	_, err := f.service.DepositConfirmed(buyerID, order.ID)
	assert.NoError(t, err)
	_, err = f.service.SellerShips(sellerID, order.ID, "TRK-123", "HanyExpress")
	assert.NoError(t, err)
	order, err = f.service.CarrierDelivers(order.ID)
	assert.NoError(t, err)
	return order
}

func TestOrderService_CheckoutFromCart(t *testing.T) {
	f := newOrderFixture(t, 48*time.Hour)
	p := f.seedProduct(t, "seller-1", 129999, 2)
	assert.NoError(t, f.carts.Create(&models.CartItem{UserID: "buyer-1", ProductID: p.ID, Quantity: 1}))

	order, err := f.service.Checkout("buyer-1", shipping)
	assert.NoError(t, err)
	assert.Equal(t, models.StateCreated, order.State)
	assert.Equal(t, 1, order.Version)
	assert.Equal(t, int64(129999), order.SubtotalCents)
	assert.Equal(t, int64(159998), order.TotalCents)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, int64(129999), order.Items[0].UnitPriceCents)

	// Stock is decremented and the cart cleared.
	product, err := f.products.GetByID(p.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, product.Stock)
	items, err := f.carts.ListByUser("buyer-1")
	assert.NoError(t, err)
	assert.Empty(t, items)

	// The timeline opens with the creation event.
	events, err := f.service.Timeline("buyer-1", order.ID)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, models.StateCreated, events[0].ToState)
	assert.Equal(t, 1, events[0].Sequence)
}

func TestOrderService_CheckoutEmptyCart(t *testing.T) {
	f := newOrderFixture(t, 48*time.Hour)
	_, err := f.service.Checkout("buyer-1", shipping)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestOrderService_CheckoutRejectsMixedSellers(t *testing.T) {
	f := newOrderFixture(t, 48*time.Hour)
	p1 := f.seedProduct(t, "seller-1", 10000, 5)
	p2 := f.seedProduct(t, "seller-2", 20000, 5)
	assert.NoError(t, f.carts.Create(&models.CartItem{UserID: "buyer-1", ProductID: p1.ID, Quantity: 2}))
	assert.NoError(t, f.carts.Create(&models.CartItem{UserID: "buyer-1", ProductID: p2.ID, Quantity: 1}))

	_, err := f.service.Checkout("buyer-1", shipping)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	// The failed checkout must not have eaten any stock.
	for _, p := range []*models.Product{p1, p2} {
		stored, err := f.products.GetByID(p.ID)
		assert.NoError(t, err)
		assert.Equal(t, 5, stored.Stock)
	}
}

func TestOrderService_FailedCheckoutLeavesStockUntouched(t *testing.T) {
	f := newOrderFixture(t, 48*time.Hour)
	p1 := f.seedProduct(t, "seller-1", 10000, 5)
	p2 := f.seedProduct(t, "seller-1", 20000, 1)
	assert.NoError(t, f.carts.Create(&models.CartItem{UserID: "buyer-1", ProductID: p1.ID, Quantity: 2}))
	assert.NoError(t, f.carts.Create(&models.CartItem{UserID: "buyer-1", ProductID: p2.ID, Quantity: 3}))

	// One line exceeds stock, so the whole checkout fails and neither
	// product loses units.
	_, err := f.service.Checkout("buyer-1", shipping)
	assert.ErrorIs(t, err, apperr.ErrOutOfStock)

	stored, err := f.products.GetByID(p1.ID)
	assert.NoError(t, err)
	assert.Equal(t, 5, stored.Stock)
	stored, err = f.products.GetByID(p2.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, stored.Stock)

	// The cart survives for the buyer to fix.
	items, err := f.carts.ListByUser("buyer-1")
	assert.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestOrderService_BuyNowOutOfStock(t *testing.T) {
	f := newOrderFixture(t, 48*time.Hour)
	p := f.seedProduct(t, "seller-1", 10000, 1)

	req := shipping
	req.BuyNow = &services.BuyNowItem{ProductID: p.ID, Quantity: 2}
	_, err := f.service.Checkout("buyer-1", req)
	assert.ErrorIs(t, err, apperr.ErrOutOfStock)

	req.BuyNow.Quantity = 0
	_, err = f.service.Checkout("buyer-1", req)
	assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)
}

func TestOrderService_HappyPathReleasesFunds(t *testing.T) {
	f := newOrderFixture(t, 48*time.Hour)
	order := f.deliveredOrder(t, "buyer-1", "seller-1")
	assert.Equal(t, models.StateDelivered, order.State)
	assert.NotNil(t, order.DeliveredAt)

	order, err := f.service.BuyerConfirms("buyer-1", order.ID, 5, "great jacket")
	assert.NoError(t, err)
	assert.Equal(t, models.StateReleased, order.State)
	assert.Equal(t, 5, order.Rating)

	// Confirm and release land as one step with two timeline entries.
	events, err := f.service.Timeline("buyer-1", order.ID)
	assert.NoError(t, err)
	assert.Len(t, events, 6)
	states := make([]models.EscrowState, 0, len(events))
	for i, ev := range events {
		assert.Equal(t, i+1, ev.Sequence)
		states = append(states, ev.ToState)
	}
	assert.Equal(t, []models.EscrowState{
		models.StateCreated,
		models.StateDepositHeld,
		models.StateShipped,
		models.StateDelivered,
		models.StateConfirmed,
		models.StateReleased,
	}, states)
}

func TestOrderService_InvalidTransitions(t *testing.T) {
	f := newOrderFixture(t, 48*time.Hour)
	p := f.seedProduct(t, "seller-1", 10000, 1)
	order := f.buyNow(t, "buyer-1", p.ID, 1)

	// No confirming before delivery, no shipping before the deposit.
	_, err := f.service.BuyerConfirms("buyer-1", order.ID, 5, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	_, err = f.service.SellerShips("seller-1", order.ID, "TRK-1", "HanyExpress")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	_, err = f.service.DepositConfirmed("buyer-1", order.ID)
	assert.NoError(t, err)
	// Replaying the deposit is rejected.
	_, err = f.service.DepositConfirmed("buyer-1", order.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestOrderService_ShipRequiresOwningSeller(t *testing.T) {
	f := newOrderFixture(t, 48*time.Hour)
	p := f.seedProduct(t, "seller-1", 10000, 1)
	order := f.buyNow(t, "buyer-1", p.ID, 1)
	_, err := f.service.DepositConfirmed("buyer-1", order.ID)
	assert.NoError(t, err)

	_, err = f.service.SellerShips("seller-2", order.ID, "TRK-1", "HanyExpress")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestOrderService_ProtectionWindowExpired(t *testing.T) {
	// A negative window means the window has always already closed.
	f := newOrderFixture(t, -time.Hour)
	order := f.deliveredOrder(t, "buyer-1", "seller-1")

	_, err := f.service.BuyerConfirms("buyer-1", order.ID, 5, "")
	assert.ErrorIs(t, err, apperr.ErrWindowExpired)

	// The order stays in Delivered; nothing was released.
	stored, err := f.service.GetOrder("buyer-1", order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StateDelivered, stored.State)
}

func TestOrderService_StaleVersionConflict(t *testing.T) {
	f := newOrderFixture(t, 48*time.Hour)
	p := f.seedProduct(t, "seller-1", 10000, 1)
	order := f.buyNow(t, "buyer-1", p.ID, 1)

	stale := *order
	_, err := f.service.DepositConfirmed("buyer-1", order.ID)
	assert.NoError(t, err)

	// A writer carrying the old version loses the compare-and-swap.
	stale.State = models.StateDepositHeld
	err = f.orders.Transition(&stale, 1, []models.OrderEvent{
		{FromState: models.StateCreated, ToState: models.StateDepositHeld, Actor: "buyer-1"},
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestOrderService_ConcurrentConfirms(t *testing.T) {
	f := newOrderFixture(t, 48*time.Hour)
	order := f.deliveredOrder(t, "buyer-1", "seller-1")

	const attempts = 4
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.BuyerConfirms("buyer-1", order.ID, 4, "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		}
	}
	assert.Equal(t, 1, successes)

	// The timeline holds exactly one confirm/release pair.
	events, err := f.service.Timeline("buyer-1", order.ID)
	assert.NoError(t, err)
	assert.Len(t, events, 6)
}

func TestOrderService_VisibilityAndListing(t *testing.T) {
	f := newOrderFixture(t, 48*time.Hour)
	p := f.seedProduct(t, "seller-1", 10000, 1)
	order := f.buyNow(t, "buyer-1", p.ID, 1)

	// Buyer and seller can see the order, anyone else cannot.
	_, err := f.service.GetOrder("buyer-1", order.ID)
	assert.NoError(t, err)
	_, err = f.service.GetOrder("seller-1", order.ID)
	assert.NoError(t, err)
	_, err = f.service.GetOrder("stranger", order.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	purchases, err := f.service.ListOrders("buyer-1", false)
	assert.NoError(t, err)
	assert.Len(t, purchases, 1)
	sales, err := f.service.ListOrders("seller-1", true)
	assert.NoError(t, err)
	assert.Len(t, sales, 1)
}
