package services

import (
	"fmt"
	"log"
	"time"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
	"hanythrift/internal/money"
	"hanythrift/internal/repositories"
	"hanythrift/pkg/rabbitmq"
)

// BuyNowItem checks out a single product without touching the cart.
type BuyNowItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// CheckoutRequest is the input to order creation.
type CheckoutRequest struct {
	ShippingName    string      `json:"shipping_name" validate:"required"`
	ShippingAddress string      `json:"shipping_address" validate:"required"`
	ShippingPhone   string      `json:"shipping_phone" validate:"required"`
	BuyNow          *BuyNowItem `json:"buy_now,omitempty"` // nil means check out the cart
}

// OrderService drives the escrow order state machine. Every transition runs
// through the repository's version compare-and-swap and appends to the order's
// timeline; concurrent attempts on the same order serialize with losers
// failing on Conflict. Funds release happens only on entering Released.
type OrderService struct {
	orderRepo        repositories.OrderRepository
	productRepo      repositories.ProductRepository
	cartRepo         repositories.CartRepository
	mqClient         *rabbitmq.Client
	protectionWindow time.Duration
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, cartRepo repositories.CartRepository, mqClient *rabbitmq.Client, protectionWindow time.Duration) *OrderService {
	return &OrderService{
		orderRepo:        orderRepo,
		productRepo:      productRepo,
		cartRepo:         cartRepo,
		mqClient:         mqClient,
		protectionWindow: protectionWindow,
	}
}

// Checkout creates an order from the buyer's cart, or from a single buy-now
// item. Prices are snapshotted per item and stock is decremented atomically;
// the cart is cleared only after the order is persisted. All items must come
// from one seller so escrow funds have a single payout destination.
func (s *OrderService) Checkout(buyerID string, req CheckoutRequest) (*models.Order, error) {
	type pendingItem struct {
		productID string
		quantity  int
	}
	var pending []pendingItem
	fromCart := req.BuyNow == nil

	if fromCart {
		cartItems, err := s.cartRepo.ListByUser(buyerID)
		if err != nil {
			return nil, err
		}
		if len(cartItems) == 0 {
			return nil, fmt.Errorf("cart is empty, nothing to check out: %w", apperr.ErrInvalidState)
		}
		for _, ci := range cartItems {
			pending = append(pending, pendingItem{productID: ci.ProductID, quantity: ci.Quantity})
		}
	} else {
		if req.BuyNow.Quantity < 1 {
			return nil, fmt.Errorf("quantity %d: %w", req.BuyNow.Quantity, apperr.ErrInvalidQuantity)
		}
		pending = []pendingItem{{productID: req.BuyNow.ProductID, quantity: req.BuyNow.Quantity}}
	}

	// Validate the whole list before touching stock, so a failure on a later
	// item never leaves earlier decrements behind.
	var (
		items    []models.OrderItem
		subtotal int64
		sellerID string
	)
	for _, p := range pending {
		product, err := s.productRepo.GetByID(p.productID)
		if err != nil {
			return nil, err
		}
		if sellerID == "" {
			sellerID = product.SellerID
		} else if product.SellerID != sellerID {
			return nil, fmt.Errorf("items from different sellers must be checked out separately: %w", apperr.ErrInvalidState)
		}
		if p.quantity > product.Stock {
			return nil, fmt.Errorf("product %s has %d in stock: %w", p.productID, product.Stock, apperr.ErrOutOfStock)
		}
		items = append(items, models.OrderItem{
			ProductID:      p.productID,
			SellerID:       product.SellerID,
			Quantity:       p.quantity,
			UnitPriceCents: product.PriceCents, // snapshot, never re-read
		})
		subtotal += product.PriceCents * int64(p.quantity)
	}

	// The guarded decrements can still lose a race to a concurrent checkout;
	// on any failure, return the units already taken.
	var decremented []models.OrderItem
	for _, item := range items {
		if err := s.productRepo.DecrementStock(item.ProductID, item.Quantity); err != nil {
			s.restoreStock(decremented)
			return nil, err
		}
		decremented = append(decremented, item)
	}

	totals := money.Compute(subtotal, len(items))
	order := &models.Order{
		BuyerID:         buyerID,
		Items:           items,
		SubtotalCents:   totals.Subtotal,
		ShippingCents:   totals.Shipping,
		ServiceFeeCents: totals.ServiceFee,
		TotalCents:      totals.Total,
		State:           models.StateCreated,
		Version:         1,
		ShippingName:    req.ShippingName,
		ShippingAddress: req.ShippingAddress,
		ShippingPhone:   req.ShippingPhone,
	}
	event := &models.OrderEvent{
		ToState: models.StateCreated,
		Actor:   buyerID,
		Note:    "order created",
	}
	if err := s.orderRepo.Create(order, event); err != nil {
		s.restoreStock(decremented)
		return nil, err
	}

	if fromCart {
		if err := s.cartRepo.DeleteByUser(buyerID); err != nil {
			log.Printf("Warning: failed to clear cart for user %s after checkout: %v", buyerID, err)
		}
	}

	s.publish(rabbitmq.EventOrderCreated, order.ID, map[string]interface{}{
		"buyer_id":    order.BuyerID,
		"seller_id":   sellerID,
		"total_cents": order.TotalCents,
	})
	return order, nil
}

// DepositConfirmed records the buyer's payment capture and moves the order
// into escrow. The seller is notified via the event bus.
func (s *OrderService) DepositConfirmed(buyerID, orderID string) (*models.Order, error) {
	order, err := s.ownedByBuyer(buyerID, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(order, models.StateDepositHeld, buyerID, "deposit held by HanySecurePay"); err != nil {
		return nil, err
	}
	s.publish(rabbitmq.EventDepositHeld, order.ID, map[string]interface{}{
		"seller_id":   order.SellerID(),
		"total_cents": order.TotalCents,
	})
	return order, nil
}

// SellerShips records tracking details and moves the order to Shipped.
func (s *OrderService) SellerShips(sellerID, orderID, trackingNumber, carrier string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID() != sellerID {
		return nil, fmt.Errorf("order %s does not belong to seller %s: %w", orderID, sellerID, apperr.ErrForbidden)
	}
	order.TrackingNumber = trackingNumber
	order.Carrier = carrier
	if err := s.transition(order, models.StateShipped, sellerID, "shipped via "+carrier); err != nil {
		return nil, err
	}
	s.publish(rabbitmq.EventOrderShipped, order.ID, map[string]interface{}{
		"tracking_number": trackingNumber,
		"carrier":         carrier,
	})
	return order, nil
}

// CarrierDelivers marks the order delivered and starts the buyer protection
// window. Driven by an external carrier signal.
func (s *OrderService) CarrierDelivers(orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	order.DeliveredAt = &now
	if err := s.transition(order, models.StateDelivered, "system", "delivery confirmed by carrier"); err != nil {
		return nil, err
	}
	s.publish(rabbitmq.EventOrderDelivered, order.ID, nil)
	return order, nil
}

// BuyerConfirms accepts the delivery and releases funds to the seller. The
// Confirmed and Released transitions are one atomic step: a crash cannot
// leave an order confirmed with funds still held.
func (s *OrderService) BuyerConfirms(buyerID, orderID string, rating int, feedback string) (*models.Order, error) {
	order, err := s.ownedByBuyer(buyerID, orderID)
	if err != nil {
		return nil, err
	}
	if order.State != models.StateDelivered {
		return nil, fmt.Errorf("cannot confirm order in state %s: %w", order.State, apperr.ErrInvalidState)
	}
	if err := s.checkProtectionWindow(order); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5: %w", apperr.ErrInvalidQuantity)
	}

	expectedVersion := order.Version
	order.Rating = rating
	order.Feedback = feedback
	order.State = models.StateReleased
	events := []models.OrderEvent{
		{FromState: models.StateDelivered, ToState: models.StateConfirmed, Actor: buyerID, Note: "receipt confirmed by buyer"},
		{FromState: models.StateConfirmed, ToState: models.StateReleased, Actor: "system", Note: "funds released to seller"},
	}
	if err := s.orderRepo.Transition(order, expectedVersion, events); err != nil {
		return nil, err
	}

	s.publish(rabbitmq.EventOrderConfirmed, order.ID, map[string]interface{}{"rating": rating})
	s.publish(rabbitmq.EventFundsReleased, order.ID, map[string]interface{}{
		"seller_id":    order.SellerID(),
		"amount_cents": order.TotalCents,
	})
	return order, nil
}

// GetOrder returns an order visible to the given user (its buyer or seller).
func (s *OrderService) GetOrder(userID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != userID && order.SellerID() != userID {
		return nil, fmt.Errorf("order %s: %w", orderID, apperr.ErrNotFound)
	}
	return order, nil
}

// ListOrders returns the user's purchases and, for sellers, their sales.
func (s *OrderService) ListOrders(userID string, asSeller bool) ([]models.Order, error) {
	if asSeller {
		return s.orderRepo.ListBySeller(userID)
	}
	return s.orderRepo.ListByBuyer(userID)
}

// Timeline returns the order's append-only transition history.
func (s *OrderService) Timeline(userID, orderID string) ([]models.OrderEvent, error) {
	if _, err := s.GetOrder(userID, orderID); err != nil {
		return nil, err
	}
	return s.orderRepo.ListEvents(orderID)
}

// checkProtectionWindow rejects confirm/dispute actions past the window.
func (s *OrderService) checkProtectionWindow(order *models.Order) error {
	if order.DeliveredAt == nil {
		return fmt.Errorf("order %s has no delivery timestamp: %w", order.ID, apperr.ErrInvalidState)
	}
	if time.Now().After(order.DeliveredAt.Add(s.protectionWindow)) {
		return fmt.Errorf("protection window closed for order %s: %w", order.ID, apperr.ErrWindowExpired)
	}
	return nil
}

// ProtectionWindow exposes the configured buyer protection duration.
func (s *OrderService) ProtectionWindow() time.Duration {
	return s.protectionWindow
}

// restoreStock compensates decrements from a checkout that did not complete.
func (s *OrderService) restoreStock(items []models.OrderItem) {
	for _, item := range items {
		if err := s.productRepo.IncrementStock(item.ProductID, item.Quantity); err != nil {
			log.Printf("Warning: failed to restore %d units of product %s: %v", item.Quantity, item.ProductID, err)
		}
	}
}

func (s *OrderService) ownedByBuyer(buyerID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, fmt.Errorf("order %s: %w", orderID, apperr.ErrNotFound)
	}
	return order, nil
}

// transition performs a single guarded state change with one timeline event.
func (s *OrderService) transition(order *models.Order, to models.EscrowState, actor, note string) error {
	if !order.State.CanTransition(to) {
		return fmt.Errorf("cannot move order %s from %s to %s: %w", order.ID, order.State, to, apperr.ErrInvalidState)
	}
	expectedVersion := order.Version
	from := order.State
	order.State = to
	event := models.OrderEvent{FromState: from, ToState: to, Actor: actor, Note: note}
	return s.orderRepo.Transition(order, expectedVersion, []models.OrderEvent{event})
}

func (s *OrderService) publish(eventType, orderID string, data interface{}) {
	if s.mqClient == nil {
		return
	}
	if err := s.mqClient.PublishEscrowEvent(eventType, orderID, data); err != nil {
		log.Printf("Warning: failed to publish %s event for order %s: %v", eventType, orderID, err)
	}
}
