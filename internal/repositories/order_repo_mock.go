package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository with
// the same version compare-and-swap semantics as the GORM implementation, so
// services and concurrency tests observe identical behavior.
type MockOrderRepository struct {
	orders map[string]models.Order
	events map[string][]models.OrderEvent
	mu     sync.Mutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
		events: make(map[string][]models.OrderEvent),
	}
}

// Create adds a new order and its opening event.
func (r *MockOrderRepository) Create(order *models.Order, event *models.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order

	event.OrderID = order.ID
	event.Sequence = 1
	event.CreatedAt = time.Now()
	r.events[order.ID] = []models.OrderEvent{*event}
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
	}
	return &order, nil
}

// ListByBuyer returns all orders placed by a buyer.
func (r *MockOrderRepository) ListByBuyer(buyerID string) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]models.Order, 0)
	for _, order := range r.orders {
		if order.BuyerID == buyerID {
			list = append(list, order)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

// ListBySeller returns all orders containing any item sold by the seller.
func (r *MockOrderRepository) ListBySeller(sellerID string) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]models.Order, 0)
	for _, order := range r.orders {
		for _, item := range order.Items {
			if item.SellerID == sellerID {
				list = append(list, order)
				break
			}
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

// Transition applies a state change under the lock with a version check.
func (r *MockOrderRepository) Transition(order *models.Order, expectedVersion int, events []models.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return fmt.Errorf("order %s: %w", order.ID, apperr.ErrNotFound)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("order %s version %d: %w", order.ID, expectedVersion, apperr.ErrConflict)
	}

	stored.State = order.State
	stored.Version = expectedVersion + 1
	stored.TrackingNumber = order.TrackingNumber
	stored.Carrier = order.Carrier
	stored.DisputeID = order.DisputeID
	stored.Rating = order.Rating
	stored.Feedback = order.Feedback
	stored.DeliveredAt = order.DeliveredAt
	stored.UpdatedAt = time.Now()
	r.orders[order.ID] = stored

	lastSeq := len(r.events[order.ID])
	for i := range events {
		events[i].OrderID = order.ID
		events[i].Sequence = lastSeq + i + 1
		events[i].CreatedAt = time.Now()
		r.events[order.ID] = append(r.events[order.ID], events[i])
	}

	order.Version = stored.Version
	return nil
}

// ListEvents returns an order's timeline in append order.
func (r *MockOrderRepository) ListEvents(orderID string) ([]models.OrderEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := make([]models.OrderEvent, len(r.events[orderID]))
	copy(events, r.events[orderID])
	return events, nil
}
