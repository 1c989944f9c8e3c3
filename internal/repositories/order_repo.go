package repositories

import "hanythrift/internal/models"

// OrderRepository defines the interface for order data access.
//
// Transition is the single write path for state changes: it compares the
// stored version against expectedVersion, bumps it, persists the order's
// mutable fields and appends the timeline events in one atomic unit. A stale
// expectedVersion fails with apperr.ErrConflict, which is how concurrent
// transition attempts on the same order are serialized.
type OrderRepository interface {
	Create(order *models.Order, event *models.OrderEvent) error
	GetByID(id string) (*models.Order, error)
	ListByBuyer(buyerID string) ([]models.Order, error)
	ListBySeller(sellerID string) ([]models.Order, error)
	Transition(order *models.Order, expectedVersion int, events []models.OrderEvent) error
	ListEvents(orderID string) ([]models.OrderEvent, error)
}
