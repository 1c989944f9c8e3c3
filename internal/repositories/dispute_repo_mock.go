package repositories

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
)

// MockDisputeRepository is an in-memory implementation of DisputeRepository.
type MockDisputeRepository struct {
	disputes map[string]models.Dispute
	byOrder  map[string]string
	mu       sync.RWMutex
}

// NewMockDisputeRepository creates a new instance of MockDisputeRepository.
func NewMockDisputeRepository() *MockDisputeRepository {
	return &MockDisputeRepository{
		disputes: make(map[string]models.Dispute),
		byOrder:  make(map[string]string),
	}
}

// Create adds a new dispute, enforcing one dispute per order.
func (r *MockDisputeRepository) Create(dispute *models.Dispute) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byOrder[dispute.OrderID]; ok {
		return fmt.Errorf("dispute for order %s already exists: %w", dispute.OrderID, apperr.ErrConflict)
	}
	if dispute.ID == "" {
		dispute.ID = uuid.New().String()
	}
	dispute.CreatedAt = time.Now()
	dispute.UpdatedAt = time.Now()
	r.disputes[dispute.ID] = *dispute
	r.byOrder[dispute.OrderID] = dispute.ID
	return nil
}

// GetByID returns a dispute by its ID.
func (r *MockDisputeRepository) GetByID(id string) (*models.Dispute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dispute, ok := r.disputes[id]
	if !ok {
		return nil, fmt.Errorf("dispute %s: %w", id, apperr.ErrNotFound)
	}
	return &dispute, nil
}

// GetByOrderID returns the dispute tied to an order, if any.
func (r *MockDisputeRepository) GetByOrderID(orderID string) (*models.Dispute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, fmt.Errorf("dispute for order %s: %w", orderID, apperr.ErrNotFound)
	}
	dispute := r.disputes[id]
	return &dispute, nil
}

// Update modifies an existing dispute.
func (r *MockDisputeRepository) Update(dispute *models.Dispute) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.disputes[dispute.ID]; !ok {
		return fmt.Errorf("dispute %s: %w", dispute.ID, apperr.ErrNotFound)
	}
	dispute.UpdatedAt = time.Now()
	r.disputes[dispute.ID] = *dispute
	return nil
}
