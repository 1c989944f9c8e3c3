package repositories

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository. It can
// join product snapshots from a companion product repository, mirroring the
// Preload the GORM implementation does.
type MockCartRepository struct {
	items    map[string]models.CartItem
	products ProductRepository
	mu       sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository(products ProductRepository) *MockCartRepository {
	return &MockCartRepository{
		items:    make(map[string]models.CartItem),
		products: products,
	}
}

// ListByUser returns the user's cart items with product snapshots joined.
func (r *MockCartRepository) ListByUser(userID string) ([]models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.CartItem, 0)
	for _, item := range r.items {
		if item.UserID != userID {
			continue
		}
		if r.products != nil {
			if p, err := r.products.GetByID(item.ProductID); err == nil {
				item.Product = p
			}
		}
		list = append(list, item)
	}
	return list, nil
}

// GetByID returns a cart item by its ID.
func (r *MockCartRepository) GetByID(id string) (*models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("cart item %s: %w", id, apperr.ErrNotFound)
	}
	if r.products != nil {
		if p, err := r.products.GetByID(item.ProductID); err == nil {
			item.Product = p
		}
	}
	return &item, nil
}

// GetByUserAndProduct returns the row for a (user, product) pair, if any.
func (r *MockCartRepository) GetByUserAndProduct(userID, productID string) (*models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.UserID == userID && item.ProductID == productID {
			found := item
			return &found, nil
		}
	}
	return nil, fmt.Errorf("cart item for product %s: %w", productID, apperr.ErrNotFound)
}

// Create adds a new cart item.
func (r *MockCartRepository) Create(item *models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	r.items[item.ID] = *item
	return nil
}

// UpdateQuantity sets the quantity of an existing cart item.
func (r *MockCartRepository) UpdateQuantity(id string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return fmt.Errorf("cart item %s: %w", id, apperr.ErrNotFound)
	}
	item.Quantity = quantity
	r.items[id] = item
	return nil
}

// Delete removes a cart item.
func (r *MockCartRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("cart item %s: %w", id, apperr.ErrNotFound)
	}
	delete(r.items, id)
	return nil
}

// DeleteByUser clears a user's cart.
func (r *MockCartRepository) DeleteByUser(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.UserID == userID {
			delete(r.items, id)
		}
	}
	return nil
}
