package repositories

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
)

// MockWithdrawalRepository is an in-memory implementation of
// WithdrawalRepository with the same single-winner Consume semantics as the
// GORM implementation.
type MockWithdrawalRepository struct {
	tokens  map[string]models.WithdrawalToken
	byHash  map[string]string
	byOrder map[string]string
	mu      sync.Mutex
}

// NewMockWithdrawalRepository creates a new instance of MockWithdrawalRepository.
func NewMockWithdrawalRepository() *MockWithdrawalRepository {
	return &MockWithdrawalRepository{
		tokens:  make(map[string]models.WithdrawalToken),
		byHash:  make(map[string]string),
		byOrder: make(map[string]string),
	}
}

// Create adds a new withdrawal token, one per order.
func (r *MockWithdrawalRepository) Create(token *models.WithdrawalToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byOrder[token.OrderID]; ok {
		return fmt.Errorf("withdrawal token for order %s already exists: %w", token.OrderID, apperr.ErrConflict)
	}
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	r.tokens[token.ID] = *token
	r.byHash[token.SecretHash] = token.ID
	r.byOrder[token.OrderID] = token.ID
	return nil
}

// GetBySecretHash returns a token by the hash of its secret.
func (r *MockWithdrawalRepository) GetBySecretHash(hash string) (*models.WithdrawalToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byHash[hash]
	if !ok {
		return nil, fmt.Errorf("withdrawal token: %w", apperr.ErrNotFound)
	}
	token := r.tokens[id]
	return &token, nil
}

// GetByOrderID returns the token issued for an order, if any.
func (r *MockWithdrawalRepository) GetByOrderID(orderID string) (*models.WithdrawalToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, fmt.Errorf("withdrawal token for order %s: %w", orderID, apperr.ErrNotFound)
	}
	token := r.tokens[id]
	return &token, nil
}

// Consume flips the consumed flag under the lock, exactly once.
func (r *MockWithdrawalRepository) Consume(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[id]
	if !ok {
		return fmt.Errorf("withdrawal token %s: %w", id, apperr.ErrNotFound)
	}
	if token.ConsumedAt != nil {
		return fmt.Errorf("withdrawal token %s: %w", id, apperr.ErrTokenAlreadyUsed)
	}
	now := time.Now()
	token.ConsumedAt = &now
	r.tokens[id] = token
	return nil
}

// Delete removes a withdrawal token.
func (r *MockWithdrawalRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[id]
	if !ok {
		return fmt.Errorf("withdrawal token %s: %w", id, apperr.ErrNotFound)
	}
	delete(r.tokens, id)
	delete(r.byHash, token.SecretHash)
	delete(r.byOrder, token.OrderID)
	return nil
}
