package repositories

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
)

// MockRefreshTokenRepository is an in-memory implementation of
// RefreshTokenRepository with the same single-winner Rotate semantics as the
// GORM implementation.
type MockRefreshTokenRepository struct {
	tokens map[string]models.RefreshToken
	byHash map[string]string
	mu     sync.Mutex
}

// NewMockRefreshTokenRepository creates a new instance of MockRefreshTokenRepository.
func NewMockRefreshTokenRepository() *MockRefreshTokenRepository {
	return &MockRefreshTokenRepository{
		tokens: make(map[string]models.RefreshToken),
		byHash: make(map[string]string),
	}
}

// Create adds a new refresh token record.
func (r *MockRefreshTokenRepository) Create(token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	token.CreatedAt = time.Now()
	r.tokens[token.ID] = *token
	r.byHash[token.SecretHash] = token.ID
	return nil
}

// GetBySecretHash returns a refresh token by the hash of its secret.
func (r *MockRefreshTokenRepository) GetBySecretHash(hash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byHash[hash]
	if !ok {
		return nil, fmt.Errorf("refresh token: %w", apperr.ErrInvalidRefreshToken)
	}
	token := r.tokens[id]
	return &token, nil
}

// Rotate marks the token superseded under the lock, exactly once.
func (r *MockRefreshTokenRepository) Rotate(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[id]
	if !ok {
		return fmt.Errorf("refresh token %s: %w", id, apperr.ErrInvalidRefreshToken)
	}
	if token.RotatedAt != nil || token.RevokedAt != nil {
		return fmt.Errorf("refresh token %s: %w", id, apperr.ErrInvalidRefreshToken)
	}
	now := time.Now()
	token.RotatedAt = &now
	r.tokens[id] = token
	return nil
}

// RevokeAllForUser invalidates every active refresh token for the user.
func (r *MockRefreshTokenRepository) RevokeAllForUser(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for id, token := range r.tokens {
		if token.UserID == userID && token.RevokedAt == nil {
			token.RevokedAt = &now
			r.tokens[id] = token
		}
	}
	return nil
}
