package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
)

// GORMWithdrawalRepository is a GORM implementation of WithdrawalRepository.
type GORMWithdrawalRepository struct {
	db *gorm.DB
}

// NewGORMWithdrawalRepository creates a new instance of GORMWithdrawalRepository.
func NewGORMWithdrawalRepository(db *gorm.DB) *GORMWithdrawalRepository {
	return &GORMWithdrawalRepository{db: db}
}

// Create persists a new withdrawal token. The unique index on order_id rejects
// a second token for the same order.
func (r *GORMWithdrawalRepository) Create(token *models.WithdrawalToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if err := r.db.Create(token).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("withdrawal token for order %s already exists: %w", token.OrderID, apperr.ErrConflict)
		}
		return fmt.Errorf("failed to create withdrawal token: %w", err)
	}
	return nil
}

// GetBySecretHash retrieves a token by the hash of its secret.
func (r *GORMWithdrawalRepository) GetBySecretHash(hash string) (*models.WithdrawalToken, error) {
	var token models.WithdrawalToken
	if err := r.db.First(&token, "secret_hash = ?", hash).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("withdrawal token: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get withdrawal token: %w", err)
	}
	return &token, nil
}

// GetByOrderID retrieves the token issued for an order, if any.
func (r *GORMWithdrawalRepository) GetByOrderID(orderID string) (*models.WithdrawalToken, error) {
	var token models.WithdrawalToken
	if err := r.db.First(&token, "order_id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("withdrawal token for order %s: %w", orderID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get withdrawal token for order %s: %w", orderID, err)
	}
	return &token, nil
}

// Consume marks the token redeemed in a single guarded UPDATE. The consumed
// check happens inside the statement, so two concurrent redemptions cannot
// both succeed.
func (r *GORMWithdrawalRepository) Consume(id string) error {
	res := r.db.Model(&models.WithdrawalToken{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("failed to consume withdrawal token %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("withdrawal token %s: %w", id, apperr.ErrTokenAlreadyUsed)
	}
	return nil
}

// Delete removes a withdrawal token.
func (r *GORMWithdrawalRepository) Delete(id string) error {
	res := r.db.Delete(&models.WithdrawalToken{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete withdrawal token %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("withdrawal token %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
