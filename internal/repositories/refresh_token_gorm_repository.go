package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
)

// GORMRefreshTokenRepository is a GORM implementation of RefreshTokenRepository.
type GORMRefreshTokenRepository struct {
	db *gorm.DB
}

// NewGORMRefreshTokenRepository creates a new instance of GORMRefreshTokenRepository.
func NewGORMRefreshTokenRepository(db *gorm.DB) *GORMRefreshTokenRepository {
	return &GORMRefreshTokenRepository{db: db}
}

// Create persists a new refresh token record.
func (r *GORMRefreshTokenRepository) Create(token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if err := r.db.Create(token).Error; err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

// GetBySecretHash retrieves a refresh token by the hash of its secret.
func (r *GORMRefreshTokenRepository) GetBySecretHash(hash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.db.First(&token, "secret_hash = ?", hash).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("refresh token: %w", apperr.ErrInvalidRefreshToken)
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return &token, nil
}

// Rotate marks the token superseded in a single guarded UPDATE, so only one
// concurrent refresh with the same secret can win.
func (r *GORMRefreshTokenRepository) Rotate(id string) error {
	res := r.db.Model(&models.RefreshToken{}).
		Where("id = ? AND rotated_at IS NULL AND revoked_at IS NULL", id).
		Update("rotated_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("failed to rotate refresh token %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("refresh token %s: %w", id, apperr.ErrInvalidRefreshToken)
	}
	return nil
}

// RevokeAllForUser invalidates every active refresh token for the user, used
// on logout.
func (r *GORMRefreshTokenRepository) RevokeAllForUser(userID string) error {
	err := r.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens for user %s: %w", userID, err)
	}
	return nil
}
