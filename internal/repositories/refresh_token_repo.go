package repositories

import "hanythrift/internal/models"

// RefreshTokenRepository defines the interface for refresh token data access.
//
// Rotate marks a token superseded exactly once: it succeeds only while the
// token is neither rotated nor revoked, so two near-simultaneous refresh calls
// with the same secret produce exactly one new session and the loser gets
// apperr.ErrInvalidRefreshToken.
type RefreshTokenRepository interface {
	Create(token *models.RefreshToken) error
	GetBySecretHash(hash string) (*models.RefreshToken, error)
	Rotate(id string) error
	RevokeAllForUser(userID string) error
}
