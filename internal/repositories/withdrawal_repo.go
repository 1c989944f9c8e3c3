package repositories

import "hanythrift/internal/models"

// WithdrawalRepository defines the interface for withdrawal token data access.
//
// Consume flips the consumed flag exactly once: it succeeds only while the
// token is unconsumed, so concurrent redemption attempts have a single winner
// and losers get apperr.ErrTokenAlreadyUsed.
type WithdrawalRepository interface {
	Create(token *models.WithdrawalToken) error
	GetBySecretHash(hash string) (*models.WithdrawalToken, error)
	GetByOrderID(orderID string) (*models.WithdrawalToken, error)
	Consume(id string) error
	// Delete removes a token, freeing the order for reissue after an
	// unconsumed token expires.
	Delete(id string) error
}
