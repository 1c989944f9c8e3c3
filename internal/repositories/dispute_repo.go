package repositories

import "hanythrift/internal/models"

// DisputeRepository defines the interface for dispute data access. At most one
// dispute exists per order; Create fails with apperr.ErrConflict otherwise.
type DisputeRepository interface {
	Create(dispute *models.Dispute) error
	GetByID(id string) (*models.Dispute, error)
	GetByOrderID(orderID string) (*models.Dispute, error)
	Update(dispute *models.Dispute) error
}
