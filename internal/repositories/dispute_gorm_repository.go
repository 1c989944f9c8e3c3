package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
)

// GORMDisputeRepository is a GORM implementation of DisputeRepository.
type GORMDisputeRepository struct {
	db *gorm.DB
}

// NewGORMDisputeRepository creates a new instance of GORMDisputeRepository.
func NewGORMDisputeRepository(db *gorm.DB) *GORMDisputeRepository {
	return &GORMDisputeRepository{db: db}
}

// Create persists a new dispute. The unique index on order_id rejects a second
// dispute for the same order.
func (r *GORMDisputeRepository) Create(dispute *models.Dispute) error {
	if dispute.ID == "" {
		dispute.ID = uuid.New().String()
	}
	if err := r.db.Create(dispute).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("dispute for order %s already exists: %w", dispute.OrderID, apperr.ErrConflict)
		}
		return fmt.Errorf("failed to create dispute: %w", err)
	}
	return nil
}

// GetByID retrieves a dispute by its ID.
func (r *GORMDisputeRepository) GetByID(id string) (*models.Dispute, error) {
	var dispute models.Dispute
	if err := r.db.First(&dispute, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("dispute %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get dispute %s: %w", id, err)
	}
	return &dispute, nil
}

// GetByOrderID retrieves the dispute tied to an order, if any.
func (r *GORMDisputeRepository) GetByOrderID(orderID string) (*models.Dispute, error) {
	var dispute models.Dispute
	if err := r.db.First(&dispute, "order_id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("dispute for order %s: %w", orderID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get dispute for order %s: %w", orderID, err)
	}
	return &dispute, nil
}

// Update saves the dispute's current fields.
func (r *GORMDisputeRepository) Update(dispute *models.Dispute) error {
	res := r.db.Save(dispute)
	if res.Error != nil {
		return fmt.Errorf("failed to update dispute %s: %w", dispute.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("dispute %s: %w", dispute.ID, apperr.ErrNotFound)
	}
	return nil
}
