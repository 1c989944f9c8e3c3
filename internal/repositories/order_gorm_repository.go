package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// Create persists a new order with its items and the opening timeline event.
func (r *GORMOrderRepository) Create(order *models.Order, event *models.OrderEvent) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		event.OrderID = order.ID
		event.Sequence = 1
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("failed to append order event: %w", err)
		}
		return nil
	})
}

// GetByID retrieves an order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return &order, nil
}

// ListByBuyer retrieves all orders placed by a buyer, newest first.
func (r *GORMOrderRepository) ListByBuyer(buyerID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Where("buyer_id = ?", buyerID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders for buyer %s: %w", buyerID, err)
	}
	return orders, nil
}

// ListBySeller retrieves all orders containing any item sold by the seller.
func (r *GORMOrderRepository) ListBySeller(sellerID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("order_items.seller_id = ?", sellerID).
		Distinct("orders.*").
		Order("orders.created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for seller %s: %w", sellerID, err)
	}
	return orders, nil
}

// Transition applies a state change as a version-guarded update plus the
// timeline appends, in one database transaction. Losing the version race
// returns apperr.ErrConflict and leaves the order untouched.
func (r *GORMOrderRepository) Transition(order *models.Order, expectedVersion int, events []models.OrderEvent) error {
	newVersion := expectedVersion + 1
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND version = ?", order.ID, expectedVersion).
			Updates(map[string]interface{}{
				"state":           order.State,
				"version":         newVersion,
				"tracking_number": order.TrackingNumber,
				"carrier":         order.Carrier,
				"dispute_id":      order.DisputeID,
				"rating":          order.Rating,
				"feedback":        order.Feedback,
				"delivered_at":    order.DeliveredAt,
				"updated_at":      time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to transition order %s: %w", order.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order %s version %d: %w", order.ID, expectedVersion, apperr.ErrConflict)
		}

		var lastSeq int
		row := tx.Model(&models.OrderEvent{}).Where("order_id = ?", order.ID).Select("COALESCE(MAX(sequence), 0)").Row()
		if err := row.Scan(&lastSeq); err != nil {
			return fmt.Errorf("failed to read event sequence for order %s: %w", order.ID, err)
		}
		for i := range events {
			events[i].OrderID = order.ID
			events[i].Sequence = lastSeq + i + 1
			if err := tx.Create(&events[i]).Error; err != nil {
				return fmt.Errorf("failed to append order event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	order.Version = newVersion
	return nil
}

// ListEvents returns an order's timeline in append order.
func (r *GORMOrderRepository) ListEvents(orderID string) ([]models.OrderEvent, error) {
	var events []models.OrderEvent
	if err := r.db.Where("order_id = ?", orderID).Order("sequence").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events for order %s: %w", orderID, err)
	}
	return events, nil
}
