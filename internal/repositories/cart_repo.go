package repositories

import "hanythrift/internal/models"

// CartRepository defines the interface for cart data access. Carts are scoped
// per user, so no cross-user coordination is needed.
type CartRepository interface {
	ListByUser(userID string) ([]models.CartItem, error)
	GetByID(id string) (*models.CartItem, error)
	GetByUserAndProduct(userID, productID string) (*models.CartItem, error)
	Create(item *models.CartItem) error
	UpdateQuantity(id string, quantity int) error
	Delete(id string) error
	DeleteByUser(userID string) error
}
