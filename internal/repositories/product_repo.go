package repositories

import "hanythrift/internal/models"

// ProductFilter narrows a product listing. Zero values mean "no filter";
// a zero Limit falls back to the repository default.
type ProductFilter struct {
	Category string
	Query    string // case-insensitive substring match on name
	Offset   int
	Limit    int
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(filter ProductFilter) ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	// DecrementStock atomically reduces stock by qty, failing with
	// apperr.ErrOutOfStock when fewer than qty units remain.
	DecrementStock(id string, qty int) error
	// IncrementStock returns qty units, compensating a checkout that failed
	// after some of its decrements already applied.
	IncrementStock(id string, qty int) error
}
