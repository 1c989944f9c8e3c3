package services

import (
	"fmt"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
	"hanythrift/internal/repositories"
)

// ProductService handles business logic related to product listings.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// ListProducts retrieves products, optionally filtered by category and a
// name substring.
func (s *ProductService) ListProducts(filter repositories.ProductFilter) ([]models.Product, error) {
	return s.repo.List(filter)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new listing owned by the given seller.
func (s *ProductService) CreateProduct(sellerID string, product *models.Product) error {
	product.SellerID = sellerID
	return s.repo.Create(product)
}

// UpdateProduct updates a listing. Only the owning seller may modify it.
func (s *ProductService) UpdateProduct(sellerID string, product *models.Product) error {
	existing, err := s.repo.GetByID(product.ID)
	if err != nil {
		return err
	}
	if existing.SellerID != sellerID {
		return fmt.Errorf("product %s is not owned by seller %s: %w", product.ID, sellerID, apperr.ErrForbidden)
	}
	product.SellerID = existing.SellerID
	return s.repo.Update(product)
}

// DeleteProduct removes a listing. Only the owning seller may delete it.
func (s *ProductService) DeleteProduct(sellerID, id string) error {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if existing.SellerID != sellerID {
		return fmt.Errorf("product %s is not owned by seller %s: %w", id, sellerID, apperr.ErrForbidden)
	}
	return s.repo.Delete(id)
}
