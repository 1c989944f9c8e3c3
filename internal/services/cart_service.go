package services

import (
	"fmt"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
	"hanythrift/internal/money"
	"hanythrift/internal/repositories"
)

// CartService handles per-user cart state and checkout arithmetic. Cart items
// carry the current product snapshot; prices are only frozen when the cart
// becomes an order.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// Add upserts a cart item. Adding a product already in the cart increases its
// quantity. The combined quantity must not exceed available stock.
func (s *CartService) Add(userID, productID string, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity %d: %w", quantity, apperr.ErrInvalidQuantity)
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.GetByUserAndProduct(userID, productID)
	if err == nil {
		newQty := existing.Quantity + quantity
		if newQty > product.Stock {
			return nil, fmt.Errorf("product %s has %d in stock: %w", productID, product.Stock, apperr.ErrOutOfStock)
		}
		if err := s.cartRepo.UpdateQuantity(existing.ID, newQty); err != nil {
			return nil, err
		}
		return s.cartRepo.GetByID(existing.ID)
	}

	if quantity > product.Stock {
		return nil, fmt.Errorf("product %s has %d in stock: %w", productID, product.Stock, apperr.ErrOutOfStock)
	}
	item := &models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.cartRepo.Create(item); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(item.ID)
}

// UpdateQuantity sets a cart item's quantity. The item must belong to the user.
func (s *CartService) UpdateQuantity(userID, cartItemID string, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity %d: %w", quantity, apperr.ErrInvalidQuantity)
	}

	item, err := s.cartRepo.GetByID(cartItemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, fmt.Errorf("cart item %s: %w", cartItemID, apperr.ErrNotFound)
	}

	product, err := s.productRepo.GetByID(item.ProductID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, fmt.Errorf("product %s has %d in stock: %w", item.ProductID, product.Stock, apperr.ErrOutOfStock)
	}

	if err := s.cartRepo.UpdateQuantity(cartItemID, quantity); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(cartItemID)
}

// Remove deletes a cart item owned by the user.
func (s *CartService) Remove(userID, cartItemID string) error {
	item, err := s.cartRepo.GetByID(cartItemID)
	if err != nil {
		return err
	}
	if item.UserID != userID {
		return fmt.Errorf("cart item %s: %w", cartItemID, apperr.ErrNotFound)
	}
	return s.cartRepo.Delete(cartItemID)
}

// List returns the user's cart with joined product snapshots.
func (s *CartService) List(userID string) ([]models.CartItem, error) {
	return s.cartRepo.ListByUser(userID)
}

// ComputeTotals sums the cart at current product prices plus the flat shipping
// and service charges.
func (s *CartService) ComputeTotals(items []models.CartItem) money.Totals {
	var subtotal int64
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		subtotal += item.Product.PriceCents * int64(item.Quantity)
	}
	return money.Compute(subtotal, len(items))
}
