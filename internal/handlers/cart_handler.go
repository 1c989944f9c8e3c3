package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"hanythrift/internal/services"
)

// CartHandler handles HTTP requests for the authenticated user's cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes. All cart routes require auth.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleListCart)
	cartRoutes.Get("/totals", h.HandleTotals)
	cartRoutes.Post("/", h.HandleAdd)
	cartRoutes.Put("/:id", h.HandleUpdateQuantity)
	cartRoutes.Delete("/:id", h.HandleRemove)
}

// HandleListCart returns the user's cart with current product snapshots.
func (h *CartHandler) HandleListCart(c *fiber.Ctx) error {
	items, err := h.service.List(currentUserID(c))
	if err != nil {
		log.Printf("Error listing cart: %v", err)
		return respondError(c, "Could not retrieve cart", err)
	}
	return c.JSON(items)
}

// HandleTotals returns the cart breakdown: subtotal, flat shipping and service
// fee, and total, all in cents.
func (h *CartHandler) HandleTotals(c *fiber.Ctx) error {
	items, err := h.service.List(currentUserID(c))
	if err != nil {
		log.Printf("Error listing cart for totals: %v", err)
		return respondError(c, "Could not compute totals", err)
	}
	return c.JSON(h.service.ComputeTotals(items))
}

// AddToCartRequest is the request body for adding a product to the cart.
type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// HandleAdd upserts a cart item.
func (h *CartHandler) HandleAdd(c *fiber.Ctx) error {
	var req AddToCartRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing add-to-cart request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	item, err := h.service.Add(currentUserID(c), req.ProductID, req.Quantity)
	if err != nil {
		log.Printf("Error adding to cart: %v", err)
		return respondError(c, "Could not add to cart", err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateQuantityRequest is the request body for changing a cart item quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// HandleUpdateQuantity sets a cart item's quantity.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	var req UpdateQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing cart update request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	item, err := h.service.UpdateQuantity(currentUserID(c), c.Params("id"), req.Quantity)
	if err != nil {
		log.Printf("Error updating cart item %s: %v", c.Params("id"), err)
		return respondError(c, "Could not update cart item", err)
	}
	return c.JSON(item)
}

// HandleRemove deletes a cart item.
func (h *CartHandler) HandleRemove(c *fiber.Ctx) error {
	if err := h.service.Remove(currentUserID(c), c.Params("id")); err != nil {
		log.Printf("Error removing cart item %s: %v", c.Params("id"), err)
		return respondError(c, "Could not remove cart item", err)
	}
	return c.JSON(fiber.Map{"message": "Cart item removed"})
}
