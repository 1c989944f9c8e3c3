package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"hanythrift/internal/services"
)

// OrderHandler handles HTTP requests driving the escrow order lifecycle.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes. All require auth.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandleCheckout)
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Get("/:id/timeline", h.HandleTimeline)
	orderRoutes.Post("/:id/deposit", h.HandleDeposit)
	orderRoutes.Post("/:id/ship", h.HandleShip)
	orderRoutes.Post("/:id/deliver", h.HandleDeliver)
	orderRoutes.Post("/:id/confirm", h.HandleConfirm)
}

// HandleCheckout creates an order from the cart or a buy-now item.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing checkout request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	order, err := h.service.Checkout(currentUserID(c), req)
	if err != nil {
		log.Printf("Error creating order: %v", err)
		return respondError(c, "Could not create order", err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleListOrders lists the caller's purchases, or sales with ?role=seller.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	asSeller := c.Query("role") == "seller"
	orders, err := h.service.ListOrders(currentUserID(c), asSeller)
	if err != nil {
		log.Printf("Error listing orders: %v", err)
		return respondError(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrder retrieves a single order visible to the caller.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrder(currentUserID(c), orderID)
	if err != nil {
		log.Printf("Error getting order %s: %v", orderID, err)
		return respondError(c, "Could not retrieve order", err)
	}
	return c.JSON(order)
}

// HandleTimeline returns the order's append-only transition history.
func (h *OrderHandler) HandleTimeline(c *fiber.Ctx) error {
	orderID := c.Params("id")
	events, err := h.service.Timeline(currentUserID(c), orderID)
	if err != nil {
		log.Printf("Error getting timeline for order %s: %v", orderID, err)
		return respondError(c, "Could not retrieve order timeline", err)
	}
	return c.JSON(events)
}

// HandleDeposit records the buyer's payment capture, moving funds into escrow.
func (h *OrderHandler) HandleDeposit(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.DepositConfirmed(currentUserID(c), orderID)
	if err != nil {
		log.Printf("Error confirming deposit for order %s: %v", orderID, err)
		return respondError(c, "Could not confirm deposit", err)
	}
	return c.JSON(order)
}

// ShipRequest carries the seller's tracking details.
type ShipRequest struct {
	TrackingNumber string `json:"tracking_number" validate:"required"`
	Carrier        string `json:"carrier" validate:"required"`
}

// HandleShip records shipment by the seller.
func (h *OrderHandler) HandleShip(c *fiber.Ctx) error {
	var req ShipRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	orderID := c.Params("id")
	order, err := h.service.SellerShips(currentUserID(c), orderID, req.TrackingNumber, req.Carrier)
	if err != nil {
		log.Printf("Error shipping order %s: %v", orderID, err)
		return respondError(c, "Could not mark order shipped", err)
	}
	return c.JSON(order)
}

// HandleDeliver records the carrier's delivery signal and starts the buyer
// protection window.
func (h *OrderHandler) HandleDeliver(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.CarrierDelivers(orderID)
	if err != nil {
		log.Printf("Error marking order %s delivered: %v", orderID, err)
		return respondError(c, "Could not mark order delivered", err)
	}
	return c.JSON(order)
}

// ConfirmRequest carries the buyer's receipt confirmation.
type ConfirmRequest struct {
	Rating   int    `json:"rating" validate:"required,gte=1,lte=5"`
	Feedback string `json:"feedback" validate:"omitempty,max=1000"`
}

// HandleConfirm accepts delivery and releases escrow funds to the seller.
func (h *OrderHandler) HandleConfirm(c *fiber.Ctx) error {
	var req ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	orderID := c.Params("id")
	order, err := h.service.BuyerConfirms(currentUserID(c), orderID, req.Rating, req.Feedback)
	if err != nil {
		log.Printf("Error confirming order %s: %v", orderID, err)
		return respondError(c, "Could not confirm receipt", err)
	}
	return c.JSON(order)
}
