package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"hanythrift/internal/middleware"
	"hanythrift/internal/services"
)

// DisputeHandler handles HTTP requests for the dispute lifecycle.
type DisputeHandler struct {
	service  *services.DisputeService
	validate *validator.Validate
}

// NewDisputeHandler creates a new DisputeHandler.
func NewDisputeHandler(service *services.DisputeService) *DisputeHandler {
	return &DisputeHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the dispute routes. All require auth; resolution
// additionally requires an admin account.
func (h *DisputeHandler) RegisterRoutes(router fiber.Router) {
	disputeRoutes := router.Group("/disputes")
	disputeRoutes.Post("/", h.HandleOpen)
	disputeRoutes.Get("/:id", h.HandleGet)
	disputeRoutes.Post("/:id/respond", h.HandleSellerRespond)
	disputeRoutes.Post("/:id/resolve", middleware.AdminRequired(), h.HandleResolve)
}

// OpenDisputeRequest is the request body for raising a dispute.
type OpenDisputeRequest struct {
	OrderID             string `json:"order_id" validate:"required"`
	IssueType           string `json:"issue_type" validate:"required"`
	Description         string `json:"description" validate:"required,max=2000"`
	RequestedResolution string `json:"requested_resolution" validate:"required"`
}

// HandleOpen raises a dispute on a delivered order, freezing fund release.
func (h *DisputeHandler) HandleOpen(c *fiber.Ctx) error {
	var req OpenDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing dispute request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	dispute, err := h.service.Open(currentUserID(c), req.OrderID, req.IssueType, req.Description, req.RequestedResolution)
	if err != nil {
		log.Printf("Error opening dispute for order %s: %v", req.OrderID, err)
		return respondError(c, "Could not open dispute", err)
	}
	return c.Status(fiber.StatusCreated).JSON(dispute)
}

// HandleGet retrieves a dispute visible to the caller.
func (h *DisputeHandler) HandleGet(c *fiber.Ctx) error {
	disputeID := c.Params("id")
	dispute, err := h.service.Get(currentUserID(c), disputeID)
	if err != nil {
		log.Printf("Error getting dispute %s: %v", disputeID, err)
		return respondError(c, "Could not retrieve dispute", err)
	}
	return c.JSON(dispute)
}

// RespondRequest carries the seller's answer to a dispute.
type RespondRequest struct {
	Response string `json:"response" validate:"required,max=2000"`
}

// HandleSellerRespond records the seller's response.
func (h *DisputeHandler) HandleSellerRespond(c *fiber.Ctx) error {
	var req RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	disputeID := c.Params("id")
	dispute, err := h.service.SellerRespond(currentUserID(c), disputeID, req.Response)
	if err != nil {
		log.Printf("Error responding to dispute %s: %v", disputeID, err)
		return respondError(c, "Could not record response", err)
	}
	return c.JSON(dispute)
}

// ResolveRequest carries the admin's terminal decision.
type ResolveRequest struct {
	Outcome     string `json:"outcome" validate:"required"`
	RefundCents int64  `json:"refund_cents" validate:"gte=0"`
}

// HandleResolve applies the admin decision, driving the order to Released or
// Refunded.
func (h *DisputeHandler) HandleResolve(c *fiber.Ctx) error {
	var req ResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	disputeID := c.Params("id")
	dispute, err := h.service.Resolve(disputeID, req.Outcome, req.RefundCents)
	if err != nil {
		log.Printf("Error resolving dispute %s: %v", disputeID, err)
		return respondError(c, "Could not resolve dispute", err)
	}
	return c.JSON(dispute)
}
