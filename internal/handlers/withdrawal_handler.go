package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"hanythrift/internal/middleware"
	"hanythrift/internal/services"
)

// WithdrawalHandler handles HTTP requests for seller payouts.
type WithdrawalHandler struct {
	service  *services.WithdrawalService
	validate *validator.Validate
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(service *services.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the public redemption route. The secret itself is
// the credential, so no session is required to redeem.
func (h *WithdrawalHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/withdrawals/redeem", h.HandleRedeem)
}

// RegisterProtectedRoutes registers the seller-only issuance route.
func (h *WithdrawalHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Post("/withdrawals", middleware.SellerRequired(), h.HandleIssue)
}

// IssueRequest names the released order to withdraw from.
type IssueRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// HandleIssue mints a single-use withdrawal token for a released order. The
// plaintext secret appears only in this response.
func (h *WithdrawalHandler) HandleIssue(c *fiber.Ctx) error {
	var req IssueRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	token, secret, err := h.service.Issue(currentUserID(c), req.OrderID)
	if err != nil {
		log.Printf("Error issuing withdrawal token for order %s: %v", req.OrderID, err)
		return respondError(c, "Could not issue withdrawal token", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":  token,
		"secret": secret,
	})
}

// RedeemRequest carries the single-use withdrawal secret.
type RedeemRequest struct {
	Secret string `json:"secret" validate:"required"`
}

// HandleRedeem pays out a withdrawal token, exactly once.
func (h *WithdrawalHandler) HandleRedeem(c *fiber.Ctx) error {
	var req RedeemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	token, err := h.service.Redeem(req.Secret)
	if err != nil {
		log.Printf("Error redeeming withdrawal token: %v", err)
		return respondError(c, "Could not redeem withdrawal token", err)
	}
	return c.JSON(fiber.Map{
		"message": "Payout executed",
		"payout":  token,
	})
}
