package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Sentinel errors for every failure the API can surface. Services wrap these
// with %w and extra context; handlers match with errors.Is and map them to a
// stable machine-readable code so clients never have to parse messages.
var (
	ErrAuthExpired         = errors.New("access token expired")
	ErrAuthInvalid         = errors.New("invalid credentials or token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrOutOfStock          = errors.New("requested quantity exceeds available stock")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrInvalidState        = errors.New("operation not allowed in current state")
	ErrWindowExpired       = errors.New("buyer protection window has expired")
	ErrConflict            = errors.New("concurrent modification conflict")
	ErrTokenExpired        = errors.New("withdrawal token expired")
	ErrTokenAlreadyUsed    = errors.New("withdrawal token already redeemed")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("not allowed for this user")
)

// Code returns the stable error code string for a known error, or "INTERNAL".
func Code(err error) string {
	switch {
	case errors.Is(err, ErrAuthExpired):
		return "AUTH_EXPIRED"
	case errors.Is(err, ErrAuthInvalid):
		return "AUTH_INVALID"
	case errors.Is(err, ErrInvalidRefreshToken):
		return "INVALID_REFRESH_TOKEN"
	case errors.Is(err, ErrOutOfStock):
		return "OUT_OF_STOCK"
	case errors.Is(err, ErrInvalidQuantity):
		return "INVALID_QUANTITY"
	case errors.Is(err, ErrInvalidState):
		return "INVALID_STATE"
	case errors.Is(err, ErrWindowExpired):
		return "WINDOW_EXPIRED"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrTokenExpired):
		return "TOKEN_EXPIRED"
	case errors.Is(err, ErrTokenAlreadyUsed):
		return "TOKEN_ALREADY_USED"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus maps a known error to the HTTP status the handlers respond with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrAuthExpired), errors.Is(err, ErrAuthInvalid), errors.Is(err, ErrInvalidRefreshToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidState), errors.Is(err, ErrTokenAlreadyUsed):
		return fiber.StatusConflict
	case errors.Is(err, ErrWindowExpired), errors.Is(err, ErrTokenExpired):
		return fiber.StatusGone
	case errors.Is(err, ErrOutOfStock), errors.Is(err, ErrInvalidQuantity):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}
