package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"hanythrift/internal/apperr"
	"hanythrift/internal/services"
)

// AuthRequired is a Fiber middleware that validates the bearer access token
// and stores its claims in the request context. An expired token answers with
// the AUTH_EXPIRED code so clients know to refresh or re-authenticate instead
// of retrying.
func AuthRequired(tokenService *services.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
				"code":    "AUTH_INVALID",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
				"code":    "AUTH_INVALID",
			})
		}

		claims, err := tokenService.Verify(parts[1])
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			if errors.Is(err, apperr.ErrAuthExpired) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"message": "Access token expired, please refresh or log in again",
					"code":    apperr.Code(err),
				})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid token",
				"code":    apperr.Code(err),
			})
		}

		c.Locals("user_id", claims["user_id"])
		c.Locals("username", claims["username"])
		c.Locals("is_seller", claims["is_seller"] == true)
		c.Locals("is_admin", claims["is_admin"] == true)

		return c.Next()
	}
}

// SellerRequired rejects requests from accounts without the seller flag. Must
// run after AuthRequired.
func SellerRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isSeller, ok := c.Locals("is_seller").(bool); !ok || !isSeller {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Seller account required",
				"code":    "FORBIDDEN",
			})
		}
		return c.Next()
	}
}

// AdminRequired rejects requests from non-admin accounts. Must run after
// AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isAdmin, ok := c.Locals("is_admin").(bool); !ok || !isAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Admin account required",
				"code":    "FORBIDDEN",
			})
		}
		return c.Next()
	}
}
