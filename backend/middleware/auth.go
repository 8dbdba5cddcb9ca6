package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"shelfcontrol/backend/config"
	"shelfcontrol/backend/utils"
)

const (
	localUserID = "user_id"
	localEmail  = "email"
)

// AdminChecker reports whether a user holds the admin role.
type AdminChecker interface {
	IsAdmin(ctx context.Context, id string) (bool, error)
}

// AuthMiddleware requires a valid access token and stores the caller's id and
// email in the request locals.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.ExtractClaimsFromToken(c, cfg.JWTSecret)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		c.Locals(localUserID, claims.Subject)
		c.Locals(localEmail, claims.Email)
		return c.Next()
	}
}

// OptionalAuth stores the caller's identity when a valid token is present and
// lets the request through either way.
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims, err := utils.ExtractClaimsFromToken(c, cfg.JWTSecret); err == nil {
			c.Locals(localUserID, claims.Subject)
			c.Locals(localEmail, claims.Email)
		}
		return c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware(admins AdminChecker, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == "" {
			return utils.Unauthorized(c, "Unauthorized")
		}

		ok, err := admins.IsAdmin(c.UserContext(), userID)
		if err != nil {
			logger.Error("admin check failed", zap.String("user_id", userID), zap.Error(err))
			return utils.InternalServerError(c, "Could not verify permissions")
		}
		if !ok {
			return utils.Forbidden(c, "Forbidden - Admin access required")
		}

		return c.Next()
	}
}

// UserID returns the authenticated caller, or "" when there is none.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func UserEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(localEmail).(string)
	return email
}
