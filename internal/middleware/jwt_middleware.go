package middleware

import (
	"strings"
	"time"

	"foozadmin/internal/logging"
	"foozadmin/internal/session"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// LocalUser is the Fiber locals key holding the signed-in *models.User.
const LocalUser = "user"

// SessionRequired rejects requests when no operator is signed in. A stored
// token that is a JWT with an exp claim in the past ends the session.
// Tokens that are not JWTs are treated as opaque and let through.
func SessionRequired(store session.Store, log *logrus.Entry) fiber.Handler {
	if log == nil {
		log = logging.Discard()
	}
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		token := store.Token(ctx)
		user, ok := store.CurrentUser(ctx)
		if token == "" || !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not signed in",
			})
		}

		if tokenExpired(token, time.Now()) {
			if err := store.Clear(ctx); err != nil {
				log.WithError(err).Warn("failed to clear expired session")
			}
			log.WithField("user_id", user.ID).Info("session token expired")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Session expired",
			})
		}

		c.Locals(LocalUser, user)
		return c.Next()
	}
}

// tokenExpired reports whether token is a JWT whose exp lies before now.
// The signature is not checked; only the backend can do that.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return false
	}
	if _, ok := claims["exp"]; !ok {
		return false
	}
	return !claims.VerifyExpiresAt(now.Unix(), true)
}

// TokenValidator checks a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (jwt.MapClaims, error)
}

// BearerRequired is a Fiber middleware to check for a valid JWT token.
func BearerRequired(validator TokenValidator, log *logrus.Entry) fiber.Handler {
	if log == nil {
		log = logging.Discard()
	}
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") || parts[1] == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			log.WithError(err).Debug("JWT validation failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims["user_id"])
		c.Locals("email", claims["email"])
		return c.Next()
	}
}
