package handlers

import (
	"foozadmin/internal/logging"
	"foozadmin/internal/services"
	"foozadmin/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	log         *logrus.Entry
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, log *logrus.Entry) *AuthHandler {
	if log == nil {
		log = logging.Discard()
	}
	return &AuthHandler{authService: authService, log: log}
}

// RegisterRoutes registers the public authentication routes with the Fiber
// router. They must be registered before any session middleware on the same
// prefix.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/logout", h.HandleLogout)
}

// RegisterProtectedRoutes registers the routes that need a session.
func (h *AuthHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Get("/auth/me", h.HandleMe)
}

// HandleLogin validates the login form and signs the operator in.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	input, err := formInput(c)
	if err != nil {
		return badBody(c, err)
	}
	creds, err := validation.Login(input)
	if err != nil {
		return writeError(c, h.log, err)
	}

	resp, err := h.authService.Login(c.UserContext(), creds)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    resp.User,
	})
}

// HandleLogout ends the session and sends the browser to the login page.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext()); err != nil {
		h.log.WithError(err).Warn("logout left session data behind")
	}
	return c.Redirect(services.LoginPath, fiber.StatusSeeOther)
}

// HandleMe returns the signed-in operator.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user, ok := h.authService.CurrentUser(c.UserContext())
	if !ok {
		return writeError(c, h.log, services.ErrNoSession)
	}
	return c.JSON(user)
}
