package handlers

import (
	"time"

	"foozadmin/internal/logging"
	"foozadmin/internal/middleware"
	"foozadmin/internal/services"
	"foozadmin/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators of the console app.
type Deps struct {
	Auth    *services.AuthService
	Media   *services.MediaService
	Catalog *services.CatalogService
	Store   session.Store
	Logger  *logrus.Entry
	// AllowedOrigins are browser origins besides the console's own that may
	// call state-changing routes.
	AllowedOrigins []string
}

// NewApp builds the console Fiber app: /health, public auth routes and
// everything else under /api behind middleware.SessionRequired. Every /api
// route refuses cross-site writes.
func NewApp(deps Deps, extra ...fiber.Handler) *fiber.App {
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	for _, h := range extra {
		app.Use(h)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := app.Group("/api", middleware.SameOrigin(deps.AllowedOrigins, log))
	authHandler := NewAuthHandler(deps.Auth, log)
	authHandler.RegisterRoutes(api)

	protected := api.Group("", middleware.SessionRequired(deps.Store, log))
	authHandler.RegisterProtectedRoutes(protected)
	NewMediaHandler(deps.Media, log).RegisterRoutes(protected)
	NewCatalogHandler(deps.Catalog, log).RegisterRoutes(protected)
	return app
}
