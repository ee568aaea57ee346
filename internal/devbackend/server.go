// Package devbackend is a local stand-in for the store backend the console
// talks to. It speaks the same REST and GraphQL wire format and keeps its
// data in gorm (sqlite or postgres).
package devbackend

import (
	"errors"
	"fmt"
	"time"

	"foozadmin/internal/logging"
	"foozadmin/internal/middleware"
	"foozadmin/internal/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	maxUploadBytes = 32 << 20
	maxPageLimit   = 100
)

// Options configures the Server.
type Options struct {
	JWTSecret string
	TokenTTL  time.Duration
	Logger    *logrus.Entry
}

// Server bundles the repositories and the authenticator behind the routes.
type Server struct {
	auth       *Authenticator
	products   repositories.ProductRepository
	categories *repositories.GORMCategoryRepository
	media      repositories.MediaRepository
	log        *logrus.Entry
}

// New migrates db and builds a Server on it.
func New(db *gorm.DB, opts Options) (*Server, error) {
	if opts.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if err := repositories.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Server{
		auth:       NewAuthenticator(repositories.NewGORMUserRepository(db), opts.JWTSecret, opts.TokenTTL),
		products:   repositories.NewGORMProductRepository(db),
		categories: repositories.NewGORMCategoryRepository(db),
		media:      repositories.NewGORMMediaRepository(db),
		log:        log,
	}, nil
}

// Auth returns the authenticator, used to seed accounts.
func (s *Server) Auth() *Authenticator { return s.auth }

// App builds the Fiber app serving every route. extra handlers run first.
func (s *Server) App(extra ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             maxUploadBytes,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})
	app.Use(recover.New())
	for _, h := range extra {
		app.Use(h)
	}
	app.Use(s.requestLogger)

	app.Post("/auth/login", s.handleLogin)
	app.Get("/files/:id", s.handleFile)

	protected := app.Group("", middleware.BearerRequired(s.auth, s.log))
	protected.Get("/media", s.handleListMedia)
	protected.Post("/media/upload", s.handleUpload)
	protected.Post("/media/delete-multiple", s.handleDeleteMultiple)
	protected.Delete("/media/:id", s.handleDeleteMedia)
	protected.Post("/graphql", s.handleGraphQL)

	return app
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.WithFields(logrus.Fields{
		"method":   c.Method(),
		"path":     c.Path(),
		"status":   c.Response().StatusCode(),
		"duration": time.Since(start).String(),
	}).Debug("request served")
	return err
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fail(c, fe.Code, fe.Message)
	}
	s.log.WithError(err).WithField("path", c.Path()).Error("request failed")
	return fail(c, fiber.StatusInternalServerError, "Internal server error")
}

// fail writes the error body the console expects: a message that is either
// a string or a list of strings.
func fail(c *fiber.Ctx, status int, message any) error {
	return c.Status(status).JSON(fiber.Map{
		"statusCode": status,
		"message":    message,
	})
}
