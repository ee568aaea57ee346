package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"foozadmin/internal/api"
	"foozadmin/internal/config"
	"foozadmin/internal/graphql"
	"foozadmin/internal/handlers"
	"foozadmin/internal/logging"
	"foozadmin/internal/services"
	"foozadmin/internal/session"
	"foozadmin/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg := config.Load(config.New())
	root := logging.New(cfg.LogLevel)
	log := logging.Component(root, "console")

	c, err := newConsole(cfg, root)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize console")
	}
	defer c.Close()

	app := c.App(logger.New())

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithField("port", cfg.AppPort).Info("starting console")
		if err := app.Listen(cfg.AppPort); err != nil {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	<-quit
	log.Info("shutting down console")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Error("error during Fiber shutdown")
	}
	log.Info("console gracefully stopped")
}

// console holds the wired components of one running admin console.
type console struct {
	store *session.GormStore
	gql   *graphql.Client
	mq    *rabbitmq.Client
	deps  handlers.Deps
	log   *logrus.Entry
}

func newConsole(cfg config.Config, root *logrus.Logger) (*console, error) {
	log := logging.Component(root, "console")

	anonymous, err := api.ParseAnonymousAuth(cfg.AnonymousAuth)
	if err != nil {
		return nil, err
	}

	// --- Session store ---
	db, err := session.OpenDB(cfg.SessionDSN)
	if err != nil {
		return nil, err
	}
	store, err := session.NewGormStore(db, session.WithLogger(logging.Component(root, "session")))
	if err != nil {
		return nil, err
	}

	// --- API clients ---
	rest, err := api.New(api.Config{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.HTTPTimeout,
		Anonymous: anonymous,
		Logger:    logging.Component(root, "rest"),
	}, store)
	if err != nil {
		return nil, fmt.Errorf("rest client: %w", err)
	}
	gql, err := graphql.New(graphql.Config{
		Endpoint:  cfg.GraphQLURL,
		Timeout:   cfg.HTTPTimeout,
		Anonymous: anonymous,
		Logger:    logging.Component(root, "graphql"),
	}, store)
	if err != nil {
		return nil, fmt.Errorf("graphql client: %w", err)
	}

	c := &console{store: store, gql: gql, log: log}

	// --- Change events (optional) ---
	var publisher services.ChangePublisher
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:    cfg.RabbitMQURL,
			Origin: uuid.New().String(),
			Logger: logging.Component(root, "rabbitmq"),
		})
		if err != nil {
			log.WithError(err).Warn("change events disabled")
		} else {
			c.mq = mq
			publisher = mq
			if err := mq.ConsumeChanges(evictOnChange(gql, log)); err != nil {
				log.WithError(err).Warn("not listening for change events")
			}
		}
	}

	// --- Services ---
	signedOut := services.NavigatorFunc(func(path string) {
		log.WithField("redirect", path).Info("operator signed out")
	})
	c.deps = handlers.Deps{
		Auth:    services.NewAuthService(rest, store, services.WithNavigator(signedOut), services.WithAuthLogger(logging.Component(root, "auth"))),
		Media:   services.NewMediaService(rest, publisher, logging.Component(root, "media")),
		Catalog: services.NewCatalogService(gql, publisher, logging.Component(root, "catalog")),
		Store:   store,
		Logger:  log,

		AllowedOrigins: cfg.AllowedOrigins,
	}
	return c, nil
}

// App builds the HTTP app of the console.
func (c *console) App(middleware ...fiber.Handler) *fiber.App {
	return handlers.NewApp(c.deps, middleware...)
}

// Close releases the broker connection.
func (c *console) Close() {
	if c.mq == nil {
		return
	}
	if err := c.mq.Close(); err != nil {
		c.log.WithError(err).Warn("failed to close RabbitMQ client")
	}
}

// evictOnChange drops cached catalog lists when another console changed
// them. Media listings are not cached.
func evictOnChange(cache services.GraphQLClient, log *logrus.Entry) func(rabbitmq.ChangeEvent) error {
	return func(ev rabbitmq.ChangeEvent) error {
		if ev.Kind != rabbitmq.KindCatalogChanged {
			return nil
		}
		switch ev.Entity {
		case "products", "categories":
			cache.Evict(ev.Entity)
		default:
			cache.Evict("products")
			cache.Evict("categories")
		}
		log.WithFields(logrus.Fields{"entity": ev.Entity, "origin": ev.Origin}).Debug("evicted cache after remote change")
		return nil
	}
}
