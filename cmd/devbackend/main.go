// Command devbackend runs a local stand-in for the store backend so the
// console can be used without the real services.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2/middleware/logger"

	"foozadmin/internal/config"
	"foozadmin/internal/devbackend"
	"foozadmin/internal/logging"
	"foozadmin/internal/session"
)

func main() {
	cfg := config.LoadDevBackend(config.New())
	root := logging.New(cfg.LogLevel)
	log := logging.Component(root, "devbackend")

	db, err := session.OpenDB(cfg.DSN)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	srv, err := devbackend.New(db, devbackend.Options{
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
		Logger:    log,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to initialize backend")
	}
	if err := srv.Auth().SeedAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.WithError(err).Fatal("failed to seed admin account")
	}

	app := srv.App(logger.New())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithField("port", cfg.Port).Info("starting development backend")
		if err := app.Listen(cfg.Port); err != nil {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	<-quit
	log.Info("shutting down development backend")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Error("error during Fiber shutdown")
	}
	log.Info("development backend stopped")
}
