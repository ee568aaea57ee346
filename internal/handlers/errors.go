// Package handlers exposes the console operations over HTTP for the
// dashboard UI.
package handlers

import (
	"encoding/json"
	"errors"

	"foozadmin/internal/api"
	"foozadmin/internal/graphql"
	"foozadmin/internal/services"
	"foozadmin/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// graphQLStatus maps extensions.code of a GraphQL error to a status.
var graphQLStatus = map[string]int{
	"BAD_USER_INPUT":  fiber.StatusBadRequest,
	"NOT_FOUND":       fiber.StatusNotFound,
	"CONFLICT":        fiber.StatusConflict,
	"UNAUTHENTICATED": fiber.StatusUnauthorized,
	"FORBIDDEN":       fiber.StatusForbidden,
}

// writeError maps the error taxonomy of the services to a response.
func writeError(c *fiber.Ctx, log *logrus.Entry, err error) error {
	if ve, ok := validation.AsValidationError(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  ve.Fields(),
		})
	}
	if errors.Is(err, services.ErrNoSession) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not signed in"})
	}

	var gqlErr *graphql.Error
	if errors.As(err, &gqlErr) {
		status, ok := graphQLStatus[gqlErr.Code()]
		if !ok {
			status = fiber.StatusBadGateway
		}
		body := fiber.Map{"message": gqlErr.Error()}
		for _, item := range gqlErr.Items {
			if fields, ok := item.Extensions["fields"]; ok {
				body["errors"] = fields
				break
			}
		}
		return c.Status(status).JSON(body)
	}

	var be *api.BackendError
	if errors.As(err, &be) {
		return c.Status(be.StatusCode).JSON(fiber.Map{"message": be.Message})
	}
	if api.IsTransport(err) {
		log.WithError(err).Warn("backend unreachable")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "Backend unavailable"})
	}

	log.WithError(err).WithField("path", c.Path()).Error("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
}

// errNotJSON rejects bodies a cross-site HTML form or a simple fetch could
// send without a preflight.
var errNotJSON = errors.New("content type must be application/json")

// formInput decodes a JSON form body into the untyped map the validation
// schemas accept.
func formInput(c *fiber.Ctx) (map[string]any, error) {
	input := map[string]any{}
	if len(c.Body()) == 0 {
		return input, nil
	}
	if !c.Is("json") {
		return nil, errNotJSON
	}
	if err := json.Unmarshal(c.Body(), &input); err != nil {
		return nil, err
	}
	return input, nil
}

func badBody(c *fiber.Ctx, err error) error {
	if errors.Is(err, errNotJSON) {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
			"message": "Unsupported content type",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}
