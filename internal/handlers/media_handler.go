package handlers

import (
	"strings"

	"foozadmin/internal/logging"
	"foozadmin/internal/models"
	"foozadmin/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// MediaHandler handles HTTP requests for the media library.
type MediaHandler struct {
	mediaService *services.MediaService
	log          *logrus.Entry
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaService *services.MediaService, log *logrus.Entry) *MediaHandler {
	if log == nil {
		log = logging.Discard()
	}
	return &MediaHandler{mediaService: mediaService, log: log}
}

// RegisterRoutes registers the media routes with the Fiber router.
func (h *MediaHandler) RegisterRoutes(router fiber.Router) {
	mediaRoutes := router.Group("/media")
	mediaRoutes.Get("/", h.HandleList)
	mediaRoutes.Post("/upload", h.HandleUpload)
	mediaRoutes.Post("/delete-multiple", h.HandleDeleteMultiple)
	mediaRoutes.Delete("/:id", h.HandleDelete)
}

// HandleList returns one page of media.
func (h *MediaHandler) HandleList(c *fiber.Ctx) error {
	q := services.MediaQuery{
		Type:  models.MediaType(strings.ToUpper(c.Query("type"))),
		Page:  c.QueryInt("page", services.DefaultMediaPage),
		Limit: c.QueryInt("limit", services.DefaultMediaLimit),
	}
	page, err := h.mediaService.GetAll(c.UserContext(), q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(page)
}

// HandleUpload forwards the "file" form field to the backend.
func (h *MediaHandler) HandleUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  fiber.Map{"file": "is required"},
		})
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, h.log, err)
	}
	defer f.Close()

	file, err := h.mediaService.Upload(c.UserContext(), fh.Filename, f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(file)
}

// HandleDelete removes one file.
func (h *MediaHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.mediaService.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleDeleteMultiple removes a batch of files in one backend request.
func (h *MediaHandler) HandleDeleteMultiple(c *fiber.Ctx) error {
	var body struct {
		IDs []string `json:"ids"`
	}
	if !c.Is("json") {
		return badBody(c, errNotJSON)
	}
	if err := c.BodyParser(&body); err != nil {
		return badBody(c, err)
	}
	if err := h.mediaService.DeleteMultiple(c.UserContext(), body.IDs); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"deleted": len(body.IDs)})
}
