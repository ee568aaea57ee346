package devbackend

import (
	"errors"
	"io"
	"math"
	"path"
	"strings"

	"foozadmin/internal/models"
	"foozadmin/internal/repositories"
	"foozadmin/internal/validation"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var creds models.Credentials
	if err := c.BodyParser(&creds); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validation.Struct(creds); err != nil {
		return failValidation(c, err)
	}

	resp, err := s.auth.Login(creds.Email, creds.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.log.WithField("email", creds.Email).Info("rejected login")
			return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (s *Server) handleListMedia(c *fiber.Ctx) error {
	typ := strings.ToUpper(c.Query("type"))
	if typ != "" && !models.MediaType(typ).Valid() {
		return fail(c, fiber.StatusBadRequest, []string{"type must be one of IMAGE, GLB"})
	}
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 || limit < 1 || limit > maxPageLimit {
		return fail(c, fiber.StatusBadRequest, []string{"page must be >= 1", "limit must be between 1 and 100"})
	}

	records, total, err := s.media.List(repositories.MediaFilter{Type: typ, Page: page, Limit: limit})
	if err != nil {
		return err
	}
	items := make([]models.MediaFile, 0, len(records))
	for _, rec := range records {
		items = append(items, rec.Model())
	}
	return c.JSON(models.PaginatedMedia{
		Items: items,
		Meta: models.PageMeta{
			Total:      int(total),
			Page:       page,
			Limit:      limit,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "File is required")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	typ, ok := mediaType(fh.Filename, content)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "Unsupported file type")
	}

	size := int64(len(content))
	id := uuid.New().String()
	rec := &repositories.MediaRecord{
		ID:      id,
		URL:     c.BaseURL() + "/files/" + id,
		Name:    path.Base(fh.Filename),
		Type:    string(typ),
		Size:    &size,
		Content: content,
	}
	if err := s.media.Create(rec); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(rec.Model())
}

// mediaType classifies an upload by its content, or by a .glb extension.
func mediaType(name string, content []byte) (models.MediaType, bool) {
	mt := mimetype.Detect(content)
	switch {
	case mt.Is("model/gltf-binary"), strings.EqualFold(path.Ext(name), ".glb"):
		return models.MediaGLB, true
	case strings.HasPrefix(mt.String(), "image/"):
		return models.MediaImage, true
	}
	return "", false
}

func (s *Server) handleFile(c *fiber.Ctx) error {
	rec, err := s.media.GetByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "File not found")
		}
		return err
	}
	c.Set(fiber.HeaderContentType, mimetype.Detect(rec.Content).String())
	return c.Send(rec.Content)
}

func (s *Server) handleDeleteMedia(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.media.Delete(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Media "+id+" not found")
		}
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleDeleteMultiple(c *fiber.Ctx) error {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if len(body.IDs) == 0 {
		return fail(c, fiber.StatusBadRequest, []string{"ids must contain at least 1 elements"})
	}

	if err := s.media.DeleteMany(body.IDs); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(fiber.Map{"deleted": len(body.IDs)})
}

func failValidation(c *fiber.Ctx, err error) error {
	ve, ok := validation.AsValidationError(err)
	if !ok {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	msgs := make([]string, 0, len(ve.Violations))
	for _, v := range ve.Violations {
		msgs = append(msgs, v.Field+" "+v.Message)
	}
	return fail(c, fiber.StatusBadRequest, msgs)
}
