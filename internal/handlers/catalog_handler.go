package handlers

import (
	"foozadmin/internal/logging"
	"foozadmin/internal/services"
	"foozadmin/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// CatalogHandler handles HTTP requests for products and categories.
type CatalogHandler struct {
	catalogService *services.CatalogService
	log            *logrus.Entry
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *services.CatalogService, log *logrus.Entry) *CatalogHandler {
	if log == nil {
		log = logging.Discard()
	}
	return &CatalogHandler{catalogService: catalogService, log: log}
}

// RegisterRoutes registers the product and category routes with the Fiber router.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.GetAllProducts)
	productRoutes.Post("/", h.CreateProduct)
	productRoutes.Get("/:id", h.GetProductByID)
	productRoutes.Put("/:id", h.UpdateProduct)
	productRoutes.Delete("/:id", h.DeleteProduct)

	categoryRoutes := router.Group("/categories")
	categoryRoutes.Get("/", h.GetAllCategories)
	categoryRoutes.Post("/", h.CreateCategory)
	categoryRoutes.Put("/:id", h.UpdateCategory)
	categoryRoutes.Delete("/:id", h.DeleteCategory)
}

// GetAllProducts lists every product.
func (h *CatalogHandler) GetAllProducts(c *fiber.Ctx) error {
	products, err := h.catalogService.Products(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(products)
}

// GetProductByID returns one product.
func (h *CatalogHandler) GetProductByID(c *fiber.Ctx) error {
	product, err := h.catalogService.Product(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(product)
}

// CreateProduct validates the product form and creates the product.
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	input, err := formInput(c)
	if err != nil {
		return badBody(c, err)
	}
	p, err := validation.Product(input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	created, err := h.catalogService.CreateProduct(c.UserContext(), p)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateProduct validates the product form and replaces the product.
func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	input, err := formInput(c)
	if err != nil {
		return badBody(c, err)
	}
	p, err := validation.Product(input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	updated, err := h.catalogService.UpdateProduct(c.UserContext(), c.Params("id"), p)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(updated)
}

// DeleteProduct removes a product.
func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.catalogService.DeleteProduct(c.UserContext(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Product " + id + " deleted successfully"})
}

// GetAllCategories lists every category.
func (h *CatalogHandler) GetAllCategories(c *fiber.Ctx) error {
	categories, err := h.catalogService.Categories(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(categories)
}

// CreateCategory validates the category form and creates the category.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	input, err := formInput(c)
	if err != nil {
		return badBody(c, err)
	}
	cat, err := validation.Category(input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	created, err := h.catalogService.CreateCategory(c.UserContext(), cat)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateCategory validates the category form and replaces the category.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	input, err := formInput(c)
	if err != nil {
		return badBody(c, err)
	}
	cat, err := validation.Category(input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	updated, err := h.catalogService.UpdateCategory(c.UserContext(), c.Params("id"), cat)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(updated)
}

// DeleteCategory removes a category.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.catalogService.DeleteCategory(c.UserContext(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Category " + id + " deleted successfully"})
}
