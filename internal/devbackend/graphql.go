package devbackend

import (
	"encoding/json"
	"errors"

	"foozadmin/internal/graphql"
	"foozadmin/internal/models"
	"foozadmin/internal/repositories"
	"foozadmin/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Error codes reported in errors[].extensions.code.
const (
	codeBadInput  = "BAD_USER_INPUT"
	codeNotFound  = "NOT_FOUND"
	codeConflict  = "CONFLICT"
	codeUnknownOp = "GRAPHQL_VALIDATION_FAILED"
	codeInternal  = "INTERNAL_SERVER_ERROR"
)

type gqlRequest struct {
	Query         string `json:"query"`
	OperationName string `json:"operationName"`
	Variables     struct {
		ID    string          `json:"id"`
		Input json.RawMessage `json:"input"`
	} `json:"variables"`
}

// gqlFailure is an error that becomes one entry of the errors array.
type gqlFailure struct {
	item graphql.ErrorItem
}

func (f *gqlFailure) Error() string { return f.item.Message }

func failure(code, msg string, ext map[string]any) *gqlFailure {
	if ext == nil {
		ext = map[string]any{}
	}
	ext["code"] = code
	return &gqlFailure{item: graphql.ErrorItem{Message: msg, Extensions: ext}}
}

// handleGraphQL dispatches on operationName. The query text is not parsed;
// every operation returns the full object shape the console selects.
func (s *Server) handleGraphQL(c *fiber.Ctx) error {
	var req gqlRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(graphql.Response{
			Errors: []graphql.ErrorItem{failure(codeBadInput, "Malformed GraphQL request", nil).item},
		})
	}

	field, value, err := s.resolve(&req)
	if field == "" {
		return c.Status(fiber.StatusBadRequest).JSON(graphql.Response{
			Errors: []graphql.ErrorItem{failure(codeUnknownOp, "Unknown operation \""+req.OperationName+"\"", nil).item},
		})
	}
	if err != nil {
		var f *gqlFailure
		if !errors.As(err, &f) {
			s.log.WithError(err).WithField("operation", req.OperationName).Error("graphql resolver failed")
			f = failure(codeInternal, "Internal server error", nil)
		}
		f.item.Path = []any{field}
		return c.JSON(fiber.Map{"data": nil, "errors": []graphql.ErrorItem{f.item}})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{field: value}})
}

// resolve runs the operation and names the root field it answers. An empty
// field means the operation is unknown.
func (s *Server) resolve(req *gqlRequest) (string, any, error) {
	id := req.Variables.ID
	switch req.OperationName {
	case "Products":
		v, err := s.products.GetAll()
		return "products", v, err
	case "Product":
		p, err := s.products.GetByID(id)
		if errors.Is(err, repositories.ErrNotFound) {
			return "product", nil, nil
		}
		return "product", p, err
	case "CreateProduct":
		v, err := s.saveProduct("", req.Variables.Input)
		return "createProduct", v, err
	case "UpdateProduct":
		v, err := s.saveProduct(id, req.Variables.Input)
		return "updateProduct", v, err
	case "DeleteProduct":
		v, err := deleted(s.products.Delete(id))
		return "deleteProduct", v, err
	case "Categories":
		v, err := s.categories.GetAll()
		return "categories", v, err
	case "CreateCategory":
		v, err := s.saveCategory("", req.Variables.Input)
		return "createCategory", v, err
	case "UpdateCategory":
		v, err := s.saveCategory(id, req.Variables.Input)
		return "updateCategory", v, err
	case "DeleteCategory":
		err := s.categories.Delete(id)
		if errors.Is(err, repositories.ErrConflict) {
			return "deleteCategory", nil, failure(codeConflict, "Category is in use by products", nil)
		}
		v, err := deleted(err)
		return "deleteCategory", v, err
	}
	return "", nil, nil
}

func (s *Server) saveProduct(id string, input json.RawMessage) (*models.Product, error) {
	var p models.Product
	if err := decodeInput(input, &p); err != nil {
		return nil, err
	}
	if err := validation.Struct(p); err != nil {
		return nil, invalid(err)
	}
	exists, err := s.categories.Exists(p.CategoryID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, failure(codeBadInput, "Category not found", map[string]any{"fields": map[string]string{"categoryId": "does not exist"}})
	}

	p.ID = id
	if id == "" {
		err = s.products.Create(&p)
	} else {
		err = s.products.Update(&p)
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, failure(codeNotFound, "Product not found", nil)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Server) saveCategory(id string, input json.RawMessage) (*models.Category, error) {
	var c models.Category
	if err := decodeInput(input, &c); err != nil {
		return nil, err
	}
	if err := validation.Struct(c); err != nil {
		return nil, invalid(err)
	}

	c.ID = id
	var err error
	if id == "" {
		err = s.categories.Create(&c)
	} else {
		err = s.categories.Update(&c)
	}
	switch {
	case errors.Is(err, repositories.ErrConflict):
		return nil, failure(codeConflict, "Slug already taken", map[string]any{"fields": map[string]string{"slug": "already taken"}})
	case errors.Is(err, repositories.ErrNotFound):
		return nil, failure(codeNotFound, "Category not found", nil)
	case err != nil:
		return nil, err
	}
	return &c, nil
}

func decodeInput(input json.RawMessage, out any) error {
	if len(input) == 0 || string(input) == "null" {
		return failure(codeBadInput, "Variable \"$input\" is required", nil)
	}
	if err := json.Unmarshal(input, out); err != nil {
		return failure(codeBadInput, "Variable \"$input\" is invalid: "+err.Error(), nil)
	}
	return nil
}

func invalid(err error) error {
	ve, ok := validation.AsValidationError(err)
	if !ok {
		return err
	}
	return failure(codeBadInput, "Validation failed", map[string]any{"fields": ve.Fields()})
}

// deleted maps a repository delete result to the Boolean the schema
// returns: false for an unknown id.
func deleted(err error) (bool, error) {
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
