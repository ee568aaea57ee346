package services

import (
	"context"
	"strings"

	"foozadmin/internal/graphql"
	"foozadmin/internal/logging"
	"foozadmin/internal/models"
	"foozadmin/internal/validation"
	"foozadmin/pkg/rabbitmq"

	"github.com/sirupsen/logrus"
)

const productFields = `id name description price discountPercentage categoryId stock images glbUrl colorIds accessoryIds sizes { name price dimensions } isActive`

const categoryFields = `id name slug`

const (
	productsQuery = `query Products { products { ` + productFields + ` } }`
	productQuery  = `query Product($id: ID!) { product(id: $id) { ` + productFields + ` } }`

	createProductMutation = `mutation CreateProduct($input: ProductInput!) { createProduct(input: $input) { ` + productFields + ` } }`
	updateProductMutation = `mutation UpdateProduct($id: ID!, $input: ProductInput!) { updateProduct(id: $id, input: $input) { ` + productFields + ` } }`
	deleteProductMutation = `mutation DeleteProduct($id: ID!) { deleteProduct(id: $id) }`

	categoriesQuery = `query Categories { categories { ` + categoryFields + ` } }`

	createCategoryMutation = `mutation CreateCategory($input: CategoryInput!) { createCategory(input: $input) { ` + categoryFields + ` } }`
	updateCategoryMutation = `mutation UpdateCategory($id: ID!, $input: CategoryInput!) { updateCategory(id: $id, input: $input) { ` + categoryFields + ` } }`
	deleteCategoryMutation = `mutation DeleteCategory($id: ID!) { deleteCategory(id: $id) }`
)

// CatalogService runs the product and category operations over GraphQL.
type CatalogService struct {
	client    GraphQLClient
	publisher ChangePublisher
	log       *logrus.Entry
}

// NewCatalogService creates a new CatalogService. publisher may be nil.
func NewCatalogService(client GraphQLClient, publisher ChangePublisher, log *logrus.Entry) *CatalogService {
	if log == nil {
		log = logging.Discard()
	}
	return &CatalogService{client: client, publisher: publisher, log: log}
}

// Products lists every product.
func (s *CatalogService) Products(ctx context.Context) ([]models.Product, error) {
	var out struct {
		Products []models.Product `json:"products"`
	}
	if err := s.client.Query(ctx, graphql.Operation{Query: productsQuery, OperationName: "Products"}, &out); err != nil {
		return nil, err
	}
	if out.Products == nil {
		out.Products = []models.Product{}
	}
	return out.Products, nil
}

// Product fetches one product. The backend answers a null product for an
// unknown id, reported here as a NOT_FOUND GraphQL error.
func (s *CatalogService) Product(ctx context.Context, id string) (*models.Product, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var out struct {
		Product *models.Product `json:"product"`
	}
	op := graphql.Operation{Query: productQuery, OperationName: "Product", Variables: map[string]any{"id": id}}
	if err := s.client.Query(ctx, op, &out); err != nil {
		return nil, err
	}
	if out.Product == nil {
		return nil, notFound("Product", "product not found")
	}
	return out.Product, nil
}

// CreateProduct validates p and creates it.
func (s *CatalogService) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	p.ID = ""
	var out struct {
		CreateProduct models.Product `json:"createProduct"`
	}
	op := graphql.Operation{Query: createProductMutation, OperationName: "CreateProduct", Variables: map[string]any{"input": p}}
	if err := s.client.Mutate(ctx, op, &out); err != nil {
		return nil, err
	}
	s.changed("products", out.CreateProduct.ID)
	return &out.CreateProduct, nil
}

// UpdateProduct validates p and replaces the product with id.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, p models.Product) (*models.Product, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	p.ID = ""
	var out struct {
		UpdateProduct models.Product `json:"updateProduct"`
	}
	op := graphql.Operation{Query: updateProductMutation, OperationName: "UpdateProduct", Variables: map[string]any{"id": id, "input": p}}
	if err := s.client.Mutate(ctx, op, &out); err != nil {
		return nil, err
	}
	s.changed("products", id)
	return &out.UpdateProduct, nil
}

// DeleteProduct removes the product with id.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	var out struct {
		DeleteProduct bool `json:"deleteProduct"`
	}
	op := graphql.Operation{Query: deleteProductMutation, OperationName: "DeleteProduct", Variables: map[string]any{"id": id}}
	if err := s.client.Mutate(ctx, op, &out); err != nil {
		return err
	}
	if !out.DeleteProduct {
		return notFound("DeleteProduct", "product not found")
	}
	s.changed("products", id)
	return nil
}

// Categories lists every category.
func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	var out struct {
		Categories []models.Category `json:"categories"`
	}
	if err := s.client.Query(ctx, graphql.Operation{Query: categoriesQuery, OperationName: "Categories"}, &out); err != nil {
		return nil, err
	}
	if out.Categories == nil {
		out.Categories = []models.Category{}
	}
	return out.Categories, nil
}

// CreateCategory validates c and creates it.
func (s *CatalogService) CreateCategory(ctx context.Context, c models.Category) (*models.Category, error) {
	if err := validation.Struct(c); err != nil {
		return nil, err
	}
	c.ID = ""
	var out struct {
		CreateCategory models.Category `json:"createCategory"`
	}
	op := graphql.Operation{Query: createCategoryMutation, OperationName: "CreateCategory", Variables: map[string]any{"input": c}}
	if err := s.client.Mutate(ctx, op, &out); err != nil {
		return nil, err
	}
	s.changed("categories", out.CreateCategory.ID)
	return &out.CreateCategory, nil
}

// UpdateCategory validates c and replaces the category with id.
func (s *CatalogService) UpdateCategory(ctx context.Context, id string, c models.Category) (*models.Category, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := validation.Struct(c); err != nil {
		return nil, err
	}
	c.ID = ""
	var out struct {
		UpdateCategory models.Category `json:"updateCategory"`
	}
	op := graphql.Operation{Query: updateCategoryMutation, OperationName: "UpdateCategory", Variables: map[string]any{"id": id, "input": c}}
	if err := s.client.Mutate(ctx, op, &out); err != nil {
		return nil, err
	}
	s.changed("categories", id)
	return &out.UpdateCategory, nil
}

// DeleteCategory removes the category with id.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	var out struct {
		DeleteCategory bool `json:"deleteCategory"`
	}
	op := graphql.Operation{Query: deleteCategoryMutation, OperationName: "DeleteCategory", Variables: map[string]any{"id": id}}
	if err := s.client.Mutate(ctx, op, &out); err != nil {
		return err
	}
	if !out.DeleteCategory {
		return notFound("DeleteCategory", "category not found")
	}
	s.changed("categories", id)
	return nil
}

// changed evicts the list field so the next query refetches it and tells
// other consoles to do the same.
func (s *CatalogService) changed(field, id string) {
	s.client.Evict(field)
	ev := rabbitmq.ChangeEvent{Kind: rabbitmq.KindCatalogChanged, Entity: field}
	if id != "" {
		ev.IDs = []string{id}
	}
	announce(s.publisher, s.log, ev)
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &validation.ValidationError{Violations: []validation.FieldViolation{
			{Field: "id", Message: "is required"},
		}}
	}
	return nil
}

func notFound(operation, msg string) error {
	return &graphql.Error{Operation: operation, Items: []graphql.ErrorItem{
		{Message: msg, Extensions: map[string]any{"code": "NOT_FOUND"}},
	}}
}
