package devbackend_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"foozadmin/internal/devbackend"
	"foozadmin/internal/models"
	"foozadmin/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// setupApp sets up the backend on a throwaway sqlite database with the
// admin account seeded.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := session.OpenDB(filepath.Join(t.TempDir(), "dev.db"))
	require.NoError(t, err)

	srv, err := devbackend.New(db, devbackend.Options{JWTSecret: "test_jwt_secret", TokenTTL: time.Hour})
	require.NoError(t, err)
	require.NoError(t, srv.Auth().SeedAdmin("admin@fooz.com", "secret1"))
	require.NoError(t, srv.Auth().SeedAdmin("admin@fooz.com", "other-pass"), "seeding twice is a no-op")
	return srv.App()
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/auth/login", "", models.Credentials{Email: "admin@fooz.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var lr models.LoginResponse
	require.NoError(t, json.Unmarshal(body, &lr))
	require.NotEmpty(t, lr.AccessToken)
	assert.Equal(t, "admin@fooz.com", lr.User.Email)
	assert.Equal(t, "ADMIN", lr.User.Role)
	return lr.AccessToken
}

func upload(t *testing.T, app *fiber.App, token, name string, content []byte) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/media/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func TestLogin(t *testing.T) {
	app := setupApp(t)
	login(t, app)

	resp, body := doJSON(t, app, http.MethodPost, "/auth/login", "", models.Credentials{Email: "admin@fooz.com", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "Invalid credentials")

	resp, body = doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "email")
}

func TestMediaRequiresBearer(t *testing.T) {
	app := setupApp(t)
	resp, _ := doJSON(t, app, http.MethodGet, "/media", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/media", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMediaLifecycle(t *testing.T) {
	app := setupApp(t)
	token := login(t, app)

	resp, body := upload(t, app, token, "chair.png", pngHeader)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var img models.MediaFile
	require.NoError(t, json.Unmarshal(body, &img))
	assert.Equal(t, models.MediaImage, img.Type)
	assert.Contains(t, img.URL, "/files/"+img.ID)
	require.NotNil(t, img.Size)
	assert.EqualValues(t, len(pngHeader), *img.Size)

	resp, body = upload(t, app, token, "chair.glb", []byte("glTF\x02\x00\x00\x00"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var glb models.MediaFile
	require.NoError(t, json.Unmarshal(body, &glb))
	assert.Equal(t, models.MediaGLB, glb.Type)

	resp, _ = upload(t, app, token, "notes.txt", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/media?type=IMAGE&page=1&limit=20", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page models.PaginatedMedia
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, models.PageMeta{Total: 1, Page: 1, Limit: 20, TotalPages: 1}, page.Meta)

	resp, _ = doJSON(t, app, http.MethodPost, "/media/delete-multiple", token, map[string][]string{"ids": {img.ID, "missing"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/media", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Equal(t, 2, page.Meta.Total, "a rejected batch deletes nothing")

	resp, _ = doJSON(t, app, http.MethodPost, "/media/delete-multiple", token, map[string][]string{"ids": {img.ID, glb.ID}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/media/"+img.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type gqlResult struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

func gql(t *testing.T, app *fiber.App, token, op string, vars map[string]any) (int, gqlResult) {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/graphql", token, map[string]any{
		"query": "# " + op, "operationName": op, "variables": vars,
	})
	var res gqlResult
	require.NoError(t, json.Unmarshal(body, &res), string(body))
	return resp.StatusCode, res
}

func TestGraphQLCatalog(t *testing.T) {
	app := setupApp(t)
	token := login(t, app)

	_, res := gql(t, app, token, "CreateCategory", map[string]any{"input": models.Category{Name: "Chairs", Slug: "chairs"}})
	require.Empty(t, res.Errors)
	var cat models.Category
	require.NoError(t, json.Unmarshal(res.Data["createCategory"], &cat))
	require.NotEmpty(t, cat.ID)

	_, res = gql(t, app, token, "CreateCategory", map[string]any{"input": models.Category{Name: "Seats", Slug: "chairs"}})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "CONFLICT", res.Errors[0].Extensions["code"])

	product := models.Product{
		Name: "Gaming Chair", Description: "Ergonomic chair for long sessions", Price: 199.99,
		CategoryID: cat.ID, Stock: 4, Images: []string{"https://cdn.fooz.com/chair.png"},
		ColorIDs: []string{"black"}, IsActive: true,
	}
	_, res = gql(t, app, token, "CreateProduct", map[string]any{"input": product})
	require.Empty(t, res.Errors)
	var created models.Product
	require.NoError(t, json.Unmarshal(res.Data["createProduct"], &created))

	bad := product
	bad.CategoryID = "missing"
	_, res = gql(t, app, token, "CreateProduct", map[string]any{"input": bad})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "BAD_USER_INPUT", res.Errors[0].Extensions["code"])

	_, res = gql(t, app, token, "Products", nil)
	var products []models.Product
	require.NoError(t, json.Unmarshal(res.Data["products"], &products))
	require.Len(t, products, 1)
	assert.Equal(t, created.ID, products[0].ID)

	_, res = gql(t, app, token, "DeleteCategory", map[string]any{"id": cat.ID})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "CONFLICT", res.Errors[0].Extensions["code"])

	_, res = gql(t, app, token, "DeleteProduct", map[string]any{"id": created.ID})
	assert.JSONEq(t, `true`, string(res.Data["deleteProduct"]))
	_, res = gql(t, app, token, "DeleteProduct", map[string]any{"id": created.ID})
	assert.JSONEq(t, `false`, string(res.Data["deleteProduct"]))

	_, res = gql(t, app, token, "Product", map[string]any{"id": created.ID})
	assert.JSONEq(t, `null`, string(res.Data["product"]))
}

func TestGraphQLUnknownOperation(t *testing.T) {
	app := setupApp(t)
	token := login(t, app)

	status, res := gql(t, app, token, "DropEverything", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "GRAPHQL_VALIDATION_FAILED", res.Errors[0].Extensions["code"])
}
