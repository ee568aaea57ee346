package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"foozadmin/internal/api"
	"foozadmin/internal/devbackend"
	"foozadmin/internal/graphql"
	"foozadmin/internal/handlers"
	"foozadmin/internal/models"
	"foozadmin/internal/services"
	"foozadmin/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startBackend runs the development backend on a loopback port with an
// in-temp-dir sqlite database and returns its base URL.
func startBackend(t *testing.T) string {
	t.Helper()
	db, err := session.OpenDB(filepath.Join(t.TempDir(), "dev.db"))
	require.NoError(t, err)
	srv, err := devbackend.New(db, devbackend.Options{JWTSecret: "test_jwt_secret"})
	require.NoError(t, err)
	require.NoError(t, srv.Auth().SeedAdmin("admin@fooz.com", "secret1"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	app := srv.App()
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "http://" + ln.Addr().String()
}

// setupApp sets up the console against backendURL with an in-memory session.
func setupApp(t *testing.T, backendURL string) (*fiber.App, session.Store) {
	t.Helper()
	store := session.NewMemoryStore()

	rest, err := api.New(api.Config{BaseURL: backendURL}, store)
	require.NoError(t, err)
	gql, err := graphql.New(graphql.Config{Endpoint: backendURL + "/graphql"}, store)
	require.NoError(t, err)

	app := handlers.NewApp(handlers.Deps{
		Auth:    services.NewAuthService(rest, store),
		Media:   services.NewMediaService(rest, nil, nil),
		Catalog: services.NewCatalogService(gql, nil, nil),
		Store:   store,
	})
	return app, store
}

func send(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, out
}

func signIn(t *testing.T, app *fiber.App) {
	t.Helper()
	resp, body := send(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "admin@fooz.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

func TestAuthLoginAndLogout(t *testing.T) {
	app, store := setupApp(t, startBackend(t))

	// Invalid form never reaches the backend
	resp, body := send(t, app, http.MethodPost, "/api/auth/login", map[string]string{"email": "nope", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var formErr struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body, &formErr))
	assert.Contains(t, formErr.Errors, "email")
	assert.Contains(t, formErr.Errors, "password")

	// Wrong password is the backend's 401
	resp, body = send(t, app, http.MethodPost, "/api/auth/login", map[string]string{"email": "admin@fooz.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "Invalid credentials")

	signIn(t, app)
	assert.NotEmpty(t, store.Token(context.Background()))

	resp, body = send(t, app, http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me models.User
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, "admin@fooz.com", me.Email)

	resp, _ = send(t, app, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, services.LoginPath, resp.Header.Get("Location"))

	resp, _ = send(t, app, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedEndpointsWithoutSession(t *testing.T) {
	app, _ := setupApp(t, startBackend(t))

	for _, path := range []string{"/api/products", "/api/categories", "/api/media"} {
		resp, _ := send(t, app, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	resp, _ := send(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCatalogEndpoints(t *testing.T) {
	app, _ := setupApp(t, startBackend(t))
	signIn(t, app)

	resp, body := send(t, app, http.MethodPost, "/api/categories", map[string]any{"name": "Chairs", "slug": "chairs"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var cat models.Category
	require.NoError(t, json.Unmarshal(body, &cat))

	// Numeric fields arrive as strings from the form
	form := map[string]any{
		"name":        "Gaming Chair",
		"description": "Ergonomic chair for long sessions",
		"price":       "199.99",
		"stock":       "4",
		"categoryId":  cat.ID,
		"images":      []string{"https://cdn.fooz.com/chair.png"},
		"colorIds":    []string{"black"},
	}
	resp, body = send(t, app, http.MethodPost, "/api/products", form)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created models.Product
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 199.99, created.Price)
	assert.Equal(t, 4, created.Stock)
	assert.True(t, created.IsActive)

	resp, body = send(t, app, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	require.NoError(t, json.Unmarshal(body, &products))
	require.Len(t, products, 1)

	form["name"] = "Gaming Chair Pro"
	resp, body = send(t, app, http.MethodPut, "/api/products/"+created.ID, form)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = send(t, app, http.MethodGet, "/api/products/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Product
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, "Gaming Chair Pro", fetched.Name)

	// Invalid form
	resp, body = send(t, app, http.MethodPost, "/api/products", map[string]any{"name": "X", "price": "abc"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "price")

	// A category in use cannot go
	resp, _ = send(t, app, http.MethodDelete, "/api/categories/"+cat.ID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = send(t, app, http.MethodDelete, "/api/products/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "deleted successfully")

	resp, _ = send(t, app, http.MethodGet, "/api/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = send(t, app, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &products))
	assert.Empty(t, products, "the refetched list replaces the cached one")
}

func TestMediaEndpoints(t *testing.T) {
	app, _ := setupApp(t, startBackend(t))
	signIn(t, app)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "chair.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/media/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var file models.MediaFile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&file))
	resp.Body.Close()
	assert.Equal(t, models.MediaImage, file.Type)

	resp, body := send(t, app, http.MethodGet, "/api/media?type=image", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page models.PaginatedMedia
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Equal(t, 1, page.Meta.Total)
	assert.Equal(t, 20, page.Meta.Limit)

	resp, _ = send(t, app, http.MethodGet, "/api/media?type=VIDEO", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = send(t, app, http.MethodPost, "/api/media/delete-multiple", map[string][]string{"ids": {file.ID, "missing"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = send(t, app, http.MethodDelete, "/api/media/"+file.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestBackendUnavailable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	app, _ := setupApp(t, "http://"+addr)
	resp, _ := send(t, app, http.MethodPost, "/api/auth/login", map[string]string{"email": "admin@fooz.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestCrossSiteWritesAreRefused(t *testing.T) {
	var hits atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"createCategory":{"id":"c1","name":"Chairs","slug":"chairs"}}}`))
	}))
	t.Cleanup(backend.Close)

	app, store := setupApp(t, backend.URL)
	require.NoError(t, store.Set(context.Background(), "abc123", models.User{ID: "1", Email: "admin@fooz.com"}, session.DefaultTTL))

	post := func(path, contentType, origin, body string) int {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}
	category := `{"name":"Chairs","slug":"chairs"}`

	assert.Equal(t, http.StatusForbidden, post("/api/categories", "text/plain", "https://evil.example", category))
	assert.Equal(t, http.StatusForbidden, post("/api/auth/login", "text/plain", "https://evil.example",
		`{"email":"attacker@evil.example","password":"secret1"}`))
	assert.Equal(t, http.StatusForbidden, post("/api/auth/logout", "application/x-www-form-urlencoded", "https://evil.example", ""))
	assert.Equal(t, http.StatusForbidden, post("/api/media/delete-multiple", "application/x-www-form-urlencoded", "https://evil.example", "ids=m1"))

	// Without an Origin header the body must still be JSON
	assert.Equal(t, http.StatusUnsupportedMediaType, post("/api/categories", "text/plain", "", category))
	assert.Equal(t, http.StatusUnsupportedMediaType, post("/api/media/delete-multiple", "application/x-www-form-urlencoded", "", "ids=m1"))
	assert.Zero(t, hits.Load(), "no refused request reaches the backend")
	assert.Equal(t, "abc123", store.Token(context.Background()), "the session is untouched")

	assert.Equal(t, http.StatusCreated, post("/api/categories", "application/json", "http://example.com", category))
	assert.Equal(t, int32(1), hits.Load())
}
