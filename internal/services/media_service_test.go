package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"foozadmin/internal/api"
	"foozadmin/internal/models"
	"foozadmin/internal/services"
	"foozadmin/internal/session"
	"foozadmin/internal/validation"
	"foozadmin/pkg/rabbitmq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMediaService_GetAllAppliesDefaults(t *testing.T) {
	mockClient := new(MockRESTClient)
	service := services.NewMediaService(mockClient, nil, nil)

	want := url.Values{"page": {"1"}, "limit": {"20"}}
	mockClient.On("Get", "/media", want, mock.AnythingOfType("*models.PaginatedMedia")).
		Run(func(args mock.Arguments) {
			page := args.Get(2).(*models.PaginatedMedia)
			page.Meta = models.PageMeta{Total: 0, Page: 1, Limit: 20}
		}).
		Return(nil).Once()

	page, err := service.GetAll(context.Background(), services.MediaQuery{})

	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	mockClient.AssertExpectations(t)
}

func TestMediaService_GetAllPassesTypeFilter(t *testing.T) {
	mockClient := new(MockRESTClient)
	service := services.NewMediaService(mockClient, nil, nil)

	want := url.Values{"type": {"GLB"}, "page": {"3"}, "limit": {"5"}}
	mockClient.On("Get", "/media", want, mock.Anything).Return(nil).Once()

	_, err := service.GetAll(context.Background(), services.MediaQuery{Type: models.MediaGLB, Page: 3, Limit: 5})

	require.NoError(t, err)
	mockClient.AssertExpectations(t)
}

func TestMediaService_GetAllRejectsUnknownType(t *testing.T) {
	mockClient := new(MockRESTClient)
	service := services.NewMediaService(mockClient, nil, nil)

	_, err := service.GetAll(context.Background(), services.MediaQuery{Type: "VIDEO"})

	ve, ok := validation.AsValidationError(err)
	require.True(t, ok)
	assert.True(t, ve.Has("type"))
	mockClient.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestMediaService_UploadPublishesEvent(t *testing.T) {
	mockClient := new(MockRESTClient)
	pub := new(MockPublisher)
	service := services.NewMediaService(mockClient, pub, nil)

	fileMatch := mock.MatchedBy(func(f api.FilePart) bool { return f.FieldName == "file" && f.FileName == "chair.png" })
	mockClient.On("Upload", "/media/upload", fileMatch, mock.Anything, mock.AnythingOfType("*models.MediaFile")).
		Run(func(args mock.Arguments) {
			*args.Get(3).(*models.MediaFile) = models.MediaFile{ID: "m9", Name: "chair.png", Type: models.MediaImage}
		}).
		Return(nil).Once()
	pub.On("PublishChange", mock.MatchedBy(func(ev rabbitmq.ChangeEvent) bool {
		return ev.Kind == rabbitmq.KindMediaUploaded && len(ev.IDs) == 1 && ev.IDs[0] == "m9"
	})).Return(nil).Once()

	file, err := service.Upload(context.Background(), "chair.png", strings.NewReader("png bytes"))

	require.NoError(t, err)
	assert.Equal(t, "m9", file.ID)
	mockClient.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestMediaService_DeleteEscapesID(t *testing.T) {
	mockClient := new(MockRESTClient)
	service := services.NewMediaService(mockClient, nil, nil)

	mockClient.On("Delete", "/media/a%2Fb", nil).Return(nil).Once()

	require.NoError(t, service.Delete(context.Background(), "a/b"))
	mockClient.AssertExpectations(t)

	err := service.Delete(context.Background(), " ")
	_, ok := validation.AsValidationError(err)
	assert.True(t, ok)
}

func TestMediaService_DeleteMultipleRequiresIDs(t *testing.T) {
	mockClient := new(MockRESTClient)
	service := services.NewMediaService(mockClient, nil, nil)

	err := service.DeleteMultiple(context.Background(), nil)

	_, ok := validation.AsValidationError(err)
	assert.True(t, ok)
	mockClient.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything)
}

func TestMediaService_PublishFailureDoesNotFailDelete(t *testing.T) {
	mockClient := new(MockRESTClient)
	pub := new(MockPublisher)
	service := services.NewMediaService(mockClient, pub, nil)

	mockClient.On("Delete", "/media/m1", nil).Return(nil).Once()
	pub.On("PublishChange", mock.Anything).Return(assert.AnError).Once()

	assert.NoError(t, service.Delete(context.Background(), "m1"))
}

// backendStub is a minimal REST backend recording every request it serves.
type backendStub struct {
	mu       sync.Mutex
	requests []recordedRequest
	reject   bool
}

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

func (b *backendStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
	_ = json.NewDecoder(r.Body).Decode(&rec.Body)
	b.requests = append(b.requests, rec)

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/auth/login":
		_ = json.NewEncoder(w).Encode(models.LoginResponse{AccessToken: "abc123", User: admin})
	case r.URL.Path == "/media" && r.Method == http.MethodGet:
		_, _ = w.Write([]byte(`{"items":[],"meta":{"total":0,"page":1,"limit":20,"totalPages":0}}`))
	case r.URL.Path == "/media/delete-multiple" && b.reject:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Media m2 not found"}`))
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func newStubbedServices(t *testing.T, stub *backendStub) (*services.AuthService, *services.MediaService) {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore()
	client, err := api.New(api.Config{BaseURL: srv.URL}, store)
	require.NoError(t, err)
	return services.NewAuthService(client, store), services.NewMediaService(client, nil, nil)
}

func TestLoginThenMediaRequestCarriesToken(t *testing.T) {
	stub := &backendStub{}
	auth, media := newStubbedServices(t, stub)

	_, err := media.GetAll(context.Background(), services.MediaQuery{})
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), models.Credentials{Email: "admin@fooz.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = media.GetAll(context.Background(), services.MediaQuery{})
	require.NoError(t, err)

	require.Len(t, stub.requests, 3)
	assert.Empty(t, stub.requests[0].Auth, "no header before login")
	assert.Equal(t, "Bearer abc123", stub.requests[2].Auth)
}

func TestDeleteMultipleIsOneRequest(t *testing.T) {
	stub := &backendStub{}
	_, media := newStubbedServices(t, stub)

	require.NoError(t, media.DeleteMultiple(context.Background(), []string{"m1", "m2"}))

	require.Len(t, stub.requests, 1)
	assert.Equal(t, http.MethodPost, stub.requests[0].Method)
	assert.Equal(t, "/media/delete-multiple", stub.requests[0].Path)
	assert.Equal(t, []any{"m1", "m2"}, stub.requests[0].Body["ids"])
}

func TestDeleteMultipleRejectionFailsWholeBatch(t *testing.T) {
	stub := &backendStub{reject: true}
	_, media := newStubbedServices(t, stub)

	err := media.DeleteMultiple(context.Background(), []string{"m1", "m2"})

	var be *api.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusNotFound, be.StatusCode)
	assert.Equal(t, "Media m2 not found", be.Message)
	assert.Len(t, stub.requests, 1)
}
