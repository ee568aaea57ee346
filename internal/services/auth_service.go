package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foozadmin/internal/logging"
	"foozadmin/internal/models"
	"foozadmin/internal/session"
	"foozadmin/internal/validation"

	"github.com/sirupsen/logrus"
)

// LoginPath is the entry point the operator is sent to after logout.
const LoginPath = "/login"

// Navigator performs a full navigation to path.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// AuthService signs the operator in and out.
type AuthService struct {
	client    RESTClient
	store     session.Store
	navigator Navigator
	ttl       time.Duration
	log       *logrus.Entry
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithNavigator sets where Logout sends the operator.
func WithNavigator(n Navigator) AuthOption {
	return func(s *AuthService) { s.navigator = n }
}

// WithSessionTTL overrides session.DefaultTTL.
func WithSessionTTL(ttl time.Duration) AuthOption {
	return func(s *AuthService) { s.ttl = ttl }
}

// WithAuthLogger sets the logger.
func WithAuthLogger(log *logrus.Entry) AuthOption {
	return func(s *AuthService) { s.log = log }
}

// NewAuthService creates a new AuthService.
func NewAuthService(client RESTClient, store session.Store, opts ...AuthOption) *AuthService {
	s := &AuthService{
		client: client,
		store:  store,
		ttl:    session.DefaultTTL,
		log:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login submits creds and, on success, stores the returned token and user
// for the session TTL. The full response is returned for UI feedback.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error) {
	if err := validation.Struct(creds); err != nil {
		return nil, err
	}

	var resp models.LoginResponse
	if err := s.client.Post(ctx, "/auth/login", creds, &resp); err != nil {
		s.log.WithError(err).WithField("email", creds.Email).Info("login failed")
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, errors.New("login response carries no access token")
	}

	if err := s.store.Set(ctx, resp.AccessToken, resp.User, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	s.log.WithField("user_id", resp.User.ID).Info("operator signed in")
	return &resp, nil
}

// Logout clears the session and navigates to LoginPath. It never touches
// the network; navigation happens even if clearing fails.
func (s *AuthService) Logout(ctx context.Context) error {
	err := s.store.Clear(ctx)
	if err != nil {
		s.log.WithError(err).Warn("failed to clear session")
	}
	if s.navigator != nil {
		s.navigator.Navigate(LoginPath)
	}
	return err
}

// CurrentUser returns the signed-in operator.
func (s *AuthService) CurrentUser(ctx context.Context) (*models.User, bool) {
	return s.store.CurrentUser(ctx)
}
