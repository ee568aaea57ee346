// Package session is the single source of truth for who is signed in to the
// console. A session is two storage entries, "token" and "user", scoped to
// path "/" and written and cleared together.
package session

import (
	"context"
	"encoding/json"
	"time"

	"foozadmin/internal/logging"
	"foozadmin/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultTTL is how long a session lives after its last write.
	DefaultTTL = 7 * 24 * time.Hour

	TokenKey = "token"
	UserKey  = "user"
	Path     = "/"
)

// Store persists the access token and user profile of the current operator.
// Implementations are injected into every component that needs the session.
type Store interface {
	// Set writes token and user with the given time to live, replacing any
	// previous session.
	Set(ctx context.Context, token string, user models.User, ttl time.Duration) error
	// CurrentUser returns the stored user, or false when there is no
	// session, it has expired or its data is unreadable.
	CurrentUser(ctx context.Context) (*models.User, bool)
	// Token returns the stored access token or "" when absent.
	Token(ctx context.Context) string
	// Clear removes both entries. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// Option configures a store.
type Option func(*options)

type options struct {
	now func() time.Time
	log *logrus.Entry
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *logrus.Entry) Option {
	return func(o *options) { o.log = log }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, log: logging.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func encodeUser(user models.User) (string, error) {
	b, err := json.Marshal(user)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeUser reads a stored user entry. Unreadable data counts as no session
// rather than an error: a corrupt entry must never lock the operator out of
// the login screen.
func decodeUser(raw string, log *logrus.Entry) (*models.User, bool) {
	var user *models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		log.WithError(err).Debug("discarding malformed user entry")
		return nil, false
	}
	if user == nil {
		return nil, false
	}
	return user, true
}
