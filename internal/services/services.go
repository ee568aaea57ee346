// Package services holds the typed domain operations of the console: auth,
// media and catalog. They validate input, call the API clients and keep the
// session store in step with login and logout.
package services

import (
	"context"
	"errors"
	"net/url"

	"foozadmin/internal/api"
	"foozadmin/internal/graphql"
	"foozadmin/pkg/rabbitmq"

	"github.com/sirupsen/logrus"
)

// ErrNoSession is returned when an operation needs a signed-in operator.
var ErrNoSession = errors.New("no active session")

// RESTClient is the subset of api.Client the services use.
type RESTClient interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
	Upload(ctx context.Context, path string, file api.FilePart, fields map[string]string, out any) error
}

// GraphQLClient is the subset of graphql.Client the services use.
type GraphQLClient interface {
	Query(ctx context.Context, op graphql.Operation, out any) error
	Mutate(ctx context.Context, op graphql.Operation, out any) error
	Evict(field string)
}

// ChangePublisher announces successful mutations to other consoles.
// *rabbitmq.Client satisfies it.
type ChangePublisher interface {
	PublishChange(ev rabbitmq.ChangeEvent) error
}

// announce publishes ev when a publisher is configured. Failures are logged
// and never fail the operation that triggered them.
func announce(pub ChangePublisher, log *logrus.Entry, ev rabbitmq.ChangeEvent) {
	if pub == nil {
		return
	}
	if err := pub.PublishChange(ev); err != nil {
		log.WithError(err).WithField("kind", ev.Kind).Warn("failed to publish change event")
	}
}
