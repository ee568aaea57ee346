package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"foozadmin/internal/api"
	"foozadmin/internal/logging"

	"github.com/sirupsen/logrus"
)

// Config configures the client.
type Config struct {
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Anonymous  api.AnonymousAuth
	// Policies overrides DefaultPolicies when non-nil.
	Policies MergePolicies
	// Links run after the auth link and before the HTTP transport.
	Links  []Link
	Logger *logrus.Entry
}

// Client is the configured GraphQL transport.
type Client struct {
	handler Handler
	cache   *Cache
	log     *logrus.Entry
}

// New builds the link chain auth -> extra links -> HTTP.
func New(cfg Config, tokens TokenSource) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("graphql endpoint is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}

	links := append([]Link{AuthLink(tokens, cfg.Anonymous)}, cfg.Links...)
	return &Client{
		handler: Chain(HTTPTransport(cfg.Endpoint, httpClient), links...),
		cache:   NewCache(cfg.Policies),
		log:     log,
	}, nil
}

// Cache exposes the root-field cache.
func (c *Client) Cache() *Cache { return c.cache }

// Evict drops a cached root field.
func (c *Client) Evict(field string) { c.cache.Evict(field) }

// Query executes op, merges every root field into the cache and decodes the
// merged data into out.
func (c *Client) Query(ctx context.Context, op Operation, out any) error {
	data, err := c.execute(ctx, &op)
	if err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("graphql %s: decode data: %w", op.OperationName, err)
		}
	}

	merged := make(map[string]any, len(fields))
	for name, raw := range fields {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("graphql %s: decode field %s: %w", op.OperationName, name, err)
		}
		merged[name] = c.cache.Write(name, v)
	}
	return remarshal(merged, out)
}

// Mutate executes op without touching the cache.
func (c *Client) Mutate(ctx context.Context, op Operation, out any) error {
	data, err := c.execute(ctx, &op)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("graphql %s: decode data: %w", op.OperationName, err)
	}
	return nil
}

// Read decodes the cached value of field into out.
func (c *Client) Read(field string, out any) (bool, error) {
	v, ok := c.cache.Read(field)
	if !ok {
		return false, nil
	}
	return true, remarshal(v, out)
}

func (c *Client) execute(ctx context.Context, op *Operation) (json.RawMessage, error) {
	start := time.Now()
	resp, err := c.handler(ctx, op)
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"operation": op.OperationName,
		"errors":    len(resp.Errors),
		"duration":  time.Since(start).String(),
	}).Debug("graphql request")

	if len(resp.Errors) > 0 {
		return nil, &Error{Operation: op.OperationName, Items: resp.Errors}
	}
	return resp.Data, nil
}

func remarshal(v, out any) error {
	if out == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
