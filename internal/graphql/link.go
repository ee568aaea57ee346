// Package graphql is the GraphQL transport of the console. Requests pass
// through a chain of links (auth injection, then HTTP) and query results are
// written into a root-field cache governed by per-field merge policies.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"foozadmin/internal/api"
)

const maxResponseBytes = 8 << 20

// Operation is one GraphQL request.
type Operation struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`

	// Header carries per-request headers set by links.
	Header http.Header `json:"-"`
}

// Response is the decoded GraphQL envelope.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []ErrorItem     `json:"errors,omitempty"`
}

// ErrorItem is one entry of the "errors" array.
type ErrorItem struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Error is returned when the server answers with GraphQL errors.
type Error struct {
	Operation string
	Items     []ErrorItem
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		msgs = append(msgs, it.Message)
	}
	name := e.Operation
	if name == "" {
		name = "operation"
	}
	return fmt.Sprintf("graphql %s: %s", name, strings.Join(msgs, "; "))
}

// Code returns extensions.code of the first error, if any.
func (e *Error) Code() string {
	for _, it := range e.Items {
		if code, ok := it.Extensions["code"].(string); ok {
			return code
		}
	}
	return ""
}

// Handler executes an operation.
type Handler func(ctx context.Context, op *Operation) (*Response, error)

// Link is a middleware around a Handler.
type Link func(ctx context.Context, op *Operation, next Handler) (*Response, error)

// Chain builds a Handler that runs links in order and ends at terminal.
func Chain(terminal Handler, links ...Link) Handler {
	h := terminal
	for i := len(links) - 1; i >= 0; i-- {
		link, next := links[i], h
		h = func(ctx context.Context, op *Operation) (*Response, error) {
			return link(ctx, op, next)
		}
	}
	return h
}

// TokenSource supplies the current access token.
type TokenSource interface {
	Token(ctx context.Context) string
}

// AuthLink reads the session token for every request and sets the bearer
// header on the operation.
func AuthLink(tokens TokenSource, mode api.AnonymousAuth) Link {
	return func(ctx context.Context, op *Operation, next Handler) (*Response, error) {
		if op.Header == nil {
			op.Header = make(http.Header)
		}
		token := ""
		if tokens != nil {
			token = tokens.Token(ctx)
		}
		api.SetBearer(op.Header, token, mode)
		return next(ctx, op)
	}
}

// HTTPTransport posts operations to endpoint. It is the terminating handler
// of a chain.
func HTTPTransport(endpoint string, httpClient *http.Client) Handler {
	return func(ctx context.Context, op *Operation) (*Response, error) {
		payload, err := json.Marshal(op)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal operation: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		for k, vs := range op.Header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, &api.TransportError{Method: req.Method, URL: req.URL.Redacted(), Err: err}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, &api.TransportError{Method: req.Method, URL: req.URL.Redacted(), Err: fmt.Errorf("read response body: %w", err)}
		}

		var out Response
		decodeErr := json.Unmarshal(body, &out)
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			// GraphQL servers may answer 4xx with a regular errors envelope.
			if decodeErr == nil && len(out.Errors) > 0 {
				return &out, nil
			}
			return nil, api.NewBackendError(resp.StatusCode, body)
		}
		if decodeErr != nil {
			return nil, &api.TransportError{Method: req.Method, URL: req.URL.Redacted(), Err: fmt.Errorf("decode response: %w", decodeErr)}
		}
		return &out, nil
	}
}
