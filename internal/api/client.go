// Package api is the REST transport shared by every REST based service. It
// attaches the session token to each request and turns failures into
// TransportError or BackendError values. It never retries.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"foozadmin/internal/logging"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

const (
	maxResponseBytes = 8 << 20
	sniffBytes       = 3072
)

// TokenSource supplies the current access token. session.Store satisfies it.
type TokenSource interface {
	Token(ctx context.Context) string
}

// AnonymousAuth selects what is sent when there is no session token.
type AnonymousAuth int

const (
	// OmitHeader sends no Authorization header at all.
	OmitHeader AnonymousAuth = iota
	// EmptyBearer sends "Authorization: Bearer " with an empty credential.
	EmptyBearer
)

// ParseAnonymousAuth maps the configuration values "omit" and "empty".
func ParseAnonymousAuth(s string) (AnonymousAuth, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "omit":
		return OmitHeader, nil
	case "empty":
		return EmptyBearer, nil
	default:
		return OmitHeader, fmt.Errorf("unknown anonymous auth mode %q", s)
	}
}

// SetBearer applies the bearer header for token to h according to mode.
func SetBearer(h http.Header, token string, mode AnonymousAuth) {
	if token == "" && mode == OmitHeader {
		h.Del("Authorization")
		return
	}
	h.Set("Authorization", "Bearer "+token)
}

// Config configures the client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Anonymous  AnonymousAuth
	Logger     *logrus.Entry
}

// Client is the configured REST transport.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	anonymous  AnonymousAuth
	log        *logrus.Entry
}

// New creates a client. tokens may be nil for a client that never
// authenticates.
func New(cfg Config, tokens TokenSource) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
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

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		anonymous:  cfg.Anonymous,
		log:        log,
	}, nil
}

// Get performs a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do sends a JSON request. A nil out discards the response body.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, path, query, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// FilePart is the binary part of a multipart upload.
type FilePart struct {
	FieldName   string
	FileName    string
	ContentType string
	Content     io.Reader
}

// Upload sends a multipart/form-data request holding one file and optional
// text fields. When ContentType is empty it is sniffed from the content.
func (c *Client) Upload(ctx context.Context, path string, file FilePart, fields map[string]string, out any) error {
	if file.Content == nil {
		return errors.New("upload content is required")
	}
	field := file.FieldName
	if field == "" {
		field = "file"
	}

	content := file.Content
	contentType := file.ContentType
	if contentType == "" {
		head := make([]byte, sniffBytes)
		n, err := io.ReadFull(content, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read upload content: %w", err)
		}
		head = head[:n]
		contentType = mimetype.Detect(head).String()
		content = io.MultiReader(bytes.NewReader(head), content)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(field), escapeQuotes(file.FileName)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to copy upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	token := ""
	if c.tokens != nil {
		token = c.tokens.Token(ctx)
	}
	SetBearer(req.Header, token, c.anonymous)
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: req.Method, URL: req.URL.Redacted(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Method: req.Method, URL: req.URL.Redacted(), Err: fmt.Errorf("read response body: %w", err)}
	}

	c.log.WithFields(logrus.Fields{
		"method":   req.Method,
		"path":     req.URL.Path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("rest request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return NewBackendError(resp.StatusCode, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Method: req.Method, URL: req.URL.Redacted(), Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
