package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// TransportError means the request never produced a usable response: the
// backend was unreachable, the call timed out or the body could not be read
// or decoded.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BackendError is a non-2xx response.
type BackendError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend responded %d: %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not a
// BackendError.
func StatusCode(err error) int {
	var be *BackendError
	if errors.As(err, &be) {
		return be.StatusCode
	}
	return 0
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// NewBackendError builds the error for a non-2xx response, taking the
// message from the body when it carries one.
func NewBackendError(status int, body []byte) *BackendError {
	return &BackendError{StatusCode: status, Message: backendMessage(status, body), Body: body}
}

// backendMessage pulls the human readable message out of an error body.
// Backends answer with {"message": "..."} or, for validation failures,
// {"message": ["...", "..."]}; some use "error" instead.
func backendMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		for _, key := range []string{"message", "error"} {
			res := gjson.GetBytes(body, key)
			switch {
			case res.IsArray():
				var parts []string
				for _, item := range res.Array() {
					parts = append(parts, item.String())
				}
				if len(parts) > 0 {
					return strings.Join(parts, "; ")
				}
			case res.Type == gjson.String && res.String() != "":
				return res.String()
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 512 && !gjson.ValidBytes(body) {
		return text
	}
	return http.StatusText(status)
}
