package apiclient

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// APIError is returned when the backend was reachable but answered with a
// non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// NetworkError is returned when the backend could not be reached at all
// (DNS failure, refused connection, reset). It names the base URL so the
// user can tell an unreachable server from one that rejected the call.
type NetworkError struct {
	BaseURL string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("cannot reach the server, check that the backend is running at %s", e.BaseURL)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a successful response body could not be
// parsed into the expected shape.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "failed to decode response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// newAPIError extracts a message from the body's "message" or "error"
// field, falling back to "HTTP <code>: <status text>".
func newAPIError(r *Response, status string) *APIError {
	text := strings.TrimSpace(strings.TrimPrefix(status, strconv.Itoa(r.StatusCode)))
	msg := fmt.Sprintf("HTTP %d: %s", r.StatusCode, text)

	if r.IsJSON() {
		var payload map[string]json.RawMessage
		if err := json.Unmarshal(r.Body, &payload); err == nil {
			if m := stringField(payload, "message"); m != "" {
				msg = m
			} else if m := stringField(payload, "error"); m != "" {
				msg = m
			}
		}
	}

	return &APIError{StatusCode: r.StatusCode, Message: msg}
}

func stringField(payload map[string]json.RawMessage, name string) string {
	raw, ok := payload[name]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
