package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Response is a successful API response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// NoContent is set for a 204 without a JSON content type. It is the
	// explicit "nothing returned" marker, distinct from an empty text body.
	NoContent bool
}

func newResponse(resp *http.Response, body []byte) *Response {
	r := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}
	r.NoContent = resp.StatusCode == http.StatusNoContent && !r.IsJSON()
	return r
}

// IsJSON reports whether the response declares a JSON content type.
func (r *Response) IsJSON() bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Decode parses the JSON body into v without unwrapping envelopes. An empty
// body leaves v untouched.
func (r *Response) Decode(v any) error {
	if r.NoContent || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// envelopeKeys are the only keys an envelope object may carry besides
// "data". An object with any other key is the resource itself.
var envelopeKeys = map[string]bool{
	"data":       true,
	"success":    true,
	"message":    true,
	"status":     true,
	"meta":       true,
	"pagination": true,
	"page":       true,
	"limit":      true,
	"total":      true,
	"totalPages": true,
	"count":      true,
}

// unwrap strips the {data: X} and {success, data: X} envelopes some
// endpoints use, returning X and true. Bodies that are not envelopes are
// returned unchanged with false.
func unwrap(body []byte) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, false
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return trimmed, false
	}

	data, ok := envelope["data"]
	if !ok {
		return trimmed, false
	}
	for key := range envelope {
		if !envelopeKeys[key] {
			return trimmed, false
		}
	}
	return bytes.TrimSpace(data), true
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// decodeOne decodes a single resource, accepting both the bare and the
// enveloped shape.
func decodeOne[T any](r *Response) (T, error) {
	var v T
	raw, _ := unwrap(r.Body)
	if isNull(raw) {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, &DecodeError{Err: err}
	}
	return v, nil
}

// decodeList decodes a collection, accepting a bare array, an enveloped
// array, or an enveloped single object (returned as one element). Any other
// object is a *DecodeError.
func decodeList[T any](r *Response) ([]T, error) {
	raw, enveloped := unwrap(r.Body)
	if isNull(raw) {
		return []T{}, nil
	}

	if raw[0] == '{' {
		if !enveloped {
			return nil, &DecodeError{Err: errors.New("expected a list, got an object")}
		}
		var one T
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, &DecodeError{Err: err}
		}
		return []T{one}, nil
	}

	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}
