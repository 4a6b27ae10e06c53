package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
)

// DefaultMessage is used when the backend gives no usable error text.
const DefaultMessage = "request failed"

var ErrNoRefreshToken = errors.New("no refresh token")

// ErrStaleCredentials is returned when a request failed authentication with
// credentials that a newer login has since replaced. The session is kept.
var ErrStaleCredentials = errors.New("request was sent with replaced credentials")

// TimeoutError means the request did not complete within its deadline.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("%s: timeout: %v", e.Op, e.Err) }
func (e *TimeoutError) Unwrap() error { return e.Err }

// NetworkError means no response was received at all.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: network error: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// AuthExpiredError means the session could not be recovered by a refresh.
// The stored tokens have already been cleared when it is returned.
type AuthExpiredError struct {
	Err error
}

func (e *AuthExpiredError) Error() string {
	if e.Err == nil {
		return "session expired"
	}
	return fmt.Sprintf("session expired: %v", e.Err)
}

func (e *AuthExpiredError) Unwrap() error { return e.Err }

// ValidationError carries field-level errors from a rejected request.
type ValidationError struct {
	Status  int
	Fields  map[string][]string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%d): %s", e.Status, e.Message)
}

// APIError is any other non-2xx response.
type APIError struct {
	Status  int
	Payload json.RawMessage
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// IsAuthError reports whether err means the caller is not (or no longer)
// authenticated.
func IsAuthError(err error) bool {
	var ae *AuthExpiredError
	if errors.As(err, &ae) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
	}
	return false
}

// UserMessage returns the backend's own message for err, or fallback when the
// backend said nothing useful.
func UserMessage(err error, fallback string) string {
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Message != "" && ve.Message != DefaultMessage {
		return ve.Message
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Message != DefaultMessage {
		return apiErr.Message
	}
	return fallback
}

var priorityKeys = []string{"detail", "non_field_errors", "error"}

// NewValidationError builds a ValidationError from already collected field
// errors, picking Message the same way as for backend payloads. Status is
// zero for errors detected before any request was made.
func NewValidationError(status int, fields map[string][]string) *ValidationError {
	return &ValidationError{Status: status, Fields: fields, Message: firstMessage(fields)}
}

func newValidationError(status int, payload map[string]any) *ValidationError {
	fields := make(map[string][]string, len(payload))
	flattenFields("", payload, fields)
	return NewValidationError(status, fields)
}

func flattenFields(prefix string, payload map[string]any, out map[string][]string) {
	for k, v := range payload {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flattenFields(key, val, out)
		case []any:
			for _, item := range val {
				out[key] = append(out[key], stringify(item))
			}
		case nil:
		default:
			out[key] = append(out[key], stringify(val))
		}
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// firstMessage picks detail, non_field_errors and error first, then field
// names in alphabetical order.
func firstMessage(fields map[string][]string) string {
	for _, k := range priorityKeys {
		if msgs := fields[k]; len(msgs) > 0 && msgs[0] != "" {
			return msgs[0]
		}
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if msgs := fields[k]; len(msgs) > 0 && msgs[0] != "" {
			return msgs[0]
		}
	}
	return DefaultMessage
}

func apiMessage(payload map[string]any) string {
	for _, k := range []string{"detail", "error"} {
		if s, ok := payload[k].(string); ok && s != "" {
			return s
		}
	}
	return DefaultMessage
}
