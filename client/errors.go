package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrNotFound matches every APIError with a 404 status (see APIError.Is).
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx answer from the API. Message holds the server's localized message;
// Fields the per-field messages of a validation failure.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		msgs := make([]string, 0, len(keys))
		for _, k := range keys {
			msgs = append(msgs, fmt.Sprintf("%s: %s", k, e.Fields[k]))
		}
		return strings.Join(msgs, "; ")
	}
	return http.StatusText(e.StatusCode)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// parseAPIError reads `{"error": "..."}` or `{"field": "..."}` bodies.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}
	if msg, ok := raw["error"].(string); ok && len(raw) == 1 {
		apiErr.Message = msg
		return apiErr
	}
	apiErr.Fields = make(map[string]string, len(raw))
	for k, v := range raw {
		apiErr.Fields[k] = fmt.Sprint(v)
	}
	return apiErr
}
