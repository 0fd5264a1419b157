package nocode

import (
	"encoding/json"
	"fmt"
	"strings"
)

// htmlErrorMessage replaces an HTML error page, which usually means a wrong endpoint.
const htmlErrorMessage = "invalid API endpoint or server error"

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// newAPIError extracts the most useful message from an error body.
func newAPIError(status int, body []byte) *APIError {
	fallback := fmt.Sprintf("API error: %d", status)
	text := strings.TrimSpace(string(body))

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		msg := payload.Message
		if msg == "" {
			msg = payload.Error
		}
		if msg == "" {
			msg = fallback
		}
		return &APIError{StatusCode: status, Message: msg}
	}

	switch {
	case strings.Contains(strings.ToLower(text), "<!doctype"):
		return &APIError{StatusCode: status, Message: htmlErrorMessage}
	case text != "":
		return &APIError{StatusCode: status, Message: text}
	default:
		return &APIError{StatusCode: status, Message: fallback}
	}
}
