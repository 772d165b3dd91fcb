package hue

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a failure reported by the bridge, either as a non-2xx status or
// as an error object inside a 200 response.
type APIError struct {
	StatusCode  int
	Type        int
	Address     string
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("hue bridge: unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("hue bridge: %s (type %d, address %s)", e.Description, e.Type, e.Address)
}

// bridgeError is the v1 error envelope: [{"error": {...}}].
type bridgeError struct {
	Error *struct {
		Type        int    `json:"type"`
		Address     string `json:"address"`
		Description string `json:"description"`
	} `json:"error"`
}

// parseAPIError returns the first error object in a bridge response body, or
// nil when the body carries none.
func parseAPIError(status int, body []byte) *APIError {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "[") {
		return nil
	}
	var items []bridgeError
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil
	}
	for _, item := range items {
		if item.Error != nil {
			return &APIError{
				StatusCode:  status,
				Type:        item.Error.Type,
				Address:     item.Error.Address,
				Description: item.Error.Description,
			}
		}
	}
	return nil
}
