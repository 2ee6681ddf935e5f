package otpsdk

import "fmt"

// APIError is returned by the SDK client when the service answers with a
// non-success status and a decodable error payload.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("otp service: %s (%d): %s", e.Code, e.StatusCode, e.Description)
	}
	return fmt.Sprintf("otp service: %s (%d)", e.Code, e.StatusCode)
}
