package roomrank

import "fmt"

// Error codes returned by the API.
const (
	CodeBadRequest    = "bad_request"
	CodeUnauthorized  = "unauthorized"
	CodeProviderError = "provider_error"
	CodeStoreError    = "store_unavailable"
	CodeInternalError = "internal_error"
)

// APIError is a non-200 response from the server. Check with errors.As.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("roomrank: %s (%s, HTTP %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("roomrank: %s (HTTP %d)", e.Message, e.StatusCode)
}
