package siigo

import "fmt"

// AuthenticationError means SIIGO rejected the tenant's credentials.
// It is terminal for the current request; callers decide whether to
// surface it or degrade to empty data.
type AuthenticationError struct {
	StatusCode int
	Body       string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("siigo auth failed: %d %s", e.StatusCode, e.Body)
}

// RateLimitError means SIIGO answered HTTP 429.
type RateLimitError struct {
	Resource string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("siigo rate limit exceeded on %s", e.Resource)
}

// TransportError wraps network and timeout failures reaching SIIGO.
type TransportError struct {
	Resource string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("siigo request failed on %s: %v", e.Resource, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError covers any other non-2xx SIIGO response.
type APIError struct {
	Resource   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("siigo api error on %s: %d %s", e.Resource, e.StatusCode, e.Body)
}
