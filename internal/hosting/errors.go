package hosting

import "fmt"

// APIError is the single error kind all hosting API failures normalize to.
// It carries the upstream status and body so callers can log them verbatim.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("hosting api: %s %s returned %d: %s",
		e.Method, e.Path, e.StatusCode, e.Body)
}
