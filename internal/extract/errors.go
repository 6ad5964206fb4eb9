package extract

import "fmt"

// ServiceError reports that the LLM service call itself failed: a transport
// or API fault, or an empty response. It may be transient; retrying is the
// caller's decision, never this package's.
type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("extraction service error (%s): %v", e.Provider, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
