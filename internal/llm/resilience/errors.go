package resilience

import (
	"errors"
	"fmt"
)

// ErrAllModelsExhausted is returned when no model in the hierarchy produced
// a parsable answer
var ErrAllModelsExhausted = errors.New("all models in the hierarchy are exhausted")

// APIError is the provider-neutral form of an upstream HTTP failure.
// Providers convert their SDK errors into it so classification can look at
// the status code instead of the message text.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }

// QuotaExceededError marks a model call rejected for quota or rate reasons
type QuotaExceededError struct {
	Model string
	Err   error
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("model %s quota exceeded: %v", e.Model, e.Err)
}

func (e *QuotaExceededError) Unwrap() error { return e.Err }

// TransientCallError is any other failed call
type TransientCallError struct {
	Model string
	Err   error
}

func (e *TransientCallError) Error() string {
	return fmt.Sprintf("model %s call failed: %v", e.Model, e.Err)
}

func (e *TransientCallError) Unwrap() error { return e.Err }

// MalformedResponseError is a response that is empty or not a JSON object
type MalformedResponseError struct {
	Model string
	Raw   string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("model %s returned malformed output: %v", e.Model, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
