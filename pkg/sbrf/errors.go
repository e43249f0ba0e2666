package sbrf

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration matches any *ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("sbrf: configuration error")
	// ErrValidation matches any *ValidationError via errors.Is.
	ErrValidation = errors.New("sbrf: validation error")
)

// ConfigurationError reports credentials that were not set when a call was made.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("sbrf: %s cannot be empty", strings.Join(e.Missing, " and "))
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ValidationError lists every required gateway parameter missing from a request.
type ValidationError struct {
	Operation string
	Missing   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sbrf: %s did not get required params: %s", e.Operation, strings.Join(e.Missing, ","))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// HTTPStatusError is returned when the gateway answers with a non-2xx status.
type HTTPStatusError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("sbrf: gateway responded %d: %s", e.StatusCode, string(e.Body))
}
