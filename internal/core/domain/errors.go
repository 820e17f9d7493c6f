package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrGeometryDecode marks a geometry cell that is not a decodable WKB point.
	ErrGeometryDecode = errors.New("geometry decode")
	// ErrNotFound is returned when a provider has no result for a query.
	ErrNotFound = errors.New("not found")
	// ErrMissingAPIKey is wrapped by provider adapters started without credentials.
	ErrMissingAPIKey = errors.New("api key is not configured")
)

// FileAccessError reports a dataset file that is missing or unreadable.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("dataset file %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// ValidationError reports invalid caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ProviderError reports a failed call to an external API.
type ProviderError struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
