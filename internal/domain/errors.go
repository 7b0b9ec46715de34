package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for provider requests. Every error returned by a
// SearchClient matches exactly one of these via errors.Is.
var (
	// ErrConfiguration indicates the API key or provider settings are missing or invalid
	ErrConfiguration = errors.New("configuration error")

	// ErrMalformedRequest indicates the request URL could not be built
	ErrMalformedRequest = errors.New("invalid URL constructed")

	// ErrTransport indicates the request never produced an HTTP response
	ErrTransport = errors.New("network error")

	// ErrServerRejection indicates a non-2xx HTTP status
	ErrServerRejection = errors.New("invalid response from server")

	// ErrSchemaViolation indicates the response body did not match the expected shape
	ErrSchemaViolation = errors.New("failed to decode response")
)

// Sentinel errors for saving media to the library
var (
	// ErrPermissionRequired indicates the user has not yet answered the save prompt
	ErrPermissionRequired = errors.New("library permission not determined")

	// ErrNoPermission indicates the user denied library access
	ErrNoPermission = errors.New("permission to save to the library was denied")

	// ErrDownloadFailed indicates the media bytes could not be fetched
	ErrDownloadFailed = errors.New("failed to download media")

	// ErrSaveFailed indicates the library rejected the write
	ErrSaveFailed = errors.New("failed to save media")
)

// ProviderError carries the failure kind plus the underlying cause
type ProviderError struct {
	Kind       error // One of the provider sentinels above
	StatusCode int   // HTTP status for ErrServerRejection, otherwise 0
	Err        error // Underlying cause, may be nil
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (Status: %d)", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewProviderError wraps cause with the given kind
func NewProviderError(kind, cause error) *ProviderError {
	return &ProviderError{Kind: kind, Err: cause}
}

// ErrorKind returns a short label for err, used in logs and metrics.
// A nil error is "ok".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrMalformedRequest):
		return "malformed_request"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrServerRejection):
		return "server_rejection"
	case errors.Is(err, ErrSchemaViolation):
		return "schema_violation"
	default:
		return "unknown"
	}
}
