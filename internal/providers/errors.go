package providers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ConfigurationError means required provider credentials or settings were
// absent at construction time. Fatal: the process refuses to serve.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("provider configuration: %s is required", e.Field)
}

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// UpstreamError wraps a failed call to the external model provider:
// unreachable, non-success status, or timeout. Surfaced to callers as a
// server-error status, never retried, never masked.
type UpstreamError struct {
	Provider string
	Model    string
	Status   int // HTTP status when known, 0 otherwise
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: upstream call failed (model=%s status=%d): %v", e.Provider, e.Model, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: upstream call failed (model=%s): %v", e.Provider, e.Model, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsUpstream reports whether err is an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

func newUpstreamError(provider, model string, err error) *UpstreamError {
	return &UpstreamError{
		Provider: provider,
		Model:    model,
		Status:   statusFromError(err),
		Err:      err,
	}
}

// statusFromError extracts an HTTP status hint from a provider SDK error
// message. The genai SDK does not expose a structured status on every error
// path, so this is best-effort string matching.
func statusFromError(err error) int {
	if err == nil {
		return 0
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthenticated"):
		return http.StatusUnauthorized
	case strings.Contains(msg, "403") || strings.Contains(msg, "permission denied"):
		return http.StatusForbidden
	case strings.Contains(msg, "404") || strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "429") || strings.Contains(msg, "resource exhausted") || strings.Contains(msg, "quota"):
		return http.StatusTooManyRequests
	case strings.Contains(msg, "503") || strings.Contains(msg, "service unavailable"):
		return http.StatusServiceUnavailable
	case strings.Contains(msg, "500") || strings.Contains(msg, "internal server error"):
		return http.StatusInternalServerError
	}
	return 0
}
