package domain

import (
	"errors"
	"fmt"
)

var (
	ErrExtraction          = errors.New("document extraction failed")
	ErrDegenerateEmbedding = errors.New("degenerate embedding")
	ErrEmptyRetrieval      = errors.New("no relevant context")
	ErrRetrieval           = errors.New("retrieval failed")
	ErrBackendUnreachable  = errors.New("generation backend unreachable")
	ErrBackendTimeout      = errors.New("generation backend timed out")
	ErrBackend             = errors.New("generation backend failed")
	ErrConfiguration       = errors.New("ungültige Konfiguration")
)

// FailureKind classifies a degraded result.
type FailureKind string

const (
	FailureNone               FailureKind = ""
	FailureEmptyRetrieval     FailureKind = "empty_retrieval"
	FailureRetrieval          FailureKind = "retrieval_error"
	FailureBackendUnreachable FailureKind = "backend_unreachable"
	FailureBackendTimeout     FailureKind = "backend_timeout"
	FailureBackendError       FailureKind = "backend_error"
)

// Err maps a failure kind to its sentinel error, or nil for FailureNone.
func (k FailureKind) Err() error {
	switch k {
	case FailureNone:
		return nil
	case FailureEmptyRetrieval:
		return ErrEmptyRetrieval
	case FailureRetrieval:
		return ErrRetrieval
	case FailureBackendUnreachable:
		return ErrBackendUnreachable
	case FailureBackendTimeout:
		return ErrBackendTimeout
	default:
		return ErrBackend
	}
}

// ConfigError reports an invalid setting. It matches ErrConfiguration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ungültige Konfiguration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// NewConfigError builds a ConfigError with a formatted reason.
func NewConfigError(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
