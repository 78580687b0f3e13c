package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for cross-provider and cross-notifier classification.
// Implementations wrap these so callers can branch on error categories
// without knowing which upstream produced them:
//
//	return fmt.Errorf("server %q: %w", id, types.ErrUnknownServer)
var (
	// ErrUnknownServer indicates the requested server identifier is not
	// recognized by the chosen provider.
	ErrUnknownServer = errors.New("unknown server reference")

	// ErrUnknownProvider indicates a registry lookup for a provider
	// name that is not compiled in.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrUnknownNotifier indicates a registry lookup for a notifier
	// name that is not compiled in.
	ErrUnknownNotifier = errors.New("unknown notifier")
)

// ConfigError reports a missing or invalid configuration value. It is
// always fatal and never retried; Name carries the originating
// environment variable or field so the user can fix it.
type ConfigError struct {
	Name  string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("invalid configuration %q", e.Name)
	if e.Value != "" {
		msg += fmt.Sprintf(" (value %q)", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// APIError reports that an upstream responded but signaled a logical
// failure, including ambiguous multiple matches and structured error
// bodies. Transport-level failures are not APIErrors; those surface as
// wrapped http client errors.
type APIError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Endpoint, e.Message)
}
