package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrProviderTimeout indicates a provider call exceeded its timeout
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrEmptyResponse indicates a 2xx answer without any usable choice
	ErrEmptyResponse = errors.New("empty response from provider")

	// ErrMissingAPIKey indicates the provider's key variable is unset
	ErrMissingAPIKey = errors.New("api key not configured")

	// ErrProviderNotFound indicates a name with no registered provider
	ErrProviderNotFound = errors.New("provider not registered")
)

// ProviderError wraps provider-specific errors
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// wrapError normalizes transport failures, folding every flavor of timeout into ErrProviderTimeout.
func wrapError(provider string, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	if isTimeout(err) {
		err = fmt.Errorf("%w: %v", ErrProviderTimeout, err)
	}
	return &ProviderError{Provider: provider, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
