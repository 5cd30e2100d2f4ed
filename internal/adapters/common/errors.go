package common

import (
	"errors"
	"fmt"

	"github.com/example/whatsapp-api-go/internal/whatsapp"
)

// ErrTransient and ErrPermanent are sentinel errors adapters use when
// classifying provider failures.
var (
	ErrTransient = errors.New("transient error")
	ErrPermanent = errors.New("permanent error")
)

// WrapTransient annotates an error so callers can detect transient failures.
// The original error stays reachable through errors.As.
func WrapTransient(err error) error {
	if err == nil {
		return ErrTransient
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// WrapPermanent annotates an error as permanent.
func WrapPermanent(err error) error {
	if err == nil {
		return ErrPermanent
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// RetryInputs extracts the HTTP status and provider error code from a
// classified adapter error. The sentinel wrapping keeps the cause reachable.
func RetryInputs(err error) (status, code int) {
	return whatsapp.RetryInputs(err)
}
