package agent

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Manager and Session methods.
var (
	// ErrSessionExists is returned when creating a session under a used id.
	ErrSessionExists = errors.New("agent: session already exists")

	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("agent: session not found")

	// ErrSessionClosed is returned by a session after Close.
	ErrSessionClosed = errors.New("agent: session closed")

	// ErrApprovalPending is returned when registering an id that is already waiting.
	ErrApprovalPending = errors.New("agent: approval already pending")
)

// Rejection reasons recorded in the approval gate and fed back to the model.
const (
	ReasonRejectedByUser = "Tool call rejected by user"
	ReasonSessionCleared = "session cleared"
	ReasonCancelled      = "generation cancelled"
	ReasonSessionClosed  = "session closed"
)

// ConfigurationError reports that a session cannot generate because it has
// no usable model. GenerateResponse returns it before emitting any event.
type ConfigurationError struct {
	Provider string
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("agent: provider %q is not configured", e.Provider)
	}
	return fmt.Sprintf("agent: provider %q is not configured: %v", e.Provider, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// TurnLimitError is reported on the event stream when the tool loop needs
// more model turns than allowed.
type TurnLimitError struct {
	MaxTurns int
}

func (e *TurnLimitError) Error() string {
	return fmt.Sprintf("agent: turn limit of %d exceeded", e.MaxTurns)
}

// ProviderError wraps a failure from the model call, reported on the event stream.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("agent: %s request failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
