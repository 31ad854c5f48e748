package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential means the provider secret for the operation is absent.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidInput means a user-supplied field was empty or malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrGatewayFailure wraps any error returned by the generation gateway.
	ErrGatewayFailure = errors.New("generation failed")
	// ErrTransitionRejected is matched by every *TransitionError.
	ErrTransitionRejected = errors.New("transition rejected")

	ErrBusy      = errors.New("generation already in progress")
	ErrWrongStep = errors.New("operation not available at current step")
	// ErrStale reports a completion discarded because the selected title
	// changed while the call was in flight.
	ErrStale = errors.New("result discarded: selection changed during generation")
)

// MsgSelectTitle is shown when leaving TITLE_SELECT without a selection.
const MsgSelectTitle = "Please select a title before proceeding."

// TransitionError describes a rejected RequestStep. Message is empty for a
// skipped step and carries user-facing text when a precondition is unmet
// and the user needs to be told.
type TransitionError struct {
	From    Step
	To      Step
	Message string
}

func (e *TransitionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("transition %s -> %s rejected: %s", e.From, e.To, e.Message)
	}
	return fmt.Sprintf("transition %s -> %s rejected", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrTransitionRejected
}

// UserMessage returns the text to show the user, or "" when the rejection
// should not be surfaced.
func UserMessage(err error) string {
	var te *TransitionError
	if errors.As(err, &te) {
		return te.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func gatewayError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrGatewayFailure, err)
}
