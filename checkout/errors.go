package checkout

import (
	"errors"
	"fmt"
)

// MsgParamsNotFound is the message of the PaymentAbandonedError raised when
// the confirmation is attempted without both transaction identifiers.
const MsgParamsNotFound = "payment confirmation parameters not found"

var (
	// ErrStaleAttempt is returned to a caller whose attempt was invalidated
	// by Reset while its backend call was in flight. The late response is
	// ignored.
	ErrStaleAttempt = errors.New("checkout attempt is no longer current")

	// ErrInvalidTransition is returned when an operation is not allowed in
	// the current state.
	ErrInvalidTransition = errors.New("invalid checkout transition")
)

// PaymentAbandonedError ends a checkout attempt whose payment was not
// completed: the confirmation parameters never arrived or the backend
// reported the payment as unsuccessful. The cart is left untouched.
type PaymentAbandonedError struct {
	Message string
}

func (e *PaymentAbandonedError) Error() string {
	return e.Message
}

// ConfigError is returned when the backend answered the payment config
// request but refused to issue a configuration.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	if e.Message == "" {
		return "payment configuration was not issued"
	}
	return e.Message
}

func invalidTransition(op string, from State) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, from)
}
