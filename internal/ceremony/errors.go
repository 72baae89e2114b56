package ceremony

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error is the single failure type of the ceremony core. Reason is a short,
// machine-stable string surfaced unchanged to whoever requested the step;
// the caller decides whether a retry makes sense.
type Error struct {
	Reason   string
	Original error
}

func (e *Error) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Original)
	}
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Original
}

// NewError returns a ceremony failure with the given reason.
func NewError(reason string) *Error {
	return &Error{Reason: reason}
}

// Errorf returns a ceremony failure with a formatted reason.
func Errorf(format string, args ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// WrapError attaches a reason to an underlying collaborator error.
func WrapError(err error, reason string) *Error {
	return &Error{Reason: reason, Original: err}
}

// ReasonOf extracts the machine-stable reason from err, or "" if err is not
// a ceremony failure.
func ReasonOf(err error) string {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Reason
	}
	return ""
}
