package store

import "github.com/pkg/errors"

// ErrInvalidTransition is returned when a session status update would move
// backwards or skip a step.
var ErrInvalidTransition = errors.New("invalid session status transition")

// SessionStatus tracks how far a session's ceremony has progressed. The
// chain is strictly forward: default -> descriptor_ready -> key_generated ->
// published. No status is ever re-entered.
type SessionStatus string

const (
	SessionStatusDefault         SessionStatus = "default"
	SessionStatusDescriptorReady SessionStatus = "descriptor_ready"
	SessionStatusKeyGenerated    SessionStatus = "key_generated"
	SessionStatusPublished       SessionStatus = "published"
)

// CanTransition reports whether a session may move from current to next.
func CanTransition(current, next SessionStatus) bool {
	switch current {
	case SessionStatusDefault:
		return next == SessionStatusDescriptorReady
	case SessionStatusDescriptorReady:
		return next == SessionStatusKeyGenerated
	case SessionStatusKeyGenerated:
		return next == SessionStatusPublished
	case SessionStatusPublished:
		return false
	default:
		return false
	}
}
