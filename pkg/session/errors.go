package session

import "fmt"

// Error is the session-layer error kind, extending the precondition and
// transport vocabulary of pkg/transport with outcomes specific to the
// selection-state machine (spec.md §7).
type Error struct {
	Kind string
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("session: %s: %s", e.Kind, e.Msg) }

// Error kinds.
const (
	ErrNotConnected      = "not_connected"
	ErrAlreadyExists     = "already_exists" // precondition violated: wrong SelectionState for the requested procedure
	ErrTimeout           = "timeout"
	ErrConnectionAborted = "connection_aborted"
	ErrPermissionDenied  = "permission_denied" // peer answered with Reject.req or a failure status
	ErrInvalidData       = "invalid_data"      // peer answered with an unexpected message kind
)

func errOf(kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind string) bool {
	se, ok := err.(*Error)
	return ok && se.Kind == kind
}
