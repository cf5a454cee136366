package uwb

import "errors"

// Sentinel errors for the precondition-violation and validation taxonomy
// (spec §7). Callers use errors.Is against these; the manager never panics
// on a caller-reachable path.
var (
	// ErrSessionExists indicates initSession was called with an id already
	// present in the table.
	ErrSessionExists = errors.New("uwb: session already exists")

	// ErrSessionNotFound indicates an operation referenced an unknown
	// session handle or id.
	ErrSessionNotFound = errors.New("uwb: session not found")

	// ErrWrongState indicates an operation was attempted while the session
	// was not in one of its allowed states.
	ErrWrongState = errors.New("uwb: session in wrong state for operation")

	// ErrInvalidParam indicates a caller-supplied parameter was missing or
	// malformed (e.g. nil payload, nil remote address).
	ErrInvalidParam = errors.New("uwb: invalid parameter")

	// ErrRejected indicates a synchronous driver or validation rejection
	// that does not cleanly map to a more specific sentinel.
	ErrRejected = errors.New("uwb: rejected")

	// ErrMaxSessionsReached indicates admission failed because no
	// strictly-lower-priority session could be evicted.
	ErrMaxSessionsReached = errors.New("uwb: max sessions reached")

	// ErrSystemPolicy indicates admission or an in-flight operation was
	// denied by device policy (e.g. background ranging disabled).
	ErrSystemPolicy = errors.New("uwb: denied by system policy")

	// ErrDriverFailed indicates a synchronous driver call returned a
	// non-OK status.
	ErrDriverFailed = errors.New("uwb: driver call failed")

	// ErrTimeout indicates a dispatcher wait for an expected notification
	// exceeded its bound.
	ErrTimeout = errors.New("uwb: operation timed out")

	// ErrPartialMulticastKeys indicates a v2 multicast update supplied
	// only one of session-key / sub-session-key-list.
	ErrPartialMulticastKeys = errors.New("uwb: session-key and sub-session-key-list must be jointly present or absent")

	// ErrDispatcherClosed indicates a command was posted after the
	// dispatcher had already been shut down.
	ErrDispatcherClosed = errors.New("uwb: dispatcher closed")
)
