package flow

import (
	"errors"
	"fmt"
)

// The machine distinguishes four failure classes. Validation failures
// and vanished catalog entries are recovered in place (re-prompt or
// re-list, no state change). Store failures surface to the caller with
// the session untouched. Invariant violations mean the API was driven in
// a way the machine's own transitions never produce.
var (
	// ErrInvalidInput marks an event that is not applicable to the
	// current state or carries a malformed payload.
	ErrInvalidInput = errors.New("input not applicable to current state")

	// ErrNotFound marks a catalog entry that vanished between listing
	// and selection.
	ErrNotFound = errors.New("catalog entry not found")

	// ErrInvariant marks a checkout or transition precondition that the
	// state machine's own transitions can never violate; hitting it
	// means direct API misuse.
	ErrInvariant = errors.New("conversation invariant violated")
)

// storeFailure wraps a collaborator error so callers can tell transient
// storage trouble apart from the local taxonomy.
type storeFailure struct {
	op  string
	err error
}

func (e *storeFailure) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.op, e.err)
}

func (e *storeFailure) Unwrap() error { return e.err }

func storeErr(op string, err error) error {
	return &storeFailure{op: op, err: err}
}

// IsStoreUnavailable reports whether err originates from a failed
// collaborator call rather than from the machine's own taxonomy.
func IsStoreUnavailable(err error) bool {
	var sf *storeFailure
	return errors.As(err, &sf)
}
