package mutation

import (
	"errors"
	"fmt"
)

// ErrConcurrentMutation is returned when a mutation of the same kind is already in
// flight for the entity. The request never reaches the network; callers treat the
// control as disabled and ignore it.
var ErrConcurrentMutation = errors.New("mutation already in flight")

// ErrNoReplyCache is returned by reply operations on an executor built without one.
var ErrNoReplyCache = errors.New("executor has no reply cache")

// MutationError reports a failed remote mutation. By the time it is returned any
// optimistic change has been reverted.
type MutationError struct {
	Kind       Kind
	ID         string
	RolledBack bool
	Err        error
}

func (e *MutationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s failed: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Kind, e.ID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }
