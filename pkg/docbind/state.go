package docbind

import "fmt"

// State is the lifecycle state of an [Entity].
type State uint8

// Lifecycle states.
const (
	// StateUninitialized is the state before Initialize*.
	StateUninitialized State = iota
	// StateCreated is a new entity with no backing record yet.
	StateCreated
	// StateUnchanged matches the backing record.
	StateUnchanged
	// StateChanged has edits not yet committed.
	StateChanged
	// StateRemoved is marked for deletion. It is terminal.
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCreated:
		return "created"
	case StateUnchanged:
		return "unchanged"
	case StateChanged:
		return "changed"
	case StateRemoved:
		return "removed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// RequiresCommit reports whether the state has work pending for storage.
func (s State) RequiresCommit() bool {
	return s == StateCreated || s == StateChanged || s == StateRemoved
}

// CanReload reports whether the entity can be refreshed from storage.
func (s State) CanReload() bool {
	return s == StateUnchanged || s == StateChanged
}
