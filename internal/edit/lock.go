// Package edit coordinates in-place editing: the lock that allows a single
// active editor across grids, the commands an edit produces, and the
// default editors.
package edit

import (
	"errors"
	"sync"
)

var (
	// ErrLockHeld is returned when another controller holds the lock.
	ErrLockHeld = errors.New("another edit controller is already active")
	// ErrNilController is returned when activating a nil controller.
	ErrNilController = errors.New("edit controller must implement commit and cancel")
	// ErrNotActive is returned when deactivating a controller that does not
	// hold the lock.
	ErrNotActive = errors.New("edit controller is not the active one")
)

// Controller ends the edit it started.
type Controller interface {
	CommitCurrentEdit() bool
	CancelCurrentEdit() bool
}

// Lock tracks at most one active controller. Grids sharing a Lock never have
// two editors open at once.
type Lock struct {
	mu     sync.Mutex
	active Controller
}

// NewLock returns an unheld lock.
func NewLock() *Lock {
	return &Lock{}
}

var (
	defaultLock     *Lock
	defaultLockOnce sync.Once
)

// DefaultLock returns the process-wide lock for callers that opt in to
// sharing one between grids.
func DefaultLock() *Lock {
	defaultLockOnce.Do(func() {
		defaultLock = NewLock()
	})
	return defaultLock
}

// IsActive reports whether c holds the lock, or with a nil c, whether anyone
// does.
func (l *Lock) IsActive(c Controller) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c == nil {
		return l.active != nil
	}
	return l.active == c
}

// Activate makes c the holder. Re-activating the holder is a no-op.
func (l *Lock) Activate(c Controller) error {
	if c == nil {
		return ErrNilController
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == c {
		return nil
	}
	if l.active != nil {
		return ErrLockHeld
	}
	l.active = c
	return nil
}

// Deactivate releases the lock held by c.
func (l *Lock) Deactivate(c Controller) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c == nil || l.active != c {
		return ErrNotActive
	}
	l.active = nil
	return nil
}

func (l *Lock) holder() Controller {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// CommitCurrentEdit asks the holder to commit. It succeeds without a holder.
func (l *Lock) CommitCurrentEdit() bool {
	if c := l.holder(); c != nil {
		return c.CommitCurrentEdit()
	}
	return true
}

// CancelCurrentEdit asks the holder to cancel. It succeeds without a holder.
func (l *Lock) CancelCurrentEdit() bool {
	if c := l.holder(); c != nil {
		return c.CancelCurrentEdit()
	}
	return true
}
