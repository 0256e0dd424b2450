// Package confirm implements the two-step confirmation used before destructive actions.
package confirm

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrBusy is returned while a confirmed action is still executing.
	ErrBusy = errors.New("confirmation gate busy")
	// ErrNotPending is returned by Confirm when nothing has been selected.
	ErrNotPending = errors.New("nothing pending confirmation")
)

type State string

const (
	Idle      State = "idle"
	Pending   State = "pending"
	Executing State = "executing"
)

// Action is the destructive operation a gate guards.
type Action func(ctx context.Context, target string) error

// Gate serializes select, confirm and cancel for one destructive action. A gate holds at
// most one target; Confirm runs the action once and always returns the gate to Idle.
type Gate struct {
	mu     sync.Mutex
	state  State
	target string
	action Action
}

func New(action Action) *Gate {
	return &Gate{state: Idle, action: action}
}

// Select marks target as pending confirmation, replacing any earlier selection.
func (g *Gate) Select(target string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Executing {
		return ErrBusy
	}
	g.state = Pending
	g.target = target
	return nil
}

// Cancel drops a pending selection. It does nothing while executing.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Pending {
		return
	}
	g.state = Idle
	g.target = ""
}

// Confirm runs the action on the pending target and returns its error.
func (g *Gate) Confirm(ctx context.Context) error {
	g.mu.Lock()
	switch g.state {
	case Idle:
		g.mu.Unlock()
		return ErrNotPending
	case Executing:
		g.mu.Unlock()
		return ErrBusy
	}
	g.state = Executing
	target := g.target
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.state = Idle
		g.target = ""
		g.mu.Unlock()
	}()
	return g.action(ctx, target)
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Target returns the selected id, or "" when idle.
func (g *Gate) Target() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.target
}

// Executing reports whether the action is running; views render it as the dialog's
// loading flag.
func (g *Gate) Executing() bool {
	return g.State() == Executing
}
