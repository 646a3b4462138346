package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/tracklist/internal/model"
	"github.com/five82/tracklist/internal/state"
)

var (
	// ErrDuplicate is returned when a name already exists after normalization.
	ErrDuplicate = errors.New("item already exists")
	// ErrNotFound is returned for an unknown name, id or index.
	ErrNotFound = errors.New("item not found")
	// ErrEmptyName is returned for a blank name.
	ErrEmptyName = errors.New("name is required")
	// ErrInvalidDueDate is returned for a due date that is not YYYY-MM-DD.
	ErrInvalidDueDate = errors.New("due date must be YYYY-MM-DD")
)

// Outcome describes a finished operation for the user. Fallback is set when
// the targeted request failed and the local mutation was persisted with a
// bulk save instead.
type Outcome struct {
	Message  string
	Fallback bool
}

// FallbackPolicy decides what happens to an optimistic flip when its request
// fails.
type FallbackPolicy int

const (
	// FallbackKeepLocal keeps the flip and bulk-saves it.
	FallbackKeepLocal FallbackPolicy = iota
	// FallbackRevert undoes the flip and bulk-saves the reverted collection.
	FallbackRevert
)

func (p FallbackPolicy) String() string {
	switch p {
	case FallbackKeepLocal:
		return "keep-local"
	case FallbackRevert:
		return "revert"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

const (
	// Grocery history toggles never lose the user's flip.
	groceryTogglePolicy = FallbackKeepLocal
	// Task completion toggles roll back to what the server last confirmed.
	taskTogglePolicy = FallbackRevert
)

// HealthRecorder receives the result of every request. *state.Store
// implements it.
type HealthRecorder interface {
	RecordSuccess()
	RecordFailure(err error)
}

var _ HealthRecorder = (*state.Store)(nil)

// Options configures a reconciler. Zero values select defaults.
type Options struct {
	// Now returns the current time; its location defines "today".
	Now func() time.Time
	// Logger receives warnings for fallbacks and failed write-backs.
	Logger *zap.Logger
	// Health is notified after each request.
	Health HealthRecorder
	// NewID generates task identifiers.
	NewID func() model.TaskID
}

type base struct {
	now    func() time.Time
	log    *zap.Logger
	health HealthRecorder
}

func newBase(opts Options, component string) base {
	b := base{now: opts.Now, log: opts.Logger, health: opts.Health}
	if b.now == nil {
		b.now = time.Now
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	b.log = b.log.With(zap.String("component", component))
	return b
}

func (b base) observe(err error) {
	if b.health == nil {
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		b.health.RecordFailure(err)
		return
	}
	if err == nil {
		b.health.RecordSuccess()
	}
}

// toggleFallback applies policy to a flag that was flipped before its
// request failed. flip must be its own inverse.
func toggleFallback[T any](policy FallbackPolicy, c *state.Collection[T], match func(T) bool, flip func(*T)) {
	if policy != FallbackRevert {
		return
	}
	c.Update(func(items []T) []T {
		for i := range items {
			if match(items[i]) {
				flip(&items[i])
				break
			}
		}
		return items
	})
}

func removeAt[T any](items []T, idx int) []T {
	if idx < 0 || idx >= len(items) {
		return items
	}
	return append(items[:idx], items[idx+1:]...)
}
