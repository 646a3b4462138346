package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/tracklist/internal/model"
)

// Collection is an ordered, mutex-guarded sequence of items of one kind.
// Readers receive deep copies; the reconciler is the only writer.
type Collection[T any] struct {
	mu      sync.RWMutex
	items   []T
	clone   func(T) T
	updated time.Time
}

// NewCollection creates an empty collection. clone deep-copies one item.
func NewCollection[T any](clone func(T) T) *Collection[T] {
	return &Collection[T]{items: []T{}, clone: clone}
}

// Snapshot returns a copy of the current items.
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyItems(c.items)
}

// Len returns the number of items.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// LastUpdated returns when the collection last changed.
func (c *Collection[T]) LastUpdated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updated
}

// Replace swaps in a copy of items wholesale.
func (c *Collection[T]) Replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = c.copyItems(items)
	c.updated = time.Now()
}

// Update applies fn to the items under the write lock. fn may mutate the
// slice in place and returns the new contents.
func (c *Collection[T]) Update(fn func(items []T) []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := fn(c.items)
	if next == nil {
		next = []T{}
	}
	c.items = next
	c.updated = time.Now()
}

func (c *Collection[T]) copyItems(items []T) []T {
	dup := make([]T, len(items))
	for i, item := range items {
		if c.clone != nil {
			dup[i] = c.clone(item)
		} else {
			dup[i] = item
		}
	}
	return dup
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Groceries           []model.GroceryItem
	Tasks               []model.Task
	LastUpdated         time.Time
	LastSync            time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive failed requests
}

// IsOffline returns true when the API has failed several requests in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store holds the authoritative grocery and task collections plus the health
// of the most recent API exchanges.
type Store struct {
	Groceries *Collection[model.GroceryItem]
	Tasks     *Collection[model.Task]

	mu          sync.RWMutex
	lastSync    time.Time
	lastError   error
	consecutive int
}

// NewStore creates a store with empty collections.
func NewStore() *Store {
	return &Store{
		Groceries: NewCollection(model.GroceryItem.Clone),
		Tasks:     NewCollection(model.Task.Clone),
	}
}

// RecordSuccess notes a successful request and clears the error state.
func (s *Store) RecordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSync = time.Now()
	s.lastError = nil
	s.consecutive = 0
}

// RecordFailure notes a failed request. Collection data is left untouched.
func (s *Store) RecordFailure(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
	s.consecutive++
}

// Snapshot returns a copy of both collections and the sync health.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Groceries: s.Groceries.Snapshot(),
		Tasks:     s.Tasks.Snapshot(),
	}
	snap.LastUpdated = s.Groceries.LastUpdated()
	if t := s.Tasks.LastUpdated(); t.After(snap.LastUpdated) {
		snap.LastUpdated = t
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	snap.LastSync = s.lastSync
	snap.ConsecutiveFailures = s.consecutive
	if s.lastError != nil {
		snap.LastError = fmt.Errorf("%w", s.lastError)
	}
	return snap
}
