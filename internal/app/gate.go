package app

import (
	"context"
	"sync"
	"time"
)

// DefaultReadyTimeout bounds the initial load when none is configured.
const DefaultReadyTimeout = 2 * time.Second

// Reason records why the gate opened.
type Reason int

const (
	ReasonPending Reason = iota
	ReasonLoaded
	ReasonTimeout
)

func (r Reason) String() string {
	switch r {
	case ReasonLoaded:
		return "loaded"
	case ReasonTimeout:
		return "timeout"
	default:
		return "pending"
	}
}

// GateStatus is a point-in-time view of a Gate.
type GateStatus struct {
	GroceriesReady bool
	TasksReady     bool
	Signals        int
	Reason         Reason
}

// Gate opens once both collections have loaded or the safety timer fires,
// whichever comes first. Once open it never changes again. Loads that finish
// after a timeout are still reported through GroceriesLoaded and TasksLoaded.
type Gate struct {
	mu              sync.Mutex
	groceriesReady  bool
	tasksReady      bool
	signals         int
	reason          Reason
	timer           *time.Timer
	done            chan struct{}
	groceriesLoaded chan struct{}
	tasksLoaded     chan struct{}
}

// NewGate starts a gate whose safety timer fires after timeout.
func NewGate(timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	g := &Gate{
		done:            make(chan struct{}),
		groceriesLoaded: make(chan struct{}),
		tasksLoaded:     make(chan struct{}),
	}
	g.mu.Lock()
	g.timer = time.AfterFunc(timeout, g.expire)
	g.mu.Unlock()
	return g
}

// GroceriesReady records that the grocery load finished.
func (g *Gate) GroceriesReady() { g.signal(&g.groceriesReady, g.groceriesLoaded) }

// TasksReady records that the task load finished.
func (g *Gate) TasksReady() { g.signal(&g.tasksReady, g.tasksLoaded) }

func (g *Gate) signal(flag *bool, loaded chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if *flag {
		return
	}
	*flag = true
	close(loaded)
	if g.reason != ReasonPending {
		return
	}
	g.signals++
	if g.signals == 2 {
		g.open(ReasonLoaded)
	}
}

func (g *Gate) expire() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.reason == ReasonPending {
		g.open(ReasonTimeout)
	}
}

// open must be called with mu held.
func (g *Gate) open(reason Reason) {
	g.reason = reason
	g.timer.Stop()
	close(g.done)
}

// Done returns a channel closed when the gate opens.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// GroceriesLoaded returns a channel closed when the grocery load finishes,
// including after the gate has opened on timeout.
func (g *Gate) GroceriesLoaded() <-chan struct{} {
	return g.groceriesLoaded
}

// TasksLoaded is GroceriesLoaded for tasks.
func (g *Gate) TasksLoaded() <-chan struct{} {
	return g.tasksLoaded
}

// Wait blocks until the gate opens or ctx ends.
func (g *Gate) Wait(ctx context.Context) (Reason, error) {
	select {
	case <-g.done:
		return g.Status().Reason, nil
	case <-ctx.Done():
		return ReasonPending, ctx.Err()
	}
}

// Stop cancels the safety timer without opening the gate.
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.timer.Stop()
}

// Status reports the gate's flags and outcome.
func (g *Gate) Status() GateStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return GateStatus{
		GroceriesReady: g.groceriesReady,
		TasksReady:     g.tasksReady,
		Signals:        g.signals,
		Reason:         g.reason,
	}
}
