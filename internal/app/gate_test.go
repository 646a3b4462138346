package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// Keep-alive connections from the export/import tests close
		// asynchronously after their httptest servers shut down.
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func TestGate_OpensAfterBothSignals(t *testing.T) {
	g := NewGate(time.Hour)
	defer g.Stop()

	g.GroceriesReady()
	select {
	case <-g.Done():
		t.Fatalf("gate opened after a single signal")
	default:
	}
	g.TasksReady()

	reason, err := g.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if reason != ReasonLoaded {
		t.Fatalf("reason = %v, want loaded", reason)
	}
}

func TestGate_RepeatedSignalCountsOnce(t *testing.T) {
	g := NewGate(time.Hour)
	defer g.Stop()

	g.GroceriesReady()
	g.GroceriesReady()
	g.GroceriesReady()

	status := g.Status()
	if status.Signals != 1 || status.Reason != ReasonPending {
		t.Fatalf("status = %+v, want one signal and still pending", status)
	}
}

func TestGate_TimeoutOpensOnce(t *testing.T) {
	g := NewGate(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reason, err := g.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if reason != ReasonTimeout {
		t.Fatalf("reason = %v, want timeout", reason)
	}

	// Late signals are recorded but do not reopen or change the outcome.
	g.GroceriesReady()
	g.TasksReady()
	status := g.Status()
	if status.Reason != ReasonTimeout || status.Signals != 0 {
		t.Fatalf("status = %+v, want timeout with no counted signals", status)
	}
	if !status.GroceriesReady || !status.TasksReady {
		t.Fatalf("late signals not recorded: %+v", status)
	}
}

func TestGate_ConcurrentSignalsOpenExactlyOnce(t *testing.T) {
	for range 50 {
		g := NewGate(time.Hour)
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(2)
			go func() { defer wg.Done(); g.GroceriesReady() }()
			go func() { defer wg.Done(); g.TasksReady() }()
		}
		wg.Wait()

		status := g.Status()
		if status.Reason != ReasonLoaded || status.Signals != 2 {
			t.Fatalf("status = %+v, want loaded after two signals", status)
		}
		g.Stop()
	}
}

func TestGate_WaitHonoursContext(t *testing.T) {
	g := NewGate(time.Hour)
	defer g.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reason, err := g.Wait(ctx)
	if !errors.Is(err, context.Canceled) || reason != ReasonPending {
		t.Fatalf("Wait = %v, %v; want pending, context.Canceled", reason, err)
	}
}

func TestGate_NonPositiveTimeoutUsesDefault(t *testing.T) {
	g := NewGate(0)
	defer g.Stop()
	if g.Status().Reason != ReasonPending {
		t.Fatalf("gate with default timeout opened immediately")
	}
}

func TestReason_String(t *testing.T) {
	cases := map[Reason]string{ReasonPending: "pending", ReasonLoaded: "loaded", ReasonTimeout: "timeout"}
	for reason, want := range cases {
		if got := reason.String(); got != want {
			t.Fatalf("Reason(%d).String() = %q, want %q", reason, got, want)
		}
	}
}

func TestGate_ReportsLoadsThatFinishAfterTimeout(t *testing.T) {
	g := NewGate(10 * time.Millisecond)
	defer g.Stop()

	if reason, err := g.Wait(context.Background()); err != nil || reason != ReasonTimeout {
		t.Fatalf("Wait = %v, %v; want timeout", reason, err)
	}
	select {
	case <-g.GroceriesLoaded():
		t.Fatalf("groceries reported loaded before their signal")
	default:
	}

	g.GroceriesReady()
	select {
	case <-g.GroceriesLoaded():
	case <-time.After(time.Second):
		t.Fatalf("late grocery load not reported")
	}
	select {
	case <-g.TasksLoaded():
		t.Fatalf("tasks reported loaded without a signal")
	default:
	}
	g.TasksReady()
	<-g.TasksLoaded()

	if status := g.Status(); status.Reason != ReasonTimeout || !status.GroceriesReady || !status.TasksReady {
		t.Fatalf("status = %+v, want timeout with both flags set", status)
	}
}
