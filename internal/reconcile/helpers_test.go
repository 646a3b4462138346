package reconcile

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/five82/tracklist/internal/api"
	"github.com/five82/tracklist/internal/apitest"
	"github.com/five82/tracklist/internal/model"
	"github.com/five82/tracklist/internal/state"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fixture struct {
	server    *apitest.Server
	store     *state.Store
	groceries *Groceries
	tasks     *Tasks
}

func newFixture(t *testing.T, opts apitest.Options) *fixture {
	t.Helper()
	opts.Now = fixedClock
	server := apitest.New(opts)
	t.Cleanup(server.Close)

	client, err := api.NewClient(server.BaseURL(), 2*time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	store := state.NewStore()
	next := 0
	ropts := Options{
		Now:    fixedClock,
		Health: store,
		NewID: func() model.TaskID {
			next++
			return model.TaskID(fmt.Sprintf("local-%d", next))
		},
	}
	groceries, err := NewGroceries(client, store.Groceries, ropts)
	if err != nil {
		t.Fatalf("NewGroceries returned error: %v", err)
	}
	tasks, err := NewTasks(client, store.Tasks, ropts)
	if err != nil {
		t.Fatalf("NewTasks returned error: %v", err)
	}
	return &fixture{server: server, store: store, groceries: groceries, tasks: tasks}
}

func (f *fixture) loadGroceries(t *testing.T, items ...model.GroceryItem) {
	t.Helper()
	f.server.SeedGroceries(items)
	if err := f.groceries.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
}

func (f *fixture) loadTasks(t *testing.T, tasks ...model.Task) {
	t.Helper()
	f.server.SeedTasks(tasks)
	if err := f.tasks.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
}

func todayCount(item model.GroceryItem) int {
	n := 0
	for _, ts := range item.Purchases {
		if parsed, ok := model.ParseTimestamp(ts); ok && model.SameDay(parsed, testNow) {
			n++
		}
	}
	return n
}

func strPtr(s string) *string { return &s }
