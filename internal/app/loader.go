package app

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Loader fills one collection from the API. The reconcilers implement it.
type Loader interface {
	Load(ctx context.Context) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) error

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context) error { return f(ctx) }

// LoadAll runs both loads concurrently and signals gate as each finishes,
// whether or not it succeeded. gate may be nil. The returned error joins
// both load failures; the collections are usable either way.
func LoadAll(ctx context.Context, gate *Gate, groceries, tasks Loader, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	var (
		group      errgroup.Group
		groceryErr error
		taskErr    error
	)
	group.Go(func() error {
		if gate != nil {
			defer gate.GroceriesReady()
		}
		groceryErr = groceries.Load(ctx)
		return nil
	})
	group.Go(func() error {
		if gate != nil {
			defer gate.TasksReady()
		}
		taskErr = tasks.Load(ctx)
		return nil
	})
	_ = group.Wait()

	err := errors.Join(groceryErr, taskErr)
	if err != nil {
		log.Warn("initial load incomplete", zap.Error(err))
	}
	return err
}

// StartLoad runs LoadAll in the background and returns immediately.
func StartLoad(ctx context.Context, gate *Gate, groceries, tasks Loader, log *zap.Logger) {
	go func() {
		_ = LoadAll(ctx, gate, groceries, tasks, log)
	}()
}
