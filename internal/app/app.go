package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/tracklist/internal/api"
	"github.com/five82/tracklist/internal/backup"
	"github.com/five82/tracklist/internal/config"
	"github.com/five82/tracklist/internal/logging"
	"github.com/five82/tracklist/internal/model"
	"github.com/five82/tracklist/internal/prefs"
	"github.com/five82/tracklist/internal/reconcile"
	"github.com/five82/tracklist/internal/state"
	"github.com/five82/tracklist/internal/ui"
)

// ErrImportCancelled is returned when the import confirmation is declined.
var ErrImportCancelled = errors.New("import cancelled")

var (
	_ Loader              = (*reconcile.Groceries)(nil)
	_ Loader              = (*reconcile.Tasks)(nil)
	_ backup.GrocerySaver = (*reconcile.Groceries)(nil)
	_ backup.TaskSaver    = (*reconcile.Tasks)(nil)
	_ ui.Readiness        = (*Gate)(nil)
)

// Options configure the tracklist application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/tracklist/prefs.toml
	Page       string // empty restores the last page from prefs
	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
}

type services struct {
	cfg       config.Config
	log       *zap.Logger
	store     *state.Store
	groceries *reconcile.Groceries
	tasks     *reconcile.Tasks
	now       func() time.Time
}

func build(opts Options) (*services, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	client, err := api.NewClient(cfg.APIBase, cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	store := state.NewStore()
	rOpts := reconcile.Options{
		Now:    now,
		Logger: log,
		Health: store,
		NewID:  model.NewTaskID,
	}
	groceries, err := reconcile.NewGroceries(client, store.Groceries, rOpts)
	if err != nil {
		return nil, err
	}
	tasks, err := reconcile.NewTasks(client, store.Tasks, rOpts)
	if err != nil {
		return nil, err
	}

	log.Info("tracklist starting", zap.String("api_base", client.BaseURL()))
	return &services{
		cfg:       cfg,
		log:       log,
		store:     store,
		groceries: groceries,
		tasks:     tasks,
		now:       now,
	}, nil
}

func (s *services) close() {
	_ = s.log.Sync()
}

// Run boots the tracklist TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	svc, err := build(opts)
	if err != nil {
		return err
	}
	defer svc.close()

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	page := opts.Page
	if page == "" {
		page = userPrefs.LastPage
	}
	start, err := ui.ParsePage(page)
	if err != nil {
		if opts.Page != "" {
			return err
		}
		start = ui.PageHome
	}

	gate := NewGate(svc.cfg.ReadyTimeout)
	defer gate.Stop()
	StartLoad(ctx, gate, svc.groceries, svc.tasks, svc.log)

	return ui.Run(ui.Options{
		Context:   ctx,
		Store:     svc.store,
		Groceries: svc.groceries,
		Tasks:     svc.tasks,
		Ready:     gate,
		Logger:    svc.log,
		Now:       svc.now,
		Page:      start,
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
	})
}

// Export loads both collections and writes them to path, or to the dated
// default file name when path is empty. It returns the path written. Export
// never writes to the server, so migrated records are exported but not
// written back.
func Export(ctx context.Context, opts Options, path string) (string, error) {
	svc, err := build(opts)
	if err != nil {
		return "", err
	}
	defer svc.close()

	groceries := LoaderFunc(svc.groceries.LoadReadOnly)
	tasks := LoaderFunc(svc.tasks.LoadReadOnly)
	if err := LoadAll(ctx, nil, groceries, tasks, svc.log); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}

	now := svc.now()
	if path == "" {
		path = backup.FileName(now)
	}
	snap := svc.store.Snapshot()
	if err := backup.WriteFile(path, backup.New(snap.Groceries, snap.Tasks, now)); err != nil {
		return "", err
	}
	svc.log.Info("backup exported",
		zap.String("path", path),
		zap.Int("groceries", len(snap.Groceries)),
		zap.Int("tasks", len(snap.Tasks)),
	)
	return path, nil
}

// Import validates the backup at path, asks confirm (when non-nil) and then
// replaces the server's groceries and tasks with its contents.
func Import(ctx context.Context, opts Options, path string, confirm func(backup.Snapshot) (bool, error)) error {
	snap, err := backup.ReadFile(path, model.NewTaskID)
	if err != nil {
		return err
	}
	if confirm != nil {
		ok, err := confirm(snap)
		if err != nil {
			return err
		}
		if !ok {
			return ErrImportCancelled
		}
	}

	svc, err := build(opts)
	if err != nil {
		return err
	}
	defer svc.close()

	if err := backup.Restore(ctx, snap, svc.groceries, svc.tasks); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	svc.log.Info("backup imported",
		zap.String("path", path),
		zap.Int("groceries", len(snap.Groceries)),
		zap.Int("tasks", len(snap.Tasks)),
	)
	return nil
}
