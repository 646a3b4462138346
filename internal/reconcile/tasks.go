package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/tracklist/internal/api"
	"github.com/five82/tracklist/internal/model"
	"github.com/five82/tracklist/internal/state"
)

// Tasks owns every mutation of the task collection.
type Tasks struct {
	base
	remote api.TaskStore
	items  *state.Collection[model.Task]
	newID  func() model.TaskID
}

// NewTasks builds a task reconciler. remote and items are required.
func NewTasks(remote api.TaskStore, items *state.Collection[model.Task], opts Options) (*Tasks, error) {
	if remote == nil {
		return nil, fmt.Errorf("task reconciler: remote is required")
	}
	if items == nil {
		return nil, fmt.Errorf("task reconciler: collection is required")
	}
	newID := opts.NewID
	if newID == nil {
		newID = model.NewTaskID
	}
	return &Tasks{base: newBase(opts, "tasks"), remote: remote, items: items, newID: newID}, nil
}

// Load fetches, migrates and installs the task collection, writing migrated
// records back. A failed or malformed fetch installs the empty collection and
// returns the cause.
func (t *Tasks) Load(ctx context.Context) error {
	return t.load(ctx, true)
}

// LoadReadOnly is Load without the migration write-back.
func (t *Tasks) LoadReadOnly(ctx context.Context) error {
	return t.load(ctx, false)
}

func (t *Tasks) load(ctx context.Context, writeBack bool) error {
	raw, err := t.remote.ListTasks(ctx)
	t.observe(err)
	if err != nil {
		t.items.Replace(nil)
		t.log.Warn("load tasks failed, using empty list", zap.Error(err))
		return fmt.Errorf("load tasks: %w", err)
	}

	tasks, migrated := model.MigrateTasks(raw, t.newID)
	t.items.Replace(tasks)
	t.log.Debug("tasks loaded", zap.Int("count", len(tasks)), zap.Bool("migrated", migrated))
	if !migrated || !writeBack {
		return nil
	}
	if skipped := len(raw) - len(tasks); skipped > 0 {
		t.log.Warn("unreadable task records on server, not writing back migration", zap.Int("skipped", skipped))
		return nil
	}
	if err := t.remote.SaveTasks(ctx, tasks); err != nil {
		t.observe(err)
		t.log.Warn("write back migrated tasks failed", zap.Error(err))
		return nil
	}
	t.observe(nil)
	t.log.Info("migrated tasks written back", zap.Int("count", len(tasks)))
	return nil
}

// Add creates a task. dueDate is optional and must be YYYY-MM-DD when set.
func (t *Tasks) Add(ctx context.Context, name, dueDate string) (Outcome, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Outcome{Message: "Enter a task name"}, ErrEmptyName
	}
	var due *string
	if d := strings.TrimSpace(dueDate); d != "" {
		if !model.ValidDate(d) {
			return Outcome{Message: "Due date must be YYYY-MM-DD"}, fmt.Errorf("add task %q: %w", name, ErrInvalidDueDate)
		}
		due = &d
	}

	reply, err := t.remote.CreateTask(ctx, name, due)
	t.observe(err)
	if err != nil {
		return Outcome{Message: api.UserMessage(err, "Failed to add task")}, fmt.Errorf("add task %q: %w", name, err)
	}

	t.items.Update(func(items []model.Task) []model.Task {
		switch {
		case reply.IsList:
			return t.ensureIDs(reply.Items)
		case reply.Item != nil && (!reply.Item.ID.IsZero() || strings.TrimSpace(reply.Item.Name) != ""):
			return append(items, t.ensureID(*reply.Item))
		default:
			return append(items, model.Task{ID: t.newID(), Name: name, DueDate: due})
		}
	})
	return Outcome{Message: fmt.Sprintf("Added task: %q", name)}, nil
}

// ToggleCompleted flips the completion of the task with id. The flip is
// applied before the request and reverted if it fails.
func (t *Tasks) ToggleCompleted(ctx context.Context, id model.TaskID) (Outcome, error) {
	var (
		completed bool
		name      string
	)
	found := t.mutate(id, func(task *model.Task) {
		task.Completed = !task.Completed
		completed = task.Completed
		name = task.Name
	})
	if !found {
		return Outcome{}, fmt.Errorf("toggle task %s: %w", id, ErrNotFound)
	}

	reply, err := t.remote.UpdateTask(ctx, id, api.TaskPatch{Completed: &completed})
	t.observe(err)
	if err == nil {
		t.merge(id, reply)
		status := "reopened"
		if completed {
			status = "completed"
		}
		return Outcome{Message: fmt.Sprintf("Task %q %s", name, status)}, nil
	}
	toggleFallback(taskTogglePolicy, t.items, byID(id), func(task *model.Task) { task.Completed = !task.Completed })
	return t.fallback(ctx, "Failed to update task", fmt.Errorf("toggle task %s: %w", id, err))
}

// Delete removes the task at index.
func (t *Tasks) Delete(ctx context.Context, index int) (Outcome, error) {
	snap := t.items.Snapshot()
	if index < 0 || index >= len(snap) {
		return Outcome{}, fmt.Errorf("delete task %d: %w", index, ErrNotFound)
	}
	task := snap[index]
	if task.ID.IsZero() {
		return t.degradedIndexDelete(ctx, index, task)
	}

	reply, err := t.remote.DeleteTask(ctx, task.ID)
	t.observe(err)
	if err == nil {
		if reply.IsList {
			t.items.Replace(t.ensureIDs(reply.Items))
		} else {
			t.remove(task.ID)
		}
		return Outcome{Message: fmt.Sprintf("Deleted %q", task.Name)}, nil
	}
	t.remove(task.ID)
	return t.fallback(ctx, "Failed to delete task", fmt.Errorf("delete task %s: %w", task.ID, err))
}

// degradedIndexDelete removes a task that has no id. Position is the only
// identity available, so no targeted request is possible and the whole
// collection is bulk-saved.
func (t *Tasks) degradedIndexDelete(ctx context.Context, index int, task model.Task) (Outcome, error) {
	t.log.Warn("deleting task without id by position", zap.Int("index", index), zap.String("name", task.Name))
	t.items.Update(func(items []model.Task) []model.Task {
		if index < len(items) && items[index].ID.IsZero() && items[index].Name == task.Name {
			return removeAt(items, index)
		}
		return items
	})
	out := Outcome{Message: fmt.Sprintf("Deleted %q", task.Name), Fallback: true}
	if err := t.save(ctx); err != nil {
		out.Message = "Failed to delete task"
		return out, fmt.Errorf("bulk save tasks: %w", err)
	}
	return out, nil
}

// ResetAll empties the task collection whether or not the request succeeds.
func (t *Tasks) ResetAll(ctx context.Context) (Outcome, error) {
	err := t.remote.DeleteTasks(ctx)
	t.observe(err)
	t.items.Replace(nil)
	if err != nil {
		return t.fallback(ctx, "Failed to reset tasks", fmt.Errorf("reset tasks: %w", err))
	}
	return Outcome{Message: "Task list reset successfully"}, nil
}

// SaveTasks installs tasks and bulk-saves them.
func (t *Tasks) SaveTasks(ctx context.Context, tasks []model.Task) error {
	t.items.Replace(t.ensureIDs(tasks))
	if err := t.save(ctx); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

func (t *Tasks) save(ctx context.Context) error {
	err := t.remote.SaveTasks(ctx, t.items.Snapshot())
	t.observe(err)
	return err
}

func (t *Tasks) fallback(ctx context.Context, message string, cause error) (Outcome, error) {
	t.log.Warn("task request failed, saving whole list", zap.Error(cause))
	out := Outcome{Message: message, Fallback: true}
	if err := t.save(ctx); err != nil {
		t.log.Warn("bulk save tasks failed", zap.Error(err))
		return out, errors.Join(cause, fmt.Errorf("bulk save tasks: %w", err))
	}
	return out, cause
}

func (t *Tasks) merge(id model.TaskID, reply api.Reply[model.Task]) {
	switch {
	case reply.IsList:
		t.items.Replace(t.ensureIDs(reply.Items))
	case reply.Item != nil && !reply.Item.ID.IsZero():
		updated := t.ensureID(*reply.Item)
		t.mutate(id, func(task *model.Task) { *task = updated })
	}
}

func (t *Tasks) mutate(id model.TaskID, fn func(*model.Task)) bool {
	found := false
	t.items.Update(func(items []model.Task) []model.Task {
		if idx := indexByID(items, id); idx >= 0 {
			fn(&items[idx])
			found = true
		}
		return items
	})
	return found
}

func (t *Tasks) remove(id model.TaskID) {
	t.items.Update(func(items []model.Task) []model.Task {
		return removeAt(items, indexByID(items, id))
	})
}

func (t *Tasks) ensureID(task model.Task) model.Task {
	task = model.NormalizeTask(task.Clone())
	if task.ID.IsZero() {
		task.ID = t.newID()
	}
	return task
}

func (t *Tasks) ensureIDs(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	for i, task := range tasks {
		out[i] = t.ensureID(task)
	}
	return out
}

func indexByID(items []model.Task, id model.TaskID) int {
	if id.IsZero() {
		return -1
	}
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func byID(id model.TaskID) func(model.Task) bool {
	return func(task model.Task) bool { return task.ID == id }
}
