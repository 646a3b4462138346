package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/tracklist/internal/api"
	"github.com/five82/tracklist/internal/backup"
	"github.com/five82/tracklist/internal/model"
	"github.com/five82/tracklist/internal/reconcile"
)

// In-flight keys for controls that are not a single row.
const (
	groceryAddKey  = "groceries/+add"
	groceryListKey = "groceries/*"
	taskAddKey     = "tasks/+add"
	taskListKey    = "tasks/*"
	backupKey      = "backup"
)

func groceryKey(name string) string { return "groceries/" + name }

func taskKey(id model.TaskID, index int) string {
	if id.IsZero() {
		return fmt.Sprintf("tasks/#%d", index)
	}
	return "tasks/" + id.String()
}

// busy reports whether any of keys has a request in flight.
func (m Model) busy(keys ...string) bool {
	for _, k := range keys {
		if m.inFlight[k] {
			return true
		}
	}
	return false
}

// run marks key in flight and returns a command that performs op.
func (m *Model) run(key string, ttl time.Duration, op func(ctx context.Context) (reconcile.Outcome, error)) tea.Cmd {
	m.inFlight[key] = true
	ctx := m.ctx
	return func() tea.Msg {
		out, err := op(ctx)
		return resultMsg{key: key, outcome: out, err: err, ttl: ttl}
	}
}

func (m Model) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	delete(m.inFlight, msg.key)
	m.refresh()
	if msg.err != nil {
		m.log.Debug("operation failed", zap.String("key", msg.key), zap.Error(msg.err))
	}
	text, kind := outcomeToast(msg.outcome, msg.err)
	return m, m.showToast(text, kind, msg.ttl)
}

// Backup

type exportMsg struct {
	path string
	err  error
}

type importParsedMsg struct {
	path     string
	snapshot backup.Snapshot
	err      error
}

type importDoneMsg struct {
	err error
}

func (m *Model) exportCmd() tea.Cmd {
	if m.busy(backupKey) || m.store == nil {
		return nil
	}
	m.inFlight[backupKey] = true
	snap := m.store.Snapshot()
	now := m.now()
	return func() tea.Msg {
		path := backup.FileName(now)
		err := backup.WriteFile(path, backup.New(snap.Groceries, snap.Tasks, now))
		return exportMsg{path: path, err: err}
	}
}

func (m Model) handleExport(msg exportMsg) (tea.Model, tea.Cmd) {
	delete(m.inFlight, backupKey)
	if msg.err != nil {
		m.log.Warn("export failed", zap.Error(msg.err))
		return m, m.showToast("Failed to export data", toastError, 0)
	}
	m.log.Info("backup exported", zap.String("path", msg.path))
	return m, m.showToast("Data exported to "+truncateMiddle(msg.path, 40), toastSuccess, 0)
}

func (m *Model) openImport() {
	if m.busy(backupKey) {
		return
	}
	fields := []inputField{{label: "Backup file", placeholder: backup.FileName(m.now()), limit: 4096}}
	m.modal = newInputModal("Import backup", fields, func(values []string) action {
		return func(m *Model) tea.Cmd {
			path := values[0]
			if path == "" {
				return m.showToast("Enter a file path", toastWarning, 0)
			}
			m.inFlight[backupKey] = true
			return func() tea.Msg {
				snap, err := backup.ReadFile(path, model.NewTaskID)
				return importParsedMsg{path: path, snapshot: snap, err: err}
			}
		}
	})
}

func (m Model) handleImportParsed(msg importParsedMsg) (tea.Model, tea.Cmd) {
	delete(m.inFlight, backupKey)
	if msg.err != nil {
		m.log.Warn("import rejected", zap.String("path", msg.path), zap.Error(msg.err))
		return m, m.showToast("Failed to import data: invalid file format", toastError, 0)
	}

	snap := msg.snapshot
	body := fmt.Sprintf("Replace all groceries and tasks with %s and %s from %s?",
		plural(len(snap.Groceries), "grocery item"), plural(len(snap.Tasks), "task"),
		truncateMiddle(msg.path, 30))
	m.modal = newConfirmModal("Import backup", body, func(m *Model) tea.Cmd {
		m.inFlight[backupKey] = true
		ctx, groceries, tasks := m.ctx, m.groceries, m.tasks
		return func() tea.Msg {
			return importDoneMsg{err: backup.Restore(ctx, snap, groceries, tasks)}
		}
	})
	return m, nil
}

func (m Model) handleImportDone(msg importDoneMsg) (tea.Model, tea.Cmd) {
	delete(m.inFlight, backupKey)
	m.refresh()
	if msg.err != nil {
		m.log.Warn("import failed", zap.Error(msg.err))
		return m, m.showToast("Failed to import data: "+api.UserMessage(msg.err, "server error"), toastError, 0)
	}
	return m, m.showToast("Data imported successfully!", toastSuccess, 0)
}
