package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tracklist/internal/reconcile"
	"github.com/five82/tracklist/internal/view"
)

func (m Model) taskRows() []view.TaskRow {
	return view.Tasks(m.snapshot.Tasks, m.now())
}

// selectedTask returns the row under the cursor, if any. The cursor moves
// over display order, not collection order.
func (m Model) selectedTask() (view.TaskRow, bool) {
	rows := m.taskRows()
	if rows[0].IsPlaceholder() || m.taskCursor >= len(rows) {
		return view.TaskRow{}, false
	}
	return rows[m.taskCursor], true
}

// taskIndex resolves row against the live collection, by id when it has one.
func (m Model) taskIndex(row view.TaskRow) int {
	if m.store == nil {
		return -1
	}
	tasks := m.store.Snapshot().Tasks
	if row.ID.IsZero() {
		if row.Index < len(tasks) && tasks[row.Index].ID.IsZero() && tasks[row.Index].Name == row.Name {
			return row.Index
		}
		return -1
	}
	for i, task := range tasks {
		if task.ID == row.ID {
			return i
		}
	}
	return -1
}

// handleTaskKey processes keyboard input for the task page.
func (m Model) handleTaskKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cursor, moved := moveCursor(m.taskCursor, len(m.snapshot.Tasks), msg, m.keys); moved {
		m.taskCursor = cursor
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Add):
		if m.busy(taskAddKey, taskListKey) {
			return m, nil
		}
		fields := []inputField{
			{label: "Task", placeholder: "Renew passport", limit: 200},
			{label: "Due date (optional)", placeholder: "YYYY-MM-DD", limit: 10},
		}
		m.modal = newInputModal("Add task", fields, func(values []string) action {
			name, due := values[0], values[1]
			return func(m *Model) tea.Cmd {
				return m.run(taskAddKey, 0, func(ctx context.Context) (reconcile.Outcome, error) {
					return m.tasks.Add(ctx, name, due)
				})
			}
		})
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		if m.busy(taskListKey) {
			return m, nil
		}
		m.modal = newConfirmModal("Reset task list",
			"This removes every task, completed or not.",
			func(m *Model) tea.Cmd {
				return m.run(taskListKey, 0, m.tasks.ResetAll)
			})
		return m, nil
	}

	row, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	rowKey := taskKey(row.ID, row.Index)
	if m.busy(rowKey, taskListKey) {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Toggle):
		if row.ID.IsZero() {
			return m, m.showToast("This task has no id yet and cannot be updated", toastWarning, 0)
		}
		id := row.ID
		return m, m.run(rowKey, shortToastTTL, func(ctx context.Context) (reconcile.Outcome, error) {
			return m.tasks.ToggleCompleted(ctx, id)
		})

	case key.Matches(msg, m.keys.Delete):
		m.modal = newConfirmModal("Delete task",
			fmt.Sprintf("Delete %q?", row.Name),
			func(m *Model) tea.Cmd {
				idx := m.taskIndex(row)
				if idx < 0 {
					return m.showToast("Item no longer exists", toastWarning, 0)
				}
				return m.run(rowKey, 0, func(ctx context.Context) (reconcile.Outcome, error) {
					return m.tasks.Delete(ctx, idx)
				})
			})
		return m, nil
	}
	return m, nil
}

// renderTasks renders the task page.
func (m Model) renderTasks(height int) string {
	styles := m.theme.Styles()
	rows := m.taskRows()
	if rows[0].IsPlaceholder() {
		return m.renderEmpty(height, rows[0].Placeholder, "press a to add a task")
	}

	nameWidth := maxInt(12, m.width/2)
	listBusy := m.busy(taskListKey)

	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		selected := i == m.taskCursor
		busy := listBusy || m.busy(taskKey(row.ID, row.Index))

		marker := ternary(selected, "›", " ")
		check := ternary(row.Completed, "[x]", "[ ]")
		name := padRight(truncate(row.Name, nameWidth), nameWidth)
		due := dueLabel(row)
		status := ternary(busy, " saving…", "")

		if selected {
			plain := fmt.Sprintf("%s %s %s  %s%s", marker, check, name, due, status)
			lines = append(lines, styles.Selected.Width(m.width).Render(plain))
			continue
		}

		var b strings.Builder
		b.WriteString(marker + " ")
		switch {
		case row.Completed:
			b.WriteString(styles.SuccessText.Render(check) + " " + styles.Strike.Render(name))
		case busy:
			b.WriteString(styles.MutedText.Render(check) + " " + styles.FaintText.Render(name))
		default:
			b.WriteString(styles.MutedText.Render(check) + " " + styles.Text.Render(name))
		}
		b.WriteString("  ")
		switch {
		case row.Overdue:
			b.WriteString(styles.DangerText.Render(due))
		case row.HasDueDate:
			b.WriteString(styles.InfoText.Render(due))
		}
		b.WriteString(styles.FaintText.Render(status))
		lines = append(lines, b.String())
	}
	return fitLines(lines, m.taskCursor, height)
}

func dueLabel(row view.TaskRow) string {
	switch {
	case !row.HasDueDate:
		return ""
	case row.Overdue:
		return "Overdue · " + row.DueDate
	default:
		return "Due " + row.DueDate
	}
}
