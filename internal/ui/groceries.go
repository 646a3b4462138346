package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tracklist/internal/reconcile"
	"github.com/five82/tracklist/internal/view"
)

func (m Model) groceryRows() []view.GroceryRow {
	return view.Groceries(m.snapshot.Groceries, m.now())
}

// selectedGrocery returns the row under the cursor, if any.
func (m Model) selectedGrocery() (view.GroceryRow, bool) {
	rows := m.groceryRows()
	if rows[0].IsPlaceholder() || m.groceryCursor >= len(rows) {
		return view.GroceryRow{}, false
	}
	return rows[m.groceryCursor], true
}

// groceryIndex resolves name against the live collection.
func (m Model) groceryIndex(name string) int {
	if m.store == nil {
		return -1
	}
	for i, item := range m.store.Snapshot().Groceries {
		if item.Name == name {
			return i
		}
	}
	return -1
}

// handleGroceryKey processes keyboard input for the grocery page.
func (m Model) handleGroceryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cursor, moved := moveCursor(m.groceryCursor, len(m.snapshot.Groceries), msg, m.keys); moved {
		m.groceryCursor = cursor
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Add):
		if m.busy(groceryAddKey, groceryListKey) {
			return m, nil
		}
		m.modal = newInputModal("Add grocery", []inputField{{label: "Name", placeholder: "Milk", limit: 120}},
			func(values []string) action {
				name := values[0]
				return func(m *Model) tea.Cmd {
					return m.run(groceryAddKey, 0, func(ctx context.Context) (reconcile.Outcome, error) {
						return m.groceries.Add(ctx, name)
					})
				}
			})
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		if m.busy(groceryListKey) {
			return m, nil
		}
		m.modal = newConfirmModal("Reset grocery list",
			"This removes every grocery item and its purchase history.",
			func(m *Model) tea.Cmd {
				return m.run(groceryListKey, 0, m.groceries.ResetAll)
			})
		return m, nil
	}

	row, ok := m.selectedGrocery()
	if !ok || m.busy(groceryKey(row.Name), groceryListKey) {
		return m, nil
	}
	name := row.Name

	switch {
	case key.Matches(msg, m.keys.Toggle):
		checked := !row.PurchasedToday
		return m, m.run(groceryKey(name), 0, func(ctx context.Context) (reconcile.Outcome, error) {
			return m.groceries.TogglePurchase(ctx, name, checked)
		})

	case key.Matches(msg, m.keys.Expand):
		return m, m.run(groceryKey(name), 0, func(ctx context.Context) (reconcile.Outcome, error) {
			return m.groceries.ToggleExpanded(ctx, name)
		})

	case key.Matches(msg, m.keys.Delete):
		m.modal = newConfirmModal("Delete grocery",
			fmt.Sprintf("Delete %q and its purchase history?", name),
			func(m *Model) tea.Cmd {
				idx := m.groceryIndex(name)
				if idx < 0 {
					return m.showToast("Item no longer exists", toastWarning, 0)
				}
				return m.run(groceryKey(name), 0, func(ctx context.Context) (reconcile.Outcome, error) {
					return m.groceries.Delete(ctx, idx)
				})
			})
		return m, nil

	case key.Matches(msg, m.keys.Rename):
		m.modal = newInputModal("Rename grocery", []inputField{{label: "Name", value: name, limit: 120}},
			func(values []string) action {
				newName := values[0]
				return func(m *Model) tea.Cmd {
					idx := m.groceryIndex(name)
					if idx < 0 {
						return m.showToast("Item no longer exists", toastWarning, 0)
					}
					return m.run(groceryKey(name), 0, func(ctx context.Context) (reconcile.Outcome, error) {
						return m.groceries.Rename(ctx, idx, newName)
					})
				}
			})
		return m, nil

	case key.Matches(msg, m.keys.ClearHistory):
		if !row.HasHistory {
			return m, nil
		}
		m.modal = newConfirmModal("Clear history",
			fmt.Sprintf("Forget all %s of %q?", plural(row.PurchaseCount, "purchase"), name),
			func(m *Model) tea.Cmd {
				return m.run(groceryKey(name), 0, func(ctx context.Context) (reconcile.Outcome, error) {
					return m.groceries.ClearHistory(ctx, name)
				})
			})
		return m, nil
	}
	return m, nil
}

// renderGroceries renders the grocery page.
func (m Model) renderGroceries(height int) string {
	styles := m.theme.Styles()
	rows := m.groceryRows()
	if rows[0].IsPlaceholder() {
		return m.renderEmpty(height, rows[0].Placeholder, "press a to add an item")
	}

	now := m.now()
	nameWidth := maxInt(12, m.width/3)
	listBusy := m.busy(groceryListKey)

	var lines []string
	focus := 0
	for i, row := range rows {
		selected := i == m.groceryCursor
		if selected {
			focus = len(lines)
		}
		busy := listBusy || m.busy(groceryKey(row.Name))

		marker := ternary(selected, "›", " ")
		check := ternary(row.PurchasedToday, "[x]", "[ ]")
		last := "Never bought"
		if row.HasHistory {
			last = "Last bought " + strings.ToLower(view.Relative(row.LastBought, now)) + " · " + plural(row.PurchaseCount, "purchase")
		}
		name := padRight(truncate(row.Name, nameWidth), nameWidth)
		status := ternary(busy, " saving…", "")

		if selected {
			plain := fmt.Sprintf("%s %s %s  %s%s", marker, check, name, last, status)
			lines = append(lines, styles.Selected.Width(m.width).Render(plain))
		} else {
			var b strings.Builder
			b.WriteString(marker + " ")
			if row.PurchasedToday {
				b.WriteString(styles.SuccessText.Render(check))
			} else {
				b.WriteString(styles.MutedText.Render(check))
			}
			b.WriteString(" ")
			if busy {
				b.WriteString(styles.FaintText.Render(name))
			} else {
				b.WriteString(styles.Text.Render(name))
			}
			b.WriteString("  ")
			b.WriteString(styles.MutedText.Render(last))
			b.WriteString(styles.FaintText.Render(status))
			lines = append(lines, b.String())
		}

		for _, ts := range row.History {
			entry := fmt.Sprintf("        • %s  %s", view.FullDate(ts, now.Location()), view.Relative(ts, now))
			lines = append(lines, styles.FaintText.Render(entry))
		}
	}
	return fitLines(lines, focus, height)
}

// renderEmpty centers a placeholder message in the body.
func (m Model) renderEmpty(height int, message, hint string) string {
	styles := m.theme.Styles()
	content := styles.MutedText.Render(message) + "\n" + styles.FaintText.Render(hint)
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, strings.Split(content, "\n")...))
}

// fitLines returns exactly height lines, scrolled so focus is visible.
func fitLines(lines []string, focus, height int) string {
	if height <= 0 {
		return ""
	}
	start := 0
	if focus >= height {
		start = focus - height + 1
	}
	end := start + height
	if end > len(lines) {
		end = len(lines)
	}
	visible := append([]string(nil), lines[start:end]...)
	for len(visible) < height {
		visible = append(visible, "")
	}
	return strings.Join(visible, "\n")
}
