package view

import (
	"sort"
	"time"

	"github.com/five82/tracklist/internal/model"
)

const (
	// EmptyGroceries is the placeholder shown for an empty grocery list.
	EmptyGroceries = "Your grocery list is empty"
	// EmptyTasks is the placeholder shown for an empty task list.
	EmptyTasks = "You're all caught up"
)

// GroceryRow is one rendered grocery line.
type GroceryRow struct {
	// Index is the position in the collection, or -1 for the placeholder.
	Index          int
	Name           string
	Expanded       bool
	PurchasedToday bool
	HasHistory     bool
	PurchaseCount  int
	LastBought     string
	// History is the purchase list newest first; filled only when expanded.
	History     []string
	Placeholder string
}

// TaskRow is one rendered task line.
type TaskRow struct {
	// Index is the position in the collection, or -1 for the placeholder.
	Index       int
	ID          model.TaskID
	Name        string
	DueDate     string
	HasDueDate  bool
	Completed   bool
	Overdue     bool
	Placeholder string
}

// IsPlaceholder reports whether the row stands in for an empty list.
func (r GroceryRow) IsPlaceholder() bool { return r.Placeholder != "" }

// IsPlaceholder reports whether the row stands in for an empty list.
func (r TaskRow) IsPlaceholder() bool { return r.Placeholder != "" }

// Groceries derives display rows in collection order. items is not modified.
func Groceries(items []model.GroceryItem, today time.Time) []GroceryRow {
	if len(items) == 0 {
		return []GroceryRow{{Index: -1, Placeholder: EmptyGroceries}}
	}
	rows := make([]GroceryRow, 0, len(items))
	for i, item := range items {
		row := GroceryRow{
			Index:          i,
			Name:           item.Name,
			Expanded:       item.Expanded,
			PurchasedToday: item.PurchasedOn(today),
			HasHistory:     len(item.Purchases) > 0,
			PurchaseCount:  len(item.Purchases),
		}
		if row.HasHistory {
			row.LastBought = item.Purchases[len(item.Purchases)-1]
		}
		if item.Expanded && row.HasHistory {
			row.History = make([]string, len(item.Purchases))
			for j, ts := range item.Purchases {
				row.History[len(item.Purchases)-1-j] = ts
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Tasks derives display rows: incomplete before completed, dated before
// undated, then ascending by due date. The sort is stable and tasks is not
// modified.
func Tasks(tasks []model.Task, today time.Time) []TaskRow {
	if len(tasks) == 0 {
		return []TaskRow{{Index: -1, Placeholder: EmptyTasks}}
	}
	todayKey := model.DateKey(today)
	rows := make([]TaskRow, 0, len(tasks))
	for i, task := range tasks {
		due := task.Due()
		rows = append(rows, TaskRow{
			Index:      i,
			ID:         task.ID,
			Name:       task.Name,
			DueDate:    due,
			HasDueDate: due != "",
			Completed:  task.Completed,
			Overdue:    due != "" && !task.Completed && due < todayKey,
		})
	}
	sort.SliceStable(rows, func(a, b int) bool {
		ra, rb := rows[a], rows[b]
		if ra.Completed != rb.Completed {
			return !ra.Completed
		}
		if ra.HasDueDate != rb.HasDueDate {
			return ra.HasDueDate
		}
		return ra.DueDate < rb.DueDate
	})
	return rows
}
