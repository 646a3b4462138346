package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// MigrateGroceries normalizes persisted grocery records into the current
// schema. The flag reports whether a kept record had to be rewritten, in
// which case the result should be written back. Records that are not JSON
// objects are skipped and never set the flag; callers compare lengths before
// writing back. Fields with unexpected types are coerced rather than
// rejected.
func MigrateGroceries(raw []json.RawMessage) ([]GroceryItem, bool) {
	items := make([]GroceryItem, 0, len(raw))
	migrated := false
	for _, rec := range raw {
		var fields map[string]json.RawMessage
		if !isObject(rec) || json.Unmarshal(rec, &fields) != nil {
			continue
		}
		item := GroceryItem{Purchases: []string{}}
		item.Name, _ = looseString(fields["name"])
		if purchases, ok := loosePurchases(fields["purchases"]); ok {
			item.Purchases = purchases
			item.Expanded = truthy(fields["expanded"])
		} else if last, ok := looseString(fields["lastBought"]); ok && last != "" {
			item.Purchases = []string{last}
			migrated = true
		}
		items = append(items, item)
	}
	return items, migrated
}

// loosePurchases reads a purchases array. Entries that are neither strings
// nor numbers are skipped. A missing, null or non-array value reports false.
func loosePurchases(raw json.RawMessage) ([]string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var entries []json.RawMessage
	if json.Unmarshal(trimmed, &entries) != nil {
		return nil, false
	}
	purchases := make([]string, 0, len(entries))
	for _, entry := range entries {
		if ts, ok := looseString(entry); ok {
			purchases = append(purchases, ts)
		}
	}
	return purchases, true
}

// MigrateTasks decodes persisted task records and assigns an id to every
// record that lacks one. Other fields, including ones the client does not
// model, pass through. Non-object records are skipped as in MigrateGroceries.
func MigrateTasks(raw []json.RawMessage, newID func() TaskID) ([]Task, bool) {
	if newID == nil {
		newID = NewTaskID
	}
	tasks := make([]Task, 0, len(raw))
	migrated := false
	for _, rec := range raw {
		var task Task
		if !isObject(rec) || json.Unmarshal(rec, &task) != nil {
			continue
		}
		if task.ID.IsZero() {
			task.ID = newID()
			task.quotedID = false
			migrated = true
		}
		tasks = append(tasks, NormalizeTask(task))
	}
	return tasks, migrated
}

// NormalizeTask folds an empty due date into null.
func NormalizeTask(t Task) Task {
	if t.DueDate != nil && strings.TrimSpace(*t.DueDate) == "" {
		t.DueDate = nil
	}
	return t
}

// NormalizeGrocery guarantees a non-nil purchase list.
func NormalizeGrocery(g GroceryItem) GroceryItem {
	if g.Purchases == nil {
		g.Purchases = []string{}
	}
	return g
}

func isObject(rec json.RawMessage) bool {
	s := strings.TrimSpace(string(rec))
	return strings.HasPrefix(s, "{")
}
