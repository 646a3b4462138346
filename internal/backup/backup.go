// Package backup reads and writes JSON snapshots of both collections.
//
// A snapshot round-trips through the same bulk-save endpoints the reconciler
// uses for its fallbacks, so restoring one replaces all server data.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/five82/tracklist/internal/model"
)

// Version is written into every snapshot.
const Version = "1.0"

// ErrInvalidBackup is returned for files that are not a usable snapshot.
var ErrInvalidBackup = errors.New("invalid backup file format")

// Snapshot is the exported form of both collections.
type Snapshot struct {
	Groceries  []model.GroceryItem `json:"groceries"`
	Tasks      []model.Task        `json:"tasks"`
	ExportDate string              `json:"exportDate"`
	Version    string              `json:"version"`
}

// New builds a snapshot stamped with now.
func New(groceries []model.GroceryItem, tasks []model.Task, now time.Time) Snapshot {
	if groceries == nil {
		groceries = []model.GroceryItem{}
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return Snapshot{
		Groceries:  groceries,
		Tasks:      tasks,
		ExportDate: model.FormatTimestamp(now),
		Version:    Version,
	}
}

// FileName returns the default export file name for now.
func FileName(now time.Time) string {
	return fmt.Sprintf("tracklist-backup-%s.json", now.UTC().Format("2006-01-02"))
}

// Write encodes s as indented JSON.
func Write(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// WriteFile writes s to path, replacing any existing file.
func WriteFile(path string, s Snapshot) error {
	var buf bytes.Buffer
	if err := Write(&buf, s); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Parse validates and decodes a snapshot. Both collections must be present
// and every record must be an object; legacy record shapes are migrated.
// Nothing is returned unless the whole file is valid.
func Parse(data []byte, newID func() model.TaskID) (Snapshot, error) {
	var raw struct {
		Groceries  *[]json.RawMessage `json:"groceries"`
		Tasks      *[]json.RawMessage `json:"tasks"`
		ExportDate string             `json:"exportDate"`
		Version    string             `json:"version"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if raw.Groceries == nil || *raw.Groceries == nil {
		return Snapshot{}, fmt.Errorf("%w: missing groceries", ErrInvalidBackup)
	}
	if raw.Tasks == nil || *raw.Tasks == nil {
		return Snapshot{}, fmt.Errorf("%w: missing tasks", ErrInvalidBackup)
	}

	groceries, _ := model.MigrateGroceries(*raw.Groceries)
	if len(groceries) != len(*raw.Groceries) {
		return Snapshot{}, fmt.Errorf("%w: malformed grocery record", ErrInvalidBackup)
	}
	tasks, _ := model.MigrateTasks(*raw.Tasks, newID)
	if len(tasks) != len(*raw.Tasks) {
		return Snapshot{}, fmt.Errorf("%w: malformed task record", ErrInvalidBackup)
	}
	return Snapshot{
		Groceries:  groceries,
		Tasks:      tasks,
		ExportDate: raw.ExportDate,
		Version:    raw.Version,
	}, nil
}

// ReadFile parses the snapshot stored at path.
func ReadFile(path string, newID func() model.TaskID) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read backup: %w", err)
	}
	return Parse(data, newID)
}

// GrocerySaver replaces the grocery collection.
type GrocerySaver interface {
	SaveGroceries(ctx context.Context, items []model.GroceryItem) error
}

// TaskSaver replaces the task collection.
type TaskSaver interface {
	SaveTasks(ctx context.Context, tasks []model.Task) error
}

// Restore bulk-saves groceries, then tasks.
func Restore(ctx context.Context, s Snapshot, groceries GrocerySaver, tasks TaskSaver) error {
	if err := groceries.SaveGroceries(ctx, s.Groceries); err != nil {
		return fmt.Errorf("restore groceries: %w", err)
	}
	if err := tasks.SaveTasks(ctx, s.Tasks); err != nil {
		return fmt.Errorf("restore tasks: %w", err)
	}
	return nil
}
