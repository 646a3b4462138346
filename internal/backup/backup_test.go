package backup

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/tracklist/internal/model"
)

func fixedID() model.TaskID { return "generated" }

func TestWriteParseRoundTrip(t *testing.T) {
	due := "2025-04-01"
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	snap := New(
		[]model.GroceryItem{{Name: "Milk", Purchases: []string{"2025-03-01T09:00:00.000Z"}, Expanded: true}},
		[]model.Task{{ID: "1700000000000.5", Name: "Pay rent", DueDate: &due}},
		now,
	)

	var buf bytes.Buffer
	if err := Write(&buf, snap); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"groceries\": [") {
		t.Fatalf("output not indented:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), `"id": 1700000000000.5`) {
		t.Fatalf("numeric id not preserved:\n%s", buf.String())
	}

	got, err := Parse(buf.Bytes(), fixedID)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if diff := cmp.Diff(snap, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	if got.Version != Version || got.ExportDate != "2025-03-10T12:00:00.000Z" {
		t.Fatalf("metadata = %q/%q", got.Version, got.ExportDate)
	}
}

func TestNew_EmptyCollectionsEncodeAsArrays(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, New(nil, nil, time.Now())); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if strings.Contains(buf.String(), "null") {
		t.Fatalf("empty snapshot contains null:\n%s", buf.String())
	}
}

func TestParse_MigratesLegacyRecords(t *testing.T) {
	data := []byte(`{"groceries":[{"name":"Bread","lastBought":"2024-12-24T09:00:00.000Z"}],"tasks":[{"name":"Call mom","dueDate":null,"completed":false}]}`)
	got, err := Parse(data, fixedID)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"2024-12-24T09:00:00.000Z"}, got.Groceries[0].Purchases); diff != "" {
		t.Fatalf("purchases mismatch (-want +got):\n%s", diff)
	}
	if got.Tasks[0].ID != "generated" {
		t.Fatalf("task id = %q, want generated", got.Tasks[0].ID)
	}
}

func TestParse_RejectsInvalidFiles(t *testing.T) {
	cases := map[string]string{
		"not json":          `{"groceries":`,
		"missing groceries": `{"tasks":[]}`,
		"missing tasks":     `{"groceries":[]}`,
		"null tasks":        `{"groceries":[],"tasks":null}`,
		"grocery not obj":   `{"groceries":["Milk"],"tasks":[]}`,
		"task not obj":      `{"groceries":[],"tasks":[42]}`,
		"wrong type":        `{"groceries":{},"tasks":[]}`,
	}
	for name, body := range cases {
		if _, err := Parse([]byte(body), fixedID); !errors.Is(err, ErrInvalidBackup) {
			t.Fatalf("%s: Parse error = %v, want ErrInvalidBackup", name, err)
		}
	}
}

func TestWriteFileReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName(time.Date(2026, 1, 30, 23, 0, 0, 0, time.UTC)))
	if filepath.Base(path) != "tracklist-backup-2026-01-30.json" {
		t.Fatalf("FileName = %q", filepath.Base(path))
	}
	snap := New([]model.GroceryItem{{Name: "Milk", Purchases: []string{}}}, nil, time.Now())
	if err := WriteFile(path, snap); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}
	got, err := ReadFile(path, fixedID)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	if len(got.Groceries) != 1 || len(got.Tasks) != 0 {
		t.Fatalf("ReadFile = %#v", got)
	}
}

type recordingSaver struct {
	calls []string
	err   error
}

func (r *recordingSaver) SaveGroceries(ctx context.Context, items []model.GroceryItem) error {
	r.calls = append(r.calls, "groceries")
	return r.err
}

func (r *recordingSaver) SaveTasks(ctx context.Context, tasks []model.Task) error {
	r.calls = append(r.calls, "tasks")
	return nil
}

func TestRestore_SavesGroceriesThenTasks(t *testing.T) {
	saver := &recordingSaver{}
	if err := Restore(context.Background(), New(nil, nil, time.Now()), saver, saver); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"groceries", "tasks"}, saver.calls); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}

	failing := &recordingSaver{err: errors.New("down")}
	err := Restore(context.Background(), New(nil, nil, time.Now()), failing, failing)
	if err == nil || !strings.Contains(err.Error(), "restore groceries") {
		t.Fatalf("Restore error = %v, want restore groceries failure", err)
	}
	if len(failing.calls) != 1 {
		t.Fatalf("tasks saved after groceries failed: %v", failing.calls)
	}
}
