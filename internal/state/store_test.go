package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/tracklist/internal/model"
)

func TestCollection_SnapshotIsDeepCopy(t *testing.T) {
	s := NewStore()
	s.Groceries.Replace([]model.GroceryItem{{Name: "Milk", Purchases: []string{"a"}}})

	snap := s.Groceries.Snapshot()
	snap[0].Purchases[0] = "mutated"
	snap[0].Name = "Other"

	again := s.Groceries.Snapshot()
	if again[0].Name != "Milk" || again[0].Purchases[0] != "a" {
		t.Fatalf("Snapshot should deep-copy items; got %#v", again[0])
	}
}

func TestCollection_ReplaceCopiesInput(t *testing.T) {
	s := NewStore()
	due := "2025-01-01"
	input := []model.Task{{ID: "1", Name: "A", DueDate: &due}}
	s.Tasks.Replace(input)

	*input[0].DueDate = "2030-01-01"
	input[0].Name = "changed"

	got := s.Tasks.Snapshot()
	if got[0].Name != "A" || *got[0].DueDate != "2025-01-01" {
		t.Fatalf("Replace should copy input; got %#v", got[0])
	}
}

func TestCollection_UpdateNilBecomesEmpty(t *testing.T) {
	s := NewStore()
	s.Groceries.Replace([]model.GroceryItem{{Name: "Milk"}})

	before := time.Now()
	s.Groceries.Update(func(items []model.GroceryItem) []model.GroceryItem { return nil })

	snap := s.Groceries.Snapshot()
	if snap == nil || len(snap) != 0 {
		t.Fatalf("Snapshot = %#v, want empty non-nil slice", snap)
	}
	if s.Groceries.LastUpdated().Before(before) {
		t.Fatalf("LastUpdated not advanced by Update")
	}
}

func TestStore_FailuresKeepDataAndCloneError(t *testing.T) {
	s := NewStore()
	s.Groceries.Replace([]model.GroceryItem{{Name: "Milk"}})

	origErr := errors.New("boom")
	s.RecordFailure(origErr)
	snap := s.Snapshot()
	if len(snap.Groceries) != 1 {
		t.Fatalf("groceries changed on failure: %#v", snap.Groceries)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
	if snap.IsOffline() {
		t.Fatalf("IsOffline() = true after one failure")
	}

	s.RecordFailure(errors.New("again"))
	if !s.Snapshot().IsOffline() {
		t.Fatalf("IsOffline() = false after two failures")
	}

	s.RecordFailure(nil)
	if got := s.Snapshot().ConsecutiveFailures; got != 2 {
		t.Fatalf("ConsecutiveFailures = %d, want 2 (nil error ignored)", got)
	}

	s.RecordSuccess()
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.LastError != nil || snap.LastSync.IsZero() {
		t.Fatalf("after success: %#v", snap)
	}
}
