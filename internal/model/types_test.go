package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"milk":        "Milk",
		"  MILK  ":    "Milk",
		"oat MILK":    "Oat milk",
		"":            "",
		"   ":         "",
		"éclair":      "Éclair",
		"1% milk":     "1% milk",
		"m":           "M",
		"pEANUT bUTR": "Peanut butr",
	}
	for in, want := range cases {
		if got := NormalizeName(in); got != want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTaskID_JSONRoundTripPreservesShape(t *testing.T) {
	cases := []struct {
		in   string
		want TaskID
	}{
		{`1700000000000.5`, "1700000000000.5"},
		{`"b7e0"`, "b7e0"},
		{`"123"`, "123"},
		{`null`, ""},
	}
	for _, tc := range cases {
		var id TaskID
		if err := json.Unmarshal([]byte(tc.in), &id); err != nil {
			t.Fatalf("Unmarshal(%s) returned error: %v", tc.in, err)
		}
		if id != tc.want {
			t.Fatalf("Unmarshal(%s) = %q, want %q", tc.in, id, tc.want)
		}
	}

	out, err := json.Marshal(Task{ID: "1700000000000.5", Name: "x"})
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(out) != `{"id":1700000000000.5,"name":"x","dueDate":null,"completed":false}` {
		t.Fatalf("Marshal = %s", out)
	}
	out, err = json.Marshal(Task{ID: "b7e0", Name: "x"})
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(out) != `{"id":"b7e0","name":"x","dueDate":null,"completed":false}` {
		t.Fatalf("Marshal = %s", out)
	}
}

func TestTask_IDKeepsShapeItArrivedIn(t *testing.T) {
	cases := map[string]string{
		`{"id":"42","name":"x","dueDate":null,"completed":false}`:   `{"id":"42","name":"x","dueDate":null,"completed":false}`,
		`{"id":42,"name":"x","dueDate":null,"completed":false}`:     `{"id":42,"name":"x","dueDate":null,"completed":false}`,
		`{"id":"-1.5","name":"x","dueDate":null,"completed":false}`: `{"id":"-1.5","name":"x","dueDate":null,"completed":false}`,
		`{"completed":true,"id":"b7e0","name":"x"}`:                 `{"id":"b7e0","name":"x","dueDate":null,"completed":true}`,
	}
	for in, want := range cases {
		var task Task
		if err := json.Unmarshal([]byte(in), &task); err != nil {
			t.Fatalf("Unmarshal(%s) returned error: %v", in, err)
		}
		out, err := json.Marshal(task)
		if err != nil {
			t.Fatalf("Marshal returned error: %v", err)
		}
		if string(out) != want {
			t.Fatalf("round trip of %s = %s, want %s", in, out, want)
		}
		again, err := json.Marshal(task.Clone())
		if err != nil || string(again) != want {
			t.Fatalf("clone round trip = %s (%v), want %s", again, err, want)
		}
	}
}

func TestTaskID_RejectsBool(t *testing.T) {
	var id TaskID
	if err := json.Unmarshal([]byte(`true`), &id); err == nil {
		t.Fatalf("Unmarshal(true) returned nil error, want error")
	}
}

func TestPurchaseIndexOn_UsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	today := time.Date(2025, 3, 10, 21, 0, 0, 0, loc)

	item := GroceryItem{Purchases: []string{
		"2025-03-09T12:00:00.000Z",
		// 01:30 UTC on the 11th is 20:30 on the 10th in UTC-5.
		"2025-03-11T01:30:00.000Z",
		"garbage",
	}}
	if got := item.PurchaseIndexOn(today); got != 1 {
		t.Fatalf("PurchaseIndexOn = %d, want 1", got)
	}
	if !item.PurchasedOn(today) {
		t.Fatalf("PurchasedOn = false, want true")
	}
	if item.PurchasedOn(today.AddDate(0, 0, 2)) {
		t.Fatalf("PurchasedOn two days later = true, want false")
	}
}

func TestParseTimestamp_Layouts(t *testing.T) {
	for _, value := range []string{"2025-12-13T10:11:12Z", "2025-12-13T10:11:12.345Z", "2025-12-13"} {
		got, ok := ParseTimestamp(value)
		if !ok {
			t.Fatalf("ParseTimestamp(%q) failed", value)
		}
		if got.Year() != 2025 || got.Month() != time.December || got.Day() != 13 {
			t.Fatalf("ParseTimestamp(%q) = %v, want 2025-12-13", value, got)
		}
	}
	if _, ok := ParseTimestamp("yesterday"); ok {
		t.Fatalf("ParseTimestamp(yesterday) succeeded, want failure")
	}
}

func TestCloneDoesNotShare(t *testing.T) {
	g := GroceryItem{Name: "Milk", Purchases: []string{"a"}}
	dup := g.Clone()
	dup.Purchases[0] = "b"
	if g.Purchases[0] != "a" {
		t.Fatalf("GroceryItem.Clone shares purchases")
	}

	due := "2025-01-01"
	task := Task{DueDate: &due}
	tdup := task.Clone()
	*tdup.DueDate = "2030-01-01"
	if *task.DueDate != "2025-01-01" {
		t.Fatalf("Task.Clone shares due date")
	}
}

func TestFormatTimestamp_IsParseable(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	s := FormatTimestamp(now)
	if s != "2025-06-01T08:30:00.000Z" {
		t.Fatalf("FormatTimestamp = %q", s)
	}
	got, ok := ParseTimestamp(s)
	if !ok || !got.Equal(now) {
		t.Fatalf("ParseTimestamp(FormatTimestamp) = %v, %v", got, ok)
	}
}
