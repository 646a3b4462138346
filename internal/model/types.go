package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	purchaseLayout = "2006-01-02T15:04:05.000Z07:00"
	dateLayout     = "2006-01-02"
)

// GroceryItem mirrors a grocery record in the current schema.
type GroceryItem struct {
	Name      string   `json:"name"`
	Purchases []string `json:"purchases"`
	Expanded  bool     `json:"expanded"`
}

// Clone returns a copy that shares no slices with g.
func (g GroceryItem) Clone() GroceryItem {
	dup := g
	dup.Purchases = make([]string, len(g.Purchases))
	copy(dup.Purchases, g.Purchases)
	return dup
}

// PurchasedOn reports whether any purchase falls on the calendar day of day.
func (g GroceryItem) PurchasedOn(day time.Time) bool {
	return g.PurchaseIndexOn(day) >= 0
}

// PurchaseIndexOn returns the index of the first purchase on the calendar day
// of day, or -1.
func (g GroceryItem) PurchaseIndexOn(day time.Time) int {
	for i, ts := range g.Purchases {
		t, ok := ParseTimestamp(ts)
		if ok && SameDay(t, day) {
			return i
		}
	}
	return -1
}

// Task mirrors a task record. Fields the client does not model are kept
// and written back with the record; see codec.go.
type Task struct {
	ID        TaskID
	Name      string
	DueDate   *string
	Completed bool

	// quotedID is set when the id arrived as a JSON string.
	quotedID bool
	extra    map[string]json.RawMessage
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	dup := t
	if t.DueDate != nil {
		due := *t.DueDate
		dup.DueDate = &due
	}
	if t.extra != nil {
		dup.extra = make(map[string]json.RawMessage, len(t.extra))
		for k, v := range t.extra {
			dup.extra[k] = v
		}
	}
	return dup
}

// Equal reports whether t and o hold the same values. Whether the id was
// quoted on the wire is not compared.
func (t Task) Equal(o Task) bool {
	if t.ID != o.ID || t.Name != o.Name || t.Completed != o.Completed {
		return false
	}
	if (t.DueDate == nil) != (o.DueDate == nil) || t.Due() != o.Due() {
		return false
	}
	if len(t.extra) != len(o.extra) {
		return false
	}
	for k, v := range t.extra {
		w, ok := o.extra[k]
		if !ok || !bytes.Equal(v, w) {
			return false
		}
	}
	return true
}

// Due returns the due date or the empty string.
func (t Task) Due() string {
	if t.DueDate == nil {
		return ""
	}
	return *t.DueDate
}

// TaskID is an opaque task identifier. Records written by older clients carry
// numeric ids. On its own a TaskID that reads as a number encodes as one; a
// Task additionally remembers ids that arrived quoted and keeps them quoted.
type TaskID string

// NewTaskID returns a fresh identifier.
func NewTaskID() TaskID {
	return TaskID(uuid.NewString())
}

// IsZero reports whether the id is absent.
func (id TaskID) IsZero() bool {
	return id == "" || id == "0"
}

// String implements fmt.Stringer.
func (id TaskID) String() string {
	return string(id)
}

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (id *TaskID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("task id: %w", err)
		}
		*id = TaskID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("task id: %w", err)
	}
	*id = TaskID(n.String())
	return nil
}

// MarshalJSON writes ids that read as numbers as numbers and everything else
// as strings.
func (id TaskID) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id TaskID) numeric() bool {
	s := string(id)
	if s == "" {
		return false
	}
	if s[0] != '-' && (s[0] < '0' || s[0] > '9') {
		return false
	}
	return json.Valid([]byte(s))
}

// NormalizeName trims name and returns it with the first letter upper case and
// the rest lower case.
func NormalizeName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(trimmed)
	return string(unicode.ToUpper(r)) + strings.ToLower(trimmed[size:])
}

// FormatTimestamp renders t the way purchases are stored.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(purchaseLayout)
}

// ParseTimestamp parses a stored purchase timestamp. Bare dates are read in
// local time.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	if t, err := time.ParseInLocation(dateLayout, value, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// SameDay reports whether t falls on the calendar day of day, evaluated in
// day's location.
func SameDay(t, day time.Time) bool {
	t = t.In(day.Location())
	ty, tm, td := t.Date()
	dy, dm, dd := day.Date()
	return ty == dy && tm == dm && td == dd
}

// DateKey formats day as YYYY-MM-DD in its own location.
func DateKey(day time.Time) string {
	return day.Format(dateLayout)
}

// ValidDate reports whether value is a YYYY-MM-DD calendar date.
func ValidDate(value string) bool {
	_, err := time.Parse(dateLayout, value)
	return err == nil
}
