package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// UnmarshalJSON decodes a task record. Known fields are read loosely so a
// record with an odd value is kept rather than rejected: a number or bool is
// taken as text for name and dueDate, completed follows truthiness, and an id
// that is neither a string nor a number counts as missing. Unknown fields are
// kept verbatim.
func (t *Task) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return fmt.Errorf("task: %w", err)
	}

	var out Task
	for key, raw := range fields {
		switch key {
		case "id":
			var id TaskID
			if json.Unmarshal(raw, &id) == nil {
				out.ID = id
				out.quotedID = isQuoted(raw)
			}
		case "name":
			out.Name, _ = looseString(raw)
		case "dueDate":
			if due, ok := looseString(raw); ok {
				out.DueDate = &due
			}
		case "completed":
			out.Completed = truthy(raw)
		default:
			var buf bytes.Buffer
			if err := json.Compact(&buf, raw); err != nil {
				return fmt.Errorf("task field %q: %w", key, err)
			}
			if out.extra == nil {
				out.extra = make(map[string]json.RawMessage)
			}
			out.extra[key] = buf.Bytes()
		}
	}
	*t = out
	return nil
}

// MarshalJSON writes id, name, dueDate and completed followed by any kept
// fields in key order. An empty id is omitted.
func (t Task) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if t.ID != "" {
		id, err := t.encodeID()
		if err != nil {
			return nil, err
		}
		buf.WriteString(`"id":`)
		buf.Write(id)
		buf.WriteByte(',')
	}
	name, err := json.Marshal(t.Name)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"name":`)
	buf.Write(name)

	buf.WriteString(`,"dueDate":`)
	if t.DueDate == nil {
		buf.WriteString("null")
	} else {
		due, err := json.Marshal(*t.DueDate)
		if err != nil {
			return nil, err
		}
		buf.Write(due)
	}
	buf.WriteString(`,"completed":`)
	buf.WriteString(strconv.FormatBool(t.Completed))

	for _, key := range slices.Sorted(maps.Keys(t.extra)) {
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(t.extra[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (t Task) encodeID() ([]byte, error) {
	if t.quotedID {
		return json.Marshal(string(t.ID))
	}
	return t.ID.MarshalJSON()
}

func isQuoted(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}

// looseString reads a JSON string, or the literal text of a number or bool.
// null, arrays and objects report false.
func looseString(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	switch c := trimmed[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return s, true
	case c == '-' || (c >= '0' && c <= '9') || c == 't' || c == 'f':
		if json.Valid(trimmed) {
			return string(trimmed), true
		}
	}
	return "", false
}

// truthy reports false for false, 0, "", null and absent values and true for
// anything else.
func truthy(raw json.RawMessage) bool {
	var v any
	if json.Unmarshal(raw, &v) != nil {
		return false
	}
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}
