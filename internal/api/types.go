package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Reply is a mutation response. The service answers some mutations with the
// affected record and others with the whole collection; Reply holds
// whichever arrived.
type Reply[T any] struct {
	Items  []T
	Item   *T
	IsList bool
}

// Empty reports whether the server sent no usable body.
func (r Reply[T]) Empty() bool {
	return !r.IsList && r.Item == nil
}

// UnmarshalJSON decodes an array into Items and an object into Item. null
// leaves the reply empty.
func (r *Reply[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*r = Reply[T]{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		if items == nil {
			items = []T{}
		}
		r.Items = items
		r.IsList = true
	case '{':
		var item T
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return err
		}
		r.Item = &item
	default:
		return fmt.Errorf("unexpected response %.20q", string(trimmed))
	}
	return nil
}

// Error is returned for non-2xx responses.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func newError(method, path string, status int, body []byte) *Error {
	e := &Error{Method: method, Path: path, Status: status}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Message = strings.TrimSpace(payload.Error)
	}
	return e
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
}

// UserMessage returns the server-supplied message carried by err, or
// fallback when there is none.
func UserMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
