package ui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tracklist/internal/reconcile"
)

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastWarning
	toastError
)

const (
	defaultToastTTL = 3 * time.Second
	shortToastTTL   = 2 * time.Second
)

type toast struct {
	id   int
	text string
	kind toastKind
}

type toastExpiredMsg struct{ id int }

// showToast replaces the current toast and schedules its removal.
func (m *Model) showToast(text string, kind toastKind, ttl time.Duration) tea.Cmd {
	if text == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultToastTTL
	}
	m.toastID++
	id := m.toastID
	m.toast = &toast{id: id, text: text, kind: kind}
	return tea.Tick(ttl, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })
}

// outcomeToast picks the toast for a finished reconciler operation.
func outcomeToast(out reconcile.Outcome, err error) (string, toastKind) {
	switch {
	case err == nil:
		return out.Message, toastSuccess
	case errors.Is(err, reconcile.ErrEmptyName),
		errors.Is(err, reconcile.ErrInvalidDueDate),
		errors.Is(err, reconcile.ErrDuplicate):
		return out.Message, toastWarning
	case errors.Is(err, reconcile.ErrNotFound):
		return "Item no longer exists", toastWarning
	case out.Message != "":
		return out.Message, toastError
	default:
		return "Something went wrong", toastError
	}
}
