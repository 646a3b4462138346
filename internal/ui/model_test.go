package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tracklist/internal/model"
	"github.com/five82/tracklist/internal/prefs"
	"github.com/five82/tracklist/internal/reconcile"
	"github.com/five82/tracklist/internal/state"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu   sync.Mutex
	snap state.Snapshot
}

func (f *fakeSource) Snapshot() state.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSource) set(fn func(*state.Snapshot)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.snap)
}

type fakeGroceries struct {
	src   *fakeSource
	calls []string
	err   error
}

func (f *fakeGroceries) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeGroceries) Add(_ context.Context, name string) (reconcile.Outcome, error) {
	f.record("add %s", name)
	if f.err != nil {
		return reconcile.Outcome{Message: "Failed to add grocery item"}, f.err
	}
	f.src.set(func(s *state.Snapshot) {
		s.Groceries = append(s.Groceries, model.GroceryItem{Name: name, Purchases: []string{}})
	})
	return reconcile.Outcome{Message: fmt.Sprintf("Added %q to grocery list", name)}, nil
}

func (f *fakeGroceries) TogglePurchase(_ context.Context, name string, checked bool) (reconcile.Outcome, error) {
	f.record("purchase %s %v", name, checked)
	return reconcile.Outcome{Message: fmt.Sprintf("Recorded purchase of %q", name)}, f.err
}

func (f *fakeGroceries) ToggleExpanded(_ context.Context, name string) (reconcile.Outcome, error) {
	f.record("expand %s", name)
	return reconcile.Outcome{}, f.err
}

func (f *fakeGroceries) Delete(_ context.Context, index int) (reconcile.Outcome, error) {
	f.record("delete %d", index)
	return reconcile.Outcome{Message: "Deleted"}, f.err
}

func (f *fakeGroceries) ResetAll(context.Context) (reconcile.Outcome, error) {
	f.record("reset")
	return reconcile.Outcome{Message: "Grocery list reset successfully"}, f.err
}

func (f *fakeGroceries) Rename(_ context.Context, index int, newName string) (reconcile.Outcome, error) {
	f.record("rename %d %s", index, newName)
	return reconcile.Outcome{Message: "Renamed"}, f.err
}

func (f *fakeGroceries) ClearHistory(_ context.Context, name string) (reconcile.Outcome, error) {
	f.record("clear %s", name)
	return reconcile.Outcome{Message: "Cleared"}, f.err
}

func (f *fakeGroceries) SaveGroceries(_ context.Context, items []model.GroceryItem) error {
	f.record("save %d", len(items))
	return f.err
}

type fakeTasks struct {
	calls []string
}

func (f *fakeTasks) Add(_ context.Context, name, dueDate string) (reconcile.Outcome, error) {
	f.calls = append(f.calls, fmt.Sprintf("add %s %s", name, dueDate))
	return reconcile.Outcome{Message: "Added task"}, nil
}

func (f *fakeTasks) ToggleCompleted(_ context.Context, id model.TaskID) (reconcile.Outcome, error) {
	f.calls = append(f.calls, "toggle "+id.String())
	return reconcile.Outcome{Message: "Task completed"}, nil
}

func (f *fakeTasks) Delete(_ context.Context, index int) (reconcile.Outcome, error) {
	f.calls = append(f.calls, fmt.Sprintf("delete %d", index))
	return reconcile.Outcome{Message: "Deleted"}, nil
}

func (f *fakeTasks) ResetAll(context.Context) (reconcile.Outcome, error) {
	f.calls = append(f.calls, "reset")
	return reconcile.Outcome{Message: "Task list reset successfully"}, nil
}

func (f *fakeTasks) SaveTasks(_ context.Context, tasks []model.Task) error {
	f.calls = append(f.calls, fmt.Sprintf("save %d", len(tasks)))
	return nil
}

// readyChan opens the gate and reports both loads at once when closed.
type readyChan chan struct{}

func (r readyChan) Done() <-chan struct{}            { return r }
func (r readyChan) GroceriesLoaded() <-chan struct{} { return r }
func (r readyChan) TasksLoaded() <-chan struct{}     { return r }

// lateReadiness opens on timeout before either load has finished.
type lateReadiness struct {
	done, groceries, tasks chan struct{}
}

func (r lateReadiness) Done() <-chan struct{}            { return r.done }
func (r lateReadiness) GroceriesLoaded() <-chan struct{} { return r.groceries }
func (r lateReadiness) TasksLoaded() <-chan struct{}     { return r.tasks }

type harness struct {
	src       *fakeSource
	groceries *fakeGroceries
	tasks     *fakeTasks
	prefsPath string
}

func newModel(t *testing.T, page Page, snap state.Snapshot) (Model, *harness) {
	t.Helper()
	src := &fakeSource{snap: snap}
	h := &harness{
		src:       src,
		groceries: &fakeGroceries{src: src},
		tasks:     &fakeTasks{},
		prefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	}
	m := New(Options{
		Store:     src,
		Groceries: h.groceries,
		Tasks:     h.tasks,
		Now:       func() time.Time { return testNow },
		Page:      page,
		ThemeName: "Slate",
		PrefsPath: h.prefsPath,
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model), h
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m Model, k string) (Model, tea.Cmd) {
	next, cmd := m.Update(keyMsg(k))
	return next.(Model), cmd
}

// step runs cmd once and feeds its message back into the model. It must
// only be used for commands that return immediately.
func step(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command, got nil")
	}
	next, out := m.Update(cmd())
	return next.(Model), out
}

func groceriesSnapshot() state.Snapshot {
	return state.Snapshot{Groceries: []model.GroceryItem{
		{Name: "Milk", Purchases: []string{}},
		{Name: "Eggs", Purchases: []string{"2025-06-01T08:00:00.000Z"}},
	}}
}

func TestModel_LoadingOverlayUntilReady(t *testing.T) {
	ready := make(readyChan)
	src := &fakeSource{snap: groceriesSnapshot()}
	m := New(Options{Store: src, Ready: ready, Now: func() time.Time { return testNow }, PrefsPath: filepath.Join(t.TempDir(), "p.toml")})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	m = next.(Model)

	if !m.loading || len(m.snapshot.Groceries) != 0 {
		t.Fatalf("model should be loading with no rows yet")
	}
	if !strings.Contains(m.View(), "Loading your lists") {
		t.Fatalf("loading overlay not shown")
	}
	m, _ = press(m, "2")
	if m.page != PageHome {
		t.Fatalf("navigation accepted while loading")
	}

	close(ready)
	cmd := waitReadyCmd(context.Background(), ready)
	m, _ = step(t, m, cmd)
	if m.loading {
		t.Fatalf("model still loading after ready")
	}
	if len(m.snapshot.Groceries) != 2 {
		t.Fatalf("snapshot not refreshed after ready: %#v", m.snapshot.Groceries)
	}
}

func TestModel_WaitReadyReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := waitReadyCmd(ctx, make(readyChan))().(readyMsg); !ok {
		t.Fatalf("waitReadyCmd did not return readyMsg after cancel")
	}
}

func TestModel_RepaintsWhenLoadFinishesAfterTimeout(t *testing.T) {
	ready := lateReadiness{done: make(chan struct{}), groceries: make(chan struct{}), tasks: make(chan struct{})}
	src := &fakeSource{}
	m := New(Options{Store: src, Ready: ready, Page: PageGroceries, Now: func() time.Time { return testNow }, PrefsPath: filepath.Join(t.TempDir(), "p.toml")})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	m = next.(Model)

	close(ready.done)
	m, _ = step(t, m, waitReadyCmd(context.Background(), ready))
	if !strings.Contains(m.View(), "Your grocery list is empty") {
		t.Fatalf("expected the empty placeholder after the timeout:\n%s", m.View())
	}

	src.set(func(s *state.Snapshot) { *s = groceriesSnapshot() })
	close(ready.groceries)
	m, _ = step(t, m, waitLoadedCmd(context.Background(), ready.GroceriesLoaded(), "groceries"))
	view := m.View()
	if !strings.Contains(view, "Milk") || strings.Contains(view, "Your grocery list is empty") {
		t.Fatalf("late grocery load not painted:\n%s", view)
	}
}

func TestModel_WaitLoadedYieldsNothingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if msg := waitLoadedCmd(ctx, make(chan struct{}), "tasks")(); msg != nil {
		t.Fatalf("waitLoadedCmd = %#v after cancel, want nil", msg)
	}
}

func TestModel_TogglePurchaseMarksRowInFlight(t *testing.T) {
	m, h := newModel(t, PageGroceries, groceriesSnapshot())

	m, cmd := press(m, " ")
	if cmd == nil || !m.busy(groceryKey("Milk")) {
		t.Fatalf("space did not start a request for Milk")
	}
	if _, again := press(m, " "); again != nil {
		t.Fatalf("row accepted input while in flight")
	}

	m, _ = step(t, m, cmd)
	if m.busy(groceryKey("Milk")) {
		t.Fatalf("row still in flight after result")
	}
	if len(h.groceries.calls) != 1 || h.groceries.calls[0] != "purchase Milk true" {
		t.Fatalf("calls = %v", h.groceries.calls)
	}
	if m.toast == nil || m.toast.kind != toastSuccess || !strings.Contains(m.toast.text, "Milk") {
		t.Fatalf("toast = %#v, want success for Milk", m.toast)
	}
}

func TestModel_OtherRowsStayUsableWhileOneIsInFlight(t *testing.T) {
	m, h := newModel(t, PageGroceries, groceriesSnapshot())

	m, first := press(m, " ")
	m, _ = press(m, "j")
	m, second := press(m, "enter")
	if first == nil || second == nil {
		t.Fatalf("expected two independent requests")
	}
	m, _ = step(t, m, second)
	m, _ = step(t, m, first)
	if len(m.inFlight) != 0 {
		t.Fatalf("inFlight = %v, want empty", m.inFlight)
	}
	if got := strings.Join(h.groceries.calls, ","); got != "expand Eggs,purchase Milk true" {
		t.Fatalf("calls = %s", got)
	}
}

func TestModel_DeleteRequiresConfirmation(t *testing.T) {
	m, h := newModel(t, PageGroceries, groceriesSnapshot())
	m, _ = press(m, "j")

	m, _ = press(m, "d")
	if m.modal == nil {
		t.Fatalf("delete did not open a confirmation")
	}
	m, cmd := press(m, "n")
	if m.modal != nil || cmd != nil {
		t.Fatalf("cancel left the modal open or issued a command")
	}

	m, _ = press(m, "d")
	m, cmd = press(m, "y")
	if m.modal != nil {
		t.Fatalf("confirm did not close the modal")
	}
	m, cmd = step(t, m, cmd) // actionMsg
	if !m.busy(groceryKey("Eggs")) {
		t.Fatalf("confirmed delete did not mark Eggs in flight")
	}
	_, _ = step(t, m, cmd)
	if len(h.groceries.calls) != 1 || h.groceries.calls[0] != "delete 1" {
		t.Fatalf("calls = %v, want [delete 1]", h.groceries.calls)
	}
}

func TestModel_DeleteResolvesIndexWhenConfirmed(t *testing.T) {
	m, h := newModel(t, PageGroceries, groceriesSnapshot())
	m, _ = press(m, "j")
	m, _ = press(m, "d")
	m, cmd := press(m, "y")

	// Milk disappears between opening and confirming the dialog.
	h.src.set(func(s *state.Snapshot) { s.Groceries = s.Groceries[1:] })

	m, cmd = step(t, m, cmd)
	_, _ = step(t, m, cmd)
	if len(h.groceries.calls) != 1 || h.groceries.calls[0] != "delete 0" {
		t.Fatalf("calls = %v, want [delete 0]", h.groceries.calls)
	}
}

func TestModel_AddThroughInputModal(t *testing.T) {
	m, h := newModel(t, PageGroceries, groceriesSnapshot())

	m, _ = press(m, "a")
	if _, ok := m.modal.(*inputModal); !ok {
		t.Fatalf("modal = %T, want *inputModal", m.modal)
	}
	m, _ = press(m, "q") // typed into the field, not quit
	m, _ = press(m, "uinoa")
	m, cmd := press(m, "enter")
	m, cmd = step(t, m, cmd)
	if !m.busy(groceryAddKey) {
		t.Fatalf("add control not marked in flight")
	}
	m, _ = step(t, m, cmd)

	if len(h.groceries.calls) != 1 || h.groceries.calls[0] != "add quinoa" {
		t.Fatalf("calls = %v", h.groceries.calls)
	}
	if len(m.snapshot.Groceries) != 3 {
		t.Fatalf("snapshot not refreshed after add: %#v", m.snapshot.Groceries)
	}
}

func TestModel_FailureShowsErrorToast(t *testing.T) {
	m, h := newModel(t, PageGroceries, groceriesSnapshot())
	h.groceries.err = errors.New("boom")

	m, _ = press(m, "a")
	m, _ = press(m, "Tea")
	m, cmd := press(m, "enter")
	m, cmd = step(t, m, cmd)
	m, _ = step(t, m, cmd)

	if m.toast == nil || m.toast.kind != toastError || m.toast.text != "Failed to add grocery item" {
		t.Fatalf("toast = %#v, want error toast", m.toast)
	}
}

func TestModel_TaskToggleFollowsDisplayOrder(t *testing.T) {
	due := "2025-06-20"
	snap := state.Snapshot{Tasks: []model.Task{
		{ID: "1", Name: "Undated"},
		{ID: "2", Name: "Dated", DueDate: &due},
	}}
	m, h := newModel(t, PageTasks, snap)

	m, cmd := press(m, " ")
	if !m.busy(taskKey("2", 1)) {
		t.Fatalf("toggle did not target the first displayed task")
	}
	m, _ = step(t, m, cmd)
	if len(h.tasks.calls) != 1 || h.tasks.calls[0] != "toggle 2" {
		t.Fatalf("calls = %v, want [toggle 2]", h.tasks.calls)
	}

	m, _ = press(m, "j")
	m, _ = press(m, "d")
	m, cmd = press(m, "y")
	m, cmd = step(t, m, cmd)
	_, _ = step(t, m, cmd)
	if h.tasks.calls[1] != "delete 0" {
		t.Fatalf("calls = %v, want delete of collection index 0", h.tasks.calls)
	}
}

func TestModel_AddTaskWithDueDate(t *testing.T) {
	m, h := newModel(t, PageTasks, state.Snapshot{})

	m, _ = press(m, "a")
	m, _ = press(m, "Pay rent")
	m, _ = press(m, "tab")
	m, _ = press(m, "2025-07-01")
	m, cmd := press(m, "enter")
	m, cmd = step(t, m, cmd)
	_, _ = step(t, m, cmd)

	if len(h.tasks.calls) != 1 || h.tasks.calls[0] != "add Pay rent 2025-07-01" {
		t.Fatalf("calls = %v", h.tasks.calls)
	}
}

func TestModel_ResetDisablesListUntilDone(t *testing.T) {
	m, h := newModel(t, PageGroceries, groceriesSnapshot())

	m, _ = press(m, "R")
	m, cmd := press(m, "y")
	m, cmd = step(t, m, cmd)
	if _, blocked := press(m, " "); blocked != nil {
		t.Fatalf("row accepted input while the list reset is in flight")
	}
	_, _ = step(t, m, cmd)
	if len(h.groceries.calls) != 1 || h.groceries.calls[0] != "reset" {
		t.Fatalf("calls = %v", h.groceries.calls)
	}
}

func TestModel_NavigationPersistsLastPage(t *testing.T) {
	m, h := newModel(t, PageHome, state.Snapshot{})

	m, _ = press(m, "3")
	if m.page != PageTasks {
		t.Fatalf("page = %v, want tasks", m.page)
	}
	p, _ := prefs.Load(h.prefsPath)
	if p.LastPage != "tasks" || p.Theme != "Slate" {
		t.Fatalf("prefs = %#v, want tasks/Slate", p)
	}

	m, _ = press(m, "T")
	p, _ = prefs.Load(h.prefsPath)
	if p.Theme != "Nightfox" || m.theme.Name != "Nightfox" {
		t.Fatalf("theme not cycled and saved: %#v", p)
	}

	m, _ = press(m, "tab")
	if m.page != PageHome {
		t.Fatalf("tab from tasks = %v, want home", m.page)
	}
}

func TestModel_ToastExpiresOnlyForItsOwnID(t *testing.T) {
	m, _ := newModel(t, PageHome, state.Snapshot{})
	_ = m.showToast("first", toastInfo, time.Hour)
	_ = m.showToast("second", toastInfo, time.Hour)

	next, _ := m.Update(toastExpiredMsg{id: 1})
	m = next.(Model)
	if m.toast == nil || m.toast.text != "second" {
		t.Fatalf("stale expiry removed the newer toast: %#v", m.toast)
	}
	next, _ = m.Update(toastExpiredMsg{id: 2})
	if next.(Model).toast != nil {
		t.Fatalf("toast not removed on expiry")
	}
}

func TestModel_ViewRendersEveryPage(t *testing.T) {
	due := "2025-06-01"
	snap := groceriesSnapshot()
	snap.Groceries[1].Expanded = true
	snap.Tasks = []model.Task{{ID: "1", Name: "Overdue task", DueDate: &due}}
	snap.LastSync = testNow.Add(-30 * time.Second)

	cases := map[Page][]string{
		PageHome:      {"tracklist", "2 items", "1 open", "1 overdue"},
		PageGroceries: {"Milk", "Eggs", "Never bought", "Jun 1, 2025"},
		PageTasks:     {"Overdue task", "Overdue · 2025-06-01"},
	}
	for page, wants := range cases {
		m, _ := newModel(t, page, snap)
		out := m.View()
		for _, want := range wants {
			if !strings.Contains(out, want) {
				t.Fatalf("%s view missing %q:\n%s", page, want, out)
			}
		}
	}
}

func TestModel_EmptyPagesShowPlaceholders(t *testing.T) {
	m, _ := newModel(t, PageGroceries, state.Snapshot{})
	if out := m.View(); !strings.Contains(out, "Your grocery list is empty") {
		t.Fatalf("grocery placeholder missing:\n%s", out)
	}
	m, _ = newModel(t, PageTasks, state.Snapshot{})
	if out := m.View(); !strings.Contains(out, "You're all caught up") {
		t.Fatalf("task placeholder missing:\n%s", out)
	}
}

func TestOutcomeToast(t *testing.T) {
	cases := []struct {
		name     string
		out      reconcile.Outcome
		err      error
		wantText string
		wantKind toastKind
	}{
		{"success", reconcile.Outcome{Message: "Deleted"}, nil, "Deleted", toastSuccess},
		{"duplicate", reconcile.Outcome{Message: "Item already exists"}, fmt.Errorf("add: %w", reconcile.ErrDuplicate), "Item already exists", toastWarning},
		{"missing", reconcile.Outcome{}, reconcile.ErrNotFound, "Item no longer exists", toastWarning},
		{"fallback", reconcile.Outcome{Message: "Failed to delete grocery", Fallback: true}, errors.New("500"), "Failed to delete grocery", toastError},
		{"bare error", reconcile.Outcome{}, errors.New("boom"), "Something went wrong", toastError},
	}
	for _, tc := range cases {
		text, kind := outcomeToast(tc.out, tc.err)
		if text != tc.wantText || kind != tc.wantKind {
			t.Fatalf("%s: outcomeToast = %q/%v, want %q/%v", tc.name, text, kind, tc.wantText, tc.wantKind)
		}
	}
}
