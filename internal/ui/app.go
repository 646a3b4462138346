package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/tracklist/internal/model"
	"github.com/five82/tracklist/internal/prefs"
	"github.com/five82/tracklist/internal/reconcile"
	"github.com/five82/tracklist/internal/state"
)

// GroceryActions is the grocery reconciler as seen by the UI.
type GroceryActions interface {
	Add(ctx context.Context, name string) (reconcile.Outcome, error)
	TogglePurchase(ctx context.Context, name string, checked bool) (reconcile.Outcome, error)
	ToggleExpanded(ctx context.Context, name string) (reconcile.Outcome, error)
	Delete(ctx context.Context, index int) (reconcile.Outcome, error)
	ResetAll(ctx context.Context) (reconcile.Outcome, error)
	Rename(ctx context.Context, index int, newName string) (reconcile.Outcome, error)
	ClearHistory(ctx context.Context, name string) (reconcile.Outcome, error)
	SaveGroceries(ctx context.Context, items []model.GroceryItem) error
}

// TaskActions is the task reconciler as seen by the UI.
type TaskActions interface {
	Add(ctx context.Context, name, dueDate string) (reconcile.Outcome, error)
	ToggleCompleted(ctx context.Context, id model.TaskID) (reconcile.Outcome, error)
	Delete(ctx context.Context, index int) (reconcile.Outcome, error)
	ResetAll(ctx context.Context) (reconcile.Outcome, error)
	SaveTasks(ctx context.Context, tasks []model.Task) error
}

var (
	_ GroceryActions = (*reconcile.Groceries)(nil)
	_ TaskActions    = (*reconcile.Tasks)(nil)
)

// Source provides the data the UI paints.
type Source interface {
	Snapshot() state.Snapshot
}

// Readiness reports when the initial load has settled. The per-collection
// channels close when that collection's load finishes, which may be after
// Done when the safety timer fired first.
type Readiness interface {
	Done() <-chan struct{}
	GroceriesLoaded() <-chan struct{}
	TasksLoaded() <-chan struct{}
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     Source
	Groceries GroceryActions
	Tasks     TaskActions
	Ready     Readiness // nil means already loaded
	Logger    *zap.Logger
	Now       func() time.Time
	Page      Page
	ThemeName string
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	store     Source
	groceries GroceryActions
	tasks     TaskActions
	ready     Readiness
	log       *zap.Logger
	now       func() time.Time
	prefsPath string
	keys      keyMap

	// UI state
	theme    Theme
	page     Page
	width    int
	height   int
	sized    bool
	loading  bool
	spinner  spinner.Model
	showHelp bool
	modal    Modal

	// Data state
	snapshot      state.Snapshot
	groceryCursor int
	taskCursor    int

	// inFlight holds the keys of rows whose request has not returned yet.
	inFlight map[string]bool

	toast   *toast
	toastID int
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := Model{
		ctx:       ctx,
		store:     opts.Store,
		groceries: opts.Groceries,
		tasks:     opts.Tasks,
		ready:     opts.Ready,
		log:       log.With(zap.String("component", "ui")),
		now:       now,
		prefsPath: prefsPath,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(opts.ThemeName),
		page:      opts.Page,
		loading:   opts.Ready != nil,
		spinner:   spin,
		inFlight:  make(map[string]bool),
	}
	if !m.loading {
		m.refresh()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if !m.loading {
		return nil
	}
	return tea.Batch(
		m.spinner.Tick,
		waitReadyCmd(m.ctx, m.ready),
		waitLoadedCmd(m.ctx, m.ready.GroceriesLoaded(), "groceries"),
		waitLoadedCmd(m.ctx, m.ready.TasksLoaded(), "tasks"),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sized = true
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case readyMsg:
		m.loading = false
		m.refresh()
		m.log.Debug("initial load settled", zap.String("page", m.page.String()))
		return m, nil

	case loadedMsg:
		if !m.loading {
			m.refresh()
		}
		m.log.Debug("collection loaded", zap.String("collection", msg.collection))
		return m, nil

	case actionMsg:
		cmd := msg.run(&m)
		return m, cmd

	case resultMsg:
		return m.handleResult(msg)

	case exportMsg:
		return m.handleExport(msg)

	case importParsedMsg:
		return m.handleImportParsed(msg)

	case importDoneMsg:
		return m.handleImportDone(msg)

	case toastExpiredMsg:
		if m.toast != nil && m.toast.id == msg.id {
			m.toast = nil
		}
		return m, nil
	}

	if m.modal != nil {
		var cmd tea.Cmd
		var closed bool
		m.modal, cmd, closed = m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.sized {
		return "Loading..."
	}
	if m.loading {
		return m.renderLoading()
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && (m.modal == nil || msg.String() == "ctrl+c") {
		return m, tea.Quit
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		var cmd tea.Cmd
		var closed bool
		m.modal, cmd, closed = m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		}
		return m, cmd
	}

	// Nothing but quitting until the initial load settles.
	if m.loading {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		m.navigate(m.page.next())
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		m.navigate(m.page.prev())
		return m, nil

	case key.Matches(msg, m.keys.GoHome), key.Matches(msg, m.keys.Escape):
		m.navigate(PageHome)
		return m, nil

	case key.Matches(msg, m.keys.GoGroceries):
		m.navigate(PageGroceries)
		return m, nil

	case key.Matches(msg, m.keys.GoTasks):
		m.navigate(PageTasks)
		return m, nil

	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()

	case key.Matches(msg, m.keys.Import):
		m.openImport()
		return m, nil
	}

	switch m.page {
	case PageGroceries:
		return m.handleGroceryKey(msg)
	case PageTasks:
		return m.handleTaskKey(msg)
	}
	return m, nil
}

// navigate switches page, refreshes the rows and remembers the choice.
func (m *Model) navigate(page Page) {
	if page == m.page {
		return
	}
	m.page = page
	m.refresh()
	m.savePrefs()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, LastPage: m.page.String()}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.log.Warn("save prefs failed", zap.Error(err))
	}
}

// refresh re-reads the store and clamps the cursors to the new rows.
func (m *Model) refresh() {
	if m.store == nil {
		return
	}
	m.snapshot = m.store.Snapshot()
	m.groceryCursor = clamp(m.groceryCursor, len(m.snapshot.Groceries))
	m.taskCursor = clamp(m.taskCursor, len(m.snapshot.Tasks))
}

func clamp(cursor, n int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}

func moveCursor(cursor, n int, msg tea.KeyMsg, keys keyMap) (int, bool) {
	switch {
	case key.Matches(msg, keys.Up):
		return clamp(cursor-1, n), true
	case key.Matches(msg, keys.Down):
		return clamp(cursor+1, n), true
	case key.Matches(msg, keys.Top):
		return 0, true
	case key.Matches(msg, keys.Bottom):
		return clamp(n-1, n), true
	}
	return cursor, false
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	body := m.renderContent(m.contentHeight())
	b.WriteString(body)
	b.WriteString("\n")

	b.WriteString(m.renderFooter())
	return b.String()
}

// contentHeight is the number of lines between the header and footer.
func (m Model) contentHeight() int {
	return maxInt(1, m.height-2)
}

// renderContent renders the page body.
func (m Model) renderContent(height int) string {
	switch m.page {
	case PageGroceries:
		return m.renderGroceries(height)
	case PageTasks:
		return m.renderTasks(height)
	default:
		return m.renderHome(height)
	}
}

// Messages

type readyMsg struct{}

type loadedMsg struct{ collection string }

// resultMsg reports the end of a reconciler operation started by the row or
// control identified by key.
type resultMsg struct {
	key     string
	outcome reconcile.Outcome
	err     error
	ttl     time.Duration
}

// Commands

func waitReadyCmd(ctx context.Context, ready Readiness) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ready.Done():
		case <-ctx.Done():
		}
		return readyMsg{}
	}
}

// waitLoadedCmd reports when loaded closes. It yields no message if ctx ends
// first.
func waitLoadedCmd(ctx context.Context, loaded <-chan struct{}, collection string) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-loaded:
			return loadedMsg{collection: collection}
		case <-ctx.Done():
			return nil
		}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
