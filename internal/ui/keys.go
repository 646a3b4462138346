package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	NextPage   key.Binding
	PrevPage   key.Binding
	Escape     key.Binding

	// Page switching
	GoHome      key.Binding
	GoGroceries key.Binding
	GoTasks     key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// List actions
	Toggle       key.Binding
	Expand       key.Binding
	Add          key.Binding
	Delete       key.Binding
	Rename       key.Binding
	ClearHistory key.Binding
	Reset        key.Binding

	// Backup
	Export key.Binding
	Import key.Binding

	// Modals
	Confirm   key.Binding
	Cancel    key.Binding
	NextField key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous page"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Return home"),
		),

		GoHome: key.NewBinding(
			key.WithKeys("alt+h", "1"),
			key.WithHelp("alt+h", "Home"),
		),
		GoGroceries: key.NewBinding(
			key.WithKeys("alt+g", "2"),
			key.WithHelp("alt+g", "Groceries"),
		),
		GoTasks: key.NewBinding(
			key.WithKeys("alt+t", "3"),
			key.WithHelp("alt+t", "Tasks"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Bought today / done"),
		),
		Expand: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Show history"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Delete"),
		),
		Rename: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Rename"),
		),
		ClearHistory: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Clear history"),
		),
		Reset: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Reset list"),
		),

		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Export backup"),
		),
		Import: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Import backup"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter", "y"),
			key.WithHelp("enter/y", "Confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "n"),
			key.WithHelp("esc/n", "Cancel"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "Next field"),
		),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// PageHelp returns the footer hints for page.
func (k keyMap) PageHelp(page Page) []key.Binding {
	switch page {
	case PageGroceries:
		return []key.Binding{k.Toggle, k.Expand, k.Add, k.Delete, k.Rename, k.ClearHistory, k.Reset, k.Help}
	case PageTasks:
		return []key.Binding{k.Toggle, k.Add, k.Delete, k.Reset, k.Help}
	default:
		return []key.Binding{k.GoGroceries, k.GoTasks, k.Export, k.Import, k.Help, k.Quit}
	}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextPage, k.GoHome, k.GoGroceries, k.GoTasks, k.Escape},
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Toggle, k.Expand, k.Add, k.Delete, k.Rename, k.ClearHistory, k.Reset},
		{k.Export, k.Import},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
