package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// action mutates the model in response to a confirmed modal and returns the
// command that performs the work.
type action func(m *Model) tea.Cmd

// actionMsg carries a confirmed action back into Model.Update.
type actionMsg struct{ run action }

func dispatch(a action) tea.Cmd {
	if a == nil {
		return nil
	}
	return func() tea.Msg { return actionMsg{run: a} }
}

// confirmModal asks a yes/no question before a destructive action.
type confirmModal struct {
	title   string
	body    string
	confirm action
}

func newConfirmModal(title, body string, confirm action) *confirmModal {
	return &confirmModal{title: title, body: body, confirm: confirm}
}

func (c *confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(k, keys.Confirm):
		return c, dispatch(c.confirm), true
	case key.Matches(k, keys.Cancel), key.Matches(k, keys.Quit):
		return c, nil, true
	}
	return c, nil, false
}

func (c *confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.DangerText.Render(c.title))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(c.body))
	b.WriteString("\n\n")
	b.WriteString(styles.WarningText.Render("enter/y") + styles.MutedText.Render(" confirm   "))
	b.WriteString(styles.WarningText.Render("esc/n") + styles.MutedText.Render(" cancel"))
	return placeModal(theme, width, height, b.String(), theme.Danger)
}

// inputModal collects one or more text fields.
type inputModal struct {
	title  string
	labels []string
	inputs []textinput.Model
	focus  int
	submit func(values []string) action
}

type inputField struct {
	label       string
	placeholder string
	value       string
	limit       int
}

func newInputModal(title string, fields []inputField, submit func(values []string) action) *inputModal {
	m := &inputModal{title: title, submit: submit}
	for i, f := range fields {
		in := textinput.New()
		in.Placeholder = f.placeholder
		in.SetValue(f.value)
		in.CharLimit = f.limit
		in.Prompt = "> "
		if i == 0 {
			in.Focus()
		}
		m.labels = append(m.labels, f.label)
		m.inputs = append(m.inputs, in)
	}
	return m
}

func (m *inputModal) values() []string {
	out := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		out[i] = in.Value()
	}
	return out
}

func (m *inputModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc", "ctrl+c":
			return m, nil, true
		case "enter":
			return m, dispatch(m.submit(m.values())), true
		}
		if key.Matches(k, keys.NextField) && len(m.inputs) > 1 {
			m.inputs[m.focus].Blur()
			if k.String() == "shift+tab" {
				m.focus = (m.focus + len(m.inputs) - 1) % len(m.inputs)
			} else {
				m.focus = (m.focus + 1) % len(m.inputs)
			}
			return m, m.inputs[m.focus].Focus(), false
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd, false
}

func (m *inputModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(m.title))
	b.WriteString("\n")
	for i, in := range m.inputs {
		b.WriteString("\n")
		label := styles.MutedText
		if i == m.focus {
			label = styles.Text.Bold(true)
		}
		b.WriteString(label.Render(m.labels[i]))
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	hint := "enter save   esc cancel"
	if len(m.inputs) > 1 {
		hint = "tab next field   " + hint
	}
	b.WriteString(styles.FaintText.Render(hint))
	return placeModal(theme, width, height, b.String(), theme.Accent)
}

func placeModal(theme Theme, width, height int, content, border string) string {
	modalWidth := 50
	if width > 0 && width-4 < modalWidth {
		modalWidth = maxInt(20, width-4)
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(1, 2).
		Width(modalWidth).
		Render(content)
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
