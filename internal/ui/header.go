package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tracklist/internal/api"
)

// renderHeader renders the logo, page tabs and connection status.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	parts := []string{bg.Render("tracklist", styles.Logo), m.renderTabs(bg)}

	if m.snapshot.IsOffline() {
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	} else {
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	}

	if n := len(m.inFlight); n > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("Saving %d", n), styles.WarningText))
	}

	if ts := m.formatSync(); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if m.snapshot.LastError != nil && m.width >= 100 {
		errText := truncate(api.UserMessage(m.snapshot.LastError, m.snapshot.LastError.Error()), 50)
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText)+bg.Space()+bg.Render(errText, styles.DangerText),
		)
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(strings.Join(parts, sep))
}

// renderTabs renders the page navigation with the active page highlighted.
func (m Model) renderTabs(bg BgStyle) string {
	active := lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.FocusBg)).
		Foreground(lipgloss.Color(m.theme.Accent)).
		Bold(true).
		Padding(0, 1)
	inactive := lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Muted)).
		Padding(0, 1)

	tabs := make([]string, 0, len(pageNames))
	for _, page := range []Page{PageHome, PageGroceries, PageTasks} {
		if page == m.page {
			tabs = append(tabs, active.Render(page.Title()))
		} else {
			tabs = append(tabs, inactive.Render(page.Title()))
		}
	}
	return strings.Join(tabs, bg.Space())
}

// formatSync formats the last successful request time.
func (m Model) formatSync() string {
	last := m.snapshot.LastSync
	if last.IsZero() {
		return ""
	}
	since := m.now().Sub(last)
	stamp := last.Format("15:04:05")
	switch {
	case since < time.Minute:
		return "synced " + stamp
	case since < time.Hour:
		return fmt.Sprintf("synced %dm ago", int(since.Minutes()))
	default:
		return fmt.Sprintf("synced %dh ago", int(since.Hours()))
	}
}

// renderFooter shows the current toast, or key hints for the page.
func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if m.toast != nil {
		badge := styles.ToastStyle(m.toast.kind).Render(toastLabel(m.toast.kind))
		return styles.Footer.Width(m.width).Render(badge + bg.Space() + bg.Render(m.toast.text, styles.Text))
	}

	bindings := m.keys.PageHelp(m.page)
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, bg.Render(h.Key, styles.WarningText)+bg.Space()+bg.Render(h.Desc, styles.MutedText))
	}
	return styles.Footer.Width(m.width).Render(bg.Join(hints, "  "))
}

func toastLabel(kind toastKind) string {
	switch kind {
	case toastSuccess:
		return "OK"
	case toastWarning:
		return "WARN"
	case toastError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// renderLoading renders the overlay shown until the initial load settles.
func (m Model) renderLoading() string {
	styles := m.theme.Styles()
	content := m.spinner.View() + " " + styles.Text.Render("Loading your lists…")
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		content,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
