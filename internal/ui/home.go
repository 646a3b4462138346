package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tracklist/internal/view"
)

// homeSummary counts what the home page reports.
type homeSummary struct {
	groceries   int
	boughtToday int
	openTasks   int
	overdue     int
	doneTasks   int
}

func (m Model) summarize() homeSummary {
	var s homeSummary
	now := m.now()
	for _, row := range view.Groceries(m.snapshot.Groceries, now) {
		if row.IsPlaceholder() {
			continue
		}
		s.groceries++
		if row.PurchasedToday {
			s.boughtToday++
		}
	}
	for _, row := range view.Tasks(m.snapshot.Tasks, now) {
		switch {
		case row.IsPlaceholder():
		case row.Completed:
			s.doneTasks++
		default:
			s.openTasks++
			if row.Overdue {
				s.overdue++
			}
		}
	}
	return s
}

// renderHome renders the landing page.
func (m Model) renderHome(height int) string {
	styles := m.theme.Styles()
	s := m.summarize()

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Groceries"))
	b.WriteString("\n")
	b.WriteString(styles.Text.Render(plural(s.groceries, "item")))
	b.WriteString(styles.MutedText.Render(fmt.Sprintf(" · %d bought today", s.boughtToday)))
	b.WriteString("\n\n")

	b.WriteString(styles.AccentText.Bold(true).Render("Tasks"))
	b.WriteString("\n")
	b.WriteString(styles.Text.Render(fmt.Sprintf("%d open", s.openTasks)))
	if s.overdue > 0 {
		b.WriteString(styles.DangerText.Render(fmt.Sprintf(" · %d overdue", s.overdue)))
	}
	b.WriteString(styles.MutedText.Render(fmt.Sprintf(" · %d done", s.doneTasks)))
	b.WriteString("\n\n")

	b.WriteString(styles.FaintText.Render("alt+g groceries   alt+t tasks   x export   i import"))

	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, b.String())
}
