package view

import (
	"fmt"
	"time"

	"github.com/five82/tracklist/internal/model"
)

const day = 24 * time.Hour

// Relative renders a purchase timestamp relative to now ("Today",
// "Yesterday", "3 days ago", "2 weeks ago").
func Relative(ts string, now time.Time) string {
	if ts == "" {
		return "Never"
	}
	t, ok := model.ParseTimestamp(ts)
	if !ok {
		return "Unknown date"
	}
	days := int(now.Sub(t) / day)
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return plural(days/7, "week")
	case days < 365:
		return plural(days/30, "month")
	default:
		return plural(days/365, "year")
	}
}

// FullDate renders ts as "Jan 30, 2026" in loc.
func FullDate(ts string, loc *time.Location) string {
	t, ok := model.ParseTimestamp(ts)
	if !ok {
		return "Unknown date"
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("Jan 2, 2006")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
