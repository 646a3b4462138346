package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	want := []string{"Nightfox", "Kanagawa", "Slate"}
	if len(names) != len(want) {
		t.Fatalf("ThemeNames() returned %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("ThemeNames() = %v, want %v", names, want)
		}
	}
}

func TestNextTheme(t *testing.T) {
	cases := map[string]string{
		"Nightfox": "Kanagawa",
		"Kanagawa": "Slate",
		"Slate":    "Nightfox",
		"Unknown":  "Nightfox",
	}
	for current, want := range cases {
		if got := NextTheme(current); got != want {
			t.Fatalf("NextTheme(%s) = %q, want %q", current, got, want)
		}
	}
}

func TestGetTheme_FallsBackToNightfox(t *testing.T) {
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q", got)
	}
	if got := GetTheme("Dracula").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Dracula).Name = %q, want Nightfox (fallback)", got)
	}
}

func TestThemesDefineEveryColor(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		colors := map[string]string{
			"Background": th.Background, "Surface": th.Surface, "SurfaceAlt": th.SurfaceAlt,
			"FocusBg": th.FocusBg, "SelectionBg": th.SelectionBg, "SelectionText": th.SelectionText,
			"Text": th.Text, "Muted": th.Muted, "Faint": th.Faint, "Accent": th.Accent,
			"Success": th.Success, "Warning": th.Warning, "Danger": th.Danger, "Info": th.Info,
		}
		for field, value := range colors {
			if value == "" {
				t.Fatalf("%s theme has empty %s", name, field)
			}
		}
	}
}

func TestToastStyleFallsBackToMuted(t *testing.T) {
	th := GetTheme("Nightfox")
	styles := th.Styles()
	if got := styles.ToastStyle(toastError).GetBackground(); got != lipgloss.Color(th.Danger) {
		t.Fatalf("error toast background = %v, want %s", got, th.Danger)
	}
	if got := styles.ToastStyle(toastInfo).GetBackground(); got != lipgloss.Color(th.Muted) {
		t.Fatalf("info toast background = %v, want muted %s", got, th.Muted)
	}
}
