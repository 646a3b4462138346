// Package prefs remembers UI state between tracklist runs: the colour theme
// and the page that was open when the program last navigated.
//
// Prefs never keep the UI from starting. Load answers with defaults for a
// missing, unreadable or malformed file and only Save reports errors.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs is the content of prefs.toml.
type Prefs struct {
	Theme    string `toml:"theme"`
	LastPage string `toml:"last_page,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/tracklist/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPath is used when no prefs path is given.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads the prefs file at path, or DefaultPath when path is empty. The
// error is always nil; see the package doc.
func Load(path string) (Prefs, error) {
	p, err := read(path)
	if err != nil {
		return Prefs{}.normalized(), nil
	}
	return p.normalized(), nil
}

// Save writes p to path through a temporary file in the same directory, so a
// crash mid-write leaves the previous prefs in place.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve prefs path: %w", err)
	}
	data, err := toml.Marshal(p.normalized())
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("create prefs file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func read(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Prefs{}, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return Prefs{}, err
	}
	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return Prefs{}, fmt.Errorf("parse prefs: %w", err)
	}
	return p, nil
}

// normalized trims both fields, lower-cases the page name and fills in the
// default theme.
func (p Prefs) normalized() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.LastPage = strings.ToLower(strings.TrimSpace(p.LastPage))
	return p
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = defaultPrefsPath
	}
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, rest)
	}
	return filepath.Abs(path)
}
