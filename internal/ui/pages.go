package ui

import (
	"fmt"
	"strings"
)

// Page identifies one of the top-level screens.
type Page int

const (
	PageHome Page = iota
	PageGroceries
	PageTasks
)

var pageNames = map[Page]string{
	PageHome:      "home",
	PageGroceries: "groceries",
	PageTasks:     "tasks",
}

func (p Page) String() string {
	if name, ok := pageNames[p]; ok {
		return name
	}
	return "home"
}

// Title is the label shown in the navigation bar.
func (p Page) Title() string {
	switch p {
	case PageGroceries:
		return "Groceries"
	case PageTasks:
		return "Tasks"
	default:
		return "Home"
	}
}

// ParsePage maps a page name to a Page. The empty string selects home.
func ParsePage(name string) (Page, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return PageHome, nil
	}
	for page, n := range pageNames {
		if n == name {
			return page, nil
		}
	}
	return PageHome, fmt.Errorf("unknown page %q (want home, groceries or tasks)", name)
}

func (p Page) next() Page {
	return (p + 1) % Page(len(pageNames))
}

func (p Page) prev() Page {
	return (p + Page(len(pageNames)) - 1) % Page(len(pageNames))
}
