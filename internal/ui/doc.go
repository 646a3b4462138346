// Package ui provides the Bubble Tea terminal interface for tracklist.
//
// The Model owns navigation between the home, groceries and tasks pages and
// paints rows derived by the view package from the latest state.Snapshot.
// Every mutation runs through a reconciler inside a tea.Cmd; the row or
// control that started it is marked in flight and ignores further input
// until its result message arrives, at which point the snapshot is re-read
// and a toast reports the outcome.
//
// A loading overlay is shown until the Readiness handed in via Options is
// done. Destructive actions (delete, reset, clear history, import) go through
// a confirmation modal.
//
// The theme and the last page are persisted through the prefs package.
package ui
