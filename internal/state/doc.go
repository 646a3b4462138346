// Package state holds the in-memory grocery and task collections shared by
// the reconcilers and the UI.
//
// A Collection guards one list with a mutex. Readers get deep copies from
// Snapshot and writers go through Replace or Update, so a painted frame never
// observes a half-applied change. Store bundles both collections with the
// connection health the header shows: the time of the last successful
// request, the last error and the number of consecutive failures. Two or more
// consecutive failures mark the snapshot offline.
package state
