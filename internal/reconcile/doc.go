// Package reconcile owns every mutation of the grocery and task collections.
//
// Each operation issues one targeted request and merges the reply into the
// authoritative state.Collection:
//
//   - a full array reply is adopted verbatim
//   - a single record replaces the matching item (by name or id)
//   - an empty reply applies the equivalent local change
//
// When the targeted request fails, the equivalent local mutation is applied
// and the whole collection is persisted once with a bulk save. There is no
// retry. The returned Outcome has Fallback set and the error carries the
// cause, joined with the bulk-save error when that fails too.
//
// Optimistic flips follow one of two named policies. Grocery history
// toggles use FallbackKeepLocal; task completion toggles use FallbackRevert.
//
// Tasks without an id can only be deleted by position. That path is
// degradedIndexDelete, which never issues a targeted request.
//
// Operations are not serialized against each other. Only the apply step of
// each runs under the collection lock, so callers disable the control that
// triggered a request until it returns.
package reconcile
