// Package app is the composition root for tracklist.
//
// Run loads configuration, builds the API client, the shared state.Store and
// both reconcilers, then starts the initial load in the background and hands
// control to the ui package. Export and Import drive the same reconcilers
// without a terminal.
//
// # Readiness
//
// The initial load fetches groceries and tasks concurrently. Each load
// signals a Gate when it finishes, successfully or not. The gate opens after
// both signals or when its safety timer fires, whichever happens first, and
// never changes afterwards. The UI waits on Gate.Done once instead of
// polling.
//
// # Error Handling
//
// Configuration, logging and client setup failures are returned from Run.
// Load failures are logged and leave the affected collection empty.
package app
