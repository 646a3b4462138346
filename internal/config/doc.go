// Package config loads tracklist's configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/tracklist/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. TRACKLIST_* environment variables override whatever the file set
//
// # TOML Format
//
//	api_base = "http://127.0.0.1:3000/api"
//	ready_timeout = "2s"
//	request_timeout = "0s"
//	log_file = "~/.local/state/tracklist/tracklist.log"
//	log_level = "info"
//
// Every field is optional. Durations use Go syntax. A zero request_timeout
// leaves individual requests unbounded; ready_timeout bounds only the
// initial load. An empty log_file disables logging.
//
// # Environment
//
//	TRACKLIST_API_BASE
//	TRACKLIST_READY_TIMEOUT
//	TRACKLIST_REQUEST_TIMEOUT
//	TRACKLIST_LOG_FILE
//	TRACKLIST_LOG_LEVEL
//
// # Error Handling
//
// Load returns errors for path expansion failures, unreadable files, TOML
// or duration parse errors and a negative request timeout. A missing file is
// not an error.
package config
