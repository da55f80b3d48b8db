// Package cli provides the terminal building blocks shared by the
// tablesight commands: structured output in yaml or json, jq-style result
// filtering, the live HUD frame, and a log writer that feeds the TUI.
package cli
