// Package main is the entry point for the tablesight CLI.
//
// Usage:
//
//	tablesight [flags] <command> [args]
//
// Commands:
//
//	run        - Start the live assistant (mic + screen share + HUD)
//	sessions   - Review recorded sessions (list, show, delete)
//	devices    - List audio capture and playback devices
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/tablesight/tablesight/cmd/tablesight/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
