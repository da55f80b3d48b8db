package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tablesight/tablesight/pkg/cli"
)

var (
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "tablesight",
	Short: "Realtime poker assistant for the terminal",
	Long: `tablesight - a realtime poker assistant.

It streams your microphone and screen to a live multimodal model, plays the
model's voice coaching back, and keeps a structured read of the table (win
probability, suggested action, ranges) on a terminal HUD.

The API key is read from the GEMINI_API_KEY environment variable. Optional
settings live in the OS config directory:
  macOS:   ~/Library/Application Support/tablesight/config.yaml
  Linux:   ~/.config/tablesight/config.yaml

Examples:
  # Start a session with screen sharing
  tablesight run --share

  # Review past sessions
  tablesight sessions list
  tablesight sessions show 2f6b... --query '.state.winProbability'`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "yaml", "output format (yaml|json)")
}

func initLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func outputOpts() cli.OutputOptions {
	return cli.OutputOptions{Format: cli.OutputFormat(outputFormat)}
}
