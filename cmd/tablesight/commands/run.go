package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tablesight/tablesight/cmd/tablesight/internal/config"
	"github.com/tablesight/tablesight/pkg/assist"
	"github.com/tablesight/tablesight/pkg/cli"
	"github.com/tablesight/tablesight/pkg/hud"
	"github.com/tablesight/tablesight/pkg/store"
)

var (
	flagShare  bool
	flagNoSave bool
	flagWidth  int
	flagHeight int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the live assistant",
	Long: `Start a live assistant session.

The microphone streams continuously. With --share (or the 'share' command at
the prompt) the screen is captured once per second and the model keeps the
HUD updated through tool calls.

Interactive commands (type and press enter):
  scan           send a high-quality frame and ask for a fresh read
  look <x> <y>   analyze the region around a point (normalized 0..1)
  deep           run a deep analysis with the pro model
  share          toggle screen sharing
  q              quit`,
	RunE: runAssistant,
}

func init() {
	runCmd.Flags().BoolVar(&flagShare, "share", false, "start with screen sharing enabled")
	runCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "do not journal this session")
	runCmd.Flags().IntVar(&flagWidth, "width", 100, "HUD width in columns")
	runCmd.Flags().IntVar(&flagHeight, "height", 32, "HUD height in rows")

	rootCmd.AddCommand(runCmd)
}

func runAssistant(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	// Route logs into the HUD's log pane.
	logPane := cli.NewLogWriter(6)
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logPane, &slog.HandlerOptions{Level: level})))

	a, err := assist.New(assist.Config{
		APIKey:            cfg.APIKey,
		LiveModel:         cfg.LiveModel,
		ProModel:          cfg.ProModel,
		LiteModel:         cfg.LiteModel,
		Voice:             cfg.Voice,
		SystemInstruction: cfg.SystemInstruction,
	})
	if err != nil {
		return err
	}
	defer a.Disconnect()

	ctx := cmd.Context()
	startedAt := time.Now()
	sessionID := uuid.NewString()

	if err := a.Connect(ctx); err != nil {
		// Retries are already scheduled for transient failures; only a
		// terminal failure aborts the command.
		if a.Snapshot().Status == assist.StatusFailed {
			return err
		}
		slog.Warn("initial connect failed, retrying", "error", err)
	}
	if flagShare {
		if err := a.StartScreenShare(); err != nil {
			slog.Warn("screen share unavailable", "error", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	lineCh := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lineCh <- scanner.Text()
		}
		close(lineCh)
	}()

	styles := cli.NewStyles(cli.DefaultTheme)
	render := func() {
		frame := buildFrame(styles, a.Snapshot(), logPane.Lines())
		fmt.Print("\033[2J\033[H" + frame.Render(flagWidth, flagHeight) + "\n> ")
	}
	render()

loop:
	for {
		select {
		case <-sigCh:
			break loop
		case <-a.Changes():
			render()
		case <-logPane.Changes():
			render()
		case line, ok := <-lineCh:
			if !ok {
				break loop
			}
			if quit := handleCommand(ctx, a, line); quit {
				break loop
			}
			render()
		}
	}

	final := a.Snapshot()
	a.Disconnect()

	if !flagNoSave {
		if err := saveSession(ctx, cfg, sessionID, startedAt, final); err != nil {
			slog.Warn("failed to save session", "error", err)
		} else {
			fmt.Printf("\nsession saved: %s\n", sessionID)
		}
	}
	return nil
}

// handleCommand dispatches one interactive command. It reports whether the
// loop should exit.
func handleCommand(ctx context.Context, a *assist.Assistant, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "q", "quit", "exit":
		return true
	case "scan":
		if err := a.TriggerManualScan(); err != nil {
			slog.Warn("scan failed", "error", err)
		}
	case "look":
		if len(fields) != 3 {
			slog.Warn("usage: look <x> <y>")
			return false
		}
		x, errX := strconv.ParseFloat(fields[1], 64)
		y, errY := strconv.ParseFloat(fields[2], 64)
		if errX != nil || errY != nil {
			slog.Warn("usage: look <x> <y> with numbers in 0..1")
			return false
		}
		if err := a.AnalyzeRegion(x, y); err != nil {
			slog.Warn("analyze failed", "error", err)
		}
	case "deep":
		go func() {
			err := a.RunDeepAnalysis(ctx)
			switch {
			case errors.Is(err, assist.ErrNotSharing):
				slog.Warn("start screen sharing first")
			case err != nil:
				slog.Warn("deep analysis failed", "error", err)
			}
		}()
	case "share":
		if a.Snapshot().Sharing {
			a.StopScreenShare()
		} else if err := a.StartScreenShare(); err != nil {
			slog.Warn("screen share failed", "error", err)
		}
	default:
		slog.Warn("unknown command", "command", fields[0])
	}
	return false
}

func buildFrame(styles cli.Styles, snap assist.Snapshot, logLines []string) cli.Frame {
	status := snap.Status.String()
	if snap.Sharing {
		status += " · sharing"
	}
	if snap.Analyzing {
		status += " · analyzing"
	}

	var alert string
	if snap.PermissionDenied {
		alert = "permission denied: check GEMINI_API_KEY"
	} else if snap.Err != nil && snap.Status != assist.StatusOpen {
		alert = snap.Err.Error()
	}

	frame := cli.Frame{
		Styles: styles,
		Title:  "tablesight",
		Status: status,
		Alert:  alert,
		Help:   "scan · look <x> <y> · deep · share · q",
	}

	if st := snap.State; st != nil {
		analysis := []string{
			fmt.Sprintf("Win %.0f%%   Equity %.0f%%   Pot odds %.0f%%",
				st.WinProbability, st.Equity, st.PotOdds),
			fmt.Sprintf("Action: %s (%s)", st.SuggestedAction, st.HandStrength),
			fmt.Sprintf("Hole: %s   Board: %s",
				strings.Join(st.HoleCards, " "), strings.Join(st.CommunityCards, " ")),
		}
		if st.Reasoning != "" {
			analysis = append(analysis, st.Reasoning)
		}
		if st.OpponentEstimate != "" || st.OpponentRange != "" {
			analysis = append(analysis, fmt.Sprintf("Villain: %s %s", st.OpponentEstimate, st.OpponentRange))
		}
		frame.Sections = append(frame.Sections, cli.Section{Label: "ANALYSIS", Lines: analysis})

		if st.DeepAnalysis != "" {
			frame.Sections = append(frame.Sections, cli.Section{
				Label: "DEEP ANALYSIS",
				Lines: wrapLines(st.DeepAnalysis, flagWidth-8, 6),
			})
		}
	}

	if n := len(snap.Transcript); n > 0 {
		var lines []string
		for _, e := range snap.Transcript[max(0, n-5):] {
			lines = append(lines, fmt.Sprintf("[%s] %s", e.Source, e.Text))
		}
		frame.Sections = append(frame.Sections, cli.Section{Label: "TRANSCRIPT", Lines: lines})
	}

	if len(logLines) > 0 {
		frame.Sections = append(frame.Sections, cli.Section{Label: "LOG", Lines: logLines})
	}
	return frame
}

// wrapLines breaks text into at most maxLines lines of the given width.
func wrapLines(text string, width, maxLines int) []string {
	if width < 10 {
		width = 10
	}
	words := strings.Fields(text)
	var lines []string
	var cur string
	for _, w := range words {
		if cur == "" {
			cur = w
		} else if len(cur)+1+len(w) <= width {
			cur += " " + w
		} else {
			lines = append(lines, cur)
			cur = w
			if len(lines) == maxLines-1 {
				lines = append(lines, cur+" …")
				return lines
			}
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

func saveSession(ctx context.Context, cfg *config.Config, id string, startedAt time.Time, snap assist.Snapshot) error {
	journal, err := store.Open(store.Options{Dir: cfg.SessionsDir()})
	if err != nil {
		return err
	}
	defer journal.Close()

	return journal.SaveSession(ctx, &store.SessionRecord{
		Meta: store.SessionMeta{
			ID:        id,
			Model:     cfg.LiveModel,
			StartedAt: startedAt,
			EndedAt:   time.Now(),
			Summary:   summarize(ctx, cfg, snap.Transcript),
		},
		Transcript: snap.Transcript,
		State:      snap.State,
	})
}

// summarize asks the lite model for a one-line session summary. Failures
// only cost the summary, never the save.
func summarize(ctx context.Context, cfg *config.Config, entries []hud.Entry) string {
	if len(entries) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "[%s] %s\n", e.Source, e.Text)
	}

	an, err := assist.NewGenAIAnalyzer(ctx, cfg.APIKey, cfg.LiteModel)
	if err != nil {
		slog.Warn("summary unavailable", "error", err)
		return ""
	}
	sctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	summary, err := an.Summarize(sctx, sb.String())
	if err != nil {
		slog.Warn("summary unavailable", "error", err)
		return ""
	}
	return summary
}
