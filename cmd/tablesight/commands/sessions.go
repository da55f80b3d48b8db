package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tablesight/tablesight/cmd/tablesight/internal/config"
	"github.com/tablesight/tablesight/pkg/cli"
	"github.com/tablesight/tablesight/pkg/store"
)

var flagQuery string

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Review recorded sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded sessions, most recent first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		journal, err := openJournal()
		if err != nil {
			return err
		}
		defer journal.Close()

		metas, err := journal.ListSessions(cmd.Context())
		if err != nil {
			return err
		}

		type row struct {
			ID       string `json:"id"`
			Model    string `json:"model"`
			Started  string `json:"started"`
			Duration string `json:"duration"`
			Entries  int    `json:"entries"`
			Summary  string `json:"summary,omitempty"`
		}
		rows := make([]row, 0, len(metas))
		for _, m := range metas {
			rows = append(rows, row{
				ID:       m.ID,
				Model:    m.Model,
				Started:  m.StartedAt.Local().Format(time.DateTime),
				Duration: m.EndedAt.Sub(m.StartedAt).Round(time.Second).String(),
				Entries:  m.Entries,
				Summary:  m.Summary,
			})
		}
		opts := outputOpts()
		opts.Query = flagQuery
		return cli.Output(rows, opts)
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one session: transcript and final analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		journal, err := openJournal()
		if err != nil {
			return err
		}
		defer journal.Close()

		rec, err := journal.LoadSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		opts := outputOpts()
		opts.Query = flagQuery
		return cli.Output(rec, opts)
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recorded session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		journal, err := openJournal()
		if err != nil {
			return err
		}
		defer journal.Close()

		if err := journal.DeleteSession(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

func openJournal() (*store.Journal, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return store.Open(store.Options{Dir: cfg.SessionsDir()})
}

func init() {
	sessionsCmd.PersistentFlags().StringVarP(&flagQuery, "query", "q", "", "jq expression applied to the result")
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}
