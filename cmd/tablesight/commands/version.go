package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tablesight/tablesight/cmd/tablesight/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(build.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
