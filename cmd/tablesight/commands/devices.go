package commands

import (
	"github.com/spf13/cobra"

	"github.com/tablesight/tablesight/pkg/audio/device"
	"github.com/tablesight/tablesight/pkg/cli"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio capture and playback devices",
	RunE: func(_ *cobra.Command, _ []string) error {
		captures, playbacks, err := device.Devices()
		if err != nil {
			return err
		}
		return cli.Output(map[string][]device.Info{
			"capture":  captures,
			"playback": playbacks,
		}, outputOpts())
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
