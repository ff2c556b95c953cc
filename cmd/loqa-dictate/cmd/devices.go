package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/loqalabs/loqa-dictate/internal/audio"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices (names usable as audio.device)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		devices, err := audio.ListInputDevices()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DEFAULT\tNAME\tCHANNELS\tRATE")
		for _, d := range devices {
			mark := ""
			if d.Default {
				mark = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.0f\n", mark, d.Name, d.Channels, d.SampleRate)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
