package cmd

import (
	"fmt"
	goruntime "runtime"

	"github.com/spf13/cobra"
)

var (
	Version   = "0.1.0-dev"
	GitCommit = "development"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "loqa-dictate %s\n", Version)
		fmt.Fprintf(out, "  Git Commit: %s\n", GitCommit)
		fmt.Fprintf(out, "  Build Date: %s\n", BuildDate)
		fmt.Fprintf(out, "  Go Version: %s\n", goruntime.Version())
		fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", goruntime.GOOS, goruntime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
