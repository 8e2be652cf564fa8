package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/s0up4200/cinedex/tui"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the version",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationStandalone: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cinedex %s (built %s, %s/%s)\n", version, buildTime, runtime.GOOS, runtime.GOARCH)
	},
}

var aboutCmd = &cobra.Command{
	Use:         "about",
	Short:       "About cinedex",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationStandalone: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), tui.About(version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd, aboutCmd)
}
