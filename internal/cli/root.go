package cli

import (
	"github.com/spf13/cobra"

	"github.com/stepcue/stepcue/internal/logging"
)

var (
	verbose bool
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "stepcue",
	Short: "Step-synchronized subtitles for video-recorded test runs",
	Long: `Stepcue turns the step timeline of an automated test into a subtitle
track for the test's video recording.

Attached to a test runner it listens for lifecycle events and writes an
SRT or WebVTT file next to each video artifact; the render command
replays a recorded timeline offline.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		String("config", "", "Path to a stepcue config file")
}
