package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stepcue/stepcue/internal/video"
)

var probeCmd = &cobra.Command{
	Use:   "probe [video_file]",
	Short: "Print the duration of a video artifact",
	Long: `Print the duration of a video artifact, as reported by ffprobe.

Useful for checking that a subtitle track will fit the recording it
belongs to.

Examples:
  stepcue probe recording.mp4`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	videoPath := args[0]

	duration, err := video.ProbeDuration(videoPath)
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}

	fmt.Printf("%s\t%s\n", videoPath, duration)
	return nil
}
