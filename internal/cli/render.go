package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"

	"github.com/stepcue/stepcue/internal/config"
	"github.com/stepcue/stepcue/internal/events"
	"github.com/stepcue/stepcue/internal/logging"
	"github.com/stepcue/stepcue/internal/plugin"
)

var renderCmd = &cobra.Command{
	Use:   "render [timeline_file]",
	Short: "Render subtitles from a recorded step timeline",
	Long: `Render a subtitle file from a step timeline recorded by the test runner.

The timeline is a JSON document naming the test, its video artifact and
the executed steps with millisecond offsets:

  {
    "test": "login works",
    "video": "/recordings/login.mp4",
    "steps": [
      {"actor": "I", "name": "amOnPage", "args": ["/login"], "startMs": 0, "endMs": 1200},
      {"actor": "I", "name": "click", "args": ["Submit"], "startMs": 1300, "endMs": 2100}
    ]
  }

The subtitle is written next to the video artifact.

Examples:
  stepcue render timeline.json
  stepcue render timeline.json --format webvtt
  stepcue render timeline.json --embed`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().
		StringP("format", "f", "", "Output subtitle format (srt, webvtt)")
	renderCmd.Flags().
		Bool("embed", false, "Mux the subtitle into the video as a soft track")
}

// recorded step timeline, as exported by the host runner
type timeline struct {
	Test  string         `json:"test"`
	Video string         `json:"video"`
	Steps []timelineStep `json:"steps"`
}

type timelineStep struct {
	Actor   string   `json:"actor"`
	Name    string   `json:"name"`
	Args    []string `json:"args,omitempty"`
	StartMs int64    `json:"startMs"`
	EndMs   *int64   `json:"endMs,omitempty"` // absent for steps that never finished
}

func runRender(cmd *cobra.Command, args []string) error {
	timelinePath := args[0]

	data, err := os.ReadFile(timelinePath)
	if err != nil {
		return fmt.Errorf("failed to read timeline: %w", err)
	}

	var tl timeline
	if err := json.Unmarshal(data, &tl); err != nil {
		return fmt.Errorf("failed to parse timeline: %w", err)
	}
	if tl.Video == "" {
		return fmt.Errorf("timeline has no video artifact path")
	}

	configPath, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if formatStr, _ := cmd.Flags().GetString("format"); formatStr != "" {
		switch strings.ToLower(formatStr) {
		case "srt":
			cfg.Format = "SRT"
		case "vtt", "webvtt":
			cfg.Format = "WEBVTT"
		default:
			return fmt.Errorf("unsupported format %q: use srt or webvtt", formatStr)
		}
	}
	if embed, _ := cmd.Flags().GetBool("embed"); embed {
		cfg.Embed = true
	}

	logger.Infow("Rendering subtitles from timeline",
		"timeline", timelinePath,
		"video", tl.Video,
		"format", cfg.Format,
		"steps", len(tl.Steps),
	)

	result, err := replayTimeline(tl, cfg, logger)
	if err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(result.Artifacts[events.ArtifactSubtitle])
	fmt.Printf("Subtitles generated successfully: %s\n", absOutput)

	return nil
}

// replayTimeline drives a plugin through the recorded lifecycle on a
// mock clock, so rendered offsets reproduce the recording exactly.
func replayTimeline(tl timeline, cfg *config.Config, log *logging.Logger) (*events.TestResult, error) {
	mock := clock.NewMock()
	bus := events.NewBus()
	plugin.New(cfg, log).WithClock(mock).Attach(bus)

	bus.EmitTestStarted(&events.Test{Title: tl.Test})

	type timedEvent struct {
		at   int64
		emit func()
	}

	var evs []timedEvent
	for i := range tl.Steps {
		rec := tl.Steps[i]
		step := &events.Step{Actor: rec.Actor, Name: rec.Name, Args: rec.Args}

		evs = append(evs, timedEvent{
			at:   rec.StartMs,
			emit: func() { bus.EmitStepStarted(step) },
		})
		if rec.EndMs != nil {
			evs = append(evs, timedEvent{
				at:   *rec.EndMs,
				emit: func() { bus.EmitStepFinished(step) },
			})
		}
	}

	// replay in chronological order; a start always precedes its finish
	// because starts are appended first for equal offsets
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].at < evs[j].at })

	var elapsed int64
	for _, ev := range evs {
		if ev.at > elapsed {
			mock.Add(time.Duration(ev.at-elapsed) * time.Millisecond)
			elapsed = ev.at
		}
		ev.emit()
	}

	result := &events.TestResult{
		Test:      events.Test{Title: tl.Test},
		Artifacts: map[string]string{events.ArtifactVideo: tl.Video},
	}
	if err := bus.EmitTestFinished(result); err != nil {
		return nil, err
	}

	return result, nil
}
