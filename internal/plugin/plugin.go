package plugin

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/stepcue/stepcue/internal/config"
	"github.com/stepcue/stepcue/internal/events"
	"github.com/stepcue/stepcue/internal/logging"
	"github.com/stepcue/stepcue/internal/subtitle"
	"github.com/stepcue/stepcue/internal/video"
)

// stepRecord tracks one step between its start and finish events.
type stepRecord struct {
	id        string
	title     string
	start     string    // formatted offset from test start
	end       string    // empty until the finish event arrives
	startedAt time.Time // raw instant, used only for sort order
	seq       int       // insertion order, tie-break when instants are equal
}

// Plugin accumulates step timings for the test currently running on its
// bus and, when the test finishes with a video artifact, writes a
// subtitle track next to the video and registers it on the result.
//
// Session state covers exactly one test at a time and is reset wholesale
// on every test-started event. The host runner must not interleave step
// events from different tests on the same Plugin.
type Plugin struct {
	cfg      *config.Config
	log      *logging.Logger
	clock    clock.Clock
	embedder video.Embedder

	mu        sync.Mutex
	startedAt time.Time
	steps     map[string]*stepRecord
	seq       int
}

func New(cfg *config.Config, log *logging.Logger) *Plugin {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Plugin{
		cfg:   cfg,
		log:   log,
		clock: clock.New(),
		steps: make(map[string]*stepRecord),
	}
}

// WithClock overrides the time source. Tests use clock.NewMock().
func (p *Plugin) WithClock(c clock.Clock) *Plugin {
	p.clock = c
	return p
}

// WithEmbedder overrides the ffmpeg muxer used when embedding is on.
func (p *Plugin) WithEmbedder(e video.Embedder) *Plugin {
	p.embedder = e
	return p
}

// Attach subscribes the plugin to all four lifecycle events.
func (p *Plugin) Attach(bus *events.Bus) {
	bus.SubscribeTestStarted(p.OnTestStarted)
	bus.SubscribeStepStarted(p.OnStepStarted)
	bus.SubscribeStepFinished(p.OnStepFinished)
	bus.SubscribeTestFinished(p.OnTestFinished)
}

// OnTestStarted resets the session: fresh step table, new time base.
func (p *Plugin) OnTestStarted(_ *events.Test) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startedAt = p.clock.Now()
	p.steps = make(map[string]*stepRecord)
	p.seq = 0
}

// OnStepStarted assigns the step a fresh unique ID (written back onto
// the payload so the matching finish event can be correlated) and
// records its title and start offset.
func (p *Plugin) OnStepStarted(step *events.Step) {
	if step == nil {
		return
	}

	now := p.clock.Now()
	id := uuid.NewString()
	step.ID = id

	p.mu.Lock()
	defer p.mu.Unlock()

	p.steps[id] = &stepRecord{
		id:        id,
		title:     subtitle.StepTitle(step.Actor, step.Name, step.Args),
		start:     subtitle.FormatOffset(now.Sub(p.startedAt).Milliseconds()),
		startedAt: now,
		seq:       p.seq,
	}
	p.seq++
}

// OnStepFinished records the end offset for a previously started step.
// A missing payload, missing ID, or unknown ID is a silent no-op: a
// finish with no matching start is not an error.
func (p *Plugin) OnStepFinished(step *events.Step) {
	if step == nil || step.ID == "" {
		return
	}

	now := p.clock.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.steps[step.ID]
	if !ok {
		return
	}
	rec.end = subtitle.FormatOffset(now.Sub(p.startedAt).Milliseconds())
}

// OnTestFinished writes the subtitle track next to the test's video
// artifact and registers it under the "subtitle" artifact key. Tests
// without a video artifact produce nothing. A write failure propagates
// to the event dispatcher; there is no retry.
func (p *Plugin) OnTestFinished(result *events.TestResult) error {
	if result == nil {
		return nil
	}
	videoPath := result.Artifacts[events.ArtifactVideo]
	if videoPath == "" {
		return nil
	}

	p.mu.Lock()
	records := make([]*stepRecord, 0, len(p.steps))
	for _, rec := range p.steps {
		records = append(records, rec)
	}
	p.mu.Unlock()

	// order by raw start instant; insertion order breaks ties
	sort.Slice(records, func(i, j int) bool {
		if records[i].startedAt.Equal(records[j].startedAt) {
			return records[i].seq < records[j].seq
		}
		return records[i].startedAt.Before(records[j].startedAt)
	})

	// steps that started but never finished are omitted entirely
	finished := lo.Filter(records, func(rec *stepRecord, _ int) bool {
		return rec.end != ""
	})

	format := subtitle.ParseFormat(p.cfg.Format)
	cues := lo.Map(finished, func(rec *stepRecord, _ int) subtitle.Cue {
		return subtitle.Cue{Start: rec.start, End: rec.end, Text: rec.title}
	})

	outputPath := subtitle.OutputPath(videoPath, format)
	if err := os.WriteFile(outputPath, []byte(subtitle.Render(format, cues)), 0644); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}
	result.Artifacts[events.ArtifactSubtitle] = outputPath

	p.log.Infow("Subtitles written",
		"test", result.Test.Title,
		"path", outputPath,
		"format", string(format),
		"cues", len(cues),
	)

	if p.cfg.Embed {
		p.embedSubtitle(videoPath, outputPath)
	}

	return nil
}

// embedSubtitle muxes the subtitle into the video as a soft track. The
// subtitle file is the contract; muxing is best effort and a failure is
// logged, not returned.
func (p *Plugin) embedSubtitle(videoPath, subtitlePath string) {
	embedder := p.embedder
	if embedder == nil {
		embedder = video.NewEmbedder()
	}

	muxed, err := embedder.Embed(context.Background(), videoPath, subtitlePath)
	if err != nil {
		p.log.Warnw("Subtitle embed failed",
			"video", videoPath,
			"error", err,
		)
		return
	}

	p.log.Infow("Subtitles embedded",
		"output", muxed,
	)
}
