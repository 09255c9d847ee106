package plugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/stepcue/stepcue/internal/config"
	"github.com/stepcue/stepcue/internal/events"
	"github.com/stepcue/stepcue/internal/logging"
)

// harness wires a plugin with a mock clock onto a fresh bus
type harness struct {
	bus   *events.Bus
	mock  *clock.Mock
	video string
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	mock := clock.NewMock()
	bus := events.NewBus()
	New(cfg, logging.NewNop()).WithClock(mock).Attach(bus)
	return &harness{
		bus:   bus,
		mock:  mock,
		video: filepath.Join(t.TempDir(), "test.mp4"),
	}
}

func (h *harness) finish(t *testing.T, withVideo bool) *events.TestResult {
	t.Helper()
	result := &events.TestResult{
		Test:      events.Test{Title: "login works"},
		Artifacts: map[string]string{},
	}
	if withVideo {
		result.Artifacts[events.ArtifactVideo] = h.video
	}
	require.NoError(t, h.bus.EmitTestFinished(result))
	return result
}

func TestWritesSRTNextToVideo(t *testing.T) {
	h := newHarness(t, nil)

	h.bus.EmitTestStarted(&events.Test{Title: "login works"})

	step := &events.Step{Actor: "I", Name: "click", Args: []string{"Login"}}
	h.mock.Add(1 * time.Second)
	h.bus.EmitStepStarted(step)
	require.NotEmpty(t, step.ID, "start handler must attach a correlation id")

	h.mock.Add(1500 * time.Millisecond)
	h.bus.EmitStepFinished(step)

	result := h.finish(t, true)

	wantPath := filepath.Join(filepath.Dir(h.video), "test.srt")
	require.Equal(t, wantPath, result.Artifacts[events.ArtifactSubtitle])

	content, err := os.ReadFile(wantPath)
	require.NoError(t, err)
	require.Equal(t, "1\n00:00:01,000 --> 00:00:02,500\nI.click(Login)\n\n", string(content))
}

func TestWritesVTTWhenConfigured(t *testing.T) {
	h := newHarness(t, &config.Config{Format: "WEBVTT"})

	h.bus.EmitTestStarted(&events.Test{})

	step := &events.Step{Actor: "I", Name: "amOnPage", Args: []string{"/login"}}
	h.mock.Add(250 * time.Millisecond)
	h.bus.EmitStepStarted(step)
	h.mock.Add(750 * time.Millisecond)
	h.bus.EmitStepFinished(step)

	result := h.finish(t, true)

	wantPath := filepath.Join(filepath.Dir(h.video), "test.vtt")
	require.Equal(t, wantPath, result.Artifacts[events.ArtifactSubtitle])

	content, err := os.ReadFile(wantPath)
	require.NoError(t, err)
	require.Equal(t,
		"WEBVTT\n\n1\n00:00:00.250 --> 00:00:01.000\nI.amOnPage(/login)\n\n",
		string(content))
}

func TestMisspelledFormatFallsBackToSRT(t *testing.T) {
	h := newHarness(t, &config.Config{Format: "webvtt"})

	h.bus.EmitTestStarted(&events.Test{})
	step := &events.Step{Actor: "I", Name: "see", Args: []string{"Welcome"}}
	h.bus.EmitStepStarted(step)
	h.mock.Add(time.Second)
	h.bus.EmitStepFinished(step)

	result := h.finish(t, true)
	require.Equal(t,
		filepath.Join(filepath.Dir(h.video), "test.srt"),
		result.Artifacts[events.ArtifactSubtitle])
}

func TestNoVideoProducesNothing(t *testing.T) {
	h := newHarness(t, nil)

	h.bus.EmitTestStarted(&events.Test{})
	step := &events.Step{Actor: "I", Name: "click", Args: []string{"Login"}}
	h.bus.EmitStepStarted(step)
	h.mock.Add(time.Second)
	h.bus.EmitStepFinished(step)

	result := h.finish(t, false)

	_, hasSubtitle := result.Artifacts[events.ArtifactSubtitle]
	require.False(t, hasSubtitle)

	entries, err := os.ReadDir(filepath.Dir(h.video))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestUnterminatedStepExcludedWithoutNumberingGap(t *testing.T) {
	h := newHarness(t, nil)

	h.bus.EmitTestStarted(&events.Test{})

	first := &events.Step{Actor: "I", Name: "first"}
	h.bus.EmitStepStarted(first)
	h.mock.Add(time.Second)
	h.bus.EmitStepFinished(first)

	// starts but never finishes
	hung := &events.Step{Actor: "I", Name: "waitForever"}
	h.bus.EmitStepStarted(hung)

	h.mock.Add(time.Second)
	third := &events.Step{Actor: "I", Name: "third"}
	h.bus.EmitStepStarted(third)
	h.mock.Add(time.Second)
	h.bus.EmitStepFinished(third)

	h.finish(t, true)

	content, err := os.ReadFile(filepath.Join(filepath.Dir(h.video), "test.srt"))
	require.NoError(t, err)
	require.Equal(t,
		"1\n00:00:00,000 --> 00:00:01,000\nI.first()\n\n"+
			"2\n00:00:02,000 --> 00:00:03,000\nI.third()\n\n",
		string(content))
}

func TestCuesOrderedByStartRegardlessOfFinishOrder(t *testing.T) {
	h := newHarness(t, nil)

	h.bus.EmitTestStarted(&events.Test{})

	first := &events.Step{Actor: "I", Name: "first"}
	h.bus.EmitStepStarted(first)

	h.mock.Add(time.Second)
	second := &events.Step{Actor: "I", Name: "second"}
	h.bus.EmitStepStarted(second)

	// finish events arrive in reverse start order
	h.mock.Add(time.Second)
	h.bus.EmitStepFinished(second)
	h.mock.Add(time.Second)
	h.bus.EmitStepFinished(first)

	h.finish(t, true)

	content, err := os.ReadFile(filepath.Join(filepath.Dir(h.video), "test.srt"))
	require.NoError(t, err)
	require.Equal(t,
		"1\n00:00:00,000 --> 00:00:03,000\nI.first()\n\n"+
			"2\n00:00:01,000 --> 00:00:02,000\nI.second()\n\n",
		string(content))
}

func TestUnknownFinishIsSilentNoOp(t *testing.T) {
	h := newHarness(t, nil)

	h.bus.EmitTestStarted(&events.Test{})

	// finish with no matching start, nil payload, empty id
	h.bus.EmitStepFinished(&events.Step{ID: "never-started"})
	h.bus.EmitStepFinished(nil)
	h.bus.EmitStepFinished(&events.Step{})

	h.finish(t, true)

	content, err := os.ReadFile(filepath.Join(filepath.Dir(h.video), "test.srt"))
	require.NoError(t, err)
	require.Equal(t, "", string(content))
}

func TestSessionResetsBetweenTests(t *testing.T) {
	h := newHarness(t, nil)

	h.bus.EmitTestStarted(&events.Test{Title: "first test"})
	stale := &events.Step{Actor: "I", Name: "stale"}
	h.bus.EmitStepStarted(stale)
	h.mock.Add(time.Second)
	h.bus.EmitStepFinished(stale)

	// first test aborted: no finish event, next start discards its state
	h.mock.Add(time.Minute)
	h.bus.EmitTestStarted(&events.Test{Title: "second test"})

	fresh := &events.Step{Actor: "I", Name: "fresh"}
	h.mock.Add(2 * time.Second)
	h.bus.EmitStepStarted(fresh)
	h.mock.Add(time.Second)
	h.bus.EmitStepFinished(fresh)

	h.finish(t, true)

	content, err := os.ReadFile(filepath.Join(filepath.Dir(h.video), "test.srt"))
	require.NoError(t, err)
	require.Equal(t,
		"1\n00:00:02,000 --> 00:00:03,000\nI.fresh()\n\n",
		string(content))

	// a finish for a step of the previous test is ignored
	h.bus.EmitStepFinished(stale)
}

func TestStepIDsAreUniquePerStart(t *testing.T) {
	h := newHarness(t, nil)
	h.bus.EmitTestStarted(&events.Test{})

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		step := &events.Step{Actor: "I", Name: "click"}
		h.bus.EmitStepStarted(step)
		require.NotEmpty(t, step.ID)
		require.False(t, seen[step.ID], "duplicate id %s", step.ID)
		seen[step.ID] = true
	}
}

func TestOverwritesExistingSubtitle(t *testing.T) {
	h := newHarness(t, nil)

	existing := filepath.Join(filepath.Dir(h.video), "test.srt")
	require.NoError(t, os.WriteFile(existing, []byte("old content"), 0644))

	h.bus.EmitTestStarted(&events.Test{})
	step := &events.Step{Actor: "I", Name: "click"}
	h.bus.EmitStepStarted(step)
	h.mock.Add(time.Second)
	h.bus.EmitStepFinished(step)

	h.finish(t, true)

	content, err := os.ReadFile(existing)
	require.NoError(t, err)
	require.NotContains(t, string(content), "old content")
	require.Contains(t, string(content), "I.click()")
}

func TestWriteFailurePropagates(t *testing.T) {
	h := newHarness(t, nil)

	h.bus.EmitTestStarted(&events.Test{})

	result := &events.TestResult{
		Artifacts: map[string]string{
			events.ArtifactVideo: filepath.Join(t.TempDir(), "missing", "dir", "test.mp4"),
		},
	}
	err := h.bus.EmitTestFinished(result)
	require.Error(t, err)

	_, hasSubtitle := result.Artifacts[events.ArtifactSubtitle]
	require.False(t, hasSubtitle)
}

// fakeEmbedder records the mux request and optionally fails
type fakeEmbedder struct {
	video    string
	subtitle string
	err      error
}

func (f *fakeEmbedder) Embed(_ context.Context, videoPath, subtitlePath string) (string, error) {
	f.video = videoPath
	f.subtitle = subtitlePath
	if f.err != nil {
		return "", f.err
	}
	return videoPath, nil
}

func TestEmbedInvokedWhenConfigured(t *testing.T) {
	mock := clock.NewMock()
	bus := events.NewBus()
	embedder := &fakeEmbedder{}
	New(&config.Config{Format: "SRT", Embed: true}, logging.NewNop()).
		WithClock(mock).
		WithEmbedder(embedder).
		Attach(bus)

	videoPath := filepath.Join(t.TempDir(), "test.mp4")

	bus.EmitTestStarted(&events.Test{})
	step := &events.Step{Actor: "I", Name: "click"}
	bus.EmitStepStarted(step)
	mock.Add(time.Second)
	bus.EmitStepFinished(step)

	result := &events.TestResult{Artifacts: map[string]string{events.ArtifactVideo: videoPath}}
	require.NoError(t, bus.EmitTestFinished(result))

	require.Equal(t, videoPath, embedder.video)
	require.Equal(t, result.Artifacts[events.ArtifactSubtitle], embedder.subtitle)
}

func TestEmbedFailureIsNotFatal(t *testing.T) {
	mock := clock.NewMock()
	bus := events.NewBus()
	embedder := &fakeEmbedder{err: errors.New("no ffmpeg")}
	New(&config.Config{Format: "SRT", Embed: true}, logging.NewNop()).
		WithClock(mock).
		WithEmbedder(embedder).
		Attach(bus)

	videoPath := filepath.Join(t.TempDir(), "test.mp4")

	bus.EmitTestStarted(&events.Test{})
	step := &events.Step{Actor: "I", Name: "click"}
	bus.EmitStepStarted(step)
	mock.Add(time.Second)
	bus.EmitStepFinished(step)

	result := &events.TestResult{Artifacts: map[string]string{events.ArtifactVideo: videoPath}}
	require.NoError(t, bus.EmitTestFinished(result))
	require.NotEmpty(t, result.Artifacts[events.ArtifactSubtitle])
}
