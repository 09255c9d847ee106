package events

// Test identifies the test whose lifecycle is being observed.
type Test struct {
	Title string
}

// Step is the payload of step lifecycle events. ID is empty when the
// runner emits the start event; a subscriber assigns it there and the
// runner carries it back on the finish event so the two can be paired.
type Step struct {
	Actor string
	Name  string
	Args  []string
	ID    string
}

// TestResult carries the finished test and its artifact map. Keys name
// the artifact kind (ArtifactVideo, ArtifactSubtitle); values are file
// paths. Subscribers may add artifacts of their own.
type TestResult struct {
	Test      Test
	Artifacts map[string]string
}

// artifact keys used by the runner and its plugins
const (
	ArtifactVideo    = "video"
	ArtifactSubtitle = "subtitle"
)

// Bus dispatches test lifecycle events to subscribers synchronously, in
// subscription order. Tests run strictly one at a time with respect to
// a bus: step events from two tests are never interleaved.
type Bus struct {
	testStarted  []func(*Test)
	stepStarted  []func(*Step)
	stepFinished []func(*Step)
	testFinished []func(*TestResult) error
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) SubscribeTestStarted(fn func(*Test)) {
	b.testStarted = append(b.testStarted, fn)
}

func (b *Bus) SubscribeStepStarted(fn func(*Step)) {
	b.stepStarted = append(b.stepStarted, fn)
}

func (b *Bus) SubscribeStepFinished(fn func(*Step)) {
	b.stepFinished = append(b.stepFinished, fn)
}

func (b *Bus) SubscribeTestFinished(fn func(*TestResult) error) {
	b.testFinished = append(b.testFinished, fn)
}

func (b *Bus) EmitTestStarted(test *Test) {
	for _, fn := range b.testStarted {
		fn(test)
	}
}

func (b *Bus) EmitStepStarted(step *Step) {
	for _, fn := range b.stepStarted {
		fn(step)
	}
}

func (b *Bus) EmitStepFinished(step *Step) {
	for _, fn := range b.stepFinished {
		fn(step)
	}
}

// EmitTestFinished runs test-finished subscribers until the first error,
// which is returned to the caller. Remaining subscribers are skipped.
func (b *Bus) EmitTestFinished(result *TestResult) error {
	for _, fn := range b.testFinished {
		if err := fn(result); err != nil {
			return err
		}
	}
	return nil
}
