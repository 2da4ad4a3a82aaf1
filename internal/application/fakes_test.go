package application_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"voice-console/internal/application"
	"voice-console/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCatalog struct {
	mu        sync.Mutex
	devices   []domain.Device
	rooms     []domain.Room
	groups    []domain.DeviceGroup
	fresh     map[string]bool
	refreshed [][]string
	onRefresh func(ids []string)
	refreshErr error
}

func (c *fakeCatalog) Devices() []domain.Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Device, len(c.devices))
	copy(out, c.devices)
	return out
}

func (c *fakeCatalog) Rooms() []domain.Room            { return c.rooms }
func (c *fakeCatalog) Groups() []domain.DeviceGroup    { return c.groups }

func (c *fakeCatalog) DeviceByID(id string) (*domain.Device, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.devices {
		if c.devices[i].ID == id {
			d := c.devices[i]
			return &d, true
		}
	}
	return nil, false
}

func (c *fakeCatalog) Refresh(_ context.Context, ids []string) error {
	c.mu.Lock()
	c.refreshed = append(c.refreshed, ids)
	c.mu.Unlock()
	if c.refreshErr != nil {
		return c.refreshErr
	}
	if c.onRefresh != nil {
		c.onRefresh(ids)
	}
	return nil
}

func (c *fakeCatalog) Fresh(id string) bool {
	return c.fresh[id]
}

func (c *fakeCatalog) setState(id, state string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.devices {
		if c.devices[i].ID == id {
			c.devices[i].State = state
		}
	}
}

type fakeCommander struct {
	mu      sync.Mutex
	batches [][]domain.DeviceCommand
	results []domain.CommandResult
	err     error
}

func (f *fakeCommander) Execute(_ context.Context, cmds []domain.DeviceCommand) ([]domain.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, cmds)
	if f.err != nil {
		return nil, f.err
	}
	if f.results != nil {
		return f.results, nil
	}
	results := make([]domain.CommandResult, 0, len(cmds))
	for _, cmd := range cmds {
		results = append(results, domain.CommandResult{DeviceID: cmd.DeviceID, Status: domain.StatusSuccess})
	}
	return results, nil
}

func (f *fakeCommander) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

type fakeScheduler struct {
	mu         sync.Mutex
	configured bool
	err        error
	scheduled  []domain.DeferredCommand
}

func (f *fakeScheduler) Configured() bool { return f.configured }

func (f *fakeScheduler) Schedule(_ context.Context, cmd domain.DeferredCommand) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.scheduled = append(f.scheduled, cmd)
	return "task-1", nil
}

type fakeClassifier struct {
	mu      sync.Mutex
	intents map[string]*domain.StructuredIntent
	err     error
	calls   []string
	block   chan struct{}
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (*domain.StructuredIntent, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if intent, ok := f.intents[text]; ok {
		return intent, nil
	}
	return &domain.StructuredIntent{Type: domain.IntentGeneral, Reply: "I'm not sure."}, nil
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingSynth struct {
	mu     sync.Mutex
	spoken []string
}

func (s *recordingSynth) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return nil
}

func (s *recordingSynth) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.spoken))
	copy(out, s.spoken)
	return out
}

type recordingSink struct {
	mu      sync.Mutex
	entries []domain.Feedback
	ch      chan domain.Feedback
}

func newRecordingSink() *recordingSink {
	return &recordingSink{ch: make(chan domain.Feedback, 32)}
}

func (s *recordingSink) Publish(_ context.Context, fb domain.Feedback) error {
	s.mu.Lock()
	s.entries = append(s.entries, fb)
	s.mu.Unlock()
	select {
	case s.ch <- fb:
	default:
	}
	return nil
}

func (s *recordingSink) all() []domain.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Feedback, len(s.entries))
	copy(out, s.entries)
	return out
}

// scriptSource is a controllable recognizer for lifecycle tests.
type scriptSource struct {
	mu     sync.Mutex
	events chan domain.ListenEvent
	starts int
	stops  int
}

func newScriptSource() *scriptSource {
	return &scriptSource{events: make(chan domain.ListenEvent, 16)}
}

func (s *scriptSource) Name() string                           { return "script" }
func (s *scriptSource) Events() <-chan domain.ListenEvent      { return s.events }

func (s *scriptSource) Start(_ context.Context) error {
	s.mu.Lock()
	s.starts++
	s.mu.Unlock()
	s.events <- domain.ListenEvent{Kind: domain.ListenStarted}
	return nil
}

func (s *scriptSource) Stop() error {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
	select {
	case s.events <- domain.ListenEvent{Kind: domain.ListenEnded}:
	default:
	}
	return nil
}

func (s *scriptSource) Abort() error { return s.Stop() }

func (s *scriptSource) startCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

func (s *scriptSource) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

var _ application.TargetCatalog = (*fakeCatalog)(nil)
var _ application.DeviceCommander = (*fakeCommander)(nil)
var _ application.ActionScheduler = (*fakeScheduler)(nil)
var _ application.IntentClassifier = (*fakeClassifier)(nil)
var _ application.Synthesizer = (*recordingSynth)(nil)
var _ application.FeedbackSink = (*recordingSink)(nil)
var _ application.TranscriptSource = (*scriptSource)(nil)
