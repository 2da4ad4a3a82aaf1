package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-console/internal/application"
)

// holdSynth blocks utterances containing "hold" until their context is
// cancelled, to exercise pre-emption.
type holdSynth struct {
	mu       sync.Mutex
	finished []string
	cut      []string
	started  chan string
}

func (s *holdSynth) Speak(ctx context.Context, text string) error {
	s.started <- text
	if text == "hold" {
		<-ctx.Done()
		s.mu.Lock()
		s.cut = append(s.cut, text)
		s.mu.Unlock()
		return ctx.Err()
	}
	s.mu.Lock()
	s.finished = append(s.finished, text)
	s.mu.Unlock()
	return nil
}

func TestSpeechGate_PreemptsCurrentUtterance(t *testing.T) {
	synth := &holdSynth{started: make(chan string, 2)}
	gate := application.NewSpeechGate(synth, application.NopSink{})

	errCh := make(chan error, 1)
	go func() {
		errCh <- gate.Say(context.Background(), "hold")
	}()

	require.Equal(t, "hold", <-synth.started)

	// The second utterance cancels the first before speaking.
	require.NoError(t, gate.Say(context.Background(), "newer"))
	require.Equal(t, "newer", <-synth.started)

	select {
	case err := <-errCh:
		// Pre-emption is not an error for the cut-off caller.
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("first utterance was never cancelled")
	}

	synth.mu.Lock()
	defer synth.mu.Unlock()
	assert.Equal(t, []string{"hold"}, synth.cut)
	assert.Equal(t, []string{"newer"}, synth.finished)
}

func TestSpeechGate_EmptyTextIsNoop(t *testing.T) {
	synth := &holdSynth{started: make(chan string, 1)}
	gate := application.NewSpeechGate(synth, application.NopSink{})

	require.NoError(t, gate.Say(context.Background(), ""))
	select {
	case text := <-synth.started:
		t.Fatalf("unexpected utterance %q", text)
	default:
	}
}

func TestSpeechGate_CallerCancellationPropagates(t *testing.T) {
	synth := &holdSynth{started: make(chan string, 1)}
	gate := application.NewSpeechGate(synth, application.NopSink{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- gate.Say(ctx, "hold")
	}()
	<-synth.started
	cancel()

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Say did not return after cancellation")
	}
}
