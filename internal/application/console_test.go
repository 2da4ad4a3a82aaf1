package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-console/internal/application"
	"voice-console/internal/domain"
)

type consoleFixture struct {
	console    *application.Console
	manager    *application.ListenManager
	catalog    *fakeCatalog
	commander  *fakeCommander
	scheduler  *fakeScheduler
	classifier *fakeClassifier
	synth      *recordingSynth
	sink       *recordingSink
}

func newConsoleFixture(routines []domain.Routine, classifier *fakeClassifier, awaitTimeout time.Duration) *consoleFixture {
	logger := discardLogger()
	catalog := testCatalog()
	commander := &fakeCommander{}
	scheduler := &fakeScheduler{configured: true}
	synth := &recordingSynth{}
	sink := newRecordingSink()

	resolver := application.NewResolver(catalog)
	dispatcher := application.NewDispatcher(commander, catalog, scheduler, resolver, logger)
	responder := application.NewQueryResponder(catalog, resolver, time.Millisecond, logger)
	manager := application.NewListenManager(newScriptSource(), 10*time.Millisecond, logger)
	gate := application.NewSpeechGate(synth, application.NopSink{})

	console := application.NewConsole(
		manager,
		application.NewSegmenter("jarvis"),
		application.NewRoutineSet(routines),
		classifier,
		dispatcher,
		responder,
		gate,
		sink,
		awaitTimeout,
		logger,
	)

	return &consoleFixture{
		console:    console,
		manager:    manager,
		catalog:    catalog,
		commander:  commander,
		scheduler:  scheduler,
		classifier: classifier,
		synth:      synth,
		sink:       sink,
	}
}

func waitFeedback(t *testing.T, sink *recordingSink, kind domain.FeedbackKind) domain.Feedback {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case fb := <-sink.ch:
			if fb.Kind == kind {
				return fb
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s feedback, got %v", kind, sink.all())
		}
	}
}

func TestConsole_RoutineBypassesClassifier(t *testing.T) {
	routines := []domain.Routine{{
		ID:       "movie",
		Name:     "Movie Time",
		Triggers: []string{"movie time"},
		Actions: []domain.SingleDeviceAction{
			{Device: "bedroom light", Action: "turn off"},
			{Device: "kitchen fan", Action: "turn on"},
		},
		Response: "Enjoy the movie",
	}}
	fx := newConsoleFixture(routines, &fakeClassifier{}, time.Second)

	fx.console.HandleTranscript(context.Background(), "jarvis movie time")

	waitFeedback(t, fx.sink, domain.FeedbackRoutine)
	fb := waitFeedback(t, fx.sink, domain.FeedbackSuccess)
	assert.Contains(t, fb.Message, "2 OK, 0 failed")

	assert.Equal(t, 0, fx.classifier.callCount(), "classifier must never run for a routine phrase")
	require.Equal(t, 1, fx.commander.batchCount())
	assert.Len(t, fx.commander.batches[0], 2)
	assert.Contains(t, fx.synth.all(), "Enjoy the movie")
}

func TestConsole_ActionCommandEndToEnd(t *testing.T) {
	classifier := &fakeClassifier{
		intents: map[string]*domain.StructuredIntent{
			"turn on kitchen lights": {
				Type:    domain.IntentAction,
				Actions: []domain.SingleDeviceAction{{Device: "kitchen lights", Action: "turn on"}},
			},
		},
	}
	fx := newConsoleFixture(nil, classifier, time.Second)

	fx.console.HandleTranscript(context.Background(), "jarvis turn on kitchen lights")

	fb := waitFeedback(t, fx.sink, domain.FeedbackSuccess)
	assert.Contains(t, fb.Message, "2 OK, 0 failed")

	require.Equal(t, 1, fx.commander.batchCount())
	assert.Len(t, fx.commander.batches[0], 2)
	require.Len(t, fx.catalog.refreshed, 1)
	assert.ElementsMatch(t, []string{"L1", "L2"}, fx.catalog.refreshed[0])
}

func TestConsole_SecondTranscriptDiscardedWhileProcessing(t *testing.T) {
	classifier := &fakeClassifier{block: make(chan struct{})}
	fx := newConsoleFixture(nil, classifier, time.Second)

	fx.console.HandleTranscript(context.Background(), "jarvis turn on the bedroom light")
	require.Eventually(t, func() bool {
		return fx.classifier.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	// Arrives mid-command: discarded, not queued.
	fx.console.HandleTranscript(context.Background(), "jarvis turn off the bedroom light")

	close(classifier.block)
	waitFeedback(t, fx.sink, domain.FeedbackInfo)

	assert.Equal(t, 1, fx.classifier.callCount())
}

func TestConsole_AwaitTimeoutResets(t *testing.T) {
	classifier := &fakeClassifier{}
	fx := newConsoleFixture(nil, classifier, 50*time.Millisecond)

	fx.console.HandleTranscript(context.Background(), "jarvis")
	fb := waitFeedback(t, fx.sink, domain.FeedbackInfo)
	assert.Equal(t, "Listening...", fb.Message)

	fb = waitFeedback(t, fx.sink, domain.FeedbackInfo)
	assert.Equal(t, "I didn't hear a command.", fb.Message)

	// The awaiting window is gone: plain speech is ignored again.
	fx.console.HandleTranscript(context.Background(), "turn on the lights")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, fx.classifier.callCount())
}

func TestConsole_StopListeningCancelsAwait(t *testing.T) {
	classifier := &fakeClassifier{}
	fx := newConsoleFixture(nil, classifier, 50*time.Millisecond)

	fx.console.HandleTranscript(context.Background(), "jarvis")
	fb := waitFeedback(t, fx.sink, domain.FeedbackInfo)
	assert.Equal(t, "Listening...", fb.Message)

	fx.console.StopListening()
	assert.False(t, fx.manager.Desired())

	// The pending awaiting timer is cancelled: its expiry must not speak.
	time.Sleep(120 * time.Millisecond)
	for _, fb := range fx.sink.all() {
		assert.NotEqual(t, "I didn't hear a command.", fb.Message)
	}

	// The awaiting window is gone too: plain speech is ignored.
	fx.console.HandleTranscript(context.Background(), "turn on the lights")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, classifier.callCount())

	fx.console.StartListening()
	assert.True(t, fx.manager.Desired())
}

func TestConsole_AwaitThenCommandTail(t *testing.T) {
	classifier := &fakeClassifier{
		intents: map[string]*domain.StructuredIntent{
			"turn off bedroom light": {
				Type:    domain.IntentAction,
				Actions: []domain.SingleDeviceAction{{Device: "bedroom light", Action: "turn off"}},
			},
		},
	}
	fx := newConsoleFixture(nil, classifier, time.Second)

	fx.console.HandleTranscript(context.Background(), "jarvis")
	waitFeedback(t, fx.sink, domain.FeedbackInfo)

	fx.console.HandleTranscript(context.Background(), "turn off bedroom light")
	fb := waitFeedback(t, fx.sink, domain.FeedbackSuccess)
	assert.Contains(t, fb.Message, "1 OK, 0 failed")
}

func TestConsole_EmptyCommandAfterWakeWord(t *testing.T) {
	fx := newConsoleFixture(nil, &fakeClassifier{}, time.Second)

	fx.console.HandleTranscript(context.Background(), "jarvis")
	waitFeedback(t, fx.sink, domain.FeedbackInfo)

	fx.console.HandleTranscript(context.Background(), "   ")
	deadline := time.After(2 * time.Second)
	for {
		select {
		case fb := <-fx.sink.ch:
			if fb.Message == "No command given." {
				assert.Equal(t, 0, fx.classifier.callCount())
				return
			}
		case <-deadline:
			t.Fatal("timeout waiting for no-command notice")
		}
	}
}

func TestConsole_ClassifierFailureIsTerminal(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("service unavailable")}
	fx := newConsoleFixture(nil, classifier, time.Second)

	fx.console.HandleTranscript(context.Background(), "jarvis do something odd")

	fb := waitFeedback(t, fx.sink, domain.FeedbackError)
	assert.Contains(t, fb.Message, "couldn't interpret")
	assert.Equal(t, 0, fx.commander.batchCount())

	// The pipeline returns to idle; the next command processes normally.
	// Re-issue until the processing phase has been left.
	classifier.err = nil
	require.Eventually(t, func() bool {
		fx.console.HandleTranscript(context.Background(), "jarvis hello there")
		return fx.classifier.callCount() >= 2
	}, time.Second, 10*time.Millisecond)
	waitFeedback(t, fx.sink, domain.FeedbackInfo)
}

func TestConsole_QueryFlow(t *testing.T) {
	classifier := &fakeClassifier{
		intents: map[string]*domain.StructuredIntent{
			"what is the temperature": {
				Type:        domain.IntentQuery,
				QueryTarget: "temperature",
				QueryType:   "temperature",
			},
		},
	}
	fx := newConsoleFixture(nil, classifier, time.Second)
	fx.catalog.fresh = map[string]bool{"S1": true}

	fx.console.HandleTranscript(context.Background(), "jarvis what is the temperature")

	fb := waitFeedback(t, fx.sink, domain.FeedbackInfo)
	assert.Equal(t, "Temperature Sensor reads 21.5 °C.", fb.Message)
	assert.Contains(t, fx.synth.all(), "Temperature Sensor reads 21.5 °C.")
}

func TestConsole_GeneralReply(t *testing.T) {
	classifier := &fakeClassifier{
		intents: map[string]*domain.StructuredIntent{
			"tell me a joke": {Type: domain.IntentGeneral, Reply: "No."},
		},
	}
	fx := newConsoleFixture(nil, classifier, time.Second)

	fx.console.HandleTranscript(context.Background(), "jarvis tell me a joke")

	fb := waitFeedback(t, fx.sink, domain.FeedbackInfo)
	assert.Equal(t, "No.", fb.Message)
}
