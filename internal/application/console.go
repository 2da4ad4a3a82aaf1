package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"voice-console/internal/domain"
)

// phase is the conversation lifecycle: idle, awaiting the command tail after
// a bare wake word, or processing a full command. Awaiting and processing
// are mutually exclusive by construction.
type phase int

const (
	phaseIdle phase = iota
	phaseAwaiting
	phaseProcessing
)

// Console is the command orchestrator: it consumes transcripts from the
// listening manager, segments them, short-circuits routines, classifies the
// rest, and routes structured intents to the dispatcher, the query responder
// or plain speech. At most one command is in flight at any instant;
// transcripts arriving while processing are discarded, not queued.
type Console struct {
	listen     *ListenManager
	segmenter  *Segmenter
	routines   *RoutineSet
	classifier IntentClassifier
	dispatcher *Dispatcher
	query      *QueryResponder
	speech     *SpeechGate
	feedback   FeedbackSink
	logger     *slog.Logger

	awaitTimeout time.Duration

	mu         sync.Mutex
	phase      phase
	awaitTimer *time.Timer
}

func NewConsole(
	listen *ListenManager,
	segmenter *Segmenter,
	routines *RoutineSet,
	classifier IntentClassifier,
	dispatcher *Dispatcher,
	query *QueryResponder,
	speech *SpeechGate,
	feedback FeedbackSink,
	awaitTimeout time.Duration,
	logger *slog.Logger,
) *Console {
	if awaitTimeout <= 0 {
		awaitTimeout = 5 * time.Second
	}
	return &Console{
		listen:       listen,
		segmenter:    segmenter,
		routines:     routines,
		classifier:   classifier,
		dispatcher:   dispatcher,
		query:        query,
		speech:       speech,
		feedback:     feedback,
		awaitTimeout: awaitTimeout,
		logger:       logger,
	}
}

// Run starts listening and processes transcripts until the context ends.
func (c *Console) Run(ctx context.Context) error {
	go c.listen.Run(ctx)
	c.listen.SetDesired(true)

	c.logger.Info("console ready, waiting for the wake word")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case transcript := <-c.listen.Transcripts():
			c.HandleTranscript(ctx, transcript)
		}
	}
}

// StopListening is the manual stop action: it cancels any pending awaiting
// window and closes the microphone.
func (c *Console) StopListening() {
	c.mu.Lock()
	c.stopAwaitTimerLocked()
	if c.phase == phaseAwaiting {
		c.phase = phaseIdle
	}
	c.mu.Unlock()
	c.listen.SetCommandInFlight(false, false)
	c.listen.SetDesired(false)
}

func (c *Console) StartListening() {
	c.listen.SetDesired(true)
}

// HandleTranscript routes one raw transcript through the pipeline. Command
// execution happens on its own goroutine so transcripts arriving meanwhile
// can be observed and discarded instead of queueing up.
func (c *Console) HandleTranscript(ctx context.Context, transcript string) {
	c.mu.Lock()
	if c.phase == phaseProcessing {
		c.mu.Unlock()
		c.logger.Info("command in flight, transcript discarded", "text", transcript)
		return
	}

	seg := c.segmenter.Segment(transcript, c.phase == phaseAwaiting)

	switch seg.Kind {
	case SegIgnored:
		c.mu.Unlock()
		c.logger.Info("heard", "text", seg.Echo)

	case SegAwaiting:
		c.phase = phaseAwaiting
		c.stopAwaitTimerLocked()
		c.awaitTimer = time.AfterFunc(c.awaitTimeout, c.awaitTimedOut)
		c.mu.Unlock()
		c.listen.SetCommandInFlight(true, true)
		c.publish(ctx, domain.FeedbackInfo, "Listening...", "")

	case SegCommand:
		c.stopAwaitTimerLocked()
		c.phase = phaseProcessing
		c.mu.Unlock()
		c.listen.SetCommandInFlight(true, false)
		go func() {
			defer c.finishCommand()
			c.runCommand(ctx, seg.Body)
		}()
	}
}

// finishCommand is the single terminal state-reset: every command path,
// including panics escaping a collaborator call, must leave the processing
// phase.
func (c *Console) finishCommand() {
	c.mu.Lock()
	c.phase = phaseIdle
	c.mu.Unlock()
	c.listen.SetCommandInFlight(false, false)
}

func (c *Console) awaitTimedOut() {
	c.mu.Lock()
	if c.phase != phaseAwaiting {
		c.mu.Unlock()
		return
	}
	c.phase = phaseIdle
	c.awaitTimer = nil
	c.mu.Unlock()

	c.listen.SetCommandInFlight(false, false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c.publish(ctx, domain.FeedbackInfo, "I didn't hear a command.", "")
	_ = c.speech.Say(ctx, "I didn't hear a command.")
}

func (c *Console) stopAwaitTimerLocked() {
	if c.awaitTimer != nil {
		c.awaitTimer.Stop()
		c.awaitTimer = nil
	}
}

func (c *Console) runCommand(ctx context.Context, body string) {
	id := uuid.NewString()
	logger := c.logger.With("commandID", id)

	if body == "" {
		c.publish(ctx, domain.FeedbackInfo, "No command given.", id)
		_ = c.speech.Say(ctx, "I didn't catch a command.")
		return
	}

	logger.Info("processing command", "text", body)

	// Routines bypass classification entirely; this ordering keeps
	// user-defined phrases deterministic regardless of the classifier.
	if routine, ok := c.routines.Match(body); ok {
		logger.Info("routine matched", "routine", routine.Name)
		c.publish(ctx, domain.FeedbackRoutine, "Running routine: "+routine.Name, id)

		outcome := c.dispatcher.Dispatch(ctx, routine.Actions)
		response := routine.Response
		if response == "" {
			response = outcome.Summary()
		}
		_ = c.speech.Say(ctx, response)
		c.publish(ctx, outcome.Kind(), outcome.Summary(), id)
		return
	}

	intent, err := c.classifier.Classify(ctx, body)
	if err != nil {
		// Terminal for this command; the user re-issues it.
		logger.Error("classifying command", "error", err)
		c.publish(ctx, domain.FeedbackError, "Sorry, I couldn't interpret that.", id)
		_ = c.speech.Say(ctx, "Sorry, I couldn't interpret that.")
		return
	}

	switch intent.Type {
	case domain.IntentAction:
		if intent.Confirmation != "" {
			_ = c.speech.Say(ctx, intent.Confirmation)
		}
		outcome := c.dispatcher.Dispatch(ctx, intent.Actions)
		summary := outcome.Summary()
		logger.Info("dispatched", "succeeded", outcome.Succeeded, "failed", outcome.Failed, "scheduled", outcome.Scheduled)
		_ = c.speech.Say(ctx, summary)
		c.publish(ctx, outcome.Kind(), summary, id)

	case domain.IntentQuery:
		reply := c.query.Respond(ctx, intent.QueryTarget, intent.QueryType)
		_ = c.speech.Say(ctx, reply)
		c.publish(ctx, domain.FeedbackInfo, reply, id)

	case domain.IntentGeneral:
		_ = c.speech.Say(ctx, intent.Reply)
		c.publish(ctx, domain.FeedbackInfo, intent.Reply, id)

	default:
		logger.Error("classifier returned unknown intent type", "type", intent.Type)
		c.publish(ctx, domain.FeedbackError, "Sorry, I couldn't interpret that.", id)
	}
}

func (c *Console) publish(ctx context.Context, kind domain.FeedbackKind, message, id string) {
	if err := c.feedback.Publish(ctx, domain.Feedback{Kind: kind, Message: message, CommandID: id}); err != nil {
		c.logger.Warn("publishing feedback", "error", err)
	}
}
