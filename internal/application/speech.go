package application

import (
	"context"
	"errors"
	"sync"

	"voice-console/internal/domain"
)

// Synthesizer turns one utterance into audible (or printed) output and
// returns when the utterance completes or its context is cancelled.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// NoopSynthesizer discards utterances, for installations without voice
// output.
type NoopSynthesizer struct{}

func (NoopSynthesizer) Speak(context.Context, string) error { return nil }

// SpeechGate serializes spoken output: starting a new utterance always
// cancels the utterance in progress, so two utterances never overlap.
type SpeechGate struct {
	synth    Synthesizer
	feedback FeedbackSink

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func NewSpeechGate(synth Synthesizer, feedback FeedbackSink) *SpeechGate {
	return &SpeechGate{synth: synth, feedback: feedback}
}

// Say speaks text, pre-empting any utterance in progress. A pre-empted
// utterance is not an error for its caller.
func (g *SpeechGate) Say(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	sctx, cancel := context.WithCancel(ctx)

	g.mu.Lock()
	if g.cancel != nil {
		g.cancel()
	}
	g.gen++
	mine := g.gen
	g.cancel = cancel
	g.mu.Unlock()

	if g.feedback != nil {
		_ = g.feedback.Publish(ctx, domain.Feedback{Kind: domain.FeedbackSpeaking, Message: text})
	}

	err := g.synth.Speak(sctx, text)

	g.mu.Lock()
	if g.gen == mine {
		// No newer utterance replaced us.
		g.cancel = nil
	}
	g.mu.Unlock()
	cancel()

	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		return nil
	}
	return err
}
