package application

import (
	"context"
	"log/slog"

	"voice-console/internal/domain"
)

// FeedbackSink receives result banner entries: command outcomes, warnings,
// spoken-output notices.
type FeedbackSink interface {
	Publish(ctx context.Context, fb domain.Feedback) error
}

type NopSink struct{}

func (NopSink) Publish(context.Context, domain.Feedback) error { return nil }

// LogSink writes banner entries to the structured log. It is the default
// sink for console installations.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Publish(_ context.Context, fb domain.Feedback) error {
	s.Logger.Info("feedback", "kind", fb.Kind, "message", fb.Message, "commandID", fb.CommandID)
	return nil
}

// MultiSink fans one banner entry out to several sinks.
type MultiSink []FeedbackSink

func (m MultiSink) Publish(ctx context.Context, fb domain.Feedback) error {
	var firstErr error
	for _, s := range m {
		if err := s.Publish(ctx, fb); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
