//go:build !portaudio
// +build !portaudio

package listen

import (
	"context"
	"fmt"
	"log/slog"

	"voice-console/internal/domain"
)

// Transcriber converts one captured utterance into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// MicSource stub when portaudio is not available.
type MicSource struct {
	logger *slog.Logger
	events chan domain.ListenEvent
}

func NewMicSource(_ Transcriber, _ int, logger *slog.Logger) *MicSource {
	return &MicSource{logger: logger, events: make(chan domain.ListenEvent)}
}

func (m *MicSource) Name() string { return "microphone" }

func (m *MicSource) Events() <-chan domain.ListenEvent { return m.events }

func (m *MicSource) Start(_ context.Context) error {
	return fmt.Errorf("microphone source not available: rebuild with -tags portaudio")
}

func (m *MicSource) Stop() error { return nil }

func (m *MicSource) Abort() error { return nil }
