package application

import (
	"context"

	"voice-console/internal/domain"
)

// TranscriptSource is the black-box recognizer: it is started and stopped by
// the listening lifecycle manager and emits final transcripts, lifecycle
// edges and classified errors on its event channel.
type TranscriptSource interface {
	Start(ctx context.Context) error
	Stop() error
	Abort() error
	Events() <-chan domain.ListenEvent
	Name() string
}
