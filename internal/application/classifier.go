package application

import (
	"context"

	"voice-console/internal/domain"
)

// IntentClassifier sends command text to the external structured-intent
// service. A failure is terminal for the current command; callers do not
// retry.
type IntentClassifier interface {
	Classify(ctx context.Context, text string) (*domain.StructuredIntent, error)
}
