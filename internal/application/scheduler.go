package application

import (
	"context"
	"errors"

	"voice-console/internal/domain"
)

// ErrSchedulerNotConfigured is returned when no timer service endpoint is
// configured. All deferred actions of a command fail fast on it.
var ErrSchedulerNotConfigured = errors.New("timer service not configured")

// ActionScheduler forwards one deferred command to the external timer
// service and returns the granted task identifier.
type ActionScheduler interface {
	Configured() bool
	Schedule(ctx context.Context, cmd domain.DeferredCommand) (taskID string, err error)
}
