package application

import (
	"context"
	"log/slog"
	"strings"

	"voice-console/internal/domain"
)

// verbCommands is the fixed verb table. Anything outside it is an
// unsupported-action failure for that action only.
var verbCommands = map[string]string{
	"turn on":    domain.CommandOn,
	"activate":   domain.CommandOn,
	"turn off":   domain.CommandOff,
	"deactivate": domain.CommandOff,
}

// CommandForVerb maps a natural-language verb onto a device command.
// Underscores are tolerated because the classifier and the timer contract
// spell verbs as "turn_on"/"turn_off".
func CommandForVerb(verb string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(verb))
	v = strings.ReplaceAll(v, "_", " ")
	cmd, ok := verbCommands[v]
	return cmd, ok
}

// Dispatcher partitions resolved actions into an immediate batch sent as one
// device-command request and a deferred batch handed to the timer service,
// then aggregates per-device results into one outcome.
type Dispatcher struct {
	commander DeviceCommander
	catalog   TargetCatalog
	scheduler ActionScheduler
	resolver  *Resolver
	logger    *slog.Logger
}

func NewDispatcher(
	commander DeviceCommander,
	catalog TargetCatalog,
	scheduler ActionScheduler,
	resolver *Resolver,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		commander: commander,
		catalog:   catalog,
		scheduler: scheduler,
		resolver:  resolver,
		logger:    logger,
	}
}

// Dispatch executes a list of single-device actions. Resolution failures and
// unsupported verbs fail that action only; sibling actions still run. The
// method never returns an error: every failure mode folds into the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, actions []domain.SingleDeviceAction) domain.DispatchOutcome {
	var outcome domain.DispatchOutcome
	var immediate []domain.DeviceCommand
	var deferred []domain.DeferredCommand

	for _, action := range actions {
		cmd, ok := CommandForVerb(action.Action)
		if !ok {
			outcome.Failed++
			outcome.AddLine("unsupported action %q for %s", action.Action, action.Device)
			continue
		}

		res := d.resolver.Resolve(action.Device, true)
		if !res.Matched() {
			outcome.Failed++
			outcome.AddLine("%s", res.Explanation)
			continue
		}

		for _, device := range res.Devices {
			if action.Deferred() {
				deferred = append(deferred, domain.DeferredCommand{
					DeviceID:     device.ID,
					TurnOn:       cmd == domain.CommandOn,
					DelaySeconds: action.DelaySeconds,
					ExecuteAt:    action.ExecuteAt,
				})
			} else {
				immediate = append(immediate, domain.DeviceCommand{
					DeviceID: device.ID,
					Command:  cmd,
				})
			}
		}
	}

	d.executeImmediate(ctx, immediate, &outcome)
	d.scheduleDeferred(ctx, deferred, &outcome)

	return outcome
}

// executeImmediate sends the whole batch as one request and correlates the
// per-device results by ID. An API-level failure is surfaced as a single
// error line and does not poison already-aggregated actions.
func (d *Dispatcher) executeImmediate(ctx context.Context, batch []domain.DeviceCommand, outcome *domain.DispatchOutcome) {
	if len(batch) == 0 {
		return
	}

	results, err := d.commander.Execute(ctx, batch)
	if err != nil {
		outcome.Failed += len(batch)
		outcome.AddLine("device command request failed: %v", err)
		return
	}

	byID := make(map[string]domain.CommandResult, len(results))
	for _, r := range results {
		byID[r.DeviceID] = r
	}

	var succeededIDs []string
	for _, cmd := range batch {
		r, ok := byID[cmd.DeviceID]
		if !ok {
			outcome.Failed++
			outcome.AddLine("no result for device %s", cmd.DeviceID)
			continue
		}
		if r.OK() {
			outcome.Succeeded++
			succeededIDs = append(succeededIDs, cmd.DeviceID)
		} else {
			outcome.Failed++
			reason := r.ErrorCode
			if reason == "" {
				reason = "command failed"
			}
			outcome.AddLine("%s: %s", cmd.DeviceID, reason)
		}
	}

	if len(succeededIDs) > 0 {
		// Awaited so the catalog reflects fresh state before feedback goes
		// out; a refresh failure does not demote the command result.
		if err := d.catalog.Refresh(ctx, succeededIDs); err != nil {
			d.logger.Warn("refresh after dispatch failed", "error", err)
		}
	}
}

// scheduleDeferred issues one independent scheduling request per entry.
// Without a configured timer service the whole deferred batch fails fast.
func (d *Dispatcher) scheduleDeferred(ctx context.Context, batch []domain.DeferredCommand, outcome *domain.DispatchOutcome) {
	if len(batch) == 0 {
		return
	}

	if !d.scheduler.Configured() {
		outcome.Failed += len(batch)
		outcome.AddLine("%d delayed action(s) dropped: %v", len(batch), ErrSchedulerNotConfigured)
		return
	}

	for _, cmd := range batch {
		taskID, err := d.scheduler.Schedule(ctx, cmd)
		if err != nil {
			outcome.Failed++
			outcome.AddLine("scheduling %s failed: %v", cmd.DeviceID, err)
			continue
		}
		outcome.Scheduled++
		if cmd.DelaySeconds > 0 {
			outcome.AddLine("%s scheduled in %ds (task %s)", cmd.DeviceID, cmd.DelaySeconds, taskID)
		} else {
			outcome.AddLine("%s scheduled for %s (task %s)", cmd.DeviceID, cmd.ExecuteAt.Format("15:04:05"), taskID)
		}
	}
}
