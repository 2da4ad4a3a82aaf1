package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"voice-console/internal/domain"
)

// QueryResponder resolves an informational query target, refreshes its state
// when the catalog's snapshot is stale, and renders a spoken answer.
type QueryResponder struct {
	catalog  TargetCatalog
	resolver *Resolver
	logger   *slog.Logger

	// propagation is how long to wait after a refresh before re-reading the
	// catalog.
	propagation time.Duration
}

func NewQueryResponder(catalog TargetCatalog, resolver *Resolver, propagation time.Duration, logger *slog.Logger) *QueryResponder {
	if propagation <= 0 {
		propagation = 300 * time.Millisecond
	}
	return &QueryResponder{
		catalog:     catalog,
		resolver:    resolver,
		logger:      logger,
		propagation: propagation,
	}
}

// Respond answers a query about a target. Queries resolve like action
// targets but without the controllable-class restriction. A missing target
// produces a "not found" reply, never an error.
func (q *QueryResponder) Respond(ctx context.Context, target, queryType string) string {
	res := q.resolver.Resolve(target, false)
	if !res.Matched() {
		return fmt.Sprintf("I couldn't find %s.", target)
	}

	device := res.Devices[0]

	// Stale-snapshot decision: answer from the catalog when the device was
	// refreshed within the freshness window, otherwise refresh first.
	if !q.catalog.Fresh(device.ID) {
		if err := q.catalog.Refresh(ctx, []string{device.ID}); err != nil {
			q.logger.Warn("query refresh failed, answering from cache", "device", device.ID, "error", err)
		} else {
			select {
			case <-ctx.Done():
				return fmt.Sprintf("I couldn't read %s right now.", device.Name)
			case <-time.After(q.propagation):
			}
		}
		if fresh, ok := q.catalog.DeviceByID(device.ID); ok {
			device = *fresh
		}
	}

	q.logger.Info("answering query", "device", device.ID, "queryType", queryType, "state", device.State)
	return renderState(device)
}

// renderState formats the reply by device class: sensors carry their unit
// and fall back to "unavailable", boolean-like devices render on/off, and
// everything else reports the raw state.
func renderState(d domain.Device) string {
	switch d.Class {
	case domain.ClassSensor:
		if !d.StateKnown() {
			return fmt.Sprintf("%s is unavailable.", d.Name)
		}
		if unit := d.Unit(); unit != "" {
			return fmt.Sprintf("%s reads %s %s.", d.Name, d.State, unit)
		}
		return fmt.Sprintf("%s reads %s.", d.Name, d.State)
	case domain.ClassLight, domain.ClassSwitch, domain.ClassFan, domain.ClassOutlet:
		if d.IsOn() {
			return fmt.Sprintf("%s is on.", d.Name)
		}
		return fmt.Sprintf("%s is off.", d.Name)
	default:
		if !d.StateKnown() {
			return fmt.Sprintf("%s is unavailable.", d.Name)
		}
		return fmt.Sprintf("%s is %s.", d.Name, d.State)
	}
}
