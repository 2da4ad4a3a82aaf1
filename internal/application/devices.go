package application

import (
	"context"

	"voice-console/internal/domain"
)

// DeviceCommander submits one batched request to the device command API and
// returns per-device results correlated by device ID.
type DeviceCommander interface {
	Execute(ctx context.Context, cmds []domain.DeviceCommand) ([]domain.CommandResult, error)
}

// TargetCatalog is the read-only view of currently known devices, rooms and
// groups. The pipeline never mutates a device; it only requests a refresh
// and reads the catalog again afterwards.
type TargetCatalog interface {
	Devices() []domain.Device
	Rooms() []domain.Room
	Groups() []domain.DeviceGroup
	DeviceByID(id string) (*domain.Device, bool)

	// Refresh asks the hub to re-report the given devices and returns once
	// the catalog reflects their new state.
	Refresh(ctx context.Context, ids []string) error

	// Fresh reports whether the device's state was refreshed recently
	// enough to answer a query from cache.
	Fresh(id string) bool
}
