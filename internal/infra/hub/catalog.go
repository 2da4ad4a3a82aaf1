package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"voice-console/internal/domain"
)

// Catalog is the read-only target catalog backed by the hub: devices, rooms
// and groups, re-synced periodically, with a freshness record per device
// that drives the refresh-before-read decision for queries.
type Catalog struct {
	client *Client
	logger *slog.Logger

	mu      sync.RWMutex
	devices []domain.Device
	rooms   []domain.Room
	groups  []domain.DeviceGroup
	byID    map[string]*domain.Device

	fresh *gocache.Cache
}

func NewCatalog(client *Client, freshTTL time.Duration, logger *slog.Logger) *Catalog {
	if freshTTL <= 0 {
		freshTTL = 5 * time.Second
	}
	return &Catalog{
		client: client,
		logger: logger,
		byID:   make(map[string]*domain.Device),
		fresh:  gocache.New(freshTTL, time.Minute),
	}
}

// Sync replaces the catalog contents from the hub.
func (c *Catalog) Sync(ctx context.Context) error {
	c.logger.Info("syncing catalog from hub")

	devices, err := c.client.GetDevices(ctx)
	if err != nil {
		return fmt.Errorf("syncing devices: %w", err)
	}

	rooms, err := c.client.GetRooms(ctx)
	if err != nil {
		return fmt.Errorf("syncing rooms: %w", err)
	}

	groups, err := c.client.GetGroups(ctx)
	if err != nil {
		return fmt.Errorf("syncing groups: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.devices = devices
	c.rooms = rooms
	c.groups = groups
	c.rebuildIndexLocked()

	c.logger.Info("catalog synced",
		"devices", len(c.devices),
		"rooms", len(c.rooms),
		"groups", len(c.groups),
	)
	return nil
}

func (c *Catalog) rebuildIndexLocked() {
	c.byID = make(map[string]*domain.Device, len(c.devices))
	for i := range c.devices {
		c.byID[c.devices[i].ID] = &c.devices[i]
	}
}

func (c *Catalog) Devices() []domain.Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]domain.Device, len(c.devices))
	copy(result, c.devices)
	return result
}

func (c *Catalog) Rooms() []domain.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]domain.Room, len(c.rooms))
	copy(result, c.rooms)
	return result
}

func (c *Catalog) Groups() []domain.DeviceGroup {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]domain.DeviceGroup, len(c.groups))
	copy(result, c.groups)
	return result
}

func (c *Catalog) DeviceByID(id string) (*domain.Device, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	out := *d
	return &out, true
}

// Refresh asks the hub to re-report the given devices, re-reads the device
// list so callers see the new state, and records the devices as fresh.
func (c *Catalog) Refresh(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := c.client.Refresh(ctx, ids); err != nil {
		return err
	}

	devices, err := c.client.GetDevices(ctx)
	if err != nil {
		return fmt.Errorf("re-reading devices after refresh: %w", err)
	}

	c.mu.Lock()
	c.devices = devices
	c.rebuildIndexLocked()
	c.mu.Unlock()

	for _, id := range ids {
		c.fresh.SetDefault(id, time.Now())
	}
	return nil
}

// Fresh reports whether the device was refreshed within the freshness TTL.
func (c *Catalog) Fresh(id string) bool {
	_, ok := c.fresh.Get(id)
	return ok
}

// StartPeriodicSync re-syncs the catalog on a fixed interval until the
// context ends.
func (c *Catalog) StartPeriodicSync(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.Sync(ctx); err != nil {
					c.logger.Error("periodic catalog sync failed", "error", err)
				}
			}
		}
	}()
}
