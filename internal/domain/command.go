package domain

import "time"

// DeviceCommand is one entry of a batched request to the device command API.
type DeviceCommand struct {
	DeviceID string
	Command  string
	Params   map[string]any
}

const (
	CommandOn  = "on"
	CommandOff = "off"
)

const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

// CommandResult is the per-device outcome of a batched command request.
// Results are correlated by device ID; the API does not guarantee that the
// response order matches the request order.
type CommandResult struct {
	DeviceID  string
	Status    string
	ErrorCode string
}

func (r CommandResult) OK() bool {
	return r.Status == StatusSuccess
}

// DeferredCommand is a device command handed to the external timer service
// instead of being executed now. Exactly one of DelaySeconds/ExecuteAt is set.
type DeferredCommand struct {
	DeviceID     string
	TurnOn       bool
	DelaySeconds int
	ExecuteAt    time.Time
}
