package domain

import (
	"fmt"
	"strings"
)

type DeviceClass string

const (
	ClassLight       DeviceClass = "light"
	ClassSwitch      DeviceClass = "switch"
	ClassFan         DeviceClass = "fan"
	ClassOutlet      DeviceClass = "outlet"
	ClassSensor      DeviceClass = "sensor"
	ClassMediaPlayer DeviceClass = "media_player"
	ClassClimate     DeviceClass = "climate"
	ClassOther       DeviceClass = "other"
)

// Controllable reports whether devices of this class accept on/off commands.
func (c DeviceClass) Controllable() bool {
	switch c {
	case ClassLight, ClassSwitch, ClassFan, ClassOutlet:
		return true
	}
	return false
}

type Device struct {
	ID         string
	Name       string
	Class      DeviceClass
	State      string
	Online     bool
	Attributes map[string]any
}

// IsOn interprets the reported state of a boolean-like device.
func (d Device) IsOn() bool {
	switch strings.ToLower(strings.TrimSpace(d.State)) {
	case "on", "true", "1", "open", "active":
		return true
	}
	return false
}

// StateKnown reports whether the device has a usable reported state.
func (d Device) StateKnown() bool {
	switch strings.ToLower(strings.TrimSpace(d.State)) {
	case "", "unknown", "unavailable", "null", "none":
		return false
	}
	return true
}

// Unit returns the measurement unit attribute, if any.
func (d Device) Unit() string {
	if u, ok := d.Attributes["unit"].(string); ok {
		return u
	}
	return ""
}

func (d Device) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.Class)
}

type Room struct {
	ID        string
	Name      string
	DeviceIDs []string
}

type DeviceGroup struct {
	ID        string
	Name      string
	DeviceIDs []string
}
