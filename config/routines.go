package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"voice-console/internal/domain"
)

type routinesFile struct {
	Routines []routineEntry `yaml:"routines"`
}

type routineEntry struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Triggers []string      `yaml:"triggers"`
	Response string        `yaml:"response"`
	Actions  []actionEntry `yaml:"actions"`
}

type actionEntry struct {
	Device       string `yaml:"device"`
	Action       string `yaml:"action"`
	DelaySeconds int    `yaml:"delay_seconds"`
	At           string `yaml:"at"`
}

// LoadRoutines reads the user-defined routine file. A missing file is not
// an error: the console simply runs without routines.
func LoadRoutines(path string) ([]domain.Routine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading routines file: %w", err)
	}

	var parsed routinesFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &parsed); err != nil {
		return nil, fmt.Errorf("parsing routines file: %w", err)
	}

	routines := make([]domain.Routine, 0, len(parsed.Routines))
	for i, entry := range parsed.Routines {
		if entry.Name == "" {
			return nil, fmt.Errorf("routine %d has no name", i)
		}
		if len(entry.Triggers) == 0 {
			return nil, fmt.Errorf("routine %q has no trigger phrases", entry.Name)
		}

		routine := domain.Routine{
			ID:       entry.ID,
			Name:     entry.Name,
			Triggers: entry.Triggers,
			Response: entry.Response,
		}
		if routine.ID == "" {
			routine.ID = fmt.Sprintf("routine-%d", i)
		}

		for j, a := range entry.Actions {
			if a.Device == "" || a.Action == "" {
				return nil, fmt.Errorf("routine %q action %d needs device and action", entry.Name, j)
			}
			action := domain.SingleDeviceAction{
				Device:       a.Device,
				Action:       a.Action,
				DelaySeconds: a.DelaySeconds,
			}
			if a.At != "" {
				at, err := time.Parse(time.RFC3339, a.At)
				if err != nil {
					return nil, fmt.Errorf("routine %q action %d: parsing at: %w", entry.Name, j, err)
				}
				action.ExecuteAt = at
			}
			routine.Actions = append(routine.Actions, action)
		}

		routines = append(routines, routine)
	}

	return routines, nil
}
