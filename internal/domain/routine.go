package domain

import "strings"

// Routine is a user-defined phrase-to-action-list mapping. A matched routine
// bypasses intent classification entirely.
type Routine struct {
	ID       string
	Name     string
	Triggers []string
	Actions  []SingleDeviceAction
	Response string
}

// Matches reports whether the phrase equals one of the routine's trigger
// phrases, ignoring case and surrounding whitespace.
func (r Routine) Matches(phrase string) bool {
	p := strings.ToLower(strings.TrimSpace(phrase))
	for _, t := range r.Triggers {
		if strings.ToLower(strings.TrimSpace(t)) == p {
			return true
		}
	}
	return false
}
