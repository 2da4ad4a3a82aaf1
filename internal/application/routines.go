package application

import "voice-console/internal/domain"

// RoutineSet matches segmented command bodies against user-defined trigger
// phrases. Matching happens strictly before classification, so routine
// phrases behave deterministically regardless of the classifier.
type RoutineSet struct {
	routines []domain.Routine
}

func NewRoutineSet(routines []domain.Routine) *RoutineSet {
	return &RoutineSet{routines: routines}
}

// Match returns the first routine (in declaration order) whose trigger
// phrases contain the command, compared case-insensitively. Two routines
// sharing a trigger phrase is a configuration mistake; the first one wins.
func (s *RoutineSet) Match(command string) (*domain.Routine, bool) {
	for i := range s.routines {
		if s.routines[i].Matches(command) {
			return &s.routines[i], true
		}
	}
	return nil, false
}

func (s *RoutineSet) Len() int { return len(s.routines) }
