package domain

import "time"

type IntentType string

const (
	IntentAction  IntentType = "action"
	IntentQuery   IntentType = "query"
	IntentGeneral IntentType = "general"
)

// SingleDeviceAction is one device instruction as the classifier (or a
// routine) expresses it: a natural-language target reference and verb,
// optionally pushed into the future by a relative delay or an absolute time.
type SingleDeviceAction struct {
	Device       string
	Action       string
	DelaySeconds int
	ExecuteAt    time.Time
}

// Deferred reports whether the action carries a delay or an absolute
// execution time. When both are zero the action is immediate.
func (a SingleDeviceAction) Deferred() bool {
	return a.DelaySeconds > 0 || !a.ExecuteAt.IsZero()
}

// StructuredIntent is the classifier's sole output contract: a tagged union
// over action, query and general intents.
type StructuredIntent struct {
	Type IntentType

	// action
	Actions      []SingleDeviceAction
	Confirmation string

	// query
	QueryTarget string
	QueryType   string

	// general
	Reply string
}
