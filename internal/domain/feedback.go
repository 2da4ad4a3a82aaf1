package domain

import (
	"fmt"
	"strings"
)

type FeedbackKind string

const (
	FeedbackSuccess  FeedbackKind = "success"
	FeedbackError    FeedbackKind = "error"
	FeedbackInfo     FeedbackKind = "info"
	FeedbackSpeaking FeedbackKind = "speaking"
	FeedbackRoutine  FeedbackKind = "routine"
	FeedbackTimer    FeedbackKind = "timer"
)

// Feedback is one entry of the persistent result banner.
type Feedback struct {
	Kind      FeedbackKind
	Message   string
	CommandID string
}

// DispatchOutcome aggregates per-action results of one dispatched command:
// immediate successes and failures, granted schedules, and the running
// explanation lines collected during resolution and execution.
type DispatchOutcome struct {
	Succeeded int
	Failed    int
	Scheduled int
	Lines     []string
}

func (o *DispatchOutcome) AddLine(format string, args ...any) {
	o.Lines = append(o.Lines, fmt.Sprintf(format, args...))
}

// Empty reports whether nothing was executed or scheduled.
func (o DispatchOutcome) Empty() bool {
	return o.Succeeded == 0 && o.Failed == 0 && o.Scheduled == 0
}

// Summary renders the aggregate count line followed by per-action detail.
func (o DispatchOutcome) Summary() string {
	var sb strings.Builder
	switch {
	case o.Succeeded == 0 && o.Failed == 0 && o.Scheduled > 0:
		fmt.Fprintf(&sb, "%d scheduled", o.Scheduled)
	case o.Scheduled > 0:
		fmt.Fprintf(&sb, "%d OK, %d failed, %d scheduled", o.Succeeded, o.Failed, o.Scheduled)
	default:
		fmt.Fprintf(&sb, "%d OK, %d failed", o.Succeeded, o.Failed)
	}
	for _, l := range o.Lines {
		sb.WriteString(". ")
		sb.WriteString(l)
	}
	return sb.String()
}

// Kind maps the aggregate onto a banner kind. Mixed results are reported as
// info, distinct from all-success and all-failure.
func (o DispatchOutcome) Kind() FeedbackKind {
	switch {
	case o.Empty():
		return FeedbackError
	case o.Failed == 0 && o.Succeeded == 0:
		return FeedbackTimer
	case o.Failed == 0:
		return FeedbackSuccess
	case o.Succeeded == 0 && o.Scheduled == 0:
		return FeedbackError
	default:
		return FeedbackInfo
	}
}
