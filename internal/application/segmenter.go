package application

import "strings"

type SegmentKind int

const (
	// SegIgnored: the transcript does not open with the wake word and no
	// command tail was pending. Echoed for visibility, nothing executes.
	SegIgnored SegmentKind = iota
	// SegAwaiting: the transcript was exactly the wake word; the next
	// transcript (within the timeout window) is the command body.
	SegAwaiting
	// SegCommand: a command body was isolated.
	SegCommand
)

type Segmentation struct {
	Kind SegmentKind
	// Body is the command payload for SegCommand. It may be empty when the
	// awaiting window produced an empty utterance.
	Body string
	// Echo is the raw transcript, kept for the SegIgnored visibility line.
	Echo string
}

// Segmenter isolates the command payload following the configured wake word.
// It is a pure function of (transcript, awaiting-phase); the timeout around
// the awaiting phase is owned by the orchestrator.
type Segmenter struct {
	wakeWord string
}

func NewSegmenter(wakeWord string) *Segmenter {
	return &Segmenter{wakeWord: strings.ToLower(strings.TrimSpace(wakeWord))}
}

func (s *Segmenter) Segment(transcript string, awaiting bool) Segmentation {
	raw := strings.TrimSpace(transcript)

	if awaiting {
		// Whatever was said after a bare wake word is the command verbatim.
		return Segmentation{Kind: SegCommand, Body: raw, Echo: raw}
	}

	lower := strings.ToLower(raw)
	if lower == s.wakeWord {
		return Segmentation{Kind: SegAwaiting, Echo: raw}
	}

	if rest, ok := strings.CutPrefix(lower, s.wakeWord); ok {
		// Require a word boundary so a wake word "jarvis" does not claim
		// "jarvistown lights".
		if rest[0] == ' ' || rest[0] == ',' || rest[0] == '.' || rest[0] == '!' || rest[0] == '?' {
			body := strings.TrimLeft(raw[len(s.wakeWord):], " ,.!?")
			if body == "" {
				return Segmentation{Kind: SegAwaiting, Echo: raw}
			}
			return Segmentation{Kind: SegCommand, Body: body, Echo: raw}
		}
	}

	return Segmentation{Kind: SegIgnored, Echo: raw}
}
