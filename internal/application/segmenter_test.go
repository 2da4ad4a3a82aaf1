package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"voice-console/internal/application"
)

func TestSegmenter(t *testing.T) {
	seg := application.NewSegmenter("jarvis")

	testCases := []struct {
		name       string
		transcript string
		awaiting   bool
		wantKind   application.SegmentKind
		wantBody   string
	}{
		{
			name:       "wake word with command",
			transcript: "jarvis turn on kitchen lights",
			wantKind:   application.SegCommand,
			wantBody:   "turn on kitchen lights",
		},
		{
			name:       "wake word capitalized with comma",
			transcript: "Jarvis, movie time",
			wantKind:   application.SegCommand,
			wantBody:   "movie time",
		},
		{
			name:       "bare wake word",
			transcript: "jarvis",
			wantKind:   application.SegAwaiting,
		},
		{
			name:       "wake word with trailing punctuation only",
			transcript: "jarvis,",
			wantKind:   application.SegAwaiting,
		},
		{
			name:       "no wake word",
			transcript: "turn on the lights",
			wantKind:   application.SegIgnored,
		},
		{
			name:       "wake word mid-sentence",
			transcript: "hey jarvis lights",
			wantKind:   application.SegIgnored,
		},
		{
			name:       "wake word is a prefix of another word",
			transcript: "jarvistown lights",
			wantKind:   application.SegIgnored,
		},
		{
			name:       "awaiting phase takes everything verbatim",
			transcript: "turn on the lights",
			awaiting:   true,
			wantKind:   application.SegCommand,
			wantBody:   "turn on the lights",
		},
		{
			name:       "awaiting phase with empty utterance",
			transcript: "   ",
			awaiting:   true,
			wantKind:   application.SegCommand,
			wantBody:   "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := seg.Segment(tc.transcript, tc.awaiting)
			assert.Equal(t, tc.wantKind, got.Kind)
			assert.Equal(t, tc.wantBody, got.Body)
		})
	}
}

func TestSegmenter_WakeWordCaseInsensitiveConfig(t *testing.T) {
	seg := application.NewSegmenter("  Jarvis ")

	got := seg.Segment("jarvis lights off", false)
	assert.Equal(t, application.SegCommand, got.Kind)
	assert.Equal(t, "lights off", got.Body)
}
