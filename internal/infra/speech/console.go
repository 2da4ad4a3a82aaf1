package speech

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ConsoleSynthesizer "speaks" by printing to a writer, pacing output per
// word so a pre-empting utterance can actually cut it off, like real audio
// playback.
type ConsoleSynthesizer struct {
	mu      sync.Mutex
	out     io.Writer
	perWord time.Duration
}

func NewConsoleSynthesizer(out io.Writer) *ConsoleSynthesizer {
	return &ConsoleSynthesizer{out: out, perWord: 80 * time.Millisecond}
}

// NewInstantSynthesizer prints the whole utterance at once, for tests and
// non-interactive runs.
func NewInstantSynthesizer(out io.Writer) *ConsoleSynthesizer {
	return &ConsoleSynthesizer{out: out}
}

func (s *ConsoleSynthesizer) Speak(ctx context.Context, text string) error {
	if s.perWord <= 0 {
		s.mu.Lock()
		fmt.Fprintf(s.out, "[voice] %s\n", text)
		s.mu.Unlock()
		return nil
	}

	words := strings.Fields(text)
	s.mu.Lock()
	fmt.Fprint(s.out, "[voice] ")
	s.mu.Unlock()
	for i, w := range words {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			fmt.Fprintln(s.out, "--")
			s.mu.Unlock()
			return ctx.Err()
		case <-time.After(s.perWord):
		}
		s.mu.Lock()
		if i > 0 {
			fmt.Fprint(s.out, " ")
		}
		fmt.Fprint(s.out, w)
		s.mu.Unlock()
	}
	s.mu.Lock()
	fmt.Fprintln(s.out)
	s.mu.Unlock()
	return nil
}
