package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"voice-console/internal/domain"
)

type ListenState int

const (
	ListenIdle ListenState = iota
	ListenStarting
	ListenListening
	ListenStopping
	ListenErrored
)

func (s ListenState) String() string {
	switch s {
	case ListenIdle:
		return "idle"
	case ListenStarting:
		return "starting"
	case ListenListening:
		return "listening"
	case ListenStopping:
		return "stopping"
	case ListenErrored:
		return "errored"
	}
	return "unknown"
}

// ListenManager owns the desired-vs-actual microphone state and reconciles
// them. Two inputs drive it: whether the user wants to listen and whether a
// full command is in flight. It consumes recognizer events and supplies raw
// transcripts upward.
type ListenManager struct {
	source   TranscriptSource
	logger   *slog.Logger
	cooldown time.Duration

	transcripts chan string

	mu           sync.Mutex
	ctx          context.Context
	state        ListenState
	desired      bool
	inFlight     bool
	awaitingTail bool
	lastMessage  string
}

func NewListenManager(source TranscriptSource, cooldown time.Duration, logger *slog.Logger) *ListenManager {
	if cooldown <= 0 {
		cooldown = 300 * time.Millisecond
	}
	return &ListenManager{
		source:      source,
		logger:      logger,
		cooldown:    cooldown,
		transcripts: make(chan string, 4),
	}
}

// Transcripts carries final transcripts upward to the orchestrator.
func (m *ListenManager) Transcripts() <-chan string { return m.transcripts }

// Run pumps recognizer events until the context ends. It must be running
// before SetDesired has any effect.
func (m *ListenManager) Run(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()
	m.reconcile()

	for {
		select {
		case <-ctx.Done():
			_ = m.source.Stop()
			return
		case ev, ok := <-m.source.Events():
			if !ok {
				return
			}
			m.handleEvent(ctx, ev)
		}
	}
}

// SetDesired records whether the user wants the microphone open. Enabling
// after a fatal error clears the error state.
func (m *ListenManager) SetDesired(desired bool) {
	m.mu.Lock()
	m.desired = desired
	if desired && m.state == ListenErrored {
		m.state = ListenIdle
		m.lastMessage = ""
	}
	m.mu.Unlock()
	m.reconcile()
}

// SetCommandInFlight records the command-processing phase. While a full
// command is in flight (and not merely awaiting its tail after a bare wake
// word) the microphone is forced closed regardless of desire.
func (m *ListenManager) SetCommandInFlight(inFlight, awaitingTail bool) {
	m.mu.Lock()
	m.inFlight = inFlight
	m.awaitingTail = awaitingTail
	m.mu.Unlock()
	m.reconcile()
}

func (m *ListenManager) State() ListenState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *ListenManager) Desired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.desired
}

// LastMessage returns the last permission/error message surfaced to the UI.
func (m *ListenManager) LastMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastMessage
}

// reconcile applies the desired/actual rule on every input change and every
// observed state change.
func (m *ListenManager) reconcile() {
	m.mu.Lock()
	ctx := m.ctx
	if ctx == nil || ctx.Err() != nil {
		m.mu.Unlock()
		return
	}

	switch {
	case m.inFlight && !m.awaitingTail:
		if m.state == ListenListening || m.state == ListenStarting {
			m.state = ListenStopping
			m.mu.Unlock()
			if err := m.source.Stop(); err != nil {
				m.logger.Warn("stopping recognizer", "error", err)
			}
			return
		}
	case m.desired && m.state == ListenIdle:
		m.state = ListenStarting
		m.mu.Unlock()
		if err := m.source.Start(ctx); err != nil {
			m.startFailed(err)
		}
		return
	case !m.desired && m.state == ListenListening:
		m.state = ListenStopping
		m.mu.Unlock()
		if err := m.source.Stop(); err != nil {
			m.logger.Warn("stopping recognizer", "error", err)
		}
		return
	}
	m.mu.Unlock()
}

func (m *ListenManager) startFailed(err error) {
	m.logger.Error("starting recognizer", "error", err)
	m.mu.Lock()
	m.state = ListenErrored
	m.desired = false
	m.lastMessage = err.Error()
	m.mu.Unlock()
}

func (m *ListenManager) handleEvent(ctx context.Context, ev domain.ListenEvent) {
	switch ev.Kind {
	case domain.ListenStarted:
		m.mu.Lock()
		m.state = ListenListening
		m.mu.Unlock()
		m.reconcile()

	case domain.ListenTranscript:
		select {
		case m.transcripts <- ev.Transcript:
		case <-ctx.Done():
		}

	case domain.ListenEnded:
		m.mu.Lock()
		if m.state != ListenErrored {
			m.state = ListenIdle
		}
		restart := m.desired
		m.mu.Unlock()
		if restart {
			// Clean end of utterance with desire still set: re-issue Start
			// after a cool-down so a flapping recognizer cannot spin.
			time.AfterFunc(m.cooldown, m.reconcile)
		}

	case domain.ListenError:
		m.handleError(ev.Err)
	}
}

// handleError applies the recognition-error taxonomy: permission and
// capture failures are fatal to the session, no-speech and aborted are
// ignored, everything else is a non-fatal warning with auto-resume.
func (m *ListenManager) handleError(rerr *domain.RecognitionError) {
	if rerr == nil {
		return
	}

	switch {
	case rerr.Code.Transient():
		m.logger.Debug("transient recognition error", "code", rerr.Code)

	case rerr.Code.Fatal():
		m.logger.Error("recognition session ended", "code", rerr.Code, "message", rerr.Message)
		m.mu.Lock()
		m.desired = false
		m.state = ListenErrored
		if rerr.Code == domain.RecognitionPermissionDenied {
			m.lastMessage = "Microphone permission denied. Enable it and try again."
		} else {
			m.lastMessage = "Audio capture failed. Check the microphone and try again."
		}
		m.mu.Unlock()
		_ = m.source.Abort()

	default:
		m.logger.Warn("recognition error", "code", rerr.Code, "message", rerr.Message)
		m.mu.Lock()
		m.lastMessage = rerr.Message
		if m.state != ListenErrored {
			m.state = ListenIdle
		}
		m.mu.Unlock()
		time.AfterFunc(m.cooldown, m.reconcile)
	}
}
