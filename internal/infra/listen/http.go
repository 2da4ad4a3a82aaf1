package listen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"voice-console/internal/domain"
)

// HTTPSource accepts transcripts pushed over HTTP: a companion app or a
// smart speaker bridge posts final recognized text and the console treats
// it exactly like local speech.
type HTTPSource struct {
	addr      string
	authToken string
	server    *http.Server
	events    chan domain.ListenEvent
	logger    *slog.Logger
	mux       *http.ServeMux
	limiter   *ipRateLimiter

	mu        sync.Mutex
	running   bool
	closeOnce sync.Once
}

func NewHTTPSource(addr, authToken string, logger *slog.Logger) *HTTPSource {
	h := &HTTPSource{
		addr:      addr,
		authToken: authToken,
		events:    make(chan domain.ListenEvent, 10),
		logger:    logger,
		mux:       http.NewServeMux(),
		limiter:   newIPRateLimiter(rate.Every(2*time.Second), 10),
	}
	h.mux.HandleFunc("POST /transcript", h.limiter.middleware(h.handleTranscript))
	h.mux.HandleFunc("POST /text", h.limiter.middleware(h.handleTranscript))
	h.mux.HandleFunc("GET /health", h.handleHealth)
	return h
}

func (h *HTTPSource) Name() string { return "http" }

func (h *HTTPSource) Events() <-chan domain.ListenEvent { return h.events }

func (h *HTTPSource) Start(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}

	if h.server == nil {
		h.server = &http.Server{
			Addr:         h.addr,
			Handler:      h.mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			h.logger.Info("transcript server starting", "addr", h.addr)
			if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				h.logger.Error("transcript server error", "error", err)
				h.emit(domain.ListenEvent{Kind: domain.ListenError, Err: &domain.RecognitionError{
					Code:    domain.RecognitionAudioCapture,
					Message: err.Error(),
				}})
			}
		}()
	}

	h.running = true
	h.emit(domain.ListenEvent{Kind: domain.ListenStarted})
	return nil
}

// Stop pauses transcript delivery. The server keeps running so pushes do
// not fail while a command executes; they are dropped instead.
func (h *HTTPSource) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return nil
	}
	h.running = false
	h.emit(domain.ListenEvent{Kind: domain.ListenEnded})
	return nil
}

func (h *HTTPSource) Abort() error {
	return h.Stop()
}

// Close shuts the HTTP server down for good.
func (h *HTTPSource) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.server != nil {
		if err := h.server.Shutdown(ctx); err != nil {
			h.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := h.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	h.closeOnce.Do(func() { close(h.events) })
	h.running = false
	return nil
}

func (h *HTTPSource) Handler() http.Handler { return h.mux }

// Inject delivers a transcript as if it had been posted, for tests.
func (h *HTTPSource) Inject(text string) {
	h.emit(domain.ListenEvent{Kind: domain.ListenTranscript, Transcript: text})
}

func (h *HTTPSource) emit(ev domain.ListenEvent) {
	select {
	case h.events <- ev:
	default:
	}
}

func (h *HTTPSource) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if h.authToken != "" {
		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token != h.authToken {
			h.logger.Warn("unauthorized transcript push", "remote_addr", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	text := string(data)
	if text == "" {
		http.Error(w, "empty transcript", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	running := h.running
	h.mu.Unlock()

	if !running {
		// Listening is paused while a command is in flight; arrivals are
		// discarded, not queued.
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"status":"discarded"}`)
		return
	}

	select {
	case h.events <- domain.ListenEvent{Kind: domain.ListenTranscript, Transcript: text}:
		h.logger.Info("received transcript", "text", text)
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"status":"received"}`)
	default:
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
	}
}

func (h *HTTPSource) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	running := h.running
	queueSize := len(h.events)
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","listening":%t,"queue_size":%d}`, running, queueSize)
}
