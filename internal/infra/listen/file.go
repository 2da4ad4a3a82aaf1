package listen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"voice-console/internal/domain"
)

// FileSource polls a directory for dropped .txt files and emits each line
// as one transcript. Useful for demos and scripted testing.
type FileSource struct {
	dir    string
	events chan domain.ListenEvent

	mu        sync.Mutex
	processed map[string]bool
	cancel    context.CancelFunc
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{
		dir:       dir,
		events:    make(chan domain.ListenEvent, 10),
		processed: make(map[string]bool),
	}
}

func (f *FileSource) Name() string { return "file" }

func (f *FileSource) Events() <-chan domain.ListenEvent { return f.events }

func (f *FileSource) Start(ctx context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating transcript dir: %w", err)
	}

	f.mu.Lock()
	if f.cancel != nil {
		f.mu.Unlock()
		return nil
	}
	pollCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.mu.Unlock()

	go f.poll(pollCtx)

	f.events <- domain.ListenEvent{Kind: domain.ListenStarted}
	return nil
}

func (f *FileSource) Stop() error {
	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
		select {
		case f.events <- domain.ListenEvent{Kind: domain.ListenEnded}:
		default:
		}
	}
	f.mu.Unlock()
	return nil
}

func (f *FileSource) Abort() error { return f.Stop() }

func (f *FileSource) poll(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, line := range f.collectNewLines() {
				select {
				case f.events <- domain.ListenEvent{Kind: domain.ListenTranscript, Transcript: line}:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (f *FileSource) collectNewLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil
	}

	var lines []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".txt" {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		f.processed[path] = true
		os.Rename(path, path+".processed")

		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}
