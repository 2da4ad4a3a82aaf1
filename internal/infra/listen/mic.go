//go:build portaudio
// +build portaudio

package listen

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"voice-console/internal/domain"
)

// Transcriber converts one captured utterance into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// MicSource captures utterances from the default input device, gates them
// on silence, and runs each through the transcriber. Waveform handling ends
// here; the rest of the pipeline only ever sees final transcripts.
type MicSource struct {
	transcriber Transcriber
	sampleRate  int
	logger      *slog.Logger
	events      chan domain.ListenEvent

	mu     sync.Mutex
	stream *portaudio.Stream
	cancel context.CancelFunc
}

func NewMicSource(transcriber Transcriber, sampleRate int, logger *slog.Logger) *MicSource {
	return &MicSource{
		transcriber: transcriber,
		sampleRate:  sampleRate,
		logger:      logger,
		events:      make(chan domain.ListenEvent, 10),
	}
}

func (m *MicSource) Name() string { return "microphone" }

func (m *MicSource) Events() <-chan domain.ListenEvent { return m.events }

func (m *MicSource) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream != nil {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		m.emitError(domain.RecognitionAudioCapture, err.Error())
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	framesPerBuffer := 1024
	buffer := make([]int16, framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), framesPerBuffer, buffer)
	if err != nil {
		portaudio.Terminate()
		m.emitError(domain.RecognitionAudioCapture, err.Error())
		return fmt.Errorf("opening stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		m.emitError(domain.RecognitionAudioCapture, err.Error())
		return fmt.Errorf("starting stream: %w", err)
	}

	m.stream = stream

	captureCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	go m.captureLoop(captureCtx, stream, buffer)

	m.logger.Info("microphone started", "sampleRate", m.sampleRate)
	m.events <- domain.ListenEvent{Kind: domain.ListenStarted}
	return nil
}

func (m *MicSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return nil
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.stream.Stop()
	m.stream.Close()
	m.stream = nil
	portaudio.Terminate()

	select {
	case m.events <- domain.ListenEvent{Kind: domain.ListenEnded}:
	default:
	}
	return nil
}

func (m *MicSource) Abort() error { return m.Stop() }

func (m *MicSource) captureLoop(ctx context.Context, stream *portaudio.Stream, buffer []int16) {
	for ctx.Err() == nil {
		audio, err := m.captureUtterance(ctx, stream, buffer)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.emitError(domain.RecognitionAudioCapture, err.Error())
			return
		}
		if len(audio) == 0 {
			m.emitError(domain.RecognitionNoSpeech, "silence")
			continue
		}

		text, err := m.transcriber.Transcribe(ctx, audio)
		if err != nil {
			m.emitError(domain.RecognitionOther, err.Error())
			continue
		}
		if text == "" {
			m.emitError(domain.RecognitionNoSpeech, "empty transcript")
			continue
		}

		select {
		case m.events <- domain.ListenEvent{Kind: domain.ListenTranscript, Transcript: text}:
		case <-ctx.Done():
			return
		}
	}
}

// captureUtterance reads until roughly a second of silence follows speech,
// capped at ten seconds.
func (m *MicSource) captureUtterance(ctx context.Context, stream *portaudio.Stream, buffer []int16) ([]byte, error) {
	samples := make([]int16, 0, m.sampleRate*5)
	silenceThreshold := int16(500)
	silentFrames := 0
	heardSpeech := false

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("reading from stream: %w", err)
		}

		samples = append(samples, buffer...)

		silent := true
		for _, s := range buffer {
			if s > silenceThreshold || s < -silenceThreshold {
				silent = false
				break
			}
		}
		if silent {
			silentFrames += len(buffer)
		} else {
			heardSpeech = true
			silentFrames = 0
		}

		if heardSpeech && silentFrames > m.sampleRate {
			break
		}
		if len(samples) > m.sampleRate*10 {
			break
		}
	}

	if !heardSpeech {
		return nil, nil
	}
	return samplesToWav(samples, m.sampleRate), nil
}

func (m *MicSource) emitError(code domain.RecognitionErrorCode, msg string) {
	select {
	case m.events <- domain.ListenEvent{Kind: domain.ListenError, Err: &domain.RecognitionError{Code: code, Message: msg}}:
	default:
	}
}

func samplesToWav(samples []int16, sampleRate int) []byte {
	var buf bytes.Buffer

	dataSize := len(samples) * 2
	fileSize := 36 + dataSize

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, int32(fileSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, int32(16))
	binary.Write(&buf, binary.LittleEndian, int16(1))
	binary.Write(&buf, binary.LittleEndian, int16(1))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, int16(2))
	binary.Write(&buf, binary.LittleEndian, int16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, int32(dataSize))
	for _, sample := range samples {
		binary.Write(&buf, binary.LittleEndian, sample)
	}

	return buf.Bytes()
}
