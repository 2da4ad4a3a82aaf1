package domain

import "fmt"

// RecognitionErrorCode classifies recognizer failures. Permission and
// capture failures end the listening session; no-speech and aborted are
// routine noise and never surface to the user.
type RecognitionErrorCode string

const (
	RecognitionPermissionDenied RecognitionErrorCode = "permission-denied"
	RecognitionAudioCapture     RecognitionErrorCode = "audio-capture"
	RecognitionNoSpeech         RecognitionErrorCode = "no-speech"
	RecognitionAborted          RecognitionErrorCode = "aborted"
	RecognitionOther            RecognitionErrorCode = "other"
)

// Fatal reports whether the error clears the desired-listening flag.
func (c RecognitionErrorCode) Fatal() bool {
	return c == RecognitionPermissionDenied || c == RecognitionAudioCapture
}

// Transient reports whether the error is ignored without any user-visible
// message.
func (c RecognitionErrorCode) Transient() bool {
	return c == RecognitionNoSpeech || c == RecognitionAborted
}

type RecognitionError struct {
	Code    RecognitionErrorCode
	Message string
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition error (%s): %s", e.Code, e.Message)
}

type ListenEventKind string

const (
	ListenStarted    ListenEventKind = "started"
	ListenTranscript ListenEventKind = "transcript"
	ListenEnded      ListenEventKind = "ended"
	ListenError      ListenEventKind = "error"
)

// ListenEvent is what a transcript source emits: lifecycle edges, final
// transcripts, and classified errors. Partial recognition results never
// appear here.
type ListenEvent struct {
	Kind       ListenEventKind
	Transcript string
	Err        *RecognitionError
}
