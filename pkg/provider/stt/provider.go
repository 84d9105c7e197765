// Package stt defines the Provider interface for speech-to-text capture.
//
// An STT provider wraps a transcription backend (a local whisper.cpp model,
// a hosted API, or plain keyboard input in text-only mode) and exposes a
// single blocking call that captures one complete learner utterance. The
// session orchestrator issues exactly one Capture per turn; streaming,
// partial transcripts, and diarisation are deliberately out of scope.
//
// Implementations must be safe for concurrent use unless documented
// otherwise.
package stt

import (
	"context"
	"errors"

	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/types"
)

// ErrNoSpeech is returned by Capture when the utterance window closed without
// any intelligible speech (or input line). Callers treat this as an empty
// response and re-prompt rather than failing the turn.
var ErrNoSpeech = errors.New("stt: no speech captured")

// Provider is the abstraction over any speech-to-text backend.
type Provider interface {
	// Capture blocks until one complete utterance has been captured and
	// transcribed, then returns its transcript. It returns ErrNoSpeech when
	// the capture window produced nothing usable, and ctx.Err() when the
	// context is cancelled or its deadline expires first.
	//
	// The returned transcript carries the raw text; normalisation is the
	// caller's concern.
	Capture(ctx context.Context) (types.Transcript, error)
}
