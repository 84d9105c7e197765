// Package tts defines the Provider interface for speech synthesis.
//
// A TTS provider renders a piece of learner-facing text as audible speech
// (or, in text-only mode, as console output). Speak is blocking and
// cancellable: when the caller cancels the context — the barge-in path —
// playback stops cooperatively at the next frame boundary, never mid-frame.
//
// Implementations must be safe for concurrent use unless documented
// otherwise.
package tts

import "context"

// Provider is the abstraction over any speech synthesis backend.
type Provider interface {
	// Speak renders text and blocks until playback completes or ctx is
	// cancelled. A cancelled context is not an error condition for the
	// session — callers distinguish it via errors.Is(err, context.Canceled).
	Speak(ctx context.Context, text string) error
}
