// Package vad defines the Listener interface for barge-in voice activity
// detection.
//
// While the tutor is speaking a prompt, a Listener watches the microphone for
// learner speech. The orchestrator arms the listener once per presentation;
// the listener emits at most one event per arming and then stops. The event
// channel has capacity one, so a detection raised while the orchestrator is
// still cancelling playback is never lost.
//
// In text-only mode no Listener exists and presentation runs without an
// interrupt path.
package vad

import (
	"context"
	"time"
)

// Event is a single voice-activity detection.
type Event struct {
	// Energy is the RMS energy of the triggering audio (implementation
	// units). Informational only.
	Energy float64

	// At marks when speech was detected.
	At time.Time
}

// Listener is the abstraction over any barge-in detection backend.
type Listener interface {
	// Watch arms activity detection and returns a channel on which at most
	// one Event is sent. The channel is closed when detection stops —
	// after the event, on ctx cancellation, or on an internal failure.
	// The returned channel has capacity one; the send never blocks.
	//
	// Watch returns an error only if detection cannot be armed at all.
	Watch(ctx context.Context) (<-chan Event, error)
}
