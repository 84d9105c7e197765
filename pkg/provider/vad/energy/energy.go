// Package energy provides a vad.Listener using RMS energy thresholding over
// raw PCM frames. A short run of consecutive frames above the threshold is
// required before an event fires, which filters out clicks and breath noise
// while the tutor is speaking.
package energy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/audio"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/vad"
)

const (
	// defaultThreshold is the RMS level (16-bit PCM units) above which a
	// frame counts as speech. Matches the capture threshold doubled: during
	// playback the microphone also hears the speaker, so barge-in needs a
	// stronger signal.
	defaultThreshold = 600.0

	// defaultMinFrames is how many consecutive speech frames must be seen
	// before an event fires.
	defaultMinFrames = 3
)

// Compile-time interface assertion.
var _ vad.Listener = (*Listener)(nil)

// Listener implements vad.Listener over an [audio.Source].
//
// A Listener may be re-armed any number of times, but only one Watch may be
// active at a time — it owns the audio source while armed.
type Listener struct {
	source    audio.Source
	threshold float64
	minFrames int
}

// Option is a functional option for configuring a Listener.
type Option func(*Listener)

// WithThreshold sets the RMS speech threshold. Defaults to 600.
func WithThreshold(t float64) Option {
	return func(l *Listener) { l.threshold = t }
}

// WithMinFrames sets the number of consecutive frames above the threshold
// required to fire. Defaults to 3.
func WithMinFrames(n int) Option {
	return func(l *Listener) {
		if n > 0 {
			l.minFrames = n
		}
	}
}

// New creates a Listener reading from source.
func New(source audio.Source, opts ...Option) (*Listener, error) {
	if source == nil {
		return nil, errors.New("energy: audio source must not be nil")
	}
	l := &Listener{
		source:    source,
		threshold: defaultThreshold,
		minFrames: defaultMinFrames,
	}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// Watch implements vad.Listener. Detection runs on a background goroutine
// until speech is detected, the source ends, or ctx is cancelled.
func (l *Listener) Watch(ctx context.Context) (<-chan vad.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	events := make(chan vad.Event, 1)
	go func() {
		defer close(events)

		consecutive := 0
		for {
			frame, err := l.source.ReadFrame(ctx)
			if err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) &&
					!errors.Is(err, context.DeadlineExceeded) {
					slog.Debug("barge-in listener stopped", "error", err)
				}
				return
			}

			rms := audio.RMS(frame.Data)
			if rms < l.threshold {
				consecutive = 0
				continue
			}
			consecutive++
			if consecutive >= l.minFrames {
				events <- vad.Event{Energy: rms, At: time.Now()}
				return
			}
		}
	}()
	return events, nil
}
