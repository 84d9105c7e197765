// Package audio defines the narrow audio transport contracts consumed by the
// speech ports. Microphone and speaker device access is deliberately outside
// this module — callers plug in a [Source] and [Sink] backed by whatever
// capture/playback stack they use, and the tutor only moves frames through
// them.
package audio

import (
	"context"
	"encoding/binary"
	"math"
	"time"
)

// Frame represents a single frame of PCM audio flowing through the pipeline.
// Frames are the atomic unit of audio transport — read from input sources,
// scanned by the barge-in listener, buffered by STT, and played through sinks.
type Frame struct {
	// Data is raw little-endian 16-bit PCM audio.
	Data []byte

	// SampleRate in Hz (e.g., 16000 for STT input).
	SampleRate int

	// Channels: 1 for mono (STT input), 2 for stereo playback.
	Channels int

	// Timestamp marks when this frame was captured, relative to stream start.
	Timestamp time.Duration
}

// Source delivers captured audio frames. Implementations wrap a microphone
// stream or a test fixture. ReadFrame blocks until a frame is available, the
// stream ends, or ctx is cancelled.
//
// A Source should not be shared between goroutines unless the implementation
// documents concurrent safety.
type Source interface {
	// ReadFrame returns the next captured frame. It returns io.EOF when the
	// stream has ended and ctx.Err() when the context is cancelled first.
	ReadFrame(ctx context.Context) (Frame, error)

	// Close releases the underlying capture resources. Safe to call more
	// than once.
	Close() error
}

// Sink accepts audio frames for playback. WriteFrame blocks until the frame
// has been handed to the playback device or ctx is cancelled — this is the
// cooperative cancellation boundary for barge-in: playback stops between
// frames, never mid-frame.
type Sink interface {
	// WriteFrame queues one frame for playback.
	WriteFrame(ctx context.Context, f Frame) error

	// Close flushes and releases the playback device. Safe to call more
	// than once.
	Close() error
}

// RMS computes the root-mean-square energy of little-endian 16-bit PCM data.
// Used by the energy-based barge-in listener and the STT silence flush.
// Returns 0 for empty or odd-length input.
func RMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(n))
}
