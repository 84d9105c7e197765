package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/audio"
)

// frameInterval is the duration of one PCM frame read from the input pipe.
const frameInterval = 20 * time.Millisecond

// pipeSource implements [audio.Source] over a named pipe carrying raw
// little-endian 16-bit mono PCM, typically fed by arecord. A background
// goroutine reads fixed-size frames so ReadFrame honours context
// cancellation. The whisper provider and the barge-in listener share one
// pipeSource; they read in different phases of a turn and the channel keeps
// that safe.
type pipeSource struct {
	sampleRate int
	f          *os.File
	frames     chan audio.Frame

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}

	mu  sync.Mutex
	err error
}

// Compile-time interface assertion.
var _ audio.Source = (*pipeSource)(nil)

func openPipeSource(path string, sampleRate int) (*pipeSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio input %q: %w", path, err)
	}
	return &pipeSource{
		sampleRate: sampleRate,
		f:          f,
		frames:     make(chan audio.Frame, 8),
		done:       make(chan struct{}),
	}, nil
}

func (s *pipeSource) readLoop() {
	frameBytes := s.sampleRate * 2 * int(frameInterval/time.Millisecond) / 1000
	start := time.Now()
	for {
		buf := make([]byte, frameBytes)
		if _, err := io.ReadFull(s.f, buf); err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			close(s.frames)
			return
		}
		frame := audio.Frame{
			Data:       buf,
			SampleRate: s.sampleRate,
			Channels:   1,
			Timestamp:  time.Since(start),
		}
		select {
		case s.frames <- frame:
		case <-s.done:
			return
		}
	}
}

// ReadFrame implements audio.Source.
func (s *pipeSource) ReadFrame(ctx context.Context) (audio.Frame, error) {
	s.startOnce.Do(func() { go s.readLoop() })
	select {
	case f, ok := <-s.frames:
		if !ok {
			s.mu.Lock()
			defer s.mu.Unlock()
			return audio.Frame{}, s.err
		}
		return f, nil
	case <-ctx.Done():
		return audio.Frame{}, ctx.Err()
	}
}

// Close implements audio.Source.
func (s *pipeSource) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return s.f.Close()
}

// pipeSink implements [audio.Sink] over a named pipe, typically drained by
// aplay. Opening the pipe blocks until the playback side connects.
type pipeSink struct {
	mu        sync.Mutex
	f         *os.File
	closeOnce sync.Once
	closeErr  error
}

// Compile-time interface assertion.
var _ audio.Sink = (*pipeSink)(nil)

func openPipeSink(path string) (*pipeSink, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open audio output %q: %w", path, err)
	}
	return &pipeSink{f: f}, nil
}

// WriteFrame implements audio.Sink. The cancellation check sits at the frame
// boundary, which is where barge-in stops playback.
func (s *pipeSink) WriteFrame(ctx context.Context, f audio.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.Write(f.Data); err != nil {
		return fmt.Errorf("write audio frame: %w", err)
	}
	return nil
}

// Close implements audio.Sink.
func (s *pipeSink) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.f.Close() })
	return s.closeErr
}
