package coqui

import (
	"context"
	"encoding/binary"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/audio"
)

// memSink collects written frames for inspection.
type memSink struct {
	mu     sync.Mutex
	frames []audio.Frame
	err    error
}

func (s *memSink) WriteFrame(ctx context.Context, f audio.Frame) error {
	if s.err != nil {
		return s.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
	return nil
}

func (s *memSink) Close() error { return nil }

func (s *memSink) totalBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.frames {
		n += len(f.Data)
	}
	return n
}

// buildWAV assembles a minimal RIFF/WAVE file around pcm.
func buildWAV(t *testing.T, sampleRate, channels int, pcm []byte) []byte {
	t.Helper()
	var buf []byte
	u32 := func(v uint32) []byte {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		return b
	}
	u16 := func(v uint16) []byte {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, v)
		return b
	}
	buf = append(buf, "RIFF"...)
	buf = append(buf, u32(uint32(36+len(pcm)))...)
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	buf = append(buf, u32(16)...)
	buf = append(buf, u16(1)...) // PCM
	buf = append(buf, u16(uint16(channels))...)
	buf = append(buf, u32(uint32(sampleRate))...)
	buf = append(buf, u32(uint32(sampleRate*channels*2))...)
	buf = append(buf, u16(uint16(channels*2))...)
	buf = append(buf, u16(16)...)
	buf = append(buf, "data"...)
	buf = append(buf, u32(uint32(len(pcm)))...)
	buf = append(buf, pcm...)
	return buf
}

func TestSpeak_PlaysAllPCM(t *testing.T) {
	t.Parallel()

	pcm := make([]byte, 4000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tts" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("text"); got != "hello learner" {
			t.Errorf("text param = %q", got)
		}
		w.Write(buildWAV(t, 22050, 1, pcm))
	}))
	defer srv.Close()

	sink := &memSink{}
	p := New(srv.URL, sink)
	if err := p.Speak(context.Background(), "hello learner"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if got := sink.totalBytes(); got != len(pcm) {
		t.Errorf("played %d bytes, want %d", got, len(pcm))
	}
	if len(sink.frames) < 2 {
		t.Errorf("expected playback split into frames, got %d", len(sink.frames))
	}
	if sink.frames[0].SampleRate != 22050 || sink.frames[0].Channels != 1 {
		t.Errorf("frame format = %d Hz / %d ch, want 22050/1",
			sink.frames[0].SampleRate, sink.frames[0].Channels)
	}
}

func TestSpeak_EmptyTextIsNoop(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called for empty text")
	}))
	defer srv.Close()

	p := New(srv.URL, &memSink{})
	if err := p.Speak(context.Background(), ""); err != nil {
		t.Fatalf("Speak: %v", err)
	}
}

func TestSpeak_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := New(srv.URL, &memSink{})
	if err := p.Speak(context.Background(), "hi"); err == nil {
		t.Fatal("expected error from 500 response")
	}
}

func TestSpeak_CancelledBeforePlayback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buildWAV(t, 16000, 1, make([]byte, 2000)))
	}))
	defer srv.Close()

	sink := &memSink{}
	p := New(srv.URL, sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Speak(ctx, "hi")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if sink.totalBytes() != 0 {
		t.Errorf("no frames should play after cancellation, got %d bytes", sink.totalBytes())
	}
}

func TestParseWAV_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		wav  []byte
	}{
		{"too short", []byte("RIFF")},
		{"not riff", append([]byte("JUNK????WAVE"), make([]byte, 32)...)},
		{"no data chunk", buildWAV(t, 16000, 1, nil)[:20]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseWAV(tt.wav); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}
