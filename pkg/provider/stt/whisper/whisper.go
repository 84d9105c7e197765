// Package whisper provides an stt.Provider backed by the whisper.cpp CGO
// bindings. The whisper.cpp static library (libwhisper.a) and headers
// (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH environment variables.
//
// The model is loaded once at construction and shared across captures. Each
// Capture call reads PCM frames from the configured [audio.Source], applies
// energy-based voice activity detection to find the utterance boundaries
// (speech start → sustained silence), and runs a single whisper.cpp inference
// over the buffered speech audio.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/audio"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/stt"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/types"
)

const (
	defaultLanguage     = "en"
	defaultRMSThreshold = 300.0

	// defaultSilenceThreshold is the sustained-silence duration that ends an
	// utterance once speech has been heard.
	defaultSilenceThreshold = 1500 * time.Millisecond

	// defaultMaxUtterance caps the buffered speech duration; longer answers
	// are flushed to inference even without a silence gap.
	defaultMaxUtterance = 30 * time.Second

	bitsPerSample = 16
)

// Compile-time assertion that Provider satisfies stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Provider implements stt.Provider using whisper.cpp Go bindings (CGO).
//
// Provider is not safe for concurrent Capture calls: it owns a single audio
// source and the orchestrator issues one capture at a time.
type Provider struct {
	model  whisperlib.Model
	source audio.Source

	language         string
	rmsThreshold     float64
	silenceThreshold time.Duration
	maxUtterance     time.Duration
}

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithLanguage sets the BCP-47 language code for transcription (e.g., "en",
// "de"). Defaults to "en".
func WithLanguage(lang string) Option {
	return func(p *Provider) { p.language = lang }
}

// WithRMSThreshold sets the RMS energy level (16-bit PCM units) above which a
// frame counts as speech. Defaults to 300.
func WithRMSThreshold(t float64) Option {
	return func(p *Provider) { p.rmsThreshold = t }
}

// WithSilenceThreshold sets the sustained-silence duration that ends an
// utterance. Defaults to 1.5 s.
func WithSilenceThreshold(d time.Duration) Option {
	return func(p *Provider) { p.silenceThreshold = d }
}

// WithMaxUtterance sets the maximum buffered speech duration before a forced
// flush to inference. Defaults to 30 s.
func WithMaxUtterance(d time.Duration) Option {
	return func(p *Provider) { p.maxUtterance = d }
}

// New creates a Provider that loads the whisper.cpp model from modelPath and
// captures audio from source. The caller must call Close when the provider is
// no longer needed.
func New(modelPath string, source audio.Source, opts ...Option) (*Provider, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	if source == nil {
		return nil, errors.New("whisper: audio source must not be nil")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	p := &Provider{
		model:            model,
		source:           source,
		language:         defaultLanguage,
		rmsThreshold:     defaultRMSThreshold,
		silenceThreshold: defaultSilenceThreshold,
		maxUtterance:     defaultMaxUtterance,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Close releases the whisper model and the audio source.
func (p *Provider) Close() error {
	var errs []error
	if p.model != nil {
		errs = append(errs, p.model.Close())
	}
	errs = append(errs, p.source.Close())
	return errors.Join(errs...)
}

// Capture implements stt.Provider. It buffers source frames from the first
// speech frame until the configured silence gap (or the max utterance
// duration), then runs whisper.cpp inference over the buffered audio.
func (p *Provider) Capture(ctx context.Context) (types.Transcript, error) {
	pcm, sampleRate, channels, err := p.record(ctx)
	if err != nil {
		return types.Transcript{}, err
	}

	start := time.Now()
	text, err := p.infer(pcm, channels)
	if err != nil {
		return types.Transcript{}, err
	}
	slog.Debug("whisper inference complete",
		"audio_bytes", len(pcm),
		"sample_rate", sampleRate,
		"duration", time.Since(start),
		"text", text,
	)

	if text == "" {
		return types.Transcript{}, stt.ErrNoSpeech
	}
	return types.Transcript{
		Text:       text,
		Source:     types.SourceVoice,
		CapturedAt: time.Now(),
	}, nil
}

// record reads frames until the utterance ends. Leading silence is discarded;
// once speech is heard, frames (including trailing silence) are buffered so
// that whisper sees natural word boundaries.
func (p *Provider) record(ctx context.Context) (pcm []byte, sampleRate, channels int, err error) {
	var (
		buffer    []byte
		hadSpeech bool
		silence   time.Duration
		buffered  time.Duration
		srcRate   = 16000
		srcChans  = 1
	)

	for {
		frame, err := p.source.ReadFrame(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, 0, fmt.Errorf("whisper: read audio frame: %w", err)
		}
		if frame.SampleRate > 0 {
			srcRate = frame.SampleRate
		}
		if frame.Channels > 0 {
			srcChans = frame.Channels
		}

		frameDur := frameDuration(len(frame.Data), srcRate, srcChans)
		if audio.RMS(frame.Data) >= p.rmsThreshold {
			hadSpeech = true
			silence = 0
			buffer = append(buffer, frame.Data...)
			buffered += frameDur
			if buffered >= p.maxUtterance {
				break
			}
		} else if hadSpeech {
			buffer = append(buffer, frame.Data...)
			buffered += frameDur
			silence += frameDur
			if silence >= p.silenceThreshold {
				break
			}
		}
	}

	if !hadSpeech || len(buffer) == 0 {
		return nil, 0, 0, stt.ErrNoSpeech
	}
	return buffer, srcRate, srcChans, nil
}

// infer converts the buffered PCM to float32 mono, runs whisper.cpp inference
// on a fresh context, and returns the concatenated segment text. Whisper
// contexts are not thread-safe, but the model may be shared, so a new context
// is created per call.
func (p *Provider) infer(pcm []byte, channels int) (string, error) {
	samples := pcmToFloat32Mono(pcm, channels)

	wctx, err := p.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(p.language); err != nil {
		slog.Warn("whisper: failed to set language, using default",
			"language", p.language, "error", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

// frameDuration returns the playback duration of n bytes of PCM audio.
func frameDuration(n, sampleRate, channels int) time.Duration {
	bytesPerSec := sampleRate * channels * (bitsPerSample / 8)
	if bytesPerSec <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(bytesPerSec)
}
