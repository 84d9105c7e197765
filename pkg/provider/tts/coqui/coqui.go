// Package coqui provides a tts.Provider backed by a standard Coqui TTS
// server (ghcr.io/coqui-ai/tts-cpu). Synthesis is performed via GET /api/tts
// with URL query parameters; the WAV response is stripped of its RIFF header
// and the raw PCM is played through the configured [audio.Sink] in small
// frames, checking for cancellation between frames so that barge-in stops
// playback at a frame boundary.
//
// Typical usage:
//
//	p := coqui.New("http://localhost:5002", sink,
//	    coqui.WithSpeaker("p225"),
//	    coqui.WithTimeout(15*time.Second),
//	)
//	err := p.Speak(ctx, "Question 1 of 5. What is photosynthesis?")
package coqui

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/audio"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/tts"
)

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

const (
	apiTTSEndpoint = "/api/tts"

	// defaultTimeout bounds the synthesis HTTP request. Playback itself is
	// bounded only by the caller's context.
	defaultTimeout = 15 * time.Second

	// frameDuration is the playback granularity — and therefore the
	// cooperative cancellation latency for barge-in.
	frameDuration = 20 * time.Millisecond
)

// Provider implements tts.Provider against a standard Coqui TTS server.
// Safe for concurrent use; concurrent Speak calls share the playback sink,
// so the session orchestrator serialises them.
type Provider struct {
	serverURL  string
	sink       audio.Sink
	speaker    string
	language   string
	httpClient *http.Client
}

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithSpeaker sets the speaker_id query parameter for multi-speaker models.
func WithSpeaker(id string) Option {
	return func(p *Provider) { p.speaker = id }
}

// WithLanguage sets the language_id query parameter for multilingual models.
func WithLanguage(lang string) Option {
	return func(p *Provider) { p.language = lang }
}

// WithTimeout sets the HTTP request timeout for synthesis calls.
// Defaults to 15 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.httpClient.Timeout = d }
}

// New creates a Provider targeting the Coqui server at serverURL, playing
// synthesised audio through sink. A trailing slash on serverURL is stripped.
func New(serverURL string, sink audio.Sink, opts ...Option) *Provider {
	for len(serverURL) > 0 && serverURL[len(serverURL)-1] == '/' {
		serverURL = serverURL[:len(serverURL)-1]
	}
	p := &Provider{
		serverURL:  serverURL,
		sink:       sink,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Speak synthesises text via the Coqui server and plays the resulting PCM
// through the sink frame by frame. Cancellation between frames returns
// ctx.Err(); audio already written to the sink is not recalled.
func (p *Provider) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	pcm, info, err := p.synthesize(ctx, text)
	if err != nil {
		return err
	}

	frameBytes := info.SampleRate * info.Channels * 2 * int(frameDuration.Milliseconds()) / 1000
	if frameBytes <= 0 {
		frameBytes = 640
	}

	for off := 0; off < len(pcm); off += frameBytes {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(off+frameBytes, len(pcm))
		frame := audio.Frame{
			Data:       pcm[off:end],
			SampleRate: info.SampleRate,
			Channels:   info.Channels,
		}
		if err := p.sink.WriteFrame(ctx, frame); err != nil {
			return fmt.Errorf("coqui: write frame: %w", err)
		}
	}
	return nil
}

// synthesize performs a single GET /api/tts request and returns the raw PCM
// with the WAV header stripped.
func (p *Provider) synthesize(ctx context.Context, text string) ([]byte, wavInfo, error) {
	params := url.Values{}
	params.Set("text", text)
	if p.speaker != "" {
		params.Set("speaker_id", p.speaker)
	}
	if p.language != "" {
		params.Set("language_id", p.language)
	}

	reqURL := p.serverURL + apiTTSEndpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, wavInfo{}, fmt.Errorf("coqui: build request: %w", err)
	}
	req.Header.Set("Accept", "audio/wav")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, wavInfo{}, fmt.Errorf("coqui: synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, wavInfo{}, fmt.Errorf("coqui: server returned %s: %s", resp.Status, body)
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wavInfo{}, fmt.Errorf("coqui: read WAV response: %w", err)
	}

	info, err := parseWAV(wav)
	if err != nil {
		return nil, wavInfo{}, err
	}
	return wav[info.DataOffset:], info, nil
}

// wavInfo holds the format metadata extracted from a RIFF/WAVE header.
type wavInfo struct {
	SampleRate int
	Channels   int
	DataOffset int
}

// parseWAV scans the RIFF/WAVE container and returns the data offset plus
// the sample format declared in the fmt chunk.
func parseWAV(wav []byte) (wavInfo, error) {
	if len(wav) < 12 {
		return wavInfo{}, errors.New("coqui: WAV response too short to be a valid RIFF file")
	}
	if string(wav[0:4]) != "RIFF" {
		return wavInfo{}, errors.New("coqui: WAV response missing RIFF header")
	}
	if string(wav[8:12]) != "WAVE" {
		return wavInfo{}, errors.New("coqui: WAV response missing WAVE identifier")
	}

	var info wavInfo
	foundFmt := false

	// Walk RIFF chunks starting after the 12-byte RIFF/WAVE header.
	offset := 12
	for offset+8 <= len(wav) {
		chunkID := string(wav[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[offset+4 : offset+8]))

		switch chunkID {
		case "fmt ":
			if chunkSize >= 16 && offset+8+16 <= len(wav) {
				fmtData := wav[offset+8:]
				info.Channels = int(binary.LittleEndian.Uint16(fmtData[2:4]))
				info.SampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
				foundFmt = true
			}
		case "data":
			info.DataOffset = offset + 8
			if !foundFmt {
				// fmt should appear before data, but be tolerant.
				info.SampleRate = 22050
				info.Channels = 1
			}
			return info, nil
		}

		// Chunks are word-aligned: pad by one byte when the size is odd.
		offset += 8 + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}
	return wavInfo{}, errors.New("coqui: WAV response missing data chunk")
}
