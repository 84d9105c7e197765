// Package mock provides a test double for the stt.Provider interface.
//
// Use Provider to feed scripted transcripts to the session orchestrator and
// to verify capture behaviour without a live transcription backend.
//
// Example:
//
//	p := &mock.Provider{
//	    Transcripts: []types.Transcript{{Text: "photosynthesis"}},
//	}
//	tr, _ := p.Capture(ctx)
package mock

import (
	"context"
	"sync"

	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/stt"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/types"
)

// Compile-time interface assertion.
var _ stt.Provider = (*Provider)(nil)

// CaptureCall records a single invocation of Capture.
type CaptureCall struct {
	// Ctx is the context passed to Capture.
	Ctx context.Context
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// Transcripts is the sequence of transcripts returned by successive
	// Capture calls. When exhausted, Capture returns stt.ErrNoSpeech.
	Transcripts []types.Transcript

	// CaptureErr, if non-nil, is returned by every Capture call instead of
	// consuming Transcripts.
	CaptureErr error

	// Block, if true, makes Capture block until ctx is cancelled. Used to
	// simulate a hung transcription backend.
	Block bool

	// --- Call records ---

	// CaptureCalls records every call to Capture in order.
	CaptureCalls []CaptureCall

	next int
}

// Capture records the call and returns the next scripted transcript.
func (p *Provider) Capture(ctx context.Context) (types.Transcript, error) {
	p.mu.Lock()
	p.CaptureCalls = append(p.CaptureCalls, CaptureCall{Ctx: ctx})
	block := p.Block
	err := p.CaptureErr
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return types.Transcript{}, ctx.Err()
	}
	if err != nil {
		return types.Transcript{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.next >= len(p.Transcripts) {
		return types.Transcript{}, stt.ErrNoSpeech
	}
	tr := p.Transcripts[p.next]
	p.next++
	return tr, nil
}
