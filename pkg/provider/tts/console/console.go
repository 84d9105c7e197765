// Package console provides a tts.Provider that writes text to an io.Writer
// instead of synthesising audio. It is the text-only playback backend and is
// also layered under voice mode so that spoken prompts remain readable.
package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/tts"
)

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

// Provider implements tts.Provider by printing each utterance with a
// speaker tag. Safe for concurrent use.
type Provider struct {
	mu  sync.Mutex
	out io.Writer
	tag string
}

// New creates a Provider writing to out with the given speaker tag
// (e.g., "Tutor"). An empty tag defaults to "Tutor".
func New(out io.Writer, tag string) *Provider {
	if tag == "" {
		tag = "Tutor"
	}
	return &Provider{out: out, tag: tag}
}

// Speak writes the text to the output. Context cancellation before the write
// suppresses the output, mirroring an interrupted spoken prompt.
func (p *Provider) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.out, "\n[%s]: %s\n", p.tag, text)
	return err
}
