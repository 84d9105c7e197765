// Package console provides an stt.Provider that reads typed answers from an
// io.Reader (normally stdin). It is the text-only capture backend selected
// when no voice hardware is configured.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/stt"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/types"
)

// Compile-time interface assertion.
var _ stt.Provider = (*Provider)(nil)

// Provider implements stt.Provider over a line-oriented text stream.
//
// Reads happen on a dedicated goroutine so that Capture can honour context
// cancellation even while the underlying Read blocks. Provider is not safe
// for concurrent Capture calls.
type Provider struct {
	scanner *bufio.Scanner
	prompt  io.Writer

	lines chan readResult
	armed bool
}

type readResult struct {
	text string
	err  error
}

// New creates a Provider reading from in. When prompt is non-nil, a short
// input marker is written to it before each capture.
func New(in io.Reader, prompt io.Writer) *Provider {
	return &Provider{
		scanner: bufio.NewScanner(in),
		prompt:  prompt,
		lines:   make(chan readResult, 1),
	}
}

// Capture implements stt.Provider. It blocks until one line is read or ctx
// is cancelled. An EOF or empty line yields stt.ErrNoSpeech.
func (p *Provider) Capture(ctx context.Context) (types.Transcript, error) {
	if p.prompt != nil {
		fmt.Fprint(p.prompt, "\n[You]: ")
	}

	// A previous cancelled Capture may have left the reader goroutine
	// running; its pending line is consumed first.
	if !p.armed {
		p.armed = true
		go func() {
			if p.scanner.Scan() {
				p.lines <- readResult{text: p.scanner.Text()}
				return
			}
			err := p.scanner.Err()
			if err == nil {
				err = io.EOF
			}
			p.lines <- readResult{err: err}
		}()
	}

	select {
	case <-ctx.Done():
		return types.Transcript{}, ctx.Err()
	case res := <-p.lines:
		p.armed = false
		if res.err != nil {
			return types.Transcript{}, stt.ErrNoSpeech
		}
		text := strings.TrimSpace(res.text)
		if text == "" {
			return types.Transcript{}, stt.ErrNoSpeech
		}
		return types.Transcript{
			Text:       text,
			Source:     types.SourceText,
			CapturedAt: time.Now(),
		}, nil
	}
}
