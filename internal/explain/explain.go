// Package explain generates elaborated explanations and enhanced feedback
// text through the LLM port.
//
// The port is optional. Absence is a capability, not an error: callers check
// Enabled() once and fall back to template text when it reports false, the
// same way they would for any disabled backend.
package explain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RaghavAtRuntime/local-llm-tutor/internal/eval"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/quiz"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/llm"
)

// ErrDisabled is returned when generation is requested without an enabled
// LLM backend.
var ErrDisabled = errors.New("explain: llm backend disabled")

// defaultTimeout bounds a single completion call.
const defaultTimeout = 10 * time.Second

const systemPrompt = "You are an encouraging AI tutor helping a student through a spoken quiz. Keep responses to two or three sentences and suitable for reading aloud."

// Generator produces explanation and feedback text from the LLM port.
// Safe for concurrent use.
type Generator struct {
	provider llm.Provider
	enabled  bool
	timeout  time.Duration
	log      *slog.Logger
}

// Option is a functional option for New.
type Option func(*Generator)

// WithTimeout bounds each completion call. Defaults to 10s.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// New creates a Generator. The capability is enabled only when requested and
// a provider is actually present.
func New(provider llm.Provider, enabled bool, opts ...Option) *Generator {
	g := &Generator{
		provider: provider,
		enabled:  enabled && provider != nil,
		timeout:  defaultTimeout,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Enabled reports whether the LLM capability is available.
func (g *Generator) Enabled() bool {
	return g.enabled
}

// Explain produces a short explanation of the question's answer. Returns
// ErrDisabled when the capability is off.
func (g *Generator) Explain(ctx context.Context, q quiz.Question) (string, error) {
	prompt := fmt.Sprintf(
		"Explain the following concept clearly and concisely:\nQuestion: %s\nAnswer: %s\nProvide a 2-3 sentence explanation suitable for a student.",
		q.Prompt, q.ExpectedAnswer,
	)
	return g.complete(ctx, prompt)
}

// Feedback produces verdict-aware feedback for a scored answer. Returns
// ErrDisabled when the capability is off.
func (g *Generator) Feedback(ctx context.Context, v eval.Verdict, q quiz.Question) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The student answered a quiz question.\nQuestion: %s\nExpected answer: %s\nVerdict: %s\n", q.Prompt, q.ExpectedAnswer, v.Tier)
	if len(v.Missing) > 0 {
		fmt.Fprintf(&sb, "Missing concepts: %s.\n", strings.Join(v.Missing, ", "))
	}
	sb.WriteString("Generate brief, encouraging feedback appropriate for the verdict.")
	return g.complete(ctx, sb.String())
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	if !g.enabled {
		return "", ErrDisabled
	}

	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	resp, err := g.provider.Complete(cctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
		Temperature:  0.7,
	})
	if err != nil {
		return "", fmt.Errorf("explain: completion: %w", err)
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", errors.New("explain: empty completion")
	}
	return text, nil
}
