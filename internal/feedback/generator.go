// Package feedback renders learner-facing text from verdicts and session
// statistics.
//
// Template buckets per verdict tier give variation; when the LLM capability
// is enabled the generator first asks it for tailored feedback and falls back
// to the templates on any failure. Explanation absence never blocks template
// feedback.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/RaghavAtRuntime/local-llm-tutor/internal/eval"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/explain"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/quiz"
)

// maxMissingHints caps how many missing concepts a partial-feedback line names.
const maxMissingHints = 3

var correctTemplates = []string{
	"Excellent! That's correct. %s",
	"Great job! You got it right. %s",
	"Perfect! %s",
	"Well done! That's exactly right. %s",
}

var partialTemplates = []string{
	"You're on the right track! %s %s",
	"Partially correct! %s %s",
	"Good start! You mentioned some key ideas, but %s %s",
}

var incorrectTemplates = []string{
	"Not quite. %s",
	"Let me help you understand this better. %s",
	"That's not right. %s",
}

var skippedTemplates = []string{
	"Skipping this question.",
	"Alright, moving on to the next one.",
}

var reinforcements = []string{
	"Keep it up!",
	"You're doing well!",
	"Excellent understanding!",
	"That shows great comprehension!",
}

// Summary carries the numbers the end-of-session text is built from.
type Summary struct {
	TotalAnswered int
	Correct       int
	Partial       int
	Incorrect     int
	Skipped       int
	AvgScore      float64
}

// Generator renders feedback text. Safe for concurrent use only when the
// random source is; the default source is.
type Generator struct {
	explainer *explain.Generator
	pick      func(n int) int
	log       *slog.Logger
}

// Option is a functional option for New.
type Option func(*Generator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// WithSeed makes template selection deterministic. Intended for tests.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		rng := rand.New(rand.NewPCG(seed, seed))
		g.pick = rng.IntN
	}
}

// New creates a Generator. explainer must not be nil; construct it disabled
// when no LLM backend is configured.
func New(explainer *explain.Generator, opts ...Option) *Generator {
	g := &Generator{
		explainer: explainer,
		pick:      rand.IntN,
		log:       slog.Default(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Intro renders the presentation line for a question.
func (g *Generator) Intro(q quiz.Question, number, total int) string {
	return fmt.Sprintf("Question %d of %d. %s", number, total, q.Prompt)
}

// ForVerdict renders feedback for a scored or skipped turn.
//
// When the LLM capability is enabled, tailored feedback is attempted first;
// any failure falls back to the template bucket for the tier.
func (g *Generator) ForVerdict(ctx context.Context, v eval.Verdict, q quiz.Question) string {
	if v.Tier != eval.TierSkipped && g.explainer.Enabled() {
		if text, err := g.explainer.Feedback(ctx, v, q); err == nil {
			return text
		} else {
			g.log.Debug("llm feedback failed, using template", "error", err)
		}
	}

	switch v.Tier {
	case eval.TierCorrect:
		template := correctTemplates[g.pick(len(correctTemplates))]
		return fmt.Sprintf(template, reinforcements[g.pick(len(reinforcements))])
	case eval.TierPartial:
		return g.partial(v, q)
	case eval.TierSkipped:
		return skippedTemplates[g.pick(len(skippedTemplates))]
	default:
		template := incorrectTemplates[g.pick(len(incorrectTemplates))]
		return fmt.Sprintf(template, "The correct answer is: "+q.ExpectedAnswer)
	}
}

func (g *Generator) partial(v eval.Verdict, q quiz.Question) string {
	var missingHint string
	if len(v.Missing) > 0 {
		named := v.Missing
		if len(named) > maxMissingHints {
			named = named[:maxMissingHints]
		}
		missingHint = fmt.Sprintf("You missed these key concepts: %s.", strings.Join(named, ", "))
	} else {
		missingHint = "Your answer was close but needs more detail."
	}

	hint := "The answer is: " + q.ExpectedAnswer
	if len(q.ExpectedAnswer) > 100 {
		hint = "The complete answer should mention: " + q.ExpectedAnswer[:100] + "..."
	}

	template := partialTemplates[g.pick(len(partialTemplates))]
	return fmt.Sprintf(template, missingHint, hint)
}

// Explanation renders an elaborated explanation for the current question.
// With the LLM capability enabled its output is used; otherwise, or on any
// failure, a template line naming the expected answer is returned.
func (g *Generator) Explanation(ctx context.Context, q quiz.Question) string {
	if g.explainer.Enabled() {
		if text, err := g.explainer.Explain(ctx, q); err == nil {
			return text
		} else {
			g.log.Debug("llm explanation failed, using template", "error", err)
		}
	}
	return "The answer to this question involves: " + q.ExpectedAnswer
}

// Welcome renders the session opening line.
func (g *Generator) Welcome(total int) string {
	return fmt.Sprintf("Welcome to the AI Tutor! Today's session has %d questions. Let's begin!", total)
}

// SessionSummary renders the end-of-session wrap-up with a performance tier
// at 80 and 60 percent correct.
func (g *Generator) SessionSummary(s Summary) string {
	text := fmt.Sprintf(
		"Session complete! You answered %d questions. %d correct, %d partially correct, and %d incorrect. Your overall score was %.0f%%. ",
		s.TotalAnswered, s.Correct, s.Partial, s.Incorrect, s.AvgScore*100,
	)

	pct := 0.0
	if s.TotalAnswered > 0 {
		pct = float64(s.Correct) / float64(s.TotalAnswered) * 100
	}
	switch {
	case pct >= 80:
		text += "Outstanding performance!"
	case pct >= 60:
		text += "Good work! Keep practicing."
	default:
		text += "Keep studying, you'll improve with practice!"
	}
	return text
}
