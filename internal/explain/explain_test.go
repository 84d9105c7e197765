package explain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/RaghavAtRuntime/local-llm-tutor/internal/eval"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/quiz"
	llmmock "github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/llm/mock"
)

func question() quiz.Question {
	return quiz.Question{
		ID:             "q1",
		Prompt:         "What causes tides?",
		ExpectedAnswer: "The gravitational pull of the moon",
		KeyConcepts:    []string{"gravity", "moon"},
	}
}

func TestEnabled(t *testing.T) {
	t.Parallel()

	if New(&llmmock.Provider{}, true).Enabled() != true {
		t.Error("expected enabled with provider and flag")
	}
	if New(&llmmock.Provider{}, false).Enabled() != false {
		t.Error("expected disabled when flag off")
	}
	if New(nil, true).Enabled() != false {
		t.Error("expected disabled without provider")
	}
}

func TestExplain(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{Responses: []string{"Tides follow the moon's gravity."}}
	g := New(p, true)

	got, err := g.Explain(context.Background(), question())
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if got != "Tides follow the moon's gravity." {
		t.Errorf("Explain = %q", got)
	}
	if len(p.CompleteCalls) != 1 {
		t.Fatalf("CompleteCalls = %d, want 1", len(p.CompleteCalls))
	}
	prompt := p.CompleteCalls[0].Req.Messages[0].Content
	if !strings.Contains(prompt, "What causes tides?") {
		t.Errorf("prompt missing question text: %q", prompt)
	}
}

func TestExplain_Disabled(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{}
	g := New(p, false)
	if _, err := g.Explain(context.Background(), question()); !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
	if len(p.CompleteCalls) != 0 {
		t.Errorf("disabled generator still called the port %d times", len(p.CompleteCalls))
	}
}

func TestFeedback_IncludesMissingConcepts(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{Responses: []string{"Close! Remember the moon."}}
	g := New(p, true)

	v := eval.Verdict{Tier: eval.TierPartial, Missing: []string{"moon"}}
	got, err := g.Feedback(context.Background(), v, question())
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if got == "" {
		t.Fatal("empty feedback")
	}
	prompt := p.CompleteCalls[0].Req.Messages[0].Content
	if !strings.Contains(prompt, "Missing concepts: moon.") {
		t.Errorf("prompt missing concept hint: %q", prompt)
	}
	if !strings.Contains(prompt, "Verdict: partial") {
		t.Errorf("prompt missing verdict: %q", prompt)
	}
}

func TestComplete_PortError(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{CompleteErr: errors.New("connection refused")}
	g := New(p, true)
	if _, err := g.Explain(context.Background(), question()); err == nil {
		t.Fatal("expected error from failing port")
	}
}

func TestComplete_EmptyResponse(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{Responses: []string{"   "}}
	g := New(p, true)
	if _, err := g.Explain(context.Background(), question()); err == nil {
		t.Fatal("expected error for blank completion")
	}
}
