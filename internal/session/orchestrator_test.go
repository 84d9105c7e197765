package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RaghavAtRuntime/local-llm-tutor/internal/eval"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/explain"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/feedback"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/quiz"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/store"
	llmmock "github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/llm/mock"
	simmock "github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/similarity/mock"
	sttmock "github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/stt/mock"
	ttsmock "github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/tts/mock"
	vadmock "github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/vad/mock"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/types"
)

// recorderSpy records persistence calls for assertions.
type recorderSpy struct {
	mu        sync.Mutex
	turns     []store.Turn
	summaries []store.SessionSummary
}

func (r *recorderSpy) RecordTurn(_ context.Context, t store.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, t)
	return nil
}

func (r *recorderSpy) RecordSummary(_ context.Context, s store.SessionSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, s)
	return nil
}

func (r *recorderSpy) Close() error { return nil }

func questions(n int) []quiz.Question {
	qs := []quiz.Question{
		{ID: "q1", Prompt: "What is photosynthesis?", ExpectedAnswer: "Plants convert sunlight into energy", KeyConcepts: []string{"sunlight", "energy"}, Difficulty: types.DifficultyEasy},
		{ID: "q2", Prompt: "What causes tides?", ExpectedAnswer: "The moon's gravity", KeyConcepts: []string{"moon", "gravity"}, Difficulty: types.DifficultyEasy},
		{ID: "q3", Prompt: "Define entropy.", ExpectedAnswer: "A measure of disorder", KeyConcepts: []string{"disorder"}, Difficulty: types.DifficultyHard},
	}
	return qs[:n]
}

// harness wires an orchestrator over mocks with sensible test defaults.
type harness struct {
	stt *sttmock.Provider
	tts *ttsmock.Provider
	rec *recorderSpy
}

func newOrchestrator(t *testing.T, qs []quiz.Question, transcripts []string, opts ...Option) (*Orchestrator, *harness) {
	t.Helper()

	seq, err := quiz.NewSequencer(qs, quiz.ModeSequential)
	if err != nil {
		t.Fatalf("NewSequencer: %v", err)
	}
	engine, err := eval.NewEngine(&simmock.Scorer{FixedScore: 0.2}, 0.75, 0.45)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	fb := feedback.New(explain.New(nil, false), feedback.WithSeed(1))

	h := &harness{
		stt: &sttmock.Provider{},
		tts: &ttsmock.Provider{},
		rec: &recorderSpy{},
	}
	for _, text := range transcripts {
		h.stt.Transcripts = append(h.stt.Transcripts, types.Transcript{Text: text, Source: types.SourceVoice})
	}

	opts = append([]Option{
		WithRecorder(h.rec),
		WithSessionID("test-session"),
		WithPortTimeouts(time.Second, time.Second),
	}, opts...)
	o, err := New(seq, engine, fb, h.stt, h.tts, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o, h
}

func run(t *testing.T, o *Orchestrator) Snapshot {
	t.Helper()
	done := make(chan Snapshot, 1)
	go func() {
		snap, _ := o.Run(context.Background())
		done <- snap
	}()
	select {
	case snap := <-done:
		return snap
	case <-time.After(10 * time.Second):
		t.Fatal("session did not finish")
		return Snapshot{}
	}
}

func spokenContaining(h *harness, substr string) int {
	n := 0
	for _, s := range h.tts.Spoken() {
		if strings.Contains(s, substr) {
			n++
		}
	}
	return n
}

func TestRun_SkipScenario(t *testing.T) {
	t.Parallel()

	o, h := newOrchestrator(t, questions(1), []string{"skip"})
	snap := run(t, o)

	if snap.Skipped != 1 || snap.Attempted != 0 {
		t.Errorf("snapshot = %+v, want skipped:1 attempted:0", snap)
	}
	if snap.Accuracy != 0 {
		t.Errorf("Accuracy = %v, want 0", snap.Accuracy)
	}
	if len(h.rec.turns) != 1 || h.rec.turns[0].Tier != eval.TierSkipped {
		t.Errorf("recorded turns = %+v, want one skipped", h.rec.turns)
	}
}

func TestRun_CorrectThenEmptyAnswer(t *testing.T) {
	t.Parallel()

	// First answer matches exactly; the second is an empty string, which is
	// scored (not re-prompted) and lands incorrect.
	o, h := newOrchestrator(t, questions(2), []string{"Plants convert sunlight into energy", ""})
	snap := run(t, o)

	if snap.Correct != 1 || snap.Incorrect != 1 {
		t.Errorf("snapshot = %+v, want correct:1 incorrect:1", snap)
	}
	if snap.Accuracy != 0.5 {
		t.Errorf("Accuracy = %v, want 0.5", snap.Accuracy)
	}
	if len(h.rec.turns) != 2 {
		t.Fatalf("recorded %d turns, want 2", len(h.rec.turns))
	}
	if h.rec.turns[0].Tier != eval.TierCorrect || h.rec.turns[0].Score != 1.0 {
		t.Errorf("first turn = %+v, want correct score 1.0", h.rec.turns[0])
	}
	if h.rec.turns[1].Tier != eval.TierIncorrect || h.rec.turns[1].Score != 0 {
		t.Errorf("second turn = %+v, want incorrect score 0", h.rec.turns[1])
	}
}

func TestRun_QuitEndsImmediately(t *testing.T) {
	t.Parallel()

	o, h := newOrchestrator(t, questions(3), []string{"quit"})
	snap := run(t, o)

	if snap.Attempted != 0 || snap.Skipped != 0 {
		t.Errorf("snapshot = %+v, want nothing recorded", snap)
	}
	// Only the first question was presented.
	if n := spokenContaining(h, "What causes tides?"); n != 0 {
		t.Errorf("second question presented %d times after quit", n)
	}
	if got := spokenContaining(h, "Goodbye"); got != 1 {
		t.Errorf("goodbye spoken %d times, want 1", got)
	}
}

func TestRun_RepeatRepresentsSameQuestion(t *testing.T) {
	t.Parallel()

	o, h := newOrchestrator(t, questions(1), []string{"repeat", "skip"})
	run(t, o)

	if n := spokenContaining(h, "What is photosynthesis?"); n != 2 {
		t.Errorf("prompt spoken %d times, want 2 (intro + repeat)", n)
	}
	if n := spokenContaining(h, "Repeating:"); n != 1 {
		t.Errorf("repeat line spoken %d times, want 1", n)
	}
}

func TestRun_ExplainBeforeAttemptDoesNotInvokeLLM(t *testing.T) {
	t.Parallel()

	llm := &llmmock.Provider{Responses: []string{"should never appear"}}

	seq, err := quiz.NewSequencer(questions(1), quiz.ModeSequential)
	if err != nil {
		t.Fatalf("NewSequencer: %v", err)
	}
	engine, err := eval.NewEngine(&simmock.Scorer{FixedScore: 0.2}, 0.75, 0.45)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	fb := feedback.New(explain.New(llm, true), feedback.WithSeed(1))

	sttProvider := &sttmock.Provider{Transcripts: []types.Transcript{
		{Text: "explain"}, {Text: "skip"},
	}}
	ttsProvider := &ttsmock.Provider{}
	o, err := New(seq, engine, fb, sttProvider, ttsProvider,
		WithPortTimeouts(time.Second, time.Second),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	run(t, o)

	if len(llm.CompleteCalls) != 0 {
		t.Errorf("LLM port called %d times before any scored attempt", len(llm.CompleteCalls))
	}
	found := false
	for _, s := range ttsProvider.Spoken() {
		if strings.Contains(s, "Try answering the question first") {
			found = true
		}
	}
	if !found {
		t.Error("missing no-op re-prompt for early explain")
	}
}

func TestRun_EmptyCaptureRetriesTwiceThenAdvances(t *testing.T) {
	t.Parallel()

	// No scripted transcripts: every capture fails with ErrNoSpeech.
	o, h := newOrchestrator(t, questions(1), nil)
	snap := run(t, o)

	if got := spokenContaining(h, "I didn't catch that"); got != 2 {
		t.Errorf("re-prompted %d times, want exactly 2", got)
	}
	if got := spokenContaining(h, "Moving on"); got != 1 {
		t.Errorf("move-on line spoken %d times, want 1", got)
	}
	if snap.Attempted != 0 || snap.Skipped != 0 {
		t.Errorf("snapshot = %+v, want nothing recorded", snap)
	}
	if len(h.stt.CaptureCalls) != 3 {
		t.Errorf("capture called %d times, want 3 (initial + 2 retries)", len(h.stt.CaptureCalls))
	}
}

func TestRun_TimeLimitForcesSkip(t *testing.T) {
	t.Parallel()

	o, h := newOrchestrator(t, questions(1), []string{"a thoughtful but very late answer"},
		WithTimeLimit(time.Nanosecond),
	)
	snap := run(t, o)

	if snap.Skipped != 1 || snap.Attempted != 0 {
		t.Errorf("snapshot = %+v, want timeout recorded as skip", snap)
	}
	if got := spokenContaining(h, "Time's up"); got != 1 {
		t.Errorf("timeout line spoken %d times, want 1", got)
	}
	if len(h.rec.turns) != 1 || h.rec.turns[0].Tier != eval.TierSkipped {
		t.Errorf("recorded turns = %+v, want one skipped", h.rec.turns)
	}
}

func TestRun_BargeInInterruptsPresentation(t *testing.T) {
	t.Parallel()

	listener := vadmock.NewListener()
	listener.AutoTrigger = true

	o, h := newOrchestrator(t, questions(1), []string{"skip"},
		WithBargeIn(listener),
		WithPortTimeouts(time.Second, 100*time.Millisecond),
	)
	h.tts.BlockUntilCancel = true

	snap := run(t, o)

	if snap.Skipped != 1 {
		t.Errorf("snapshot = %+v, want the skipped turn", snap)
	}
	// The prompt was spoken once and never re-queued after the interrupt.
	if n := spokenContaining(h, "What is photosynthesis?"); n != 1 {
		t.Errorf("prompt spoken %d times, want exactly 1", n)
	}
	if len(listener.WatchCalls) != 1 {
		t.Errorf("watcher armed %d times, want 1", len(listener.WatchCalls))
	}
}

func TestRun_WatcherArmFailureFallsBackToPlainSpeech(t *testing.T) {
	t.Parallel()

	listener := vadmock.NewListener()
	listener.WatchErr = context.DeadlineExceeded

	o, h := newOrchestrator(t, questions(1), []string{"skip"}, WithBargeIn(listener))
	snap := run(t, o)

	if snap.Skipped != 1 {
		t.Errorf("snapshot = %+v, want session to complete", snap)
	}
	if n := spokenContaining(h, "What is photosynthesis?"); n != 1 {
		t.Errorf("prompt spoken %d times, want 1", n)
	}
}

func TestRun_SummaryRecordedOnce(t *testing.T) {
	t.Parallel()

	o, h := newOrchestrator(t, questions(2), []string{"skip", "quit"})
	run(t, o)

	if len(h.rec.summaries) != 1 {
		t.Fatalf("summaries = %d, want exactly 1", len(h.rec.summaries))
	}
	sum := h.rec.summaries[0]
	if sum.SessionID != "test-session" || sum.Skipped != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if got := spokenContaining(h, "Session complete!"); got != 1 {
		t.Errorf("summary spoken %d times, want 1", got)
	}
}

func TestRun_WelcomeAndSummarySpoken(t *testing.T) {
	t.Parallel()

	o, h := newOrchestrator(t, questions(1), []string{"skip"})
	run(t, o)

	spoken := h.tts.Spoken()
	if len(spoken) == 0 || !strings.Contains(spoken[0], "Welcome to the AI Tutor!") {
		t.Errorf("first line = %q, want welcome", spoken)
	}
	if !strings.Contains(spoken[len(spoken)-1], "Session complete!") {
		t.Errorf("last line = %q, want summary", spoken[len(spoken)-1])
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	t.Parallel()

	o, h := newOrchestrator(t, questions(3), nil)
	h.stt.Block = true

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(ctx)
		done <- err
	}()
	select {
	case err := <-done:
		if err == nil {
			t.Error("expected ctx error from cancelled session")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop on cancellation")
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}
