// Package session drives one learner session: the state machine that takes
// each question through presentation, response capture, scoring, feedback and
// advancement, including barge-in handling while a prompt is being spoken.
//
// One Orchestrator instance serves exactly one session. The only genuine
// concurrency is during presentation, where synthesis and the voice-activity
// watcher run side by side; an interrupt cancels playback cooperatively and
// is always observed before any further audio is queued.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/RaghavAtRuntime/local-llm-tutor/internal/command"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/eval"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/feedback"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/observe"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/quiz"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/store"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/stt"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/tts"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/vad"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/types"
)

const (
	defaultSTTTimeout = 60 * time.Second
	defaultTTSTimeout = 30 * time.Second

	// maxEmptyRetries bounds "I didn't catch that" re-prompts per question.
	maxEmptyRetries = 2
)

// Orchestrator is the session state machine. Construct with New, drive with
// Run; a single Run call serves the whole session.
type Orchestrator struct {
	id      string
	seq     *quiz.Sequencer
	engine  *eval.Engine
	fb      *feedback.Generator
	stt     stt.Provider
	tts     tts.Provider
	vad     vad.Listener
	rec     store.Recorder
	metrics *observe.Metrics
	log     *slog.Logger

	timeLimit  time.Duration
	sttTimeout time.Duration
	ttsTimeout time.Duration

	stats Stats
}

// Option is a functional option for New.
type Option func(*Orchestrator)

// WithBargeIn arms the given voice-activity listener during presentation,
// letting the learner interrupt a spoken prompt. Without it (text-only mode)
// presentation is synchronous and uninterruptible.
func WithBargeIn(l vad.Listener) Option {
	return func(o *Orchestrator) {
		o.vad = l
	}
}

// WithRecorder sets the persistence collaborator. Defaults to a NopRecorder.
func WithRecorder(r store.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.rec = r
		}
	}
}

// WithTimeLimit sets the per-question time limit. An answer arriving after
// the limit records a skipped turn instead of being scored. Zero disables
// the check.
func WithTimeLimit(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeLimit = d
	}
}

// WithPortTimeouts bounds single capture and synthesis calls. Zero keeps the
// respective default.
func WithPortTimeouts(sttTimeout, ttsTimeout time.Duration) Option {
	return func(o *Orchestrator) {
		if sttTimeout > 0 {
			o.sttTimeout = sttTimeout
		}
		if ttsTimeout > 0 {
			o.ttsTimeout = ttsTimeout
		}
	}
}

// WithMetrics sets the metrics instance. Defaults to observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// WithSessionID overrides the generated session identifier. Intended for
// tests.
func WithSessionID(id string) Option {
	return func(o *Orchestrator) {
		o.id = id
	}
}

// New creates an Orchestrator for one session.
func New(
	seq *quiz.Sequencer,
	engine *eval.Engine,
	fb *feedback.Generator,
	sttProvider stt.Provider,
	ttsProvider tts.Provider,
	opts ...Option,
) (*Orchestrator, error) {
	if seq == nil || engine == nil || fb == nil || sttProvider == nil || ttsProvider == nil {
		return nil, errors.New("session: all of sequencer, engine, feedback, stt and tts are required")
	}

	o := &Orchestrator{
		id:         uuid.NewString(),
		seq:        seq,
		engine:     engine,
		fb:         fb,
		stt:        sttProvider,
		tts:        ttsProvider,
		rec:        store.NopRecorder{},
		metrics:    observe.DefaultMetrics(),
		log:        slog.Default(),
		sttTimeout: defaultSTTTimeout,
		ttsTimeout: defaultTTSTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// ID returns the session identifier.
func (o *Orchestrator) ID() string {
	return o.id
}

// Run drives the session to completion: sequence exhaustion, an explicit
// quit, or ctx cancellation. The returned snapshot is valid in all three
// cases; the error is non-nil only when ctx ended the session.
func (o *Orchestrator) Run(ctx context.Context) (Snapshot, error) {
	startedAt := time.Now()
	o.metrics.ActiveSessions.Add(ctx, 1)
	defer o.metrics.ActiveSessions.Add(ctx, -1)

	total := o.seq.Len()
	o.log.Info("session started", "session_id", o.id, "questions", total)
	o.say(ctx, o.fb.Welcome(total))

	number := 0
	for ctx.Err() == nil {
		q, ok := o.seq.Next()
		if !ok {
			break
		}
		number++
		if !o.runQuestion(ctx, q, number, total) {
			o.say(ctx, "Ending session early. Goodbye!")
			break
		}
	}

	snap := o.stats.Snapshot()
	o.say(ctx, o.fb.SessionSummary(feedback.Summary{
		TotalAnswered: snap.Attempted,
		Correct:       snap.Correct,
		Partial:       snap.Partial,
		Incorrect:     snap.Incorrect,
		Skipped:       snap.Skipped,
		AvgScore:      snap.AvgScore,
	}))

	if err := o.rec.RecordSummary(ctx, store.SessionSummary{
		SessionID:     o.id,
		StartedAt:     startedAt,
		EndedAt:       time.Now(),
		TotalAnswered: snap.Attempted,
		Correct:       snap.Correct,
		Partial:       snap.Partial,
		Incorrect:     snap.Incorrect,
		Skipped:       snap.Skipped,
		AvgScore:      snap.AvgScore,
	}); err != nil {
		o.log.Warn("failed to persist session summary", "error", err)
	}

	o.log.Info("session finished",
		"session_id", o.id,
		"correct", snap.Correct,
		"partial", snap.Partial,
		"incorrect", snap.Incorrect,
		"skipped", snap.Skipped,
		"accuracy", snap.Accuracy,
	)
	return snap, ctx.Err()
}

// runQuestion drives one question to its turn outcome. Returns false when
// the session should end early (quit or ctx cancellation).
func (o *Orchestrator) runQuestion(ctx context.Context, q quiz.Question, number, total int) bool {
	start := time.Now()
	o.present(ctx, o.fb.Intro(q, number, total))

	emptyRetries := 0
	hasVerdict := false
	for {
		if ctx.Err() != nil {
			return false
		}

		tr, err := o.capture(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			o.metrics.RecordPortError(ctx, "stt", "capture")
			if emptyRetries < maxEmptyRetries {
				emptyRetries++
				o.say(ctx, "I didn't catch that. Please try again.")
				continue
			}
			o.say(ctx, "I couldn't hear your answer. Moving on.")
			return true
		}

		switch command.Classify(tr.Text) {
		case command.Repeat:
			o.present(ctx, "Repeating: "+q.Prompt)
			continue
		case command.Explain:
			// Explanations are grounded in a scored attempt; before one
			// exists the command is a no-op re-prompt and the LLM port is
			// never consulted.
			if !hasVerdict {
				o.say(ctx, "Try answering the question first, then ask me to explain.")
				continue
			}
			o.say(ctx, o.fb.Explanation(ctx, q))
			continue
		case command.Skip:
			v := eval.Verdict{Tier: eval.TierSkipped}
			o.say(ctx, o.fb.ForVerdict(ctx, v, q))
			o.finishTurn(ctx, q, tr.Text, v, time.Since(start))
			return true
		case command.Quit:
			return false
		}

		elapsed := time.Since(start)
		if o.timeLimit > 0 && elapsed > o.timeLimit {
			o.say(ctx, "Time's up for this question. Moving on.")
			o.finishTurn(ctx, q, tr.Text, eval.Verdict{Tier: eval.TierSkipped}, elapsed)
			return true
		}

		scoreStart := time.Now()
		v := o.engine.Evaluate(ctx, tr.Text, q)
		o.metrics.ScoreDuration.Record(ctx, time.Since(scoreStart).Seconds())
		hasVerdict = true

		fbStart := time.Now()
		o.say(ctx, o.fb.ForVerdict(ctx, v, q))
		o.metrics.FeedbackDuration.Record(ctx, time.Since(fbStart).Seconds())

		o.finishTurn(ctx, q, tr.Text, v, elapsed)
		return true
	}
}

// finishTurn records the outcome with the stats aggregator and the
// persistence collaborator. Store failures are logged, never fatal.
func (o *Orchestrator) finishTurn(ctx context.Context, q quiz.Question, answer string, v eval.Verdict, elapsed time.Duration) {
	o.stats.Record(v.Tier, v.Score, elapsed)
	o.metrics.RecordVerdict(ctx, string(v.Tier))

	if err := o.rec.RecordTurn(ctx, store.Turn{
		SessionID:  o.id,
		QuestionID: q.ID,
		Answer:     answer,
		Tier:       v.Tier,
		Score:      v.Score,
		Elapsed:    elapsed,
		At:         time.Now(),
	}); err != nil {
		o.log.Warn("failed to persist turn", "question_id", q.ID, "error", err)
	}
}

// present speaks text while watching for barge-in. With no listener
// configured it reduces to a plain say. An interrupt cancels playback at the
// next frame boundary and is consumed here, before the caller can queue any
// further audio.
func (o *Orchestrator) present(ctx context.Context, text string) {
	start := time.Now()
	defer func() {
		o.metrics.PresentDuration.Record(ctx, time.Since(start).Seconds())
	}()

	if o.vad == nil {
		o.say(ctx, text)
		return
	}

	pctx, cancel := context.WithTimeout(ctx, o.ttsTimeout)
	defer cancel()

	events, err := o.vad.Watch(pctx)
	if err != nil {
		o.log.Warn("barge-in watcher failed to arm", "error", err)
		o.metrics.RecordPortError(ctx, "vad", "watch")
		o.say(ctx, text)
		return
	}

	// Single-slot signal: the watcher goroutine is the only writer, and the
	// slot is drained before present returns, so an interrupt can never be
	// lost or observed late.
	interrupted := make(chan struct{}, 1)

	g, gctx := errgroup.WithContext(pctx)
	g.Go(func() error {
		select {
		case _, ok := <-events:
			if ok {
				interrupted <- struct{}{}
				cancel()
			}
		case <-gctx.Done():
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		if err := o.tts.Speak(gctx, text); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("speak: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		o.log.Warn("synthesis failed", "error", err)
		o.metrics.RecordPortError(ctx, "tts", "speak")
	}

	select {
	case <-interrupted:
		o.log.Debug("barge-in: presentation interrupted")
		o.metrics.BargeIns.Add(ctx, 1)
	default:
	}
}

// say speaks text without an interrupt path.
func (o *Orchestrator) say(ctx context.Context, text string) {
	sctx, cancel := context.WithTimeout(ctx, o.ttsTimeout)
	defer cancel()
	if err := o.tts.Speak(sctx, text); err != nil && !errors.Is(err, context.Canceled) {
		o.log.Warn("synthesis failed", "error", err)
		o.metrics.RecordPortError(ctx, "tts", "speak")
	}
}

// capture obtains one learner response through the transcription port.
func (o *Orchestrator) capture(ctx context.Context) (types.Transcript, error) {
	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, o.sttTimeout)
	defer cancel()

	tr, err := o.stt.Capture(cctx)
	o.metrics.CaptureDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return types.Transcript{}, fmt.Errorf("capture: %w", err)
	}
	o.log.Debug("captured response", "text", tr.Text, "source", tr.Source, "confidence", tr.Confidence)
	return tr, nil
}
