// Package eval implements the three-layer answer evaluation engine.
//
// A candidate answer is graded against a question on three independent
// signals: exact match (normalized string equality), semantic similarity
// (through the Similarity Port) and concept coverage (case-insensitive
// substring presence of the question's key concepts). The signals combine
// into a single Verdict; evaluation degrades on port failure but never fails
// a turn.
package eval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/RaghavAtRuntime/local-llm-tutor/internal/quiz"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/similarity"
)

// ErrBadThresholds indicates a threshold pair violating
// 0 < partial < correct < 1. Fatal at session start.
var ErrBadThresholds = errors.New("eval: thresholds must satisfy 0 < partial < correct < 1")

// defaultSimilarityTimeout bounds a single Similarity Port call.
const defaultSimilarityTimeout = 5 * time.Second

// conceptPromotionFloor is the concept-coverage ratio at or above which a
// partial verdict is promoted one tier.
const conceptPromotionFloor = 0.5

// Tier is the graded outcome of a turn.
type Tier string

const (
	TierCorrect   Tier = "correct"
	TierPartial   Tier = "partial"
	TierIncorrect Tier = "incorrect"
	// TierSkipped is administrative: recorded when the learner skips or
	// times out, never produced by Evaluate.
	TierSkipped Tier = "skipped"
)

// Verdict is the full result of evaluating one candidate answer.
type Verdict struct {
	// Tier is the graded outcome.
	Tier Tier
	// Score is the composite score in [0, 1] used for tiering.
	Score float64
	// Exact reports normalized string equality with the expected answer.
	Exact bool
	// Semantic is the Similarity Port score, 0 when degraded or skipped.
	Semantic float64
	// ConceptCoverage is the fraction of key concepts found in the candidate.
	ConceptCoverage float64
	// Matched and Missing partition the question's key concepts.
	Matched []string
	Missing []string
	// Degraded is set when the Similarity Port failed or timed out and the
	// score fell back to the exact and concept layers only.
	Degraded bool
}

// Engine evaluates candidate answers. Safe for concurrent use.
type Engine struct {
	scorer            similarity.Scorer
	thresholdCorrect  float64
	thresholdPartial  float64
	conceptPromotion  bool
	similarityTimeout time.Duration
	log               *slog.Logger
}

// Option is a functional option for NewEngine.
type Option func(*Engine)

// WithConceptPromotion toggles the policy that promotes a partial verdict to
// correct when concept coverage is at least 0.5. Enabled by default; the rule
// is a heuristic, not ground truth, hence the switch.
func WithConceptPromotion(on bool) Option {
	return func(e *Engine) {
		e.conceptPromotion = on
	}
}

// WithSimilarityTimeout bounds each Similarity Port call. Defaults to 5s.
func WithSimilarityTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.similarityTimeout = d
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// NewEngine creates an evaluation engine grading against the given
// thresholds. Returns ErrBadThresholds unless 0 < partial < correct < 1.
func NewEngine(scorer similarity.Scorer, thresholdCorrect, thresholdPartial float64, opts ...Option) (*Engine, error) {
	if scorer == nil {
		return nil, errors.New("eval: scorer must not be nil")
	}
	if !(0 < thresholdPartial && thresholdPartial < thresholdCorrect && thresholdCorrect < 1) {
		return nil, fmt.Errorf("%w: correct=%v partial=%v", ErrBadThresholds, thresholdCorrect, thresholdPartial)
	}

	e := &Engine{
		scorer:            scorer,
		thresholdCorrect:  thresholdCorrect,
		thresholdPartial:  thresholdPartial,
		conceptPromotion:  true,
		similarityTimeout: defaultSimilarityTimeout,
		log:               slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Evaluate grades candidate against the question. It never fails: a
// Similarity Port error degrades the semantic layer instead, flagged on the
// Verdict.
//
// An empty candidate (after normalization) scores 0 and is incorrect without
// touching the Similarity Port.
func (e *Engine) Evaluate(ctx context.Context, candidate string, q quiz.Question) Verdict {
	nc := normalize(candidate)
	if nc == "" {
		return Verdict{
			Tier:    TierIncorrect,
			Score:   0,
			Missing: append([]string(nil), q.KeyConcepts...),
		}
	}

	exact := nc == normalize(q.ExpectedAnswer)
	matched, missing, coverage := detectConcepts(candidate, q.KeyConcepts)

	v := Verdict{
		Exact:           exact,
		ConceptCoverage: coverage,
		Matched:         matched,
		Missing:         missing,
	}

	sctx, cancel := context.WithTimeout(ctx, e.similarityTimeout)
	defer cancel()
	semantic, err := e.scorer.Score(sctx, candidate, q.ExpectedAnswer)
	if err != nil {
		e.log.Warn("similarity scoring degraded", "error", err)
		v.Degraded = true
	} else {
		v.Semantic = semantic
	}

	switch {
	case exact:
		// Short-circuit: the other layers remain as audit fields only.
		v.Tier = TierCorrect
		v.Score = 1.0
	case v.Degraded:
		// Exact is false here, so the fallback composite is concept-only.
		v.Score = coverage
		v.Tier = e.tierFor(v.Score)
	default:
		v.Score = semantic
		v.Tier = e.tierFor(semantic)
		if e.conceptPromotion && v.Tier == TierPartial && coverage >= conceptPromotionFloor {
			v.Tier = TierCorrect
		}
	}

	e.log.Debug("evaluated answer",
		"question_id", q.ID,
		"tier", v.Tier,
		"score", v.Score,
		"exact", v.Exact,
		"semantic", v.Semantic,
		"concept_coverage", v.ConceptCoverage,
		"degraded", v.Degraded,
	)
	return v
}

// tierFor maps a composite score onto a tier.
func (e *Engine) tierFor(score float64) Tier {
	switch {
	case score >= e.thresholdCorrect:
		return TierCorrect
	case score >= e.thresholdPartial:
		return TierPartial
	default:
		return TierIncorrect
	}
}

// detectConcepts partitions concepts by case-insensitive substring presence
// in the candidate and returns the coverage ratio.
func detectConcepts(candidate string, concepts []string) (matched, missing []string, coverage float64) {
	lower := strings.ToLower(candidate)
	for _, c := range concepts {
		if strings.Contains(lower, strings.ToLower(c)) {
			matched = append(matched, c)
		} else {
			missing = append(missing, c)
		}
	}
	if len(concepts) == 0 {
		return nil, nil, 1.0
	}
	return matched, missing, float64(len(matched)) / float64(len(concepts))
}

// normalize lowers case, strips punctuation and collapses whitespace.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
