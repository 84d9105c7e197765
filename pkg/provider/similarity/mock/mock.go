// Package mock provides a test double for the similarity.Scorer interface.
package mock

import (
	"context"
	"sync"

	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/similarity"
)

// Compile-time interface assertion.
var _ similarity.Scorer = (*Scorer)(nil)

// ScoreCall records a single invocation of Score.
type ScoreCall struct {
	// Ctx is the context passed to Score.
	Ctx context.Context
	// A and B are the texts that were compared.
	A, B string
}

// Scorer is a mock implementation of similarity.Scorer.
//
// Resolution order for the returned value: ScoreErr (if set), then an exact
// Pairs entry (order-insensitive), then FixedScore.
type Scorer struct {
	mu sync.Mutex

	// FixedScore is returned when no Pairs entry matches.
	FixedScore float64

	// Pairs maps [2]string{a, b} to a score. Lookup tries both orderings.
	Pairs map[[2]string]float64

	// ScoreErr, if non-nil, is returned by every Score call.
	ScoreErr error

	// ScoreCalls records every call to Score in order.
	ScoreCalls []ScoreCall
}

// Score implements similarity.Scorer.
func (s *Scorer) Score(ctx context.Context, a, b string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ScoreCalls = append(s.ScoreCalls, ScoreCall{Ctx: ctx, A: a, B: b})
	if s.ScoreErr != nil {
		return 0, s.ScoreErr
	}
	if v, ok := s.Pairs[[2]string{a, b}]; ok {
		return v, nil
	}
	if v, ok := s.Pairs[[2]string{b, a}]; ok {
		return v, nil
	}
	return s.FixedScore, nil
}
