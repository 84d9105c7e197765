package quiz

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/types"
)

// ErrEmptySet indicates that filtering left no questions to present.
// Fatal at session start, never raised mid-session.
var ErrEmptySet = errors.New("quiz: no questions match the configured filter")

// Mode selects the ordering policy for a session's question sequence.
type Mode string

const (
	// ModeSequential preserves the bank order.
	ModeSequential Mode = "sequential"
	// ModeRandom presents a uniformly shuffled permutation.
	ModeRandom Mode = "random"
	// ModeDifficulty groups questions easy, then medium, then hard,
	// preserving bank order within each group.
	ModeDifficulty Mode = "difficulty"
)

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeSequential, ModeRandom, ModeDifficulty:
		return true
	}
	return false
}

// Sequencer hands out one session's questions as a single-pass, finite,
// non-restartable iterator. The sequence is fixed at construction time.
//
// Not safe for concurrent use; the orchestrator is the sole consumer.
type Sequencer struct {
	questions []Question
	next      int
}

// sequencerConfig holds optional construction parameters.
type sequencerConfig struct {
	filter types.Difficulty
	rng    *rand.Rand
}

// SequencerOption is a functional option for NewSequencer.
type SequencerOption func(*sequencerConfig)

// WithDifficultyFilter restricts the sequence to questions of difficulty d.
// The zero value applies no filter.
func WithDifficultyFilter(d types.Difficulty) SequencerOption {
	return func(c *sequencerConfig) {
		c.filter = d
	}
}

// WithSeed makes ModeRandom deterministic. Intended for tests only; normal
// operation leaves the shuffle unseeded.
func WithSeed(seed uint64) SequencerOption {
	return func(c *sequencerConfig) {
		c.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// NewSequencer builds the ordered question sequence for one session.
//
// The difficulty filter (when set) applies first; mode ordering applies to
// the filtered set. Returns ErrEmptySet when no questions survive filtering.
func NewSequencer(questions []Question, mode Mode, opts ...SequencerOption) (*Sequencer, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("quiz: unknown mode %q", mode)
	}
	cfg := &sequencerConfig{}
	for _, o := range opts {
		o(cfg)
	}

	filtered := make([]Question, 0, len(questions))
	for _, q := range questions {
		if cfg.filter != "" && q.Difficulty != cfg.filter {
			continue
		}
		filtered = append(filtered, q)
	}
	if len(filtered) == 0 {
		return nil, ErrEmptySet
	}

	switch mode {
	case ModeRandom:
		shuffle := rand.Shuffle
		if cfg.rng != nil {
			shuffle = cfg.rng.Shuffle
		}
		shuffle(len(filtered), func(i, j int) {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		})
	case ModeDifficulty:
		slices.SortStableFunc(filtered, func(a, b Question) int {
			return a.Difficulty.Rank() - b.Difficulty.Rank()
		})
	}

	return &Sequencer{questions: filtered}, nil
}

// Next returns the next question in the sequence. The second return value is
// false once the sequence is exhausted; consumed questions cannot be revisited.
func (s *Sequencer) Next() (Question, bool) {
	if s.next >= len(s.questions) {
		return Question{}, false
	}
	q := s.questions[s.next]
	s.next++
	return q, true
}

// Len returns the total number of questions in the sequence.
func (s *Sequencer) Len() int {
	return len(s.questions)
}
