package session

import (
	"time"

	"github.com/RaghavAtRuntime/local-llm-tutor/internal/eval"
)

// Stats folds each turn's outcome into running session statistics. Owned by
// the orchestrator; callers read it through Snapshot.
type Stats struct {
	correct      int
	partial      int
	incorrect    int
	skipped      int
	totalScore   float64
	totalElapsed time.Duration
}

// Snapshot is a read-only view of the accumulated statistics.
type Snapshot struct {
	Correct   int
	Partial   int
	Incorrect int
	Skipped   int
	// Attempted counts scored turns, excluding skips.
	Attempted int
	// Accuracy is correct divided by attempted; 0 when nothing was attempted.
	Accuracy float64
	// AvgScore is the mean composite score over attempted turns.
	AvgScore float64
	// TotalElapsed sums per-turn response times, including skipped turns.
	TotalElapsed time.Duration
	// AvgElapsed is the mean response time over all recorded turns.
	AvgElapsed time.Duration
}

// Record folds one turn outcome into the running totals.
func (s *Stats) Record(tier eval.Tier, score float64, elapsed time.Duration) {
	s.totalElapsed += elapsed
	switch tier {
	case eval.TierCorrect:
		s.correct++
	case eval.TierPartial:
		s.partial++
	case eval.TierIncorrect:
		s.incorrect++
	case eval.TierSkipped:
		s.skipped++
		return
	}
	s.totalScore += score
}

// Snapshot returns the current statistics.
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Correct:      s.correct,
		Partial:      s.partial,
		Incorrect:    s.incorrect,
		Skipped:      s.skipped,
		Attempted:    s.correct + s.partial + s.incorrect,
		TotalElapsed: s.totalElapsed,
	}
	if snap.Attempted > 0 {
		snap.Accuracy = float64(s.correct) / float64(snap.Attempted)
		snap.AvgScore = s.totalScore / float64(snap.Attempted)
	}
	if total := snap.Attempted + s.skipped; total > 0 {
		snap.AvgElapsed = s.totalElapsed / time.Duration(total)
	}
	return snap
}
