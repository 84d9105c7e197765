package session

import (
	"testing"
	"time"

	"github.com/RaghavAtRuntime/local-llm-tutor/internal/eval"
)

func TestStats_Empty(t *testing.T) {
	t.Parallel()

	var s Stats
	snap := s.Snapshot()
	if snap.Attempted != 0 || snap.Accuracy != 0 || snap.AvgScore != 0 {
		t.Errorf("empty snapshot = %+v, want zeros", snap)
	}
}

func TestStats_AccuracyExcludesSkips(t *testing.T) {
	t.Parallel()

	var s Stats
	s.Record(eval.TierCorrect, 1.0, time.Second)
	s.Record(eval.TierIncorrect, 0.1, time.Second)
	s.Record(eval.TierSkipped, 0, time.Second)

	snap := s.Snapshot()
	if snap.Attempted != 2 {
		t.Errorf("Attempted = %d, want 2", snap.Attempted)
	}
	if snap.Accuracy != 0.5 {
		t.Errorf("Accuracy = %v, want 0.5", snap.Accuracy)
	}
	if snap.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", snap.Skipped)
	}
}

func TestStats_OnlySkips(t *testing.T) {
	t.Parallel()

	var s Stats
	s.Record(eval.TierSkipped, 0, time.Second)
	snap := s.Snapshot()
	if snap.Accuracy != 0 {
		t.Errorf("Accuracy = %v, want 0 when nothing attempted", snap.Accuracy)
	}
	if snap.TotalElapsed != time.Second {
		t.Errorf("TotalElapsed = %v, want 1s", snap.TotalElapsed)
	}
}

func TestStats_Averages(t *testing.T) {
	t.Parallel()

	var s Stats
	s.Record(eval.TierCorrect, 1.0, 2*time.Second)
	s.Record(eval.TierPartial, 0.5, 4*time.Second)

	snap := s.Snapshot()
	if snap.AvgScore != 0.75 {
		t.Errorf("AvgScore = %v, want 0.75", snap.AvgScore)
	}
	if snap.AvgElapsed != 3*time.Second {
		t.Errorf("AvgElapsed = %v, want 3s", snap.AvgElapsed)
	}
	if snap.TotalElapsed != 6*time.Second {
		t.Errorf("TotalElapsed = %v, want 6s", snap.TotalElapsed)
	}
}
