package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/RaghavAtRuntime/local-llm-tutor/internal/eval"
)

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "tutor.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordTurn_RoundTrip(t *testing.T) {
	t.Parallel()

	s := open(t)
	ctx := context.Background()

	turns := []Turn{
		{SessionID: "s1", QuestionID: "q1", Answer: "photosynthesis", Tier: eval.TierCorrect, Score: 1.0, Elapsed: 3 * time.Second, At: time.Unix(1700000000, 0)},
		{SessionID: "s1", QuestionID: "q2", Answer: "", Tier: eval.TierSkipped, Score: 0, Elapsed: time.Second, At: time.Unix(1700000010, 0)},
		{SessionID: "other", QuestionID: "q1", Answer: "x", Tier: eval.TierIncorrect, Score: 0.1, Elapsed: time.Second, At: time.Unix(1700000020, 0)},
	}
	for _, turn := range turns {
		if err := s.RecordTurn(ctx, turn); err != nil {
			t.Fatalf("RecordTurn: %v", err)
		}
	}

	got, err := s.Turns(ctx, "s1")
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].QuestionID != "q1" || got[0].Tier != eval.TierCorrect || got[0].Score != 1.0 {
		t.Errorf("first turn = %+v", got[0])
	}
	if got[0].Elapsed != 3*time.Second {
		t.Errorf("Elapsed = %v, want 3s", got[0].Elapsed)
	}
	if got[1].Tier != eval.TierSkipped {
		t.Errorf("second tier = %v, want skipped", got[1].Tier)
	}
}

func TestRecordSummary_ReplacesOnSameSession(t *testing.T) {
	t.Parallel()

	s := open(t)
	ctx := context.Background()

	sum := SessionSummary{
		SessionID:     "s1",
		StartedAt:     time.Unix(1700000000, 0),
		EndedAt:       time.Unix(1700000100, 0),
		TotalAnswered: 3,
		Correct:       2,
		Partial:       1,
		AvgScore:      0.8,
	}
	if err := s.RecordSummary(ctx, sum); err != nil {
		t.Fatalf("RecordSummary: %v", err)
	}
	sum.Correct = 3
	if err := s.RecordSummary(ctx, sum); err != nil {
		t.Fatalf("RecordSummary (replace): %v", err)
	}

	var count, correct int
	row := s.db.QueryRow(`SELECT COUNT(*), MAX(correct) FROM sessions WHERE session_id = ?`, "s1")
	if err := row.Scan(&count, &correct); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 1 {
		t.Errorf("summary rows = %d, want exactly 1", count)
	}
	if correct != 3 {
		t.Errorf("correct = %d, want replaced value 3", correct)
	}
}

func TestOpen_BadPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing", "nested", "tutor.db")); err == nil {
		t.Fatal("expected error for unreachable path")
	}
}

func TestNopRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder = NopRecorder{}
	if err := r.RecordTurn(context.Background(), Turn{}); err != nil {
		t.Errorf("RecordTurn: %v", err)
	}
	if err := r.RecordSummary(context.Background(), SessionSummary{}); err != nil {
		t.Errorf("RecordSummary: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
