// Package store persists session history: an append-only turn log plus one
// summary row per session, in SQLite.
//
// The orchestrator talks to the Recorder interface; failures are logged by
// the caller and never end a session.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // driver: sqlite

	"github.com/RaghavAtRuntime/local-llm-tutor/internal/eval"
)

// Turn is one row of the append-only turn log.
type Turn struct {
	SessionID  string
	QuestionID string
	Answer     string
	Tier       eval.Tier
	Score      float64
	Elapsed    time.Duration
	At         time.Time
}

// SessionSummary is the single summary row written at session end.
type SessionSummary struct {
	SessionID     string
	StartedAt     time.Time
	EndedAt       time.Time
	TotalAnswered int
	Correct       int
	Partial       int
	Incorrect     int
	Skipped       int
	AvgScore      float64
}

// Recorder is the persistence contract consumed by the orchestrator.
type Recorder interface {
	// RecordTurn appends one turn outcome to the log.
	RecordTurn(ctx context.Context, t Turn) error
	// RecordSummary writes the session summary row.
	RecordSummary(ctx context.Context, s SessionSummary) error
	// Close releases the underlying storage.
	Close() error
}

// Compile-time interface assertions.
var (
	_ Recorder = (*Store)(nil)
	_ Recorder = NopRecorder{}
)

// Store is the SQLite-backed Recorder.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
  session_id TEXT PRIMARY KEY,
  start_time INTEGER NOT NULL,
  end_time INTEGER NOT NULL,
  total_questions INTEGER NOT NULL,
  correct INTEGER NOT NULL,
  partial INTEGER NOT NULL,
  incorrect INTEGER NOT NULL,
  skipped INTEGER NOT NULL,
  avg_score REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS question_results (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  session_id TEXT NOT NULL,
  question_id TEXT NOT NULL,
  user_answer TEXT NOT NULL,
  verdict TEXT NOT NULL,
  score REAL NOT NULL,
  response_time_ms INTEGER NOT NULL,
  timestamp INTEGER NOT NULL
);
`

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordTurn implements Recorder.
func (s *Store) RecordTurn(ctx context.Context, t Turn) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO question_results
		  (session_id, question_id, user_answer, verdict, score, response_time_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.SessionID, t.QuestionID, t.Answer, string(t.Tier), t.Score,
		t.Elapsed.Milliseconds(), t.At.Unix(),
	)
	if err != nil {
		return fmt.Errorf("store: record turn: %w", err)
	}
	return nil
}

// RecordSummary implements Recorder. Re-recording the same session replaces
// the previous summary row.
func (s *Store) RecordSummary(ctx context.Context, sum SessionSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions
		  (session_id, start_time, end_time, total_questions, correct, partial, incorrect, skipped, avg_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.SessionID, sum.StartedAt.Unix(), sum.EndedAt.Unix(),
		sum.TotalAnswered, sum.Correct, sum.Partial, sum.Incorrect, sum.Skipped, sum.AvgScore,
	)
	if err != nil {
		return fmt.Errorf("store: record summary: %w", err)
	}
	return nil
}

// Ping verifies the database connection is still usable. Exposed for the
// readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Recorder.
func (s *Store) Close() error {
	return s.db.Close()
}

// Turns returns the logged turns for a session, oldest first.
func (s *Store) Turns(ctx context.Context, sessionID string) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, question_id, user_answer, verdict, score, response_time_ms, timestamp
		FROM question_results WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var (
			t      Turn
			tier   string
			ms, ts int64
		)
		if err := rows.Scan(&t.SessionID, &t.QuestionID, &t.Answer, &tier, &t.Score, &ms, &ts); err != nil {
			return nil, fmt.Errorf("store: scan turn: %w", err)
		}
		t.Tier = eval.Tier(tier)
		t.Elapsed = time.Duration(ms) * time.Millisecond
		t.At = time.Unix(ts, 0)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate turns: %w", err)
	}
	return turns, nil
}

// NopRecorder discards everything. Used when persistence is disabled.
type NopRecorder struct{}

func (NopRecorder) RecordTurn(context.Context, Turn) error              { return nil }
func (NopRecorder) RecordSummary(context.Context, SessionSummary) error { return nil }
func (NopRecorder) Close() error                                        { return nil }
