package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"meetcap/internal/modules/capture/domain"

	_ "modernc.org/sqlite"
)

// runTimeLayout is fixed width so started_at sorts chronologically as text.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRunHistory struct {
	db *sql.DB
}

func NewSQLiteRunHistory(dbPath string) (*SQLiteRunHistory, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection serialises Record calls from overlapping sessions
	db.SetMaxOpenConns(1)
	history := &SQLiteRunHistory{db: db}
	if err := history.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return history, nil
}

func (s *SQLiteRunHistory) Close() error {
	return s.db.Close()
}

func (s *SQLiteRunHistory) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS session_runs (
  run_id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  state TEXT NOT NULL,
  reason TEXT,
  error TEXT,
  strategy TEXT,
  meeting_id TEXT,
  output_path TEXT,
  task_id TEXT,
  conditions TEXT,
  started_at TEXT NOT NULL,
  ended_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_runs_started_at ON session_runs(started_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create session_runs table: %w", err)
	}
	return nil
}

func (s *SQLiteRunHistory) Record(ctx context.Context, outcome domain.Outcome) error {
	const stmt = `
INSERT INTO session_runs (run_id, session_id, state, reason, error, strategy, meeting_id, output_path, task_id, conditions, started_at, ended_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
  state=excluded.state,
  reason=excluded.reason,
  error=excluded.error,
  strategy=excluded.strategy,
  output_path=excluded.output_path,
  task_id=excluded.task_id,
  conditions=excluded.conditions,
  ended_at=excluded.ended_at;
`
	conditions := make([]string, 0, len(outcome.Conditions))
	for _, c := range outcome.Conditions {
		conditions = append(conditions, string(c))
	}
	_, err := s.db.ExecContext(ctx, stmt,
		outcome.RunID,
		outcome.SessionID,
		string(outcome.State),
		string(outcome.Reason),
		outcome.Error,
		string(outcome.Strategy),
		outcome.MeetingID,
		outcome.OutputPath,
		outcome.TaskID,
		strings.Join(conditions, ","),
		outcome.StartedAt.UTC().Format(runTimeLayout),
		outcome.EndedAt.UTC().Format(runTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("record session run: %w", err)
	}
	return nil
}

func (s *SQLiteRunHistory) List(ctx context.Context, limit int) ([]domain.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, session_id, state, reason, error, strategy, meeting_id, output_path, task_id, conditions, started_at, ended_at
FROM session_runs
ORDER BY started_at DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query session runs: %w", err)
	}
	defer rows.Close()

	out := []domain.Outcome{}
	for rows.Next() {
		var (
			o                                      domain.Outcome
			state, reason, strategy, conditions    string
			errText, meetingID, outputPath, taskID sql.NullString
			startedAt, endedAt                     string
		)
		if err := rows.Scan(&o.RunID, &o.SessionID, &state, &reason, &errText, &strategy, &meetingID, &outputPath, &taskID, &conditions, &startedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scan session run: %w", err)
		}
		o.State = domain.State(state)
		o.Reason = domain.Reason(reason)
		o.Strategy = domain.Strategy(strategy)
		o.Error = errText.String
		o.MeetingID = meetingID.String
		o.OutputPath = outputPath.String
		o.TaskID = taskID.String
		for _, c := range strings.Split(conditions, ",") {
			if c != "" {
				o.Conditions = append(o.Conditions, domain.Condition(c))
			}
		}
		o.StartedAt, _ = time.Parse(runTimeLayout, startedAt)
		o.EndedAt, _ = time.Parse(runTimeLayout, endedAt)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session runs: %w", err)
	}
	return out, nil
}
