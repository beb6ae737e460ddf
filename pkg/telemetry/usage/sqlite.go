package usage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS usage_records (
	id                TEXT PRIMARY KEY,
	time              INTEGER NOT NULL,
	task              TEXT NOT NULL DEFAULT '',
	instance          TEXT NOT NULL DEFAULT '',
	instance_id       INTEGER NOT NULL DEFAULT -1,
	provider          TEXT NOT NULL DEFAULT '',
	model             TEXT NOT NULL DEFAULT '',
	outcome           TEXT NOT NULL,
	error_kind        TEXT NOT NULL DEFAULT '',
	attempts          INTEGER NOT NULL DEFAULT 0,
	prompt_tokens     INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	total_tokens      INTEGER NOT NULL DEFAULT 0,
	latency_ms        INTEGER NOT NULL DEFAULT 0,
	streamed          INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_usage_time ON usage_records(time);
CREATE INDEX IF NOT EXISTS idx_usage_task ON usage_records(task);
CREATE INDEX IF NOT EXISTS idx_usage_instance ON usage_records(instance);
`

// SQLiteStore persists usage records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage database: %w", err)
	}

	// The driver serializes writes; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize usage schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Insert persists one record.
func (s *SQLiteStore) Insert(ctx context.Context, rec *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_records (
			id, time, task, instance, instance_id, provider, model,
			outcome, error_kind, attempts,
			prompt_tokens, completion_tokens, total_tokens,
			latency_ms, streamed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Time.UnixMilli(), rec.Task, rec.Instance, rec.InstanceID,
		rec.Provider, rec.Model, rec.Outcome, rec.ErrorKind, rec.Attempts,
		rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens,
		rec.LatencyMS, boolToInt(rec.Streamed),
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	return nil
}

// Query returns matching records, newest first.
func (s *SQLiteStore) Query(ctx context.Context, f Filter) ([]*Record, error) {
	where, args := buildWhere(f)

	query := `
		SELECT id, time, task, instance, instance_id, provider, model,
		       outcome, error_kind, attempts,
		       prompt_tokens, completion_tokens, total_tokens,
		       latency_ms, streamed
		FROM usage_records` + where + ` ORDER BY time DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec := &Record{}
		var ts int64
		var streamed int
		if err := rows.Scan(
			&rec.ID, &ts, &rec.Task, &rec.Instance, &rec.InstanceID,
			&rec.Provider, &rec.Model, &rec.Outcome, &rec.ErrorKind,
			&rec.Attempts, &rec.PromptTokens, &rec.CompletionTokens,
			&rec.TotalTokens, &rec.LatencyMS, &streamed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		rec.Time = time.UnixMilli(ts).UTC()
		rec.Streamed = streamed != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Summarize aggregates matching records.
func (s *SQLiteStore) Summarize(ctx context.Context, f Filter) (*Summary, error) {
	where, args := buildWhere(f)

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN outcome = 'success' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(attempts), 0),
		       COALESCE(SUM(prompt_tokens), 0),
		       COALESCE(SUM(completion_tokens), 0),
		       COALESCE(SUM(total_tokens), 0)
		FROM usage_records`+where, args...)

	sum := &Summary{}
	if err := row.Scan(
		&sum.Requests, &sum.Successes, &sum.Attempts,
		&sum.PromptTokens, &sum.CompletionTokens, &sum.TotalTokens,
	); err != nil {
		return nil, fmt.Errorf("failed to summarize usage records: %w", err)
	}
	return sum, nil
}

// Prune deletes records older than cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM usage_records WHERE time < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage records: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func buildWhere(f Filter) (string, []any) {
	var conds []string
	var args []any

	if f.Task != "" {
		conds = append(conds, "task = ?")
		args = append(args, f.Task)
	}
	if f.Instance != "" {
		conds = append(conds, "instance = ?")
		args = append(args, f.Instance)
	}
	if f.Outcome != "" {
		conds = append(conds, "outcome = ?")
		args = append(args, f.Outcome)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "time >= ?")
		args = append(args, f.Since.UnixMilli())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
