package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the history database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS commit_attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		success INTEGER NOT NULL,
		commit_hash TEXT NOT NULL,
		message TEXT NOT NULL,
		files_changed INTEGER NOT NULL DEFAULT 0,
		used_ai INTEGER NOT NULL DEFAULT 0,
		theme TEXT,
		push_success INTEGER,
		error_message TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_attempts_timestamp ON commit_attempts(timestamp DESC);

	CREATE TABLE IF NOT EXISTS aggregate_stats (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		total_commits INTEGER NOT NULL DEFAULT 0,
		successful_commits INTEGER NOT NULL DEFAULT 0,
		failed_commits INTEGER NOT NULL DEFAULT 0,
		total_files_changed INTEGER NOT NULL DEFAULT 0,
		ai_usage_count INTEGER NOT NULL DEFAULT 0,
		last_commit_time INTEGER
	);
	INSERT OR IGNORE INTO aggregate_stats (id) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append inserts the attempt and bumps the aggregate counters in a single
// transaction, so readers never see one without the other.
func (s *SQLiteStore) Append(ctx context.Context, attempt CommitAttempt) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	ts := attempt.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var theme, errMsg sql.NullString
	if attempt.Theme != "" {
		theme = sql.NullString{String: attempt.Theme, Valid: true}
	}
	if attempt.ErrorMessage != "" {
		errMsg = sql.NullString{String: attempt.ErrorMessage, Valid: true}
	}
	var pushSuccess sql.NullBool
	if attempt.PushSuccess != nil {
		pushSuccess = sql.NullBool{Bool: *attempt.PushSuccess, Valid: true}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO commit_attempts
		 (timestamp, success, commit_hash, message, files_changed, used_ai, theme, push_success, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.Unix(), attempt.Success, attempt.CommitHash, attempt.Message,
		attempt.FilesChanged, attempt.UsedAI, theme, pushSuccess, errMsg,
	)
	if err != nil {
		return 0, fmt.Errorf("insert attempt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("attempt id: %w", err)
	}

	successful, failed := 0, 1
	if attempt.Success {
		successful, failed = 1, 0
	}
	aiUsed := 0
	if attempt.UsedAI {
		aiUsed = 1
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE aggregate_stats SET
		 total_commits = total_commits + 1,
		 successful_commits = successful_commits + ?,
		 failed_commits = failed_commits + ?,
		 total_files_changed = total_files_changed + ?,
		 ai_usage_count = ai_usage_count + ?,
		 last_commit_time = ?
		 WHERE id = 1`,
		successful, failed, attempt.FilesChanged, aiUsed, ts.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("update aggregate stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return id, nil
}

// Recent returns up to limit attempts, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]CommitAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, success, commit_hash, message, files_changed, used_ai, theme, push_success, error_message
		 FROM commit_attempts ORDER BY timestamp DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

func scanAttempts(rows *sql.Rows) ([]CommitAttempt, error) {
	var attempts []CommitAttempt
	for rows.Next() {
		var (
			a           CommitAttempt
			ts          int64
			theme       sql.NullString
			pushSuccess sql.NullBool
			errMsg      sql.NullString
		)
		if err := rows.Scan(&a.ID, &ts, &a.Success, &a.CommitHash, &a.Message,
			&a.FilesChanged, &a.UsedAI, &theme, &pushSuccess, &errMsg); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Timestamp = time.Unix(ts, 0)
		a.Theme = theme.String
		a.ErrorMessage = errMsg.String
		if pushSuccess.Valid {
			v := pushSuccess.Bool
			a.PushSuccess = &v
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Stats returns the aggregate counters row.
func (s *SQLiteStore) Stats(ctx context.Context) (AggregateStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		stats AggregateStats
		last  sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT total_commits, successful_commits, failed_commits, total_files_changed, ai_usage_count, last_commit_time
		 FROM aggregate_stats WHERE id = 1`,
	).Scan(&stats.TotalCommits, &stats.SuccessfulCommits, &stats.FailedCommits,
		&stats.TotalFilesChanged, &stats.AIUsageCount, &last)
	if err != nil {
		return AggregateStats{}, fmt.Errorf("query aggregate stats: %w", err)
	}
	if last.Valid {
		t := time.Unix(last.Int64, 0)
		stats.LastCommitTime = &t
	}
	return stats, nil
}

// CommitTypes counts successful commits per conventional commit type. Messages
// without a type prefix are ignored.
func (s *SQLiteStore) CommitTypes(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT message FROM commit_attempts WHERE success = 1`)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	types := make(map[string]int)
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		typ, _, ok := strings.Cut(msg, ":")
		if !ok {
			continue
		}
		typ = strings.ToLower(strings.TrimSpace(typ))
		if i := strings.IndexByte(typ, '('); i >= 0 {
			typ = typ[:i]
		}
		if typ == "" {
			continue
		}
		types[typ]++
	}
	return types, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
