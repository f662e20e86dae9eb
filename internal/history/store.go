// Package history persists commit attempts and their aggregate counters.
package history

import (
	"context"
	"time"
)

// CommitAttempt is the durable record of one orchestration attempt. Failed
// attempts carry CommitHash "ERROR" and a non-empty ErrorMessage. PushSuccess
// is nil unless the attempt succeeded and push was enabled.
type CommitAttempt struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Success      bool      `json:"success"`
	CommitHash   string    `json:"commit_hash"`
	Message      string    `json:"message"`
	FilesChanged int       `json:"files_changed"`
	UsedAI       bool      `json:"used_ai"`
	Theme        string    `json:"theme,omitempty"`
	PushSuccess  *bool     `json:"push_success,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// AggregateStats is the single counters row maintained alongside the attempt
// log. TotalCommits always equals SuccessfulCommits + FailedCommits.
type AggregateStats struct {
	TotalCommits      int64      `json:"total_commits"`
	SuccessfulCommits int64      `json:"successful_commits"`
	FailedCommits     int64      `json:"failed_commits"`
	TotalFilesChanged int64      `json:"total_files_changed"`
	AIUsageCount      int64      `json:"ai_usage_count"`
	LastCommitTime    *time.Time `json:"last_commit_time,omitempty"`
}

// Store is the append-only commit history log.
type Store interface {
	// Append writes an attempt and updates the aggregate row atomically,
	// returning the attempt's id.
	Append(ctx context.Context, attempt CommitAttempt) (int64, error)

	// Recent returns up to limit attempts, most recent first.
	Recent(ctx context.Context, limit int) ([]CommitAttempt, error)

	// Stats returns the aggregate counters.
	Stats(ctx context.Context) (AggregateStats, error)

	// CommitTypes breaks successful commits down by conventional commit type.
	CommitTypes(ctx context.Context) (map[string]int, error)

	Close() error
}
