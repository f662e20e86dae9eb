package integration

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/autocommit/internal/config"
	"git.home.luguber.info/inful/autocommit/internal/events"
	"git.home.luguber.info/inful/autocommit/internal/git"
	"git.home.luguber.info/inful/autocommit/internal/history"
	"git.home.luguber.info/inful/autocommit/internal/message"
	"git.home.luguber.info/inful/autocommit/internal/metrics"
	"git.home.luguber.info/inful/autocommit/internal/orchestrator"
	"git.home.luguber.info/inful/autocommit/internal/scheduler"
)

// setupTestRepo creates a temporary git repository with one initial commit.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err, "failed to initialize git repo")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# test\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)

	_, err = wt.Commit("initial commit", &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err, "failed to create initial commit")

	return dir
}

// newStack wires the full commit pipeline against a real repository and a real
// sqlite history store, with pushing disabled and template-only messages.
func newStack(t *testing.T, repoPath string) (*orchestrator.Orchestrator, history.Store) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Repository.Path = repoPath
	cfg.Commit.AuthorName = "Test Author"
	cfg.Commit.AuthorEmail = "test@example.com"
	cfg.Push.RetryAttempts = 1
	cfg.Push.RetryDelaySeconds = 1

	gw, err := git.Open(cfg)
	require.NoError(t, err)

	store, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	provider := message.NewGenerator(cfg, nil)
	return orchestrator.New(cfg, gw, provider, store, events.NoopPublisher{}, metrics.NoopRecorder{}), store
}

func requireGitBinary(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func headCommit(t *testing.T, repoPath string) *object.Commit {
	t.Helper()

	repo, err := gogit.PlainOpen(repoPath)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	return commit
}

func TestCommitFlowEndToEnd(t *testing.T) {
	requireGitBinary(t)

	dir := setupTestRepo(t)
	orch, store := newStack(t, dir)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))

	out := orch.RunAttempt(ctx)
	require.False(t, out.Skipped)
	require.True(t, out.Attempt.Success, "error: %s", out.Attempt.ErrorMessage)
	assert.False(t, out.Attempt.UsedAI, "no AI backend configured")
	assert.Equal(t, 1, out.Attempt.FilesChanged)
	assert.Nil(t, out.Attempt.PushSuccess)

	head := headCommit(t, dir)
	assert.Equal(t, head.Hash.String(), out.Attempt.CommitHash)
	assert.Equal(t, out.Attempt.Message, head.Message)
	assert.Equal(t, "Test Author", head.Author.Name)

	recent, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, out.Attempt.CommitHash, recent[0].CommitHash)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalCommits)
	assert.Equal(t, int64(1), stats.SuccessfulCommits)
	assert.Equal(t, int64(0), stats.FailedCommits)
}

func TestCleanTreeLeavesNoTrace(t *testing.T) {
	dir := setupTestRepo(t)
	orch, store := newStack(t, dir)
	ctx := context.Background()

	out := orch.RunAttempt(ctx)
	assert.True(t, out.Skipped)

	before := headCommit(t, dir).Hash
	recent, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent, "skipped attempts are not recorded")
	assert.Equal(t, before, headCommit(t, dir).Hash)
}

func TestSchedulerDrivesCommits(t *testing.T) {
	requireGitBinary(t)

	dir := setupTestRepo(t)
	orch, store := newStack(t, dir)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello\n"), 0o644))

	core := scheduler.New(orch, 20*time.Millisecond, 0, metrics.NoopRecorder{})
	core.Start()
	defer core.Stop()

	require.Eventually(t, func() bool {
		recent, err := store.Recent(ctx, 10)
		return err == nil && len(recent) == 1
	}, 5*time.Second, 10*time.Millisecond, "scheduler never committed the pending change")

	recent, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.True(t, recent[0].Success)
	assert.Contains(t, headCommit(t, dir).Message, recent[0].Message)
}

func TestTriggerNowCommitsImmediately(t *testing.T) {
	requireGitBinary(t)

	dir := setupTestRepo(t)
	orch, store := newStack(t, dir)
	ctx := context.Background()

	core := scheduler.New(orch, time.Hour, 0, metrics.NoopRecorder{})
	core.Start()
	defer core.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello\n"), 0o644))

	out, err := core.TriggerNow(ctx)
	require.NoError(t, err)
	require.False(t, out.Skipped)
	assert.True(t, out.Attempt.Success)

	recent, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}
