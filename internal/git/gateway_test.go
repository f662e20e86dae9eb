package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/autocommit/internal/config"
	"git.home.luguber.info/inful/autocommit/internal/retry"
)

func testConfig(path string) *config.Config {
	cfg := &config.Config{}
	cfg.Repository.Path = path
	cfg.Push.Remote = "origin"
	cfg.Commit.AuthorName = "Test Author"
	cfg.Commit.AuthorEmail = "test@example.com"
	return cfg
}

// initTestRepo creates a repository with one initial commit.
func initTestRepo(t *testing.T) (string, *gogit.Repository) {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	writeFile(t, dir, "README.md", "# test\n")

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	_, err = wt.Commit("initial commit", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir, repo
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestOpen(t *testing.T) {
	t.Run("opens existing repository", func(t *testing.T) {
		dir, _ := initTestRepo(t)

		g, err := Open(testConfig(dir))
		require.NoError(t, err)
		assert.Equal(t, dir, g.Path())
	})

	t.Run("fails on non-repository directory", func(t *testing.T) {
		_, err := Open(testConfig(t.TempDir()))
		assert.Error(t, err)
	})
}

func TestHasChanges(t *testing.T) {
	dir, _ := initTestRepo(t)
	g, err := Open(testConfig(dir))
	require.NoError(t, err)

	dirty, err := g.HasChanges()
	require.NoError(t, err)
	assert.False(t, dirty, "fresh repo should be clean")

	writeFile(t, dir, "notes.txt", "hello\n")

	dirty, err = g.HasChanges()
	require.NoError(t, err)
	assert.True(t, dirty, "untracked file should count as a change")
}

func TestStageAllAndChangedFiles(t *testing.T) {
	dir, _ := initTestRepo(t)
	g, err := Open(testConfig(dir))
	require.NoError(t, err)

	writeFile(t, dir, "b.txt", "b\n")
	writeFile(t, dir, "a.txt", "a\n")
	writeFile(t, dir, "README.md", "# test\nupdated\n")

	files, err := g.ChangedFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "a.txt", "b.txt"}, files)

	require.NoError(t, g.StageAll())

	dirty, err := g.HasChanges()
	require.NoError(t, err)
	assert.True(t, dirty, "staged changes still count as changes")
}

func TestCommit(t *testing.T) {
	dir, _ := initTestRepo(t)
	g, err := Open(testConfig(dir))
	require.NoError(t, err)

	writeFile(t, dir, "feature.go", "package feature\n")
	require.NoError(t, g.StageAll())

	hash, err := g.Commit("feat: add feature package")
	require.NoError(t, err)
	assert.Len(t, hash, 40)

	msg, err := g.LastCommitMessage()
	require.NoError(t, err)
	assert.Equal(t, "feat: add feature package", msg)

	count, err := g.CommitCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCurrentBranch(t *testing.T) {
	dir, _ := initTestRepo(t)
	g, err := Open(testConfig(dir))
	require.NoError(t, err)

	branch, err := g.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
}

func TestStagedDiff(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	dir, _ := initTestRepo(t)
	g, err := Open(testConfig(dir))
	require.NoError(t, err)

	writeFile(t, dir, "notes.txt", "a new line\n")
	require.NoError(t, g.StageAll())

	diff, err := g.StagedDiff(context.Background())
	require.NoError(t, err)
	assert.Contains(t, diff, "notes.txt")
	assert.Contains(t, diff, "+a new line")
}

func TestPush(t *testing.T) {
	newGateway := func(t *testing.T) *Gateway {
		dir, _ := initTestRepo(t)
		g, err := Open(testConfig(dir))
		require.NoError(t, err)
		return g
	}
	fixedPolicy := func(attempts int, delay time.Duration) retry.Policy {
		return retry.NewPolicy(config.RetryBackoffFixed, delay, delay, attempts-1)
	}

	t.Run("succeeds on first attempt", func(t *testing.T) {
		g := newGateway(t)
		calls := 0
		g.pushFn = func(*gogit.PushOptions) error {
			calls++
			return nil
		}

		ok := g.Push(context.Background(), fixedPolicy(3, time.Millisecond))
		assert.True(t, ok)
		assert.Equal(t, 1, calls)
	})

	t.Run("already up to date counts as success", func(t *testing.T) {
		g := newGateway(t)
		g.pushFn = func(*gogit.PushOptions) error { return gogit.NoErrAlreadyUpToDate }

		assert.True(t, g.Push(context.Background(), fixedPolicy(3, time.Millisecond)))
	})

	t.Run("retries with fixed delay and succeeds", func(t *testing.T) {
		g := newGateway(t)
		calls := 0
		g.pushFn = func(*gogit.PushOptions) error {
			calls++
			if calls < 3 {
				return fmt.Errorf("connection refused")
			}
			return nil
		}

		ok := g.Push(context.Background(), fixedPolicy(3, time.Millisecond))
		assert.True(t, ok)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns false when all attempts fail", func(t *testing.T) {
		g := newGateway(t)
		calls := 0
		g.pushFn = func(*gogit.PushOptions) error {
			calls++
			return fmt.Errorf("connection refused")
		}

		ok := g.Push(context.Background(), fixedPolicy(3, time.Millisecond))
		assert.False(t, ok)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops retrying on context cancellation", func(t *testing.T) {
		g := newGateway(t)
		ctx, cancel := context.WithCancel(context.Background())
		g.pushFn = func(*gogit.PushOptions) error {
			cancel()
			return fmt.Errorf("connection refused")
		}

		ok := g.Push(ctx, fixedPolicy(5, time.Hour))
		assert.False(t, ok)
	})
}

func TestEnsureTokenRemote(t *testing.T) {
	dir, repo := initTestRepo(t)
	_, err := repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{"https://git.example.com/user/repo.git"},
	})
	require.NoError(t, err)

	cfg := testConfig(dir)
	cfg.Push.Token = "sekret"
	g, err := Open(cfg)
	require.NoError(t, err)

	require.NoError(t, g.ensureTokenRemote())

	repoCfg, err := g.repo.Config()
	require.NoError(t, err)
	assert.Equal(t, "https://sekret@git.example.com/user/repo.git", repoCfg.Remotes["origin"].URLs[0])
}

func TestRewriteRemoteWithToken(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		changed bool
	}{
		{
			name:    "https URL without credential gets token",
			url:     "https://git.example.com/user/repo.git",
			want:    "https://tok@git.example.com/user/repo.git",
			changed: true,
		},
		{
			name:    "URL with existing credential is untouched",
			url:     "https://alice@git.example.com/user/repo.git",
			want:    "https://alice@git.example.com/user/repo.git",
			changed: false,
		},
		{
			name:    "ssh remote is untouched",
			url:     "git@git.example.com:user/repo.git",
			want:    "git@git.example.com:user/repo.git",
			changed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed, err := RewriteRemoteWithToken(tt.url, "tok")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}
