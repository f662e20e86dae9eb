package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
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
	"git.home.luguber.info/inful/autocommit/internal/server/responses"
)

func TestInitCmd(t *testing.T) {
	t.Run("writes a loadable starter config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "autocommit.yaml")
		cmd := &InitCmd{}
		require.NoError(t, cmd.Run(&Global{}, &CLI{Config: path}))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, 600, cfg.Schedule.BaseIntervalSeconds)
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "autocommit.yaml")
		require.NoError(t, os.WriteFile(path, []byte("keep me"), 0o644))

		cmd := &InitCmd{}
		err := cmd.Run(&Global{}, &CLI{Config: path})
		require.ErrorContains(t, err, "already exists")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "keep me", string(data))
	})

	t.Run("force overwrites", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "autocommit.yaml")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

		cmd := &InitCmd{Force: true}
		require.NoError(t, cmd.Run(&Global{}, &CLI{Config: path}))

		_, err := config.Load(path)
		require.NoError(t, err)
	})
}

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# test\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	_, err = wt.Commit("initial commit", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func writeConfig(t *testing.T, repoPath string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "autocommit.yaml")
	cfgYAML := "repository:\n  path: " + repoPath + "\n" +
		"ollama:\n  enabled: false\n" +
		"daemon:\n  history_path: " + filepath.Join(t.TempDir(), "history.db") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))
	return cfgPath
}

func TestOnceCmd(t *testing.T) {
	t.Run("commits pending changes", func(t *testing.T) {
		if _, err := exec.LookPath("git"); err != nil {
			t.Skip("git binary not available")
		}
		repoPath := initRepo(t)
		require.NoError(t, os.WriteFile(filepath.Join(repoPath, "notes.txt"), []byte("hello\n"), 0o644))

		cmd := &OnceCmd{}
		require.NoError(t, cmd.Run(&Global{}, &CLI{Config: writeConfig(t, repoPath)}))

		repo, err := gogit.PlainOpen(repoPath)
		require.NoError(t, err)
		head, err := repo.Head()
		require.NoError(t, err)
		commit, err := repo.CommitObject(head.Hash())
		require.NoError(t, err)
		assert.NotEqual(t, "initial commit", commit.Message)
	})

	t.Run("clean tree exits successfully without committing", func(t *testing.T) {
		repoPath := initRepo(t)

		cmd := &OnceCmd{NoHistory: true}
		require.NoError(t, cmd.Run(&Global{}, &CLI{Config: writeConfig(t, repoPath)}))

		repo, err := gogit.PlainOpen(repoPath)
		require.NoError(t, err)
		iter, err := repo.Log(&gogit.LogOptions{})
		require.NoError(t, err)
		count := 0
		require.NoError(t, iter.ForEach(func(*object.Commit) error { count++; return nil }))
		assert.Equal(t, 1, count)
	})
}

func TestStatusCmd(t *testing.T) {
	t.Run("reports local repo and daemon status", func(t *testing.T) {
		repoPath := initRepo(t)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/status", r.URL.Path)
			_ = json.NewEncoder(w).Encode(responses.StatusResponse{Running: true})
		}))
		defer srv.Close()

		cmd := &StatusCmd{URL: srv.URL}
		require.NoError(t, cmd.Run(&Global{}, &CLI{Config: writeConfig(t, repoPath)}))
	})

	t.Run("succeeds without a reachable daemon", func(t *testing.T) {
		repoPath := initRepo(t)

		cmd := &StatusCmd{URL: "http://127.0.0.1:1"}
		require.NoError(t, cmd.Run(&Global{}, &CLI{Config: writeConfig(t, repoPath)}))
	})
}
