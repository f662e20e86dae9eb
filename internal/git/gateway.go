package git

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/autocommit/internal/config"
	"git.home.luguber.info/inful/autocommit/internal/errors"
	"git.home.luguber.info/inful/autocommit/internal/logfields"
)

// Gateway performs git operations against one working tree.
type Gateway struct {
	repoPath string
	repo     *gogit.Repository

	remote      string
	branch      string
	token       string
	authorName  string
	authorEmail string

	// pushFn is swapped in tests to avoid needing a network remote.
	pushFn func(*gogit.PushOptions) error

	// onPushRetry, when set, is invoked once per failed push attempt that
	// will be retried.
	onPushRetry func()
}

// SetPushRetryHook registers a callback fired before each push retry.
func (g *Gateway) SetPushRetryHook(fn func()) { g.onPushRetry = fn }

// Open opens the repository at the configured path. A missing or invalid
// repository is a fatal startup error.
func Open(cfg *config.Config) (*Gateway, error) {
	absPath, err := filepath.Abs(cfg.Repository.Path)
	if err != nil {
		return nil, errors.RepositoryNotFound(cfg.Repository.Path, err)
	}

	repo, err := gogit.PlainOpen(absPath)
	if err != nil {
		return nil, errors.RepositoryNotFound(absPath, err)
	}

	g := &Gateway{
		repoPath:    absPath,
		repo:        repo,
		remote:      cfg.Push.Remote,
		branch:      cfg.Repository.Branch,
		token:       cfg.Push.Token,
		authorName:  cfg.Commit.AuthorName,
		authorEmail: cfg.Commit.AuthorEmail,
	}
	g.pushFn = func(opts *gogit.PushOptions) error { return repo.Push(opts) }

	slog.Info("Git repository opened", logfields.Repository(absPath))
	return g, nil
}

// Path returns the absolute repository path.
func (g *Gateway) Path() string { return g.repoPath }

// CurrentBranch returns the short name of the checked-out branch.
func (g *Gateway) CurrentBranch() (string, error) {
	head, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return head.Name().Short(), nil
}

// HasChanges reports whether the working tree has staged, unstaged, or
// untracked changes.
func (g *Gateway) HasChanges() (bool, error) {
	wt, err := g.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("get worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("get status: %w", err)
	}
	return !status.IsClean(), nil
}

// StageAll stages every change in the working tree, including untracked files.
func (g *Gateway) StageAll() error {
	wt, err := g.repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}
	if err := wt.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return fmt.Errorf("stage all: %w", err)
	}
	return nil
}

// ChangedFiles returns the sorted list of paths with pending changes.
func (g *Gateway) ChangedFiles() ([]string, error) {
	wt, err := g.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	files := make([]string, 0, len(status))
	for path, fs := range status {
		if fs.Staging == gogit.Unmodified && fs.Worktree == gogit.Unmodified {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// Commit creates a commit with the given message and returns its hash.
func (g *Gateway) Commit(message string) (string, error) {
	wt, err := g.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("get worktree: %w", err)
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: g.author(),
	})
	if err != nil {
		return "", fmt.Errorf("create commit: %w", err)
	}

	slog.Info("Commit created",
		logfields.Hash(hash.String()[:8]),
		slog.String("message", message))
	return hash.String(), nil
}

func (g *Gateway) author() *object.Signature {
	name := g.authorName
	if name == "" {
		name = "autocommit"
	}
	email := g.authorEmail
	if email == "" {
		email = "autocommit@localhost"
	}
	return &object.Signature{Name: name, Email: email, When: time.Now()}
}

// LastCommitMessage returns the message of the HEAD commit.
func (g *Gateway) LastCommitMessage() (string, error) {
	head, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := g.repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("load HEAD commit: %w", err)
	}
	return commit.Message, nil
}

// CommitCount returns the number of commits reachable from HEAD.
func (g *Gateway) CommitCount() (int, error) {
	head, err := g.repo.Head()
	if err != nil {
		return 0, fmt.Errorf("resolve HEAD: %w", err)
	}
	iter, err := g.repo.Log(&gogit.LogOptions{From: head.Hash()})
	if err != nil {
		return 0, fmt.Errorf("walk history: %w", err)
	}
	defer iter.Close()

	count := 0
	err = iter.ForEach(func(*object.Commit) error {
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk history: %w", err)
	}
	return count, nil
}
