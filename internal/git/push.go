package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/autocommit/internal/logfields"
	"git.home.luguber.info/inful/autocommit/internal/retry"
)

// Push pushes the current branch to the configured remote, retrying failed
// attempts per the given policy. It returns true when the push (or any retry)
// succeeded. An already-up-to-date remote counts as success.
func (g *Gateway) Push(ctx context.Context, policy retry.Policy) bool {
	if g.token != "" {
		if err := g.ensureTokenRemote(); err != nil {
			slog.Warn("Remote credential rewrite failed", logfields.Error(err))
		}
	}

	maxAttempts := policy.MaxRetries + 1
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := g.pushFn(&gogit.PushOptions{RemoteName: g.remote})
		if err == nil || stderrors.Is(err, gogit.NoErrAlreadyUpToDate) {
			slog.Info("Push succeeded",
				slog.String("remote", g.remote),
				slog.Int("attempt", attempt))
			return true
		}

		slog.Warn("Push failed",
			slog.String("remote", g.remote),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			logfields.Error(err))

		if attempt == maxAttempts {
			break
		}
		if g.onPushRetry != nil {
			g.onPushRetry()
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(policy.Delay(attempt)):
		}
	}
	return false
}

// ensureTokenRemote injects the access token into the remote URL when the URL
// carries no credential of its own. The rewritten URL lives only in the
// repository's git config; the token itself is never logged.
func (g *Gateway) ensureTokenRemote() error {
	cfg, err := g.repo.Config()
	if err != nil {
		return fmt.Errorf("read repo config: %w", err)
	}
	remote, ok := cfg.Remotes[g.remote]
	if !ok || len(remote.URLs) == 0 {
		return fmt.Errorf("remote %q not configured", g.remote)
	}

	rewritten, changed, err := RewriteRemoteWithToken(remote.URLs[0], g.token)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	remote.URLs[0] = rewritten
	return g.repo.Storer.SetConfig(cfg)
}

// RewriteRemoteWithToken returns rawURL with the token embedded as the HTTP
// basic-auth user. URLs that already carry a credential, and non-HTTP URLs
// such as SSH remotes, are returned unchanged.
func RewriteRemoteWithToken(rawURL, token string) (string, bool, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return rawURL, false, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false, fmt.Errorf("parse remote URL: %w", err)
	}
	if u.User != nil {
		return rawURL, false, nil
	}
	u.User = url.User(token)
	return u.String(), true, nil
}
