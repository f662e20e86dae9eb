package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// maxDiffBytes caps the diff text handed to message generation. Larger diffs
// are truncated, not rejected.
const maxDiffBytes = 4 * 1024

// StagedDiff returns the unified diff of the index against HEAD, truncated to
// maxDiffBytes. go-git has no porcelain diff for the index, so this shells out
// to the git binary.
func (g *Gateway) StagedDiff(ctx context.Context) (string, error) {
	out, err := g.runGit(ctx, "diff", "--cached")
	if err != nil {
		return "", err
	}
	if len(out) > maxDiffBytes {
		out = out[:maxDiffBytes]
	}
	return out, nil
}

func (g *Gateway) runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return stdout.String(), nil
}
