package gitx

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

func Git(ctx context.Context, repoRoot string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", repoRoot}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %v failed: %w\n%s", args, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Client reads staged state from a repository through the git binary.
type Client struct{}

// StagedDiff returns `git diff --cached` output.
func (Client) StagedDiff(ctx context.Context, repoRoot string) (string, error) {
	return Git(ctx, repoRoot, "diff", "--cached")
}

// StagedFiles returns the staged paths, one per line.
func (Client) StagedFiles(ctx context.Context, repoRoot string) (string, error) {
	return Git(ctx, repoRoot, "diff", "--cached", "--name-only")
}

func (Client) CurrentBranch(ctx context.Context, repoRoot string) (string, error) {
	return CurrentBranch(ctx, repoRoot)
}

// CurrentBranch resolves HEAD to a branch name. On a repository without
// commits rev-parse fails, so the symbolic ref is used instead.
func CurrentBranch(ctx context.Context, repoRoot string) (string, error) {
	out, err := Git(ctx, repoRoot, "rev-parse", "--abbrev-ref", "HEAD")
	if err == nil {
		return strings.TrimSpace(out), nil
	}
	out, symErr := Git(ctx, repoRoot, "symbolic-ref", "--short", "HEAD")
	if symErr != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func Commit(ctx context.Context, repoRoot, message string) error {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return fmt.Errorf("commit message cannot be empty")
	}
	_, err := Git(ctx, repoRoot, "commit", "-m", msg)
	return err
}
