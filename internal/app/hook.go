package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hoanghonghuy/gitmsg/internal/gitx"
)

const hookMarker = "# gitmsg hook"

// InstallHook writes a prepare-commit-msg hook into the repository at
// repoRoot that runs exe in hook mode. An existing hook is never replaced
// unless it was written by InstallHook.
func InstallHook(ctx context.Context, repoRoot, exe string) (string, error) {
	gitDir, err := gitx.GitDir(ctx, repoRoot)
	if err != nil {
		return "", err
	}

	hooksDir := filepath.Join(gitDir, "hooks")
	if err := os.MkdirAll(hooksDir, 0755); err != nil {
		return "", fmt.Errorf("create hooks dir: %w", err)
	}
	hookPath := filepath.Join(hooksDir, "prepare-commit-msg")

	if b, err := os.ReadFile(hookPath); err == nil {
		if !strings.Contains(string(b), hookMarker) {
			return "", fmt.Errorf("hook %s already exists, remove it first", hookPath)
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("read hook: %w", err)
	}

	if err := os.WriteFile(hookPath, []byte(hookScript(exe)), 0755); err != nil {
		return "", fmt.Errorf("write hook file: %w", err)
	}
	return hookPath, nil
}

// hookScript only runs for a plain "git commit": messages given with -m,
// merges, squashes and amends keep their text.
func hookScript(exe string) string {
	return fmt.Sprintf(`#!/bin/sh
%s
COMMIT_MSG_FILE=$1
COMMIT_SOURCE=$2

case "$COMMIT_SOURCE" in
  message|merge|squash|commit) exit 0 ;;
esac

exec "%s" --hook "$COMMIT_MSG_FILE" < /dev/tty > /dev/tty
`, hookMarker, exe)
}
