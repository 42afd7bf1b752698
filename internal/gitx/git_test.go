package gitx

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
	t.Setenv("GIT_AUTHOR_NAME", "Test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "Test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")

	dir := t.TempDir()
	ctx := context.Background()
	_, err := Git(ctx, dir, "init", "-q")
	require.NoError(t, err)
	_, err = Git(ctx, dir, "symbolic-ref", "HEAD", "refs/heads/feature/stream")
	require.NoError(t, err)
	return dir
}

func TestStagedStateAndCommit(t *testing.T) {
	dir := newRepo(t)
	ctx := context.Background()
	var c Client

	diff, err := c.StagedDiff(ctx, dir)
	require.NoError(t, err)
	assert.Empty(t, diff)

	branch, err := c.CurrentBranch(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, "feature/stream", branch, "branch resolves before the first commit")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello\n"), 0644))
	_, err = Git(ctx, dir, "add", "a.txt")
	require.NoError(t, err)

	diff, err = c.StagedDiff(ctx, dir)
	require.NoError(t, err)
	assert.Contains(t, diff, "+hello")

	files, err := c.StagedFiles(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, "a.txt\n", files)

	assert.Error(t, Commit(ctx, dir, "   "))
	require.NoError(t, Commit(ctx, dir, "feat: add a.txt\n"))

	branch, err = CurrentBranch(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, "feature/stream", branch)

	diff, err = c.StagedDiff(ctx, dir)
	require.NoError(t, err)
	assert.Empty(t, diff)

	subject, err := Git(ctx, dir, "log", "-1", "--pretty=%s")
	require.NoError(t, err)
	assert.Equal(t, "feat: add a.txt\n", subject)
}

func TestResolveRepoRootFromSubdir(t *testing.T) {
	dir := newRepo(t)
	sub := filepath.Join(dir, "pkg", "deep")
	require.NoError(t, os.MkdirAll(sub, 0755))

	root, err := ResolveRepoRoot(context.Background(), sub)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	gitDir, err := GitDir(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, ".git", filepath.Base(gitDir))
	assert.Equal(t, filepath.Base(dir), RepoNameFromRoot(root))
}
