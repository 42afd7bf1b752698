package app

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	out, err := exec.Command("git", "-C", dir, "init", "-q").CombinedOutput()
	require.NoError(t, err, string(out))
	return dir
}

func TestInstallHook(t *testing.T) {
	root := initRepo(t)
	ctx := context.Background()

	path, err := InstallHook(ctx, root, "/usr/local/bin/gitmsg")
	require.NoError(t, err)
	assert.Equal(t, "prepare-commit-msg", filepath.Base(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	script := string(b)
	assert.Contains(t, script, hookMarker)
	assert.Contains(t, script, `"/usr/local/bin/gitmsg" --hook "$COMMIT_MSG_FILE"`)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0100, "hook is executable")

	_, err = InstallHook(ctx, root, "/opt/gitmsg")
	require.NoError(t, err, "reinstalling over our own hook is allowed")
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"/opt/gitmsg"`)
}

func TestInstallHookKeepsForeignHook(t *testing.T) {
	root := initRepo(t)
	hooks := filepath.Join(root, ".git", "hooks")
	require.NoError(t, os.MkdirAll(hooks, 0755))
	foreign := filepath.Join(hooks, "prepare-commit-msg")
	require.NoError(t, os.WriteFile(foreign, []byte("#!/bin/sh\nexit 0\n"), 0755))

	_, err := InstallHook(context.Background(), root, "gitmsg")
	require.Error(t, err)

	b, err := os.ReadFile(foreign)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\nexit 0\n", string(b))
}
