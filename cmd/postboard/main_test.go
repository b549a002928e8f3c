package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/hungpv1995/postboard/internal/config"
	"github.com/hungpv1995/postboard/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "postboard.yaml")
	yaml := "storage:\n  driver: sqlite\n  sqlite:\n    path: " + filepath.Join(dir, "board.db") + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version", "--config", writeConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "postboard version "+version)
}

func TestSnapshotImportThenExport(t *testing.T) {
	cfgPath := writeConfig(t)

	file := filepath.Join(t.TempDir(), "posts.json")
	require.NoError(t, os.WriteFile(file,
		[]byte(`[{"id": 2, "title": "b", "body": "y"}, {"id": 1, "title": "a", "body": "x"}]`), 0644))

	out, err := execute(t, "snapshot", "import", file, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 posts")

	out, err = execute(t, "snapshot", "export", "--config", cfgPath)
	require.NoError(t, err)

	posts, err := snapshot.Decode(out)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, 2, posts[0].ID)
	assert.Equal(t, "a", posts[1].Title)
}

func TestSnapshotImportRejectsInvalid(t *testing.T) {
	cfgPath := writeConfig(t)

	file := filepath.Join(t.TempDir(), "posts.json")
	require.NoError(t, os.WriteFile(file,
		[]byte(`[{"id": 1, "title": "a", "body": "x"}, {"id": 1, "title": "dup", "body": "y"}]`), 0644))

	_, err := execute(t, "snapshot", "import", file, "--config", cfgPath)
	assert.ErrorIs(t, err, snapshot.ErrInvalid)

	_, err = execute(t, "snapshot", "export", "--config", cfgPath)
	assert.ErrorContains(t, err, "no snapshot stored")
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: floppy\n"), 0644))

	_, err := execute(t, "version", "--config", path)
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestConfigInit(t *testing.T) {
	cfgPath := writeConfig(t)
	target := filepath.Join(t.TempDir(), "conf", "postboard.yaml")

	out, err := execute(t, "config", "init", target, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+target)

	loaded, err := config.Load(target)
	require.NoError(t, err)
	assert.Equal(t, config.DriverSQLite, loaded.Storage.Driver)
	assert.True(t, loaded.Board.PersistEmpty)

	_, err = execute(t, "config", "init", target, "--config", cfgPath)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "config", "init", target, "--force", "--config", cfgPath)
	assert.NoError(t, err)
}
