package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wesm/claudesessions/internal/config"
	"github.com/wesm/claudesessions/internal/testjsonl"
)

const tsZero = "2024-01-01T00:00:00Z"

type fixture struct {
	t     *testing.T
	root  string
	cfg   config.Config
	store *Store
}

// newFixture creates a config directory with an empty projects
// root under a fresh temp dir.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := config.ForDir(filepath.Join(root, ".claude"))
	require.NoError(t, os.MkdirAll(cfg.ProjectsDir, 0o755))
	return &fixture{t: t, root: root, cfg: cfg, store: New(cfg)}
}

func (f *fixture) write(path, content string) string {
	f.t.Helper()
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *fixture) writeSession(hash, id, content string) string {
	f.t.Helper()
	return f.write(
		filepath.Join(f.cfg.ProjectsDir, hash, id+".jsonl"), content,
	)
}

// projectRoot creates a real project checkout directory.
func (f *fixture) projectRoot(name string) string {
	f.t.Helper()
	dir := filepath.Join(f.root, "code", name)
	require.NoError(f.t, os.MkdirAll(dir, 0o755))
	return dir
}

func setMtime(t *testing.T, path string, ms int64) {
	t.Helper()
	ts := time.UnixMilli(ms)
	require.NoError(t, os.Chtimes(path, ts, ts))
}

func skipIfRoot(t *testing.T) {
	t.Helper()
	if os.Getuid() == 0 {
		t.Skip("skipping: running as root bypasses permissions")
	}
}

func sessionContent(cwd, prompt string) string {
	return testjsonl.NewSessionBuilder().
		AddUser(tsZero, prompt, cwd).
		AddAssistant(tsZero, "claude-sonnet-4-5", "ok").
		String()
}
