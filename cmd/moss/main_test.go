package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moss/internal/daemon"
	"moss/internal/logging"
)

func TestMain(m *testing.M) {
	logger = logging.Nop()
	os.Exit(m.Run())
}

func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	runErr := fn()
	w.Close()
	os.Stdout = old
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, runErr)
	return string(out)
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	flagRoot = dir
	defer func() { flagRoot = "" }()
	root, err := resolveRoot()
	require.NoError(t, err)
	assert.Equal(t, dir, root)

	flagRoot = filepath.Join(dir, "missing")
	_, err = resolveRoot()
	assert.Error(t, err)

	flagRoot = file
	_, err = resolveRoot()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestLoadConfigFlagOverride(t *testing.T) {
	flagNoDaemon = true
	defer func() { flagNoDaemon = false }()
	assert.True(t, loadConfig().NoDaemon)
}

func TestDirectPathQuery(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/dwim.py":       "def run():\n    pass\n",
		"docs/prior-art.md": "notes\n",
	})
	out := captureStdout(t, func() error {
		return runDirect(root, daemon.Request{Cmd: daemon.CmdPath, Query: "dwim"})
	})
	assert.Contains(t, out, "src/dwim.py")
}

func TestDirectSymbolsQuery(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.go": "package main\n\nfunc greet() string { return \"hi\" }\n",
	})
	out := captureStdout(t, func() error {
		return runDirect(root, daemon.Request{Cmd: daemon.CmdSymbols, File: "main.go"})
	})
	assert.Contains(t, out, "greet")
}

func TestDirectQueryErrorSurfaces(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": "package a\n"})
	err := runDirect(root, daemon.Request{Cmd: daemon.CmdSymbols, File: "missing.go"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.go")
}

func TestBarePathFallback(t *testing.T) {
	root := writeTree(t, map[string]string{
		"internal/daemon/client.go": "package daemon\n",
	})
	out := captureStdout(t, func() error {
		return runBarePath(root, "client")
	})
	assert.Contains(t, out, "internal/daemon/client.go")
}

func TestBarePathSymbolQueryForm(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/dwim.py": "def run():\n    pass\n",
	})
	out := captureStdout(t, func() error {
		return runBarePath(root, "dwim:run")
	})
	assert.Contains(t, out, "src/dwim.py")
}
