package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolateConfig keeps the user's own config and DOCSIFT_* variables out
// of the test.
func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, name := range []string{
		"DOCSIFT_ROOT", "DOCSIFT_DATA_DIR", "DOCSIFT_STORE_BACKEND", "DOCSIFT_LOG_LEVEL",
		"DOCSIFT_INDEX_WORKERS", "DOCSIFT_SEARCH_LIMIT", "DOCSIFT_FOLLOW_SYMLINKS", "DOCSIFT_TRANSPORT",
	} {
		t.Setenv(name, "")
	}
}

// newDocRoot creates a document root with two text documents and one
// unsupported file.
func newDocRoot(t *testing.T) string {
	t.Helper()
	isolateConfig(t)

	root := t.TempDir()
	files := map[string]string{
		"annual_report.txt": "Annual report for 2023. Revenue grew in every region.",
		"notes.txt":         "Meeting notes: the annual budget was approved.",
		"photo.png":         "\x89PNG\r\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}
	return root
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--log-file", filepath.Join(t.TempDir(), "docsift.log")}, args...))
	err := cmd.ExecuteContext(ctx)
	return buf.String(), err
}
