package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteRules creates a throwaway rules file in a temp dir and returns its absolute path.
func WriteRules(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path, err := filepath.Abs(filepath.Join(dir, "reglas.pl"))
	require.NoError(t, err, "Failed to resolve rules path")

	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "Failed to write rules file")
	return path
}
