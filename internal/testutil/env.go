// Package testutil provides helpers for testing in isolation from the
// user's real configuration and installed tools.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv points every path the application resolves at isolated
// temp directories, so tests never touch:
//   - the user's real config under ~/.config
//   - installed helper binaries and the version ledger
//   - log files under $XDG_STATE_HOME
//
// Cleanup is handled by t.TempDir and t.Setenv. Returns the temp root
// for tests that need to inspect what was written.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmpDir, "state"))

	t.Setenv("YTDLGUI_BIN_DIR", filepath.Join(tmpDir, "data", "youtube-dl-gui", "bin"))
	t.Setenv("YTDLGUI_LOGGING_PATH", filepath.Join(tmpDir, "state", "youtube-dl-gui", "test.log"))

	// Keep a stray user proxy out of download candidate lists.
	t.Setenv("BINARIES_GH_PROXY", "")

	dirs := []string{
		filepath.Join(tmpDir, "config"),
		filepath.Join(tmpDir, "data"),
		filepath.Join(tmpDir, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return tmpDir
}
