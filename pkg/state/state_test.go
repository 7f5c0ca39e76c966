package state

import (
	"bytes"
	"os"
	"testing"

	"github.com/watchgraph/watchgraphd/pkg/filesystem"
	"github.com/watchgraph/watchgraphd/pkg/logging"
)

// withTemporaryDataDirectory redirects filesystem.DataDirectoryPath to a
// temporary directory for the duration of the test and restores it
// afterward, so Load doesn't touch the real user's data directory.
func withTemporaryDataDirectory(t *testing.T) {
	t.Helper()
	original := filesystem.DataDirectoryPath
	filesystem.DataDirectoryPath = t.TempDir()
	t.Cleanup(func() {
		filesystem.DataDirectoryPath = original
	})
}

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.LevelError, &bytes.Buffer{})
}

// TestLoadEmpty tests that Load succeeds against a data directory with no
// persisted state file.
func TestLoadEmpty(t *testing.T) {
	withTemporaryDataDirectory(t)

	s, watched, err := Load(testLogger())
	if err != nil {
		t.Fatal("unable to load state:", err)
	}
	defer s.Close()

	if len(watched) != 0 {
		t.Errorf("expected no watched roots, got %d", len(watched))
	}
}

// TestAddRemoveSave tests that Add, Remove, and an explicit Save round-trip
// through a reload.
func TestAddRemoveSave(t *testing.T) {
	withTemporaryDataDirectory(t)

	s, _, err := Load(testLogger())
	if err != nil {
		t.Fatal("unable to load state:", err)
	}

	s.Add("/tmp/project-a", []string{"build"})
	s.Add("/tmp/project-b", nil)
	s.Remove("/tmp/project-b")

	if err := s.Save(); err != nil {
		t.Fatal("unable to save state:", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal("unable to close state:", err)
	}

	reloaded, watched, err := Load(testLogger())
	if err != nil {
		t.Fatal("unable to reload state:", err)
	}
	defer reloaded.Close()

	if len(watched) != 1 {
		t.Fatalf("expected 1 watched root after reload, got %d", len(watched))
	}
	if watched[0].Path != "/tmp/project-a" {
		t.Errorf("unexpected watched path: %s", watched[0].Path)
	}
	if len(watched[0].Triggers) != 1 || watched[0].Triggers[0] != "build" {
		t.Errorf("unexpected triggers: %v", watched[0].Triggers)
	}
}

// TestWatchedSnapshotIndependent tests that Watched returns an independent
// snapshot unaffected by subsequent Add/Remove calls.
func TestWatchedSnapshotIndependent(t *testing.T) {
	withTemporaryDataDirectory(t)

	s, _, err := Load(testLogger())
	if err != nil {
		t.Fatal("unable to load state:", err)
	}
	defer s.Close()

	s.Add("/tmp/project-a", nil)
	snapshot := s.Watched()
	s.Add("/tmp/project-c", nil)

	if len(snapshot) != 1 {
		t.Errorf("snapshot mutated by later Add call: %v", snapshot)
	}

	if _, err := os.Stat(filesystem.DataDirectoryPath); err != nil {
		t.Fatal("temporary data directory missing:", err)
	}
}
