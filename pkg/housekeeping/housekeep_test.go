package housekeeping

import (
	"bytes"
	"testing"

	"github.com/watchgraph/watchgraphd/pkg/logging"
)

// TestHousekeep tests that Housekeep succeeds without panicking.
func TestHousekeep(_ *testing.T) {
	logger := logging.NewLogger(logging.LevelError, &bytes.Buffer{})
	Housekeep(logger)
}

// TestHousekeepState tests that housekeepState succeeds without panicking.
func TestHousekeepState(_ *testing.T) {
	logger := logging.NewLogger(logging.LevelError, &bytes.Buffer{})
	housekeepState(logger)
}

// TestHousekeepLogs tests that housekeepLogs succeeds without panicking.
func TestHousekeepLogs(_ *testing.T) {
	logger := logging.NewLogger(logging.LevelError, &bytes.Buffer{})
	housekeepLogs(logger)
}

// TestIsOrphanedTemporaryFile verifies the "*.tmp-*" marker match used to
// identify leftovers from an interrupted MarshalAndSave call.
func TestIsOrphanedTemporaryFile(t *testing.T) {
	cases := map[string]bool{
		"roots.json.tmp-123456": true,
		"roots.json":            false,
		"tmp-123456":            false,
		".tmp-":                 true,
	}
	for name, expected := range cases {
		if got := isOrphanedTemporaryFile(name); got != expected {
			t.Errorf("isOrphanedTemporaryFile(%q) = %v, expected %v", name, got, expected)
		}
	}
}
