package mutagen

import (
	"fmt"
	"testing"
)

// TestVersionFormat tests that Version is formatted as expected.
func TestVersionFormat(t *testing.T) {
	expected := fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
	if Version != expected {
		t.Errorf("Version = %q, expected %q", Version, expected)
	}
}

// TestCapabilities tests that Capabilities returns a sorted, non-empty list
// consistent with HasCapability.
func TestCapabilities(t *testing.T) {
	names := Capabilities()
	if len(names) == 0 {
		t.Fatal("no capabilities reported")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("capability list not sorted: %q before %q", names[i-1], names[i])
		}
	}
	for _, name := range names {
		if !HasCapability(name) {
			t.Errorf("HasCapability(%q) = false, expected true", name)
		}
	}
	if HasCapability("nonexistent-capability") {
		t.Error("HasCapability reported support for a nonexistent capability")
	}
}

// TestCheckCapabilities tests CheckCapabilities against a mix of required,
// optional, and unsupported names.
func TestCheckCapabilities(t *testing.T) {
	if _, err := CheckCapabilities([]string{"cmd-watch"}, nil); err != nil {
		t.Fatal("unexpected error for supported required capability:", err)
	}

	if _, err := CheckCapabilities([]string{"nonexistent-capability"}, nil); err == nil {
		t.Error("expected error for unsupported required capability")
	}

	result, err := CheckCapabilities(nil, []string{"cmd-watch", "nonexistent-capability"})
	if err != nil {
		t.Fatal("unexpected error for optional capabilities:", err)
	}
	if !result["cmd-watch"] {
		t.Error("expected cmd-watch to be reported as supported")
	}
	if result["nonexistent-capability"] {
		t.Error("expected nonexistent-capability to be reported as unsupported")
	}
}
