package mutagen

import (
	"fmt"
	"sort"
)

const (
	// VersionMajor represents the current major version.
	VersionMajor = 0
	// VersionMinor represents the current minor version.
	VersionMinor = 4
	// VersionPatch represents the current patch version.
	VersionPatch = 1
)

// Version is the formatted major.minor.patch version string reported by the
// "version" command.
var Version string

func init() {
	Version = fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
}

// capabilities enumerates the names supported by the "version" and
// "list-capabilities" commands. It is a static table rather than a
// registered-via-init side effect, since the set is small and fixed.
var capabilities = map[string]bool{
	"cmd-watch":               true,
	"cmd-watch-project":       true,
	"cmd-watch-del":           true,
	"cmd-watch-del-all":       true,
	"cmd-watch-list":          true,
	"cmd-clock":               true,
	"cmd-query":               true,
	"cmd-subscribe":           true,
	"cmd-unsubscribe":         true,
	"cmd-flush-subscriptions": true,
	"cmd-state-enter":         true,
	"cmd-state-leave":         true,
	"cmd-log":                 true,
	"cmd-log-level":           true,
	"cmd-get-config":          true,
	"cmd-shutdown-server":     true,
	"term-since":              true,
	"term-suffix":             true,
	"term-pcre":               true,
	"wildmatch":               true,
	"relative_root":           true,
}

// HasCapability reports whether the named capability is supported.
func HasCapability(name string) bool {
	return capabilities[name]
}

// Capabilities returns the full sorted list of supported capability names,
// for the "list-capabilities" command.
func Capabilities() []string {
	names := make([]string, 0, len(capabilities))
	for name := range capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckCapabilities reports support for each named capability and, if any
// name in required is unsupported, returns an error identifying the first
// one encountered.
func CheckCapabilities(required, optional []string) (map[string]bool, error) {
	result := make(map[string]bool, len(required)+len(optional))
	for _, name := range required {
		if !HasCapability(name) {
			return nil, fmt.Errorf("unsupported required capability: %s", name)
		}
		result[name] = true
	}
	for _, name := range optional {
		result[name] = HasCapability(name)
	}
	return result, nil
}
