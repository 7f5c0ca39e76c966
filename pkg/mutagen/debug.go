package mutagen

import (
	"os"
)

// DebugEnabled controls whether or not debugging is enabled. It is set
// automatically based on the WATCHGRAPH_DEBUG environment variable.
var DebugEnabled bool

func init() {
	// Check whether or not debugging should be enabled.
	DebugEnabled = os.Getenv("WATCHGRAPH_DEBUG") == "1"
}
