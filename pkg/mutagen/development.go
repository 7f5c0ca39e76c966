package mutagen

import (
	"os"
)

// DevelopmentModeEnabled controls whether or not development mode is
// enabled. It is set automatically based on the WATCHGRAPH_DEVELOPMENT
// environment variable.
var DevelopmentModeEnabled bool

func init() {
	// Check whether or not development mode should be enabled.
	DevelopmentModeEnabled = os.Getenv("WATCHGRAPH_DEVELOPMENT") == "1"
}
