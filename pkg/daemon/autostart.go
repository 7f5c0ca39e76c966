package daemon

import (
	"os"
)

// AutostartDisabled controls whether or not daemon autostart is disabled. It
// is set automatically based on the WATCHGRAPH_DISABLE_AUTOSTART
// environment variable.
var AutostartDisabled bool

func init() {
	// Check whether or not autostart should be disabled.
	AutostartDisabled = os.Getenv("WATCHGRAPH_DISABLE_AUTOSTART") == "1"
}
