package housekeeping

import (
	"context"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/logging"
)

const (
	// housekeepingInterval is the interval at which housekeeping will be
	// invoked by the daemon.
	housekeepingInterval = 24 * time.Hour
)

// HousekeepRegularly provides regular housekeeping operations at a standard
// interval. It is designed to be run as a background Goroutine in the
// daemon process. It will terminate when the provided context is
// cancelled.
func HousekeepRegularly(ctx context.Context, logger *logging.Logger) {
	logger.Info("Performing initial housekeeping")
	Housekeep(logger)

	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info("Performing regular housekeeping")
			Housekeep(logger)
		}
	}
}
