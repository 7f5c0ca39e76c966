package daemon

import (
	"sync"

	"github.com/watchgraph/watchgraphd/pkg/syncutil"
)

// Service is the daemon-wide shutdown signal. A single Service instance is
// shared between the connection handling a "shutdown-server" command and the
// daemon's main run loop.
type Service struct {
	// done is closed once termination has been requested.
	done chan struct{}
	// doneOnce guards closure of done.
	doneOnce sync.Once
	// requested lets callers check for a pending shutdown without needing to
	// select on Done, e.g. from a connection accept loop deciding whether to
	// keep accepting.
	requested syncutil.Marker
}

// NewService creates a new daemon service instance.
func NewService() *Service {
	return &Service{
		done: make(chan struct{}),
	}
}

// Done returns a channel that is closed after termination has been
// requested. Successive calls return the same channel.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Terminated reports whether termination has been requested, without
// blocking on Done.
func (s *Service) Terminated() bool {
	return s.requested.Marked()
}

// Terminate requests daemon termination. It is idempotent: only the first
// call closes Done.
func (s *Service) Terminate() {
	s.doneOnce.Do(func() {
		s.requested.Mark()
		close(s.done)
	})
}
