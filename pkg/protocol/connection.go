package protocol

import (
	"bufio"
	"net"
	"sync"

	"github.com/watchgraph/watchgraphd/pkg/bser"
	"github.com/watchgraph/watchgraphd/pkg/logging"
)

// outgoingQueueCapacity bounds the number of not-yet-written responses
// buffered per connection before a writer blocks. Unlike the pending-work
// queue (§5 "the per-client response deque is unbounded"), this package
// gives the deque a generous but finite capacity: an unbounded Go channel
// isn't possible, and a slow client that never drains its queue is exactly
// the case §7 calls out for disconnection rather than unbounded growth.
const outgoingQueueCapacity = 256

// Connection is one accepted client connection, implementing the §4.11
// per-connection state machine. Reading happens synchronously in Serve's
// caller goroutine; writing (both synchronous command responses and
// asynchronous subscription/log/state notifications) is serialized through
// a single writer goroutine reading off out. This replaces the
// specification's poll-driven reader-plus-ping-pipe design: a buffered Go
// channel already gives a dedicated writer goroutine exactly the wakeup a
// self-pipe would have simulated, with none of the raw fd-juggling.
type Connection struct {
	raw    net.Conn
	reader *bufio.Reader
	logger *logging.Logger

	mu          sync.Mutex
	encoding    bser.Encoding
	encodingSet bool
	logLevel    logging.Level

	out       chan bser.Value
	closed    chan struct{}
	closeOnce sync.Once
}

// NewConnection wraps an accepted net.Conn for use with Serve.
func NewConnection(raw net.Conn, logger *logging.Logger) *Connection {
	return &Connection{
		raw:    raw,
		reader: bufio.NewReader(raw),
		logger: logger,
		out:    make(chan bser.Value, outgoingQueueCapacity),
		closed: make(chan struct{}),
	}
}

// Serve runs the connection's read loop until the client disconnects, a
// framing error occurs, or Close is called from another goroutine (e.g. in
// response to "shutdown-server"). It blocks until the connection is fully
// torn down.
func (c *Connection) Serve(svc Service, registry *Registry) {
	go c.writeLoop()
	defer c.Close()

	for {
		pdu, err := bser.ReadPDU(c.reader)
		if err != nil {
			return
		}
		c.adoptEncoding(pdu.Encoding)
		c.dispatch(svc, registry, pdu.Value)

		select {
		case <-c.closed:
			return
		default:
		}
	}
}

// adoptEncoding records the connection's sticky encoding on its first PDU,
// per §6: "the choice of encoding is sticky per-connection, inferred from
// the first PDU sent by the client."
func (c *Connection) adoptEncoding(encoding bser.Encoding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.encodingSet {
		c.encoding = encoding
		c.encodingSet = true
	}
}

func (c *Connection) currentEncoding() bser.Encoding {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encoding
}

// LogLevel reports the minimum level of log line this connection currently
// wants forwarded to it.
func (c *Connection) LogLevel() logging.Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logLevel
}

// SetLogLevel adjusts LogLevel, for the "log-level" command.
func (c *Connection) SetLogLevel(level logging.Level) {
	c.mu.Lock()
	c.logLevel = level
	c.mu.Unlock()
}

// writeLoop drains out and writes each value as a framed PDU, implementing
// §4.11's WRITING state for both synchronous responses and asynchronous
// pushes enqueued via PushAsync.
func (c *Connection) writeLoop() {
	for {
		select {
		case value, ok := <-c.out:
			if !ok {
				return
			}
			if err := bser.WritePDU(c.raw, c.currentEncoding(), value); err != nil {
				c.Close()
				return
			}
		case <-c.closed:
			return
		}
	}
}

// enqueue schedules a native response value for writing, converting it to
// the bser.Value tree the writer loop expects. It never blocks past the
// connection closing.
func (c *Connection) enqueue(native map[string]interface{}) {
	select {
	case c.out <- bser.FromNative(native):
	case <-c.closed:
	}
}

// PushAsync delivers an out-of-band response (a subscription notification,
// a forwarded log line, a state-enter/state-leave broadcast, or a
// cancellation notice) to the client, independent of any in-flight
// synchronous dispatch. It is safe to call from any goroutine, which is how
// pkg/service's settle-hook and log-broadcast paths reach a connection that
// may be blocked in a read.
func (c *Connection) PushAsync(native map[string]interface{}) {
	c.enqueue(native)
}

// Close tears down the connection; it is idempotent and safe to call from
// any goroutine, including the writer loop itself on a write failure.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.raw.Close()
	})
	return err
}
