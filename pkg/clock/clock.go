// Package clock implements the per-root logical clock: a monotonically
// increasing tick counter identified by process start time, process id, and
// root incarnation number, along with the named-cursor and clock-string
// encoding machinery built on top of it.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Clock tracks a single root's tick counter and identity. Reading Ticks
// requires only a read lock in the surrounding root lock; Bump requires the
// write lock. Clock itself serializes concurrent access with its own mutex
// so it remains safe to use independent of that larger lock.
type Clock struct {
	mu sync.Mutex

	start      int64
	pid        int32
	rootNumber int32

	ticks         uint32
	lastAgeOutTick uint32

	cursors map[string]uint32
}

// New creates a clock for a freshly started root incarnation. start is the
// process start timestamp (unix seconds), pid is the process id, and
// rootNumber identifies this particular incarnation of the root (so that a
// daemon restart watching the same path is distinguishable from the prior
// incarnation).
func New(start int64, pid int32, rootNumber int32) *Clock {
	return &Clock{
		start:      start,
		pid:        pid,
		rootNumber: rootNumber,
		ticks:      1,
		cursors:    make(map[string]uint32),
	}
}

// Ticks returns the current tick value.
func (c *Clock) Ticks() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Bump increments the tick counter, as required whenever a file's state
// changes, a named cursor is read, or pending_trigger_tick changes, and
// returns the new value.
func (c *Clock) Bump() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	return c.ticks
}

// LastAgeOutTick returns the tick at which age-out last ran.
func (c *Clock) LastAgeOutTick() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastAgeOutTick
}

// SetLastAgeOutTick records the tick at which an age-out sweep completed.
func (c *Clock) SetLastAgeOutTick(tick uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastAgeOutTick = tick
}

// String renders the current clock as an opaque clock-string of the form
// "c:<start>:<pid>:<root-number>:<ticks>".
func (c *Clock) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return formatClockString(c.start, c.pid, c.rootNumber, c.ticks)
}

// StringAt renders a clock-string for an arbitrary tick value under this
// clock's identity, used to project a file's oclock/cclock fields (which
// record the tick at the time of the file's own last change or creation,
// not the clock's current tick).
func (c *Clock) StringAt(ticks uint32) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return formatClockString(c.start, c.pid, c.rootNumber, ticks)
}

func formatClockString(start int64, pid, rootNumber int32, ticks uint32) string {
	return fmt.Sprintf("c:%d:%d:%d:%d", start, pid, rootNumber, ticks)
}

// Spec is a parsed clock-spec: either an opaque clock tuple, a wall-clock
// timestamp, or a named cursor. Exactly one of the three forms is
// populated, indicated by Kind.
type Spec struct {
	Kind SpecKind

	// Clock fields, valid when Kind == SpecClock.
	Start      int64
	PID        int32
	RootNumber int32
	Ticks      uint32

	// WallClock is valid when Kind == SpecWallClock: a unix-second
	// timestamp below which changes are considered already seen.
	WallClock int64

	// CursorName is valid when Kind == SpecNamedCursor.
	CursorName string
}

// SpecKind distinguishes the three clock-spec forms accepted in `since`.
type SpecKind int

const (
	SpecClock SpecKind = iota
	SpecWallClock
	SpecNamedCursor
)

// ParseSpec parses a clock-spec string as accepted in a query's `since`
// term: a clock-string "c:<start>:<pid>:<root>:<ticks>", a bare integer
// (wall-clock seconds), or "n:<name>" for a named cursor.
func ParseSpec(s string) (Spec, error) {
	if strings.HasPrefix(s, "c:") {
		parts := strings.Split(s, ":")
		if len(parts) != 5 {
			return Spec{}, fmt.Errorf("clock: malformed clock-string %q", s)
		}
		start, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return Spec{}, fmt.Errorf("clock: malformed start time in %q: %w", s, err)
		}
		pid, err := strconv.ParseInt(parts[2], 10, 32)
		if err != nil {
			return Spec{}, fmt.Errorf("clock: malformed pid in %q: %w", s, err)
		}
		rootNumber, err := strconv.ParseInt(parts[3], 10, 32)
		if err != nil {
			return Spec{}, fmt.Errorf("clock: malformed root number in %q: %w", s, err)
		}
		ticks, err := strconv.ParseUint(parts[4], 10, 32)
		if err != nil {
			return Spec{}, fmt.Errorf("clock: malformed ticks in %q: %w", s, err)
		}
		return Spec{
			Kind:       SpecClock,
			Start:      start,
			PID:        int32(pid),
			RootNumber: int32(rootNumber),
			Ticks:      uint32(ticks),
		}, nil
	}
	if strings.HasPrefix(s, "n:") {
		name := strings.TrimPrefix(s, "n:")
		if name == "" {
			return Spec{}, fmt.Errorf("clock: empty named cursor in %q", s)
		}
		return Spec{Kind: SpecNamedCursor, CursorName: name}, nil
	}
	seconds, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Spec{}, fmt.Errorf("clock: unrecognized clock-spec %q", s)
	}
	return Spec{Kind: SpecWallClock, WallClock: seconds}, nil
}

// Compare evaluates spec (which must be Kind == SpecClock) against the
// clock's current identity, reporting whether it is a fresh-instance
// comparison: the clock tuple refers to a different process incarnation
// (start, pid, or root number mismatch) or the remote ticks precede the
// root's last age-out tick, either of which means the remote side cannot
// trust incremental results and must be told so explicitly.
func (c *Clock) Compare(spec Spec) (freshInstance bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if spec.Kind != SpecClock {
		return false
	}
	if spec.Start != c.start || spec.PID != c.pid || spec.RootNumber != c.rootNumber {
		return true
	}
	if spec.Ticks < c.lastAgeOutTick {
		return true
	}
	return false
}

// Cursor atomically reads the current value stored for the named cursor
// (0 if never seen before) and advances it to ticks+1, bumping the root's
// own tick counter by one in the same step. This guarantees a cursor never
// returns the same result set twice: the next read observes a tick value
// strictly greater than what was just returned.
func (c *Clock) Cursor(name string) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.cursors[name]
	c.ticks++
	c.cursors[name] = c.ticks
	return previous
}

// Cursors returns a snapshot of every named cursor currently recorded and
// the tick it last observed, for "debug-show-cursors".
func (c *Clock) Cursors() map[string]uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint32, len(c.cursors))
	for name, tick := range c.cursors {
		out[name] = tick
	}
	return out
}

// ForgetCursorsBefore removes named-cursor entries pointing to a tick
// strictly before threshold, as performed during age-out so stale cursor
// names don't keep dead history pinned in memory.
func (c *Clock) ForgetCursorsBefore(threshold uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, tick := range c.cursors {
		if tick < threshold {
			delete(c.cursors, name)
		}
	}
}
