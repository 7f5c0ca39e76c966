package protocol

import (
	"bufio"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/logging"
	"github.com/watchgraph/watchgraphd/pkg/query"
)

// fakeService is a minimal Service implementation recording the calls made
// against it, for exercising the dispatcher without a real root table.
type fakeService struct {
	watched      map[string]bool
	poisonReason error
	shutdownCalled bool
}

func newFakeService() *fakeService {
	return &fakeService{watched: make(map[string]bool)}
}

func (s *fakeService) SockName() string { return "/tmp/watchgraphd.sock" }

func (s *fakeService) Watch(path string) (string, string, error) {
	s.watched[path] = true
	return path, "inotify", nil
}

func (s *fakeService) WatchProject(path string) (string, string, string, error) {
	return path, "inotify", "", nil
}

func (s *fakeService) WatchDel(path string) bool {
	existed := s.watched[path]
	delete(s.watched, path)
	return existed
}

func (s *fakeService) WatchDelAll() []string {
	var out []string
	for p := range s.watched {
		out = append(out, p)
	}
	s.watched = make(map[string]bool)
	return out
}

func (s *fakeService) WatchList() []string {
	var out []string
	for p := range s.watched {
		out = append(out, p)
	}
	return out
}

func (s *fakeService) Clock(path string, syncTimeout time.Duration) (string, error) {
	return "c:0:0:0:1", nil
}

func (s *fakeService) Query(path string, spec map[string]interface{}) (*query.Result, string, error) {
	return &query.Result{Clock: "c:0:0:0:1", Files: []map[string]interface{}{
		{"name": "a.txt"},
	}}, "", nil
}

func (s *fakeService) Subscribe(path, name string, spec map[string]interface{}, conn *Connection) (string, error) {
	return "c:0:0:0:1", nil
}

func (s *fakeService) Unsubscribe(path, name string, conn *Connection) (bool, error) {
	return true, nil
}

func (s *fakeService) FlushSubscriptions(path string, names []string, syncTimeout time.Duration) ([]string, []string, []string, error) {
	return names, nil, nil, nil
}

func (s *fakeService) StateEnter(path, name string, metadata interface{}, syncTimeout time.Duration, conn *Connection) error {
	return nil
}

func (s *fakeService) StateLeave(path, name string, metadata interface{}, syncTimeout time.Duration, conn *Connection) error {
	return nil
}

func (s *fakeService) SetConnLogLevel(conn *Connection, level logging.Level) {}

func (s *fakeService) EmitLog(level logging.Level, text string) {}

func (s *fakeService) GetConfig(path string) (map[string]interface{}, error) {
	return map[string]interface{}{"settle": 20}, nil
}

func (s *fakeService) DebugRecrawl(path string) error { return nil }

func (s *fakeService) DebugShowCursors(path string) (map[string]uint32, error) {
	return map[string]uint32{"default": 1}, nil
}

func (s *fakeService) DebugAgeOut(path string, seconds int) error { return nil }

func (s *fakeService) DebugPoison(path string) error {
	s.poisonReason = fmt.Errorf("debug-poison")
	return nil
}

func (s *fakeService) PoisonReason() error { return s.poisonReason }

func (s *fakeService) Shutdown() { s.shutdownCalled = true }

// serveOnPipe starts a Connection serving svc over one end of a net.Pipe
// and returns the other end, ready for a test to write requests to and
// read responses from as newline-delimited JSON.
func serveOnPipe(t *testing.T, svc Service) (client net.Conn, clientReader *bufio.Reader) {
	t.Helper()
	serverEnd, clientEnd := net.Pipe()
	logger := logging.NewLogger(logging.LevelError, nil)
	conn := NewConnection(serverEnd, logger)
	registry := DefaultRegistry()
	go conn.Serve(svc, registry)
	t.Cleanup(func() {
		clientEnd.Close()
	})
	return clientEnd, bufio.NewReader(clientEnd)
}

func sendJSON(t *testing.T, conn net.Conn, command string) {
	t.Helper()
	if _, err := conn.Write([]byte(command + "\n")); err != nil {
		t.Fatal("unable to write command:", err)
	}
}

func readJSONLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatal("unable to read response:", err)
	}
	return line
}

// TestVersionCommand tests that "version" returns the daemon's version
// string and supports capability negotiation.
func TestVersionCommand(t *testing.T) {
	svc := newFakeService()
	client, reader := serveOnPipe(t, svc)

	sendJSON(t, client, `["version", {"required": ["cmd-watch"]}]`)
	line := readJSONLine(t, reader)
	if !contains(line, `"version"`) || !contains(line, `"capabilities"`) {
		t.Errorf("unexpected version response: %s", line)
	}
}

// TestListCapabilitiesCommand tests that "list-capabilities" reports a
// non-empty list.
func TestListCapabilitiesCommand(t *testing.T) {
	svc := newFakeService()
	client, reader := serveOnPipe(t, svc)

	sendJSON(t, client, `["list-capabilities"]`)
	line := readJSONLine(t, reader)
	if !contains(line, `"capabilities"`) {
		t.Errorf("unexpected list-capabilities response: %s", line)
	}
}

// TestWatchCommand tests that "watch" registers the path with the service
// and echoes it back.
func TestWatchCommand(t *testing.T) {
	svc := newFakeService()
	client, reader := serveOnPipe(t, svc)

	sendJSON(t, client, `["watch", "/tmp/project"]`)
	line := readJSONLine(t, reader)
	if !contains(line, `"watch":"/tmp/project"`) {
		t.Errorf("unexpected watch response: %s", line)
	}
	if !svc.watched["/tmp/project"] {
		t.Error("expected service to record the watched path")
	}
}

// TestUnknownCommand tests that dispatching an unregistered command name
// produces an {error} response rather than closing the connection.
func TestUnknownCommand(t *testing.T) {
	svc := newFakeService()
	client, reader := serveOnPipe(t, svc)

	sendJSON(t, client, `["not-a-real-command"]`)
	line := readJSONLine(t, reader)
	if !contains(line, `"error"`) {
		t.Errorf("expected error response, got: %s", line)
	}

	// The connection should remain usable for subsequent commands.
	sendJSON(t, client, `["list-capabilities"]`)
	line = readJSONLine(t, reader)
	if !contains(line, `"capabilities"`) {
		t.Errorf("connection did not survive an unknown command: %s", line)
	}
}

// TestPoisonWhitelist tests that once the service reports a poison reason,
// a non-whitelisted command fails while "version" keeps working.
func TestPoisonWhitelist(t *testing.T) {
	svc := newFakeService()
	svc.poisonReason = fmt.Errorf("root unmounted")
	client, reader := serveOnPipe(t, svc)

	sendJSON(t, client, `["watch", "/tmp/project"]`)
	line := readJSONLine(t, reader)
	if !contains(line, `"error"`) {
		t.Errorf("expected watch to fail while poisoned, got: %s", line)
	}

	sendJSON(t, client, `["version"]`)
	line = readJSONLine(t, reader)
	if contains(line, `"error"`) {
		t.Errorf("expected version to remain available while poisoned, got: %s", line)
	}
}

// TestQueryCommand tests that "query" projects the service's result into
// the expected response shape.
func TestQueryCommand(t *testing.T) {
	svc := newFakeService()
	client, reader := serveOnPipe(t, svc)

	sendJSON(t, client, `["query", "/tmp/project", {"fields": ["name"]}]`)
	line := readJSONLine(t, reader)
	if !contains(line, `"is_fresh_instance"`) || !contains(line, `"files"`) {
		t.Errorf("unexpected query response: %s", line)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}
