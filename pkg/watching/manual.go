package watching

import "time"

// ManualWatcher is a Watcher whose notifications are injected directly by a
// test rather than produced by any OS backend, enabling deterministic tests
// of the crawl/notify loop without depending on real kernel event timing.
type ManualWatcher struct {
	flags      Flags
	buffer     *eventBuffer
	watchedDir map[string]bool
	watchedFl  map[string]bool
}

// NewManual returns a ManualWatcher reporting the given capability flags.
func NewManual(flags Flags) *ManualWatcher {
	return &ManualWatcher{
		flags:      flags,
		buffer:     newEventBuffer(),
		watchedDir: make(map[string]bool),
		watchedFl:  make(map[string]bool),
	}
}

// Inject makes paths available to the next ConsumeNotify/WaitNotify call,
// as if a real backend had just reported them.
func (w *ManualWatcher) Inject(paths ...string) {
	w.buffer.push(paths...)
}

func (w *ManualWatcher) Flags() Flags { return w.flags }

func (w *ManualWatcher) StartWatchDir(absolutePath string, now time.Time) (DirHandle, error) {
	w.watchedDir[absolutePath] = true
	return absolutePath, nil
}

func (w *ManualWatcher) StopWatchDir(handle DirHandle) error {
	if path, ok := handle.(string); ok {
		delete(w.watchedDir, path)
	}
	return nil
}

func (w *ManualWatcher) StartWatchFile(absolutePath string) (FileHandle, error) {
	w.watchedFl[absolutePath] = true
	return absolutePath, nil
}

func (w *ManualWatcher) StopWatchFile(handle FileHandle) error {
	if path, ok := handle.(string); ok {
		delete(w.watchedFl, path)
	}
	return nil
}

// WatchedDirs reports the directories currently registered via
// StartWatchDir, for test assertions.
func (w *ManualWatcher) WatchedDirs() []string {
	out := make([]string, 0, len(w.watchedDir))
	for p := range w.watchedDir {
		out = append(out, p)
	}
	return out
}

// WatchedFiles reports the files currently registered via StartWatchFile,
// for test assertions.
func (w *ManualWatcher) WatchedFiles() []string {
	out := make([]string, 0, len(w.watchedFl))
	for p := range w.watchedFl {
		out = append(out, p)
	}
	return out
}

func (w *ManualWatcher) ConsumeNotify() ([]string, bool) { return w.buffer.consume() }

func (w *ManualWatcher) WaitNotify(timeout time.Duration) bool { return w.buffer.wait(timeout) }

func (w *ManualWatcher) SignalThreads() { w.buffer.signalThreads() }

func (w *ManualWatcher) Terminate() error {
	w.buffer.signalThreads()
	return nil
}
