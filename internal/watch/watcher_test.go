package watch

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

// eventLog collects delivered events for polling.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) add(evs []Event) {
	l.mu.Lock()
	l.events = append(l.events, evs...)
	l.mu.Unlock()
}

func (l *eventLog) has(kind Kind, hash, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.ContainsFunc(l.events, func(e Event) bool {
		return e.Kind == kind && e.ProjectHash == hash && e.SessionID == id
	})
}

// startTestWatcherNoCleanup sets up a watcher on a fresh projects
// root containing one project directory "p", without registering
// t.Cleanup(w.Stop).
func startTestWatcherNoCleanup(
	t *testing.T, onChange func([]Event),
) (*Watcher, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "p"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	w, err := NewWatcher(root, 50*time.Millisecond, onChange)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if _, _, err := w.WatchRecursive(); err != nil {
		t.Fatalf("WatchRecursive: %v", err)
	}
	w.Start()
	return w, root
}

func startTestWatcher(
	t *testing.T, onChange func([]Event),
) (*Watcher, string) {
	t.Helper()
	w, root := startTestWatcherNoCleanup(t, onChange)
	t.Cleanup(func() { w.Stop() })
	return w, root
}

func waitWithTimeout(t *testing.T, ch <-chan struct{}, timeout time.Duration, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Fatal(msg)
	}
}

// pollUntil polls fn with the given interval until it returns true
// or the timeout expires.
func pollUntil(
	t *testing.T,
	timeout, interval time.Duration,
	msg string,
	fn func() bool,
) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(interval)
	}
	if fn() {
		return
	}
	t.Fatal(msg)
}

// newMockWatcher creates a Watcher struct for internal unit tests.
func newMockWatcher(
	root string, debounce time.Duration, onChange func([]Event),
) *Watcher {
	return &Watcher{
		root:     root,
		debounce: debounce,
		pending:  make(map[string]pendingChange),
		onChange: onChange,
		now:      time.Now,
	}
}

func setPending(w *Watcher, path string, op fsnotify.Op, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = pendingChange{op: op, at: at}
}

func getPendingCount(w *Watcher) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func pendingOp(w *Watcher, path string) (fsnotify.Op, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.pending[path]
	return c.op, ok
}

func TestWatcherReportsSessionLifecycle(t *testing.T) {
	var rec eventLog
	_, root := startTestWatcher(t, rec.add)

	path := filepath.Join(root, "p", "s1.jsonl")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	pollUntil(t, 5*time.Second, 20*time.Millisecond,
		"timed out waiting for session-added",
		func() bool { return rec.has(SessionAdded, "p", "s1") })

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.WriteString("{}\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()
	pollUntil(t, 5*time.Second, 20*time.Millisecond,
		"timed out waiting for session-changed",
		func() bool { return rec.has(SessionChanged, "p", "s1") })

	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	pollUntil(t, 5*time.Second, 20*time.Millisecond,
		"timed out waiting for session-removed",
		func() bool { return rec.has(SessionRemoved, "p", "s1") })
}

func TestWatcherTimestampsEvents(t *testing.T) {
	done := make(chan struct{})
	var once sync.Once
	var got Event
	before := time.Now().UnixMilli()

	_, root := startTestWatcher(t, func(evs []Event) {
		once.Do(func() {
			got = evs[0]
			close(done)
		})
	})
	if err := os.WriteFile(
		filepath.Join(root, "p", "s.jsonl"), []byte("{}"), 0o644,
	); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	waitWithTimeout(t, done, 5*time.Second, "timed out waiting for event")

	if got.Timestamp < before {
		t.Errorf("Timestamp = %d, want >= %d", got.Timestamp, before)
	}
}

func TestWatcherAutoWatchesNewProjects(t *testing.T) {
	var rec eventLog
	w, root := startTestWatcher(t, rec.add)

	proj := filepath.Join(root, "newproj")
	if err := os.Mkdir(proj, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	pollUntil(t, 5*time.Second, 10*time.Millisecond,
		"timed out waiting for watcher to add new directory",
		func() bool {
			return slices.Contains(w.watcher.WatchList(), proj)
		},
	)
	pollUntil(t, 5*time.Second, 20*time.Millisecond,
		"timed out waiting for project-changed",
		func() bool { return rec.has(ProjectChanged, "newproj", "") })

	if err := os.WriteFile(
		filepath.Join(proj, "x.jsonl"), []byte("{}"), 0o644,
	); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	pollUntil(t, 5*time.Second, 20*time.Millisecond,
		"timed out waiting for nested session event",
		func() bool { return rec.has(SessionAdded, "newproj", "x") })
}

func TestWatcherReportsSubagentWrites(t *testing.T) {
	var rec eventLog
	w, root := startTestWatcher(t, rec.add)

	dir := filepath.Join(root, "p")
	for _, name := range []string{"abc", "subagents"} {
		dir = filepath.Join(dir, name)
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatalf("Mkdir: %v", err)
		}
		pollUntil(t, 5*time.Second, 10*time.Millisecond,
			"timed out waiting for watcher to add "+name,
			func() bool {
				return slices.Contains(w.watcher.WatchList(), dir)
			},
		)
	}

	if err := os.WriteFile(
		filepath.Join(dir, "agent-1.jsonl"), []byte("{}\n"), 0o644,
	); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	pollUntil(t, 5*time.Second, 20*time.Millisecond,
		"timed out waiting for subagent session-changed",
		func() bool { return rec.has(SessionChanged, "p", "abc") })
}

func TestWatchRecursiveRespectsMaxDepth(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c", "d")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	w, err := NewWatcher(root, time.Second, func([]Event) {})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.watcher.Close()

	watched, unwatched, err := w.WatchRecursive()
	if err != nil {
		t.Fatalf("WatchRecursive: %v", err)
	}
	if watched != 4 || unwatched != 0 {
		t.Errorf("watched=%d unwatched=%d, want 4 and 0", watched, unwatched)
	}
	if slices.Contains(w.watcher.WatchList(), deep) {
		t.Errorf("%s is deeper than MaxDepth but was watched", deep)
	}
}

func TestWatchRecursiveMissingRoot(t *testing.T) {
	w, err := NewWatcher(
		filepath.Join(t.TempDir(), "missing"), time.Second,
		func([]Event) {},
	)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.watcher.Close()

	if _, _, err := w.WatchRecursive(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
}

func TestWatcherStopIdempotency(t *testing.T) {
	w, _ := startTestWatcherNoCleanup(t, func([]Event) {})
	w.Stop()
	w.Stop()

	w2, root := startTestWatcherNoCleanup(t, func([]Event) {})
	stressPath := filepath.Join(root, "p", "stress.jsonl")
	if err := os.WriteFile(stressPath, []byte("data"), 0o644); err != nil {
		t.Fatalf("stress write: %v", err)
	}
	pollUntil(t, 5*time.Second, 5*time.Millisecond,
		"timed out waiting for watcher to observe stress write",
		func() bool { return getPendingCount(w2) > 0 },
	)

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			w2.Stop()
		})
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	waitWithTimeout(t, done, 5*time.Second, "concurrent Stop() timed out")
}

func TestHandleEventIgnoresChmod(t *testing.T) {
	w := newMockWatcher("/r", 0, nil)
	w.handleEvent(fsnotify.Event{Name: "/r/p/a.jsonl", Op: fsnotify.Chmod})
	if n := getPendingCount(w); n != 0 {
		t.Fatalf("expected 0 pending, got %d", n)
	}
}

func TestHandleEventMergesCreateAndWrite(t *testing.T) {
	w := newMockWatcher("/r", 0, nil)
	w.handleEvent(fsnotify.Event{Name: "/r/p/a.jsonl", Op: fsnotify.Create})
	w.handleEvent(fsnotify.Event{Name: "/r/p/a.jsonl", Op: fsnotify.Write})

	op, ok := pendingOp(w, "/r/p/a.jsonl")
	if !ok || op != fsnotify.Create {
		t.Fatalf("pending op = %v (ok=%v), want CREATE", op, ok)
	}

	w.handleEvent(fsnotify.Event{Name: "/r/p/a.jsonl", Op: fsnotify.Remove})
	if op, _ := pendingOp(w, "/r/p/a.jsonl"); op != fsnotify.Remove {
		t.Fatalf("pending op = %v, want REMOVE", op)
	}
}

func TestFlushRespectsDebouncePeriod(t *testing.T) {
	var called atomic.Bool
	w := newMockWatcher("/r", 100*time.Millisecond,
		func([]Event) { called.Store(true) },
	)
	setPending(w, "/r/p/a.jsonl", fsnotify.Write, time.Now())

	w.flush()

	if called.Load() {
		t.Fatal("flush should not call onChange before debounce")
	}
	if n := getPendingCount(w); n != 1 {
		t.Fatalf("expected 1 pending, got %d", n)
	}
}

func TestFlushClassifiesAndDropsIrrelevant(t *testing.T) {
	var got []Event
	w := newMockWatcher("/r", 10*time.Millisecond,
		func(evs []Event) { got = evs },
	)
	old := time.Now().Add(-50 * time.Millisecond)
	setPending(w, "/r/p/b.jsonl", fsnotify.Remove, old)
	setPending(w, "/r/p/a.jsonl", fsnotify.Create, old)
	setPending(w, "/r/p/notes.txt", fsnotify.Write, old)

	w.flush()

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %+v", got)
	}
	if got[0].Kind != SessionAdded || got[0].SessionID != "a" {
		t.Errorf("got[0] = %+v, want session-added a", got[0])
	}
	if got[1].Kind != SessionRemoved || got[1].SessionID != "b" {
		t.Errorf("got[1] = %+v, want session-removed b", got[1])
	}
	if n := getPendingCount(w); n != 0 {
		t.Fatalf("expected 0 pending after flush, got %d", n)
	}
}

func TestFlushNoopWhenOnlyIrrelevant(t *testing.T) {
	var called atomic.Bool
	w := newMockWatcher("/r", 0, func([]Event) { called.Store(true) })
	setPending(w, "/r/p/notes.txt", fsnotify.Write, time.Now())

	w.flush()

	if called.Load() {
		t.Fatal("flush should not call onChange without classified events")
	}
}

func TestNewWatcher_NilOnChange(t *testing.T) {
	_, err := NewWatcher(t.TempDir(), time.Second, nil)
	if err == nil {
		t.Fatal("NewWatcher(nil) should return error")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Errorf("expected wrapped os.ErrInvalid, got %v", err)
	}
}
