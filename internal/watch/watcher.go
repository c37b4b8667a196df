package watch

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// MaxDepth is how many directory levels below the root are
// watched: <hash>/<session>/<subagents>.
const MaxDepth = 3

type pendingChange struct {
	op fsnotify.Op
	at time.Time
}

// Watcher uses fsnotify to watch the projects root and delivers
// classified events in batches after a per-path debounce.
type Watcher struct {
	root     string
	onChange func(events []Event)
	watcher  *fsnotify.Watcher
	debounce time.Duration
	pending  map[string]pendingChange
	mu       sync.Mutex
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewWatcher creates a watcher for root that calls onChange once
// a path has been quiet for the debounce period.
func NewWatcher(
	root string, debounce time.Duration, onChange func(events []Event),
) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback is nil: %w", os.ErrInvalid)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:     filepath.Clean(root),
		onChange: onChange,
		watcher:  fsw,
		debounce: debounce,
		pending:  make(map[string]pendingChange),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	return w, nil
}

// WatchRecursive adds the root and every directory up to MaxDepth
// below it to the watch list. Returns the number of directories
// watched and unwatched (failed to add).
func (w *Watcher) WatchRecursive() (watched int, unwatched int, err error) {
	err = filepath.WalkDir(w.root,
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == w.root {
					return err
				}
				return nil // skip inaccessible dirs
			}
			if !d.IsDir() {
				return nil
			}
			if depth(w.root, path) > MaxDepth {
				return fs.SkipDir
			}
			if addErr := w.watcher.Add(path); addErr != nil {
				unwatched++
			} else {
				watched++
			}
			return nil
		})
	return watched, unwatched, err
}

// Start begins processing file events in a goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop stops the watcher and waits for it to finish.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		<-w.done
		w.watcher.Close()
	})
}

func (w *Watcher) loop() {
	defer close(w.done)
	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error: %v", err)

		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) tick() time.Duration {
	if w.debounce <= 0 {
		return 10 * time.Millisecond
	}
	return w.debounce
}

// handleEvent auto-watches newly created directories and records
// the change as pending.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	const relevant = fsnotify.Create | fsnotify.Write |
		fsnotify.Remove | fsnotify.Rename
	if event.Op&relevant == 0 {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		w.watchIfDir(event.Name)
	}

	w.mu.Lock()
	prev, seen := w.pending[event.Name]
	w.pending[event.Name] = pendingChange{
		op: mergeOp(prev.op, event.Op, seen),
		at: w.now(),
	}
	w.mu.Unlock()
}

// mergeOp folds a new operation into a pending one. A file that
// was created and then written within one debounce window is
// still reported as created.
func mergeOp(prev, next fsnotify.Op, seen bool) fsnotify.Op {
	if seen && prev.Has(fsnotify.Create) && next == fsnotify.Write {
		return prev
	}
	return next
}

// watchIfDir adds a path to the watch list if it is a directory
// within MaxDepth of the root.
func (w *Watcher) watchIfDir(path string) {
	if d := depth(w.root, path); d < 0 || d > MaxDepth {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	_ = w.watcher.Add(path)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}

	now := w.now()
	ready := make(map[string]fsnotify.Op)
	for path, c := range w.pending {
		if now.Sub(c.at) >= w.debounce {
			ready[path] = c.op
		}
	}

	for path := range ready {
		delete(w.pending, path)
	}
	w.mu.Unlock()

	paths := make([]string, 0, len(ready))
	for path := range ready {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var events []Event
	ts := now.UnixMilli()
	for _, path := range paths {
		ev, ok := Classify(w.root, path, ready[path])
		if !ok {
			continue
		}
		ev.Timestamp = ts
		events = append(events, ev)
	}

	if len(events) > 0 {
		log.Printf("watcher: %d change(s)", len(events))
		w.onChange(events)
	}
}
