// Package watch turns filesystem activity under the Claude Code
// projects root into coarse change events for subscribers.
package watch

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Kind is the type of a change event.
type Kind string

const (
	SessionAdded   Kind = "session-added"
	SessionChanged Kind = "session-changed"
	SessionRemoved Kind = "session-removed"
	ProjectChanged Kind = "project-changed"
)

// Event is one change notification. Timestamp is milliseconds
// since the epoch at the time the change was emitted.
type Event struct {
	Kind        Kind   `json:"type"`
	ProjectHash string `json:"projectHash"`
	SessionID   string `json:"sessionId,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

const (
	transcriptExt = ".jsonl"
	memoryDir     = "memory"
)

// Classify maps a filesystem change under root to an event.
//
//   - <hash>/<id>.jsonl: create, write, and remove or rename map
//     to session-added, session-changed, and session-removed.
//   - <hash> created, removed, or renamed: project-changed.
//   - <hash>/memory/*.md changed: project-changed.
//   - <hash>/<id>/.../*.jsonl (subagent records) changed:
//     session-changed for <id>.
//
// Everything else is ignored. The Timestamp is left zero.
func Classify(root, path string, op fsnotify.Op) (Event, bool) {
	rel, ok := isUnder(root, path)
	if !ok {
		return Event{}, false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	hash := parts[0]

	switch {
	case len(parts) == 1:
		if op.Has(fsnotify.Create) || op.Has(fsnotify.Remove) ||
			op.Has(fsnotify.Rename) {
			return Event{Kind: ProjectChanged, ProjectHash: hash}, true
		}

	case len(parts) == 2 && strings.HasSuffix(parts[1], transcriptExt):
		id := strings.TrimSuffix(parts[1], transcriptExt)
		if id == "" {
			return Event{}, false
		}
		ev := Event{ProjectHash: hash, SessionID: id}
		switch {
		case op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename):
			ev.Kind = SessionRemoved
		case op.Has(fsnotify.Create):
			ev.Kind = SessionAdded
		case op.Has(fsnotify.Write):
			ev.Kind = SessionChanged
		default:
			return Event{}, false
		}
		return ev, true

	case len(parts) == 3 && parts[1] == memoryDir &&
		filepath.Ext(parts[2]) == ".md":
		if op&(fsnotify.Create|fsnotify.Write|
			fsnotify.Remove|fsnotify.Rename) != 0 {
			return Event{Kind: ProjectChanged, ProjectHash: hash}, true
		}

	case len(parts) >= 3 && parts[1] != memoryDir &&
		strings.HasSuffix(parts[len(parts)-1], transcriptExt):
		if op&(fsnotify.Create|fsnotify.Write|
			fsnotify.Remove|fsnotify.Rename) != 0 {
			return Event{
				Kind:        SessionChanged,
				ProjectHash: hash,
				SessionID:   parts[1],
			}, true
		}
	}
	return Event{}, false
}

// isUnder checks whether path is strictly inside dir after
// cleaning both paths. Returns the relative path on success.
func isUnder(dir, path string) (string, bool) {
	dir = filepath.Clean(dir)
	path = filepath.Clean(path)
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return "", false
	}
	sep := string(filepath.Separator)
	if rel == "." || rel == ".." ||
		strings.HasPrefix(rel, ".."+sep) {
		return "", false
	}
	return rel, true
}

// depth returns how many levels below root path is; root itself
// is 0. Paths outside root report -1.
func depth(root, path string) int {
	if filepath.Clean(root) == filepath.Clean(path) {
		return 0
	}
	rel, ok := isUnder(root, path)
	if !ok {
		return -1
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
