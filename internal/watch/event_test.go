package watch

import (
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
)

func TestClassify(t *testing.T) {
	root := filepath.FromSlash("/home/u/.claude/projects")
	p := func(rel string) string {
		return filepath.Join(root, filepath.FromSlash(rel))
	}

	tests := []struct {
		name   string
		path   string
		op     fsnotify.Op
		want   Event
		wantOK bool
	}{
		{"session created", p("h1/abc.jsonl"), fsnotify.Create,
			Event{Kind: SessionAdded, ProjectHash: "h1", SessionID: "abc"}, true},
		{"session written", p("h1/abc.jsonl"), fsnotify.Write,
			Event{Kind: SessionChanged, ProjectHash: "h1", SessionID: "abc"}, true},
		{"session removed", p("h1/abc.jsonl"), fsnotify.Remove,
			Event{Kind: SessionRemoved, ProjectHash: "h1", SessionID: "abc"}, true},
		{"session renamed away", p("h1/abc.jsonl"), fsnotify.Rename,
			Event{Kind: SessionRemoved, ProjectHash: "h1", SessionID: "abc"}, true},
		{"session chmod", p("h1/abc.jsonl"), fsnotify.Chmod, Event{}, false},
		{"bare extension", p("h1/.jsonl"), fsnotify.Create, Event{}, false},
		{"project created", p("h2"), fsnotify.Create,
			Event{Kind: ProjectChanged, ProjectHash: "h2"}, true},
		{"project removed", p("h2"), fsnotify.Remove,
			Event{Kind: ProjectChanged, ProjectHash: "h2"}, true},
		{"project written", p("h2"), fsnotify.Write, Event{}, false},
		{"memory file", p("h1/memory/notes.md"), fsnotify.Write,
			Event{Kind: ProjectChanged, ProjectHash: "h1"}, true},
		{"memory non-markdown", p("h1/memory/notes.txt"), fsnotify.Write,
			Event{}, false},
		{"subagent transcript created", p("h1/abc/subagents/a.jsonl"), fsnotify.Create,
			Event{Kind: SessionChanged, ProjectHash: "h1", SessionID: "abc"}, true},
		{"subagent transcript removed", p("h1/abc/a.jsonl"), fsnotify.Remove,
			Event{Kind: SessionChanged, ProjectHash: "h1", SessionID: "abc"}, true},
		{"subagent chmod", p("h1/abc/subagents/a.jsonl"), fsnotify.Chmod,
			Event{}, false},
		{"jsonl under memory", p("h1/memory/x.jsonl"), fsnotify.Write,
			Event{}, false},
		{"other file in project", p("h1/notes.txt"), fsnotify.Create,
			Event{}, false},
		{"root itself", root, fsnotify.Remove, Event{}, false},
		{"outside root", filepath.FromSlash("/tmp/x.jsonl"), fsnotify.Create,
			Event{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(root, tt.path, tt.op)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Classify() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDepth(t *testing.T) {
	root := filepath.FromSlash("/r")
	tests := map[string]int{
		"/r":          0,
		"/r/a":        1,
		"/r/a/b":      2,
		"/r/a/b/c":    3,
		"/r/a/b/c/d":  4,
		"/other":      -1,
		"/r/../other": -1,
	}
	for in, want := range tests {
		if got := depth(root, filepath.FromSlash(in)); got != want {
			t.Errorf("depth(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestMergeOp(t *testing.T) {
	tests := []struct {
		name       string
		prev, next fsnotify.Op
		seen       bool
		want       fsnotify.Op
	}{
		{"first event", 0, fsnotify.Write, false, fsnotify.Write},
		{"create then write", fsnotify.Create, fsnotify.Write, true, fsnotify.Create},
		{"create then remove", fsnotify.Create, fsnotify.Remove, true, fsnotify.Remove},
		{"remove then create", fsnotify.Remove, fsnotify.Create, true, fsnotify.Create},
		{"write then write", fsnotify.Write, fsnotify.Write, true, fsnotify.Write},
	}
	for _, tt := range tests {
		if got := mergeOp(tt.prev, tt.next, tt.seen); got != tt.want {
			t.Errorf("%s: mergeOp = %v, want %v", tt.name, got, tt.want)
		}
	}
}
