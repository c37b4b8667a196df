// Package resolver recovers the real filesystem path of a Claude
// Code project from its opaque directory under the projects root.
//
// Resolution is a best-effort chain of independent strategies;
// the first one to produce a path wins.
package resolver

import (
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/wesm/claudesessions/internal/parser"
)

// Strategy tries to resolve the project directory dir. side gives
// access to the user-level config file and is loaded on first use.
type Strategy func(dir string, side *SideTable) (string, bool)

// Resolver runs Strategies in order.
type Resolver struct {
	UserConfigFile string
	Strategies     []Strategy
}

// New returns a Resolver using DefaultStrategies and the given
// user config file (normally ~/.claude.json).
func New(userConfigFile string) *Resolver {
	return &Resolver{
		UserConfigFile: userConfigFile,
		Strategies:     DefaultStrategies(),
	}
}

// DefaultStrategies returns the standard chain: transcript cwd,
// user config lookup, URL-decoded name, dash-decoded name.
func DefaultStrategies() []Strategy {
	return []Strategy{
		FromTranscript,
		FromUserConfig,
		FromURLEncodedName,
		FromDashEncodedName,
	}
}

// Resolve returns the project path for dir, or nil when no
// strategy succeeds.
func (r *Resolver) Resolve(dir string) *string {
	side := &SideTable{path: r.UserConfigFile}
	for _, strategy := range r.Strategies {
		if p, ok := strategy(dir, side); ok {
			return &p
		}
	}
	return nil
}

// SideTable is the project list of the user-level config file,
// read lazily and at most once.
type SideTable struct {
	path   string
	loaded bool
	keys   []string
}

// NewSideTable returns a SideTable backed by path.
func NewSideTable(path string) *SideTable {
	return &SideTable{path: path}
}

// Projects returns the keys of the config file's "projects"
// object in document order. A missing or invalid file yields nil.
func (s *SideTable) Projects() []string {
	if s.loaded {
		return s.keys
	}
	s.loaded = true
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil || !gjson.ValidBytes(data) {
		return nil
	}
	projects := gjson.GetBytes(data, "projects")
	if !projects.IsObject() {
		return nil
	}
	projects.ForEach(
		func(key, _ gjson.Result) bool {
			s.keys = append(s.keys, key.Str)
			return true
		},
	)
	return s.keys
}

var pathMentionRe = regexp.MustCompile(
	`(?i)(?:directory|cwd|project)[:\s]+([/~][^\s"']+)`,
)

// FromTranscript reads the first record of the first transcript
// in dir and returns its cwd. A system record with string content
// is searched for a "cwd: /path" style mention.
func FromTranscript(dir string, _ *SideTable) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		return cwdFromTranscript(filepath.Join(dir, e.Name()))
	}
	return "", false
}

func cwdFromTranscript(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	line, ok := parser.FirstLine(f)
	if !ok || !gjson.Valid(line) {
		return "", false
	}
	rec := gjson.Parse(line)
	if cwd := rec.Get("cwd"); cwd.Type == gjson.String && cwd.Str != "" {
		return cwd.Str, true
	}
	if cwd := rec.Get("message.cwd"); cwd.Type == gjson.String && cwd.Str != "" {
		return cwd.Str, true
	}
	content := rec.Get("content")
	if rec.Get("role").Str == "system" && content.Type == gjson.String {
		if m := pathMentionRe.FindStringSubmatch(content.Str); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// FromUserConfig matches dir's base name against the project paths
// in the user config: a key containing the name, or a key whose
// base name the directory name contains. The match is a substring
// heuristic and can pick an unrelated project with a similar name.
func FromUserConfig(dir string, side *SideTable) (string, bool) {
	if side == nil {
		return "", false
	}
	name := filepath.Base(dir)
	for _, p := range side.Projects() {
		if strings.Contains(p, name) || strings.Contains(name, keyBase(p)) {
			return p, true
		}
	}
	return "", false
}

// keyBase is the last element of a side-table key. Unlike
// filepath.Base, the root and the empty key have an empty base
// name, so they match every directory.
func keyBase(p string) string {
	if p == "" {
		return ""
	}
	if base := filepath.Base(p); base != string(filepath.Separator) {
		return base
	}
	return ""
}

// FromURLEncodedName URL-decodes the directory name ('+' as space)
// and returns it when it is an existing absolute path.
func FromURLEncodedName(dir string, _ *SideTable) (string, bool) {
	decoded, err := url.QueryUnescape(filepath.Base(dir))
	if err != nil || !strings.HasPrefix(decoded, "/") {
		return "", false
	}
	if !exists(decoded) {
		return "", false
	}
	return decoded, true
}

// FromDashEncodedName reads the directory name as a path with '/'
// replaced by '-' (Claude Code's encoding) and returns it when it
// exists. Names whose original path contained '-' do not decode.
func FromDashEncodedName(dir string, _ *SideTable) (string, bool) {
	candidate := filepath.Clean(
		"/" + strings.ReplaceAll(filepath.Base(dir), "-", "/"),
	)
	if !exists(candidate) {
		return "", false
	}
	return candidate, true
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
