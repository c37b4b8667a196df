package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	claudeMdName = "CLAUDE.md"
	skillMdName  = "SKILL.md"
)

// GetClaudeMd returns the project's CLAUDE.md, checking the
// project root before .claude/. It returns nil when the project
// path is unknown or neither file exists.
func (s *Store) GetClaudeMd(hash string) (*InstructionsFile, error) {
	p, err := s.GetProject(hash)
	if err != nil || p == nil {
		return nil, err
	}
	return readClaudeMd(p.ProjectPath), nil
}

func readClaudeMd(projectPath *string) *InstructionsFile {
	if projectPath == nil {
		return nil
	}
	for _, candidate := range []string{
		filepath.Join(*projectPath, claudeMdName),
		filepath.Join(*projectPath, ".claude", claudeMdName),
	} {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		return &InstructionsFile{Content: string(data), Path: candidate}
	}
	return nil
}

// GetMemoryFiles returns the Markdown files in the project's
// memory directory, most recently modified first.
func (s *Store) GetMemoryFiles(hash string) ([]MemoryFile, error) {
	dir, err := s.projectDir(hash)
	if err != nil {
		return nil, err
	}
	files := memoryFiles(readMarkdownDir(filepath.Join(dir, "memory")))
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].UpdatedAt > files[j].UpdatedAt
	})
	return files, nil
}

// GetUserRules returns the Markdown files in the user-level
// rules directory, in name order.
func (s *Store) GetUserRules() ([]MemoryFile, error) {
	return memoryFiles(readMarkdownDir(s.cfg.UserRulesDir)), nil
}

// GetSkills returns user-level skills followed by the project's
// own .claude/skills. A skill is either a top-level .md file or a
// subdirectory holding SKILL.md.
func (s *Store) GetSkills(hash string) ([]SkillFile, error) {
	if err := checkID(hash); err != nil {
		return nil, err
	}
	skills := skillFiles(readSkillsDir(s.cfg.UserSkillsDir), ScopeUser)

	p, err := s.GetProject(hash)
	if err != nil {
		return nil, err
	}
	if p != nil && p.ProjectPath != nil {
		dir := filepath.Join(*p.ProjectPath, ".claude", "skills")
		skills = append(skills,
			skillFiles(readSkillsDir(dir), ScopeProject)...)
	}
	return skills, nil
}

// GetUserSettings returns the decoded user settings file, or nil
// when it is missing or not a JSON object.
func (s *Store) GetUserSettings() (map[string]any, error) {
	data, err := os.ReadFile(s.cfg.SettingsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		log.Printf("settings: ignoring %s: %v", s.cfg.SettingsFile, err)
		return nil, nil
	}
	return settings, nil
}

// GetUserClaudeMd returns the user-level CLAUDE.md content, or
// nil when it does not exist.
func (s *Store) GetUserClaudeMd() (*string, error) {
	data, err := os.ReadFile(s.cfg.UserClaudeMd)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading user CLAUDE.md: %w", err)
	}
	content := string(data)
	return &content, nil
}

type markdownFile struct {
	name    string
	path    string
	content string
	modTime int64
	meta    frontMatter
}

// readMarkdownDir reads the .md files directly inside dir in
// name order. Unreadable files are skipped.
func readMarkdownDir(dir string) []markdownFile {
	entries := readDirQuiet(dir)
	var files []markdownFile
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".md")
		if f, ok := readMarkdown(name, filepath.Join(dir, e.Name())); ok {
			files = append(files, f)
		}
	}
	return files
}

// readSkillsDir is readMarkdownDir plus <name>/SKILL.md entries.
func readSkillsDir(dir string) []markdownFile {
	entries := readDirQuiet(dir)
	var files []markdownFile
	for _, e := range entries {
		var (
			name = e.Name()
			path = filepath.Join(dir, name)
		)
		switch {
		case e.IsDir():
			path = filepath.Join(path, skillMdName)
		case filepath.Ext(name) == ".md":
			name = strings.TrimSuffix(name, ".md")
		default:
			continue
		}
		if f, ok := readMarkdown(name, path); ok {
			files = append(files, f)
		}
	}
	return files
}

func readDirQuiet(dir string) []fs.DirEntry {
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("store: reading %s: %v", dir, err)
	}
	return entries
}

func readMarkdown(name, path string) (markdownFile, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return markdownFile{}, false
	}
	info, err := os.Stat(path)
	if err != nil {
		return markdownFile{}, false
	}
	content := string(data)
	return markdownFile{
		name:    name,
		path:    path,
		content: content,
		modTime: millis(info.ModTime()),
		meta:    parseFrontMatter(content),
	}, true
}

func memoryFiles(files []markdownFile) []MemoryFile {
	out := make([]MemoryFile, 0, len(files))
	for _, f := range files {
		out = append(out, MemoryFile{
			Name:        f.name,
			Path:        f.path,
			Content:     f.content,
			UpdatedAt:   f.modTime,
			Description: f.meta.Description,
		})
	}
	return out
}

func skillFiles(files []markdownFile, scope SkillScope) []SkillFile {
	out := make([]SkillFile, 0, len(files))
	for _, f := range files {
		out = append(out, SkillFile{
			Name:        f.name,
			Path:        f.path,
			Content:     f.content,
			Scope:       scope,
			Description: f.meta.Description,
		})
	}
	return out
}

type frontMatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// parseFrontMatter decodes a leading "---" delimited YAML block.
// Missing or invalid front matter yields the zero value.
func parseFrontMatter(content string) frontMatter {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	rest, ok := strings.CutPrefix(content, "---\n")
	if !ok {
		return frontMatter{}
	}
	rest = "\n" + rest
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return frontMatter{}
	}
	var fm frontMatter
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return frontMatter{}
	}
	return fm
}
