// Package store reads and manages Claude Code's on-disk project
// and session data. Every call re-reads the filesystem; nothing is
// cached between requests.
package store

import (
	"errors"

	"github.com/wesm/claudesessions/internal/parser"
)

// ErrInvalidID is returned for a project hash or session id that
// could escape its directory.
var ErrInvalidID = errors.New("invalid identifier")

// Project is one directory under the projects root.
type Project struct {
	Hash            string  `json:"hash"`
	ProjectPath     *string `json:"projectPath"`
	HasClaudeMd     bool    `json:"hasClaudeMd"`
	ClaudeMdContent *string `json:"claudeMdContent,omitempty"`
	SessionCount    int     `json:"sessionCount"`
	LastActive      int64   `json:"lastActive"`
	HasMemory       bool    `json:"hasMemory"`
	HasSkills       bool    `json:"hasSkills"`
}

// SessionSummary is the listing view of a transcript file.
// Timestamps are milliseconds since the epoch.
type SessionSummary struct {
	ID           string `json:"id"`
	ProjectHash  string `json:"projectHash"`
	Name         string `json:"name,omitempty"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
	FileSize     int64  `json:"fileSize"`
	MessageCount int    `json:"messageCount"`
	Preview      string `json:"preview,omitempty"`
	Model        string `json:"model,omitempty"`
	Cwd          string `json:"cwd,omitempty"`
	Version      string `json:"version,omitempty"`
}

// Session is a summary plus the full parsed transcript.
type Session struct {
	SessionSummary
	Messages []parser.Message `json:"messages"`
}

// DeleteResult reports a batch delete. Order within each list
// reflects completion order, not input order.
type DeleteResult struct {
	Deleted []string `json:"deleted"`
	Failed  []string `json:"failed"`
}

// InstructionsFile is a CLAUDE.md file and where it was found.
type InstructionsFile struct {
	Content string `json:"content"`
	Path    string `json:"path"`
}

// MemoryFile is a Markdown file from a memory or rules directory.
type MemoryFile struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Content     string `json:"content"`
	UpdatedAt   int64  `json:"updatedAt"`
	Description string `json:"description,omitempty"`
}

// SkillScope records which directory a skill came from.
type SkillScope string

const (
	ScopeUser    SkillScope = "user"
	ScopeProject SkillScope = "project"
)

// SkillFile is a skill definition.
type SkillFile struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	Content     string     `json:"content"`
	Scope       SkillScope `json:"scope"`
	Description string     `json:"description,omitempty"`
}

// GlobalStats aggregates across all projects.
type GlobalStats struct {
	TotalProjects        int   `json:"totalProjects"`
	TotalSessions        int   `json:"totalSessions"`
	ProjectsWithClaudeMd int   `json:"projectsWithClaudeMd"`
	TotalSizeBytes       int64 `json:"totalSizeBytes"`
}
