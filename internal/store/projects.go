package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ListProjects returns every project directory, most recently
// active first. Ties keep directory order. A missing projects
// root yields an empty list.
func (s *Store) ListProjects() ([]Project, error) {
	entries, err := os.ReadDir(s.cfg.ProjectsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Project{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading projects dir: %w", err)
	}

	var hashes []string
	for _, e := range entries {
		if e.IsDir() {
			hashes = append(hashes, e.Name())
		}
	}

	projects := make([]Project, len(hashes))
	forEach(len(hashes), func(i int) {
		projects[i] = s.loadProject(hashes[i])
	})
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].LastActive > projects[j].LastActive
	})
	return projects, nil
}

// loadProject probes one project directory. Probe failures
// leave the corresponding field at its zero value.
func (s *Store) loadProject(hash string) Project {
	dir := filepath.Join(s.cfg.ProjectsDir, hash)
	p := Project{
		Hash:        hash,
		ProjectPath: s.resolver.Resolve(dir),
	}
	if md := readClaudeMd(p.ProjectPath); md != nil {
		p.HasClaudeMd = true
		p.ClaudeMdContent = &md.Content
	}

	entries, _ := os.ReadDir(dir)
	for _, name := range transcriptNames(entries) {
		p.SessionCount++
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		p.LastActive = max(p.LastActive, millis(info.ModTime()))
	}

	p.HasMemory = exists(filepath.Join(dir, "memory"))
	p.HasSkills = exists(s.cfg.UserSkillsDir) ||
		(p.ProjectPath != nil &&
			exists(filepath.Join(*p.ProjectPath, ".claude", "skills")))
	return p
}

// GetProject returns the project with the given hash, or nil.
// It lists every project and filters, so it costs as much as
// ListProjects.
func (s *Store) GetProject(hash string) (*Project, error) {
	if err := checkID(hash); err != nil {
		return nil, err
	}
	projects, err := s.ListProjects()
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].Hash == hash {
			return &projects[i], nil
		}
	}
	return nil, nil
}

// GetGlobalStats aggregates project counts and the total size of
// everything under the projects root.
func (s *Store) GetGlobalStats() (GlobalStats, error) {
	projects, err := s.ListProjects()
	if err != nil {
		return GlobalStats{}, err
	}
	stats := GlobalStats{TotalProjects: len(projects)}
	for _, p := range projects {
		stats.TotalSessions += p.SessionCount
		if p.HasClaudeMd {
			stats.ProjectsWithClaudeMd++
		}
	}
	stats.TotalSizeBytes, err = dirSize(s.cfg.ProjectsDir)
	if err != nil {
		return GlobalStats{}, fmt.Errorf("sizing projects dir: %w", err)
	}
	return stats, nil
}

// dirSize sums the sizes of regular files below root. Files that
// vanish mid-walk are ignored.
func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(
		path string, d fs.DirEntry, err error,
	) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				if path == root {
					return fs.SkipAll
				}
				return nil
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
