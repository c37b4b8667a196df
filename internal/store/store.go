package store

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/wesm/claudesessions/internal/config"
	"github.com/wesm/claudesessions/internal/resolver"
)

const maxWorkers = 8

// Store serves project and session data rooted at a Claude
// Code config directory.
type Store struct {
	cfg      config.Config
	resolver *resolver.Resolver
}

// New returns a Store for cfg using the default resolver chain.
func New(cfg config.Config) *Store {
	return &Store{
		cfg:      cfg,
		resolver: resolver.New(cfg.UserConfigFile),
	}
}

// NewWithResolver returns a Store using r for project paths.
func NewWithResolver(cfg config.Config, r *resolver.Resolver) *Store {
	return &Store{cfg: cfg, resolver: r}
}

// ProjectsDir returns the projects root this store reads.
func (s *Store) ProjectsDir() string {
	return s.cfg.ProjectsDir
}

// checkID rejects empty names, dot segments, and anything
// containing a path separator.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." ||
		strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func (s *Store) projectDir(hash string) (string, error) {
	if err := checkID(hash); err != nil {
		return "", err
	}
	return filepath.Join(s.cfg.ProjectsDir, hash), nil
}

// forEach runs fn for every index in [0, n) across a bounded
// worker pool and waits for all of them.
func forEach(n int, fn func(i int)) {
	if n == 0 {
		return
	}
	workers := min(max(runtime.NumCPU(), 2), maxWorkers, n)

	jobs := make(chan int, n)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}
	for i := range n {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
