package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wesm/claudesessions/internal/parser"
	"golang.org/x/sync/errgroup"
)

const transcriptExt = ".jsonl"

// transcriptNames returns the names of the transcript files
// among entries, in directory order.
func transcriptNames(entries []fs.DirEntry) []string {
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), transcriptExt) {
			continue
		}
		names = append(names, e.Name())
	}
	return names
}

// ListSessions returns the sessions of project hash, most
// recently updated first. A missing project yields an empty list.
func (s *Store) ListSessions(hash string) ([]SessionSummary, error) {
	dir, err := s.projectDir(hash)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []SessionSummary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading project %s: %w", hash, err)
	}

	names := transcriptNames(entries)
	found := make([]*SessionSummary, len(names))
	forEach(len(names), func(i int) {
		found[i] = summarizeFile(hash, filepath.Join(dir, names[i]))
	})

	sessions := make([]SessionSummary, 0, len(found))
	for _, sum := range found {
		if sum != nil {
			sessions = append(sessions, *sum)
		}
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt > sessions[j].UpdatedAt
	})
	return sessions, nil
}

// summarizeFile builds the listing entry for one transcript. A
// file that cannot be opened or stat'ed is skipped; a read error
// mid-file keeps whatever was summarized so far.
func summarizeFile(hash, path string) *SessionSummary {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("sessions: skipping %s: %v", path, err)
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Printf("sessions: skipping %s: %v", path, err)
		return nil
	}
	sum, err := parser.Summarize(f, parser.SummaryLines)
	if err != nil {
		log.Printf("sessions: %s: %v", path, err)
	}
	out := newSummary(hash, path, info, sum)
	return &out
}

func newSummary(
	hash, path string, info fs.FileInfo, sum parser.Summary,
) SessionSummary {
	return SessionSummary{
		ID:           strings.TrimSuffix(filepath.Base(path), transcriptExt),
		ProjectHash:  hash,
		Name:         sum.Name,
		CreatedAt:    createdAt(path, info),
		UpdatedAt:    millis(info.ModTime()),
		FileSize:     info.Size(),
		MessageCount: sum.MessageCount,
		Preview:      sum.Preview,
		Model:        sum.Model,
		Cwd:          sum.Cwd,
		Version:      sum.Version,
	}
}

// GetSession returns the full transcript of a session, or nil
// when its file does not exist.
func (s *Store) GetSession(hash, id string) (*Session, error) {
	dir, err := s.projectDir(hash)
	if err != nil {
		return nil, err
	}
	if err := checkID(id); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, id+transcriptExt)

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening session %s: %w", id, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat session %s: %w", id, err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", id, err)
	}

	// Both views come from the same bytes so the overlapping
	// fields agree with ListSessions.
	text := string(data)
	msgs := parser.ParseFull(text)
	if msgs == nil {
		msgs = []parser.Message{}
	}
	return &Session{
		SessionSummary: newSummary(
			hash, path, info,
			parser.SummarizeText(text, parser.SummaryLines),
		),
		Messages: msgs,
	}, nil
}

// DeleteSession removes a transcript and its same-named
// subdirectory of subagent records. It reports false when the
// transcript does not exist. A failure after the transcript is
// gone is returned as an error and not rolled back.
func (s *Store) DeleteSession(hash, id string) (bool, error) {
	dir, err := s.projectDir(hash)
	if err != nil {
		return false, err
	}
	if err := checkID(id); err != nil {
		return false, err
	}

	err = os.Remove(filepath.Join(dir, id+transcriptExt))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("removing session %s: %w", id, err)
	}

	sub := filepath.Join(dir, id)
	if info, err := os.Lstat(sub); err == nil && info.IsDir() {
		if err := os.RemoveAll(sub); err != nil {
			return false, fmt.Errorf(
				"removing session %s records: %w", id, err,
			)
		}
	}
	return true, nil
}

// DeleteSessions deletes ids concurrently. Ids whose transcript
// does not exist, or that are not valid ids, are reported in
// Failed. Any other error stops the batch: deletions not yet
// started are skipped and the error is returned alongside the
// partial result.
func (s *Store) DeleteSessions(
	hash string, ids []string,
) (DeleteResult, error) {
	res := DeleteResult{Deleted: []string{}, Failed: []string{}}
	if _, err := s.projectDir(hash); err != nil {
		return res, err
	}

	var mu sync.Mutex
	record := func(list *[]string, id string) {
		mu.Lock()
		*list = append(*list, id)
		mu.Unlock()
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(maxWorkers)
	for _, id := range ids {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			ok, err := s.DeleteSession(hash, id)
			switch {
			case errors.Is(err, ErrInvalidID):
				record(&res.Failed, id)
			case err != nil:
				return err
			case ok:
				record(&res.Deleted, id)
			default:
				record(&res.Failed, id)
			}
			return nil
		})
	}
	err := g.Wait()
	return res, err
}
