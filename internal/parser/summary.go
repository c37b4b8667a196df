package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/mod/semver"
)

const (
	// SummaryLines is how many leading records a listing
	// inspects for preview, model, and cwd.
	SummaryLines = 10
	// PreviewRunes bounds the preview length.
	PreviewRunes = 200
)

// Summary is the listing metadata of a transcript. Empty strings
// mean the value could not be detected.
type Summary struct {
	MessageCount int
	Preview      string
	Model        string
	Cwd          string
	Name         string
	Version      string
}

// SummarizeText is Summarize over an in-memory transcript.
func SummarizeText(text string, maxLines int) Summary {
	s, _ := Summarize(strings.NewReader(text), maxLines)
	return s
}

// Summarize extracts listing metadata. Every non-empty line is
// checked for validity so MessageCount matches ParseFull, but
// fields are only decoded from the first maxLines non-empty lines.
func Summarize(r io.Reader, maxLines int) (Summary, error) {
	lr := newLineReader(r, maxLineSize)
	var (
		s       Summary
		scanned int
	)
	for {
		line, ok := lr.next()
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		scanned++
		if scanned > maxLines {
			if gjson.Valid(line) {
				s.MessageCount++
			}
			continue
		}
		rec, ok := decodeLine(line)
		if !ok {
			continue
		}
		s.MessageCount++
		s.observe(rec)
	}
	if err := lr.Err(); err != nil {
		return s, fmt.Errorf("reading transcript: %w", err)
	}
	return s, nil
}

// observe fills any still-missing field from rec.
func (s *Summary) observe(rec gjson.Result) {
	if s.Preview == "" {
		msg := parseRecord(rec)
		if msg.Role == RoleUser {
			if text := firstText(msg.Content); text != "" {
				s.Preview = truncateRunes(text, PreviewRunes)
			}
		}
	}
	if s.Model == "" {
		s.Model = lookupString(rec, fieldModel)
	}
	if s.Cwd == "" {
		s.Cwd = lookupString(rec, fieldCwd)
	}
	if s.Name == "" && rec.Get("type").Str == "summary" {
		s.Name = rec.Get("summary").Str
	}
	if v := rec.Get("version").Str; v != "" {
		s.Version = newerVersion(s.Version, v)
	}
}

// newerVersion returns whichever of cur and cand is the higher
// semantic version. Invalid candidates are ignored.
func newerVersion(cur, cand string) string {
	vc := "v" + strings.TrimPrefix(cand, "v")
	if !semver.IsValid(vc) {
		return cur
	}
	if cur == "" || semver.Compare(vc, "v"+strings.TrimPrefix(cur, "v")) > 0 {
		return cand
	}
	return cur
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
