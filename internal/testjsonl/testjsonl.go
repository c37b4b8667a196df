// Package testjsonl provides shared JSONL fixture builders for
// Claude Code transcript test data. Used by the parser, resolver,
// store, and server test packages.
package testjsonl

import (
	"encoding/json"
	"strings"
)

// UserJSON returns a wrapped Claude Code user record as a JSON
// string. content may be a string or a block slice.
func UserJSON(
	content any, timestamp string, cwd ...string,
) string {
	m := map[string]any{
		"type":      "user",
		"timestamp": timestamp,
		"message": map[string]any{
			"role":    "user",
			"content": content,
		},
	}
	if len(cwd) > 0 {
		m["cwd"] = cwd[0]
	}
	return mustMarshal(m)
}

// AssistantJSON returns a wrapped Claude Code assistant record
// with the model recorded on the nested message.
func AssistantJSON(content any, model, timestamp string) string {
	m := map[string]any{
		"type":      "assistant",
		"timestamp": timestamp,
		"message": map[string]any{
			"role":    "assistant",
			"model":   model,
			"content": content,
			"usage": map[string]any{
				"input_tokens":  10,
				"output_tokens": 20,
			},
		},
	}
	return mustMarshal(m)
}

// FlatJSON returns a record with top-level role and content, the
// legacy flat shape.
func FlatJSON(role string, content any) string {
	return mustMarshal(map[string]any{
		"role":    role,
		"content": content,
	})
}

// SystemJSON returns a flat system record with string content.
func SystemJSON(content string) string {
	return FlatJSON("system", content)
}

// CwdJSON returns a record carrying only a working directory.
func CwdJSON(cwd string) string {
	return mustMarshal(map[string]any{"cwd": cwd})
}

// SummaryJSON returns a session title record.
func SummaryJSON(summary string) string {
	return mustMarshal(map[string]any{
		"type":     "summary",
		"summary":  summary,
		"leafUuid": "00000000-0000-0000-0000-000000000000",
	})
}

// TextBlocks returns a content block slice of text blocks.
func TextBlocks(texts ...string) []map[string]any {
	blocks := make([]map[string]any, 0, len(texts))
	for _, t := range texts {
		blocks = append(blocks, map[string]any{
			"type": "text", "text": t,
		})
	}
	return blocks
}

// JoinJSONL joins JSON lines with newlines and appends a
// trailing newline.
func JoinJSONL(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// SessionBuilder constructs JSONL session content using a
// fluent API.
type SessionBuilder struct {
	lines []string
}

// NewSessionBuilder returns a new empty SessionBuilder.
func NewSessionBuilder() *SessionBuilder {
	return &SessionBuilder{}
}

// AddUser appends a wrapped user record.
func (b *SessionBuilder) AddUser(
	timestamp, content string, cwd ...string,
) *SessionBuilder {
	b.lines = append(b.lines, UserJSON(content, timestamp, cwd...))
	return b
}

// AddAssistant appends a wrapped assistant record with a
// single text block.
func (b *SessionBuilder) AddAssistant(
	timestamp, model, text string,
) *SessionBuilder {
	b.lines = append(b.lines, AssistantJSON(
		TextBlocks(text), model, timestamp,
	))
	return b
}

// AddSummary appends a session title record.
func (b *SessionBuilder) AddSummary(summary string) *SessionBuilder {
	b.lines = append(b.lines, SummaryJSON(summary))
	return b
}

// AddRaw appends an arbitrary raw line.
func (b *SessionBuilder) AddRaw(line string) *SessionBuilder {
	b.lines = append(b.lines, line)
	return b
}

// String returns the JSONL content with a trailing newline.
func (b *SessionBuilder) String() string {
	return strings.Join(b.lines, "\n") + "\n"
}

// StringNoTrailingNewline returns the JSONL content without a
// trailing newline.
func (b *SessionBuilder) StringNoTrailingNewline() string {
	return strings.Join(b.lines, "\n")
}

func mustMarshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
