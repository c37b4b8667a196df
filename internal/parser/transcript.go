// Package parser turns Claude Code JSONL transcripts into
// normalized messages and cheap listing summaries.
package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	initialScanBufSize = 64 * 1024        // 64KB
	maxLineSize        = 64 * 1024 * 1024 // 64MB
)

// ParseFull parses every non-empty line of a transcript. Lines
// that are not valid JSON are dropped; order is preserved.
func ParseFull(text string) []Message {
	msgs, _ := ParseReader(strings.NewReader(text))
	return msgs
}

// ParseReader is ParseFull over a stream. Only read failures are
// returned as errors; malformed records never are.
func ParseReader(r io.Reader) ([]Message, error) {
	lr := newLineReader(r, maxLineSize)
	var msgs []Message
	for {
		line, ok := lr.next()
		if !ok {
			break
		}
		rec, ok := decodeLine(line)
		if !ok {
			continue
		}
		msgs = append(msgs, parseRecord(rec))
	}
	if err := lr.Err(); err != nil {
		return msgs, fmt.Errorf("reading transcript: %w", err)
	}
	return msgs, nil
}

// decodeLine reports whether line holds a single JSON value and
// returns it parsed.
func decodeLine(line string) (gjson.Result, bool) {
	if strings.TrimSpace(line) == "" || !gjson.Valid(line) {
		return gjson.Result{}, false
	}
	return gjson.Parse(line), true
}

// parseRecord normalizes one decoded transcript record.
func parseRecord(rec gjson.Result) Message {
	msg := Message{Role: RoleSystem}
	if role := rec.Get("role"); role.Type == gjson.String && role.Str != "" {
		msg.Role = Role(role.Str)
	}

	content := rec.Get("content")
	switch {
	case content.Type == gjson.String:
		msg.Content = PlainText(content.Str)
	case content.IsArray():
		msg.Content = decodeBlocks(content)
	default:
		if wrapped := rec.Get("message"); truthy(wrapped) {
			if role := wrapped.Get("role"); role.Type == gjson.String && role.Str != "" {
				msg.Role = Role(role.Str)
			}
			msg.Content = decodeContent(wrapped.Get("content"))
		}
	}

	msg.ToolName = lookupString(rec, fieldToolName)
	if v, ok := lookup(rec, fieldToolInput); ok && v.IsObject() {
		msg.ToolInput = objectValue(v)
	}
	if v, ok := lookup(rec, fieldToolResult); ok {
		msg.ToolResult = json.RawMessage(v.Raw)
	}
	msg.Model = lookupString(rec, fieldModel)
	msg.Thinking = lookupString(rec, fieldThinking)
	msg.Timestamp = lookupString(rec, fieldTimestamp)
	if v, ok := lookup(rec, fieldUsage); ok && v.IsObject() {
		msg.Usage = decodeUsage(v)
	}
	msg.StopReason = lookupString(rec, fieldStopReason)
	msg.DurationMs = lookupNumber(rec, fieldDuration)
	msg.CostUSD = lookupNumber(rec, fieldCost)
	return msg
}

// decodeContent maps a raw content value onto the Content sum
// type. Values that are neither string nor array yield nil.
func decodeContent(v gjson.Result) Content {
	switch {
	case v.Type == gjson.String:
		return PlainText(v.Str)
	case v.IsArray():
		return decodeBlocks(v)
	}
	return nil
}

func decodeBlocks(arr gjson.Result) Blocks {
	blocks := Blocks{}
	arr.ForEach(func(_, b gjson.Result) bool {
		if !b.IsObject() {
			return true
		}
		block := ContentBlock{
			Type:      BlockType(b.Get("type").Str),
			Text:      b.Get("text").Str,
			ID:        b.Get("id").Str,
			Name:      b.Get("name").Str,
			ToolUseID: b.Get("tool_use_id").Str,
			IsError:   b.Get("is_error").Bool(),
			Thinking:  b.Get("thinking").Str,
			raw:       json.RawMessage(b.Raw),
		}
		if in := b.Get("input"); in.IsObject() {
			block.Input = objectValue(in)
		}
		if c := b.Get("content"); c.Exists() {
			block.Content = decodeContent(c)
		}
		blocks = append(blocks, block)
		return true
	})
	return blocks
}

func decodeUsage(v gjson.Result) *Usage {
	num := func(key string) *int64 {
		f := v.Get(key)
		if f.Type != gjson.Number {
			return nil
		}
		n := f.Int()
		return &n
	}
	return &Usage{
		InputTokens:              num("input_tokens"),
		OutputTokens:             num("output_tokens"),
		CacheCreationInputTokens: num("cache_creation_input_tokens"),
		CacheReadInputTokens:     num("cache_read_input_tokens"),
	}
}

func objectValue(v gjson.Result) map[string]any {
	m, _ := v.Value().(map[string]any)
	return m
}

// truthy mirrors a loose presence check: the value exists and is
// not null, false, zero, or the empty string.
func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.String:
		return v.Str != ""
	case gjson.Number:
		return v.Num != 0
	}
	return v.Exists()
}

// FirstLine returns the first non-blank line of r.
func FirstLine(r io.Reader) (string, bool) {
	lr := newLineReader(r, maxLineSize)
	for {
		line, ok := lr.next()
		if !ok {
			return "", false
		}
		if strings.TrimSpace(line) != "" {
			return line, true
		}
	}
}
