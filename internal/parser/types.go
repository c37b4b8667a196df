package parser

import (
	"encoding/json"
	"strings"
)

// Role identifies the author of a transcript record. Values
// outside the known set are passed through unchanged.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// BlockType is the kind tag of a ContentBlock.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
	BlockThinking   BlockType = "thinking"
)

// Content is message content: either PlainText or Blocks.
// A nil Content means the record carried no content.
type Content interface {
	isContent()
}

// PlainText is content recorded as a bare string.
type PlainText string

// Blocks is content recorded as an ordered block sequence.
type Blocks []ContentBlock

func (PlainText) isContent() {}
func (Blocks) isContent() {}

// ContentBlock is one unit of structured message content.
// Which fields are set depends on Type. A block decoded from a
// transcript marshals back to its original JSON, including keys
// the typed fields do not cover.
type ContentBlock struct {
	Type      BlockType      `json:"type"`
	Text      string         `json:"text,omitempty"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	IsError   bool           `json:"is_error,omitempty"`
	Content   Content        `json:"content,omitempty"`
	Thinking  string         `json:"thinking,omitempty"`

	raw json.RawMessage
}

// blockFields is ContentBlock without its MarshalJSON method.
type blockFields ContentBlock

// MarshalJSON emits the block as it appeared in the transcript,
// or the typed fields when the block was built in code.
func (b ContentBlock) MarshalJSON() ([]byte, error) {
	if len(b.raw) > 0 {
		return b.raw, nil
	}
	return json.Marshal(blockFields(b))
}

// Usage holds token counts reported for an assistant turn.
type Usage struct {
	InputTokens              *int64 `json:"input_tokens,omitempty"`
	OutputTokens             *int64 `json:"output_tokens,omitempty"`
	CacheCreationInputTokens *int64 `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     *int64 `json:"cache_read_input_tokens,omitempty"`
}

// Message is one normalized transcript record.
type Message struct {
	Role       Role            `json:"role"`
	Content    Content         `json:"content,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	ToolInput  map[string]any  `json:"toolInput,omitempty"`
	ToolResult json.RawMessage `json:"toolResult,omitempty"`
	Model      string          `json:"model,omitempty"`
	Thinking   string          `json:"thinking,omitempty"`
	Timestamp  string          `json:"timestamp,omitempty"`
	Usage      *Usage          `json:"usage,omitempty"`
	StopReason string          `json:"stopReason,omitempty"`
	DurationMs *float64        `json:"durationMs,omitempty"`
	CostUSD    *float64        `json:"costUsd,omitempty"`
}

// HasToolResult reports whether the record defined a tool
// result, including falsy values such as "" or 0.
func (m Message) HasToolResult() bool {
	return m.ToolResult != nil
}

// Text returns the readable text of the message: string content
// as-is, or the non-empty text blocks joined by newlines.
func (m Message) Text() string {
	switch c := m.Content.(type) {
	case PlainText:
		return string(c)
	case Blocks:
		var parts []string
		for _, b := range c {
			if b.Type == BlockText && b.Text != "" {
				parts = append(parts, b.Text)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

// firstText returns the text used for previews: string content,
// or the first text block with non-empty text.
func firstText(c Content) string {
	switch c := c.(type) {
	case PlainText:
		return string(c)
	case Blocks:
		for _, b := range c {
			if b.Type == BlockText && b.Text != "" {
				return b.Text
			}
		}
	}
	return ""
}
