package parser

import "github.com/tidwall/gjson"

// field names a logical record attribute whose key varies
// between transcript writers.
type field int

const (
	fieldToolName field = iota
	fieldToolInput
	fieldToolResult
	fieldModel
	fieldThinking
	fieldTimestamp
	fieldUsage
	fieldStopReason
	fieldDuration
	fieldCost
	fieldCwd
)

// fieldAliases lists, per field, the gjson paths to try in order.
// The nested message.* paths are the Claude Code record shape and
// only apply when no top-level key is present.
var fieldAliases = [...][]string{
	fieldToolName:   {"tool_name", "toolName"},
	fieldToolInput:  {"tool_input", "toolInput"},
	fieldToolResult: {"tool_result", "toolResult", "toolUseResult"},
	fieldModel:      {"model", "message.model"},
	fieldThinking:   {"thinking"},
	fieldTimestamp:  {"timestamp"},
	fieldUsage:      {"usage", "message.usage"},
	fieldStopReason: {"stop_reason", "stopReason", "message.stop_reason"},
	fieldDuration:   {"duration_ms", "durationMs"},
	fieldCost:       {"cost_usd", "costUsd", "costUSD"},
	fieldCwd:        {"cwd", "message.cwd"},
}

// lookup returns the value of the first alias of f that is
// defined in rec. Definedness, not truthiness, decides: a
// present "" or 0 wins over a later alias.
func lookup(rec gjson.Result, f field) (gjson.Result, bool) {
	for _, path := range fieldAliases[f] {
		if v := rec.Get(path); v.Exists() {
			return v, true
		}
	}
	return gjson.Result{}, false
}

// lookupString is lookup restricted to string and numeric
// values, rendered as text.
func lookupString(rec gjson.Result, f field) string {
	v, ok := lookup(rec, f)
	if !ok {
		return ""
	}
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Raw
	}
	return ""
}

// lookupNumber is lookup restricted to numeric values.
func lookupNumber(rec gjson.Result, f field) *float64 {
	v, ok := lookup(rec, f)
	if !ok || v.Type != gjson.Number {
		return nil
	}
	n := v.Num
	return &n
}
