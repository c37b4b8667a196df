package parser

import (
	"strings"
	"testing"
)

// Timestamp constants for test data.
const (
	tsZero   = "2024-01-01T00:00:00Z"
	tsZeroS1 = "2024-01-01T00:00:01Z"
	tsZeroS2 = "2024-01-01T00:00:02Z"
)

// --- Assertions ---

func assertMessage(t *testing.T, m Message, wantRole Role, wantContentSnippet string) {
	t.Helper()
	if m.Role != wantRole {
		t.Errorf("role = %q, want %q", m.Role, wantRole)
	}
	if wantContentSnippet != "" && !strings.Contains(m.Text(), wantContentSnippet) {
		t.Errorf("content missing snippet %q, got %q", wantContentSnippet, m.Text())
	}
}

func assertMessageCount(t *testing.T, count, want int) {
	t.Helper()
	if count != want {
		t.Fatalf("message count = %d, want %d", count, want)
	}
}
