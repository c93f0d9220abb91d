package tui

import (
	"strings"
	"testing"
)

func TestEditRuneAppendsAndDeletes(t *testing.T) {
	text := ""
	for _, key := range []string{"h", "i", "!"} {
		text = editRune(text, key)
	}
	if text != "hi!" {
		t.Errorf("text = %q, want hi!", text)
	}
	text = editRune(text, "backspace")
	if text != "hi" {
		t.Errorf("after backspace text = %q, want hi", text)
	}
}

func TestEditRuneBackspaceIsRuneAware(t *testing.T) {
	if got := editRune("café", "backspace"); got != "caf" {
		t.Errorf("backspace on multibyte = %q, want caf", got)
	}
	if got := editRune("", "backspace"); got != "" {
		t.Errorf("backspace on empty = %q", got)
	}
}

func TestEditRuneIgnoresSpecialKeys(t *testing.T) {
	for _, key := range []string{"enter", "esc", "ctrl+c", "up", ""} {
		if got := editRune("text", key); got != "text" {
			t.Errorf("editRune(%q) = %q, want unchanged", key, got)
		}
	}
}

func TestEditRuneClampsLength(t *testing.T) {
	full := strings.Repeat("x", maxInputLen)
	if got := editRune(full, "y"); got != full {
		t.Error("input grew past maxInputLen")
	}
}

func TestTruncateToHeight(t *testing.T) {
	s := "a\nb\nc\nd\n"
	if got := truncateToHeight(s, 2); got != "a\nb\n" {
		t.Errorf("truncateToHeight = %q", got)
	}
	if got := truncateToHeight(s, 10); got != s {
		t.Errorf("truncateToHeight under limit = %q, want unchanged", got)
	}
	if got := truncateToHeight(s, 0); got != s {
		t.Errorf("truncateToHeight(0) = %q, want unchanged", got)
	}
}

func TestRenderChatInputPlaceholder(t *testing.T) {
	out := renderChatInput("alice", "", "say something...", 0)
	if !strings.Contains(out, "say something...") {
		t.Errorf("placeholder missing: %q", out)
	}
	if !strings.Contains(out, "alice") {
		t.Errorf("sender name missing: %q", out)
	}

	out = renderChatInput("alice", "hello", "say something...", 0)
	if !strings.Contains(out, "hello") {
		t.Errorf("typed input missing: %q", out)
	}
	if strings.Contains(out, "say something...") {
		t.Errorf("placeholder shown alongside input: %q", out)
	}
}
