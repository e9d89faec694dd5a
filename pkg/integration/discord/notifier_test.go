package discord

import (
	"strings"
	"testing"
)

func TestSplitMessageShort(t *testing.T) {
	chunks := SplitMessage("hello", 2000)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Errorf("chunks = %v", chunks)
	}
}

func TestSplitMessagePrefersLineBoundaries(t *testing.T) {
	text := strings.Repeat("line one\n", 5) // 45 chars
	chunks := SplitMessage(text, 20)
	for i, c := range chunks {
		if len([]rune(c)) > 20 {
			t.Errorf("chunk %d exceeds limit: %d runes", i, len([]rune(c)))
		}
	}
	if strings.Join(chunks, "") != text {
		t.Error("chunks do not reassemble to the original text")
	}
	for i, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c, "\n") {
			t.Errorf("chunk %d not cut at a line boundary: %q", i, c)
		}
	}
}

func TestSplitMessageNoNewlines(t *testing.T) {
	text := strings.Repeat("a", 45)
	chunks := SplitMessage(text, 20)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if strings.Join(chunks, "") != text {
		t.Error("chunks do not reassemble to the original text")
	}
}
