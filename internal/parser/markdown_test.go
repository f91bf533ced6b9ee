package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_StripsMarkup(t *testing.T) {
	input := `# Chapter One

It was a *dark* and **stormy** night.

- rain
- wind

Plain closing paragraph.
`
	text, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "book.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"Chapter One",
		"It was a dark and stormy night.",
		"rain",
		"wind",
		"Plain closing paragraph.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected text to contain %q, got:\n%s", want, text)
		}
	}
	for _, unwanted := range []string{"#", "*", "- "} {
		if strings.Contains(text, unwanted) {
			t.Errorf("markup %q leaked into plain text:\n%s", unwanted, text)
		}
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	text, err := (&MarkdownParser{}).Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}
