package parser

import (
	"strings"
	"testing"
)

const sampleFB2 = `<?xml version="1.0" encoding="UTF-8"?>
<FictionBook xmlns="http://www.gribuser.ru/xml/fictionbook/2.0">
 <description>
  <title-info><book-title>Not Body Text</book-title></title-info>
 </description>
 <body>
  <title><p>Chapter One</p></title>
  <section>
   <p>The first paragraph of the story.</p>
   <p>A second paragraph follows.</p>
   <section>
    <title><p>Part A</p></title>
    <p>Nested section text.</p>
   </section>
  </section>
 </body>
 <binary id="cover.jpg" content-type="image/jpeg">aGVsbG8=</binary>
</FictionBook>`

func TestFB2Parser_ExtractsBodyText(t *testing.T) {
	text, err := (&FB2Parser{}).Parse(strings.NewReader(sampleFB2), "book.fb2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"Chapter One",
		"The first paragraph of the story.",
		"A second paragraph follows.",
		"Part A",
		"Nested section text.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected text to contain %q", want)
		}
	}
	if strings.Contains(text, "Not Body Text") {
		t.Error("description metadata leaked into body text")
	}
	if strings.Contains(text, "aGVsbG8=") {
		t.Error("binary payload leaked into body text")
	}
}

func TestFB2Parser_EmptyBodyFails(t *testing.T) {
	input := `<?xml version="1.0"?><FictionBook><body></body></FictionBook>`
	_, err := (&FB2Parser{}).Parse(strings.NewReader(input), "empty.fb2")
	if err == nil {
		t.Fatal("expected error for fb2 without body text")
	}
	if !IsParseError(err) {
		t.Errorf("expected ParseError, got %T", err)
	}
}

func TestFB2Parser_MalformedXMLFails(t *testing.T) {
	_, err := (&FB2Parser{}).Parse(strings.NewReader("<body><p>unclosed"), "bad.fb2")
	if err == nil {
		t.Fatal("expected error for malformed xml")
	}
	if !IsParseError(err) {
		t.Errorf("expected ParseError, got %T", err)
	}
}
