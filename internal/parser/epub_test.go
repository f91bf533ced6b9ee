package parser

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func buildEPUB(t *testing.T, files map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestEPUBParser_SpineOrderAndText(t *testing.T) {
	r := buildEPUB(t, map[string]string{
		"META-INF/container.xml": `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
 <rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`,
		"OEBPS/content.opf": `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
 <manifest>
  <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>
  <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
  <item id="css" href="style.css" media-type="text/css"/>
 </manifest>
 <spine><itemref idref="ch1"/><itemref idref="ch2"/></spine>
</package>`,
		"OEBPS/ch1.xhtml": `<html><body><p>Chapter one text.</p></body></html>`,
		"OEBPS/ch2.xhtml": `<html><body><p>Chapter two text.</p></body></html>`,
		"OEBPS/style.css": `p { margin: 0 }`,
	})

	text, err := (&EPUBParser{}).Parse(r, "book.epub")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Chapter one text.\n\nChapter two text."
	if text != want {
		t.Errorf("expected %q, got %q", want, text)
	}
}

func TestEPUBParser_MissingContainerFails(t *testing.T) {
	r := buildEPUB(t, map[string]string{"mimetype": "application/epub+zip"})
	_, err := (&EPUBParser{}).Parse(r, "broken.epub")
	if err == nil {
		t.Fatal("expected error for epub without container.xml")
	}
	if !IsParseError(err) {
		t.Errorf("expected ParseError, got %T", err)
	}
}

func TestEPUBParser_NotAZipFails(t *testing.T) {
	_, err := (&EPUBParser{}).Parse(strings.NewReader("definitely not a zip"), "corrupt.epub")
	if err == nil {
		t.Fatal("expected error for corrupt archive")
	}
	if !IsParseError(err) {
		t.Errorf("expected ParseError, got %T", err)
	}
}
