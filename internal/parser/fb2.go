package parser

import (
	"encoding/xml"
	"io"
	"strings"
)

// FB2Parser handles FictionBook 2 files: XML with one or more <body>
// elements holding nested <section> trees of <p> and <title> content.
type FB2Parser struct{}

func (p *FB2Parser) Parse(r io.Reader, filename string) (string, error) {
	dec := xml.NewDecoder(r)
	// FB2 files in the wild carry legacy single-byte encodings.
	dec.CharsetReader = fb2Charset

	var paragraphs []string
	inBody := 0
	var current strings.Builder

	flush := func() {
		if t := strings.Join(strings.Fields(current.String()), " "); t != "" {
			paragraphs = append(paragraphs, t)
		}
		current.Reset()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &ParseError{Filename: filename, Reason: "parse fb2 xml", Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "body":
				inBody++
			case "binary":
				// Embedded images; skip the whole element.
				if err := dec.Skip(); err != nil {
					return "", &ParseError{Filename: filename, Reason: "parse fb2 xml", Err: err}
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "body":
				inBody--
			case "p", "v", "subtitle", "title", "text-author":
				if inBody > 0 {
					flush()
				}
			}
		case xml.CharData:
			if inBody > 0 {
				current.Write(t)
				current.WriteByte(' ')
			}
		}
	}
	flush()

	if len(paragraphs) == 0 {
		return "", &ParseError{Filename: filename, Reason: "no text content in fb2 body"}
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

// fb2Charset accepts the UTF encodings Go decodes natively and rejects the
// rest; converting legacy Cyrillic charsets is out of scope here.
func fb2Charset(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8", "us-ascii", "ascii":
		return input, nil
	default:
		return nil, &ParseError{Reason: "unsupported fb2 charset " + charset}
	}
}
