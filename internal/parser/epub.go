package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path"
	"strings"
)

// EPUBParser handles EPUB files: the container manifest points at an OPF
// package whose spine gives the reading order of the XHTML content files.
type EPUBParser struct{}

type epubContainer struct {
	XMLName   xml.Name `xml:"container"`
	RootFiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

type epubPackage struct {
	XMLName  xml.Name `xml:"package"`
	Manifest struct {
		Items []struct {
			ID        string `xml:"id,attr"`
			Href      string `xml:"href,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

func (p *EPUBParser) Parse(r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &ParseError{Filename: filename, Reason: "read epub", Err: err}
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ParseError{Filename: filename, Reason: "open epub archive", Err: err}
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	var container epubContainer
	if err := decodeZipXML(files["META-INF/container.xml"], &container); err != nil {
		return "", &ParseError{Filename: filename, Reason: "read container.xml", Err: err}
	}
	if len(container.RootFiles) == 0 {
		return "", &ParseError{Filename: filename, Reason: "no rootfile in container.xml"}
	}

	opfPath := container.RootFiles[0].FullPath
	var pkg epubPackage
	if err := decodeZipXML(files[opfPath], &pkg); err != nil {
		return "", &ParseError{Filename: filename, Reason: "read package document", Err: err}
	}

	hrefByID := make(map[string]string, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		if item.MediaType == "application/xhtml+xml" || item.MediaType == "text/html" {
			hrefByID[item.ID] = item.Href
		}
	}

	opfDir := path.Dir(opfPath)
	var out strings.Builder
	for _, ref := range pkg.Spine.ItemRefs {
		href, ok := hrefByID[ref.IDRef]
		if !ok {
			continue
		}
		name := href
		if opfDir != "." {
			name = path.Join(opfDir, href)
		}
		f, ok := files[name]
		if !ok {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		text, err := extractHTMLText(rc)
		rc.Close()
		if err != nil || text == "" {
			continue
		}
		if out.Len() > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString(text)
	}

	if out.Len() == 0 {
		return "", &ParseError{Filename: filename, Reason: "no text content in epub"}
	}
	return out.String(), nil
}

func decodeZipXML(f *zip.File, v any) error {
	if f == nil {
		return io.ErrUnexpectedEOF
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}
