package format

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
)

// office documents are zip archives with the body in one XML part. Text lives
// in text nodes and paragraphs end with their element
type officeLayout struct {
	part      string
	space     string
	text      string
	paragraph []string
}

var (
	docxLayout = officeLayout{
		part:      "word/document.xml",
		space:     "http://schemas.openxmlformats.org/wordprocessingml/2006/main",
		text:      "t",
		paragraph: []string{"p"},
	}
	odtLayout = officeLayout{
		part:      "content.xml",
		space:     "urn:oasis:names:tc:opendocument:xmlns:text:1.0",
		text:      "",
		paragraph: []string{"p", "h"},
	}
)

func extractDOCX(_, p string) (string, error) {
	return extractOffice(p, docxLayout)
}

func extractODT(_, p string) (string, error) {
	return extractOffice(p, odtLayout)
}

func extractOffice(p string, l officeLayout) (string, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return "", fmt.Errorf("failed to open office document, %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != l.part {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open %s, %w", l.part, err)
		}
		defer rc.Close()

		return readOfficeXML(rc, l)
	}

	return "", fmt.Errorf("office document has no %s", l.part)
}

func readOfficeXML(r io.Reader, l officeLayout) (string, error) {
	var (
		sb strings.Builder
		// depth of text-bearing elements we're inside of
		inText int
	)

	d := xml.NewDecoder(r)
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document xml, %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == l.space && l.isText(t.Name.Local) {
				inText++
			}
		case xml.EndElement:
			if t.Name.Space != l.space {
				continue
			}
			if l.isText(t.Name.Local) && inText > 0 {
				inText--
			}
			for _, name := range l.paragraph {
				if t.Name.Local == name {
					sb.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText > 0 {
				sb.Write(t)
			}
		}
	}

	lines := strings.Split(sb.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}

	return strings.Join(kept, "\n"), nil
}

// isText reports whether character data inside name is document text. ODT
// keeps text directly in paragraphs and headings
func (l officeLayout) isText(name string) bool {
	if l.text != "" {
		return name == l.text
	}

	for _, p := range l.paragraph {
		if name == p {
			return true
		}
	}

	return false
}
