package format

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
	"github.com/sourcegraph/conc/panics"
)

func extractPDF(_, p string) (text string, err error) {
	// The parser panics on some malformed documents
	recovered := panics.Try(func() {
		text, err = readPDF(p)
	})
	if recovered != nil {
		return "", fmt.Errorf("failed to parse pdf, %w", recovered.AsError())
	}

	return text, err
}

func readPDF(p string) (string, error) {
	f, r, err := pdf.Open(p)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf, %w", err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text, %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to read pdf text, %w", err)
	}

	return collapse(buf.String()), nil
}
