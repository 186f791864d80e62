// Package format extracts plain text from the file types the service knows
// how to read
package format

import (
	"maps"
	"slices"
)

// Extractor returns the text content of a plaintext file on disk. language is
// an ISO 639-3 hint, extractors are free to ignore it
type Extractor interface {
	Extract(language, plainPath string) (string, error)
}

type ExtractorFunc func(language, plainPath string) (string, error)

func (f ExtractorFunc) Extract(language, plainPath string) (string, error) {
	return f(language, plainPath)
}

// Registry maps exact mime types to extractors. It is built once at startup
// and only read afterwards
type Registry struct {
	byMime map[string]Extractor
}

func NewRegistry() *Registry {
	return &Registry{byMime: make(map[string]Extractor)}
}

// Register binds ex to every given mime type
func (r *Registry) Register(ex Extractor, mimes ...string) *Registry {
	for _, m := range mimes {
		r.byMime[m] = ex
	}

	return r
}

// Find returns the extractor for mime, or nil
func (r *Registry) Find(mime string) Extractor {
	return r.byMime[mime]
}

// Mimes lists the supported mime types sorted
func (r *Registry) Mimes() []string {
	return slices.Sorted(maps.Keys(r.byMime))
}

const (
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeODT  = "application/vnd.oasis.opendocument.text"
	MimePDF  = "application/pdf"
)

// Default returns a registry with every built-in extractor
func Default() *Registry {
	return NewRegistry().
		Register(ExtractorFunc(extractText), "text/plain", "text/csv", "text/markdown", "text/x-markdown").
		Register(ExtractorFunc(extractHTML), "text/html").
		Register(ExtractorFunc(extractPDF), MimePDF).
		Register(ExtractorFunc(extractDOCX), MimeDOCX).
		Register(ExtractorFunc(extractODT), MimeODT)
}
