// Package pipeline extracts text from freshly ingested files and tags their
// document with it
package pipeline

import "strings"

type Category string

const (
	CategoryNone  Category = ""
	CategoryImage Category = "image"
	CategoryText  Category = "text"
)

// Classify sorts a mime type into the coarse category used as baseline tag
func Classify(mime string) Category {
	switch {
	case mime == "":
		return CategoryNone
	case strings.HasPrefix(mime, "image/"):
		return CategoryImage
	case strings.HasPrefix(mime, "text/"),
		mime == "application/pdf",
		mime == "application/msword",
		strings.Contains(mime, "document"),
		strings.Contains(mime, "pdf"),
		strings.Contains(mime, "text"):
		return CategoryText
	default:
		return CategoryNone
	}
}
