package format

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"
)

func extractText(_, p string) (string, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("failed to read text file, %w", err)
	}

	return strings.TrimSpace(strings.ToValidUTF8(string(b), "")), nil
}

// extractHTML keeps the text nodes of a page, script and style bodies excluded
func extractHTML(_, p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", fmt.Errorf("failed to open html file, %w", err)
	}
	defer f.Close()

	var (
		sb   strings.Builder
		skip int
	)

	z := html.NewTokenizer(f)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapse(sb.String()), nil
		case html.StartTagToken:
			if isHidden(z) {
				skip++
			}
		case html.EndTagToken:
			if isHidden(z) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
				sb.WriteByte(' ')
			}
		}
	}
}

func isHidden(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style", "head":
		return true
	}

	return false
}

// collapse squashes runs of whitespace into one space
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
