package format

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	return p
}

func writeZip(t *testing.T, name string, parts map[string]string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for part, body := range parts {
		w, err := zw.Create(part)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return p
}

func TestRegistryFind(t *testing.T) {
	r := Default()

	for _, m := range []string{"text/plain", "text/csv", "text/html", MimePDF, MimeDOCX, MimeODT} {
		assert.NotNil(t, r.Find(m), m)
	}

	assert.Nil(t, r.Find("image/png"))
	assert.Nil(t, r.Find("text/plain; charset=utf-8"))
	assert.Contains(t, r.Mimes(), MimePDF)
	assert.IsIncreasing(t, r.Mimes())
}

func TestExtractText(t *testing.T) {
	p := writeFile(t, "a.txt", "  quarterly report\nrevenue up \xff ")

	got, err := Default().Find("text/plain").Extract("eng", p)
	require.NoError(t, err)
	assert.Equal(t, "quarterly report\nrevenue up", got)
}

func TestExtractHTML(t *testing.T) {
	p := writeFile(t, "a.html", `<html><head><title>t</title><style>p{}</style></head>
<body><h1>Invoice</h1><script>var x = 1;</script><p>Total  due</p></body></html>`)

	got, err := Default().Find("text/html").Extract("eng", p)
	require.NoError(t, err)
	assert.Equal(t, "Invoice Total due", got)
}

func TestExtractDOCX(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p>
<w:p><w:r><w:t>Second line</w:t></w:r></w:p>
</w:body></w:document>`
	p := writeZip(t, "a.docx", map[string]string{"word/document.xml": body})

	got, err := Default().Find(MimeDOCX).Extract("eng", p)
	require.NoError(t, err)
	assert.Equal(t, "Hello world\nSecond line", got)
}

func TestExtractODT(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
 xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
<office:body><office:text>
<text:h>Title</text:h>
<text:p>Some <text:span>styled</text:span> text</text:p>
</office:text></office:body></office:document-content>`
	p := writeZip(t, "a.odt", map[string]string{"content.xml": body})

	got, err := Default().Find(MimeODT).Extract("eng", p)
	require.NoError(t, err)
	assert.Equal(t, "Title\nSome styled text", got)
}

func TestExtractOfficeMissingPart(t *testing.T) {
	p := writeZip(t, "a.docx", map[string]string{"other.xml": "<a/>"})

	_, err := Default().Find(MimeDOCX).Extract("eng", p)
	assert.Error(t, err)
}

func TestExtractBrokenPDF(t *testing.T) {
	p := writeFile(t, "a.pdf", "%PDF-1.4\nthis is not really a pdf")

	assert.NotPanics(t, func() {
		_, err := Default().Find(MimePDF).Extract("eng", p)
		assert.Error(t, err)
	})
}
