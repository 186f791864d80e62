package security

import (
	"bitwise74/docs-api/internal/apperr"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	e := NewEncrypter(dir)

	key, err := GenerateKey()
	require.NoError(t, err)

	plain := bytes.Repeat([]byte("document bytes "), 10_000)
	dest := filepath.Join(dir, "blob")

	require.NoError(t, e.Encrypt(bytes.NewReader(plain), key, dest))

	stored, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.NotContains(t, string(stored), "document bytes")

	r, err := e.OpenStream(dest, key)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, plain, got)

	p, err := e.DecryptFile(dest, key)
	require.NoError(t, err)
	defer os.Remove(p)

	got, err = os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestDecryptWithOtherKey(t *testing.T) {
	dir := t.TempDir()
	e := NewEncrypter(dir)

	owner, err := GenerateKey()
	require.NoError(t, err)
	other, err := GenerateKey()
	require.NoError(t, err)

	dest := filepath.Join(dir, "blob")
	require.NoError(t, e.Encrypt(strings.NewReader("secret"), owner, dest))

	_, err = e.OpenStream(dest, other)
	assert.ErrorIs(t, err, apperr.ErrTransient)

	_, err = e.DecryptFile(dest, other)
	assert.ErrorIs(t, err, apperr.ErrTransient)

	_, err = e.OpenStream(dest, "")
	assert.ErrorIs(t, err, apperr.ErrTransient)
}

type failingReader struct{ n int }

func (f *failingReader) Read(p []byte) (int, error) {
	if f.n > 0 {
		f.n--
		return copy(p, "partial"), nil
	}
	return 0, io.ErrUnexpectedEOF
}

func TestEncryptFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	e := NewEncrypter(dir)

	key, err := GenerateKey()
	require.NoError(t, err)

	dest := filepath.Join(dir, "blob")
	err = e.Encrypt(&failingReader{n: 3}, key, dest)
	require.ErrorIs(t, err, apperr.ErrTransient)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDecryptCorrupted(t *testing.T) {
	dir := t.TempDir()
	e := NewEncrypter(dir)

	key, err := GenerateKey()
	require.NoError(t, err)

	dest := filepath.Join(dir, "blob")
	require.NoError(t, os.WriteFile(dest, []byte("not age at all"), 0o600))

	_, err = e.DecryptFile(dest, key)
	assert.ErrorIs(t, err, apperr.ErrTransient)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
