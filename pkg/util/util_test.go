package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandStr(t *testing.T) {
	a, b := RandStr(10), RandStr(10)
	assert.Len(t, a, 10)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^[a-zA-Z0-9]{10}$`, a)
}

func TestHasAny(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, ".containerenv")

	assert.False(t, hasAny([]string{marker}))

	require.NoError(t, os.WriteFile(marker, nil, 0o600))
	assert.True(t, hasAny([]string{filepath.Join(dir, "missing"), marker}))
}
