package snippet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestSnippet tests context windows at the start, middle and end of a file
func TestSnippet(t *testing.T) {
	path := createTestFile(t, "one\ntwo\nthree\nfour\nfive\nsix\n")

	p, err := New(1, 0)
	require.NoError(t, err)

	assert.Equal(t, "-> 1: one\n   2: two\n", p.Snippet(path, 1))
	assert.Equal(t, "   3: three\n-> 4: four\n   5: five\n", p.Snippet(path, 4))
	assert.Equal(t, "   5: five\n-> 6: six\n", p.Snippet(path, 6))
	assert.Empty(t, p.Snippet(path, 7))
	assert.Empty(t, p.Snippet(path, 0))
	assert.Empty(t, p.Snippet(filepath.Join(t.TempDir(), "missing"), 1))
}

// TestSnippet_DefaultsAndCRLF tests the default window and Windows line endings
func TestSnippet_DefaultsAndCRLF(t *testing.T) {
	path := createTestFile(t, "a\r\nb\r\nc\r\nd\r\ne\r\nf\r\ng\r\nh\r\n")

	p, err := New(-1, -1)
	require.NoError(t, err)

	want := "   2: b\n   3: c\n   4: d\n-> 5: e\n   6: f\n   7: g\n   8: h\n"
	assert.Equal(t, want, p.Snippet(path, 5))

	only, err := New(0, 8)
	require.NoError(t, err)
	assert.Equal(t, "-> 2: b\n", only.Snippet(path, 2))
}

// TestSnippet_Cache tests caching, invalidation and purge
func TestSnippet_Cache(t *testing.T) {
	path := createTestFile(t, "old line\n")
	other := createTestFile(t, "other\n")

	p, err := New(0, 16)
	require.NoError(t, err)

	assert.Equal(t, "-> 1: old line\n", p.Snippet(path, 1))
	assert.Equal(t, "-> 1: other\n", p.Snippet(other, 1))
	assert.Equal(t, 2, p.Len())

	require.NoError(t, os.WriteFile(path, []byte("new line\n"), 0644))
	assert.Equal(t, "-> 1: old line\n", p.Snippet(path, 1), "served from cache")

	p.Invalidate(path)
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, "-> 1: new line\n", p.Snippet(path, 1))

	p.Purge()
	assert.Equal(t, 0, p.Len())
}
