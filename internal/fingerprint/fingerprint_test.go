package fingerprint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFile_MissingFile(t *testing.T) {
	fp, err := File(filepath.Join(t.TempDir(), "nope.txt"))
	require.NoError(t, err)
	assert.True(t, fp.IsMissing())
}

func TestFile_Deterministic(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	writeFile(t, a, "hello world")
	writeFile(t, b, "hello world")

	fa, err := File(a)
	require.NoError(t, err)
	fb, err := File(b)
	require.NoError(t, err)

	assert.Equal(t, fa, fb)
	assert.Len(t, string(fa), 64)
}

func TestFile_ChangesWithContent(t *testing.T) {
	p := filepath.Join(t.TempDir(), "doc.html")
	writeFile(t, p, "<p>one</p>")

	before, err := File(p)
	require.NoError(t, err)

	writeFile(t, p, "<p>two</p>")

	after, err := File(p)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestFile_EmptyFileIsNotMissing(t *testing.T) {
	p := filepath.Join(t.TempDir(), "empty")
	writeFile(t, p, "")

	fp, err := File(p)
	require.NoError(t, err)
	assert.False(t, fp.IsMissing())
	assert.Equal(t, Fingerprint("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"), fp)
}

func TestFile_LargerThanChunk(t *testing.T) {
	p := filepath.Join(t.TempDir(), "big.txt")
	writeFile(t, p, strings.Repeat("x", 3*chunkSize+17))

	fp1, err := File(p)
	require.NoError(t, err)

	writeFile(t, p, strings.Repeat("x", 3*chunkSize+16)+"y")

	fp2, err := File(p)
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp2)
}

func TestFile_DirectoryIsError(t *testing.T) {
	_, err := File(t.TempDir())
	require.Error(t, err)
}

func TestShort(t *testing.T) {
	assert.Equal(t, "<missing>", Missing.Short())
	assert.Equal(t, "abc", Fingerprint("abc").Short())
	assert.Equal(t, "0123456789ab", Fingerprint("0123456789abcdef").Short())
}
