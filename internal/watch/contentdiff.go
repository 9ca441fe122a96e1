package watch

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// Snapshots above this size are not kept and changes to them are not diffed.
const maxSnapshotBytes = 1 << 20

// maxDiffLines caps the diff attached to a change event.
const maxDiffLines = 200

// contentCache keeps the last text content of each target. A nil cache is
// valid and does nothing.
type contentCache struct {
	data map[string]string
}

func newContentCache() *contentCache {
	return &contentCache{data: make(map[string]string)}
}

// store snapshots path if it is small UTF-8 text.
func (c *contentCache) store(path string) {
	if c == nil {
		return
	}

	text, ok := readText(path)
	if !ok {
		delete(c.data, path)
		return
	}

	c.data[path] = text
}

func (c *contentCache) forget(path string) {
	if c == nil {
		return
	}

	delete(c.data, path)
}

// diff returns a unified diff between the stored snapshot and the current
// content of path, then replaces the snapshot. It returns "" when either
// side is unavailable.
func (c *contentCache) diff(path string) string {
	if c == nil {
		return ""
	}

	prev, hadPrev := c.data[path]

	cur, ok := readText(path)
	if !ok {
		delete(c.data, path)
		return ""
	}

	c.data[path] = cur

	if !hadPrev {
		return ""
	}

	return unifiedDiff(path, prev, cur)
}

func readText(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.Size() > maxSnapshotBytes {
		return "", false
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is a watch target
	if err != nil || !utf8.Valid(data) {
		return "", false
	}

	return string(data), true
}

// unifiedDiff renders the change between two versions of a file.
func unifiedDiff(path, oldText, newText string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldText),
		B:        difflib.SplitLines(newText),
		FromFile: path + " (before)",
		ToFile:   path + " (after)",
		Context:  2,
	}

	unified, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}

	lines := strings.Split(strings.TrimRight(unified, "\n"), "\n")
	if len(lines) > maxDiffLines {
		lines = append(lines[:maxDiffLines], "... (diff truncated)")
	}

	return strings.Join(lines, "\n")
}
