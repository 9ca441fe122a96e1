// Package scripts discovers the collaborator scripts that make up the
// document pipeline.
package scripts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// DefaultExt is the script extension used when none is configured.
const DefaultExt = ".py"

// numberedPattern matches a leading digit run followed by '_' or '-'.
var numberedPattern = regexp.MustCompile(`^\s*(\d+)[_\-]`)

type candidate struct {
	path   string
	prefix string // digit run without leading zeros; empty when not numbered
	mtime  time.Time
}

// Locate picks the active script in dir. Files with a numeric prefix win
// (largest prefix, then newest); otherwise hint is used when present in dir;
// otherwise the most recently modified script. An empty string means dir
// holds no script with extension ext (or does not exist).
func Locate(dir, hint, ext string) (string, error) {
	if ext == "" {
		ext = DefaultExt
	}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}

		return "", fmt.Errorf("inspecting %q: %w", dir, err)
	}

	if !info.IsDir() {
		return "", nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("listing %q: %w", dir, err)
	}

	var all, numbered []candidate

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}

		c := candidate{path: filepath.Join(dir, e.Name())}

		// A vanished or unreadable file still counts; it just sorts as oldest.
		if fi, fiErr := e.Info(); fiErr == nil {
			c.mtime = fi.ModTime()
		}

		if m := numberedPattern.FindStringSubmatch(e.Name()); m != nil {
			c.prefix = trimZeros(m[1])
			numbered = append(numbered, c)
		}

		all = append(all, c)
	}

	if len(all) == 0 {
		return "", nil
	}

	if len(numbered) > 0 {
		sort.SliceStable(numbered, func(i, j int) bool {
			if cmp := compareDigits(numbered[i].prefix, numbered[j].prefix); cmp != 0 {
				return cmp > 0
			}

			return numbered[i].mtime.After(numbered[j].mtime)
		})

		return numbered[0].path, nil
	}

	if hint != "" {
		hintPath := filepath.Join(dir, hint)
		if _, statErr := os.Stat(hintPath); statErr == nil {
			return hintPath, nil
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].mtime.After(all[j].mtime)
	})

	return all[0].path, nil
}

// trimZeros strips leading zeros so that "007" and "7" compare equal.
func trimZeros(digits string) string {
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		return "0"
	}

	return trimmed
}

// compareDigits compares two zero-trimmed decimal strings numerically
// without overflowing on long prefixes.
func compareDigits(a, b string) int {
	if len(a) != len(b) {
		if len(a) > len(b) {
			return 1
		}

		return -1
	}

	return strings.Compare(a, b)
}
