// Package fingerprint computes content digests used to detect changes to
// watched files without keeping their bytes around.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// chunkSize is the read buffer used while streaming a file into the digest.
const chunkSize = 8 * 1024

// Fingerprint is the hex-encoded SHA-256 digest of a file's contents.
type Fingerprint string

// Missing is the fingerprint of a file that does not exist. It never collides
// with a real digest, not even the digest of an empty file.
const Missing Fingerprint = ""

// IsMissing reports whether f denotes an absent file.
func (f Fingerprint) IsMissing() bool { return f == Missing }

// Short returns the first 12 hex characters, for log output.
func (f Fingerprint) Short() string {
	if len(f) > 12 {
		return string(f[:12])
	}

	if f.IsMissing() {
		return "<missing>"
	}

	return string(f)
}

// File streams path through SHA-256. A file that does not exist yields
// Missing and a nil error; every other failure is returned.
func File(path string) (Fingerprint, error) {
	f, err := os.Open(path) //nolint:gosec // path is a user-selected watch target
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Missing, nil
		}

		return Missing, fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, chunkSize)

	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return Missing, fmt.Errorf("reading %q: %w", path, err)
	}

	return Fingerprint(hex.EncodeToString(h.Sum(nil))), nil
}
