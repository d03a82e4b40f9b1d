// Package digest computes the content digests used to detect changed files
// between publish runs.
//
// A digest depends on file bytes alone: the same bytes under a different path
// or name produce the same digest. Digests are hex-encoded BLAKE3-256 sums.
package digest

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"tutorialpub/internal/services"
)

// Size is the length of a hex-encoded digest.
const Size = 64

// Bytes returns the digest of data.
func Bytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Reader streams r through the hash function and returns its digest.
func Reader(r io.Reader) (string, error) {
	hasher := blake3.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// File computes the digest of the file at path. The file is streamed so memory
// stays constant regardless of size. Read failures are tagged services.ErrIO.
func File(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrIO, "digest", "open", path, err)
	}
	defer file.Close()

	sum, err := Reader(file)
	if err != nil {
		return "", services.Wrap(services.ErrIO, "digest", "read", path, err)
	}
	return sum, nil
}

// Valid reports whether value looks like a digest produced by this package.
func Valid(value string) bool {
	if len(value) != Size {
		return false
	}
	_, err := hex.DecodeString(value)
	return err == nil
}
