// Package digest provides the content fingerprints used to compare local
// files against the manifest and to verify downloaded bytes.
package digest

import (
	"crypto/md5" //nolint:gosec // G501: manifest format publishes MD5 digests
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

// Algorithm names a digest function.
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA256 Algorithm = "sha256"
	BLAKE3 Algorithm = "blake3"
)

// Default is the algorithm the manifest endpoint publishes.
const Default = MD5

const bufSize = 32 * 1024

// Parse validates an algorithm name. The empty string selects Default.
func Parse(name string) (Algorithm, error) {
	switch alg := Algorithm(strings.ToLower(strings.TrimSpace(name))); alg {
	case "":
		return Default, nil
	case MD5, SHA256, BLAKE3:
		return alg, nil
	default:
		return "", fmt.Errorf("unknown digest algorithm %q (use md5, sha256 or blake3)", name)
	}
}

// New returns a fresh hash.Hash for the algorithm.
func (a Algorithm) New() hash.Hash {
	switch a {
	case SHA256:
		return sha256.New()
	case BLAKE3:
		return blake3.New()
	default:
		return md5.New() //nolint:gosec // G401: see import
	}
}

func (a Algorithm) String() string {
	if a == "" {
		return string(Default)
	}
	return string(a)
}

// Hasher accumulates a digest over a stream of chunks.
type Hasher struct {
	h hash.Hash
}

// NewHasher starts an empty digest.
func NewHasher(alg Algorithm) *Hasher {
	return &Hasher{h: alg.New()}
}

// Write feeds p into the digest. It never returns an error.
func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Sum returns the hex-encoded digest of everything written so far.
func (h *Hasher) Sum() string {
	return hex.EncodeToString(h.h.Sum(nil))
}

// HashReader streams r through the algorithm, returning the hex digest.
func HashReader(alg Algorithm, r io.Reader) (string, error) {
	h := NewHasher(alg)
	buf := make([]byte, bufSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return h.Sum(), nil
}

// HashFile computes the digest of the file at path on fs.
func HashFile(fs afero.Fs, alg Algorithm, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sum, err := HashReader(alg, f)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return sum, nil
}

// Equal compares two hex digests, ignoring case and surrounding space.
func Equal(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
