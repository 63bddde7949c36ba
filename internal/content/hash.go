package content

import (
	"crypto/sha1" //nolint:gosec // SHA-1 is a published content checksum, not a security boundary
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"
)

// ErrUnknownAlgorithm is returned when a hash algorithm name is not registered.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// Algorithm is a named digest function. Names follow the WebCrypto
// identifiers so browser clients can pass them to crypto.subtle.digest.
type Algorithm struct {
	Name string
	New  func() hash.Hash
	// HexLen is the length of the hex encoded digest.
	HexLen int
}

// DefaultAlgorithm is used for encoding when none is configured.
// Its 40-character hex digest fits in a single DNS label.
const DefaultAlgorithm = "SHA-1"

var algorithms = []Algorithm{
	{Name: "SHA-1", New: sha1.New, HexLen: sha1.Size * 2},
	{Name: "SHA-256", New: sha256.New, HexLen: sha256.Size * 2},
	{Name: "SHA-384", New: sha512.New384, HexLen: sha512.Size384 * 2},
	{Name: "SHA-512", New: sha512.New, HexLen: sha512.Size * 2},
}

// LookupAlgorithm finds a registered algorithm by name, ignoring case.
func LookupAlgorithm(name string) (Algorithm, error) {
	for _, a := range algorithms {
		if strings.EqualFold(a.Name, strings.TrimSpace(name)) {
			return a, nil
		}
	}
	return Algorithm{}, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Algorithms returns the names of all registered algorithms.
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for _, a := range algorithms {
		names = append(names, a.Name)
	}
	return names
}

// Sum returns the raw digest of data.
func (a Algorithm) Sum(data []byte) []byte {
	h := a.New()
	h.Write(data)
	return h.Sum(nil)
}

// Hash returns the lowercase hex digest of data.
func (a Algorithm) Hash(data []byte) string {
	return hex.EncodeToString(a.Sum(data))
}
