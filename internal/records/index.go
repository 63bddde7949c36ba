package records

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jroosing/zonepress/internal/frontmatter"
)

// Keys of the metadata record content. The encoder and every decoder use the
// same names; "ha" carries the hash algorithm.
const (
	KeyMimeType      = "t"
	KeyChunkCount    = "c"
	KeyHashAlgorithm = "ha"
	KeyHash          = "h"
	KeyMetadata      = "m"
)

// MaxChunkCount bounds the chunks of one document. Readers reject larger
// counts before fetching anything.
const MaxChunkCount = 1 << 16

var (
	// ErrInvalidIndex is returned when metadata record content cannot be decoded.
	ErrInvalidIndex = errors.New("invalid metadata record")
	// ErrTooManyChunks is returned when a document needs more than MaxChunkCount chunks.
	ErrTooManyChunks = errors.New("too many chunks")
)

// Index is the decoded content of a document's metadata record. It tells a
// reader how many chunks to fetch and which hash they must match.
type Index struct {
	MimeType      string
	ChunkCount    int
	HashAlgorithm string
	Hash          string
	Metadata      frontmatter.Metadata
}

// String renders t=<mime>;c=<count>;ha=<alg>;h=<hex>;m=<base64 json>.
func (ix Index) String() string {
	// Metadata.MarshalJSON only fails on unencodable strings, which json
	// replaces rather than rejects.
	meta, _ := ix.Metadata.MarshalJSON()
	var b strings.Builder
	b.WriteString(KeyMimeType + "=" + ix.MimeType)
	b.WriteString(";" + KeyChunkCount + "=" + strconv.Itoa(ix.ChunkCount))
	b.WriteString(";" + KeyHashAlgorithm + "=" + ix.HashAlgorithm)
	b.WriteString(";" + KeyHash + "=" + ix.Hash)
	b.WriteString(";" + KeyMetadata + "=" + base64.StdEncoding.EncodeToString(meta))
	return b.String()
}

// ParseIndex decodes metadata record content. Unknown keys are ignored; a
// missing "ha" leaves HashAlgorithm empty.
func ParseIndex(s string) (Index, error) {
	var ix Index
	seen := make(map[string]bool, 5)
	for _, part := range strings.Split(strings.TrimSpace(s), ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return Index{}, fmt.Errorf("%w: field %q has no value", ErrInvalidIndex, part)
		}
		key = strings.TrimSpace(key)
		seen[key] = true
		switch key {
		case KeyMimeType:
			ix.MimeType = value
		case KeyChunkCount:
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return Index{}, fmt.Errorf("%w: chunk count %q", ErrInvalidIndex, value)
			}
			if n > MaxChunkCount {
				return Index{}, fmt.Errorf("%w: chunk count %d exceeds %d", ErrInvalidIndex, n, MaxChunkCount)
			}
			ix.ChunkCount = n
		case KeyHashAlgorithm:
			ix.HashAlgorithm = value
		case KeyHash:
			ix.Hash = strings.ToLower(value)
		case KeyMetadata:
			raw, err := base64.StdEncoding.DecodeString(value)
			if err != nil {
				return Index{}, fmt.Errorf("%w: metadata encoding: %v", ErrInvalidIndex, err)
			}
			if err := json.Unmarshal(raw, &ix.Metadata); err != nil {
				return Index{}, fmt.Errorf("%w: metadata json: %v", ErrInvalidIndex, err)
			}
		}
	}
	for _, required := range []string{KeyMimeType, KeyChunkCount, KeyHash} {
		if !seen[required] {
			return Index{}, fmt.Errorf("%w: missing %q", ErrInvalidIndex, required)
		}
	}
	return ix, nil
}
