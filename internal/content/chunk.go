package content

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrInvalidChunkLength is returned for a chunk length below 1.
var ErrInvalidChunkLength = errors.New("chunk length must be at least 1")

// Encode returns the padded standard base64 encoding of body.
func Encode(body []byte) string {
	return base64.StdEncoding.EncodeToString(body)
}

// Chunk base64-encodes body once and slices the result, left to right, into
// pieces of at most maxLen characters. Only the last piece may be shorter.
// An empty body yields no chunks.
func Chunk(body []byte, maxLen int) ([]string, error) {
	if maxLen < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChunkLength, maxLen)
	}
	encoded := Encode(body)
	n := ChunkCount(len(encoded), maxLen)
	chunks := make([]string, 0, n)
	for start := 0; start < len(encoded); start += maxLen {
		end := min(start+maxLen, len(encoded))
		chunks = append(chunks, encoded[start:end])
	}
	return chunks, nil
}

// ChunkCount returns ceil(encodedLen / maxLen).
func ChunkCount(encodedLen, maxLen int) int {
	if maxLen < 1 || encodedLen <= 0 {
		return 0
	}
	return (encodedLen + maxLen - 1) / maxLen
}
