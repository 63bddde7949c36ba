package records

import (
	"fmt"

	"github.com/jroosing/zonepress/internal/content"
)

// DefaultTTL is the TTL of generated records when none is configured.
const DefaultTTL = 60

// DefaultChunkLength is the base64 chunk size when none is configured.
const DefaultChunkLength = 250

// Set holds the records of one document in publication order.
type Set struct {
	Document content.Document
	Index    Index
	Records  []Record
}

// Metadata returns the metadata record.
func (s Set) Metadata() Record { return s.Records[0] }

// Chunks returns the chunk records in index order.
func (s Set) Chunks() []Record { return s.Records[1:] }

// Builder turns documents into record sets.
type Builder struct {
	TTL         uint32
	ChunkLength int
	Algorithm   content.Algorithm
}

// NewBuilder validates the settings and returns a Builder.
func NewBuilder(ttl uint32, chunkLength int, algorithm string) (Builder, error) {
	if err := ValidateChunkLength(chunkLength); err != nil {
		return Builder{}, err
	}
	alg, err := content.LookupAlgorithm(algorithm)
	if err != nil {
		return Builder{}, err
	}
	if err := ValidateAlgorithm(alg); err != nil {
		return Builder{}, err
	}
	return Builder{TTL: ttl, ChunkLength: chunkLength, Algorithm: alg}, nil
}

// Build returns the metadata record followed by chunk records 0..N-1.
func (b Builder) Build(doc content.Document) (Set, error) {
	chunks, err := content.Chunk(doc.Body, b.ChunkLength)
	if err != nil {
		return Set{}, fmt.Errorf("%s: %w", doc.Path, err)
	}
	if len(chunks) > MaxChunkCount {
		return Set{}, fmt.Errorf("%s: %w: %d chunks, limit %d", doc.Path, ErrTooManyChunks, len(chunks), MaxChunkCount)
	}
	hash := b.Algorithm.Hash(doc.Body)
	ix := Index{
		MimeType:      doc.MimeType,
		ChunkCount:    len(chunks),
		HashAlgorithm: b.Algorithm.Name,
		Hash:          hash,
		Metadata:      doc.Metadata,
	}

	meta, err := NewMetadataRecord(doc, ix, b.TTL)
	if err != nil {
		return Set{}, err
	}
	recs := make([]Record, 0, len(chunks)+1)
	recs = append(recs, meta)
	for i, chunk := range chunks {
		rec, err := NewChunkRecord(i, chunk, hash, b.TTL)
		if err != nil {
			return Set{}, fmt.Errorf("%s: %w", doc.Path, err)
		}
		recs = append(recs, rec)
	}
	return Set{Document: doc, Index: ix, Records: recs}, nil
}
