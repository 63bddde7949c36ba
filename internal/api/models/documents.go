package models

import (
	"github.com/jroosing/zonepress/internal/frontmatter"
)

// Content encodings of DocumentResponse.Content.
const (
	EncodingUTF8   = "utf-8"
	EncodingBase64 = "base64"
)

// DocumentSummary describes a published document without its content.
type DocumentSummary struct {
	Name          string               `json:"name"`
	MimeType      string               `json:"mime_type"`
	ChunkCount    int                  `json:"chunk_count"`
	HashAlgorithm string               `json:"hash_algorithm,omitempty"`
	Hash          string               `json:"hash"`
	Metadata      frontmatter.Metadata `json:"metadata"`
}

// DocumentListResponse contains the published documents.
type DocumentListResponse struct {
	Documents []DocumentSummary `json:"documents"`
	Count     int               `json:"count"`
}

// DocumentResponse is a document read back from DNS.
type DocumentResponse struct {
	DocumentSummary
	// Verified reports whether the content matched the published hash.
	Verified bool   `json:"verified"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}
