package models

import "time"

// PublicationSummary is one ledger entry.
type PublicationSummary struct {
	ID             int64     `json:"id"`
	ZoneFile       string    `json:"zone_file"`
	Origin         string    `json:"origin"`
	Serial         string    `json:"serial"`
	PreviousSerial string    `json:"previous_serial"`
	Changed        bool      `json:"changed"`
	Bumped         bool      `json:"bumped"`
	PublishedAt    time.Time `json:"published_at"`
}

// PublishedDocument is a document as written by a publication.
type PublishedDocument struct {
	Name          string `json:"name"`
	Path          string `json:"path"`
	MimeType      string `json:"mime_type"`
	HashAlgorithm string `json:"hash_algorithm"`
	Hash          string `json:"hash"`
	ChunkCount    int    `json:"chunk_count"`
}

// PublicationListResponse contains ledger entries, newest first.
type PublicationListResponse struct {
	Publications []PublicationSummary `json:"publications"`
	Count        int                  `json:"count"`
}

// PublicationDetailResponse is one ledger entry with its documents.
type PublicationDetailResponse struct {
	PublicationSummary
	Documents []PublishedDocument `json:"documents"`
}
