// Package handlers implements the read gateway endpoints.
//
// Endpoints:
//   - GET /api/v1/health - Health check status
//   - GET /api/v1/documents - Published documents with their metadata
//   - GET /api/v1/documents/:name - One document, reassembled and verified (?raw=1 for the body alone)
//   - GET /api/v1/publications - Publication ledger, newest first (?limit=N)
//   - GET /api/v1/publications/:id - One publication with its documents
//
// All endpoints except /health honour the optional X-API-Key header check.
//
// @title zonepress Read Gateway API
// @version 1.0
// @description Reads documents published as DNS TXT records, reassembled and hash-verified, and the publication ledger.
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8080
// @BasePath /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package handlers

import (
	"context"
	"log/slog"

	"github.com/jroosing/zonepress/internal/client"
	"github.com/jroosing/zonepress/internal/database"
)

//go:generate swag init --generalInfo base.go --dir .,../models,../../frontmatter --output ../docs --outputTypes go

// Ledger is the read side of the publication ledger.
type Ledger interface {
	ListPublications(ctx context.Context, limit int) ([]database.Publication, error)
	GetPublication(ctx context.Context, id int64) (database.Publication, error)
}

// Handler contains dependencies for API handlers.
type Handler struct {
	library client.Library
	ledger  Ledger
	logger  *slog.Logger
}

// New creates a Handler. ledger may be nil when no ledger is configured.
func New(library client.Library, ledger Ledger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		library: library,
		ledger:  ledger,
		logger:  logger,
	}
}
