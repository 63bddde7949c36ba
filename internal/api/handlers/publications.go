package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/zonepress/internal/api/models"
	"github.com/jroosing/zonepress/internal/database"
)

const defaultPublicationLimit = 20

// ListPublications returns ledger entries, newest first.
//
// @Summary List publications
// @Description Returns publication ledger entries, newest first
// @Tags publications
// @Produce json
// @Param limit query int false "Maximum entries (0 for all)" default(20)
// @Success 200 {object} models.PublicationListResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 501 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /publications [get]
func (h *Handler) ListPublications(c *gin.Context) {
	if h.ledger == nil {
		c.JSON(http.StatusNotImplemented, models.ErrorResponse{Error: "publication ledger not configured"})
		return
	}
	limit := defaultPublicationLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	pubs, err := h.ledger.ListPublications(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list publications", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list publications"})
		return
	}
	out := make([]models.PublicationSummary, 0, len(pubs))
	for _, p := range pubs {
		out = append(out, publicationSummary(p))
	}
	c.JSON(http.StatusOK, models.PublicationListResponse{Publications: out, Count: len(out)})
}

// GetPublication returns one ledger entry with its documents.
//
// @Summary Get a publication
// @Description Returns one ledger entry with the documents it published
// @Tags publications
// @Produce json
// @Param id path int true "Publication ID"
// @Success 200 {object} models.PublicationDetailResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 501 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /publications/{id} [get]
func (h *Handler) GetPublication(c *gin.Context) {
	if h.ledger == nil {
		c.JSON(http.StatusNotImplemented, models.ErrorResponse{Error: "publication ledger not configured"})
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid publication id"})
		return
	}

	p, err := h.ledger.GetPublication(c.Request.Context(), id)
	if errors.Is(err, database.ErrPublicationNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("failed to get publication", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get publication"})
		return
	}

	resp := models.PublicationDetailResponse{
		PublicationSummary: publicationSummary(p),
		Documents:          make([]models.PublishedDocument, 0, len(p.Documents)),
	}
	for _, d := range p.Documents {
		resp.Documents = append(resp.Documents, models.PublishedDocument{
			Name:          d.Name,
			Path:          d.Path,
			MimeType:      d.MimeType,
			HashAlgorithm: d.HashAlgorithm,
			Hash:          d.Hash,
			ChunkCount:    d.ChunkCount,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func publicationSummary(p database.Publication) models.PublicationSummary {
	return models.PublicationSummary{
		ID:             p.ID,
		ZoneFile:       p.ZoneFile,
		Origin:         p.Origin,
		Serial:         p.Serial,
		PreviousSerial: p.PreviousSerial,
		Changed:        p.Changed,
		Bumped:         p.Bumped,
		PublishedAt:    p.PublishedAt,
	}
}
