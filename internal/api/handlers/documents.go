package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/zonepress/internal/api/models"
	"github.com/jroosing/zonepress/internal/client"
	"github.com/jroosing/zonepress/internal/records"
)

// VerifiedHeader carries the verification result on raw document responses.
const VerifiedHeader = "X-Zonepress-Verified"

// ListDocuments returns every document the library can enumerate.
//
// @Summary List published documents
// @Description Lists documents found in the zone file, or named by the latest publication when reading over DNS
// @Tags documents
// @Produce json
// @Success 200 {object} models.DocumentListResponse
// @Failure 501 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /documents [get]
func (h *Handler) ListDocuments(c *gin.Context) {
	entries, err := h.library.List(c.Request.Context())
	if errors.Is(err, client.ErrListUnsupported) {
		c.JSON(http.StatusNotImplemented, models.ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("failed to list documents", "error", err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "failed to list documents"})
		return
	}

	docs := make([]models.DocumentSummary, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, summary(e.Name, e.Index))
	}
	c.JSON(http.StatusOK, models.DocumentListResponse{Documents: docs, Count: len(docs)})
}

// GetDocument reassembles one document. With ?raw=1 the body is returned as
// is under its published mime type.
//
// @Summary Get a document
// @Description Fetches, reassembles and verifies one document. With raw=1 the body is returned under its published mime type and X-Zonepress-Verified carries the result.
// @Tags documents
// @Produce json
// @Param name path string true "Document path or record name"
// @Param raw query bool false "Return the body alone"
// @Success 200 {object} models.DocumentResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /documents/{name} [get]
func (h *Handler) GetDocument(c *gin.Context) {
	name := c.Param("name")
	doc, err := h.library.Fetch(c.Request.Context(), name)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, client.ErrNotFound) {
			status = http.StatusNotFound
		}
		h.logger.Debug("document fetch failed", "name", name, "error", err)
		c.JSON(status, models.ErrorResponse{Error: err.Error()})
		return
	}

	if raw, _ := strconv.ParseBool(c.Query("raw")); raw {
		c.Header(VerifiedHeader, strconv.FormatBool(doc.Verified))
		c.Data(http.StatusOK, doc.Index.MimeType, doc.Body)
		return
	}

	resp := models.DocumentResponse{
		DocumentSummary: summary(doc.Name, doc.Index),
		Verified:        doc.Verified,
		Encoding:        models.EncodingUTF8,
		Content:         string(doc.Body),
	}
	if !utf8.Valid(doc.Body) {
		resp.Encoding = models.EncodingBase64
		resp.Content = base64.StdEncoding.EncodeToString(doc.Body)
	}
	c.JSON(http.StatusOK, resp)
}

func summary(name string, ix records.Index) models.DocumentSummary {
	return models.DocumentSummary{
		Name:          name,
		MimeType:      ix.MimeType,
		ChunkCount:    ix.ChunkCount,
		HashAlgorithm: ix.HashAlgorithm,
		Hash:          ix.Hash,
		Metadata:      ix.Metadata,
	}
}
