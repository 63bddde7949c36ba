package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/zonepress/internal/api/models"
)

// Health returns 200 while the gateway is serving.
//
// @Summary Health check
// @Description Returns gateway health status
// @Tags system
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}
