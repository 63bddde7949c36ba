package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"github.com/jroosing/zonepress/internal/api/models"
)

// MountStatic serves dir at "/" for a browser-side reader. Unknown non-API
// paths fall back to index.html so client-side routes work.
func MountStatic(r *gin.Engine, dir string) {
	fs := static.LocalFile(dir, false)
	r.Use(static.Serve("/", fs))

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") || !fs.Exists("/", "/index.html") {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	})
}
