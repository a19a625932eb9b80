// Package docs serves the API reference. The OpenAPI document is
// embedded at build time so the binary is self-contained.
package docs

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed openapi.json
var openapiSpec []byte

//go:embed viewer.html
var viewerPage []byte

// Register mounts the docs routes on the given router group
func Register(r *gin.RouterGroup) {
	r.GET("/docs", serveViewer)
	r.GET("/docs/openapi.json", serveSpec)
}

func serveViewer(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", viewerPage)
}

func serveSpec(c *gin.Context) {
	c.Data(http.StatusOK, "application/json", openapiSpec)
}
