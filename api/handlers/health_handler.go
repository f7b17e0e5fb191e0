// api/handlers/health_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const appName = "SFSDataQueryEngine"

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "app": appName})
}
