package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler checks the health status of the service
// @Summary      Health check
// @Description  Report the state of the local database, active sessions and SQL Server
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "Service health status"
// @Router       /health [get]
func (h *Handlers) HealthHandler(c *gin.Context) {
	status := gin.H{
		"status":     "healthy",
		"db":         "connected",
		"sessions":   h.sessions.Len(),
		"sql_server": "not_configured",
	}
	if h.db == nil {
		status["db"] = "disabled"
	}

	if h.sqlService != nil {
		status["sql_server"] = "disconnected"
		if h.sqlService.IsConnected(c.Request.Context()) {
			status["sql_server"] = "connected"
		}
	}

	c.JSON(http.StatusOK, status)
}
