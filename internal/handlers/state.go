package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Controller state
// @Description  Same payload as the getAll macro, as JSON.
// @Tags         controller
// @Produce      json
// @Success      200  {object}  irrigation_panel.Snapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Snapshot())
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
