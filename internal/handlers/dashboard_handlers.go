package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Account Dashboard ---
//

// GetDashboard returns plan, limits and AI usage for the dashboard.
// GET /v1/me/dashboard
func (h *Handlers) GetDashboard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	dash, err := h.Accounts.Dashboard(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dash)
}
