package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/quillcraft-golang/internal/models"
)

// AgentInput is the writer persona a user configures.
type AgentInput struct {
	Name         string `json:"name" binding:"required,max=100"`
	Role         string `json:"role" binding:"max=100"`
	Tone         string `json:"tone" binding:"max=100"`
	Instructions string `json:"instructions" binding:"max=4000"`
}

// CreateAgent adds a persona if the plan's agent limit allows it.
func (h *Handlers) CreateAgent(c *gin.Context) {
	// 1. Get User Context (set by AuthMiddleware)
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	// 2. Parse Input
	var input AgentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 3. Create under the plan limit
	agent := &models.Agent{
		UserID:       userID,
		Name:         input.Name,
		Role:         input.Role,
		Tone:         input.Tone,
		Instructions: input.Instructions,
	}
	if err := h.Workspace.CreateAgent(c.Request.Context(), agent); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"agent": agent})
}

func (h *Handlers) ListAgents(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	agents, err := h.Workspace.ListAgents(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if agents == nil {
		agents = []*models.Agent{}
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

func (h *Handlers) GetAgent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	agentID, ok := paramID(c, "id")
	if !ok {
		return
	}
	agent, err := h.Workspace.GetAgent(c.Request.Context(), userID, agentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agent": agent})
}

func (h *Handlers) DeleteAgent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	agentID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Workspace.DeleteAgent(c.Request.Context(), userID, agentID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Agent deleted"})
}
