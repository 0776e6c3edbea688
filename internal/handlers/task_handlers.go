package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/quillcraft-golang/internal/models"
)

type TaskInput struct {
	AgentID         int64  `json:"agentId" binding:"required"`
	Title           string `json:"title" binding:"required,max=255"`
	Brief           string `json:"brief"`
	Keywords        string `json:"keywords" binding:"max=500"`
	TargetWordCount int    `json:"targetWordCount" binding:"min=0,max=20000"`
}

// CreateTask opens a new writing task for one of the user's agents.
func (h *Handlers) CreateTask(c *gin.Context) {
	// 1. Get User Context (set by AuthMiddleware)
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	// 2. Parse Input
	var input TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 3. Create under the plan limit
	task := &models.Task{
		UserID:          userID,
		AgentID:         input.AgentID,
		Title:           input.Title,
		Brief:           input.Brief,
		Keywords:        input.Keywords,
		TargetWordCount: input.TargetWordCount,
	}
	if err := h.Workspace.CreateTask(c.Request.Context(), task); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// ListTasks accepts an optional ?agentId= filter.
func (h *Handlers) ListTasks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var agentID int64
	if raw := c.Query("agentId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agentId"})
			return
		}
		agentID = id
	}

	tasks, err := h.Workspace.ListTasks(c.Request.Context(), userID, agentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *Handlers) GetTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	task, err := h.Workspace.GetTask(c.Request.Context(), userID, taskID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *Handlers) DeleteTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Workspace.DeleteTask(c.Request.Context(), userID, taskID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}
