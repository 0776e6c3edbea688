package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListRevisions returns the task's history with a grew/shrank/same hint per entry.
func (h *Handlers) ListRevisions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	hist, err := h.Content.History(c.Request.Context(), userID, taskID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

type SaveRevisionInput struct {
	Content string `json:"content"`
	Name    string `json:"name" binding:"max=100"`
}

// SaveRevision records the editor's text as a user edit.
func (h *Handlers) SaveRevision(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input SaveRevisionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hist, err := h.Content.SaveEdit(c.Request.Context(), userID, taskID, input.Content, input.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hist)
}

// RestoreRevision makes an older revision current. Nothing is appended.
func (h *Handlers) RestoreRevision(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	index, ok := paramIndex(c)
	if !ok {
		return
	}
	hist, err := h.Content.Restore(c.Request.Context(), userID, taskID, index)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

type RenameRevisionInput struct {
	Name string `json:"name" binding:"max=100"`
}

func (h *Handlers) RenameRevision(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input RenameRevisionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hist, err := h.Content.Rename(c.Request.Context(), userID, taskID, c.Param("revisionId"), input.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

func (h *Handlers) DeleteRevision(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	index, ok := paramIndex(c)
	if !ok {
		return
	}
	hist, err := h.Content.Delete(c.Request.Context(), userID, taskID, index)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}
