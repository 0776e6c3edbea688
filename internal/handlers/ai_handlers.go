package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/quillcraft-golang/internal/services"
)

type GenerateInput struct {
	Instruction string `json:"instruction" binding:"max=2000"`
}

// Generate drafts the task, or revises it when an instruction is given.
func (h *Handlers) Generate(c *gin.Context) {
	// 1. Get User Context (set by AuthMiddleware)
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}

	// 2. Parse Input (the body is optional)
	var input GenerateInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	// 3. Call the AI Service (The "Brain")
	res, err := h.Content.Generate(c.Request.Context(), userID, taskID, input.Instruction)
	h.respondGeneration(c, res, err)
}

type RephraseInput struct {
	Selection   string `json:"selection" binding:"required"`
	Instruction string `json:"instruction" binding:"max=2000"`
}

// Rephrase rewrites a selected passage of the current content.
func (h *Handlers) Rephrase(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input RephraseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.Content.Rephrase(c.Request.Context(), userID, taskID, input.Selection, input.Instruction)
	h.respondGeneration(c, res, err)
}

// respondGeneration keeps the revision when only usage accounting failed.
func (h *Handlers) respondGeneration(c *gin.Context, res *services.GenerationResult, err error) {
	if err != nil {
		if errors.Is(err, services.ErrUsageNotRecorded) && res != nil {
			c.JSON(http.StatusCreated, gin.H{
				"result":  res,
				"warning": services.ErrUsageNotRecorded.Error(),
			})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"result": res})
}
