package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/quillcraft-golang/internal/middleware"
)

// --- User Registration ---

// RegisterUserInput is accepted separately from models.User so clients can
// never set ids or hashes.
type RegisterUserInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register creates an account with a free-tier trial and signs it in.
func (h *Handlers) Register(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input RegisterUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Create user and trial ---
	sess, err := h.Accounts.Register(c.Request.Context(), input.Email, input.Password, input.FullName)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// 3. --- Send Success Response ---
	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created. Your free trial has started.",
		"token":   sess.Token,
		"user":    sess.User,
	})
}

// --- User Login ---

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.Accounts.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": sess.Token, "user": sess.User})
}

// Logout drops the session's token counter. The token itself stays valid
// until it expires.
func (h *Handlers) Logout(c *gin.Context) {
	if sid := c.GetString(middleware.SessionIDKey); sid != "" && h.Sessions != nil {
		h.Sessions.End(sid)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetMe returns the signed-in user.
func (h *Handlers) GetMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := h.Accounts.Me(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetEntitlements reports plan, usage and what the user may create next.
func (h *Handlers) GetEntitlements(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ent, err := h.Accounts.Entitlements(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ent)
}

// ListPlans is public: the tier table with prices and allotments.
func (h *Handlers) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.Tiers.List()})
}
