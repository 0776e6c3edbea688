package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/quillcraft-golang/internal/billing"
	"github.com/01moynul/quillcraft-golang/internal/entitlement"
	"github.com/01moynul/quillcraft-golang/internal/logging"
	"github.com/01moynul/quillcraft-golang/internal/middleware"
	"github.com/01moynul/quillcraft-golang/internal/models"
	"github.com/01moynul/quillcraft-golang/internal/repository"
	"github.com/01moynul/quillcraft-golang/internal/revisions"
	"github.com/01moynul/quillcraft-golang/internal/services"
)

type AccountService interface {
	Register(ctx context.Context, email, password, fullName string) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Me(ctx context.Context, userID int64) (*models.User, error)
	Entitlements(ctx context.Context, userID int64) (*services.Entitlements, error)
	Dashboard(ctx context.Context, userID int64) (*services.Dashboard, error)
}

type WorkspaceService interface {
	CreateAgent(ctx context.Context, agent *models.Agent) error
	ListAgents(ctx context.Context, userID int64) ([]*models.Agent, error)
	GetAgent(ctx context.Context, userID, agentID int64) (*models.Agent, error)
	DeleteAgent(ctx context.Context, userID, agentID int64) error
	CreateTask(ctx context.Context, task *models.Task) error
	ListTasks(ctx context.Context, userID, agentID int64) ([]*models.Task, error)
	GetTask(ctx context.Context, userID, taskID int64) (*models.Task, error)
	DeleteTask(ctx context.Context, userID, taskID int64) error
}

type ContentService interface {
	History(ctx context.Context, userID, taskID int64) (*services.History, error)
	SaveEdit(ctx context.Context, userID, taskID int64, content, name string) (*services.History, error)
	Restore(ctx context.Context, userID, taskID int64, index int) (*services.History, error)
	Rename(ctx context.Context, userID, taskID int64, revisionID, name string) (*services.History, error)
	Delete(ctx context.Context, userID, taskID int64, index int) (*services.History, error)
	Generate(ctx context.Context, userID, taskID int64, instruction string) (*services.GenerationResult, error)
	Rephrase(ctx context.Context, userID, taskID int64, selection, instruction string) (*services.GenerationResult, error)
}

type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, user *models.User, interval billing.Interval) (string, error)
	CreatePortalSession(ctx context.Context, userID int64) (string, error)
}

type WebhookProcessor interface {
	Handle(ctx context.Context, payload []byte, sigHeader string) error
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Accounts  AccountService
	Workspace WorkspaceService
	Content   ContentService
	Checkout  CheckoutService
	Webhooks  WebhookProcessor
	Tiers     entitlement.TierTable
	Sessions  *entitlement.SessionTracker
	Logger    logging.Logger
}

// respondError maps service errors onto HTTP statuses.
func (h *Handlers) respondError(c *gin.Context, err error) {
	var (
		denied  *services.DeniedError
		invalid *services.InvalidInputError
	)
	switch {
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "reason": denied.Decision.Reason})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, repository.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "task was changed by another request; reload and retry"})
	case errors.Is(err, repository.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, revisions.ErrLastRevision), errors.Is(err, services.ErrNoContent):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, revisions.ErrIndexOutOfRange),
		errors.Is(err, services.ErrEmptySelection),
		errors.Is(err, services.ErrSelectionNotFound),
		errors.Is(err, billing.ErrInvalidInterval),
		errors.Is(err, billing.ErrNoCustomer),
		errors.Is(err, billing.ErrNoSubscription):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, billing.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.Logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// currentUser reads the id set by AuthMiddleware and writes 401 when missing.
func currentUser(c *gin.Context) (int64, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return userID, true
}

// paramID parses a positive integer path parameter and writes 400 on failure.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// paramIndex parses a non-negative revision index.
func paramIndex(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return 0, false
	}
	return idx, true
}
