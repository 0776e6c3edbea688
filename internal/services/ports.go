// Package services runs the content and workspace flows: check entitlements,
// mutate, record a revision, then persist.
package services

import (
	"context"
	"time"

	"github.com/01moynul/quillcraft-golang/internal/models"
	"github.com/01moynul/quillcraft-golang/internal/repository"
)

type RevisionStorage interface {
	LoadRevisions(ctx context.Context, taskID int64) (*repository.RevisionSet, error)
	SaveRevisions(ctx context.Context, taskID int64, revs []models.Revision, current int, expectedVersion int64) (int64, error)
	SaveTaskContent(ctx context.Context, taskID int64, content string) error
}

type SubscriptionStorage interface {
	LoadSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
	SaveSubscription(ctx context.Context, userID int64, upd models.SubscriptionUpdate) error
	AddTokensUsed(ctx context.Context, userID int64, n int) error
}

type TaskStorage interface {
	Create(ctx context.Context, task *models.Task) error
	Get(ctx context.Context, userID, taskID int64) (*models.Task, error)
	List(ctx context.Context, userID, agentID int64) ([]*models.Task, error)
	Count(ctx context.Context, userID int64) (int, error)
	UpdateStatus(ctx context.Context, taskID int64, status models.TaskStatus) error
	Delete(ctx context.Context, userID, taskID int64) error
}

type AgentStorage interface {
	Create(ctx context.Context, agent *models.Agent) error
	Get(ctx context.Context, userID, agentID int64) (*models.Agent, error)
	List(ctx context.Context, userID int64) ([]*models.Agent, error)
	Count(ctx context.Context, userID int64) (int, error)
	Delete(ctx context.Context, userID, agentID int64) error
}

type UserStorage interface {
	CreateWithTrial(ctx context.Context, user *models.User, sub *models.Subscription) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
}

type UsageRecorder interface {
	Record(ctx context.Context, u *models.AIUsage) error
}

type UsageReader interface {
	Summary(ctx context.Context, userID int64, since time.Time) ([]models.UsageSummary, error)
	Recent(ctx context.Context, userID int64, limit int) ([]*models.AIUsage, error)
}
