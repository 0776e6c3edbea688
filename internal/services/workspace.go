package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/01moynul/quillcraft-golang/internal/entitlement"
	"github.com/01moynul/quillcraft-golang/internal/logging"
	"github.com/01moynul/quillcraft-golang/internal/models"
)

// WorkspaceService manages a user's agents and tasks under plan limits.
type WorkspaceService struct {
	agents AgentStorage
	tasks  TaskStorage
	subs   SubscriptionStorage
	gate   *entitlement.Gate
	logger logging.Logger

	// Count-then-create runs under a per-user lock so concurrent creates
	// cannot both pass the limit check.
	locks *keyedMutex
}

func NewWorkspaceService(agents AgentStorage, tasks TaskStorage, subs SubscriptionStorage, gate *entitlement.Gate, logger logging.Logger) *WorkspaceService {
	return &WorkspaceService{
		agents: agents,
		tasks:  tasks,
		subs:   subs,
		gate:   gate,
		logger: logger,
		locks:  newKeyedMutex(),
	}
}

// InvalidInputError is returned when a create request is missing fields.
type InvalidInputError struct {
	Field string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

func (s *WorkspaceService) CreateAgent(ctx context.Context, agent *models.Agent) error {
	if strings.TrimSpace(agent.Name) == "" {
		return &InvalidInputError{Field: "name"}
	}

	unlock := s.locks.Lock(agent.UserID)
	defer unlock()

	sub, err := s.subs.LoadSubscription(ctx, agent.UserID)
	if err != nil {
		return fmt.Errorf("load subscription: %w", err)
	}
	count, err := s.agents.Count(ctx, agent.UserID)
	if err != nil {
		return fmt.Errorf("count agents: %w", err)
	}
	if d := s.gate.CanCreateAgent(sub, count); !d.Allowed {
		return denied(d)
	}

	if err := s.agents.Create(ctx, agent); err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	s.logger.Info(ctx, "agent created", "user_id", agent.UserID, "agent_id", agent.ID)
	return nil
}

func (s *WorkspaceService) ListAgents(ctx context.Context, userID int64) ([]*models.Agent, error) {
	return s.agents.List(ctx, userID)
}

func (s *WorkspaceService) GetAgent(ctx context.Context, userID, agentID int64) (*models.Agent, error) {
	return s.agents.Get(ctx, userID, agentID)
}

func (s *WorkspaceService) DeleteAgent(ctx context.Context, userID, agentID int64) error {
	return s.agents.Delete(ctx, userID, agentID)
}

// CreateTask checks the plan's task limit and that the agent belongs to the
// user before creating.
func (s *WorkspaceService) CreateTask(ctx context.Context, task *models.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return &InvalidInputError{Field: "title"}
	}
	if task.AgentID == 0 {
		return &InvalidInputError{Field: "agentId"}
	}

	unlock := s.locks.Lock(task.UserID)
	defer unlock()

	if _, err := s.agents.Get(ctx, task.UserID, task.AgentID); err != nil {
		return fmt.Errorf("load agent: %w", err)
	}
	sub, err := s.subs.LoadSubscription(ctx, task.UserID)
	if err != nil {
		return fmt.Errorf("load subscription: %w", err)
	}
	count, err := s.tasks.Count(ctx, task.UserID)
	if err != nil {
		return fmt.Errorf("count tasks: %w", err)
	}
	if d := s.gate.CanCreateTask(sub, count); !d.Allowed {
		return denied(d)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	s.logger.Info(ctx, "task created", "user_id", task.UserID, "task_id", task.ID, "agent_id", task.AgentID)
	return nil
}

func (s *WorkspaceService) ListTasks(ctx context.Context, userID, agentID int64) ([]*models.Task, error) {
	return s.tasks.List(ctx, userID, agentID)
}

func (s *WorkspaceService) GetTask(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	return s.tasks.Get(ctx, userID, taskID)
}

func (s *WorkspaceService) DeleteTask(ctx context.Context, userID, taskID int64) error {
	return s.tasks.Delete(ctx, userID, taskID)
}
