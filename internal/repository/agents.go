package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/quillcraft-golang/internal/models"
	"github.com/gosimple/slug"
)

type AgentRepository struct {
	db *sql.DB
}

func NewAgentRepository(db *sql.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

// Create inserts agent, deriving its slug from the name. Slugs are unique per user.
func (r *AgentRepository) Create(ctx context.Context, agent *models.Agent) error {
	now := time.Now().UTC()
	agent.Slug = slug.Make(agent.Name)
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO agents (user_id, name, slug, role, tone, instructions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		agent.UserID, agent.Name, agent.Slug, agent.Role, agent.Tone, agent.Instructions, now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create agent: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create agent: last insert id: %w", err)
	}
	agent.ID = id
	agent.CreatedAt, agent.UpdatedAt = now, now
	return nil
}

const agentColumns = "id, user_id, name, slug, role, tone, instructions, created_at, updated_at"

func scanAgent(row interface{ Scan(...any) error }) (*models.Agent, error) {
	var a models.Agent
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Slug, &a.Role, &a.Tone, &a.Instructions, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// Get returns the agent only if it belongs to userID.
func (r *AgentRepository) Get(ctx context.Context, userID, agentID int64) (*models.Agent, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+agentColumns+" FROM agents WHERE id = ? AND user_id = ?", agentID, userID)
	a, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get agent: %w", err)
	}
	return a, nil
}

func (r *AgentRepository) List(ctx context.Context, userID int64) ([]*models.Agent, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+agentColumns+" FROM agents WHERE user_id = ? ORDER BY created_at ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var agents []*models.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}
	return agents, nil
}

func (r *AgentRepository) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM agents WHERE user_id = ?", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count agents: %w", err)
	}
	return n, nil
}

// Delete removes the agent. Its tasks and their revisions go with it through
// the schema's ON DELETE CASCADE.
func (r *AgentRepository) Delete(ctx context.Context, userID, agentID int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM agents WHERE id = ? AND user_id = ?", agentID, userID)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	return expectOneRow(res)
}
