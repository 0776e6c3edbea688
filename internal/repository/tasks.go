package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/quillcraft-golang/internal/models"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a pending task with no revisions.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	now := time.Now().UTC()
	task.Status = models.TaskPending
	task.CurrentRevision = -1
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks
		(user_id, agent_id, title, brief, keywords, target_word_count, status, content, current_revision, revision_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, '', -1, 0, ?, ?)`,
		task.UserID, task.AgentID, task.Title, task.Brief, task.Keywords, task.TargetWordCount, task.Status, now, now)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create task: last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt, task.UpdatedAt = now, now
	return nil
}

const taskColumns = `id, user_id, agent_id, title, brief, keywords, target_word_count, status,
	content, current_revision, revision_version, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.UserID, &t.AgentID, &t.Title, &t.Brief, &t.Keywords, &t.TargetWordCount, &t.Status,
		&t.Content, &t.CurrentRevision, &t.RevisionVersion, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Get returns the task only if it belongs to userID.
func (r *TaskRepository) Get(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ? AND user_id = ?", taskID, userID)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// List returns the user's tasks, newest first. agentID 0 means all agents.
func (r *TaskRepository) List(ctx context.Context, userID, agentID int64) ([]*models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE user_id = ?"
	args := []any{userID}
	if agentID != 0 {
		query += " AND agent_id = ?"
		args = append(args, agentID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks WHERE user_id = ?", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func (r *TaskRepository) UpdateStatus(ctx context.Context, taskID int64, status models.TaskStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?", status, time.Now().UTC(), taskID)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes the task and its revisions in one transaction.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ? AND user_id = ?", taskID, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM task_revisions WHERE task_id = ?", taskID); err != nil {
		return fmt.Errorf("delete task revisions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit task delete: %w", err)
	}
	return nil
}
