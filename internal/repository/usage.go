package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/01moynul/quillcraft-golang/internal/models"
)

type UsageRepository struct {
	db *sql.DB
}

func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Record appends one generation to the usage log.
func (r *UsageRepository) Record(ctx context.Context, u *models.AIUsage) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO ai_usage (user_id, task_id, kind, model, tokens_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.UserID, u.TaskID, u.Kind, u.Model, u.TokensUsed, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("record ai usage: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		u.ID = id
	}
	return nil
}

// Summary totals usage per kind since the given instant.
func (r *UsageRepository) Summary(ctx context.Context, userID int64, since time.Time) ([]models.UsageSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT kind, COUNT(*), COALESCE(SUM(tokens_used), 0)
		FROM ai_usage
		WHERE user_id = ? AND created_at >= ?
		GROUP BY kind
		ORDER BY kind`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("summarize ai usage: %w", err)
	}
	defer rows.Close()

	var out []models.UsageSummary
	for rows.Next() {
		var s models.UsageSummary
		if err := rows.Scan(&s.Kind, &s.Requests, &s.Tokens); err != nil {
			return nil, fmt.Errorf("scan usage summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Recent returns the latest usage rows, newest first.
func (r *UsageRepository) Recent(ctx context.Context, userID int64, limit int) ([]*models.AIUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, task_id, kind, model, tokens_used, created_at
		FROM ai_usage
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ai usage: %w", err)
	}
	defer rows.Close()

	var out []*models.AIUsage
	for rows.Next() {
		var u models.AIUsage
		if err := rows.Scan(&u.ID, &u.UserID, &u.TaskID, &u.Kind, &u.Model, &u.TokensUsed, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ai usage: %w", err)
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}
