package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/quillcraft-golang/internal/models"
)

// RevisionSet is a task's persisted history.
type RevisionSet struct {
	Revisions []models.Revision
	Current   int
	Version   int64
}

// RevisionRepository stores the revision list of each task in 'task_revisions'
// and the current pointer and version on the owning 'tasks' row.
type RevisionRepository struct {
	db *sql.DB
}

func NewRevisionRepository(db *sql.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

// LoadRevisions returns the ordered history of taskID.
func (r *RevisionRepository) LoadRevisions(ctx context.Context, taskID int64) (*RevisionSet, error) {
	set := &RevisionSet{}
	err := r.db.QueryRowContext(ctx,
		"SELECT current_revision, revision_version FROM tasks WHERE id = ?", taskID,
	).Scan(&set.Current, &set.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load task version: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, content, type, name, created_at
		FROM task_revisions
		WHERE task_id = ?
		ORDER BY position ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("load revisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rev models.Revision
		if err := rows.Scan(&rev.ID, &rev.Content, &rev.Type, &rev.Name, &rev.Timestamp); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		set.Revisions = append(set.Revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return set, nil
}

// SaveRevisions replaces the full list for taskID. The write only succeeds if
// the stored version still equals expectedVersion; otherwise ErrVersionConflict
// is returned and nothing changes. It returns the new version.
func (r *RevisionRepository) SaveRevisions(ctx context.Context, taskID int64, revs []models.Revision, current int, expectedVersion int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET revision_version = revision_version + 1, current_revision = ?, updated_at = ?
		WHERE id = ? AND revision_version = ?`,
		current, time.Now().UTC(), taskID, expectedVersion)
	if err != nil {
		return 0, fmt.Errorf("bump revision version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return 0, ErrVersionConflict
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM task_revisions WHERE task_id = ?", taskID); err != nil {
		return 0, fmt.Errorf("clear revisions: %w", err)
	}

	for i, rev := range revs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO task_revisions (id, task_id, position, content, type, name, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rev.ID, taskID, i, rev.Content, rev.Type, rev.Name, rev.Timestamp)
		if err != nil {
			return 0, fmt.Errorf("insert revision %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit revisions: %w", err)
	}
	return expectedVersion + 1, nil
}

// SaveTaskContent writes the denormalized copy of the current revision's content.
func (r *RevisionRepository) SaveTaskContent(ctx context.Context, taskID int64, content string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET content = ?, updated_at = ? WHERE id = ?",
		content, time.Now().UTC(), taskID)
	if err != nil {
		return fmt.Errorf("save task content: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
