package repository

import (
	"context"
	"testing"
	"time"

	"github.com/01moynul/quillcraft-golang/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentCreate_SlugAndID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAgentRepository(db)

	mock.ExpectExec(`INSERT INTO agents`).
		WithArgs(int64(1), "Tech Blog Writer", "tech-blog-writer", "blogger", "friendly", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(11, 1))

	a := &models.Agent{UserID: 1, Name: "Tech Blog Writer", Role: "blogger", Tone: "friendly"}
	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, int64(11), a.ID)
	assert.Equal(t, "tech-blog-writer", a.Slug)
}

func TestAgentCreate_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAgentRepository(db)

	mock.ExpectExec(`INSERT INTO agents`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), &models.Agent{UserID: 1, Name: "Writer"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestAgentCount(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAgentRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM agents WHERE user_id = \?`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))

	n, err := repo.Count(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAgentDelete_NotOwned(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAgentRepository(db)

	mock.ExpectExec(`DELETE FROM agents WHERE id = \? AND user_id = \?`).
		WithArgs(int64(4), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 1, 4), ErrNotFound)
}

func TestTaskCreate_Pending(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTaskRepository(db)

	mock.ExpectExec(`INSERT INTO tasks`).
		WithArgs(int64(1), int64(2), "Launch post", "announce v2", "", 800, models.TaskPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(30, 1))

	task := &models.Task{UserID: 1, AgentID: 2, Title: "Launch post", Brief: "announce v2", TargetWordCount: 800}
	require.NoError(t, repo.Create(context.Background(), task))
	assert.Equal(t, int64(30), task.ID)
	assert.Equal(t, models.TaskPending, task.Status)
	assert.Equal(t, -1, task.CurrentRevision)
}

func TestTaskList_FilterByAgent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTaskRepository(db)
	ts := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	cols := []string{"id", "user_id", "agent_id", "title", "brief", "keywords", "target_word_count", "status",
		"content", "current_revision", "revision_version", "created_at", "updated_at"}
	mock.ExpectQuery(`FROM tasks WHERE user_id = \? AND agent_id = \? ORDER BY created_at DESC`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(30, 1, 2, "Launch post", "brief", "", 0, "completed", "text", 0, 1, ts, ts))

	tasks, err := repo.List(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskCompleted, tasks[0].Status)
	assert.Equal(t, "text", tasks[0].Content)
}

func TestTaskDelete_CascadesRevisions(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTaskRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM tasks WHERE id = \? AND user_id = \?`).
		WithArgs(int64(30), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM task_revisions WHERE task_id = \?`).
		WithArgs(int64(30)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 1, 30))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := repo.CreateWithTrial(context.Background(), &models.User{Email: "a@b.c"}, &models.Subscription{})
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateWithTrial_Commits(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	ends := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectExec(`INSERT INTO subscriptions`).
		WithArgs(int64(12), models.TierFree, models.StatusTrial, ends, 10000, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user := &models.User{Email: "a@b.c"}
	sub := &models.Subscription{Tier: models.TierFree, Status: models.StatusTrial, TrialEndsAt: ends, TokensLimit: 10000}
	require.NoError(t, repo.CreateWithTrial(context.Background(), user, sub))
	assert.Equal(t, int64(12), user.ID)
	assert.Equal(t, int64(12), sub.UserID)
	assert.False(t, sub.PeriodStart.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateWithTrial_RollsBackUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectExec(`INSERT INTO subscriptions`).WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"})
	mock.ExpectRollback()

	err := repo.CreateWithTrial(context.Background(), &models.User{Email: "a@b.c"}, &models.Subscription{})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRecord(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUsageRepository(db)

	mock.ExpectExec(`INSERT INTO ai_usage`).
		WithArgs(int64(1), int64(30), models.RevisionAIGenerated, "gemini-1.5-flash", 321, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(77, 1))

	u := &models.AIUsage{UserID: 1, TaskID: 30, Kind: models.RevisionAIGenerated, Model: "gemini-1.5-flash", TokensUsed: 321}
	require.NoError(t, repo.Record(context.Background(), u))
	assert.Equal(t, int64(77), u.ID)
}

func TestUsageSummary(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUsageRepository(db)
	since := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT kind, COUNT\(\*\), COALESCE\(SUM\(tokens_used\), 0\)\s+FROM ai_usage`).
		WithArgs(int64(1), since).
		WillReturnRows(sqlmock.NewRows([]string{"kind", "count", "sum"}).
			AddRow("ai-generated", 3, 900).
			AddRow("rephrased", 1, 80))

	got, err := repo.Summary(context.Background(), 1, since)
	require.NoError(t, err)
	assert.Equal(t, []models.UsageSummary{
		{Kind: models.RevisionAIGenerated, Requests: 3, Tokens: 900},
		{Kind: models.RevisionRephrased, Requests: 1, Tokens: 80},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRecent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUsageRepository(db)
	at := time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM ai_usage\s+WHERE user_id = \?\s+ORDER BY created_at DESC`).
		WithArgs(int64(1), 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "task_id", "kind", "model", "tokens_used", "created_at"}).
			AddRow(int64(2), int64(1), int64(30), "rephrased", "gemini-1.5-flash", 80, at))

	got, err := repo.Recent(context.Background(), 1, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.RevisionRephrased, got[0].Kind)
	assert.Equal(t, at, got[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
