package models

import "time"

// TaskStatus is set by the task-creation and generation flow.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
)

// Task defines the model for the 'tasks' table.
type Task struct {
	ID              int64      `json:"id" db:"id"`
	UserID          int64      `json:"userId" db:"user_id"`
	AgentID         int64      `json:"agentId" db:"agent_id"`
	Title           string     `json:"title" db:"title"`
	Brief           string     `json:"brief" db:"brief"`
	Keywords        string     `json:"keywords,omitempty" db:"keywords"`
	TargetWordCount int        `json:"targetWordCount,omitempty" db:"target_word_count"`
	Status          TaskStatus `json:"status" db:"status"`
	Content         string     `json:"content" db:"content"` // mirrors the current revision
	CurrentRevision int        `json:"currentRevision" db:"current_revision"`
	RevisionVersion int64      `json:"revisionVersion" db:"revision_version"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}
