package models

import "time"

// AIUsage defines the model for the 'ai_usage' table.
// One row is written per successful generation.
type AIUsage struct {
	ID         int64        `json:"id" db:"id"`
	UserID     int64        `json:"userId" db:"user_id"`
	TaskID     int64        `json:"taskId" db:"task_id"`
	Kind       RevisionType `json:"kind" db:"kind"`
	Model      string       `json:"model" db:"model"`
	TokensUsed int          `json:"tokensUsed" db:"tokens_used"`
	CreatedAt  time.Time    `json:"createdAt" db:"created_at"`
}

// UsageSummary totals the usage log for one kind of generation.
type UsageSummary struct {
	Kind     RevisionType `json:"kind" db:"kind"`
	Requests int          `json:"requests" db:"requests"`
	Tokens   int          `json:"tokens" db:"tokens"`
}
