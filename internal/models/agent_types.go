package models

import "time"

// Agent defines the model for the 'agents' table.
// An agent is a writing persona tasks are assigned to.
type Agent struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"userId" db:"user_id"`
	Name         string    `json:"name" db:"name"`
	Slug         string    `json:"slug" db:"slug"`
	Role         string    `json:"role" db:"role"`
	Tone         string    `json:"tone,omitempty" db:"tone"`
	Instructions string    `json:"instructions,omitempty" db:"instructions"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
