package models

import "time"

// RevisionType is the provenance tag of a revision. It never changes behavior.
type RevisionType string

const (
	RevisionAIGenerated RevisionType = "ai-generated"
	RevisionUserEdit    RevisionType = "user-edit"
	RevisionRephrased   RevisionType = "rephrased"
)

// Valid reports whether t is one of the known provenance tags.
func (t RevisionType) Valid() bool {
	switch t {
	case RevisionAIGenerated, RevisionUserEdit, RevisionRephrased:
		return true
	}
	return false
}

// Revision defines the model for the 'task_revisions' table.
// Content is a full snapshot, not a diff.
type Revision struct {
	ID        string       `json:"id" db:"id"`
	Content   string       `json:"content" db:"content"`
	Timestamp time.Time    `json:"timestamp" db:"created_at"`
	Type      RevisionType `json:"type" db:"type"`
	Name      string       `json:"name,omitempty" db:"name"`
}
