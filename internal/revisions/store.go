// Package revisions keeps the ordered snapshot history of a single task's
// content and answers which entry is current.
//
// The history is a flat log: restoring an older entry only moves the current
// pointer, and later appends always land at the tail.
package revisions

import (
	"errors"
	"time"

	"github.com/01moynul/quillcraft-golang/internal/models"
	"github.com/google/uuid"
)

var (
	ErrLastRevision    = errors.New("cannot delete last revision")
	ErrIndexOutOfRange = errors.New("revision index out of range")
)

// Store is a task's revision list plus the current pointer.
// It is not safe for concurrent use.
type Store struct {
	items   []models.Revision
	current int
	version int64

	now   func() time.Time
	newID func() string
}

// Option customizes a Store.
type Option func(*Store)

// WithClock sets the time source used for new revision timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator sets the id source used for new revisions.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New rebuilds a store from persisted state. A current index outside the
// list is clamped to the tail; an empty list has current -1.
func New(existing []models.Revision, current int, version int64, opts ...Option) *Store {
	s := &Store{
		items:   append([]models.Revision(nil), existing...),
		version: version,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current = clampCurrent(current, len(s.items))
	return s
}

func clampCurrent(current, n int) int {
	if n == 0 {
		return -1
	}
	if current < 0 || current >= n {
		return n - 1
	}
	return current
}

// Append adds a snapshot at the tail and makes it current.
func (s *Store) Append(content string, typ models.RevisionType, name string) models.Revision {
	rev := models.Revision{
		ID:        s.newID(),
		Content:   content,
		Timestamp: s.now(),
		Type:      typ,
		Name:      name,
	}
	s.items = append(s.items, rev)
	s.current = len(s.items) - 1
	return rev
}

// Restore marks the revision at index as current. Nothing is removed or reordered.
func (s *Store) Restore(index int) (models.Revision, error) {
	if index < 0 || index >= len(s.items) {
		return models.Revision{}, ErrIndexOutOfRange
	}
	s.current = index
	return s.items[index], nil
}

// Rename sets the label of the revision with the given id.
// An unknown id is a no-op and reports false.
func (s *Store) Rename(id, name string) bool {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Name = name
			return true
		}
	}
	return false
}

// Delete removes the revision at index. The sole remaining revision cannot be
// deleted. When the current entry is removed, the entry that slides into its
// slot becomes current (or the new tail when the tail was removed).
func (s *Store) Delete(index int) error {
	if index < 0 || index >= len(s.items) {
		return ErrIndexOutOfRange
	}
	if len(s.items) == 1 {
		return ErrLastRevision
	}

	s.items = append(s.items[:index], s.items[index+1:]...)

	switch {
	case index == s.current:
		s.current = min(index, len(s.items)-1)
	case index < s.current:
		// keep pointing at the same revision
		s.current--
	}
	return nil
}

// Current returns the current revision, if any.
func (s *Store) Current() (models.Revision, bool) {
	if s.current < 0 {
		return models.Revision{}, false
	}
	return s.items[s.current], true
}

// CurrentIndex returns the current pointer, -1 when the list is empty.
func (s *Store) CurrentIndex() int { return s.current }

// Content returns the current revision's content, or "" when empty.
func (s *Store) Content() string {
	rev, _ := s.Current()
	return rev.Content
}

func (s *Store) Len() int { return len(s.items) }

// Revisions returns a copy of the list in log order.
func (s *Store) Revisions() []models.Revision {
	return append([]models.Revision(nil), s.items...)
}

// Version is the persisted version this state was loaded at.
func (s *Store) Version() int64 { return s.version }

// SetVersion records the version returned by a successful save.
func (s *Store) SetVersion(v int64) { s.version = v }
