package revisions

import (
	"unicode/utf8"

	"github.com/01moynul/quillcraft-golang/internal/models"
)

// DiffClass is a visual hint comparing two snapshots by length only.
type DiffClass string

const (
	DiffGrew   DiffClass = "grew"
	DiffShrank DiffClass = "shrank"
	DiffSame   DiffClass = "same"
)

// Classify compares current against previous by character count.
// It is not a diff; equal-length but different texts are "same".
func Classify(current, previous string) DiffClass {
	c, p := utf8.RuneCountInString(current), utf8.RuneCountInString(previous)
	switch {
	case c > p:
		return DiffGrew
	case c < p:
		return DiffShrank
	default:
		return DiffSame
	}
}

// Entry is a revision annotated for list views.
type Entry struct {
	models.Revision
	Index     int       `json:"index"`
	Current   bool      `json:"current"`
	DiffClass DiffClass `json:"diffClass"`
}

// Annotate classifies every revision against its predecessor. The first
// entry has no predecessor and is compared against the empty string.
func (s *Store) Annotate() []Entry {
	out := make([]Entry, len(s.items))
	prev := ""
	for i, rev := range s.items {
		out[i] = Entry{
			Revision:  rev,
			Index:     i,
			Current:   i == s.current,
			DiffClass: Classify(rev.Content, prev),
		}
		prev = rev.Content
	}
	return out
}
