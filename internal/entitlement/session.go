package entitlement

import (
	"context"
	"sync"
	"time"
)

// SessionUsage counts tokens used during one user session, for display only.
type SessionUsage struct {
	mu    sync.Mutex
	total int
}

func (u *SessionUsage) Add(n int) {
	if n <= 0 {
		return
	}
	u.mu.Lock()
	u.total += n
	u.mu.Unlock()
}

func (u *SessionUsage) Total() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.total
}

type sessionKey struct{}

// WithSessionUsage attaches u to ctx.
func WithSessionUsage(ctx context.Context, u *SessionUsage) context.Context {
	return context.WithValue(ctx, sessionKey{}, u)
}

// SessionUsageFrom returns the counter attached to ctx, or nil.
func SessionUsageFrom(ctx context.Context) *SessionUsage {
	u, _ := ctx.Value(sessionKey{}).(*SessionUsage)
	return u
}

// SessionTracker owns one SessionUsage per login session id. Entries live
// until End or until Prune passes their token's expiry.
type SessionTracker struct {
	mu       sync.Mutex
	sessions map[string]*trackedSession
}

type trackedSession struct {
	usage     *SessionUsage
	expiresAt time.Time
}

func NewSessionTracker() *SessionTracker {
	return &SessionTracker{sessions: make(map[string]*trackedSession)}
}

// For returns the counter for sessionID, creating it on first use. A zero
// expiresAt keeps the entry until End.
func (t *SessionTracker) For(sessionID string, expiresAt time.Time) *SessionUsage {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[sessionID]
	if !ok {
		s = &trackedSession{usage: &SessionUsage{}, expiresAt: expiresAt}
		t.sessions[sessionID] = s
	} else if expiresAt.After(s.expiresAt) {
		s.expiresAt = expiresAt
	}
	return s.usage
}

// End drops the counter for sessionID.
func (t *SessionTracker) End(sessionID string) {
	t.mu.Lock()
	delete(t.sessions, sessionID)
	t.mu.Unlock()
}

// Prune drops sessions whose token expired before now and reports how many.
func (t *SessionTracker) Prune(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for id, s := range t.sessions {
		if !s.expiresAt.IsZero() && s.expiresAt.Before(now) {
			delete(t.sessions, id)
			n++
		}
	}
	return n
}

// Len reports how many sessions are tracked.
func (t *SessionTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
