package services

import (
	"context"
	"sync"
	"time"

	"github.com/01moynul/quillcraft-golang/internal/ai"
	"github.com/01moynul/quillcraft-golang/internal/models"
	"github.com/01moynul/quillcraft-golang/internal/repository"
)

// memStore implements every storage port in memory.
type memStore struct {
	mu sync.Mutex

	users  map[int64]*models.User
	subs   map[int64]*models.Subscription
	agents map[int64]*models.Agent
	tasks  map[int64]*models.Task
	revs   map[int64]*repository.RevisionSet
	usage  []models.AIUsage
	nextID int64

	saveErr  error
	usageErr error
	trialErr error
	sweepErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[int64]*models.User{},
		subs:   map[int64]*models.Subscription{},
		agents: map[int64]*models.Agent{},
		tasks:  map[int64]*models.Task{},
		revs:   map[int64]*repository.RevisionSet{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

// users

type memUsers struct{ *memStore }

func (m memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repository.ErrAlreadyExists
		}
	}
	u.ID = m.id()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

// CreateWithTrial writes both rows or neither.
func (m memUsers) CreateWithTrial(ctx context.Context, u *models.User, sub *models.Subscription) error {
	m.mu.Lock()
	if m.trialErr != nil {
		m.mu.Unlock()
		return m.trialErr
	}
	m.mu.Unlock()
	if err := m.Create(ctx, u); err != nil {
		return err
	}
	sub.UserID = u.ID
	return memSubs{m.memStore}.CreateTrial(ctx, sub)
}

func (m memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m memUsers) Get(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// subscriptions

type memSubs struct{ *memStore }

func (m memSubs) LoadSubscription(_ context.Context, userID int64) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[userID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m memSubs) SaveSubscription(_ context.Context, userID int64, upd models.SubscriptionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if upd.TokensUsedThisPeriod != nil {
		s.TokensUsedThisPeriod = *upd.TokensUsedThisPeriod
	}
	if upd.PeriodStart != nil {
		s.PeriodStart = *upd.PeriodStart
	}
	return nil
}

func (m memSubs) AddTokensUsed(_ context.Context, userID int64, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.usageErr != nil {
		return m.usageErr
	}
	s, ok := m.subs[userID]
	if !ok {
		return repository.ErrNotFound
	}
	s.TokensUsedThisPeriod += n
	return nil
}

func (m memSubs) CreateTrial(_ context.Context, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	m.subs[sub.UserID] = &cp
	return nil
}

func (m memSubs) CountExpiredTrials(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.subs {
		if s.Status == models.StatusTrial && s.TrialEndsAt.Before(now) {
			n++
		}
	}
	return n, nil
}

func (m memSubs) RollOverPeriods(_ context.Context, cutoff, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sweepErr != nil {
		return 0, m.sweepErr
	}
	n := 0
	for _, s := range m.subs {
		if !s.PeriodStart.After(cutoff) {
			s.TokensUsedThisPeriod = 0
			s.PeriodStart = now
			n++
		}
	}
	return n, nil
}

// agents

type memAgents struct{ *memStore }

func (m memAgents) Create(_ context.Context, a *models.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.id()
	cp := *a
	m.agents[a.ID] = &cp
	return nil
}

func (m memAgents) Get(_ context.Context, userID, agentID int64) (*models.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[agentID]
	if !ok || a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m memAgents) List(_ context.Context, userID int64) ([]*models.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Agent
	for _, a := range m.agents {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memAgents) Count(ctx context.Context, userID int64) (int, error) {
	list, err := m.List(ctx, userID)
	return len(list), err
}

func (m memAgents) Delete(_ context.Context, userID, agentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[agentID]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.agents, agentID)
	return nil
}

// tasks

type memTasks struct{ *memStore }

func (m memTasks) Create(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.id()
	t.Status = models.TaskPending
	t.CurrentRevision = -1
	cp := *t
	m.tasks[t.ID] = &cp
	m.revs[t.ID] = &repository.RevisionSet{Current: -1}
	return nil
}

func (m memTasks) Get(_ context.Context, userID, taskID int64) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m memTasks) List(_ context.Context, userID, agentID int64) ([]*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Task
	for _, t := range m.tasks {
		if t.UserID == userID && (agentID == 0 || t.AgentID == agentID) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memTasks) Count(ctx context.Context, userID int64) (int, error) {
	list, err := m.List(ctx, userID, 0)
	return len(list), err
}

func (m memTasks) UpdateStatus(_ context.Context, taskID int64, status models.TaskStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return repository.ErrNotFound
	}
	t.Status = status
	return nil
}

func (m memTasks) Delete(_ context.Context, userID, taskID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.tasks, taskID)
	delete(m.revs, taskID)
	return nil
}

// revisions

type memRevs struct{ *memStore }

func (m memRevs) LoadRevisions(_ context.Context, taskID int64) (*repository.RevisionSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.revs[taskID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &repository.RevisionSet{
		Revisions: append([]models.Revision(nil), set.Revisions...),
		Current:   set.Current,
		Version:   set.Version,
	}, nil
}

func (m memRevs) SaveRevisions(_ context.Context, taskID int64, revs []models.Revision, current int, expected int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	set, ok := m.revs[taskID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if set.Version != expected {
		return 0, repository.ErrVersionConflict
	}
	set.Revisions = append([]models.Revision(nil), revs...)
	set.Current = current
	set.Version++
	return set.Version, nil
}

func (m memRevs) SaveTaskContent(_ context.Context, taskID int64, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return repository.ErrNotFound
	}
	t.Content = content
	return nil
}

// usage

type memUsage struct{ *memStore }

func (m memUsage) Summary(_ context.Context, userID int64, since time.Time) ([]models.UsageSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := map[models.RevisionType]int{}
	var out []models.UsageSummary
	for _, u := range m.usage {
		if u.UserID != userID || u.CreatedAt.Before(since) {
			continue
		}
		i, ok := idx[u.Kind]
		if !ok {
			i = len(out)
			idx[u.Kind] = i
			out = append(out, models.UsageSummary{Kind: u.Kind})
		}
		out[i].Requests++
		out[i].Tokens += u.TokensUsed
	}
	return out, nil
}

func (m memUsage) Recent(_ context.Context, userID int64, limit int) ([]*models.AIUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AIUsage
	for i := len(m.usage) - 1; i >= 0 && len(out) < limit; i-- {
		if m.usage[i].UserID == userID {
			u := m.usage[i]
			out = append(out, &u)
		}
	}
	return out, nil
}

func (m memUsage) Record(_ context.Context, u *models.AIUsage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = testNow
	}
	m.usage = append(m.usage, *u)
	return nil
}

// fakeGenerator returns canned text and records prompts.
type fakeGenerator struct {
	mu      sync.Mutex
	text    string
	tokens  int
	err     error
	billed  int // tokens reported alongside err
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (ai.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return ai.Result{TokenCount: g.billed}, g.err
	}
	return ai.Result{Text: g.text, TokenCount: g.tokens}, nil
}

func (g *fakeGenerator) Model() string { return "fake-model" }

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type fakeIssuer struct{ n int }

func (f *fakeIssuer) GenerateToken(userID int64) (string, string, error) {
	f.n++
	return "token", "session", nil
}
