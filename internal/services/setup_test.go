package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/01moynul/quillcraft-golang/internal/entitlement"
	"github.com/01moynul/quillcraft-golang/internal/logging"
	"github.com/01moynul/quillcraft-golang/internal/models"
	"github.com/01moynul/quillcraft-golang/internal/revisions"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	store     *memStore
	gen       *fakeGenerator
	gate      *entitlement.Gate
	content   *ContentService
	workspace *WorkspaceService
	account   *AccountService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := newMemStore()
	gen := &fakeGenerator{text: "generated text", tokens: 120}
	gate := entitlement.NewGate(entitlement.DefaultTiers(), func() time.Time { return testNow })

	seq := 0
	opts := []revisions.Option{
		revisions.WithClock(func() time.Time { return testNow }),
		revisions.WithIDGenerator(func() string { seq++; return fmt.Sprintf("rev-%d", seq) }),
	}

	e := &env{store: store, gen: gen, gate: gate}
	e.content = NewContentService(memTasks{store}, memAgents{store}, memRevs{store}, memSubs{store}, memUsage{store}, gate, gen, logging.Nop(), opts...)
	e.workspace = NewWorkspaceService(memAgents{store}, memTasks{store}, memSubs{store}, gate, logging.Nop())
	e.account = NewAccountService(memUsers{store}, memSubs{store}, memAgents{store}, memTasks{store}, memUsage{store}, gate, &fakeIssuer{}, logging.Nop(), 14)
	e.account.now = func() time.Time { return testNow }
	return e
}

// seedUser creates a user with a subscription and one agent and task.
func (e *env) seedUser(t *testing.T, sub models.Subscription) (userID, agentID, taskID int64) {
	t.Helper()
	ctx := context.Background()

	user := &models.User{Email: fmt.Sprintf("u%d@test.dev", len(e.store.users)+1)}
	require.NoError(t, memUsers{e.store}.Create(ctx, user))
	sub.UserID = user.ID
	require.NoError(t, memSubs{e.store}.CreateTrial(ctx, &sub))

	agent := &models.Agent{UserID: user.ID, Name: "Ghost", Role: "copywriter", Tone: "warm"}
	require.NoError(t, memAgents{e.store}.Create(ctx, agent))
	task := &models.Task{UserID: user.ID, AgentID: agent.ID, Title: "Launch post", Brief: "Announce it"}
	require.NoError(t, memTasks{e.store}.Create(ctx, task))
	return user.ID, agent.ID, task.ID
}

func activePro() models.Subscription {
	return models.Subscription{Tier: models.TierPro, Status: models.StatusActive, TokensLimit: models.UnlimitedTokens}
}

func activeFree() models.Subscription {
	return models.Subscription{Tier: models.TierFree, Status: models.StatusActive, TokensLimit: 10000}
}
