package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/01moynul/quillcraft-golang/internal/ai"
	"github.com/01moynul/quillcraft-golang/internal/entitlement"
	"github.com/01moynul/quillcraft-golang/internal/logging"
	"github.com/01moynul/quillcraft-golang/internal/models"
	"github.com/01moynul/quillcraft-golang/internal/revisions"
)

// History is a task's revision list as returned to clients.
type History struct {
	TaskID    int64             `json:"taskId"`
	Current   int               `json:"current"`
	Version   int64             `json:"version"`
	Content   string            `json:"content"`
	Revisions []revisions.Entry `json:"revisions"`
}

func historyOf(taskID int64, st *revisions.Store) *History {
	return &History{
		TaskID:    taskID,
		Current:   st.CurrentIndex(),
		Version:   st.Version(),
		Content:   st.Content(),
		Revisions: st.Annotate(),
	}
}

// GenerationResult is the outcome of an AI call that produced a revision.
type GenerationResult struct {
	Revision        models.Revision `json:"revision"`
	History         *History        `json:"history"`
	TokensUsed      int             `json:"tokensUsed"`
	TokensRemaining int             `json:"tokensRemaining"`
	SessionTokens   int             `json:"sessionTokens"`
}

// ContentService owns the revision flow of tasks.
//
// Every operation loads the persisted history, mutates it in memory, then
// writes the full list back. A failed write is returned to the caller and the
// in-memory copy is discarded; the next call reloads from storage.
type ContentService struct {
	tasks     TaskStorage
	agents    AgentStorage
	revs      RevisionStorage
	subs      SubscriptionStorage
	usage     UsageRecorder
	gate      *entitlement.Gate
	generator ai.Generator
	logger    logging.Logger

	storeOpts []revisions.Option
	locks     *keyedMutex
}

func NewContentService(
	tasks TaskStorage,
	agents AgentStorage,
	revs RevisionStorage,
	subs SubscriptionStorage,
	usage UsageRecorder,
	gate *entitlement.Gate,
	generator ai.Generator,
	logger logging.Logger,
	storeOpts ...revisions.Option,
) *ContentService {
	return &ContentService{
		tasks:     tasks,
		agents:    agents,
		revs:      revs,
		subs:      subs,
		usage:     usage,
		gate:      gate,
		generator: generator,
		logger:    logger,
		storeOpts: storeOpts,
		locks:     newKeyedMutex(),
	}
}

// load checks ownership and rebuilds the task's store.
func (s *ContentService) load(ctx context.Context, userID, taskID int64) (*models.Task, *revisions.Store, error) {
	task, err := s.tasks.Get(ctx, userID, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("load task: %w", err)
	}
	set, err := s.revs.LoadRevisions(ctx, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("load revisions: %w", err)
	}
	return task, revisions.New(set.Revisions, set.Current, set.Version, s.storeOpts...), nil
}

// persist writes the list, then the denormalized task content.
func (s *ContentService) persist(ctx context.Context, taskID int64, st *revisions.Store) error {
	v, err := s.revs.SaveRevisions(ctx, taskID, st.Revisions(), st.CurrentIndex(), st.Version())
	if err != nil {
		return fmt.Errorf("save revisions: %w", err)
	}
	st.SetVersion(v)
	if err := s.revs.SaveTaskContent(ctx, taskID, st.Content()); err != nil {
		return fmt.Errorf("save task content: %w", err)
	}
	return nil
}

// mutate runs fn under the task lock and persists when fn reports a change.
func (s *ContentService) mutate(ctx context.Context, userID, taskID int64, fn func(st *revisions.Store) (bool, error)) (*History, error) {
	unlock := s.locks.Lock(taskID)
	defer unlock()

	_, st, err := s.load(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	changed, err := fn(st)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.persist(ctx, taskID, st); err != nil {
			return nil, err
		}
	}
	return historyOf(taskID, st), nil
}

// History returns the task's revisions.
func (s *ContentService) History(ctx context.Context, userID, taskID int64) (*History, error) {
	_, st, err := s.load(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	return historyOf(taskID, st), nil
}

// SaveEdit records a user edit as a new revision.
func (s *ContentService) SaveEdit(ctx context.Context, userID, taskID int64, content, name string) (*History, error) {
	return s.mutate(ctx, userID, taskID, func(st *revisions.Store) (bool, error) {
		st.Append(content, models.RevisionUserEdit, name)
		return true, nil
	})
}

// Restore makes an older revision current without touching the list.
func (s *ContentService) Restore(ctx context.Context, userID, taskID int64, index int) (*History, error) {
	return s.mutate(ctx, userID, taskID, func(st *revisions.Store) (bool, error) {
		if _, err := st.Restore(index); err != nil {
			return false, err
		}
		return true, nil
	})
}

// Rename labels a revision. An unknown id changes nothing and is not an error.
func (s *ContentService) Rename(ctx context.Context, userID, taskID int64, revisionID, name string) (*History, error) {
	return s.mutate(ctx, userID, taskID, func(st *revisions.Store) (bool, error) {
		return st.Rename(revisionID, name), nil
	})
}

// Delete removes one revision. The last one cannot be removed.
func (s *ContentService) Delete(ctx context.Context, userID, taskID int64, index int) (*History, error) {
	return s.mutate(ctx, userID, taskID, func(st *revisions.Store) (bool, error) {
		if err := st.Delete(index); err != nil {
			return false, err
		}
		return true, nil
	})
}

// Generate writes a draft for the task, or revises the current content when
// an instruction is given and content exists.
func (s *ContentService) Generate(ctx context.Context, userID, taskID int64, instruction string) (*GenerationResult, error) {
	return s.generate(ctx, userID, taskID, models.RevisionAIGenerated,
		func(agent *models.Agent, task *models.Task, current string) (string, error) {
			if instruction != "" && current != "" {
				return ai.BuildEditPrompt(agent, current, instruction), nil
			}
			return ai.BuildDraftPrompt(agent, task), nil
		},
		func(current, generated string) string { return generated },
	)
}

// Rephrase rewrites a passage of the current content and stores the result
// with the passage replaced.
func (s *ContentService) Rephrase(ctx context.Context, userID, taskID int64, selection, instruction string) (*GenerationResult, error) {
	if strings.TrimSpace(selection) == "" {
		return nil, ErrEmptySelection
	}
	return s.generate(ctx, userID, taskID, models.RevisionRephrased,
		func(agent *models.Agent, task *models.Task, current string) (string, error) {
			if current == "" {
				return "", ErrNoContent
			}
			if !strings.Contains(current, selection) {
				return "", ErrSelectionNotFound
			}
			return ai.BuildRephrasePrompt(agent, selection, instruction), nil
		},
		func(current, generated string) string {
			return strings.Replace(current, selection, generated, 1)
		},
	)
}

type promptFunc func(agent *models.Agent, task *models.Task, current string) (string, error)

type mergeFunc func(current, generated string) string

func (s *ContentService) generate(ctx context.Context, userID, taskID int64, kind models.RevisionType, buildPrompt promptFunc, merge mergeFunc) (*GenerationResult, error) {
	unlock := s.locks.Lock(taskID)
	defer unlock()

	// 1. --- Load task, persona and history ---
	task, st, err := s.load(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	agent, err := s.agents.Get(ctx, userID, task.AgentID)
	if err != nil {
		return nil, fmt.Errorf("load agent: %w", err)
	}
	prompt, err := buildPrompt(agent, task, st.Content())
	if err != nil {
		return nil, err
	}

	// 2. --- Advisory entitlement check ---
	sub, err := s.subs.LoadSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	if d := s.gate.CanGenerate(sub, ai.EstimateTokens(prompt)); !d.Allowed {
		return nil, denied(d)
	}

	// 3. --- Call the model ---
	prevStatus := task.Status
	s.setStatus(ctx, taskID, models.TaskInProgress)
	res, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.setStatus(ctx, taskID, prevStatus)
		if errors.Is(err, ai.ErrEmptyResponse) && res.TokenCount > 0 {
			// Billed by the provider even though nothing came back.
			s.addSessionTokens(ctx, res.TokenCount)
			if usageErr := s.recordUsage(ctx, userID, taskID, kind, res.TokenCount); usageErr != nil {
				s.logger.Error(ctx, "failed to record token usage", "user_id", userID, "task_id", taskID, "tokens", res.TokenCount, "error", usageErr)
			}
		}
		return nil, fmt.Errorf("generate: %w", err)
	}

	// 4. --- Record the revision ---
	rev := st.Append(merge(st.Content(), res.Text), kind, "")
	if err := s.persist(ctx, taskID, st); err != nil {
		s.setStatus(ctx, taskID, prevStatus)
		return nil, err
	}
	s.setStatus(ctx, taskID, models.TaskCompleted)

	// 5. --- Account for tokens ---
	out := &GenerationResult{
		Revision:   rev,
		History:    historyOf(taskID, st),
		TokensUsed: res.TokenCount,
	}
	updated := entitlement.ConsumeTokens(*sub, res.TokenCount)
	out.TokensRemaining = s.gate.Remaining(&updated)
	out.SessionTokens = s.addSessionTokens(ctx, res.TokenCount)

	if usageErr := s.recordUsage(ctx, userID, taskID, kind, res.TokenCount); usageErr != nil {
		s.logger.Error(ctx, "failed to record token usage", "user_id", userID, "task_id", taskID, "tokens", res.TokenCount, "error", usageErr)
		return out, errors.Join(ErrUsageNotRecorded, usageErr)
	}

	s.logger.Info(ctx, "content generated", "user_id", userID, "task_id", taskID, "kind", string(kind), "tokens", res.TokenCount)
	return out, nil
}

// addSessionTokens returns the session total, or 0 outside a session.
func (s *ContentService) addSessionTokens(ctx context.Context, n int) int {
	session := entitlement.SessionUsageFrom(ctx)
	if session == nil {
		return 0
	}
	session.Add(n)
	return session.Total()
}

// recordUsage charges n tokens to the period and appends the usage log.
func (s *ContentService) recordUsage(ctx context.Context, userID, taskID int64, kind models.RevisionType, n int) error {
	if err := s.subs.AddTokensUsed(ctx, userID, n); err != nil {
		return err
	}
	return s.usage.Record(ctx, &models.AIUsage{
		UserID:     userID,
		TaskID:     taskID,
		Kind:       kind,
		Model:      s.generator.Model(),
		TokensUsed: n,
	})
}

func (s *ContentService) setStatus(ctx context.Context, taskID int64, status models.TaskStatus) {
	if err := s.tasks.UpdateStatus(ctx, taskID, status); err != nil {
		s.logger.Warn(ctx, "failed to update task status", "task_id", taskID, "status", string(status), "error", err)
	}
}
