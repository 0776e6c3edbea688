package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/01moynul/quillcraft-golang/internal/entitlement"
	"github.com/01moynul/quillcraft-golang/internal/logging"
	"github.com/01moynul/quillcraft-golang/internal/models"
	"github.com/01moynul/quillcraft-golang/internal/repository"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	GenerateToken(userID int64) (token string, sessionID string, err error)
}

// Session is a signed-in user.
type Session struct {
	Token     string       `json:"token"`
	SessionID string       `json:"-"`
	User      *models.User `json:"user"`
}

// Entitlements summarizes what a user's plan allows right now.
type Entitlements struct {
	Subscription    *models.Subscription   `json:"subscription"`
	Plan            *models.TierDefinition `json:"plan,omitempty"`
	TrialExpired    bool                   `json:"trialExpired"`
	TokensRemaining int                    `json:"tokensRemaining"`
	SessionTokens   int                    `json:"sessionTokens"`
	AgentCount      int                    `json:"agentCount"`
	TaskCount       int                    `json:"taskCount"`
	CanCreateAgent  entitlement.Decision   `json:"canCreateAgent"`
	CanCreateTask   entitlement.Decision   `json:"canCreateTask"`
}

// AccountService handles sign-up, sign-in and plan summaries.
type AccountService struct {
	users     UserStorage
	subs      SubscriptionStorage
	agents    AgentStorage
	tasks     TaskStorage
	usage     UsageReader
	gate      *entitlement.Gate
	tokens    TokenIssuer
	logger    logging.Logger
	trialDays int
	now       func() time.Time
}

func NewAccountService(users UserStorage, subs SubscriptionStorage, agents AgentStorage, tasks TaskStorage, usage UsageReader, gate *entitlement.Gate, tokens TokenIssuer, logger logging.Logger, trialDays int) *AccountService {
	return &AccountService{
		users:     users,
		subs:      subs,
		agents:    agents,
		tasks:     tasks,
		usage:     usage,
		gate:      gate,
		tokens:    tokens,
		logger:    logger,
		trialDays: trialDays,
		now:       time.Now,
	}
}

const minPasswordLength = 8

// Register creates the user and opens a free-tier trial for them.
func (s *AccountService) Register(ctx context.Context, email, password, fullName string) (*Session, error) {
	// 1. --- Validate input ---
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &InvalidInputError{Field: "email"}
	}
	if len(password) < minPasswordLength {
		return nil, &InvalidInputError{Field: "password"}
	}

	// 2. --- Hash the password ---
	var pw models.Password
	if err := pw.Set(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// 3. --- Create user and open the trial together ---
	user := &models.User{Email: email, PasswordHash: pw.Hash, FullName: strings.TrimSpace(fullName)}
	free, _ := s.gate.Tiers().Lookup(models.TierFree)
	now := s.now()
	sub := &models.Subscription{
		Tier:        models.TierFree,
		Status:      models.StatusTrial,
		TrialEndsAt: now.AddDate(0, 0, s.trialDays),
		TokensLimit: free.Tokens,
		PeriodStart: now,
	}
	if err := s.users.CreateWithTrial(ctx, user, sub); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return s.issue(user)
}

// Login checks credentials and returns a fresh session.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	pw := models.Password{Hash: user.PasswordHash}
	ok, err := pw.Matches(password)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AccountService) issue(user *models.User) (*Session, error) {
	token, sid, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: token, SessionID: sid, User: user}, nil
}

func (s *AccountService) Me(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.Get(ctx, userID)
}

// Entitlements reports the user's plan, usage and limit decisions.
func (s *AccountService) Entitlements(ctx context.Context, userID int64) (*Entitlements, error) {
	sub, err := s.subs.LoadSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	agents, err := s.agents.Count(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count agents: %w", err)
	}
	tasks, err := s.tasks.Count(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	out := &Entitlements{
		Subscription:    sub,
		TrialExpired:    s.gate.IsTrialExpired(sub),
		TokensRemaining: s.gate.Remaining(sub),
		AgentCount:      agents,
		TaskCount:       tasks,
		CanCreateAgent:  s.gate.CanCreateAgent(sub, agents),
		CanCreateTask:   s.gate.CanCreateTask(sub, tasks),
	}
	if sub != nil {
		if def, ok := s.gate.Tiers().Lookup(sub.Tier); ok {
			out.Plan = &def
		}
	}
	if session := entitlement.SessionUsageFrom(ctx); session != nil {
		out.SessionTokens = session.Total()
	}
	return out, nil
}

// Dashboard is the account overview: entitlements plus recent AI usage.
type Dashboard struct {
	*Entitlements
	Since  time.Time             `json:"since"`
	Usage  []models.UsageSummary `json:"usage"`
	Recent []*models.AIUsage     `json:"recent"`
}

const recentUsageLimit = 20

// Dashboard totals usage since the current token window opened.
func (s *AccountService) Dashboard(ctx context.Context, userID int64) (*Dashboard, error) {
	ent, err := s.Entitlements(ctx, userID)
	if err != nil {
		return nil, err
	}

	since := s.now().AddDate(0, -1, 0)
	if sub := ent.Subscription; sub != nil && !sub.PeriodStart.IsZero() {
		since = sub.PeriodStart
	}

	summary, err := s.usage.Summary(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("usage summary: %w", err)
	}
	recent, err := s.usage.Recent(ctx, userID, recentUsageLimit)
	if err != nil {
		return nil, fmt.Errorf("recent usage: %w", err)
	}
	if summary == nil {
		summary = []models.UsageSummary{}
	}
	if recent == nil {
		recent = []*models.AIUsage{}
	}
	return &Dashboard{Entitlements: ent, Since: since, Usage: summary, Recent: recent}, nil
}
