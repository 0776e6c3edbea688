package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/quillcraft-golang/internal/models"
)

type SubscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `user_id, tier, status, trial_ends_at, tokens_used_this_period, tokens_limit, period_start,
	stripe_customer_id, stripe_subscription_id, current_period_end, created_at, updated_at`

func scanSubscription(row interface{ Scan(...any) error }) (*models.Subscription, error) {
	var (
		sub        models.Subscription
		customerID sql.NullString
		stripeSub  sql.NullString
		periodEnd  sql.NullTime
	)
	err := row.Scan(&sub.UserID, &sub.Tier, &sub.Status, &sub.TrialEndsAt,
		&sub.TokensUsedThisPeriod, &sub.TokensLimit, &sub.PeriodStart,
		&customerID, &stripeSub, &periodEnd, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		sub.StripeCustomerID = &customerID.String
	}
	if stripeSub.Valid {
		sub.StripeSubscriptionID = &stripeSub.String
	}
	if periodEnd.Valid {
		sub.CurrentPeriodEnd = &periodEnd.Time
	}
	return &sub, nil
}

// LoadSubscription returns the user's subscription, or nil without error when
// the user has none.
func (r *SubscriptionRepository) LoadSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+subscriptionColumns+" FROM subscriptions WHERE user_id = ?", userID)
	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	return sub, nil
}

// FindByStripeCustomer returns the subscription linked to a Stripe customer id.
func (r *SubscriptionRepository) FindByStripeCustomer(ctx context.Context, customerID string) (*models.Subscription, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+subscriptionColumns+" FROM subscriptions WHERE stripe_customer_id = ?", customerID)
	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find subscription by customer: %w", err)
	}
	return sub, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertTrial writes the signup subscription for sub.UserID.
func insertTrial(ctx context.Context, db execer, sub *models.Subscription) error {
	now := time.Now().UTC()
	if sub.PeriodStart.IsZero() {
		sub.PeriodStart = now
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO subscriptions
		(user_id, tier, status, trial_ends_at, tokens_used_this_period, tokens_limit, period_start, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?, ?)`,
		sub.UserID, sub.Tier, sub.Status, sub.TrialEndsAt, sub.TokensLimit, sub.PeriodStart, now, now)
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	sub.TokensUsedThisPeriod = 0
	sub.CreatedAt, sub.UpdatedAt = now, now
	return nil
}

// SaveSubscription writes only the fields set in upd.
func (r *SubscriptionRepository) SaveSubscription(ctx context.Context, userID int64, upd models.SubscriptionUpdate) error {
	if upd.Empty() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if upd.Tier != nil {
		add("tier", *upd.Tier)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.TrialEndsAt != nil {
		add("trial_ends_at", *upd.TrialEndsAt)
	}
	if upd.TokensUsedThisPeriod != nil {
		add("tokens_used_this_period", *upd.TokensUsedThisPeriod)
	}
	if upd.TokensLimit != nil {
		add("tokens_limit", *upd.TokensLimit)
	}
	if upd.PeriodStart != nil {
		add("period_start", *upd.PeriodStart)
	}
	if upd.StripeCustomerID != nil {
		add("stripe_customer_id", *upd.StripeCustomerID)
	}
	if upd.StripeSubscriptionID != nil {
		add("stripe_subscription_id", *upd.StripeSubscriptionID)
	}
	if upd.CurrentPeriodEnd != nil {
		add("current_period_end", *upd.CurrentPeriodEnd)
	}
	add("updated_at", time.Now().UTC())
	args = append(args, userID)

	query := "UPDATE subscriptions SET " + strings.Join(sets, ", ") + " WHERE user_id = ?"
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	return expectOneRow(res)
}

// AddTokensUsed increments the period usage in a single statement so that
// concurrent sessions of the same user cannot lose updates.
func (r *SubscriptionRepository) AddTokensUsed(ctx context.Context, userID int64, n int) error {
	if n <= 0 {
		return nil
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET tokens_used_this_period = tokens_used_this_period + ?, updated_at = ?
		WHERE user_id = ?`, n, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("add tokens used: %w", err)
	}
	return expectOneRow(res)
}

// CountExpiredTrials counts trials whose end is before now.
func (r *SubscriptionRepository) CountExpiredTrials(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM subscriptions WHERE status = ? AND trial_ends_at < ?",
		models.StatusTrial, now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expired trials: %w", err)
	}
	return n, nil
}

// RollOverPeriods zeroes token usage for every subscription whose monthly
// window opened on or before cutoff and starts a new window at now.
func (r *SubscriptionRepository) RollOverPeriods(ctx context.Context, cutoff, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET tokens_used_this_period = 0, period_start = ?, updated_at = ?
		WHERE period_start <= ?`, now, now, cutoff)
	if err != nil {
		return 0, fmt.Errorf("roll over periods: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("roll over periods: rows affected: %w", err)
	}
	return int(n), nil
}
