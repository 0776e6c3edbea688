package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/01moynul/quillcraft-golang/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var subscriptionCols = []string{
	"user_id", "tier", "status", "trial_ends_at", "tokens_used_this_period", "tokens_limit", "period_start",
	"stripe_customer_id", "stripe_subscription_id", "current_period_end", "created_at", "updated_at",
}

func TestLoadSubscription(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriptionRepository(db)
	ts := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM subscriptions WHERE user_id = \?`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(subscriptionCols).
			AddRow(5, "free", "trial", ts, 120, 10000, ts, "cus_1", nil, nil, ts, ts))

	sub, err := repo.LoadSubscription(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, models.TierFree, sub.Tier)
	assert.Equal(t, models.StatusTrial, sub.Status)
	assert.Equal(t, 120, sub.TokensUsedThisPeriod)
	require.NotNil(t, sub.StripeCustomerID)
	assert.Equal(t, "cus_1", *sub.StripeCustomerID)
	assert.Nil(t, sub.StripeSubscriptionID)
	assert.Nil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, ts, sub.PeriodStart)
}

func TestLoadSubscription_Missing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriptionRepository(db)

	mock.ExpectQuery(`FROM subscriptions WHERE user_id`).WillReturnError(sql.ErrNoRows)

	sub, err := repo.LoadSubscription(context.Background(), 5)
	assert.NoError(t, err)
	assert.Nil(t, sub)
}

func TestFindByStripeCustomer_Missing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriptionRepository(db)

	mock.ExpectQuery(`FROM subscriptions WHERE stripe_customer_id = \?`).
		WithArgs("cus_x").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByStripeCustomer(context.Background(), "cus_x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveSubscription_OnlySetFields(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriptionRepository(db)
	tier := models.TierPro
	limit := 500000

	mock.ExpectExec(`UPDATE subscriptions SET tier = \?, tokens_limit = \?, updated_at = \? WHERE user_id = \?`).
		WithArgs(models.TierPro, 500000, sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveSubscription(context.Background(), 5, models.SubscriptionUpdate{Tier: &tier, TokensLimit: &limit})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSubscription_EmptyIsNoop(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriptionRepository(db)

	require.NoError(t, repo.SaveSubscription(context.Background(), 5, models.SubscriptionUpdate{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddTokensUsed(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriptionRepository(db)

	mock.ExpectExec(`SET tokens_used_this_period = tokens_used_this_period \+ \?`).
		WithArgs(42, sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AddTokensUsed(context.Background(), 5, 42))
	require.NoError(t, repo.AddTokensUsed(context.Background(), 5, 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountExpiredTrials(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriptionRepository(db)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM subscriptions WHERE status = \? AND trial_ends_at < \?`).
		WithArgs(models.StatusTrial, now).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))

	n, err := repo.CountExpiredTrials(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRollOverPeriods(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriptionRepository(db)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	cutoff := now.AddDate(0, -1, 0)

	mock.ExpectExec(`SET tokens_used_this_period = 0, period_start = \?, updated_at = \?\s+WHERE period_start <= \?`).
		WithArgs(now, now, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.RollOverPeriods(context.Background(), cutoff, now)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
