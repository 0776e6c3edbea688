package models

import "time"

// Tier names a subscription plan.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// SubscriptionStatus is the billing state of a subscription.
type SubscriptionStatus string

const (
	StatusTrial     SubscriptionStatus = "trial"
	StatusActive    SubscriptionStatus = "active"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusPastDue   SubscriptionStatus = "past_due"
)

// UnlimitedTokens is the tokensLimit sentinel for "no ceiling".
const UnlimitedTokens = -1

// Subscription defines the model for the 'subscriptions' table (one row per user).
type Subscription struct {
	UserID               int64              `json:"userId" db:"user_id"`
	Tier                 Tier               `json:"tier" db:"tier"`
	Status               SubscriptionStatus `json:"status" db:"status"`
	TrialEndsAt          time.Time          `json:"trialEndsAt" db:"trial_ends_at"`
	TokensUsedThisPeriod int                `json:"tokensUsedThisPeriod" db:"tokens_used_this_period"`
	TokensLimit          int                `json:"tokensLimit" db:"tokens_limit"`
	// PeriodStart opens the current monthly token window.
	PeriodStart time.Time `json:"periodStart" db:"period_start"`

	// Billing provider references, set by webhooks.
	StripeCustomerID     *string    `json:"-" db:"stripe_customer_id"`
	StripeSubscriptionID *string    `json:"-" db:"stripe_subscription_id"`
	CurrentPeriodEnd     *time.Time `json:"currentPeriodEnd,omitempty" db:"current_period_end"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// SubscriptionUpdate carries a partial write. Nil fields are left untouched.
type SubscriptionUpdate struct {
	Tier                 *Tier
	Status               *SubscriptionStatus
	TrialEndsAt          *time.Time
	TokensUsedThisPeriod *int
	TokensLimit          *int
	PeriodStart          *time.Time
	StripeCustomerID     *string
	StripeSubscriptionID *string
	CurrentPeriodEnd     *time.Time
}

// Empty reports whether the update sets no field.
func (u SubscriptionUpdate) Empty() bool {
	return u.Tier == nil && u.Status == nil && u.TrialEndsAt == nil &&
		u.TokensUsedThisPeriod == nil && u.TokensLimit == nil && u.PeriodStart == nil &&
		u.StripeCustomerID == nil && u.StripeSubscriptionID == nil && u.CurrentPeriodEnd == nil
}
