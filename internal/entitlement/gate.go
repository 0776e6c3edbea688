// Package entitlement decides whether a subscription permits an action right now.
//
// Denials are values, not errors: every Decision with Allowed == false carries a
// human-readable Reason. A missing subscription denies everything.
package entitlement

import (
	"fmt"
	"time"

	"github.com/01moynul/quillcraft-golang/internal/models"
)

const (
	ReasonNoSubscription = "no active subscription"
	ReasonTrialExpired   = "trial expired"
	ReasonUnknownTier    = "unknown subscription tier"
	ReasonNoTokens       = "not enough tokens remaining this period"
)

// Decision is the outcome of a gated check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Gate evaluates subscriptions against an injected tier table.
type Gate struct {
	tiers TierTable
	now   func() time.Time
}

// NewGate builds a gate. A nil clock defaults to time.Now.
func NewGate(tiers TierTable, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{tiers: tiers, now: now}
}

// Tiers exposes the table the gate was built with.
func (g *Gate) Tiers() TierTable { return g.tiers }

// IsTrialExpired is true iff the subscription is on trial and its trial end has passed.
func (g *Gate) IsTrialExpired(sub *models.Subscription) bool {
	if sub == nil {
		return false
	}
	return sub.Status == models.StatusTrial && g.now().After(sub.TrialEndsAt)
}

// HasTokensAvailable reports whether n more tokens fit in the current period.
// The unlimited sentinel is checked before any subtraction.
func (g *Gate) HasTokensAvailable(sub *models.Subscription, n int) bool {
	if sub == nil {
		return false
	}
	if sub.TokensLimit == models.UnlimitedTokens {
		return true
	}
	if n < 0 {
		n = 0
	}
	return sub.TokensLimit-sub.TokensUsedThisPeriod >= n
}

// Remaining returns the tokens left this period, -1 when unlimited and 0 when
// usage already went past the limit.
func (g *Gate) Remaining(sub *models.Subscription) int {
	if sub == nil {
		return 0
	}
	if sub.TokensLimit == models.UnlimitedTokens {
		return models.UnlimitedTokens
	}
	return max(sub.TokensLimit-sub.TokensUsedThisPeriod, 0)
}

// CanCreateAgent checks the tier's agent limit against the current count.
func (g *Gate) CanCreateAgent(sub *models.Subscription, currentAgentCount int) Decision {
	return g.checkCount(sub, currentAgentCount, "agent", func(l models.TierLimits) int { return l.Agents })
}

// CanCreateTask checks the tier's task limit against the current count.
func (g *Gate) CanCreateTask(sub *models.Subscription, currentTaskCount int) Decision {
	return g.checkCount(sub, currentTaskCount, "task", func(l models.TierLimits) int { return l.Tasks })
}

func (g *Gate) checkCount(sub *models.Subscription, count int, noun string, limitOf func(models.TierLimits) int) Decision {
	if sub == nil {
		return deny(ReasonNoSubscription)
	}
	if g.IsTrialExpired(sub) {
		return deny(ReasonTrialExpired)
	}
	def, ok := g.tiers.Lookup(sub.Tier)
	if !ok {
		return deny(ReasonUnknownTier)
	}
	limit := limitOf(def.Limits)
	if limit != models.Unlimited && count >= limit {
		return deny(fmt.Sprintf("%s plan allows at most %d %s(s); upgrade to create more", def.Name, limit, noun))
	}
	return allow()
}

// CanGenerate is the advisory pre-check before calling the text-generation service.
func (g *Gate) CanGenerate(sub *models.Subscription, estimatedTokens int) Decision {
	if sub == nil {
		return deny(ReasonNoSubscription)
	}
	if g.IsTrialExpired(sub) {
		return deny(ReasonTrialExpired)
	}
	switch sub.Status {
	case models.StatusCancelled:
		return deny("subscription is cancelled")
	case models.StatusPastDue:
		return deny("subscription payment is past due")
	}
	if !g.HasTokensAvailable(sub, estimatedTokens) {
		return deny(ReasonNoTokens)
	}
	return allow()
}

// ConsumeTokens returns a copy of sub with n added to the period usage.
// It does not check availability: usage is only known after generation ran,
// so the result may exceed the limit.
func ConsumeTokens(sub models.Subscription, n int) models.Subscription {
	if n > 0 {
		sub.TokensUsedThisPeriod += n
	}
	return sub
}
