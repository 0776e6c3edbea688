// Package billing connects subscriptions to Stripe: checkout, customer portal
// and the webhook that moves users between tiers.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/01moynul/quillcraft-golang/internal/entitlement"
	"github.com/01moynul/quillcraft-golang/internal/logging"
	"github.com/01moynul/quillcraft-golang/internal/models"
	"github.com/01moynul/quillcraft-golang/internal/repository"
)

var (
	ErrInvalidSignature = errors.New("signature verification failed")
	ErrInvalidPayload   = errors.New("invalid event payload")
	ErrUnknownCustomer  = errors.New("no subscription for stripe customer")
)

// SubscriptionStore is the persistence the billing flows need.
type SubscriptionStore interface {
	LoadSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
	FindByStripeCustomer(ctx context.Context, customerID string) (*models.Subscription, error)
	SaveSubscription(ctx context.Context, userID int64, upd models.SubscriptionUpdate) error
}

// WebhookProcessor verifies Stripe events and applies them to subscriptions.
type WebhookProcessor struct {
	secret string
	subs   SubscriptionStore
	tiers  entitlement.TierTable
	logger logging.Logger
	now    func() time.Time
}

func NewWebhookProcessor(secret string, subs SubscriptionStore, tiers entitlement.TierTable, logger logging.Logger) *WebhookProcessor {
	return &WebhookProcessor{secret: secret, subs: subs, tiers: tiers, logger: logger, now: time.Now}
}

// Handle verifies the signature header and applies the event. Event types
// we do not act on are accepted and ignored.
func (p *WebhookProcessor) Handle(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, p.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return p.checkoutCompleted(ctx, &sess)
	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return p.subscriptionUpdated(ctx, &sub)
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return p.subscriptionDeleted(ctx, &sub)
	case "invoice.paid":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return p.invoicePaid(ctx, &inv)
	default:
		p.logger.Debug(ctx, "ignoring stripe event", "type", string(event.Type))
		return nil
	}
}

func (p *WebhookProcessor) checkoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	userID, err := strconv.ParseInt(sess.ClientReferenceID, 10, 64)
	if err != nil || userID <= 0 {
		return fmt.Errorf("%w: missing client reference id", ErrInvalidPayload)
	}
	if sess.Customer == nil || sess.Customer.ID == "" {
		return fmt.Errorf("%w: missing customer id", ErrInvalidPayload)
	}

	pro, _ := p.tiers.Lookup(models.TierPro)
	tier, status := models.TierPro, models.StatusActive
	used := 0
	start := p.now().UTC()
	upd := models.SubscriptionUpdate{
		Tier:                 &tier,
		Status:               &status,
		TokensLimit:          &pro.Tokens,
		TokensUsedThisPeriod: &used,
		PeriodStart:          &start,
		StripeCustomerID:     &sess.Customer.ID,
	}
	if sess.Subscription != nil && sess.Subscription.ID != "" {
		upd.StripeSubscriptionID = &sess.Subscription.ID
	}
	if err := p.subs.SaveSubscription(ctx, userID, upd); err != nil {
		return fmt.Errorf("upgrade user %d: %w", userID, err)
	}
	p.logger.Info(ctx, "subscription upgraded", "user_id", userID, "customer", sess.Customer.ID)
	return nil
}

// statusFromStripe maps Stripe's subscription status onto ours. ok is false
// for states we leave alone (incomplete, paused).
func statusFromStripe(s stripe.SubscriptionStatus) (models.SubscriptionStatus, bool) {
	switch s {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return models.StatusActive, true
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return models.StatusPastDue, true
	case stripe.SubscriptionStatusCanceled:
		return models.StatusCancelled, true
	default:
		return "", false
	}
}

func (p *WebhookProcessor) subscriptionUpdated(ctx context.Context, sub *stripe.Subscription) error {
	current, err := p.byCustomer(ctx, sub.Customer)
	if err != nil {
		return err
	}
	status, ok := statusFromStripe(sub.Status)
	if !ok {
		p.logger.Debug(ctx, "ignoring stripe subscription status", "status", string(sub.Status))
		return nil
	}
	upd := models.SubscriptionUpdate{Status: &status}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		upd.CurrentPeriodEnd = &end
	}
	if err := p.subs.SaveSubscription(ctx, current.UserID, upd); err != nil {
		return fmt.Errorf("update status for user %d: %w", current.UserID, err)
	}
	p.logger.Info(ctx, "subscription status changed", "user_id", current.UserID, "status", string(status))
	return nil
}

func (p *WebhookProcessor) subscriptionDeleted(ctx context.Context, sub *stripe.Subscription) error {
	current, err := p.byCustomer(ctx, sub.Customer)
	if err != nil {
		return err
	}
	free, _ := p.tiers.Lookup(models.TierFree)
	tier, status := models.TierFree, models.StatusActive
	noSub := ""
	used := 0
	start := p.now().UTC()
	upd := models.SubscriptionUpdate{
		Tier:                 &tier,
		Status:               &status,
		TokensLimit:          &free.Tokens,
		TokensUsedThisPeriod: &used,
		PeriodStart:          &start,
		StripeSubscriptionID: &noSub,
	}
	if err := p.subs.SaveSubscription(ctx, current.UserID, upd); err != nil {
		return fmt.Errorf("downgrade user %d: %w", current.UserID, err)
	}
	p.logger.Info(ctx, "subscription downgraded", "user_id", current.UserID)
	return nil
}

// invoicePaid starts a new billing period.
func (p *WebhookProcessor) invoicePaid(ctx context.Context, inv *stripe.Invoice) error {
	current, err := p.byCustomer(ctx, inv.Customer)
	if err != nil {
		return err
	}
	used := 0
	start, end := invoicePeriod(inv)
	startAt := p.now().UTC()
	if start > 0 {
		startAt = time.Unix(start, 0).UTC()
	}
	upd := models.SubscriptionUpdate{TokensUsedThisPeriod: &used, PeriodStart: &startAt}
	if end > 0 {
		t := time.Unix(end, 0).UTC()
		upd.CurrentPeriodEnd = &t
	}
	if err := p.subs.SaveSubscription(ctx, current.UserID, upd); err != nil {
		return fmt.Errorf("reset period for user %d: %w", current.UserID, err)
	}
	p.logger.Info(ctx, "billing period reset", "user_id", current.UserID)
	return nil
}

// invoicePeriod prefers the subscription line's period over the invoice's
// own, which covers the period just billed. start is 0 when no line has one.
func invoicePeriod(inv *stripe.Invoice) (start, end int64) {
	if inv.Lines != nil {
		for _, line := range inv.Lines.Data {
			if line != nil && line.Period != nil && line.Period.End > 0 {
				return line.Period.Start, line.Period.End
			}
		}
	}
	return 0, inv.PeriodEnd
}

func (p *WebhookProcessor) byCustomer(ctx context.Context, c *stripe.Customer) (*models.Subscription, error) {
	if c == nil || c.ID == "" {
		return nil, fmt.Errorf("%w: missing customer id", ErrInvalidPayload)
	}
	sub, err := p.subs.FindByStripeCustomer(ctx, c.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w %s", ErrUnknownCustomer, c.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("find subscription for customer %s: %w", c.ID, err)
	}
	return sub, nil
}
