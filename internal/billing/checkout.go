package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v79"
	portal "github.com/stripe/stripe-go/v79/billingportal/session"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"

	"github.com/01moynul/quillcraft-golang/internal/config"
	"github.com/01moynul/quillcraft-golang/internal/models"
)

var (
	ErrNotConfigured   = errors.New("billing not configured")
	ErrInvalidInterval = errors.New("interval must be month or year")
	ErrNoCustomer      = errors.New("stripe customer missing for user")
	ErrNoSubscription  = errors.New("user has no subscription")
)

// Interval selects the Pro price.
type Interval string

const (
	Monthly Interval = "month"
	Yearly  Interval = "year"
)

// Client is the slice of the Stripe API used here.
type Client interface {
	NewCustomer(params *stripe.CustomerParams) (*stripe.Customer, error)
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	NewPortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
}

// StripeClient calls the Stripe API through the package-level stripe.Key.
type StripeClient struct{}

func (StripeClient) NewCustomer(params *stripe.CustomerParams) (*stripe.Customer, error) {
	return customer.New(params)
}

func (StripeClient) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

func (StripeClient) NewPortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	return portal.New(params)
}

// CheckoutService opens Stripe checkout and portal sessions for users.
type CheckoutService struct {
	cfg    config.StripeConfig
	subs   SubscriptionStore
	client Client
}

func NewCheckoutService(cfg config.StripeConfig, subs SubscriptionStore, client Client) *CheckoutService {
	return &CheckoutService{cfg: cfg, subs: subs, client: client}
}

func (s *CheckoutService) priceFor(interval Interval) (string, error) {
	switch interval {
	case Monthly, "":
		return s.cfg.PriceIDProMonthly, nil
	case Yearly:
		return s.cfg.PriceIDProYearly, nil
	default:
		return "", ErrInvalidInterval
	}
}

// CreateCheckoutSession starts a Pro subscription checkout and returns its URL.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, user *models.User, interval Interval) (string, error) {
	priceID, err := s.priceFor(interval)
	if err != nil {
		return "", err
	}
	frontendURL := strings.TrimRight(s.cfg.FrontendURL, "/")
	if priceID == "" || frontendURL == "" {
		return "", ErrNotConfigured
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:          stripe.String(customerID),
		ClientReferenceID: stripe.String(strconv.FormatInt(user.ID, 10)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(frontendURL + "/billing/success"),
		CancelURL:  stripe.String(frontendURL + "/billing/cancel"),
	}
	sess, err := s.client.NewCheckoutSession(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CreatePortalSession returns a customer portal URL for an existing customer.
func (s *CheckoutService) CreatePortalSession(ctx context.Context, userID int64) (string, error) {
	frontendURL := strings.TrimRight(s.cfg.FrontendURL, "/")
	if frontendURL == "" {
		return "", ErrNotConfigured
	}
	sub, err := s.subs.LoadSubscription(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load subscription: %w", err)
	}
	if sub == nil || sub.StripeCustomerID == nil || *sub.StripeCustomerID == "" {
		return "", ErrNoCustomer
	}

	sess, err := s.client.NewPortalSession(&stripe.BillingPortalSessionParams{
		Customer:  sub.StripeCustomerID,
		ReturnURL: stripe.String(frontendURL + "/settings/billing"),
	})
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return sess.URL, nil
}

// ensureCustomer reuses the stored customer id or creates one and stores it.
func (s *CheckoutService) ensureCustomer(ctx context.Context, user *models.User) (string, error) {
	sub, err := s.subs.LoadSubscription(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("load subscription: %w", err)
	}
	if sub == nil {
		return "", ErrNoSubscription
	}
	if sub.StripeCustomerID != nil && *sub.StripeCustomerID != "" {
		return *sub.StripeCustomerID, nil
	}

	cust, err := s.client.NewCustomer(&stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Metadata: map[string]string{
			"user_id": strconv.FormatInt(user.ID, 10),
		},
	})
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	if err := s.subs.SaveSubscription(ctx, user.ID, models.SubscriptionUpdate{StripeCustomerID: &cust.ID}); err != nil {
		return "", fmt.Errorf("store stripe customer: %w", err)
	}
	return cust.ID, nil
}
