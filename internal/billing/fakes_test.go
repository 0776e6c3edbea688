package billing

import (
	"context"
	"sync"

	"github.com/01moynul/quillcraft-golang/internal/models"
	"github.com/01moynul/quillcraft-golang/internal/repository"
)

type fakeSubs struct {
	mu      sync.Mutex
	byUser  map[int64]*models.Subscription
	updates map[int64][]models.SubscriptionUpdate
	findErr error
}

func newFakeSubs(subs ...*models.Subscription) *fakeSubs {
	f := &fakeSubs{byUser: map[int64]*models.Subscription{}, updates: map[int64][]models.SubscriptionUpdate{}}
	for _, s := range subs {
		f.byUser[s.UserID] = s
	}
	return f
}

func (f *fakeSubs) LoadSubscription(_ context.Context, userID int64) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byUser[userID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSubs) FindByStripeCustomer(_ context.Context, customerID string) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, s := range f.byUser {
		if s.StripeCustomerID != nil && *s.StripeCustomerID == customerID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSubs) SaveSubscription(_ context.Context, userID int64, upd models.SubscriptionUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byUser[userID]
	if !ok {
		return repository.ErrNotFound
	}
	f.updates[userID] = append(f.updates[userID], upd)
	if upd.Tier != nil {
		s.Tier = *upd.Tier
	}
	if upd.Status != nil {
		s.Status = *upd.Status
	}
	if upd.TokensUsedThisPeriod != nil {
		s.TokensUsedThisPeriod = *upd.TokensUsedThisPeriod
	}
	if upd.TokensLimit != nil {
		s.TokensLimit = *upd.TokensLimit
	}
	if upd.PeriodStart != nil {
		s.PeriodStart = *upd.PeriodStart
	}
	if upd.StripeCustomerID != nil {
		v := *upd.StripeCustomerID
		s.StripeCustomerID = &v
	}
	if upd.StripeSubscriptionID != nil {
		v := *upd.StripeSubscriptionID
		s.StripeSubscriptionID = &v
	}
	if upd.CurrentPeriodEnd != nil {
		v := *upd.CurrentPeriodEnd
		s.CurrentPeriodEnd = &v
	}
	return nil
}

func strPtr(s string) *string { return &s }
