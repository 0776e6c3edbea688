package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/quillcraft-golang/internal/logging"
)

// PeriodStorage is what the background sweep needs from subscriptions.
type PeriodStorage interface {
	CountExpiredTrials(ctx context.Context, now time.Time) (int, error)
	RollOverPeriods(ctx context.Context, cutoff, now time.Time) (int, error)
}

// SessionPruner forgets sessions whose token has expired.
type SessionPruner interface {
	Prune(now time.Time) int
}

// Sweeper runs periodic housekeeping. Its main job is opening a new monthly
// token window for every subscription whose window has closed. Trial expiry
// itself is decided per request; the sweep only counts expired trials.
type Sweeper struct {
	subs     PeriodStorage
	sessions SessionPruner
	logger   logging.Logger
	now      func() time.Time
}

func NewSweeper(subs PeriodStorage, sessions SessionPruner, logger logging.Logger) *Sweeper {
	return &Sweeper{subs: subs, sessions: sessions, logger: logger, now: time.Now}
}

// Sweep runs one pass. A failing step does not stop the others.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.now().UTC()
	var errs []error

	rolled, err := s.subs.RollOverPeriods(ctx, now.AddDate(0, -1, 0), now)
	if err != nil {
		errs = append(errs, fmt.Errorf("roll over periods: %w", err))
	}

	expired, err := s.subs.CountExpiredTrials(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("count expired trials: %w", err))
	}

	pruned := 0
	if s.sessions != nil {
		pruned = s.sessions.Prune(now)
	}

	s.logger.Info(ctx, "sweep", "periods_rolled_over", rolled, "expired_trials", expired, "sessions_pruned", pruned)
	return errors.Join(errs...)
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info(ctx, "sweep started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error(ctx, "sweep failed", "error", err)
			}
		}
	}
}
