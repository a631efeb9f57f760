package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zhigulbot/config"
	"zhigulbot/models"
	"zhigulbot/service"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Lease guards a period across replicas
type Lease interface {
	Acquire(ctx context.Context) (token string, ok bool, err error)
	// Hold keeps a held lease for d from now
	Hold(ctx context.Context, token string, d time.Duration) error
	Release(ctx context.Context, token string) error
}

// Scheduler runs a settlement cycle on a fixed period. Ticks never overlap.
type Scheduler struct {
	cron       *cron.Cron
	settlement service.SettlementService
	lease      Lease
	interval   time.Duration
	spacing    time.Duration
	baseCtx    context.Context
}

// New creates a scheduler. lease may be nil for single-replica deployments.
func New(baseCtx context.Context, settlement service.SettlementService, interval time.Duration, lease Lease) *Scheduler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	logger := cron.PrintfLogger(log.StandardLogger())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		settlement: settlement,
		lease:      lease,
		interval:   interval,
		spacing:    config.CycleSpacing(interval),
		baseCtx:    baseCtx,
	}
}

// Start registers the settlement job and starts ticking
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("settlement interval must be positive, got %s", s.interval)
	}
	spec := "@every " + s.interval.String()
	if _, err := s.cron.AddFunc(spec, func() { s.Tick(s.baseCtx) }); err != nil {
		return fmt.Errorf("failed to schedule settlement: %w", err)
	}
	s.cron.Start()

	log.WithFields(log.Fields{
		"interval": s.interval,
		"lease":    s.lease != nil,
	}).Info("Settlement scheduler started")
	return nil
}

// Stop waits for a running cycle to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Settlement scheduler stopped")
}

// Tick runs one settlement cycle if this replica can claim the period
func (s *Scheduler) Tick(ctx context.Context) {
	_, err := s.RunNow(ctx)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrCycleTooSoon):
		log.Debug("Period already settled, skipping tick")
	case errors.Is(err, service.ErrCycleInProgress):
		log.Debug("Previous cycle still running, skipping tick")
	}
}

// RunNow claims the current period and settles it. Manual runs go through
// here so they share the lease and spacing of scheduled ticks.
//
// After a committed cycle the lease is held until the period ends, so a
// replica ticking at a different phase cannot settle the same period again.
// After a failed one it is released so another replica can retry.
func (s *Scheduler) RunNow(ctx context.Context) (*models.CycleResult, error) {
	start := time.Now()

	var token string
	if s.lease != nil {
		var ok bool
		var err error
		token, ok, err = s.lease.Acquire(ctx)
		switch {
		case err != nil:
			// The settlement transaction enforces spacing on its own
			log.WithError(err).Warn("Settlement lease unavailable, settling without it")
		case !ok:
			return nil, service.ErrCycleTooSoon
		}
	}

	result, err := s.settlement.RunCycle(ctx)
	if token == "" {
		return result, err
	}

	leaseCtx := context.WithoutCancel(ctx)
	if err != nil {
		if relErr := s.lease.Release(leaseCtx, token); relErr != nil {
			log.WithError(relErr).Warn("Failed to release settlement lease")
		}
		return nil, err
	}

	if remaining := s.spacing - time.Since(start); remaining > 0 {
		if holdErr := s.lease.Hold(leaseCtx, token, remaining); holdErr != nil {
			log.WithError(holdErr).Warn("Failed to hold settlement lease for the period")
		}
	}
	return result, nil
}
