package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "monthcal/internal/log"
)

// Refresher reloads cached appointments.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler runs Refresh on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	spec      string
	refresher Refresher
	timeout   time.Duration
}

// New creates a Scheduler. spec is a standard five-field cron expression
// evaluated in loc.
func New(spec string, loc *time.Location, r Refresher) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("scheduler: invalid refresh spec %q: %w", spec, err)
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		spec:      spec,
		refresher: r,
		timeout:   2 * time.Minute,
	}, nil
}

// Interval returns the gap between the next two activations of spec after
// now, evaluated in loc.
func Interval(spec string, loc *time.Location, now time.Time) (time.Duration, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return 0, fmt.Errorf("scheduler: invalid refresh spec %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.Local
	}
	next := sched.Next(now.In(loc))
	return sched.Next(next).Sub(next), nil
}

// Start runs an initial refresh, registers the cron job and blocks until ctx
// is canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.refresh(ctx) }); err != nil {
		return fmt.Errorf("scheduler: add refresh job: %w", err)
	}

	s.refresh(ctx)
	s.cron.Start()
	appLog.Info("scheduler started", "refresh", s.spec)

	<-ctx.Done()
	return nil
}

// Stop stops the cron runner and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	appLog.Info("scheduler stopped")
}

func (s *Scheduler) refresh(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.refresher.Refresh(ctx); err != nil {
		appLog.Error("scheduled refresh failed", err)
		return
	}
	appLog.Debug("scheduled refresh done", "elapsed", time.Since(start).Round(time.Millisecond))
}
