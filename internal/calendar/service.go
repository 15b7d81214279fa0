package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"monthcal/internal/ics"
	"monthcal/internal/layout"
	appLog "monthcal/internal/log"
	"monthcal/internal/model"
)

const (
	defaultCacheTTL        = 30 * time.Second
	maxOccurrencesPerEvent = 5000
)

// Options configures a Service.
type Options struct {
	// Location is the display zone. Defaults to time.Local.
	Location *time.Location
	// WeekStart is the weekday each grid row begins on.
	WeekStart time.Weekday
	// MaxLayer caps stacked items per row; layout.Unbounded disables it.
	MaxLayer int
	// CacheTTL bounds how long fetched appointments are reused. Defaults to
	// 30s; callers running a scheduled Refresh should set it to at least the
	// refresh interval so requests are served from the refreshed cache.
	CacheTTL time.Duration
	// Now is injectable for tests.
	Now func() time.Time
}

// Service gathers appointments from all sources and lays them out by month.
type Service struct {
	sources []Source
	opts    Options

	mu    sync.RWMutex
	cache *appointmentCache
}

// appointmentCache holds expanded appointments for one window.
type appointmentCache struct {
	from, to     time.Time
	appointments []model.Appointment
	truncated    []string
	updatedAt    time.Time
}

func (c *appointmentCache) covers(from, to time.Time, now time.Time, ttl time.Duration) bool {
	return c != nil &&
		now.Sub(c.updatedAt) < ttl &&
		!from.Before(c.from) &&
		!to.After(c.to)
}

// New creates a Service over sources.
func New(sources []Source, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{sources: sources, opts: opts}
}

// Location returns the display zone.
func (s *Service) Location() *time.Location { return s.opts.Location }

// Now returns the service clock in the display zone.
func (s *Service) Now() time.Time { return s.opts.Now().In(s.opts.Location) }

// Refresh reloads appointments for a window from the grid start of the
// previous month to seven months later and replaces the cache.
func (s *Service) Refresh(ctx context.Context) error {
	now := s.Now()
	prev := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, s.opts.Location)
	from := layout.GridStart(prev, s.opts.WeekStart)
	to := prev.AddDate(0, 7, 0)

	_, err := s.load(ctx, from, to)
	return err
}

// Appointments returns the appointments overlapping [from, to), served from
// the cache when it covers the window and is fresh.
func (s *Service) Appointments(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	s.mu.RLock()
	c := s.cache
	s.mu.RUnlock()

	if !c.covers(from, to, s.opts.Now(), s.opts.CacheTTL) {
		var err error
		c, err = s.load(ctx, from, to)
		if err != nil {
			return nil, err
		}
	}

	out := make([]model.Appointment, 0, len(c.appointments))
	for _, a := range c.appointments {
		if a.LastInstant().Before(from) || !a.Start.Before(to) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, from, to time.Time) (*appointmentCache, error) {
	var (
		parsed []ics.ParsedEvent
		errs   []error
	)
	for _, src := range s.sources {
		events, err := src.Events(ctx, from, to)
		if err != nil {
			appLog.Error("calendar: source failed", err, "id", src.ID())
			errs = append(errs, fmt.Errorf("source %s: %w", src.ID(), err))
			continue
		}
		parsed = append(parsed, events...)
	}
	if len(s.sources) > 0 && len(errs) == len(s.sources) {
		return nil, fmt.Errorf("calendar: all sources failed: %w", errors.Join(errs...))
	}

	res, err := ics.ExpandAppointments(parsed, ics.ExpandConfig{
		DisplayLocation:        s.opts.Location,
		RangeStart:             from,
		RangeEnd:               to,
		MaxOccurrencesPerEvent: maxOccurrencesPerEvent,
	})
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}

	c := &appointmentCache{
		from:         from,
		to:           to,
		appointments: res.Appointments,
		truncated:    res.TruncatedEvents,
		updatedAt:    s.opts.Now(),
	}
	s.mu.Lock()
	s.cache = c
	s.mu.Unlock()

	appLog.Info("calendar: appointments loaded",
		"from", from.Format(time.DateOnly),
		"to", to.Format(time.DateOnly),
		"count", len(res.Appointments),
		"failed_sources", len(errs),
	)
	return c, nil
}

// Month lays out the given month. The grid starts on the configured week
// start and has as many rows as the month needs.
func (s *Service) Month(ctx context.Context, year int, month time.Month) (*layout.MonthLayout, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, s.opts.Location)
	gridFirst := layout.GridStart(first, s.opts.WeekStart)
	rows := layout.RequiredRows(first, s.opts.WeekStart)

	appts, err := s.Appointments(ctx, gridFirst, gridFirst.AddDate(0, 0, rows*layout.DaysPerWeek))
	if err != nil {
		return nil, err
	}

	ptrs := make([]*model.Appointment, len(appts))
	for i := range appts {
		ptrs[i] = &appts[i]
	}
	return layout.NewMonthLayout(gridFirst, rows, ptrs, s.opts.MaxLayer)
}

// TruncatedUIDs lists events whose expansion hit the per-event cap in the
// last load.
func (s *Service) TruncatedUIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cache == nil {
		return nil
	}
	return append([]string(nil), s.cache.truncated...)
}
