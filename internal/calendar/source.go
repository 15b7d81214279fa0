package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"monthcal/internal/caldav"
	"monthcal/internal/config"
	"monthcal/internal/ics"
)

// Source supplies unexpanded events for a time window.
type Source interface {
	ID() string
	Events(ctx context.Context, from, to time.Time) ([]ics.ParsedEvent, error)
}

// feedSet reads every configured ICS subscription in one batch through the
// caching Fetcher. It fails only when no feed produced a usable body.
type feedSet struct {
	fetcher *ics.Fetcher
	feeds   []ics.Source
}

func (f *feedSet) ID() string { return "ics" }

func (f *feedSet) Events(ctx context.Context, _, _ time.Time) ([]ics.ParsedEvent, error) {
	results, errs := f.fetcher.FetchAll(ctx, f.feeds)

	var events []ics.ParsedEvent
	parsed := 0
	for _, res := range results {
		evs, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			errs = append(errs, fmt.Errorf("ics parse %s: %w", res.Source.ID, err))
			continue
		}
		parsed++
		events = append(events, evs...)
	}

	if parsed == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return events, nil
}

// StaticSource serves a fixed event list, for the CLI and tests.
type StaticSource struct {
	Name  string
	Items []ics.ParsedEvent
}

func (s *StaticSource) ID() string { return s.Name }

func (s *StaticSource) Events(context.Context, time.Time, time.Time) ([]ics.ParsedEvent, error) {
	return s.Items, nil
}

// SourcesFromConfig builds one Source batching all ICS feeds, followed by one
// Source per CalDAV calendar. Entries without a URL are skipped.
func SourcesFromConfig(cfg *config.Config) []Source {
	sources := make([]Source, 0, 1+len(cfg.CalDAV))

	var feeds []ics.Source
	for _, c := range cfg.ICS {
		if c.URL == "" {
			continue
		}
		feeds = append(feeds, ics.Source{ID: sourceID(c.ID, c.Name, c.URL), URL: c.URL})
	}
	if len(feeds) > 0 {
		sources = append(sources, &feedSet{fetcher: ics.NewFetcher(cfg.CacheDir), feeds: feeds})
	}
	for _, c := range cfg.CalDAV {
		if c.URL == "" {
			continue
		}
		sources = append(sources, caldav.NewClient(sourceID(c.ID, c.Calendar, c.URL), c.URL, c.Username, c.Password, c.Calendar))
	}
	return sources
}

func sourceID(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
