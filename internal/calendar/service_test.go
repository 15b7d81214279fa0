package calendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"monthcal/internal/config"
	"monthcal/internal/ics"
	"monthcal/internal/layout"
)

type countingSource struct {
	StaticSource
	calls int
	err   error
}

func (c *countingSource) Events(ctx context.Context, from, to time.Time) ([]ics.ParsedEvent, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.StaticSource.Events(ctx, from, to)
}

func fixtureEvents() []ics.ParsedEvent {
	return []ics.ParsedEvent{
		{
			UID:   "lunch",
			Start: time.Date(2023, time.May, 3, 12, 0, 0, 0, time.UTC),
			End:   time.Date(2023, time.May, 3, 13, 0, 0, 0, time.UTC),
		},
		{
			UID:    "trip",
			Start:  time.Date(2023, time.May, 6, 0, 0, 0, 0, time.UTC),
			End:    time.Date(2023, time.May, 10, 0, 0, 0, 0, time.UTC),
			AllDay: true,
		},
		{
			UID:   "april",
			Start: time.Date(2023, time.April, 10, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2023, time.April, 10, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestMonthLayout(t *testing.T) {
	src := &countingSource{StaticSource: StaticSource{Name: "static", Items: fixtureEvents()}}
	svc := New([]Source{src}, Options{
		Location:  time.UTC,
		WeekStart: time.Monday,
		MaxLayer:  layout.Unbounded,
		Now:       func() time.Time { return time.Date(2023, time.May, 15, 0, 0, 0, 0, time.UTC) },
	})

	m, err := svc.Month(context.Background(), 2023, time.May)
	if err != nil {
		t.Fatalf("Month: %v", err)
	}
	if !m.FirstDay().Equal(time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC)) || m.Rows() != 5 {
		t.Errorf("grid = %v rows %d", m.FirstDay(), m.Rows())
	}

	w0, w1 := m.Week(0), m.Week(1)
	if w0 == nil || w1 == nil {
		t.Fatal("rows 0 and 1 must be materialized")
	}
	if w0.Len() != 2 {
		t.Errorf("row 0 items = %d, want lunch + trip first segment", w0.Len())
	}
	if items := w1.Items(); len(items) != 1 || items[0].Kind != layout.LastWeek {
		t.Errorf("row 1 items = %+v, want trip last segment", items)
	}
	for i := 2; i < m.Rows(); i++ {
		if m.Week(i) != nil {
			t.Errorf("row %d materialized", i)
		}
	}

	// A second month inside the same window is served from the cache.
	if _, err := svc.Month(context.Background(), 2023, time.May); err != nil {
		t.Fatalf("Month (cached): %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}
}

func TestRefreshWarmsCache(t *testing.T) {
	src := &countingSource{StaticSource: StaticSource{Name: "static", Items: fixtureEvents()}}
	svc := New([]Source{src}, Options{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2023, time.May, 15, 0, 0, 0, 0, time.UTC) },
	})

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	appts, err := svc.Appointments(context.Background(),
		time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Appointments: %v", err)
	}
	if len(appts) != 1 || appts[0].UID != "april" {
		t.Errorf("appointments = %+v, want april only", appts)
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}
}

func TestAllSourcesFailing(t *testing.T) {
	boom := errors.New("boom")
	bad := &countingSource{StaticSource: StaticSource{Name: "bad"}, err: boom}
	svc := New([]Source{bad}, Options{Location: time.UTC})

	if _, err := svc.Month(context.Background(), 2023, time.May); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}

	good := &countingSource{StaticSource: StaticSource{Name: "good", Items: fixtureEvents()}}
	svc = New([]Source{bad, good}, Options{Location: time.UTC})
	if _, err := svc.Month(context.Background(), 2023, time.May); err != nil {
		t.Errorf("partial failure returned error: %v", err)
	}
}

func TestSourcesFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.CacheDir = t.TempDir()
	cfg.ICS = []config.ICSConfig{
		{ID: "work", URL: "https://example.com/work.ics"},
		{Name: "named", URL: "https://example.com/named.ics"},
		{ID: "no-url"},
	}
	cfg.CalDAV = []config.CalDAVConfig{
		{URL: "https://dav.example.com", Calendar: "/cal/home/"},
	}

	sources := SourcesFromConfig(cfg)
	var ids []string
	for _, s := range sources {
		ids = append(ids, s.ID())
	}
	want := []string{"ics", "/cal/home/"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}

	feeds := sources[0].(*feedSet).feeds
	if len(feeds) != 2 || feeds[0].ID != "work" || feeds[1].ID != "named" {
		t.Errorf("feeds = %+v, want work and named", feeds)
	}
}

const feedICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//monthcal//test//EN
BEGIN:VEVENT
UID:review@example.com
DTSTART:20230503T090000Z
DTEND:20230503T100000Z
SUMMARY:Review
END:VEVENT
END:VCALENDAR
`

func TestFeedSetBatchesFeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ok.ics" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(feedICS))
	}))
	defer srv.Close()

	tests := []struct {
		name    string
		feeds   []ics.Source
		want    int
		wantErr bool
	}{
		{
			name: "one feed failing",
			feeds: []ics.Source{
				{ID: "ok", URL: srv.URL + "/ok.ics"},
				{ID: "gone", URL: srv.URL + "/gone.ics"},
			},
			want: 1,
		},
		{
			name: "all feeds failing",
			feeds: []ics.Source{
				{ID: "gone", URL: srv.URL + "/gone.ics"},
				{ID: "no-url"},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &feedSet{fetcher: ics.NewFetcher(t.TempDir()), feeds: tt.feeds}
			events, err := fs.Events(context.Background(), time.Time{}, time.Time{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(events) != tt.want {
				t.Errorf("events = %d, want %d", len(events), tt.want)
			}
			if tt.want > 0 && events[0].Source.ID != "ok" {
				t.Errorf("source = %q, want ok", events[0].Source.ID)
			}
		})
	}
}

func TestCacheTTL(t *testing.T) {
	now := time.Date(2023, time.May, 15, 0, 0, 0, 0, time.UTC)
	src := &countingSource{StaticSource: StaticSource{Name: "static", Items: fixtureEvents()}}
	svc := New([]Source{src}, Options{
		Location: time.UTC,
		CacheTTL: 30 * time.Minute,
		Now:      func() time.Time { return now },
	})

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	tests := []struct {
		name      string
		advance   time.Duration
		wantCalls int
	}{
		{name: "inside ttl", advance: 20 * time.Minute, wantCalls: 1},
		{name: "past ttl", advance: 20 * time.Minute, wantCalls: 2},
	}
	for _, tt := range tests {
		now = now.Add(tt.advance)
		if _, err := svc.Month(context.Background(), 2023, time.May); err != nil {
			t.Fatalf("%s: Month: %v", tt.name, err)
		}
		if src.calls != tt.wantCalls {
			t.Errorf("%s: source calls = %d, want %d", tt.name, src.calls, tt.wantCalls)
		}
	}
}
