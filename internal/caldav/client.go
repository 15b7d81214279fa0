package caldav

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"

	"monthcal/internal/ics"
	appLog "monthcal/internal/log"
)

// calendarQuerier is the subset of *caldav.Client used here.
type calendarQuerier interface {
	QueryCalendar(ctx context.Context, calendar string, query *caldav.CalendarQuery) ([]caldav.CalendarObject, error)
}

// Client reads events from one CalDAV calendar collection.
type Client struct {
	id       string
	baseURL  string
	username string
	password string
	calendar string

	mu     sync.Mutex
	client calendarQuerier
}

// NewClient creates a CalDAV client. The connection is opened lazily on the
// first query.
func NewClient(id, baseURL, username, password, calendar string) *Client {
	return &Client{
		id:       id,
		baseURL:  baseURL,
		username: username,
		password: password,
		calendar: calendar,
	}
}

// ID returns the source ID used on produced events.
func (c *Client) ID() string { return c.id }

// connect opens the connection once; refresh and HTTP requests share c.
func (c *Client) connect() (calendarQuerier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	if c.baseURL == "" {
		return nil, errors.New("caldav: base URL is empty")
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username: c.username,
			password: c.password,
		},
		Timeout: 30 * time.Second,
	}

	client, err := caldav.NewClient(httpClient, c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("caldav: connect: %w", err)
	}
	c.client = client
	return client, nil
}

// basicAuthTransport adds Basic Auth to HTTP requests.
type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.username != "" {
		req.SetBasicAuth(t.username, t.password)
	}
	return http.DefaultTransport.RoundTrip(req)
}

// Events queries VEVENTs overlapping [from, to) and returns them unexpanded,
// ready for ics.ExpandAppointments. Objects that fail to decode are skipped.
func (c *Client) Events(ctx context.Context, from, to time.Time) ([]ics.ParsedEvent, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}
	if c.calendar == "" {
		return nil, errors.New("caldav: calendar path not specified")
	}

	query := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{
				{
					Name:  ical.CompEvent,
					Start: from,
					End:   to,
				},
			},
		},
	}

	objects, err := client.QueryCalendar(ctx, c.calendar, query)
	if err != nil {
		return nil, fmt.Errorf("caldav: query calendar: %w", err)
	}

	src := ics.Source{ID: c.id, URL: c.baseURL}
	var events []ics.ParsedEvent
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		for _, comp := range obj.Data.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			ev, err := parseEvent(src, comp)
			if err != nil {
				appLog.Warn("caldav event skipped", "err", err, "id", c.id, "path", obj.Path)
				continue
			}
			events = append(events, ev)
		}
	}

	appLog.Debug("caldav query completed", "id", c.id, "objects", len(objects), "event_count", len(events))
	return events, nil
}

// parseEvent converts one VEVENT into an ics.ParsedEvent.
func parseEvent(src ics.Source, comp *ical.Component) (ics.ParsedEvent, error) {
	out := ics.ParsedEvent{Source: src}

	out.UID = textProp(comp, ical.PropUID)
	if out.UID == "" {
		return out, errors.New("missing UID")
	}
	if seq := textProp(comp, ical.PropSequence); seq != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(seq)); err == nil {
			out.Seq = n
		}
	}
	out.Summary = textProp(comp, ical.PropSummary)
	out.Description = textProp(comp, ical.PropDescription)
	out.Location = textProp(comp, ical.PropLocation)

	start := comp.Props.Get(ical.PropDateTimeStart)
	if start == nil {
		return out, errors.New("missing DTSTART")
	}
	t, err := start.DateTime(time.Local)
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	out.Start = t
	out.AllDay = start.Params.Get(ical.ParamValue) == string(ical.ValueDate)

	switch {
	case comp.Props.Get(ical.PropDateTimeEnd) != nil:
		end, err := comp.Props.Get(ical.PropDateTimeEnd).DateTime(time.Local)
		if err != nil {
			return out, fmt.Errorf("DTEND: %w", err)
		}
		out.End = end
	case out.AllDay:
		out.End = out.Start.AddDate(0, 0, 1)
	default:
		out.End = out.Start
	}
	if out.End.Before(out.Start) {
		out.End = out.Start
	}

	out.RawRRule = textProp(comp, ical.PropRecurrenceRule)

	for _, p := range comp.Props.Values(ical.PropExceptionDates) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			ex := ical.NewProp(ical.PropExceptionDates)
			ex.Value = part
			ex.Params = p.Params
			if t, err := ex.DateTime(out.Start.Location()); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if rid := comp.Props.Get(ical.PropRecurrenceID); rid != nil {
		if t, err := rid.DateTime(out.Start.Location()); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

func textProp(comp *ical.Component, name string) string {
	if p := comp.Props.Get(name); p != nil {
		return p.Value
	}
	return ""
}
