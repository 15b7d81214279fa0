package model

import "time"

// Appointment is a single concrete calendar entry as consumed by the month
// layout engine. Recurring events are expanded upstream (internal/ics), so
// every Appointment is one discrete instance.
//
// The layout engine only reads Start, End, AllDay and MultiDay. Selected is
// UI state and is carried through untouched.
type Appointment struct {
	SourceID string // calendar source ID
	UID      string // iCalendar UID

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, typically derived from the local start time.
	InstanceKey string

	Summary     string
	Description string
	Location    string

	// Start / End are in the configured display timezone. End >= Start.
	Start time.Time
	End   time.Time

	AllDay   bool
	MultiDay bool

	Selected bool
}

// LastInstant returns the instant used to decide the last calendar day the
// appointment occupies. An End exactly at midnight after Start is exclusive
// (iCalendar DTEND convention), so the previous day is used.
func (a *Appointment) LastInstant() time.Time {
	if !a.End.After(a.Start) {
		return a.Start
	}
	h, m, s := a.End.Clock()
	if h == 0 && m == 0 && s == 0 && a.End.Nanosecond() == 0 {
		return a.End.Add(-time.Nanosecond)
	}
	return a.End
}

// SpansDays reports whether the appointment occupies more than one calendar
// day in its own location.
func (a *Appointment) SpansDays() bool {
	last := a.LastInstant()
	y1, m1, d1 := a.Start.Date()
	y2, m2, d2 := last.Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}
