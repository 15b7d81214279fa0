package layout

import (
	"encoding/json"
	"testing"
	"time"

	"monthcal/internal/model"
)

func TestWeekLayoutBounds(t *testing.T) {
	tests := []struct {
		name     string
		first    time.Time
		last     time.Time
		wantDays int
	}{
		{name: "full week", first: day(2023, time.May, 1), last: day(2023, time.May, 7), wantDays: 7},
		{name: "clamped to seven", first: day(2023, time.May, 1), last: day(2023, time.May, 20), wantDays: 7},
		{name: "short tail", first: day(2023, time.May, 29), last: day(2023, time.May, 31), wantDays: 3},
		{name: "inverted", first: day(2023, time.May, 29), last: day(2023, time.May, 1), wantDays: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWeekLayout(tt.first, tt.last, Unbounded)
			if w.Days() != tt.wantDays {
				t.Errorf("Days() = %d, want %d", w.Days(), tt.wantDays)
			}
			if want := tt.first.AddDate(0, 0, tt.wantDays-1); !w.LastDay().Equal(want) {
				t.Errorf("LastDay() = %v, want %v", w.LastDay(), want)
			}
		})
	}
}

func TestWeekLayoutTieBreak(t *testing.T) {
	w := NewWeekLayout(day(2023, time.May, 1), day(2023, time.May, 7), Unbounded)

	short := &model.Appointment{UID: "short", Start: day(2023, time.May, 2), End: day(2023, time.May, 4), MultiDay: true}
	long := &model.Appointment{UID: "long", Start: day(2023, time.May, 2), End: day(2023, time.May, 6), MultiDay: true}
	early := &model.Appointment{UID: "early", Start: at(2023, time.May, 1, 9), End: at(2023, time.May, 1, 10)}
	twinA := &model.Appointment{UID: "twinA", Start: at(2023, time.May, 5, 9), End: at(2023, time.May, 5, 10)}
	twinB := &model.Appointment{UID: "twinB", Start: at(2023, time.May, 5, 11), End: at(2023, time.May, 5, 12)}

	// Deposit in an order the tie-break must override.
	w.AddMultiDayAppointment(short)
	w.AddAppointment(twinA)
	w.AddMultiDayAppointment(long)
	w.AddAppointment(twinB)
	w.AddAppointment(early)

	want := map[string]int{
		"early": 0, // column 0, nothing before it
		"long":  0, // starts col 1, longer span wins the tie
		"short": 1,
		"twinA": 1, // col 4: layer 0 is long, layer 1 free after short ends at col 2
		"twinB": 2, // same span as twinA, later deposit
	}
	for _, p := range w.Items() {
		if got := p.Layer; got != want[p.Appointment.UID] {
			t.Errorf("%s layer = %d, want %d", p.Appointment.UID, got, want[p.Appointment.UID])
		}
	}
	if w.LayerCount() != 3 {
		t.Errorf("LayerCount() = %d, want 3", w.LayerCount())
	}
}

func TestWeekLayoutRelayoutAfterDeposit(t *testing.T) {
	w := NewWeekLayout(day(2023, time.May, 1), day(2023, time.May, 7), 2)
	a := &model.Appointment{Start: day(2023, time.May, 1), End: day(2023, time.May, 8), MultiDay: true}
	w.AddMultiDayAppointment(a)
	if w.LayerCount() != 1 {
		t.Fatalf("LayerCount() = %d, want 1", w.LayerCount())
	}

	b := &model.Appointment{Start: at(2023, time.May, 3, 9), End: at(2023, time.May, 3, 10)}
	c := &model.Appointment{Start: at(2023, time.May, 3, 11), End: at(2023, time.May, 3, 12)}
	w.AddAppointment(b)
	w.AddAppointment(c)

	if w.LayerCount() != 2 {
		t.Errorf("LayerCount() = %d, want 2", w.LayerCount())
	}
	if w.OverflowCount(2) != 1 {
		t.Errorf("OverflowCount(2) = %d, want 1", w.OverflowCount(2))
	}
	if w.Len() != 3 {
		t.Errorf("Len() = %d, want 3", w.Len())
	}
}

func TestWeekLayoutSegmentNoneFallsBack(t *testing.T) {
	w := NewWeekLayout(day(2023, time.May, 1), day(2023, time.May, 7), Unbounded)
	a := &model.Appointment{Start: day(2023, time.May, 2), End: day(2023, time.May, 5), MultiDay: true}
	w.AddMultiWeekAppointment(a, SegmentNone)

	items := w.MultiDayItems()
	if len(items) != 1 {
		t.Fatalf("MultiDayItems() = %d, want 1", len(items))
	}
	if p := items[0]; p.FirstCol != 1 || p.LastCol != 3 || p.Span() != 3 {
		t.Errorf("cols = %d..%d span %d, want 1..3 span 3", p.FirstCol, p.LastCol, p.Span())
	}
}

func TestSegmentKindText(t *testing.T) {
	tests := []struct {
		kind SegmentKind
		want string
	}{
		{SegmentNone, `"none"`},
		{FirstWeek, `"first_week"`},
		{InBetween, `"in_between"`},
		{LastWeek, `"last_week"`},
	}
	for _, tt := range tests {
		b, err := json.Marshal(tt.kind)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", tt.kind, err)
		}
		if string(b) != tt.want {
			t.Errorf("Marshal(%v) = %s, want %s", tt.kind, b, tt.want)
		}
	}
	if _, err := SegmentKind(42).MarshalText(); err == nil {
		t.Error("MarshalText on unknown kind returned nil error")
	}
}
