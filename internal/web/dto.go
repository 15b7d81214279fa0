package web

import (
	"time"

	"monthcal/internal/layout"
	"monthcal/internal/model"
)

// MonthDTO is the JSON shape of a computed month layout.
type MonthDTO struct {
	Month     string `json:"month"`
	WeekStart string `json:"week_start"`
	FirstDay  string `json:"first_day"`
	LastDay   string `json:"last_day"`
	MaxLayer  int    `json:"max_layer"`
	Dropped   int    `json:"dropped"`

	// Rows has one entry per grid row; untouched rows are null.
	Rows []*WeekDTO `json:"rows"`
}

// WeekDTO is one week-row.
type WeekDTO struct {
	FirstDay   string         `json:"first_day"`
	LastDay    string         `json:"last_day"`
	LayerCount int            `json:"layer_count"`
	Items      []PlacementDTO `json:"items"`
	// Overflow counts overflowed items per day column.
	Overflow []int `json:"overflow"`
}

// PlacementDTO is one appointment or segment within a row.
type PlacementDTO struct {
	Appointment appointmentDTO     `json:"appointment"`
	Kind        layout.SegmentKind `json:"kind"`
	FirstCol    int                `json:"first_col"`
	LastCol     int                `json:"last_col"`
	Layer       int                `json:"layer"`
	Overflow    bool               `json:"overflow,omitempty"`
}

type appointmentDTO struct {
	SourceID    string    `json:"source_id"`
	UID         string    `json:"uid"`
	InstanceKey string    `json:"instance_key"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	AllDay      bool      `json:"all_day"`
	MultiDay    bool      `json:"multi_day"`
	Selected    bool      `json:"selected,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

type appointmentsResponse struct {
	Appointments    []appointmentDTO `json:"appointments"`
	TruncatedUIDs   []string         `json:"truncated_uids,omitempty"`
	RangeStart      time.Time        `json:"range_start"`
	RangeEnd        time.Time        `json:"range_end"`
	DisplayTimeZone string           `json:"display_timezone"`
}

func newAppointmentDTO(a *model.Appointment) appointmentDTO {
	return appointmentDTO{
		SourceID:    a.SourceID,
		UID:         a.UID,
		InstanceKey: a.InstanceKey,
		Summary:     a.Summary,
		Description: a.Description,
		Location:    a.Location,
		AllDay:      a.AllDay,
		MultiDay:    a.MultiDay,
		Selected:    a.Selected,
		Start:       a.Start,
		End:         a.End,
	}
}

// NewMonthDTO converts a layout into its JSON shape.
func NewMonthDTO(m *layout.MonthLayout, month time.Time, weekStart string) MonthDTO {
	out := MonthDTO{
		Month:     month.Format("2006-01"),
		WeekStart: weekStart,
		FirstDay:  m.FirstDay().Format(time.DateOnly),
		LastDay:   m.LastDay().Format(time.DateOnly),
		MaxLayer:  m.MaxLayer(),
		Dropped:   m.Dropped(),
		Rows:      make([]*WeekDTO, m.Rows()),
	}

	for i, w := range m.Weeks() {
		if w == nil {
			continue
		}
		row := &WeekDTO{
			FirstDay:   w.FirstDay().Format(time.DateOnly),
			LastDay:    w.LastDay().Format(time.DateOnly),
			LayerCount: w.LayerCount(),
			Overflow:   make([]int, w.Days()),
		}
		for _, p := range w.Items() {
			row.Items = append(row.Items, PlacementDTO{
				Appointment: newAppointmentDTO(p.Appointment),
				Kind:        p.Kind,
				FirstCol:    p.FirstCol,
				LastCol:     p.LastCol,
				Layer:       p.Layer,
				Overflow:    p.Overflow,
			})
		}
		for c := range row.Overflow {
			row.Overflow[c] = w.OverflowCount(c)
		}
		out.Rows[i] = row
	}
	return out
}
