package layout

import (
	"errors"
	"fmt"
	"time"

	appLog "monthcal/internal/log"
	"monthcal/internal/model"
)

var (
	ErrInvalidRows     = errors.New("row count must be between 1 and 6")
	ErrZeroGridStart   = errors.New("grid first day is not set")
	ErrInvalidMaxLayer = errors.New("max layer must be positive or Unbounded")
)

// MonthLayout distributes appointments over the week-rows of a month grid.
// The whole layout is computed by NewMonthLayout; there is no incremental
// update.
type MonthLayout struct {
	firstDay time.Time
	lastDay  time.Time
	rows     int
	maxLayer int

	// weeks stays nil for rows no appointment touches.
	weeks [MaxRows]*WeekLayout

	placed  int
	dropped int
}

// NewMonthLayout lays out appointments on a grid of rows week-rows starting
// at firstDay. firstDay is truncated to midnight in its own location; all
// day arithmetic happens in that location.
//
// An appointment's last day comes from Appointment.LastInstant: an End at
// exactly midnight is exclusive, so it ends on the previous day.
//
// Appointments that do not fall inside the grid, or that start before it,
// are skipped and counted in Dropped. The appointments are only read.
func NewMonthLayout(firstDay time.Time, rows int, appointments []*model.Appointment, maxLayer int) (*MonthLayout, error) {
	if firstDay.IsZero() {
		return nil, fmt.Errorf("layout: %w", ErrZeroGridStart)
	}
	if rows < 1 || rows > MaxRows {
		return nil, fmt.Errorf("layout: rows=%d: %w", rows, ErrInvalidRows)
	}
	if maxLayer < 0 {
		return nil, fmt.Errorf("layout: max_layer=%d: %w", maxLayer, ErrInvalidMaxLayer)
	}

	firstDay = midnight(firstDay)
	m := &MonthLayout{
		firstDay: firstDay,
		lastDay:  firstDay.AddDate(0, 0, rows*DaysPerWeek-1),
		rows:     rows,
		maxLayer: maxLayer,
	}
	m.placeAppointments(appointments)

	for _, w := range m.weeks {
		if w != nil {
			w.assignLayers()
		}
	}
	return m, nil
}

func (m *MonthLayout) initWeek(row int) *WeekLayout {
	if m.weeks[row] == nil {
		first := m.firstDay.AddDate(0, 0, row*DaysPerWeek)
		last := first.AddDate(0, 0, DaysPerWeek-1)
		if last.After(m.lastDay) {
			last = m.lastDay
		}
		m.weeks[row] = NewWeekLayout(first, last, m.maxLayer)
	}
	return m.weeks[row]
}

func (m *MonthLayout) placeAppointments(appointments []*model.Appointment) {
	gridDays := m.rows * DaysPerWeek

	for i, a := range appointments {
		if a == nil {
			m.dropped++
			continue
		}
		startDay := DaysBetween(a.Start, m.firstDay)
		endDay := DaysBetween(a.LastInstant(), m.firstDay)

		if endDay < 0 || startDay >= gridDays {
			appLog.Debug("layout: appointment outside grid", "index", i, "uid", a.UID)
			m.dropped++
			continue
		}

		startRow := floorDiv(startDay, DaysPerWeek)
		if startRow < 0 {
			appLog.Debug("layout: appointment starts before grid", "index", i, "uid", a.UID)
			m.dropped++
			continue
		}

		w := m.initWeek(startRow)
		if a.MultiDay || a.AllDay {
			m.placeMultiDay(startRow, endDay, a)
			continue
		}
		w.AddAppointment(a)
		m.placed++
	}
}

func (m *MonthLayout) placeMultiDay(startRow, endDay int, a *model.Appointment) {
	endRow := floorDiv(endDay, DaysPerWeek)
	if endRow > m.rows-1 {
		endRow = m.rows - 1
	}
	m.initWeek(endRow)

	if startRow == endRow {
		m.weeks[startRow].AddMultiDayAppointment(a)
		m.placed++
		return
	}

	m.weeks[startRow].AddMultiWeekAppointment(a, FirstWeek)
	for row := startRow + 1; row < endRow; row++ {
		m.initWeek(row).AddMultiWeekAppointment(a, InBetween)
	}
	m.weeks[endRow].AddMultiWeekAppointment(a, LastWeek)
	m.placed += endRow - startRow + 1
}

// Weeks returns the rows of the grid, nil where no appointment was placed.
// The slice is a copy; the WeekLayouts are shared.
func (m *MonthLayout) Weeks() []*WeekLayout {
	out := make([]*WeekLayout, m.rows)
	copy(out, m.weeks[:m.rows])
	return out
}

// Week returns row i, or nil if it is empty or out of range.
func (m *MonthLayout) Week(i int) *WeekLayout {
	if i < 0 || i >= m.rows {
		return nil
	}
	return m.weeks[i]
}

func (m *MonthLayout) FirstDay() time.Time { return m.firstDay }
func (m *MonthLayout) LastDay() time.Time  { return m.lastDay }
func (m *MonthLayout) Rows() int           { return m.rows }
func (m *MonthLayout) MaxLayer() int       { return m.maxLayer }

// Placed returns the total number of deposits across all rows; a multi-week
// appointment counts once per row it spans.
func (m *MonthLayout) Placed() int { return m.placed }

// Dropped returns how many input appointments were skipped.
func (m *MonthLayout) Dropped() int { return m.dropped }
