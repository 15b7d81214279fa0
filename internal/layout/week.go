package layout

import (
	"sort"
	"time"

	"monthcal/internal/model"
)

// Unbounded disables the layer cap.
const Unbounded = 0

// Placement is one appointment (or one row-segment of a multi-week
// appointment) deposited into a WeekLayout.
type Placement struct {
	Appointment *model.Appointment

	// Kind is SegmentNone for single-day and same-week items.
	Kind SegmentKind

	// FirstCol / LastCol are the occupied day columns inside the row,
	// 0-based and inclusive.
	FirstCol int
	LastCol  int

	// Layer is the vertical stacking slot, or -1 when Overflow is set.
	Layer    int
	Overflow bool

	// Order is the deposit index within the row.
	Order int

	multiDay bool
}

// Span returns the number of day columns the placement occupies.
func (p Placement) Span() int {
	return p.LastCol - p.FirstCol + 1
}

// MultiDay reports whether the placement was deposited as a multi-day item
// or segment rather than as a single-day cell.
func (p Placement) MultiDay() bool {
	return p.multiDay
}

// WeekLayout holds every item deposited into one week-row and assigns each a
// layer such that items sharing a day column never share a layer.
//
// Layers are computed lazily on first read after a deposit. A WeekLayout is
// not safe for concurrent use while deposits are still being made;
// MonthLayout computes layers eagerly so its rows are read-only afterwards.
type WeekLayout struct {
	firstDay time.Time
	lastDay  time.Time
	first    int // day number of firstDay
	days     int
	maxLayer int

	items  []Placement
	layers int
	dirty  bool
}

// NewWeekLayout creates an empty row covering firstDay..lastDay. The range is
// clamped to at most seven days. maxLayer caps the number of layers;
// Unbounded (or any value <= 0) disables the cap.
func NewWeekLayout(firstDay, lastDay time.Time, maxLayer int) *WeekLayout {
	firstDay = midnight(firstDay)
	loc := firstDay.Location()
	first := dayNumber(firstDay, loc)

	days := dayNumber(lastDay, loc) - first + 1
	if days > DaysPerWeek {
		days = DaysPerWeek
	}
	if days < 1 {
		days = 1
	}
	if maxLayer < 0 {
		maxLayer = Unbounded
	}

	return &WeekLayout{
		firstDay: firstDay,
		lastDay:  firstDay.AddDate(0, 0, days-1),
		first:    first,
		days:     days,
		maxLayer: maxLayer,
	}
}

func (w *WeekLayout) FirstDay() time.Time { return w.firstDay }
func (w *WeekLayout) LastDay() time.Time  { return w.lastDay }
func (w *WeekLayout) Days() int           { return w.days }
func (w *WeekLayout) MaxLayer() int       { return w.maxLayer }
func (w *WeekLayout) Len() int            { return len(w.items) }

// col maps an instant to a day column clamped into the row.
func (w *WeekLayout) col(t time.Time) int {
	c := dayNumber(t, w.firstDay.Location()) - w.first
	if c < 0 {
		return 0
	}
	if c >= w.days {
		return w.days - 1
	}
	return c
}

func (w *WeekLayout) deposit(a *model.Appointment, kind SegmentKind, firstCol, lastCol int, multiDay bool) {
	if lastCol < firstCol {
		lastCol = firstCol
	}
	w.items = append(w.items, Placement{
		Appointment: a,
		Kind:        kind,
		FirstCol:    firstCol,
		LastCol:     lastCol,
		Layer:       -1,
		Order:       len(w.items),
		multiDay:    multiDay,
	})
	w.dirty = true
}

// AddAppointment deposits a single-day item. It occupies exactly the day
// cell of its start.
func (w *WeekLayout) AddAppointment(a *model.Appointment) {
	c := w.col(a.Start)
	w.deposit(a, SegmentNone, c, c, false)
}

// AddMultiDayAppointment deposits an item whose days lie inside this row.
func (w *WeekLayout) AddMultiDayAppointment(a *model.Appointment) {
	w.deposit(a, SegmentNone, w.col(a.Start), w.col(a.LastInstant()), true)
}

// AddMultiWeekAppointment deposits one row-segment of an appointment that
// spans several rows. A FirstWeek segment runs from the start day to the end
// of the row, a LastWeek segment from the start of the row to the end day,
// and an InBetween segment covers the whole row. SegmentNone behaves like
// AddMultiDayAppointment.
func (w *WeekLayout) AddMultiWeekAppointment(a *model.Appointment, kind SegmentKind) {
	switch kind {
	case FirstWeek:
		w.deposit(a, kind, w.col(a.Start), w.days-1, true)
	case InBetween:
		w.deposit(a, kind, 0, w.days-1, true)
	case LastWeek:
		w.deposit(a, kind, 0, w.col(a.LastInstant()), true)
	default:
		w.AddMultiDayAppointment(a)
	}
}

// assignLayers runs greedy interval partitioning: items sorted by first
// column, longer span first, then deposit order, each taking the lowest
// layer with no occupied column in its range. When every open layer
// conflicts and the cap is reached, the item is marked overflow.
func (w *WeekLayout) assignLayers() {
	if !w.dirty {
		return
	}

	order := make([]int, len(w.items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := w.items[order[i]], w.items[order[j]]
		if a.FirstCol != b.FirstCol {
			return a.FirstCol < b.FirstCol
		}
		if a.Span() != b.Span() {
			return a.Span() > b.Span()
		}
		return a.Order < b.Order
	})

	var occupied [][DaysPerWeek]bool
	for _, idx := range order {
		p := &w.items[idx]
		p.Layer, p.Overflow = -1, false

		layer := -1
		for l := range occupied {
			if isFree(&occupied[l], p.FirstCol, p.LastCol) {
				layer = l
				break
			}
		}
		if layer < 0 {
			if w.maxLayer > 0 && len(occupied) >= w.maxLayer {
				p.Overflow = true
				continue
			}
			occupied = append(occupied, [DaysPerWeek]bool{})
			layer = len(occupied) - 1
		}
		for c := p.FirstCol; c <= p.LastCol; c++ {
			occupied[layer][c] = true
		}
		p.Layer = layer
	}

	w.layers = len(occupied)
	w.dirty = false
}

func isFree(cols *[DaysPerWeek]bool, first, last int) bool {
	for c := first; c <= last; c++ {
		if cols[c] {
			return false
		}
	}
	return true
}

// LayerCount returns the number of distinct layers in use.
func (w *WeekLayout) LayerCount() int {
	w.assignLayers()
	return w.layers
}

// Items returns a copy of every placement ordered by layer, then first
// column, then deposit order. Overflowed placements come last.
func (w *WeekLayout) Items() []Placement {
	w.assignLayers()
	out := make([]Placement, len(w.items))
	copy(out, w.items)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Overflow != b.Overflow {
			return !a.Overflow
		}
		if a.Layer != b.Layer {
			return a.Layer < b.Layer
		}
		if a.FirstCol != b.FirstCol {
			return a.FirstCol < b.FirstCol
		}
		return a.Order < b.Order
	})
	return out
}

// SingleDayItems returns the placements deposited via AddAppointment.
func (w *WeekLayout) SingleDayItems() []Placement {
	return w.filter(func(p Placement) bool { return !p.multiDay })
}

// MultiDayItems returns multi-day items and multi-week segments.
func (w *WeekLayout) MultiDayItems() []Placement {
	return w.filter(func(p Placement) bool { return p.multiDay })
}

func (w *WeekLayout) filter(keep func(Placement) bool) []Placement {
	var out []Placement
	for _, p := range w.Items() {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// OverflowCount returns how many overflowed placements touch day column col.
func (w *WeekLayout) OverflowCount(col int) int {
	w.assignLayers()
	n := 0
	for _, p := range w.items {
		if p.Overflow && p.FirstCol <= col && col <= p.LastCol {
			n++
		}
	}
	return n
}

// HasOverflow reports whether any placement exceeded the layer cap.
func (w *WeekLayout) HasOverflow() bool {
	w.assignLayers()
	for _, p := range w.items {
		if p.Overflow {
			return true
		}
	}
	return false
}
