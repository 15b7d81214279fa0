package layout

import "fmt"

// SegmentKind tells which visual fragment of a multi-week appointment a
// week-row renders. It is attached to the placement, not the appointment,
// since one appointment carries a different kind in every row it spans.
type SegmentKind int

const (
	// SegmentNone marks single-day items and multi-day items that start and
	// end inside the same row.
	SegmentNone SegmentKind = iota
	// FirstWeek runs from the appointment's start day to the end of the row.
	FirstWeek
	// InBetween fills a whole row.
	InBetween
	// LastWeek runs from the start of the row to the appointment's end day.
	LastWeek
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentNone:
		return "none"
	case FirstWeek:
		return "first_week"
	case InBetween:
		return "in_between"
	case LastWeek:
		return "last_week"
	default:
		return fmt.Sprintf("SegmentKind(%d)", int(k))
	}
}

// MarshalText encodes the kind as its snake_case name.
func (k SegmentKind) MarshalText() ([]byte, error) {
	switch k {
	case SegmentNone, FirstWeek, InBetween, LastWeek:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("layout: unknown segment kind %d", int(k))
	}
}
