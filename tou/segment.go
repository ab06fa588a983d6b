// Package tou compiles a day's quarterly strategic intents into a
// hardware-realizable ordered list of hour-aligned TOU segments (spec
// §4.7), and computes the minimal differential update against an
// inverter's currently applied schedule (spec §4.8).
package tou

import "fmt"

// BattMode is the inverter's time-of-use battery mode.
type BattMode int

const (
	BatteryFirst BattMode = iota // grid charging permitted
	LoadFirst                    // discharge to loads permitted
	GridFirst                    // export-oriented discharge permitted
)

func (m BattMode) String() string {
	switch m {
	case BatteryFirst:
		return "battery-first"
	case LoadFirst:
		return "load-first"
	case GridFirst:
		return "grid-first"
	default:
		return "unknown"
	}
}

// MaxSegments is N_max, the inverter's segment-table size limit.
const MaxSegments = 9

// Segment is one TOU Segment (spec §3): an hour-aligned inverter control
// record. StartHour/EndHour are on the half-open range [StartHour, EndHour).
type Segment struct {
	SegmentID int // [1..MaxSegments]
	StartHour int // 0-23
	EndHour   int // 1-24
	BattMode  BattMode
	Enabled   bool
}

// StartTime formats the segment's start as "HH:00".
func (s Segment) StartTime() string { return fmt.Sprintf("%02d:00", s.StartHour) }

// EndTime formats the segment's end as "HH:00" (24 allowed to mean midnight).
func (s Segment) EndTime() string { return fmt.Sprintf("%02d:00", s.EndHour%24) }

// sameSpec reports whether two segments match on (start, end, mode,
// enabled) — the equality the diff algorithm uses, ignoring SegmentID.
func sameSpec(a, b Segment) bool {
	return a.StartHour == b.StartHour && a.EndHour == b.EndHour &&
		a.BattMode == b.BattMode && a.Enabled == b.Enabled
}

// overlapsHourRange reports whether segment s's hour range intersects
// [from, to).
func (s Segment) overlapsHourRange(from, to int) bool {
	return s.StartHour < to && s.EndHour > from
}

// PerPeriodKnobs are the per-period control knobs applied every period,
// separate from the TOU table (spec §4.7).
type PerPeriodKnobs struct {
	GridChargeEnabled  bool
	DischargePowerRate int // 0-100 %
	ChargePowerRate    int // 0-100 %
}
