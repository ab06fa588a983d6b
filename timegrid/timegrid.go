// Package timegrid converts between quarter-hour period indices and
// wall-clock timestamps in a fixed IANA timezone, handling DST transitions.
//
// A period is a continuous integer p >= 0; p = 0 is today 00:00 local time.
// All arrays elsewhere in the core are indexed the same way: index 0 is
// always today's midnight, never the start of whatever slice is in hand.
package timegrid

import (
	"fmt"
	"time"
)

const (
	// IntervalMinutes is the quarterly resolution.
	IntervalMinutes = 15
	// PeriodsPerHour is the number of periods in one civil hour.
	PeriodsPerHour = 4
	// PeriodsPerDayNormal is the period count on a day without a DST shift.
	PeriodsPerDayNormal = 96
)

// Grid is a period/timestamp converter bound to one IANA timezone.
type Grid struct {
	loc *time.Location
}

// New builds a Grid for the given timezone name, e.g. "Europe/Stockholm".
func New(timezone string) (*Grid, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("timegrid: load location %q: %w", timezone, err)
	}
	return &Grid{loc: loc}, nil
}

// Location returns the grid's timezone.
func (g *Grid) Location() *time.Location { return g.loc }

// PeriodsInDay measures the civil length of the given date in the grid's
// timezone and returns hours*4: 92 on spring-forward days, 100 on
// fall-back days, 96 otherwise.
func (g *Grid) PeriodsInDay(date time.Time) int {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, g.loc)
	next := start.AddDate(0, 0, 1)
	elapsedHours := next.Sub(start).Hours()
	return int(elapsedHours * PeriodsPerHour)
}

// TimestampToPeriod converts dt to a continuous period index from today's
// 00:00. Only today and tomorrow (relative to the grid's current date) are
// supported; anything else is InvalidInput.
func (g *Grid) TimestampToPeriod(dt time.Time) (int, error) {
	dt = dt.In(g.loc)
	today := time.Now().In(g.loc)
	ty, tm, td := today.Date()
	todayDate := time.Date(ty, tm, td, 0, 0, 0, 0, g.loc)

	dy, dm, dd := dt.Date()
	targetDate := time.Date(dy, dm, dd, 0, 0, 0, 0, g.loc)

	daysFromToday := civilDayDiff(todayDate, targetDate)
	if daysFromToday < 0 || daysFromToday > 1 {
		return 0, fmt.Errorf("timegrid: only today and tomorrow supported, got %s (today is %s)",
			targetDate.Format("2006-01-02"), todayDate.Format("2006-01-02"))
	}

	dayStart := time.Date(dy, dm, dd, 0, 0, 0, 0, g.loc)
	elapsedMinutes := dt.Sub(dayStart).Minutes()
	periodWithinDay := int(elapsedMinutes / IntervalMinutes)

	if daysFromToday == 0 {
		return periodWithinDay, nil
	}
	return g.PeriodsInDay(todayDate) + periodWithinDay, nil
}

// PeriodToTimestamp is the inverse of TimestampToPeriod: it converts a
// period index back into a wall-clock timestamp. Errors for negative p or
// p beyond end-of-tomorrow.
func (g *Grid) PeriodToTimestamp(p int) (time.Time, error) {
	if p < 0 {
		return time.Time{}, fmt.Errorf("timegrid: period index must be non-negative, got %d", p)
	}

	today := time.Now().In(g.loc)
	ty, tm, td := today.Date()
	todayDate := time.Date(ty, tm, td, 0, 0, 0, 0, g.loc)
	todayPeriods := g.PeriodsInDay(todayDate)

	if p < todayPeriods {
		return todayDate.Add(time.Duration(p*IntervalMinutes) * time.Minute), nil
	}

	tomorrow := todayDate.AddDate(0, 0, 1)
	tomorrowPeriods := g.PeriodsInDay(tomorrow)
	maxPeriod := todayPeriods + tomorrowPeriods - 1

	if p > maxPeriod {
		return time.Time{}, fmt.Errorf("timegrid: period index %d beyond tomorrow (max %d = today %d + tomorrow %d)",
			p, maxPeriod, todayPeriods, tomorrowPeriods)
	}

	periodWithinTomorrow := p - todayPeriods
	return tomorrow.Add(time.Duration(periodWithinTomorrow*IntervalMinutes) * time.Minute), nil
}

// CurrentPeriod returns the period index for the current instant.
func (g *Grid) CurrentPeriod() (int, error) {
	return g.TimestampToPeriod(time.Now().In(g.loc))
}

// civilDayDiff returns the number of calendar days from to minus the number
// of calendar days from, counting by date alone. from and to must already be
// midnight in the grid's location; civilDayDiff normalizes both to UTC
// before differencing so a DST transition between them (a 23h or 25h local
// day) can never shift the result off by one, unlike dividing the raw local
// wall-clock duration by 24h.
func civilDayDiff(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	fromUTC := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	toUTC := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(toUTC.Sub(fromUTC).Hours() / 24)
}
