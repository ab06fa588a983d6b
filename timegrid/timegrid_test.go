package timegrid

import (
	"testing"
	"time"
)

func TestPeriodsInDayNormal(t *testing.T) {
	g, err := New("UTC")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	date := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	if got := g.PeriodsInDay(date); got != PeriodsPerDayNormal {
		t.Fatalf("PeriodsInDay = %d, want %d", got, PeriodsPerDayNormal)
	}
}

func TestPeriodsInDayDSTSpringForward(t *testing.T) {
	// Stockholm springs forward on the last Sunday of March; 2026-03-29.
	g, err := New("Europe/Stockholm")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	date := time.Date(2026, 3, 29, 0, 0, 0, 0, g.Location())
	if got := g.PeriodsInDay(date); got != 92 {
		t.Fatalf("PeriodsInDay(spring-forward) = %d, want 92", got)
	}
}

func TestPeriodsInDayDSTFallBack(t *testing.T) {
	// Stockholm falls back on the last Sunday of October; 2026-10-25.
	g, err := New("Europe/Stockholm")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	date := time.Date(2026, 10, 25, 0, 0, 0, 0, g.Location())
	if got := g.PeriodsInDay(date); got != 100 {
		t.Fatalf("PeriodsInDay(fall-back) = %d, want 100", got)
	}
}

func TestRoundTripAcrossTodayAndTomorrow(t *testing.T) {
	g, err := New("UTC")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	today := time.Now().In(g.Location())
	ty, tm, td := today.Date()
	todayDate := time.Date(ty, tm, td, 0, 0, 0, 0, g.Location())
	todayPeriods := g.PeriodsInDay(todayDate)
	tomorrowPeriods := g.PeriodsInDay(todayDate.AddDate(0, 0, 1))

	for p := 0; p < todayPeriods+tomorrowPeriods; p++ {
		ts, err := g.PeriodToTimestamp(p)
		if err != nil {
			t.Fatalf("PeriodToTimestamp(%d): %v", p, err)
		}
		got, err := g.TimestampToPeriod(ts)
		if err != nil {
			t.Fatalf("TimestampToPeriod(%v): %v", ts, err)
		}
		if got != p {
			t.Fatalf("round trip mismatch: PeriodToTimestamp(%d) -> %v -> TimestampToPeriod = %d", p, ts, got)
		}
	}
}

func TestPeriodToTimestampRejectsNegative(t *testing.T) {
	g, _ := New("UTC")
	if _, err := g.PeriodToTimestamp(-1); err == nil {
		t.Fatalf("expected error for negative period")
	}
}

func TestPeriodToTimestampRejectsBeyondTomorrow(t *testing.T) {
	g, _ := New("UTC")
	today := time.Now().In(g.Location())
	ty, tm, td := today.Date()
	todayDate := time.Date(ty, tm, td, 0, 0, 0, 0, g.Location())
	max := g.PeriodsInDay(todayDate) + g.PeriodsInDay(todayDate.AddDate(0, 0, 1))
	if _, err := g.PeriodToTimestamp(max); err == nil {
		t.Fatalf("expected error for period beyond tomorrow, got none for p=%d", max)
	}
}

func TestTimestampToPeriodExampleOffsets(t *testing.T) {
	g, err := New("UTC")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	today := time.Now().In(g.Location())
	ty, tm, td := today.Date()

	cases := []struct {
		h, m int
		want int
	}{
		{0, 0, 0},
		{14, 0, 56},
		{23, 45, 95},
	}
	for _, c := range cases {
		dt := time.Date(ty, tm, td, c.h, c.m, 0, 0, g.Location())
		got, err := g.TimestampToPeriod(dt)
		if err != nil {
			t.Fatalf("TimestampToPeriod(%v): %v", dt, err)
		}
		if got != c.want {
			t.Fatalf("TimestampToPeriod(%02d:%02d) = %d, want %d", c.h, c.m, got, c.want)
		}
	}
}
