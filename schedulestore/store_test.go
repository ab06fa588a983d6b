package schedulestore

import (
	"log"
	"os"
	"testing"
	"time"

	"github.com/embervolt/bess/energy"
)

func result(savings float64) energy.OptimizationResult {
	r := energy.OptimizationResult{}
	r.Summary.SavingsVsGridOnly = savings
	return r
}

func TestStoreScheduleRejectsInvalidScenario(t *testing.T) {
	s := New()
	_, err := s.StoreSchedule(result(1), 0, "bogus", time.Now())
	if err == nil {
		t.Fatalf("expected error for invalid scenario")
	}
}

func TestLatestReturnsMostRecent(t *testing.T) {
	s := New()
	t0 := time.Date(2026, 7, 29, 6, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	s.StoreSchedule(result(10), 24, ScenarioHourly, t0)
	s.StoreSchedule(result(20), 28, ScenarioHourly, t1)

	latest, ok := s.Latest()
	if !ok {
		t.Fatalf("expected a latest schedule")
	}
	if latest.TotalSavings() != 20 {
		t.Fatalf("expected latest savings 20, got %v", latest.TotalSavings())
	}
}

func TestAtTimeReturnsActiveScheduleAsOfTarget(t *testing.T) {
	s := New()
	t0 := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(6 * time.Hour)
	s.StoreSchedule(result(10), 0, ScenarioTomorrow, t0)
	s.StoreSchedule(result(20), 24, ScenarioHourly, t1)

	at, ok := s.AtTime(t0.Add(3 * time.Hour))
	if !ok {
		t.Fatalf("expected a schedule active at target time")
	}
	if at.TotalSavings() != 10 {
		t.Fatalf("expected schedule from t0 to still be active, got savings %v", at.TotalSavings())
	}
}

func TestAtTimeReturnsNotFoundBeforeAnySchedule(t *testing.T) {
	s := New()
	s.StoreSchedule(result(10), 0, ScenarioTomorrow, time.Date(2026, 7, 29, 6, 0, 0, 0, time.UTC))
	_, ok := s.AtTime(time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC))
	if ok {
		t.Fatalf("expected no schedule found before first schedule's timestamp")
	}
}

func TestByScenarioFilters(t *testing.T) {
	s := New()
	now := time.Now()
	s.StoreSchedule(result(1), 0, ScenarioTomorrow, now)
	s.StoreSchedule(result(2), 24, ScenarioHourly, now)
	s.StoreSchedule(result(3), 28, ScenarioHourly, now)

	hourly := s.ByScenario(ScenarioHourly)
	if len(hourly) != 2 {
		t.Fatalf("expected 2 hourly schedules, got %d", len(hourly))
	}
}

func TestClearEmptiesStoreAndReturnsCount(t *testing.T) {
	s := New()
	s.StoreSchedule(result(1), 0, ScenarioTomorrow, time.Now())
	s.StoreSchedule(result(2), 24, ScenarioHourly, time.Now())

	n := s.Clear()
	if n != 2 {
		t.Fatalf("expected Clear to report 2, got %d", n)
	}
	if s.Count() != 0 {
		t.Fatalf("expected empty store after Clear, got count %d", s.Count())
	}
}

func TestLogDailySummaryHandlesEmptyStore(t *testing.T) {
	s := New()
	logger := log.New(os.Stdout, "TEST: ", 0)
	s.LogDailySummary(logger, 96) // must not panic on an empty store
}
