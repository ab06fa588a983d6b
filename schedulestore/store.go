// Package schedulestore keeps a chronological log of every optimization
// result produced during the day (spec §4.6), plus (in persistence.go) a
// database-backed period→intent map that survives process restarts.
package schedulestore

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/embervolt/bess/energy"
)

// Scenario is why an optimization run was performed.
type Scenario string

const (
	ScenarioTomorrow Scenario = "tomorrow"
	ScenarioHourly   Scenario = "hourly"
	ScenarioRestart  Scenario = "restart"
)

func (s Scenario) valid() bool {
	switch s {
	case ScenarioTomorrow, ScenarioHourly, ScenarioRestart:
		return true
	}
	return false
}

// StoredSchedule is one optimization result plus the metadata describing
// when and why it was produced.
type StoredSchedule struct {
	Timestamp          time.Time
	OptimizationPeriod int // period within the day optimization started from
	Result             energy.OptimizationResult
	Scenario           Scenario
}

// OptimizationRange returns the [start, end] period range this schedule
// covers: the full day for a "tomorrow" run, else from OptimizationPeriod
// through the last period of the day.
func (s StoredSchedule) OptimizationRange(periodsInDay int) (start, end int) {
	if s.Scenario == ScenarioTomorrow {
		return 0, periodsInDay - 1
	}
	return s.OptimizationPeriod, periodsInDay - 1
}

// TotalSavings is the headline economic figure for this schedule: total
// savings of the chosen battery-plus-solar plan versus the grid-only
// baseline.
func (s StoredSchedule) TotalSavings() float64 {
	return s.Result.Summary.SavingsVsGridOnly
}

// Summary is a one-line human-readable description, used for logging.
func (s StoredSchedule) Summary(periodsInDay int) string {
	start, end := s.OptimizationRange(periodsInDay)
	return fmt.Sprintf("%s schedule from period %d-%d, savings: %.2f",
		s.Scenario, start, end, s.TotalSavings())
}

// Store is the in-memory, day-scoped log of every optimization run.
// Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	schedules   []StoredSchedule
	currentDate time.Time
	hasDate     bool
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// StoreSchedule appends a new optimization result. now is injected by the
// caller (the control loop) rather than read from the wall clock here.
func (s *Store) StoreSchedule(result energy.OptimizationResult, optimizationPeriod int, scenario Scenario, now time.Time) (StoredSchedule, error) {
	if !scenario.valid() {
		return StoredSchedule{}, fmt.Errorf("schedulestore: invalid scenario %q", scenario)
	}
	stored := StoredSchedule{
		Timestamp:          now,
		OptimizationPeriod: optimizationPeriod,
		Result:             result,
		Scenario:           scenario,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = append(s.schedules, stored)
	s.currentDate = now
	s.hasDate = true
	return stored, nil
}

// Latest returns the most recently stored schedule, or false if none exist.
func (s *Store) Latest() (StoredSchedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.schedules) == 0 {
		return StoredSchedule{}, false
	}
	return s.schedules[len(s.schedules)-1], true
}

// AtTime returns the most recent schedule created at or before targetTime.
func (s *Store) AtTime(targetTime time.Time) (StoredSchedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best StoredSchedule
	found := false
	for _, sched := range s.schedules {
		if sched.Timestamp.After(targetTime) {
			continue
		}
		if !found || sched.Timestamp.After(best.Timestamp) {
			best = sched
			found = true
		}
	}
	return best, found
}

// AllToday returns every schedule stored since the last Clear, in
// chronological order.
func (s *Store) AllToday() []StoredSchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StoredSchedule, len(s.schedules))
	copy(out, s.schedules)
	return out
}

// ByScenario returns all stored schedules matching scenario, in
// chronological order.
func (s *Store) ByScenario(scenario Scenario) []StoredSchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []StoredSchedule
	for _, sched := range s.schedules {
		if sched.Scenario == scenario {
			out = append(out, sched)
		}
	}
	return out
}

// Count returns the number of schedules currently stored.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.schedules)
}

// Clear empties the store, returning the number of schedules it held. Call
// at midnight rollover.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.schedules)
	s.schedules = nil
	s.hasDate = false
	return n
}

// LogDailySummary writes a human-readable summary of the day's schedules to
// logger, mirroring the teacher's end-of-day scheduler status logging.
func (s *Store) LogDailySummary(logger *log.Logger, periodsInDay int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.schedules) == 0 {
		logger.Print("schedulestore: no schedules stored for today")
		return
	}

	counts := make(map[Scenario]int)
	for _, sched := range s.schedules {
		counts[sched.Scenario]++
	}
	scenarios := make([]string, 0, len(counts))
	for sc := range counts {
		scenarios = append(scenarios, string(sc))
	}
	sort.Strings(scenarios)

	latest := s.schedules[len(s.schedules)-1]

	logger.Printf("schedule store summary for %s: %d schedules stored, latest: %s",
		s.currentDate.Format("2006-01-02"), len(s.schedules), latest.Summary(periodsInDay))
	for i, sched := range s.schedules {
		logger.Printf("  %d. %s at %s", i+1, sched.Summary(periodsInDay), sched.Timestamp.Format("15:04:05"))
	}
}
