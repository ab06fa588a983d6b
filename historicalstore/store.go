// Package historicalstore holds the Historical Reading Store (spec §4.3):
// a dense, day-scoped mapping from period index to completed Period Data
// (energy, economics, and the reconstructed observed decision), so the
// Daily View Builder can splice it directly alongside predicted periods
// without a separate lookup for what each actual period cost.
package historicalstore

import (
	"sync"

	bess "github.com/embervolt/bess"
	"github.com/embervolt/bess/energy"
)

// Store is a thread-safe dense map period -> *energy.PeriodData. Unfilled
// slots are nil. It is cleared once per local-midnight rollover by the
// control loop.
type Store struct {
	mu      sync.RWMutex
	periods map[int]*energy.PeriodData
}

// New builds an empty store.
func New() *Store {
	return &Store{periods: make(map[int]*energy.PeriodData)}
}

// Record writes (or idempotently replaces) the completed period data for
// period p. Writes for periods at or beyond the supplied "current period"
// boundary are rejected as InvalidInput: the store only ever holds
// completed periods.
func (s *Store) Record(p int, currentPeriod int, pd energy.PeriodData) error {
	if p >= currentPeriod {
		return bess.NewError(bess.KindInvalidInput, "cannot record historical reading for a future or in-progress period")
	}
	pd.DataSource = energy.SourceActual
	s.mu.Lock()
	defer s.mu.Unlock()
	rc := pd
	s.periods[p] = &rc
	return nil
}

// Get returns the period data for period p, or nil if unfilled.
func (s *Store) Get(p int) *energy.PeriodData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.periods[p]
}

// Today returns a dense slice of length periodsToday; index i holds the
// period data for period i, or nil.
func (s *Store) Today(periodsToday int) []*energy.PeriodData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*energy.PeriodData, periodsToday)
	for i := 0; i < periodsToday; i++ {
		out[i] = s.periods[i]
	}
	return out
}

// Clear empties the store. Called by the control loop on midnight rollover.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods = make(map[int]*energy.PeriodData)
}

// Len returns the count of recorded periods.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.periods)
}
