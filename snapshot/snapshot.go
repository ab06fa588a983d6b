// Package snapshot captures prediction snapshots at optimization time and
// analyzes how actual outcomes deviated from them (spec §4.9).
package snapshot

import (
	"sync"
	"time"

	"github.com/embervolt/bess/dailyview"
	"github.com/embervolt/bess/tou"
)

// Snapshot is one optimization run's daily view plus the TOU segments it
// produced, captured for later deviation analysis.
type Snapshot struct {
	Timestamp           time.Time
	OptimizationPeriod  int
	View                dailyview.View
	Segments            []tou.Segment
	PredictedDailySavings float64
}

// Store is the in-memory, day-scoped log of prediction snapshots. Safe for
// concurrent use. Cleared at midnight like the Historical Reading Store.
type Store struct {
	mu        sync.RWMutex
	snapshots []Snapshot
}

// New returns an empty Store.
func New() *Store { return &Store{} }

// StoreSnapshot appends a new snapshot.
func (s *Store) StoreSnapshot(timestamp time.Time, optimizationPeriod int, view dailyview.View, segments []tou.Segment, predictedDailySavings float64) Snapshot {
	snap := Snapshot{
		Timestamp:             timestamp,
		OptimizationPeriod:    optimizationPeriod,
		View:                  view,
		Segments:              append([]tou.Segment(nil), segments...),
		PredictedDailySavings: predictedDailySavings,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snap)
	return snap
}

// AllToday returns every snapshot stored since the last Clear, in
// chronological order.
func (s *Store) AllToday() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Snapshot, len(s.snapshots))
	copy(out, s.snapshots)
	sortByTimestamp(out)
	return out
}

// AtPeriod returns the snapshot whose OptimizationPeriod is closest to
// period, or false if no snapshots exist.
func (s *Store) AtPeriod(period int) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.snapshots) == 0 {
		return Snapshot{}, false
	}
	best := s.snapshots[0]
	bestDist := abs(best.OptimizationPeriod - period)
	for _, snap := range s.snapshots[1:] {
		if d := abs(snap.OptimizationPeriod - period); d < bestDist {
			best, bestDist = snap, d
		}
	}
	return best, true
}

// Clear empties the store. Called at midnight rollover.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = nil
}

// Count returns the number of snapshots currently stored.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sortByTimestamp(snaps []Snapshot) {
	for i := 1; i < len(snaps); i++ {
		for j := i; j > 0 && snaps[j].Timestamp.Before(snaps[j-1].Timestamp); j-- {
			snaps[j], snaps[j-1] = snaps[j-1], snaps[j]
		}
	}
}
