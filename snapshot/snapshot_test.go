package snapshot

import (
	"testing"
	"time"

	"github.com/embervolt/bess/dailyview"
)

func TestStoreSnapshotAndAllToday(t *testing.T) {
	s := New()
	t0 := time.Date(2026, 7, 29, 6, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	s.StoreSnapshot(t1, 28, dailyview.View{}, nil, 5)
	s.StoreSnapshot(t0, 24, dailyview.View{}, nil, 3)

	all := s.AllToday()
	if len(all) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(all))
	}
	if !all[0].Timestamp.Equal(t0) {
		t.Fatalf("expected chronological order, got first timestamp %v", all[0].Timestamp)
	}
}

func TestAtPeriodReturnsClosest(t *testing.T) {
	s := New()
	s.StoreSnapshot(time.Now(), 0, dailyview.View{}, nil, 0)
	s.StoreSnapshot(time.Now(), 40, dailyview.View{}, nil, 0)
	s.StoreSnapshot(time.Now(), 80, dailyview.View{}, nil, 0)

	got, ok := s.AtPeriod(45)
	if !ok {
		t.Fatalf("expected a snapshot")
	}
	if got.OptimizationPeriod != 40 {
		t.Fatalf("expected closest snapshot at period 40, got %d", got.OptimizationPeriod)
	}
}

func TestClearEmptiesStore(t *testing.T) {
	s := New()
	s.StoreSnapshot(time.Now(), 0, dailyview.View{}, nil, 0)
	s.Clear()
	if s.Count() != 0 {
		t.Fatalf("expected empty store after Clear, got %d", s.Count())
	}
}
