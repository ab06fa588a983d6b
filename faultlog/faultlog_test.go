package faultlog

import (
	"errors"
	"testing"
	"time"
)

func TestRecordAndActiveFailures(t *testing.T) {
	tr := New(nil)
	now := time.Now()
	tr.Record(CategorySensor, "read historical period", errors.New("timeout"), nil, now)
	tr.Record(CategoryTOUSegment, "apply segment 3", errors.New("modbus write failed"), nil, now.Add(time.Second))

	active := tr.ActiveFailures()
	if len(active) != 2 {
		t.Fatalf("expected 2 active failures, got %d", len(active))
	}
	if active[0].Operation != "apply segment 3" {
		t.Fatalf("expected newest-first order, got %q", active[0].Operation)
	}
}

func TestDismissRemovesFromActive(t *testing.T) {
	tr := New(nil)
	f := tr.Record(CategorySensor, "op", errors.New("err"), nil, time.Now())
	if err := tr.Dismiss(f.ID); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	if len(tr.ActiveFailures()) != 0 {
		t.Fatalf("expected no active failures after dismiss")
	}
}

func TestDismissUnknownIDErrors(t *testing.T) {
	tr := New(nil)
	if err := tr.Dismiss("nonexistent"); err == nil {
		t.Fatalf("expected error dismissing unknown ID")
	}
}

func TestDismissAllReturnsCount(t *testing.T) {
	tr := New(nil)
	tr.Record(CategorySensor, "a", errors.New("e"), nil, time.Now())
	tr.Record(CategorySensor, "b", errors.New("e"), nil, time.Now())
	n := tr.DismissAll()
	if n != 2 {
		t.Fatalf("expected 2 dismissed, got %d", n)
	}
	if len(tr.ActiveFailures()) != 0 {
		t.Fatalf("expected no active failures")
	}
}

func TestEnforceMaxSizeEvictsOldestDismissedFirst(t *testing.T) {
	tr := New(nil)
	base := time.Now()

	// Fill to MaxFailures, dismiss 10 entries from the middle, then overflow
	// by 10: the dismissed entries must go before the oldest active ones.
	var ids []string
	for i := 0; i < MaxFailures; i++ {
		f := tr.Record(CategorySensor, "op", errors.New("e"), nil, base.Add(time.Duration(i)*time.Second))
		ids = append(ids, f.ID)
	}
	for i := 50; i < 60; i++ {
		if err := tr.Dismiss(ids[i]); err != nil {
			t.Fatalf("Dismiss: %v", err)
		}
	}
	for i := MaxFailures; i < MaxFailures+10; i++ {
		tr.Record(CategorySensor, "op", errors.New("e"), nil, base.Add(time.Duration(i)*time.Second))
	}

	tr.mu.Lock()
	total := len(tr.failures)
	tr.mu.Unlock()
	if total != MaxFailures {
		t.Fatalf("expected log capped at %d, got %d", MaxFailures, total)
	}
	active := tr.ActiveFailures()
	if len(active) != MaxFailures {
		t.Fatalf("expected the 10 dismissed entries evicted first, leaving %d active, got %d", MaxFailures, len(active))
	}
	oldestKept := false
	for _, f := range active {
		if f.ID == ids[0] {
			oldestKept = true
		}
	}
	if !oldestKept {
		t.Fatalf("expected the oldest active entry to survive while dismissed entries were available")
	}
}
