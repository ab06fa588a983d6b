// Package faultlog tracks runtime adapter failures surfaced after retry
// exhaustion, for operator visibility (spec §5). In-memory only, capped at
// MaxFailures with FIFO eviction of the oldest dismissed entries first.
package faultlog

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxFailures is the cap on stored failures before FIFO eviction of
// dismissed entries kicks in.
const MaxFailures = 100

// Category groups failures for operator triage.
type Category string

const (
	CategoryTOUSegment Category = "TOU_SEGMENT"
	CategoryPowerRate  Category = "POWER_RATE"
	CategorySensor     Category = "SENSOR"
	CategoryPriceFeed  Category = "PRICE_FEED"
	CategoryPersistence Category = "PERSISTENCE"
)

// Failure is one recorded adapter failure.
type Failure struct {
	ID           string
	Timestamp    time.Time
	Category     Category
	Operation    string
	ErrorMessage string
	Dismissed    bool
	Context      map[string]string
}

// Tracker is a thread-safe in-memory failure log.
type Tracker struct {
	mu       sync.Mutex
	failures []Failure
	logger   *log.Logger
}

// New returns an empty Tracker. logger may be nil to suppress logging.
func New(logger *log.Logger) *Tracker {
	return &Tracker{logger: logger}
}

// Record appends a new failure, then enforces MaxFailures.
func (t *Tracker) Record(category Category, operation string, err error, context map[string]string, now time.Time) Failure {
	f := Failure{
		ID:           uuid.NewString(),
		Timestamp:    now,
		Category:     category,
		Operation:    operation,
		ErrorMessage: err.Error(),
		Context:      context,
	}

	t.mu.Lock()
	t.failures = append(t.failures, f)
	t.enforceMaxSize()
	t.mu.Unlock()

	if t.logger != nil {
		t.logger.Printf("runtime failure recorded [%s]: %s - %v", category, operation, err)
	}
	return f
}

// ActiveFailures returns all non-dismissed failures, newest first.
func (t *Tracker) ActiveFailures() []Failure {
	t.mu.Lock()
	defer t.mu.Unlock()

	var active []Failure
	for _, f := range t.failures {
		if !f.Dismissed {
			active = append(active, f)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Timestamp.After(active[j].Timestamp) })
	return active
}

// Dismiss marks a failure dismissed by ID.
func (t *Tracker) Dismiss(failureID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.failures {
		if t.failures[i].ID == failureID {
			t.failures[i].Dismissed = true
			return nil
		}
	}
	return fmt.Errorf("faultlog: failure not found: %s", failureID)
}

// DismissAll marks every active failure dismissed and returns the count
// dismissed.
func (t *Tracker) DismissAll() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	count := 0
	for i := range t.failures {
		if !t.failures[i].Dismissed {
			t.failures[i].Dismissed = true
			count++
		}
	}
	return count
}

// enforceMaxSize evicts the oldest dismissed failures first once the log
// exceeds MaxFailures. If dismissing everything still leaves the log over
// the cap, it falls through to evicting the oldest active failures (FIFO),
// since §5's cap of 100 is a hard limit, not just a dismissed-entry budget.
// Caller must hold t.mu.
func (t *Tracker) enforceMaxSize() {
	if len(t.failures) <= MaxFailures {
		return
	}

	var active, dismissed []Failure
	for _, f := range t.failures {
		if f.Dismissed {
			dismissed = append(dismissed, f)
		} else {
			active = append(active, f)
		}
	}
	sort.Slice(dismissed, func(i, j int) bool { return dismissed[i].Timestamp.Before(dismissed[j].Timestamp) })
	sort.Slice(active, func(i, j int) bool { return active[i].Timestamp.Before(active[j].Timestamp) })

	toRemove := len(t.failures) - MaxFailures
	fromDismissed := toRemove
	if fromDismissed > len(dismissed) {
		fromDismissed = len(dismissed)
	}
	dismissed = dismissed[fromDismissed:]

	fromActive := toRemove - fromDismissed
	if fromActive > len(active) {
		fromActive = len(active)
	}
	active = active[fromActive:]

	t.failures = append(active, dismissed...)
}
