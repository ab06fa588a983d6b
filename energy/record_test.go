package energy

import (
	"math"
	"testing"
)

func TestDeriveSimpleSplit(t *testing.T) {
	r := &Record{
		SolarProduction:   3.0,
		HomeConsumption:   2.0,
		BatteryCharged:    1.0,
		BatteryDischarged: 0,
		GridImported:      0,
		GridExported:      0,
		BatterySoEStart:   10,
		BatterySoEEnd:     11,
	}
	r.Derive()

	if r.SolarToHome != 2.0 {
		t.Fatalf("SolarToHome = %v, want 2.0", r.SolarToHome)
	}
	if r.SolarToBattery != 1.0 {
		t.Fatalf("SolarToBattery = %v, want 1.0", r.SolarToBattery)
	}
	if r.SolarToGrid != 0 {
		t.Fatalf("SolarToGrid = %v, want 0", r.SolarToGrid)
	}
	if err := r.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
}

func TestDeriveGridFallback(t *testing.T) {
	r := &Record{
		SolarProduction:   0,
		HomeConsumption:   5,
		BatteryCharged:    0,
		BatteryDischarged: 2,
		GridImported:      3,
		GridExported:      0,
		BatterySoEStart:   10,
		BatterySoEEnd:     8,
	}
	r.Derive()

	if r.BatteryToHome != 2 {
		t.Fatalf("BatteryToHome = %v, want 2", r.BatteryToHome)
	}
	if r.GridToHome != 3 {
		t.Fatalf("GridToHome = %v, want 3", r.GridToHome)
	}
	if err := r.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
}

func TestCheckInvariantsCatchesViolation(t *testing.T) {
	r := &Record{
		SolarProduction:   3.0,
		HomeConsumption:   2.0,
		BatteryCharged:    1.0,
		BatterySoEStart:   10,
		BatterySoEEnd:     999, // deliberately wrong
	}
	r.Derive()
	if err := r.CheckInvariants(); err == nil {
		t.Fatalf("expected invariant violation, got nil")
	}
}

func TestClampNonNegativeToleratesNoise(t *testing.T) {
	if v := clampNonNegative(-1e-9); v != 0 {
		t.Fatalf("clampNonNegative(-1e-9) = %v, want 0", v)
	}
	if v := clampNonNegative(-1.0); !(v < 0) {
		t.Fatalf("clampNonNegative should not mask real negative values")
	}
}

func TestOptimizationResultSummarize(t *testing.T) {
	or := &OptimizationResult{Periods: []PeriodData{
		{Energy: Record{BatteryCharged: 2, BatteryDischarged: 1}},
		{Energy: Record{BatteryCharged: 3, BatteryDischarged: 0}},
	}}
	or.Summarize(100, 80, 60)

	if math.Abs(or.Summary.SavingsVsGridOnly-40) > 1e-9 {
		t.Fatalf("SavingsVsGridOnly = %v, want 40", or.Summary.SavingsVsGridOnly)
	}
	if or.Summary.TotalCharged != 5 {
		t.Fatalf("TotalCharged = %v, want 5", or.Summary.TotalCharged)
	}
	if or.Summary.TotalDischarged != 1 {
		t.Fatalf("TotalDischarged = %v, want 1", or.Summary.TotalDischarged)
	}
}
