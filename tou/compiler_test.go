package tou

import (
	"testing"

	"github.com/embervolt/bess/energy"
)

func constIntentDay(in energy.Intent) []energy.Intent {
	out := make([]energy.Intent, 96)
	for i := range out {
		out[i] = in
	}
	return out
}

func TestCompileDayAllIdleYieldsSingleLoadFirstSegment(t *testing.T) {
	segs := CompileDay(constIntentDay(energy.IntentIdle))
	if len(segs) != 1 {
		t.Fatalf("expected 1 consolidated segment, got %d", len(segs))
	}
	if segs[0].StartHour != 0 || segs[0].EndHour != 24 {
		t.Fatalf("expected full-day segment, got [%d,%d)", segs[0].StartHour, segs[0].EndHour)
	}
	if segs[0].BattMode != LoadFirst {
		t.Fatalf("expected load-first default, got %v", segs[0].BattMode)
	}
}

func TestCompileDayRespectsSegmentBudget(t *testing.T) {
	intents := make([]energy.Intent, 96)
	pattern := []energy.Intent{
		energy.IntentGridCharging, energy.IntentSolarStorage,
		energy.IntentLoadSupport, energy.IntentExportArbitrage,
	}
	for p := range intents {
		hour := p / 4
		intents[p] = pattern[hour%len(pattern)]
	}
	segs := CompileDay(intents)
	if len(segs) > MaxSegments {
		t.Fatalf("expected at most %d segments, got %d", MaxSegments, len(segs))
	}
}

func TestCompileDayGridChargingHourIsBatteryFirst(t *testing.T) {
	intents := constIntentDay(energy.IntentIdle)
	for p := 8 * 4; p < 9*4; p++ {
		intents[p] = energy.IntentGridCharging
	}
	segs := CompileDay(intents)
	found := false
	for _, s := range segs {
		if s.StartHour <= 8 && s.EndHour > 8 {
			if s.BattMode != BatteryFirst {
				t.Fatalf("hour 8 expected battery-first, got %v", s.BattMode)
			}
			found = true
		}
	}
	if !found {
		t.Fatalf("no segment covers hour 8")
	}
}

func TestCompileDaySegmentIDsAreSequential(t *testing.T) {
	intents := make([]energy.Intent, 96)
	for p := range intents {
		if (p/4)%2 == 0 {
			intents[p] = energy.IntentGridCharging
		} else {
			intents[p] = energy.IntentExportArbitrage
		}
	}
	segs := CompileDay(intents)
	for i, s := range segs {
		if s.SegmentID != i+1 {
			t.Fatalf("segment %d: expected SegmentID %d, got %d", i, i+1, s.SegmentID)
		}
	}
}

func TestComputeKnobsGridChargingEnablesChargeOnly(t *testing.T) {
	k := ComputeKnobs(energy.IntentGridCharging, 2.0, 0.25, 15)
	if !k.GridChargeEnabled || k.ChargePowerRate != 100 || k.DischargePowerRate != 0 {
		t.Fatalf("unexpected knobs for grid charging: %+v", k)
	}
}

func TestComputeKnobsExportArbitrageScalesDischargeRate(t *testing.T) {
	k := ComputeKnobs(energy.IntentExportArbitrage, -1.875, 0.25, 15) // 7.5 kW action, half of 15 kW max
	if k.GridChargeEnabled {
		t.Fatalf("export arbitrage must not enable grid charge")
	}
	if k.DischargePowerRate != 50 {
		t.Fatalf("expected 50%% discharge rate, got %d", k.DischargePowerRate)
	}
}
