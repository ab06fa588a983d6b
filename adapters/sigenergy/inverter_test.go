package sigenergy

import (
	"testing"

	"github.com/embervolt/bess/tou"
)

func TestResolveModeBatteryFirstChargesFromGrid(t *testing.T) {
	a := &Adapter{segments: []tou.Segment{
		{StartHour: 0, EndHour: 8, BattMode: tou.BatteryFirst, Enabled: true},
	}}
	if got := a.resolveMode(4, tou.PerPeriodKnobs{}); got != emsModeChargeGridFirst {
		t.Fatalf("expected grid-first charge mode, got %d", got)
	}
}

func TestResolveModeGridFirstForcesDischarge(t *testing.T) {
	a := &Adapter{segments: []tou.Segment{
		{StartHour: 8, EndHour: 16, BattMode: tou.GridFirst, Enabled: true},
	}}
	if got := a.resolveMode(10, tou.PerPeriodKnobs{}); got != emsModeDischargeESSFirst {
		t.Fatalf("expected ESS-first discharge mode, got %d", got)
	}
}

func TestResolveModeLoadFirstIsSelfConsumption(t *testing.T) {
	a := &Adapter{segments: []tou.Segment{
		{StartHour: 16, EndHour: 24, BattMode: tou.LoadFirst, Enabled: true},
	}}
	if got := a.resolveMode(20, tou.PerPeriodKnobs{}); got != emsModeMaxSelfConsumption {
		t.Fatalf("expected self-consumption mode, got %d", got)
	}
}

func TestResolveModeFallsBackToKnobsWithoutCoveringSegment(t *testing.T) {
	a := &Adapter{}
	if got := a.resolveMode(4, tou.PerPeriodKnobs{GridChargeEnabled: true}); got != emsModeChargeGridFirst {
		t.Fatalf("expected grid-charge knob fallback, got %d", got)
	}
	if got := a.resolveMode(4, tou.PerPeriodKnobs{GridChargeEnabled: false}); got != emsModeMaxSelfConsumption {
		t.Fatalf("expected self-consumption fallback, got %d", got)
	}
}

func TestResolveModeIgnoresDisabledSegments(t *testing.T) {
	a := &Adapter{segments: []tou.Segment{
		{StartHour: 0, EndHour: 24, BattMode: tou.BatteryFirst, Enabled: false},
	}}
	if got := a.resolveMode(4, tou.PerPeriodKnobs{}); got != emsModeMaxSelfConsumption {
		t.Fatalf("expected fallback ignoring disabled segment, got %d", got)
	}
}
