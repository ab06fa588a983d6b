package intent

import (
	"testing"

	"github.com/embervolt/bess/energy"
)

func TestClassifyGridCharging(t *testing.T) {
	r := energy.Record{BatteryCharged: 2, GridToBattery: 2, SolarToBattery: 0}
	if got := Classify(2, r); got != energy.IntentGridCharging {
		t.Fatalf("Classify = %v, want GRID_CHARGING", got)
	}
}

func TestClassifySolarStorage(t *testing.T) {
	r := energy.Record{BatteryCharged: 2, SolarToBattery: 1.5, GridToBattery: 0.5}
	if got := Classify(2, r); got != energy.IntentSolarStorage {
		t.Fatalf("Classify = %v, want SOLAR_STORAGE", got)
	}
}

func TestClassifyLoadSupport(t *testing.T) {
	r := energy.Record{BatteryDischarged: 2, BatteryToHome: 2}
	if got := Classify(-2, r); got != energy.IntentLoadSupport {
		t.Fatalf("Classify = %v, want LOAD_SUPPORT", got)
	}
}

func TestClassifyExportArbitrage(t *testing.T) {
	r := energy.Record{BatteryDischarged: 2, BatteryToGrid: 1.5, BatteryToHome: 0.5}
	if got := Classify(-2, r); got != energy.IntentExportArbitrage {
		t.Fatalf("Classify = %v, want EXPORT_ARBITRAGE", got)
	}
}

func TestClassifyIdleWhenNoAction(t *testing.T) {
	r := energy.Record{}
	if got := Classify(0, r); got != energy.IntentIdle {
		t.Fatalf("Classify = %v, want IDLE", got)
	}
}

func TestClassifyObservedReconstructsAction(t *testing.T) {
	r := energy.Record{BatteryCharged: 3, GridToBattery: 3}
	if got := ClassifyObserved(r); got != energy.IntentGridCharging {
		t.Fatalf("ClassifyObserved = %v, want GRID_CHARGING", got)
	}
}
