// Package intent implements the Strategic Intent Classifier (spec §4.5):
// given a period's energy flows and battery action, it assigns exactly one
// of five strategic intents. The same function classifies both planned
// (predicted) and actual (observed) periods.
package intent

import (
	"github.com/embervolt/bess/energy"
)

// Epsilon is the battery-action noise floor below which a period is
// considered to have taken no meaningful action.
const Epsilon = 1e-3

// Classify assigns a strategic intent to a period given its battery action
// (signed kWh, >0 charge) and its derived energy flows, per spec §4.5:
//
//	GRID_CHARGING:     a > eps  AND grid_to_battery  >= 0.9 * battery_charged
//	SOLAR_STORAGE:      a > eps  AND solar_to_battery > 0.5 * battery_charged
//	LOAD_SUPPORT:       a < -eps AND battery_to_home   >= 0.9 * battery_discharged
//	EXPORT_ARBITRAGE:   a < -eps AND battery_to_grid   > 0.5 * battery_discharged
//	IDLE:               otherwise
func Classify(batteryAction float64, r energy.Record) energy.Intent {
	switch {
	case batteryAction > Epsilon:
		if r.BatteryCharged > 0 && r.GridToBattery >= 0.9*r.BatteryCharged {
			return energy.IntentGridCharging
		}
		if r.BatteryCharged > 0 && r.SolarToBattery > 0.5*r.BatteryCharged {
			return energy.IntentSolarStorage
		}
		return energy.IntentIdle
	case batteryAction < -Epsilon:
		if r.BatteryDischarged > 0 && r.BatteryToHome >= 0.9*r.BatteryDischarged {
			return energy.IntentLoadSupport
		}
		if r.BatteryDischarged > 0 && r.BatteryToGrid > 0.5*r.BatteryDischarged {
			return energy.IntentExportArbitrage
		}
		return energy.IntentIdle
	default:
		return energy.IntentIdle
	}
}

// ClassifyObserved applies Classify to an actual Energy Record to produce
// the observed_intent used for reporting and snapshot comparison (never
// for control). The net battery action is reconstructed as charged minus
// discharged.
func ClassifyObserved(r energy.Record) energy.Intent {
	action := r.BatteryCharged - r.BatteryDischarged
	return Classify(action, r)
}

// NetAction returns charged - discharged, the sign convention used
// throughout the core for a period's realized battery action.
func NetAction(r energy.Record) float64 {
	return r.BatteryCharged - r.BatteryDischarged
}
