// Package energy holds the per-period data model: Energy Record, Economic
// Record, Decision Record, and the composed Period Data / Optimization
// Result / Economic Summary types, plus the derived-flow invariants spec
// §3 requires of every Energy Record.
package energy

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"
)

// Tolerance is the rounding-noise clamp used across every derived-flow
// invariant (spec §3, §8).
const Tolerance = 1e-6

// Record is a per-period Energy Record. It is immutable after Derive is
// called; callers must not reuse a Record across periods.
type Record struct {
	SolarProduction   float64 // kWh over the period
	HomeConsumption   float64
	BatteryCharged    float64
	BatteryDischarged float64
	GridImported      float64
	GridExported      float64

	BatterySoEStart float64 // kWh at period start
	BatterySoEEnd   float64 // kWh at period end

	// Derived detailed flows, populated by Derive.
	SolarToHome    float64
	SolarToBattery float64
	SolarToGrid    float64
	GridToHome     float64
	GridToBattery  float64
	BatteryToHome  float64
	BatteryToGrid  float64
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		if v > -Tolerance {
			return 0
		}
		return v
	}
	return v
}

// Derive recomputes the detailed flow split from the six raw totals,
// following spec §3 exactly:
//
//	solar_to_home    = min(solar_production, home_consumption)
//	solar_to_battery = min(battery_charged, solar_production - solar_to_home)
//	solar_to_grid    = solar_production - solar_to_home - solar_to_battery
//	battery_to_home  = min(battery_discharged, home_consumption - solar_to_home)
//	battery_to_grid  = battery_discharged - battery_to_home
//	grid_to_battery  = battery_charged - solar_to_battery
//	grid_to_home     = home_consumption - solar_to_home - battery_to_home
//
// Results are clamped to >= 0 within Tolerance of zero.
func (r *Record) Derive() {
	r.SolarToHome = clampNonNegative(math.Min(r.SolarProduction, r.HomeConsumption))
	r.SolarToBattery = clampNonNegative(math.Min(r.BatteryCharged, r.SolarProduction-r.SolarToHome))
	r.SolarToGrid = clampNonNegative(r.SolarProduction - r.SolarToHome - r.SolarToBattery)

	r.BatteryToHome = clampNonNegative(math.Min(r.BatteryDischarged, r.HomeConsumption-r.SolarToHome))
	r.BatteryToGrid = clampNonNegative(r.BatteryDischarged - r.BatteryToHome)

	r.GridToBattery = clampNonNegative(r.BatteryCharged - r.SolarToBattery)
	r.GridToHome = clampNonNegative(r.HomeConsumption - r.SolarToHome - r.BatteryToHome)
}

// CheckInvariants verifies the four flow-conservation invariants from
// spec §8 within Tolerance. It returns a non-nil error naming the first
// violated invariant, or nil if all hold.
func (r *Record) CheckInvariants() error {
	if math.Abs((r.SolarToHome+r.SolarToBattery+r.SolarToGrid)-r.SolarProduction) > Tolerance {
		return invariantError("solar_to_home + solar_to_battery + solar_to_grid != solar_production")
	}
	if math.Abs((r.GridToHome+r.GridToBattery)-r.GridImported) > Tolerance {
		return invariantError("grid_to_home + grid_to_battery != grid_imported")
	}
	if math.Abs((r.BatteryToHome+r.BatteryToGrid)-r.BatteryDischarged) > Tolerance {
		return invariantError("battery_to_home + battery_to_grid != battery_discharged")
	}
	if math.Abs((r.BatterySoEStart+r.BatteryCharged-r.BatteryDischarged)-r.BatterySoEEnd) > Tolerance {
		return invariantError("soe_start + battery_charged - battery_discharged != soe_end")
	}
	return nil
}

type invariantErr string

func (e invariantErr) Error() string { return string(e) }

func invariantError(msg string) error { return invariantErr(msg) }

// PlausibleSolar flags a reported solar_production value that is
// physically implausible for the given time and location: positive
// production while the sun is below the horizon. It replaces the
// "night-hours heuristic" from the original implementation (which assumed
// *all* charging at night came from the grid); this check only flags data
// quality, it never reattributes flows.
func PlausibleSolar(t time.Time, lat, lon float64, productionKWh float64) bool {
	sunTimes := suncalc.GetTimes(t, lat, lon)
	sunrise := sunTimes["sunrise"].Value
	sunset := sunTimes["sunset"].Value
	if t.Before(sunrise) || t.After(sunset) {
		return productionKWh <= Tolerance
	}
	return true
}
