package energy

import "time"

// Intent is the five-way strategic classification of a period's battery
// action (spec §4.5).
type Intent int

const (
	IntentGridCharging Intent = iota
	IntentSolarStorage
	IntentLoadSupport
	IntentExportArbitrage
	IntentIdle
)

func (i Intent) String() string {
	switch i {
	case IntentGridCharging:
		return "GRID_CHARGING"
	case IntentSolarStorage:
		return "SOLAR_STORAGE"
	case IntentLoadSupport:
		return "LOAD_SUPPORT"
	case IntentExportArbitrage:
		return "EXPORT_ARBITRAGE"
	default:
		return "IDLE"
	}
}

// DataSource distinguishes a Period Data built from actual sensor readings
// from one produced by the optimizer as a prediction.
type DataSource int

const (
	SourceActual DataSource = iota
	SourcePredicted
)

func (s DataSource) String() string {
	if s == SourceActual {
		return "actual"
	}
	return "predicted"
}

// Economic is the per-period Economic Record (spec §3).
type Economic struct {
	BuyPrice  float64
	SellPrice float64

	HourlyCost     float64
	HourlySavings  float64
	GridOnlyCost   float64
	SolarOnlyCost  float64
	BatterySolarCost float64
}

// Decision is the per-period Decision Record (spec §3).
type Decision struct {
	StrategicIntent Intent
	BatteryAction   float64 // kWh, signed: >0 charge, <0 discharge
	ObservedIntent  *Intent // nil until reconstructed from actuals
}

// PeriodData is one period's complete record: energy, economics, decision,
// the wall-clock timestamp it covers, and its provenance.
type PeriodData struct {
	Period     int
	Energy     Record
	Economic   Economic
	Decision   Decision
	Timestamp  time.Time
	DataSource DataSource
}

// EconomicSummary aggregates an Optimization Result's economics over its
// whole horizon (spec §3).
type EconomicSummary struct {
	GridOnlyCost     float64
	SolarOnlyCost    float64
	BatterySolarCost float64

	SavingsVsGridOnly        float64
	SavingsVsGridOnlyPct     float64
	SavingsVsSolarOnly       float64
	SavingsVsSolarOnlyPct    float64
	SavingsSolarVsGridOnly   float64
	SavingsSolarVsGridOnlyPct float64

	TotalCharged    float64
	TotalDischarged float64
}

// OptimizationResult is the DP optimizer's output: an ordered sequence of
// Period Data plus the aggregate Economic Summary (spec §3).
type OptimizationResult struct {
	Periods []PeriodData
	Summary EconomicSummary
}

// Summarize recomputes the EconomicSummary from the Periods slice.
// grid_only_cost, solar_only_cost, and battery_solar_cost are supplied by
// the caller (the optimizer computes all three baselines during its solve,
// see §8's "battery_solar_cost <= solar_only_cost <= grid_only_cost"
// property) since they are not derivable from a single period's Economic
// Record alone.
func (o *OptimizationResult) Summarize(gridOnly, solarOnly, batterySolar float64) {
	s := EconomicSummary{
		GridOnlyCost:     gridOnly,
		SolarOnlyCost:    solarOnly,
		BatterySolarCost: batterySolar,
	}
	if gridOnly != 0 {
		s.SavingsVsGridOnly = gridOnly - batterySolar
		s.SavingsVsGridOnlyPct = 100 * s.SavingsVsGridOnly / gridOnly
		s.SavingsSolarVsGridOnly = gridOnly - solarOnly
		s.SavingsSolarVsGridOnlyPct = 100 * s.SavingsSolarVsGridOnly / gridOnly
	}
	if solarOnly != 0 {
		s.SavingsVsSolarOnly = solarOnly - batterySolar
		s.SavingsVsSolarOnlyPct = 100 * s.SavingsVsSolarOnly / solarOnly
	}
	for _, p := range o.Periods {
		s.TotalCharged += p.Energy.BatteryCharged
		s.TotalDischarged += p.Energy.BatteryDischarged
	}
	o.Summary = s
}
