// Package ports declares the boundaries between the core BESS control
// system and the external world: the inverter it drives, the sensors and
// historical/price feeds it reads, and the out-of-scope collaborators
// named in spec §1/§6 (dashboard API, persisted settings loader). Every
// method here accepts and returns domain types from energy/settings/tou,
// never adapter-specific wire shapes.
package ports

import (
	"context"
	"time"

	"github.com/embervolt/bess/tou"
)

// InverterController drives the physical (or simulated) inverter: applying
// TOU segment diffs and per-period knobs, and reporting the currently
// applied schedule so the control loop can diff against it.
type InverterController interface {
	// CurrentSoEKWh reads the battery's present state of energy.
	CurrentSoEKWh(ctx context.Context) (float64, error)

	// CurrentSegments returns the segment table presently applied on the
	// inverter, so the control loop can compute a diff against it.
	CurrentSegments(ctx context.Context) ([]tou.Segment, error)

	// ApplyDiff writes a Schedule Diff & Apply result: disabling stale
	// segments before writing replacements, per spec §4.8's ordering rule.
	ApplyDiff(ctx context.Context, diff tou.DiffResult) error

	// ApplyKnobs writes this period's control knobs (grid charge enable,
	// discharge/charge power rate). hour is the civil hour the knobs apply
	// within, so an adapter without a native segment-table register (see
	// adapters/sigenergy) can resolve which segment mode governs it.
	ApplyKnobs(ctx context.Context, hour int, knobs tou.PerPeriodKnobs) error
}

// Reading is one instant's raw sensor observation, before derivation into
// an Energy Record.
type Reading struct {
	Timestamp       time.Time
	BatterySoEKWh   float64
	HomeConsumption float64
	SolarProduction float64
	GridImport      float64
	GridExport      float64
}

// SensorSource supplies live and historical readings. Both live (current)
// and historical (InfluxDB-style) queries are needed per spec §6; the
// historical query is the one genuinely external collaborator the
// Historical Reading Store's own in-memory façade does not replace.
type SensorSource interface {
	// CurrentReading returns the most recent sensor sample.
	CurrentReading(ctx context.Context) (Reading, error)

	// HistoricalReading returns the sensor sample covering period p on
	// date day, or a MissingData error if the backing time-series store
	// has no sample for it.
	HistoricalReading(ctx context.Context, day time.Time, p int) (Reading, error)
}

// PriceSource supplies day-ahead spot prices for the optimizer's horizon.
type PriceSource interface {
	// SpotPrices returns one price per period for the given day, in the
	// day's local period order.
	SpotPrices(ctx context.Context, day time.Time) ([]float64, error)
}

// SolarForecastSource supplies a predicted production curve for the
// optimizer's horizon, independent of the live SensorSource.
type SolarForecastSource interface {
	ForecastKWh(ctx context.Context, day time.Time) ([]float64, error)
}

// LoadForecastSource supplies a predicted home-consumption curve.
type LoadForecastSource interface {
	ForecastKWh(ctx context.Context, day time.Time) ([]float64, error)
}
