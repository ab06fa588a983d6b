// Package forecast implements ports.LoadForecastSource by averaging the
// Sensor Source's own historical readings over the preceding lookback days
// (consecutive calendar days, not same-weekday days). Unlike solar production and spot prices, nothing in the
// example pack forecasts residential consumption — Home is metadata-only
// (see settings.Home's doc comment) and the forecast is expected to come
// from the Sensor Source adapter itself, so this wraps ports.SensorSource
// rather than a third-party weather or market client.
package forecast

import (
	"context"
	"time"

	bess "github.com/embervolt/bess"
	"github.com/embervolt/bess/ports"
	"github.com/embervolt/bess/timegrid"
)

// LoadForecastAdapter predicts each period's home consumption as the mean
// of that same period's actual consumption on the preceding lookbackDays
// days, queried through the Sensor Source's historical interface.
type LoadForecastAdapter struct {
	sensors      ports.SensorSource
	grid         *timegrid.Grid
	lookbackDays int
}

// NewLoadForecastAdapter builds an adapter averaging over lookbackDays
// preceding days (minimum 1).
func NewLoadForecastAdapter(sensors ports.SensorSource, grid *timegrid.Grid, lookbackDays int) *LoadForecastAdapter {
	if lookbackDays < 1 {
		lookbackDays = 1
	}
	return &LoadForecastAdapter{sensors: sensors, grid: grid, lookbackDays: lookbackDays}
}

// ForecastKWh returns one predicted home-consumption value per period of
// day. A period with no historical samples at all forecasts as zero rather
// than failing the whole horizon.
func (a *LoadForecastAdapter) ForecastKWh(ctx context.Context, day time.Time) ([]float64, error) {
	periodsInDay := a.grid.PeriodsInDay(day)
	out := make([]float64, periodsInDay)

	for p := 0; p < periodsInDay; p++ {
		var sum float64
		var samples int
		for n := 1; n <= a.lookbackDays; n++ {
			pastDay := day.AddDate(0, 0, -n)
			reading, err := a.sensors.HistoricalReading(ctx, pastDay, p)
			if err != nil {
				continue
			}
			sum += reading.HomeConsumption
			samples++
		}
		if samples > 0 {
			out[p] = sum / float64(samples)
		}
	}
	if periodsInDay == 0 {
		return nil, bess.NewError(bess.KindInvalidInput, "forecast: day has no periods")
	}
	return out, nil
}
