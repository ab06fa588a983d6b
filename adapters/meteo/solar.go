// Package meteo adapts the MET Norway Locationforecast client and
// sun-position math into a ports.SolarForecastSource, the same estimation
// scheduler/mpc.go's estimateSolarPowerFromWeather performs per call,
// expanded here over every period of a requested day.
package meteo

import (
	"context"
	"math"
	"time"

	"github.com/sixdouglas/suncalc"

	bess "github.com/embervolt/bess"
	"github.com/embervolt/bess/meteo"
	"github.com/embervolt/bess/timegrid"
)

// SolarForecastAdapter estimates PV production from cloud-cover forecasts
// and solar geometry: peak capacity scaled by the sine of the sun's
// altitude and a cloud-cover attenuation factor.
type SolarForecastAdapter struct {
	client        *meteo.Client
	latitude      float64
	longitude     float64
	peakPowerKW   float64
	periodHours   float64
	grid          *timegrid.Grid
}

// NewSolarForecastAdapter builds an adapter for an array with the given
// peak DC capacity in kW. periodHours is the control loop's period length
// in hours (0.25 for 15-minute periods), used to convert instantaneous kW
// estimates into per-period kWh.
func NewSolarForecastAdapter(client *meteo.Client, latitude, longitude, peakPowerKW, periodHours float64, grid *timegrid.Grid) *SolarForecastAdapter {
	return &SolarForecastAdapter{
		client:      client,
		latitude:    latitude,
		longitude:   longitude,
		peakPowerKW: peakPowerKW,
		periodHours: periodHours,
		grid:        grid,
	}
}

// ForecastKWh returns one predicted production value per period of day.
func (a *SolarForecastAdapter) ForecastKWh(ctx context.Context, day time.Time) ([]float64, error) {
	forecast, err := a.client.GetCompact(meteo.QueryParams{
		Location: meteo.Location{Latitude: a.latitude, Longitude: a.longitude},
	})
	if err != nil {
		return nil, bess.Wrap(bess.KindIO, "meteo: fetch compact forecast", err)
	}

	dayStart, err := a.grid.TimestampToPeriod(day)
	if err != nil {
		return nil, bess.Wrap(bess.KindInvalidInput, "meteo: resolve day start period", err)
	}
	periodsInDay := a.grid.PeriodsInDay(day)

	out := make([]float64, periodsInDay)
	for i := 0; i < periodsInDay; i++ {
		ts, err := a.grid.PeriodToTimestamp(dayStart + i)
		if err != nil {
			return nil, bess.Wrap(bess.KindInvalidInput, "meteo: resolve period timestamp", err)
		}
		out[i] = a.estimatePowerKW(forecast, ts) * a.periodHours
	}
	return out, nil
}

func (a *SolarForecastAdapter) estimatePowerKW(forecast *meteo.METJSONForecast, ts time.Time) float64 {
	step := forecast.GetWeatherAtTime(ts)
	if step == nil || step.Data == nil || step.Data.Instant == nil || step.Data.Instant.Details == nil {
		return 0
	}

	sunTimes := suncalc.GetTimes(ts, a.latitude, a.longitude)
	sunrise := sunTimes["sunrise"].Value
	sunset := sunTimes["sunset"].Value
	if ts.Before(sunrise) || ts.After(sunset) {
		return 0
	}

	pos := suncalc.GetPosition(ts, a.latitude, a.longitude)
	angleFactor := math.Sin(pos.Altitude)
	if angleFactor < 0 {
		return 0
	}

	cloudFactor := 1.0
	if cloud := step.Data.Instant.Details.CloudAreaFraction; cloud != nil {
		cloudFactor = 1.0 - (*cloud/100.0)*0.90
	}

	return a.peakPowerKW * angleFactor * cloudFactor
}
