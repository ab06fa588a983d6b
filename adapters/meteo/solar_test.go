package meteo

import (
	"testing"
	"time"

	"github.com/embervolt/bess/meteo"
)

// Oslo, clear sky at 12:00 UTC in midsummer (shortly after local solar
// noon): the sun is well above
// the horizon, so estimatePowerKW should return a positive fraction of
// peak capacity.
func TestEstimatePowerKWDaytimeClearSky(t *testing.T) {
	a := &SolarForecastAdapter{latitude: 59.91, longitude: 10.75, peakPowerKW: 6.0}
	ts := time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC)
	cloud := 0.0
	forecast := fixtureForecast(ts, &cloud)

	got := a.estimatePowerKW(forecast, ts)
	if got <= 0 || got > a.peakPowerKW {
		t.Fatalf("expected output in (0, %v], got %v", a.peakPowerKW, got)
	}
}

// Full overcast should attenuate output relative to clear sky at the same
// instant, never flip sign or exceed peak capacity.
func TestEstimatePowerKWCloudAttenuates(t *testing.T) {
	a := &SolarForecastAdapter{latitude: 59.91, longitude: 10.75, peakPowerKW: 6.0}
	ts := time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC)

	clear := 0.0
	clearPower := a.estimatePowerKW(fixtureForecast(ts, &clear), ts)

	overcast := 100.0
	overcastPower := a.estimatePowerKW(fixtureForecast(ts, &overcast), ts)

	if overcastPower >= clearPower {
		t.Fatalf("expected overcast power (%v) < clear sky power (%v)", overcastPower, clearPower)
	}
}

// 00:30 UTC is 02:30 in Oslo, before that day's sunrise; the sunrise/sunset
// gate should zero the estimate regardless of reported cloud cover.
func TestEstimatePowerKWNightIsZero(t *testing.T) {
	a := &SolarForecastAdapter{latitude: 59.91, longitude: 10.75, peakPowerKW: 6.0}
	ts := time.Date(2026, 6, 21, 0, 30, 0, 0, time.UTC)
	cloud := 0.0
	forecast := fixtureForecast(ts, &cloud)

	if got := a.estimatePowerKW(forecast, ts); got != 0 {
		t.Fatalf("expected 0 at night, got %v", got)
	}
}

// A forecast with no time steps at all must not panic and should estimate
// zero.
func TestEstimatePowerKWMissingDataIsSafe(t *testing.T) {
	a := &SolarForecastAdapter{latitude: 59.91, longitude: 10.75, peakPowerKW: 6.0}
	empty := &meteo.METJSONForecast{}
	if got := a.estimatePowerKW(empty, time.Now()); got != 0 {
		t.Fatalf("expected 0 for empty forecast, got %v", got)
	}
}

func fixtureForecast(ts time.Time, cloudPct *float64) *meteo.METJSONForecast {
	return &meteo.METJSONForecast{
		Properties: &meteo.Forecast{
			Timeseries: []meteo.ForecastTimeStep{
				{
					Time: ts,
					Data: &meteo.ForecastTimeStepData{
						Instant: &meteo.ForecastInstantData{
							Details: &meteo.ForecastTimeInstant{
								CloudAreaFraction: cloudPct,
							},
						},
					},
				},
			},
		},
	}
}
