package sigenergy

import (
	"context"
	"fmt"
	"sync"
	"time"

	bess "github.com/embervolt/bess"
	"github.com/embervolt/bess/ports"
	"github.com/embervolt/bess/sigenergy"
	"github.com/embervolt/bess/timegrid"
)

// powerSample is one instantaneous plant reading, buffered between
// control-loop ticks. Modeled on scheduler/data.go's DataSample.
type powerSample struct {
	pvPower    float64 // kW
	gridPower  float64 // kW, positive = import, negative = export
	essPower   float64 // kW, positive = charging, negative = discharging
	batterySoC float64 // %
	ts         time.Time
}

// SensorAdapter implements ports.SensorSource against a Sigenergy plant by
// polling PlantRunningInfo on a fixed cadence and integrating the buffered
// power samples into one kWh-denominated Reading per completed period, the
// same scheme scheduler/data.go's DataSamples.IntegrateSamples uses for PV
// metrics. It also keeps a day-scoped cache of integrated readings so
// HistoricalReading can answer for any period already completed today.
type SensorAdapter struct {
	client       *sigenergy.SigenModbusClient
	grid         *timegrid.Grid
	pollInterval time.Duration

	mu               sync.Mutex
	samples          []powerSample
	lastCapacityKWh  float64
	history          map[int]ports.Reading
}

// NewSensorAdapter wraps an already-connected Sigenergy Modbus client.
// pollInterval is the cadence Poll is expected to be called on (used to
// convert each buffered instantaneous power sample into an energy delta).
func NewSensorAdapter(client *sigenergy.SigenModbusClient, grid *timegrid.Grid, pollInterval time.Duration) *SensorAdapter {
	return &SensorAdapter{
		client:       client,
		grid:         grid,
		pollInterval: pollInterval,
		history:      make(map[int]ports.Reading),
	}
}

// Poll reads one instantaneous sample from the plant and buffers it. It is
// meant to run on its own fast ticker (independent of the control loop's
// 15-minute tick), the same separation scheduler/data.go draws between
// runDataPoll and runDataIntegration.
func (a *SensorAdapter) Poll() error {
	info, err := a.client.ReadPlantRunningInfo()
	if err != nil {
		return fmt.Errorf("sigenergy: poll plant running info: %w", err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.samples = append(a.samples, powerSample{
		pvPower:    info.PhotovoltaicPower,
		gridPower:  info.GridSensorActivePower,
		essPower:   info.ESSPower,
		batterySoC: info.ESSSOC,
		ts:         time.Now(),
	})
	if info.ESSRatedEnergyCapacity > 0 {
		a.lastCapacityKWh = info.ESSRatedEnergyCapacity
	}
	return nil
}

// CurrentReading integrates every sample buffered since the last call into
// one Reading, caches it against the period it covers, and clears the
// buffer. Load is derived the same way as scheduler/data.go's
// IntegratedData.loadPower: PV + battery discharge + grid import - battery
// charge - grid export.
func (a *SensorAdapter) CurrentReading(ctx context.Context) (ports.Reading, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.samples) == 0 {
		return ports.Reading{}, bess.NewError(bess.KindMissingData, "sigenergy: no sensor samples buffered")
	}

	var pv, gridImport, gridExport, essCharge, essDischarge float64
	var lastSoC float64
	var lastTS time.Time
	energyPerSample := a.pollInterval.Seconds() / 3600.0

	for _, s := range a.samples {
		pv += s.pvPower * energyPerSample
		if s.gridPower > 0 {
			gridImport += s.gridPower * energyPerSample
		} else {
			gridExport += -s.gridPower * energyPerSample
		}
		if s.essPower > 0 {
			essCharge += s.essPower * energyPerSample
		} else {
			essDischarge += -s.essPower * energyPerSample
		}
		lastSoC = s.batterySoC
		lastTS = s.ts
	}
	a.samples = a.samples[:0]

	homeConsumption := pv + essDischarge + gridImport - essCharge - gridExport
	if homeConsumption < 0 {
		homeConsumption = 0
	}

	reading := ports.Reading{
		Timestamp:       lastTS,
		BatterySoEKWh:   a.lastCapacityKWh * lastSoC / 100,
		HomeConsumption: homeConsumption,
		SolarProduction: pv,
		GridImport:      gridImport,
		GridExport:      gridExport,
	}

	if period, err := a.grid.TimestampToPeriod(lastTS); err == nil && period > 0 {
		a.history[period-1] = reading
	}
	return reading, nil
}

// HistoricalReading returns the integrated reading cached for period p on
// day, or a MissingData error if CurrentReading has never covered it (e.g.
// a restart lost the in-memory cache).
func (a *SensorAdapter) HistoricalReading(ctx context.Context, day time.Time, p int) (ports.Reading, error) {
	dayStart, err := a.grid.TimestampToPeriod(day)
	if err != nil {
		return ports.Reading{}, bess.Wrap(bess.KindInvalidInput, "sigenergy: resolve day start period", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	reading, ok := a.history[dayStart+p]
	if !ok {
		return ports.Reading{}, bess.NewError(bess.KindMissingData, "sigenergy: no cached reading for requested period")
	}
	return reading, nil
}
