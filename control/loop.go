// Package control implements the top-level BESS state machine and its
// per-quarter-hour tick (spec §4.11), wiring every other core package
// together: timegrid, settings, energy, historicalstore, optimizer,
// intent, schedulestore, tou, costbasis, dailyview, snapshot, faultlog,
// and the external ports.
package control

import (
	"context"
	"database/sql"
	"log"
	"strconv"
	"sync"
	"time"

	bess "github.com/embervolt/bess"
	"github.com/embervolt/bess/energy"
	"github.com/embervolt/bess/faultlog"
	"github.com/embervolt/bess/historicalstore"
	"github.com/embervolt/bess/ports"
	"github.com/embervolt/bess/schedulestore"
	"github.com/embervolt/bess/settings"
	"github.com/embervolt/bess/snapshot"
	"github.com/embervolt/bess/timegrid"
	"github.com/embervolt/bess/tou"
)

// State is the control loop's top-level lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateStarting
	StateRunning
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateDegraded:
		return "Degraded"
	default:
		return "Uninitialized"
	}
}

// Loop is the top-level control loop. A single Loop instance drives one
// battery; it is not safe to call Tick concurrently with itself (the
// scheduler driving it must not overlap ticks, per spec §4.11's
// concurrency model) — the internal mutex serializes overlapping calls (a
// second Tick blocks until the first returns); it does not detect or
// reject them.
type Loop struct {
	mu sync.Mutex

	state    State
	settings settings.Settings
	grid     *timegrid.Grid

	hist      *historicalstore.Store
	schedules *schedulestore.Store
	snapshots *snapshot.Store
	faults    *faultlog.Tracker

	inverter      ports.InverterController
	sensors       ports.SensorSource
	prices        ports.PriceSource
	solarForecast ports.SolarForecastSource
	loadForecast  ports.LoadForecastSource

	logger *log.Logger
	db     *sql.DB

	current     []tou.Segment
	startingSoE float64
	corrupted   bool
	firstRun    bool
}

// New builds a Loop in state Uninitialized.
func New(
	cfg settings.Settings,
	grid *timegrid.Grid,
	inverter ports.InverterController,
	sensors ports.SensorSource,
	prices ports.PriceSource,
	solarForecast ports.SolarForecastSource,
	loadForecast ports.LoadForecastSource,
	logger *log.Logger,
) *Loop {
	if logger == nil {
		logger = log.Default()
	}
	return &Loop{
		state:         StateUninitialized,
		settings:      cfg,
		grid:          grid,
		hist:          historicalstore.New(),
		schedules:     schedulestore.New(),
		snapshots:     snapshot.New(),
		faults:        faultlog.New(logger),
		inverter:      inverter,
		sensors:       sensors,
		prices:        prices,
		solarForecast: solarForecast,
		loadForecast:  loadForecast,
		logger:        logger,
		firstRun:      true,
	}
}

// State returns the loop's current lifecycle state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Start runs the Uninitialized -> Starting -> {Running, Degraded}
// bootstrap sequence (spec §4.11).
func (l *Loop) Start(ctx context.Context, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state = StateStarting

	healthy := true
	if _, err := l.sensors.CurrentReading(ctx); err != nil {
		l.faults.Record(faultlog.CategorySensor, "startup health check", err, nil, now)
		healthy = false
	}

	if segs, err := l.inverter.CurrentSegments(ctx); err != nil {
		l.faults.Record(faultlog.CategoryTOUSegment, "bootstrap current schedule", err, nil, now)
	} else {
		l.current = segs
	}

	currentPeriod, err := l.grid.TimestampToPeriod(now)
	if err != nil {
		return bess.Wrap(bess.KindInvalidInput, "compute current period at startup", err)
	}
	today := startOfDay(now, l.grid)
	for p := 0; p < currentPeriod; p++ {
		reading, err := l.sensors.HistoricalReading(ctx, today, p)
		if err != nil {
			l.faults.Record(faultlog.CategorySensor, "backfill historical reading", err,
				map[string]string{"period": strconv.Itoa(p)}, now)
			continue
		}
		pd := periodDataFromReading(reading, p)
		if err := l.hist.Record(p, currentPeriod, pd); err != nil {
			l.faults.Record(faultlog.CategorySensor, "store backfilled reading", err, nil, now)
		}
	}

	if healthy {
		l.state = StateRunning
	} else {
		l.state = StateDegraded
	}
	return nil
}

func startOfDay(t time.Time, grid *timegrid.Grid) time.Time {
	loc := grid.Location()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func periodDataFromReading(r ports.Reading, p int) energy.PeriodData {
	rec := energy.Record{
		HomeConsumption: r.HomeConsumption,
		SolarProduction: r.SolarProduction,
		GridImported:    r.GridImport,
		GridExported:    r.GridExport,
		BatterySoEStart: r.BatterySoEKWh,
		BatterySoEEnd:   r.BatterySoEKWh,
	}
	rec.Derive()
	return energy.PeriodData{
		Period:     p,
		Energy:     rec,
		Timestamp:  r.Timestamp,
		DataSource: energy.SourceActual,
	}
}
