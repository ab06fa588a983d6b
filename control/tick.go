package control

import (
	"context"
	"database/sql"
	"time"

	bess "github.com/embervolt/bess"
	"github.com/embervolt/bess/costbasis"
	"github.com/embervolt/bess/dailyview"
	"github.com/embervolt/bess/energy"
	"github.com/embervolt/bess/faultlog"
	"github.com/embervolt/bess/intent"
	"github.com/embervolt/bess/optimizer"
	"github.com/embervolt/bess/schedulestore"
	"github.com/embervolt/bess/tou"
)

// SetPersistence attaches the database the control loop persists planned
// intents to (schedulestore.SavePeriods). A nil db (the default) disables
// persistence; Tick still runs entirely in memory.
func (l *Loop) SetPersistence(db *sql.DB) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.db = db
}

// Tick runs one period's worth of the 13-step control algorithm (spec
// §4.11). p is the absolute period index (continuous from today 00:00);
// prepareNextDay marks the once-daily run that plans tomorrow ahead of
// midnight rather than reacting to the period that just completed.
func (l *Loop) Tick(ctx context.Context, p int, prepareNextDay bool, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Step 1: validate.
	if p < 0 {
		return bess.NewError(bess.KindInvalidInput, "control: period must be >= 0")
	}

	// Step 2: midnight handling.
	if p == 0 && !prepareNextDay {
		if soe, err := l.inverter.CurrentSoEKWh(ctx); err == nil {
			l.startingSoE = soe
		}
	}
	if prepareNextDay {
		l.hist.Clear()
		l.schedules.Clear()
		l.snapshots.Clear()
	}

	dayTimestamp, err := l.grid.PeriodToTimestamp(p)
	if err != nil {
		return bess.Wrap(bess.KindInvalidInput, "control: resolve timestamp for period", err)
	}
	day := startOfDay(dayTimestamp, l.grid)
	periodsInDay := l.grid.PeriodsInDay(day)
	dayStartPeriod, err := l.grid.TimestampToPeriod(day)
	if err != nil {
		return bess.Wrap(bess.KindInvalidInput, "control: resolve day start period", err)
	}
	offset := p - dayStartPeriod
	fromHour := offset / 4

	// Step 3: fetch prices.
	prices, err := l.prices.SpotPrices(ctx, day)
	if err != nil || len(prices) == 0 {
		l.faults.Record(faultlog.CategoryPriceFeed, "fetch spot prices", errOrMissing(err), nil, now)
		return nil
	}

	// Step 4: collect actuals for the just-completed period p-1.
	if p > 0 {
		l.recordActuals(ctx, p, prices, offset, now)
	}

	// Step 5: read current battery SoC from the inverter.
	soe, err := l.inverter.CurrentSoEKWh(ctx)
	if err != nil {
		l.faults.Record(faultlog.CategorySensor, "read battery state of energy", err, nil, now)
		return nil
	}
	if l.firstRun && p == 0 {
		l.startingSoE = soe
	}

	// Step 6: assemble the remaining horizon, trimmed to the price array.
	horizon := len(prices) - offset
	if horizon <= 0 {
		return nil
	}
	buyPrice := make([]float64, horizon)
	sellPrice := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		spot := prices[offset+i]
		buyPrice[i] = l.settings.Price.BuyPrice(spot)
		sellPrice[i] = l.settings.Price.SellPrice(spot)
	}

	homeConsumption, err := l.loadForecast.ForecastKWh(ctx, day)
	if err != nil {
		l.faults.Record(faultlog.CategorySensor, "fetch load forecast", err, nil, now)
		return nil
	}
	solarProduction, err := l.solarForecast.ForecastKWh(ctx, day)
	if err != nil {
		l.faults.Record(faultlog.CategorySensor, "fetch solar forecast", err, nil, now)
		return nil
	}
	homeConsumption = trimHorizon(homeConsumption, offset, horizon)
	solarProduction = trimHorizon(solarProduction, offset, horizon)
	if len(homeConsumption) != horizon || len(solarProduction) != horizon {
		l.faults.Record(faultlog.CategorySensor, "assemble forecast horizon",
			bess.NewError(bess.KindMissingData, "control: forecast arrays shorter than price horizon"), nil, now)
		return nil
	}

	// Step 7: initial cost basis from today's completed actuals.
	completed := l.hist.Today(offset)
	values := make([]energy.PeriodData, 0, len(completed))
	for _, pd := range completed {
		if pd != nil {
			values = append(values, *pd)
		}
	}
	initialCostBasis := costbasis.Recompute(values, l.settings.Battery.CycleCostPerKWh)

	// Step 8: run the DP Optimizer.
	result, err := optimizer.Solve(optimizer.Input{
		BuyPrice:         buyPrice,
		SellPrice:        sellPrice,
		HomeConsumption:  homeConsumption,
		SolarProduction:  solarProduction,
		InitialSoEKWh:    soe,
		InitialCostBasis: initialCostBasis,
		Battery:          l.settings.Battery,
	})
	if err != nil {
		l.faults.Record(faultlog.CategoryPowerRate, "solve optimization", err, nil, now)
		return nil
	}
	for i := range result.Periods {
		pd := &result.Periods[i]
		pd.Period = offset + i
		pd.Timestamp, _ = l.grid.PeriodToTimestamp(dayStartPeriod + offset + i)
		pd.Decision.StrategicIntent = intent.Classify(pd.Decision.BatteryAction, pd.Energy)
	}

	// Step 9: compile TOU for the full day (past-actual + newly-planned).
	dayIntents := make([]energy.Intent, periodsInDay)
	for i := 0; i < offset; i++ {
		if pd := l.hist.Get(dayStartPeriod + i); pd != nil {
			dayIntents[i] = pd.Decision.StrategicIntent
		}
	}
	for i, pd := range result.Periods {
		if offset+i < periodsInDay {
			dayIntents[offset+i] = pd.Decision.StrategicIntent
		}
	}
	newSegments := tou.CompileDay(dayIntents)

	// Step 10: diff against the currently applied schedule for hours >=
	// p // periods-per-hour, and apply if different (or first run / the
	// once-daily tomorrow-planning run).
	diff := tou.Diff(segmentsFromHour(l.current, fromHour), segmentsFromHour(newSegments, fromHour))
	if len(diff.ToDisable) > 0 || len(diff.ToUpdate) > 0 || l.firstRun || prepareNextDay {
		if err := l.inverter.ApplyDiff(ctx, diff); err != nil {
			l.corrupted = true
			l.faults.Record(faultlog.CategoryTOUSegment, "apply schedule diff", err, nil, now)
			return nil
		}
		l.current = newSegments
		l.corrupted = false
	}

	// Step 11: store the optimization result; persist planned intents.
	scenario := schedulestore.ScenarioHourly
	switch {
	case prepareNextDay:
		scenario = schedulestore.ScenarioTomorrow
	case l.firstRun:
		scenario = schedulestore.ScenarioRestart
	}
	stored, err := l.schedules.StoreSchedule(*result, p, scenario, now)
	if err != nil {
		l.faults.Record(faultlog.CategoryPersistence, "store optimization result", err, nil, now)
	}
	if l.db != nil {
		persisted := make([]schedulestore.PersistedPeriod, len(result.Periods))
		for i, pd := range result.Periods {
			persisted[i] = schedulestore.PersistedPeriod{
				Period:          pd.Period,
				StrategicIntent: pd.Decision.StrategicIntent,
				BatteryAction:   pd.Decision.BatteryAction,
			}
		}
		if err := schedulestore.SavePeriods(ctx, l.db, day, persisted); err != nil {
			l.faults.Record(faultlog.CategoryPersistence, "persist planned periods", err, nil, now)
		}
	}

	// Step 12: capture a Prediction Snapshot, unless this is the
	// once-daily tomorrow-planning run (nothing actual to compare yet).
	if !prepareNextDay {
		view, err := dailyview.Build(l.hist, stored, offset, periodsInDay, day, l.logger)
		if err != nil {
			l.faults.Record(faultlog.CategoryPersistence, "build daily view for snapshot", err, nil, now)
		} else {
			l.snapshots.StoreSnapshot(now, p, view, newSegments, result.Summary.SavingsVsGridOnly)
		}
	}

	// Step 13: apply this period's control knobs.
	if len(result.Periods) > 0 {
		current := result.Periods[0]
		knobs := tou.ComputeKnobs(current.Decision.StrategicIntent, current.Decision.BatteryAction,
			optimizer.DeltaT, l.settings.Battery.MaxDischargePowerKW)
		if err := l.inverter.ApplyKnobs(ctx, fromHour, knobs); err != nil {
			l.faults.Record(faultlog.CategoryPowerRate, "apply per-period knobs", err, nil, now)
		}
	}

	l.firstRun = false
	return nil
}

// recordActuals implements step 4: it collects the sensor reading covering
// the just-completed period p-1, derives its Energy Record, classifies the
// observed intent, and writes the result to the Historical Reading Store.
func (l *Loop) recordActuals(ctx context.Context, p int, prices []float64, offset int, now time.Time) {
	reading, err := l.sensors.CurrentReading(ctx)
	if err != nil {
		l.faults.Record(faultlog.CategorySensor, "read current sensor sample", err, nil, now)
		return
	}

	prevSoE := l.startingSoE
	if prev := l.hist.Get(p - 2); prev != nil {
		prevSoE = prev.Energy.BatterySoEEnd
	}

	rec := energy.Record{
		HomeConsumption: reading.HomeConsumption,
		SolarProduction: reading.SolarProduction,
		GridImported:    reading.GridImport,
		GridExported:    reading.GridExport,
		BatterySoEStart: prevSoE,
		BatterySoEEnd:   reading.BatterySoEKWh,
	}
	delta := rec.BatterySoEEnd - rec.BatterySoEStart
	if delta > 0 {
		rec.BatteryCharged = delta
	} else {
		rec.BatteryDischarged = -delta
	}
	rec.Derive()
	if err := rec.CheckInvariants(); err != nil {
		l.faults.Record(faultlog.CategorySensor, "check energy record invariants", err, nil, now)
	}

	priceIdx := offset - 1
	var spot float64
	if priceIdx >= 0 && priceIdx < len(prices) {
		spot = prices[priceIdx]
	}
	econ := energy.Economic{
		BuyPrice:  l.settings.Price.BuyPrice(spot),
		SellPrice: l.settings.Price.SellPrice(spot),
	}
	econ.HourlyCost = rec.GridImported*econ.BuyPrice - rec.GridExported*econ.SellPrice
	econ.GridOnlyCost = rec.HomeConsumption * econ.BuyPrice
	econ.HourlySavings = econ.GridOnlyCost - econ.HourlyCost

	observed := intent.ClassifyObserved(rec)
	planned := observed
	if prevStored, ok := l.schedules.Latest(); ok {
		for _, pd := range prevStored.Result.Periods {
			if pd.Period == p-1 {
				planned = pd.Decision.StrategicIntent
				break
			}
		}
	}

	pd := energy.PeriodData{
		Period:   p - 1,
		Energy:   rec,
		Economic: econ,
		Decision: energy.Decision{
			StrategicIntent: planned,
			BatteryAction:   intent.NetAction(rec),
			ObservedIntent:  &observed,
		},
		Timestamp:  reading.Timestamp,
		DataSource: energy.SourceActual,
	}
	if err := l.hist.Record(p-1, p, pd); err != nil {
		l.faults.Record(faultlog.CategorySensor, "store historical reading", err, nil, now)
	}
}

func errOrMissing(err error) error {
	if err != nil {
		return err
	}
	return bess.NewError(bess.KindMissingData, "control: price source returned no prices")
}

func trimHorizon(values []float64, offset, horizon int) []float64 {
	if offset >= len(values) {
		return nil
	}
	end := offset + horizon
	if end > len(values) {
		end = len(values)
	}
	return values[offset:end]
}

// segmentsFromHour returns only the portion of segs at or after fromHour,
// clipping any segment that straddles the boundary. Used so the Schedule
// Diff & Apply step never touches hours that have already elapsed today.
func segmentsFromHour(segs []tou.Segment, fromHour int) []tou.Segment {
	out := make([]tou.Segment, 0, len(segs))
	for _, s := range segs {
		if s.EndHour <= fromHour {
			continue
		}
		if s.StartHour < fromHour {
			s.StartHour = fromHour
		}
		out = append(out, s)
	}
	return out
}
