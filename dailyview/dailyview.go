// Package dailyview builds the merged actual+predicted day view the
// dashboard and deviation analyzer both read from (spec §4.12).
package dailyview

import (
	"log"
	"time"

	bess "github.com/embervolt/bess"
	"github.com/embervolt/bess/energy"
	"github.com/embervolt/bess/historicalstore"
	"github.com/embervolt/bess/schedulestore"
)

// View is one day's periods, with past periods backed by actual readings
// and future periods backed by the latest optimization run.
type View struct {
	Date           time.Time
	Periods        []energy.PeriodData
	TotalSavings   float64
	ActualCount    int
	PredictedCount int
}

// Build merges the Historical Reading Store (past) with the latest stored
// schedule (future) into one fixed-length day view, per spec §4.12.
// currentPeriod is the period boundary below which the historical store is
// authoritative; periodsInDay is today's period count (92/96/100).
func Build(hist *historicalstore.Store, latest schedulestore.StoredSchedule, currentPeriod, periodsInDay int, today time.Time, logger *log.Logger) (View, error) {
	predicted := latest.Result.Periods
	optimizationPeriod := latest.OptimizationPeriod

	periods := make([]energy.PeriodData, 0, periodsInDay)
	for i := 0; i < periodsInDay; i++ {
		if i < currentPeriod {
			if actual := hist.Get(i); actual != nil {
				periods = append(periods, *actual)
				continue
			}
		}

		predictedIndex := i - optimizationPeriod
		if predictedIndex < 0 || predictedIndex >= len(predicted) {
			if logger != nil {
				logger.Printf("dailyview: no predicted data for period %d", i)
			}
			continue
		}
		periods = append(periods, predicted[predictedIndex])
	}

	view := View{Date: today, Periods: periods}
	for _, p := range periods {
		view.TotalSavings += p.Economic.HourlySavings
		if p.DataSource == energy.SourceActual {
			view.ActualCount++
		} else {
			view.PredictedCount++
		}
	}
	return view, nil
}

// BuildOrError is Build, but returns a MissingData error when no schedule
// has been stored yet — the Daily View Builder cannot produce a view with
// no predicted tail at all.
func BuildOrError(hist *historicalstore.Store, store *schedulestore.Store, currentPeriod, periodsInDay int, today time.Time, logger *log.Logger) (View, error) {
	latest, ok := store.Latest()
	if !ok {
		return View{}, bess.NewError(bess.KindMissingData, "no optimization schedule available to build a daily view")
	}
	return Build(hist, latest, currentPeriod, periodsInDay, today, logger)
}
