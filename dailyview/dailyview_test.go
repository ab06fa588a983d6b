package dailyview

import (
	"testing"
	"time"

	"github.com/embervolt/bess/energy"
	"github.com/embervolt/bess/historicalstore"
	"github.com/embervolt/bess/schedulestore"
)

func TestBuildSplicesActualPastAndPredictedFuture(t *testing.T) {
	hist := historicalstore.New()
	_ = hist.Record(0, 4, energy.PeriodData{Economic: energy.Economic{HourlySavings: 1}})
	_ = hist.Record(1, 4, energy.PeriodData{Economic: energy.Economic{HourlySavings: 2}})

	predicted := energy.OptimizationResult{
		Periods: []energy.PeriodData{
			{Economic: energy.Economic{HourlySavings: 3}, DataSource: energy.SourcePredicted},
			{Economic: energy.Economic{HourlySavings: 4}, DataSource: energy.SourcePredicted},
		},
	}
	sched := schedulestore.StoredSchedule{OptimizationPeriod: 2, Result: predicted}

	view, err := Build(hist, sched, 2, 4, time.Now(), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(view.Periods) != 4 {
		t.Fatalf("expected 4 periods, got %d", len(view.Periods))
	}
	if view.ActualCount != 2 || view.PredictedCount != 2 {
		t.Fatalf("expected 2 actual + 2 predicted, got actual=%d predicted=%d", view.ActualCount, view.PredictedCount)
	}
	if view.TotalSavings != 10 {
		t.Fatalf("expected total savings 10, got %v", view.TotalSavings)
	}
}

func TestBuildSkipsPeriodsWithNoPredictionAvailable(t *testing.T) {
	hist := historicalstore.New()
	predicted := energy.OptimizationResult{Periods: []energy.PeriodData{
		{Economic: energy.Economic{HourlySavings: 1}},
	}}
	sched := schedulestore.StoredSchedule{OptimizationPeriod: 0, Result: predicted}

	view, err := Build(hist, sched, 0, 4, time.Now(), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(view.Periods) != 1 {
		t.Fatalf("expected only the single covered period, got %d", len(view.Periods))
	}
}

func TestBuildOrErrorRequiresAStoredSchedule(t *testing.T) {
	hist := historicalstore.New()
	store := schedulestore.New()
	_, err := BuildOrError(hist, store, 0, 96, time.Now(), nil)
	if err == nil {
		t.Fatalf("expected error with no stored schedule")
	}
}
