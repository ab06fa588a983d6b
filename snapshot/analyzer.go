package snapshot

import (
	"math"

	"github.com/embervolt/bess/dailyview"
	"github.com/embervolt/bess/tou"
)

// DeviationThresholdKWh is the minimum per-period deviation magnitude
// (across battery action, consumption, and solar) worth classifying as
// anything other than MINIMAL.
const DeviationThresholdKWh = 0.3

// DeviationType classifies a single period's deviation by its dominant
// cause.
type DeviationType int

const (
	DeviationMinimal DeviationType = iota
	DeviationConsumptionHigher
	DeviationConsumptionLower
	DeviationSolarLower
	DeviationSolarHigher
	DeviationBatteryMismatch
)

func (d DeviationType) String() string {
	switch d {
	case DeviationConsumptionHigher:
		return "CONSUMPTION_HIGHER"
	case DeviationConsumptionLower:
		return "CONSUMPTION_LOWER"
	case DeviationSolarLower:
		return "SOLAR_LOWER"
	case DeviationSolarHigher:
		return "SOLAR_HIGHER"
	case DeviationBatteryMismatch:
		return "BATTERY_MISMATCH"
	default:
		return "MINIMAL"
	}
}

// PrimaryCause is the dominant factor behind a day's accumulated deviation.
type PrimaryCause int

const (
	CauseNone PrimaryCause = iota
	CauseConsumption
	CauseSolar
	CauseBatteryControl
	CauseMultiple
)

func (c PrimaryCause) String() string {
	switch c {
	case CauseConsumption:
		return "consumption"
	case CauseSolar:
		return "solar"
	case CauseBatteryControl:
		return "battery_control"
	case CauseMultiple:
		return "multiple"
	default:
		return "none"
	}
}

// PeriodDeviation is the predicted-vs-actual comparison for one period.
type PeriodDeviation struct {
	Period int

	PredictedBatteryAction float64
	PredictedConsumption   float64
	PredictedSolar         float64
	PredictedSavings       float64

	ActualBatteryAction float64
	ActualConsumption   float64
	ActualSolar         float64
	ActualSavings       float64

	BatteryActionDeviation float64
	ConsumptionDeviation   float64
	SolarDeviation         float64
	SavingsDeviation       float64

	Type DeviationType
}

// Comparison is the full snapshot-vs-current deviation analysis.
type Comparison struct {
	Reference         Snapshot
	Current           dailyview.View
	PeriodDeviations  []PeriodDeviation

	TotalPredictedSavings float64
	TotalActualSavings    float64
	SavingsDeviation      float64

	PrimaryCause PrimaryCause

	PredictedSegments []tou.Segment
	CurrentSegments   []tou.Segment
}

func batteryAction(p *dailyview.View, idx int) (action, consumption, solar, savings float64, ok bool) {
	if idx < 0 || idx >= len(p.Periods) {
		return 0, 0, 0, 0, false
	}
	period := p.Periods[idx]
	return period.Energy.BatteryCharged - period.Energy.BatteryDischarged,
		period.Energy.HomeConsumption,
		period.Energy.SolarProduction,
		period.Economic.HourlySavings,
		true
}

// Compare analyzes how actual outcomes, as of currentView, deviated from
// what reference predicted when it was captured (spec §4.9). The compared
// range runs from reference's optimization period through currentView's
// ActualCount — the periods that now have actual data to compare against.
func Compare(reference Snapshot, currentView dailyview.View, currentSegments []tou.Segment) Comparison {
	start := reference.OptimizationPeriod
	end := currentView.ActualCount

	var deviations []PeriodDeviation
	var totalPredicted, totalActual float64
	var totalBatteryDev, totalConsumptionDev, totalSolarDev float64

	limit := end
	if len(currentView.Periods) < limit {
		limit = len(currentView.Periods)
	}

	for idx := start; idx < limit; idx++ {
		predAction, predConsumption, predSolar, predSavings, predOK := batteryAction(&reference.View, idx)
		actAction, actConsumption, actSolar, actSavings, actOK := batteryAction(&currentView, idx)
		if !predOK || !actOK {
			continue
		}

		batteryDev := actAction - predAction
		consumptionDev := actConsumption - predConsumption
		solarDev := actSolar - predSolar
		savingsDev := actSavings - predSavings

		deviations = append(deviations, PeriodDeviation{
			Period:                  idx,
			PredictedBatteryAction:  predAction,
			PredictedConsumption:    predConsumption,
			PredictedSolar:          predSolar,
			PredictedSavings:        predSavings,
			ActualBatteryAction:     actAction,
			ActualConsumption:       actConsumption,
			ActualSolar:             actSolar,
			ActualSavings:           actSavings,
			BatteryActionDeviation:  batteryDev,
			ConsumptionDeviation:    consumptionDev,
			SolarDeviation:          solarDev,
			SavingsDeviation:        savingsDev,
			Type:                    classifyDeviation(batteryDev, consumptionDev, solarDev),
		})

		totalPredicted += predSavings
		totalActual += actSavings
		totalBatteryDev += math.Abs(batteryDev)
		totalConsumptionDev += math.Abs(consumptionDev)
		totalSolarDev += math.Abs(solarDev)
	}

	return Comparison{
		Reference:             reference,
		Current:                currentView,
		PeriodDeviations:       deviations,
		TotalPredictedSavings:  totalPredicted,
		TotalActualSavings:     totalActual,
		SavingsDeviation:       totalActual - totalPredicted,
		PrimaryCause:           primaryCause(totalBatteryDev, totalConsumptionDev, totalSolarDev),
		PredictedSegments:      reference.Segments,
		CurrentSegments:        currentSegments,
	}
}

// classifyDeviation identifies which single factor moved most within one
// period, applying the exact 0.3 kWh significance threshold.
func classifyDeviation(batteryDev, consumptionDev, solarDev float64) DeviationType {
	maxAbs := math.Max(math.Abs(batteryDev), math.Max(math.Abs(consumptionDev), math.Abs(solarDev)))
	if maxAbs < DeviationThresholdKWh {
		return DeviationMinimal
	}

	switch {
	case math.Abs(consumptionDev) == maxAbs:
		if consumptionDev > 0 {
			return DeviationConsumptionHigher
		}
		return DeviationConsumptionLower
	case math.Abs(solarDev) == maxAbs:
		if solarDev < 0 {
			return DeviationSolarLower
		}
		return DeviationSolarHigher
	default:
		return DeviationBatteryMismatch
	}
}

// primaryCause attributes the day's accumulated deviation to whichever
// factor exceeds half of the total absolute deviation, else "multiple".
func primaryCause(totalBatteryDev, totalConsumptionDev, totalSolarDev float64) PrimaryCause {
	total := totalBatteryDev + totalConsumptionDev + totalSolarDev
	if total == 0 {
		return CauseNone
	}

	consumptionPct := totalConsumptionDev / total
	solarPct := totalSolarDev / total
	batteryPct := totalBatteryDev / total

	switch {
	case consumptionPct > 0.5:
		return CauseConsumption
	case solarPct > 0.5:
		return CauseSolar
	case batteryPct > 0.5:
		return CauseBatteryControl
	default:
		return CauseMultiple
	}
}
