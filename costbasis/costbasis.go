// Package costbasis recomputes the weighted-average acquisition cost of
// energy in the battery from actual historical flows (spec §4.10). It
// applies the same FIFO-weighted-average scheme as the DP Optimizer
// (optimizer package), but over real Energy Records instead of DP state,
// closing the loop between what actually happened and what the next
// optimization run assumes as its starting cost basis.
package costbasis

import (
	"math"

	"github.com/embervolt/bess/energy"
)

const epsilon = 1e-6

// Recompute replays today's completed periods (in period order) through
// the FIFO-weighted-average scheme and returns the resulting cost basis,
// to be used as the next DP run's initial_cost_basis. periods must already
// be filtered to non-nil, completed records in period order; cycleCost is
// the battery's cycle_cost_per_kwh.
func Recompute(periods []energy.PeriodData, cycleCost float64) float64 {
	var e, c float64

	for _, p := range periods {
		charged := p.Energy.SolarToBattery + p.Energy.GridToBattery
		if charged > epsilon {
			eInGrid := p.Energy.GridToBattery
			eInSolar := p.Energy.SolarToBattery
			c += eInGrid*p.Economic.BuyPrice + (eInSolar+eInGrid)*cycleCost
			e += charged
		}

		if p.Energy.BatteryDischarged > epsilon {
			avg := c / math.Max(e, epsilon)
			amt := p.Energy.BatteryDischarged
			c = math.Max(0, c-amt*avg)
			e = math.Max(0, e-amt)
			if e <= 0.1 {
				c = 0
			}
		}
	}

	if e > epsilon {
		return c / e
	}
	return cycleCost
}
