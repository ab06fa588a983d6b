// Package optimizer implements the DP Optimizer (spec §4.4): backward
// value iteration over a discretized (state-of-energy, cost-basis) grid,
// forward-traced from the initial state. This extends the teacher's
// single-dimension SoC dynamic program (mpc/mpc.go) with the cost-basis
// state dimension the spec requires, and switches from the teacher's
// forward-fill/backward-trace control flow to backward value iteration
// with a forward trace, as the spec's solver description demands.
package optimizer

import (
	"math"

	bess "github.com/embervolt/bess"
	"github.com/embervolt/bess/energy"
	"github.com/embervolt/bess/settings"
)

// DeltaT is the period length in hours (15 minutes).
const DeltaT = 0.25

// cell is one entry of the backward DP's best-action table.
type cell struct {
	value     float64
	action    float64
	nextSoEI  int
	nextCBI   int
	hasAction bool
}

// epsilon guards against divide-by-near-zero in cost-basis bookkeeping.
const epsilon = 1e-6

// maxActionSteps bounds the number of discretized actions tried per
// direction (charge/discharge) so the DP stays within its period budget
// (spec §5: target <= 500ms for H <= 192) on real battery sizes. Using
// fewer, coarser steps than the full Δ_soe grid would allow is a
// conscious engineering trade against runtime; the discretization step
// used is >= Δ_soe whenever the headroom in that direction is at least
// Δ_soe, and a smaller headroom is tried as one single step.
const maxActionSteps = 14

// Input is everything the DP Optimizer needs for one solve (spec §4.4).
type Input struct {
	BuyPrice        []float64
	SellPrice       []float64
	HomeConsumption []float64
	SolarProduction []float64

	InitialSoEKWh    float64
	InitialCostBasis float64

	Battery settings.Battery
}

func (in Input) horizon() int { return len(in.BuyPrice) }

func (in Input) validate() error {
	h := in.horizon()
	if h == 0 {
		return bess.NewError(bess.KindInvalidInput, "optimizer: horizon must be > 0")
	}
	if len(in.SellPrice) != h || len(in.HomeConsumption) != h || len(in.SolarProduction) != h {
		return bess.NewError(bess.KindInvalidInput, "optimizer: input array length mismatch")
	}
	if in.InitialSoEKWh < in.Battery.MinSoEKWh || in.InitialSoEKWh > in.Battery.MaxSoEKWh {
		return bess.NewError(bess.KindInvalidInput, "optimizer: initial SoE outside [soe_min, soe_max]")
	}
	if err := in.Battery.Validate(); err != nil {
		return err
	}
	return nil
}

// grid discretizes the (soe, cost_basis) state space.
type grid struct {
	soeMin, soeMax float64
	deltaSoE       float64
	nSoE           int

	cbMax    float64
	deltaCB  float64
	nCB      int
}

func buildGrid(b settings.Battery, buyPriceMax float64) grid {
	deltaSoE := math.Min(0.1, b.CapacityKWh/100)
	if deltaSoE <= 0 {
		deltaSoE = 0.1
	}
	nSoE := int(math.Round((b.MaxSoEKWh-b.MinSoEKWh)/deltaSoE)) + 1

	deltaCB := 0.01
	cbMax := buyPriceMax + b.CycleCostPerKWh
	if cbMax <= 0 {
		cbMax = b.CycleCostPerKWh + 1
	}
	nCB := int(math.Round(cbMax/deltaCB)) + 1

	return grid{
		soeMin: b.MinSoEKWh, soeMax: b.MaxSoEKWh, deltaSoE: deltaSoE, nSoE: nSoE,
		cbMax: cbMax, deltaCB: deltaCB, nCB: nCB,
	}
}

func (g grid) soeIndex(soe float64) int {
	idx := int(math.Round((soe - g.soeMin) / g.deltaSoE))
	if idx < 0 {
		idx = 0
	}
	if idx >= g.nSoE {
		idx = g.nSoE - 1
	}
	return idx
}

func (g grid) cbIndex(cb float64) int {
	idx := int(math.Round(cb / g.deltaCB))
	if idx < 0 {
		idx = 0
	}
	if idx >= g.nCB {
		idx = g.nCB - 1
	}
	return idx
}

func (g grid) soeAt(idx int) float64 { return g.soeMin + float64(idx)*g.deltaSoE }
func (g grid) cbAt(idx int) float64  { return float64(idx) * g.deltaCB }

// transition is the result of applying action a to state (soe, cb) during
// period t, per spec §4.4's transition and cost-basis update rules.
type transition struct {
	soe, cb                 float64
	gridImport, gridExport  float64
	grossCharge, grossDisch float64
}

// applyAction computes the deterministic successor of (soe, cb) under
// action a (signed net kWh, >0 charge) during a period with consumption
// cons and solar sol, given battery settings b and the period's buy price.
//
// E/C bookkeeping follows spec §4.4 exactly: E = soe - soe_min is usable
// energy above the floor, C is its cumulative acquisition cost.
func applyAction(soe, cb, a, cons, sol float64, b settings.Battery, buyPrice float64) transition {
	E := soe - b.MinSoEKWh
	C := E * cb

	grossCharge := math.Max(a, 0) / b.EfficiencyCharge
	grossDischarge := math.Max(-a, 0) * b.EfficiencyDischarge

	netLoad := cons + grossCharge - sol - grossDischarge
	var gridImport, gridExport float64
	if netLoad >= 0 {
		gridImport = netLoad
	} else {
		gridExport = -netLoad
	}

	var newE, newC float64
	if a > 0 {
		eInGrid := math.Min(grossCharge, gridImport)
		eInSolar := grossCharge - eInGrid
		newC = C + eInGrid*buyPrice + (eInSolar+eInGrid)*b.CycleCostPerKWh
		newE = E + a
	} else if a < 0 {
		avg := C / math.Max(E, epsilon)
		newC = math.Max(0, C-math.Abs(a)*avg)
		newE = math.Max(0, E+a)
		if newE <= 0.1 {
			newC = 0
		}
	} else {
		newE, newC = E, C
	}

	newCB := b.CycleCostPerKWh
	if newE > epsilon {
		newCB = newC / newE
	}

	return transition{
		soe:            b.MinSoEKWh + newE,
		cb:             newCB,
		gridImport:     gridImport,
		gridExport:     gridExport,
		grossCharge:    grossCharge,
		grossDisch:     grossDischarge,
	}
}

// candidateActions returns the discretized action set admissible from soe
// given battery limits, per spec §4.4's action-set definition.
func candidateActions(soe float64, b settings.Battery, g grid) []float64 {
	chargeMax := math.Min(b.MaxChargePowerKW*DeltaT, b.MaxSoEKWh-soe)
	dischargeMax := math.Min(b.MaxDischargePowerKW*DeltaT, soe-b.MinSoEKWh)

	actions := []float64{0}

	if chargeMax > epsilon {
		steps := int(math.Min(float64(maxActionSteps), math.Max(1, chargeMax/g.deltaSoE)))
		for i := 1; i <= steps; i++ {
			actions = append(actions, chargeMax*float64(i)/float64(steps))
		}
	}
	if dischargeMax > epsilon {
		steps := int(math.Min(float64(maxActionSteps), math.Max(1, dischargeMax/g.deltaSoE)))
		for i := 1; i <= steps; i++ {
			actions = append(actions, -dischargeMax*float64(i)/float64(steps))
		}
	}
	return actions
}

// reward computes the immediate reward r_t(a), spec §4.4: grid cost/revenue
// plus, on discharge, a virtual credit gated by the EXPORT_ARBITRAGE guard
// (export priced above cost basis) or by directly offsetting load priced
// above cost basis.
func reward(a float64, tr transition, buyPrice, sellPrice, cb, cycleCost float64) float64 {
	r := -tr.gridImport*buyPrice + tr.gridExport*sellPrice
	if a < 0 {
		exportGuard := sellPrice >= cb+cycleCost
		loadGuard := buyPrice >= cb+cycleCost
		if exportGuard || loadGuard {
			r += math.Abs(a)*cb - cycleCost*math.Abs(a)
		}
	}
	return r
}

// Solve runs the DP Optimizer and returns an Optimization Result whose
// Periods carry relative period indices [0, H) and zero timestamps; the
// caller (control loop) assigns calendar timestamps by offset.
func Solve(in Input) (*energy.OptimizationResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	h := in.horizon()
	b := in.Battery

	buyMax := in.BuyPrice[0]
	for _, v := range in.BuyPrice {
		if v > buyMax {
			buyMax = v
		}
	}
	g := buildGrid(b, buyMax)

	// V[t] holds the value function at time t, indexed [soeIdx][cbIdx].
	V := make([][][]float64, h+1)
	best := make([][][]cell, h)
	for t := 0; t <= h; t++ {
		V[t] = make([][]float64, g.nSoE)
		for i := range V[t] {
			V[t][i] = make([]float64, g.nCB)
		}
	}
	for t := 0; t < h; t++ {
		best[t] = make([][]cell, g.nSoE)
		for i := range best[t] {
			best[t][i] = make([]cell, g.nCB)
		}
	}

	// Backward value iteration. V[h] = 0 everywhere (terminal value).
	for t := h - 1; t >= 0; t-- {
		buy, sell := in.BuyPrice[t], in.SellPrice[t]
		cons, sol := in.HomeConsumption[t], in.SolarProduction[t]

		for si := 0; si < g.nSoE; si++ {
			soe := g.soeAt(si)
			actions := candidateActions(soe, b, g)

			for ci := 0; ci < g.nCB; ci++ {
				cb := g.cbAt(ci)

				bestVal := math.Inf(-1)
				var bestCell cell
				for _, a := range actions {
					tr := applyAction(soe, cb, a, cons, sol, b, buy)
					r := reward(a, tr, buy, sell, cb, b.CycleCostPerKWh)

					nsi := g.soeIndex(tr.soe)
					nci := g.cbIndex(tr.cb)
					total := r + V[t+1][nsi][nci]

					candidate := cell{value: total, action: a, nextSoEI: nsi, nextCBI: nci, hasAction: true}
					better := total > bestVal+1e-9
					tie := math.Abs(total-bestVal) <= 1e-9
					if better || (tie && preferCell(candidate, bestCell, g)) {
						bestVal = total
						bestCell = candidate
					}
				}
				V[t][si][ci] = bestVal
				best[t][si][ci] = bestCell
			}
		}
	}

	// Forward trace from the initial continuous state.
	result := &energy.OptimizationResult{Periods: make([]energy.PeriodData, h)}

	soe := in.InitialSoEKWh
	cb := in.InitialCostBasis

	var gridOnlyCost, solarOnlyCost float64

	for t := 0; t < h; t++ {
		si := g.soeIndex(soe)
		ci := g.cbIndex(cb)
		c := best[t][si][ci]

		a := c.action
		buy, sell := in.BuyPrice[t], in.SellPrice[t]
		cons, sol := in.HomeConsumption[t], in.SolarProduction[t]

		tr := applyAction(soe, cb, a, cons, sol, b, buy)

		rec := energy.Record{
			SolarProduction:   sol,
			HomeConsumption:   cons,
			BatteryCharged:    math.Max(a, 0),
			BatteryDischarged: math.Max(-a, 0),
			GridImported:      tr.gridImport,
			GridExported:      tr.gridExport,
			BatterySoEStart:   soe,
			BatterySoEEnd:     tr.soe,
		}
		rec.Derive()

		econ := energy.Economic{
			BuyPrice:  buy,
			SellPrice: sell,
		}
		econ.HourlyCost = rec.GridImported*buy - rec.GridExported*sell

		result.Periods[t] = energy.PeriodData{
			Period:     t,
			Energy:     rec,
			Economic:   econ,
			Decision:   energy.Decision{BatteryAction: a},
			DataSource: energy.SourcePredicted,
		}

		gridOnlyCost += cons * buy
		solarNetLoad := cons - sol
		if solarNetLoad > 0 {
			solarOnlyCost += solarNetLoad * buy
		} else {
			solarOnlyCost += solarNetLoad * sell
		}

		soe = tr.soe
		cb = tr.cb
	}

	var batterySolarCost float64
	for _, p := range result.Periods {
		batterySolarCost += p.Economic.HourlyCost
	}
	result.Summarize(gridOnlyCost, solarOnlyCost, batterySolarCost)

	return result, nil
}

// preferCell implements the tie-break order from spec §4.4 between two
// equal-value actions: (1) higher terminal SoE, (2) lower cycle count
// (smaller |a| preferred), (3) prefer IDLE.
func preferCell(candidate, incumbent cell, g grid) bool {
	if !incumbent.hasAction {
		return true
	}
	candSoE := g.soeAt(candidate.nextSoEI)
	incSoE := g.soeAt(incumbent.nextSoEI)
	if candSoE != incSoE {
		return candSoE > incSoE
	}
	if math.Abs(candidate.action) != math.Abs(incumbent.action) {
		return math.Abs(candidate.action) < math.Abs(incumbent.action)
	}
	return candidate.action == 0 && incumbent.action != 0
}
