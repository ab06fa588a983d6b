package tou

import (
	"math"

	"github.com/embervolt/bess/energy"
)

const hoursPerDay = 24

// dominantMode applies the compilation rule of spec §4.7 to one hour's
// quarterly intents: GRID_CHARGING present -> battery-first; else
// EXPORT_ARBITRAGE present -> grid-first; else LOAD_SUPPORT present ->
// load-first; else an hour of only IDLE/SOLAR_STORAGE is load-first as well.
// Only an empty hour has no mode (has is false).
func dominantMode(hourIntents []energy.Intent) (mode BattMode, has bool) {
	sawGridCharging, sawExport, sawLoadSupport := false, false, false
	for _, in := range hourIntents {
		switch in {
		case energy.IntentGridCharging:
			sawGridCharging = true
		case energy.IntentExportArbitrage:
			sawExport = true
		case energy.IntentLoadSupport:
			sawLoadSupport = true
		}
	}
	switch {
	case sawGridCharging:
		return BatteryFirst, true
	case sawExport:
		return GridFirst, true
	case sawLoadSupport:
		return LoadFirst, true
	default:
		return LoadFirst, len(hourIntents) > 0
	}
}

// bucketByHour groups a day's quarterly intents into hour buckets [0..23].
// periodsInDay may be 92, 96, or 100 (spec §4.1); the last civil hour on a
// fall-back day absorbs the extra repeated hour's periods, and a
// spring-forward day simply leaves its last hour's bucket empty (the
// "one hour missing" from spec §8 Scenario E).
func bucketByHour(intents []energy.Intent) [hoursPerDay][]energy.Intent {
	var buckets [hoursPerDay][]energy.Intent
	for p, in := range intents {
		h := p / 4
		if h >= hoursPerDay {
			h = hoursPerDay - 1
		}
		buckets[h] = append(buckets[h], in)
	}
	return buckets
}

// CompileDay converts one day's quarterly strategic intents into an
// ordered list of at most MaxSegments hour-aligned TOU segments (spec
// §4.7). intents must be indexed by period within the day (length 92, 96,
// or 100).
func CompileDay(intents []energy.Intent) []Segment {
	buckets := bucketByHour(intents)

	type hourMode struct {
		hour int
		mode BattMode
		has  bool
	}
	hours := make([]hourMode, hoursPerDay)
	for h := 0; h < hoursPerDay; h++ {
		mode, has := dominantMode(buckets[h])
		hours[h] = hourMode{hour: h, mode: mode, has: has}
	}

	// Consolidate consecutive hours with an identical mode into one segment.
	var segs []Segment
	i := 0
	for i < hoursPerDay {
		if !hours[i].has {
			i++
			continue
		}
		start := i
		mode := hours[i].mode
		j := i + 1
		for j < hoursPerDay && hours[j].has && hours[j].mode == mode {
			j++
		}
		segs = append(segs, Segment{StartHour: start, EndHour: j, BattMode: mode, Enabled: true})
		i = j
	}

	// Greedily merge adjacent segments until within the segment budget.
	for len(segs) > MaxSegments {
		bestIdx := -1
		bestCost := math.Inf(1)
		for k := 0; k < len(segs)-1; k++ {
			cost := mergeCost(segs[k], segs[k+1], buckets)
			if cost < bestCost {
				bestCost = cost
				bestIdx = k
			}
		}
		segs = mergeAt(segs, bestIdx, buckets)
	}

	for idx := range segs {
		segs[idx].SegmentID = idx + 1
	}
	return segs
}

// mergeCost is the weighted intent-mismatch count within the merged hour
// range, per spec §4.7: the number of quarterly periods whose original
// intent disagrees with the mode the merge would settle on.
func mergeCost(a, b Segment, buckets [hoursPerDay][]energy.Intent) float64 {
	winner := mergedMode(a, b, buckets)
	mismatches := 0
	for h := a.StartHour; h < b.EndHour; h++ {
		for _, in := range buckets[h] {
			if !intentAgrees(in, winner) {
				mismatches++
			}
		}
	}
	return float64(mismatches)
}

// mergedMode picks the winning mode for a merge: whichever of the two
// segments' modes covers more periods whose intent matches it; ties favor
// the earlier segment's mode.
func mergedMode(a, b Segment, buckets [hoursPerDay][]energy.Intent) BattMode {
	countFor := func(mode BattMode) int {
		n := 0
		for h := a.StartHour; h < b.EndHour; h++ {
			for _, in := range buckets[h] {
				if intentAgrees(in, mode) {
					n++
				}
			}
		}
		return n
	}
	if countFor(b.BattMode) > countFor(a.BattMode) {
		return b.BattMode
	}
	return a.BattMode
}

func intentAgrees(in energy.Intent, mode BattMode) bool {
	switch mode {
	case BatteryFirst:
		return in == energy.IntentGridCharging
	case GridFirst:
		return in == energy.IntentExportArbitrage
	case LoadFirst:
		return in == energy.IntentLoadSupport || in == energy.IntentIdle || in == energy.IntentSolarStorage
	}
	return false
}

func mergeAt(segs []Segment, idx int, buckets [hoursPerDay][]energy.Intent) []Segment {
	merged := Segment{
		StartHour: segs[idx].StartHour,
		EndHour:   segs[idx+1].EndHour,
		BattMode:  mergedMode(segs[idx], segs[idx+1], buckets),
		Enabled:   true,
	}
	out := make([]Segment, 0, len(segs)-1)
	out = append(out, segs[:idx]...)
	out = append(out, merged)
	out = append(out, segs[idx+2:]...)
	return out
}

// ComputeKnobs derives the per-period control knobs (spec §4.7), separate
// from the TOU table and applied every period. batteryActionKWh is the
// signed period action (>0 charge); maxDischargePowerKW is the battery's
// rated discharge power.
func ComputeKnobs(in energy.Intent, batteryActionKWh, deltaT, maxDischargePowerKW float64) PerPeriodKnobs {
	k := PerPeriodKnobs{GridChargeEnabled: in == energy.IntentGridCharging}

	switch in {
	case energy.IntentLoadSupport:
		k.DischargePowerRate = 100
	case energy.IntentExportArbitrage:
		actionKW := math.Abs(batteryActionKWh) / deltaT
		rate := int(math.Round(100 * actionKW / maxDischargePowerKW))
		if rate > 100 {
			rate = 100
		}
		k.DischargePowerRate = rate
	}

	switch in {
	case energy.IntentGridCharging, energy.IntentSolarStorage, energy.IntentIdle:
		k.ChargePowerRate = 100
	}

	return k
}
