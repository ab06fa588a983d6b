package tou

import "sort"

// DiffResult is the minimal differential update to move an inverter's
// applied segment table from current to newSegs (spec §4.8).
type DiffResult struct {
	ToDisable []Segment // currently-applied segments to disable, in ascending SegmentID order
	ToUpdate  []Segment // segments to write, each carrying the inverter slot it should occupy
}

// Diff computes the differential update between the inverter's currently
// applied segment table (current, with real SegmentIDs and Enabled state)
// and a freshly compiled day (newSegs, SegmentID ignored on input).
//
// Full-clear rule: an empty newSegs disables every enabled current segment.
// Differential rule: a new segment identical (ignoring SegmentID) to an
// already-enabled current segment is a no-op — neither disabled nor
// rewritten. Overlap-resolution rule: any current segment whose hour range
// is not an exact match is disabled before its slot (or a free slot) is
// reused, so no stale segment is ever left overlapping a written one.
func Diff(current, newSegs []Segment) DiffResult {
	matchedCurrentIDs := make(map[int]bool)
	matchedNew := make([]bool, len(newSegs))
	for ci, c := range current {
		if !c.Enabled {
			continue
		}
		for ni, n := range newSegs {
			if matchedNew[ni] {
				continue
			}
			if sameSpec(c, n) {
				matchedCurrentIDs[current[ci].SegmentID] = true
				matchedNew[ni] = true
				break
			}
		}
	}

	var stale []Segment
	keptIDs := make(map[int]bool)
	for _, c := range current {
		if !c.Enabled {
			continue
		}
		if matchedCurrentIDs[c.SegmentID] {
			keptIDs[c.SegmentID] = true
			continue
		}
		stale = append(stale, c)
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].SegmentID < stale[j].SegmentID })

	var needUpdate []Segment
	for ni, n := range newSegs {
		if !matchedNew[ni] {
			needUpdate = append(needUpdate, n)
		}
	}
	sort.Slice(needUpdate, func(i, j int) bool { return needUpdate[i].StartHour < needUpdate[j].StartHour })

	freeIDs := freeSegmentIDs(stale, keptIDs)
	toUpdate := make([]Segment, 0, len(needUpdate))
	for i, n := range needUpdate {
		if i >= len(freeIDs) {
			break // more segments needed than slots available; caller's compiler already enforces MaxSegments
		}
		n.SegmentID = freeIDs[i]
		n.Enabled = true
		toUpdate = append(toUpdate, n)
	}

	toDisable := make([]Segment, len(stale))
	copy(toDisable, stale)
	for i := range toDisable {
		toDisable[i].Enabled = false
	}

	return DiffResult{ToDisable: toDisable, ToUpdate: toUpdate}
}

// freeSegmentIDs returns inverter slot IDs available for reuse: first the
// IDs vacated by stale (to-be-disabled) segments, then any unused ID in
// [1, MaxSegments], both in ascending order.
func freeSegmentIDs(stale []Segment, keptIDs map[int]bool) []int {
	var ids []int
	seen := make(map[int]bool)
	for _, s := range stale {
		if !seen[s.SegmentID] {
			ids = append(ids, s.SegmentID)
			seen[s.SegmentID] = true
		}
	}
	for id := 1; id <= MaxSegments; id++ {
		if !keptIDs[id] && !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	return ids
}
