package tou

import "testing"

func TestDiffEmptyNewDisablesAllCurrent(t *testing.T) {
	current := []Segment{
		{SegmentID: 1, StartHour: 0, EndHour: 8, BattMode: LoadFirst, Enabled: true},
		{SegmentID: 2, StartHour: 8, EndHour: 16, BattMode: BatteryFirst, Enabled: true},
	}
	res := Diff(current, nil)
	if len(res.ToUpdate) != 0 {
		t.Fatalf("expected no updates, got %d", len(res.ToUpdate))
	}
	if len(res.ToDisable) != 2 {
		t.Fatalf("expected both current segments disabled, got %d", len(res.ToDisable))
	}
}

func TestDiffIdenticalScheduleIsNoOp(t *testing.T) {
	current := []Segment{
		{SegmentID: 1, StartHour: 0, EndHour: 8, BattMode: LoadFirst, Enabled: true},
		{SegmentID: 2, StartHour: 8, EndHour: 24, BattMode: BatteryFirst, Enabled: true},
	}
	newSegs := []Segment{
		{StartHour: 0, EndHour: 8, BattMode: LoadFirst, Enabled: true},
		{StartHour: 8, EndHour: 24, BattMode: BatteryFirst, Enabled: true},
	}
	res := Diff(current, newSegs)
	if len(res.ToDisable) != 0 || len(res.ToUpdate) != 0 {
		t.Fatalf("expected no-op diff, got disable=%d update=%d", len(res.ToDisable), len(res.ToUpdate))
	}
}

func TestDiffOverlappingReplacementDisablesStaleFirst(t *testing.T) {
	current := []Segment{
		{SegmentID: 1, StartHour: 0, EndHour: 24, BattMode: LoadFirst, Enabled: true},
	}
	newSegs := []Segment{
		{StartHour: 0, EndHour: 12, BattMode: BatteryFirst, Enabled: true},
		{StartHour: 12, EndHour: 24, BattMode: GridFirst, Enabled: true},
	}
	res := Diff(current, newSegs)
	if len(res.ToDisable) != 1 || res.ToDisable[0].SegmentID != 1 {
		t.Fatalf("expected segment 1 disabled, got %+v", res.ToDisable)
	}
	if len(res.ToUpdate) != 2 {
		t.Fatalf("expected 2 segments written, got %d", len(res.ToUpdate))
	}
	disabledIDs := map[int]bool{res.ToDisable[0].SegmentID: true}
	for _, u := range res.ToUpdate {
		for _, c := range current {
			if !c.Enabled || disabledIDs[c.SegmentID] {
				continue
			}
			if c.overlapsHourRange(u.StartHour, u.EndHour) {
				t.Fatalf("segment %d still enabled and overlapping new segment [%d,%d)", c.SegmentID, u.StartHour, u.EndHour)
			}
		}
	}
}

func TestDiffReusesVacatedSlot(t *testing.T) {
	current := []Segment{
		{SegmentID: 3, StartHour: 0, EndHour: 24, BattMode: LoadFirst, Enabled: true},
	}
	newSegs := []Segment{
		{StartHour: 0, EndHour: 24, BattMode: BatteryFirst, Enabled: true},
	}
	res := Diff(current, newSegs)
	if len(res.ToUpdate) != 1 {
		t.Fatalf("expected 1 update, got %d", len(res.ToUpdate))
	}
	if res.ToUpdate[0].SegmentID != 3 {
		t.Fatalf("expected vacated slot 3 reused, got %d", res.ToUpdate[0].SegmentID)
	}
}
