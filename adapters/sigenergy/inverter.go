// Package sigenergy adapts the Sigenergy Modbus plant controller
// (sigenergy.SigenModbusClient) into a ports.InverterController.
//
// The Sigenergy plant has no native TOU segment-table register — unlike
// the Growatt-style inverters the original schedule diffing was designed
// against, it is driven by an instantaneous EMS mode plus charge/discharge
// power limits (sigenergy.SigenModbusClient.SetRemoteEMSMode,
// SetESSMaxChargingLimit, SetESSMaxDischargingLimit). This adapter keeps
// the compiled segment table in memory and, each period, resolves the
// segment covering the current hour into the nearest EMS mode and power
// limits the hardware actually accepts.
package sigenergy

import (
	"context"
	"fmt"
	"sync"

	"github.com/embervolt/bess/settings"
	"github.com/embervolt/bess/sigenergy"
	"github.com/embervolt/bess/tou"
)

// Remote EMS control modes (sigenergy.SigenModbusClient.SetRemoteEMSMode).
const (
	emsModeMaxSelfConsumption  uint16 = 2
	emsModeChargeGridFirst     uint16 = 3
	emsModeDischargeESSFirst   uint16 = 6
)

// Adapter implements ports.InverterController against a Sigenergy plant.
type Adapter struct {
	client  *sigenergy.SigenModbusClient
	battery settings.Battery

	mu       sync.Mutex
	segments []tou.Segment
}

// New wraps an already-connected Sigenergy Modbus client.
func New(client *sigenergy.SigenModbusClient, battery settings.Battery) *Adapter {
	return &Adapter{client: client, battery: battery}
}

// CurrentSoEKWh reads the plant's battery state of energy by combining
// ESSSOC (percent) with ESSRatedEnergyCapacity (kWh).
func (a *Adapter) CurrentSoEKWh(ctx context.Context) (float64, error) {
	info, err := a.client.ReadPlantRunningInfo()
	if err != nil {
		return 0, fmt.Errorf("sigenergy: read plant running info: %w", err)
	}
	return info.ESSRatedEnergyCapacity * info.ESSSOC / 100, nil
}

// CurrentSegments returns the in-memory segment table last written by
// ApplyDiff (the hardware itself has no table to read back).
func (a *Adapter) CurrentSegments(ctx context.Context) ([]tou.Segment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]tou.Segment, len(a.segments))
	copy(out, a.segments)
	return out, nil
}

// ApplyDiff updates the in-memory segment table: disabling stale entries,
// then writing replacements, per spec §4.8's ordering rule. No hardware
// register write happens here — the hardware is driven per-period by
// ApplyKnobs instead.
func (a *Adapter) ApplyDiff(ctx context.Context, diff tou.DiffResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	byID := make(map[int]tou.Segment, len(a.segments))
	for _, s := range a.segments {
		byID[s.SegmentID] = s
	}
	for _, d := range diff.ToDisable {
		d.Enabled = false
		byID[d.SegmentID] = d
	}
	for _, u := range diff.ToUpdate {
		byID[u.SegmentID] = u
	}

	segments := make([]tou.Segment, 0, len(byID))
	for _, s := range byID {
		segments = append(segments, s)
	}
	a.segments = segments
	return nil
}

// ApplyKnobs resolves the segment covering hour into an EMS mode, then
// writes that mode plus the knob-scaled charge/discharge power limits.
func (a *Adapter) ApplyKnobs(ctx context.Context, hour int, knobs tou.PerPeriodKnobs) error {
	a.mu.Lock()
	mode := a.resolveMode(hour, knobs)
	battery := a.battery
	a.mu.Unlock()

	if err := a.client.EnableRemoteEMS(true); err != nil {
		return fmt.Errorf("sigenergy: enable remote EMS: %w", err)
	}
	if err := a.client.SetRemoteEMSMode(mode); err != nil {
		return fmt.Errorf("sigenergy: set EMS mode: %w", err)
	}

	chargeLimit := battery.MaxChargePowerKW * float64(knobs.ChargePowerRate) / 100
	if err := a.client.SetESSMaxChargingLimit(chargeLimit); err != nil {
		return fmt.Errorf("sigenergy: set charge limit: %w", err)
	}

	dischargeLimit := battery.MaxDischargePowerKW * float64(knobs.DischargePowerRate) / 100
	if err := a.client.SetESSMaxDischargingLimit(dischargeLimit); err != nil {
		return fmt.Errorf("sigenergy: set discharge limit: %w", err)
	}

	return nil
}

// resolveMode picks the EMS mode for hour's active segment, falling back
// to the knob-implied mode when no segment covers it (e.g. a blanked gap).
// Caller must hold a.mu.
func (a *Adapter) resolveMode(hour int, knobs tou.PerPeriodKnobs) uint16 {
	for _, s := range a.segments {
		if !s.Enabled || hour < s.StartHour || hour >= s.EndHour {
			continue
		}
		switch s.BattMode {
		case tou.BatteryFirst:
			return emsModeChargeGridFirst
		case tou.GridFirst:
			return emsModeDischargeESSFirst
		default:
			return emsModeMaxSelfConsumption
		}
	}

	if knobs.GridChargeEnabled {
		return emsModeChargeGridFirst
	}
	return emsModeMaxSelfConsumption
}
