// Package settings holds the validated configuration value types the core
// operates on: battery physical limits, home/price parameters. Loading
// these from a file or environment is an external collaborator's job; this
// package only defines the types and their invariants.
package settings

import (
	"fmt"

	bess "github.com/embervolt/bess"
)

// Battery describes the physical battery the optimizer plans against.
type Battery struct {
	CapacityKWh         float64 // total_capacity
	MinSoEKWh           float64 // soe_min
	MaxSoEKWh           float64 // soe_max
	MaxChargePowerKW    float64
	MaxDischargePowerKW float64
	EfficiencyCharge    float64 // 0 < eff <= 1
	EfficiencyDischarge float64 // 0 < eff <= 1
	CycleCostPerKWh     float64 // currency/kWh, >= 0
}

// Validate checks the battery settings are physically coherent.
func (b Battery) Validate() error {
	switch {
	case b.CapacityKWh <= 0:
		return bess.NewError(bess.KindConfigurationError, "battery capacity must be positive")
	case b.MinSoEKWh < 0:
		return bess.NewError(bess.KindConfigurationError, "battery min SoE must be non-negative")
	case b.MaxSoEKWh > b.CapacityKWh:
		return bess.NewError(bess.KindConfigurationError, "battery max SoE cannot exceed capacity")
	case b.MinSoEKWh >= b.MaxSoEKWh:
		return bess.NewError(bess.KindConfigurationError, "battery min SoE must be less than max SoE")
	case b.MaxChargePowerKW <= 0:
		return bess.NewError(bess.KindConfigurationError, "battery max charge power must be positive")
	case b.MaxDischargePowerKW <= 0:
		return bess.NewError(bess.KindConfigurationError, "battery max discharge power must be positive")
	case b.EfficiencyCharge <= 0 || b.EfficiencyCharge > 1:
		return bess.NewError(bess.KindConfigurationError, "battery charge efficiency must be in (0, 1]")
	case b.EfficiencyDischarge <= 0 || b.EfficiencyDischarge > 1:
		return bess.NewError(bess.KindConfigurationError, "battery discharge efficiency must be in (0, 1]")
	case b.CycleCostPerKWh < 0:
		return bess.NewError(bess.KindConfigurationError, "battery cycle cost must be non-negative")
	}
	return nil
}

// Home describes the property's consumption-side context. Currently only
// carries metadata used for forecast sanity checks; the forecast itself
// comes from the Sensor Source adapter.
type Home struct {
	Latitude  float64
	Longitude float64
	Timezone  string // IANA zone name, e.g. "Europe/Stockholm"
}

// Validate checks the home settings are usable.
func (h Home) Validate() error {
	if h.Latitude < -90 || h.Latitude > 90 {
		return bess.NewError(bess.KindConfigurationError, fmt.Sprintf("latitude out of range: %v", h.Latitude))
	}
	if h.Longitude < -180 || h.Longitude > 180 {
		return bess.NewError(bess.KindConfigurationError, fmt.Sprintf("longitude out of range: %v", h.Longitude))
	}
	if h.Timezone == "" {
		return bess.NewError(bess.KindConfigurationError, "timezone must be set")
	}
	return nil
}

// Price describes how raw spot prices are converted to buy/sell prices,
// per spec §4.2:
//
//	buy_price  = (spot + MarkupRate) * VATMultiplier + AdditionalCosts
//	sell_price = spot + TaxReduction
type Price struct {
	Area            string
	MarkupRate      float64
	VATMultiplier   float64 // e.g. 1.25 for 25% VAT
	AdditionalCosts float64
	TaxReduction    float64
	UseActualPrice  bool
}

// Validate checks the price settings are coherent.
func (p Price) Validate() error {
	if p.Area == "" {
		return bess.NewError(bess.KindConfigurationError, "price area must be set")
	}
	if p.VATMultiplier <= 0 {
		return bess.NewError(bess.KindConfigurationError, "VAT multiplier must be positive")
	}
	return nil
}

// BuyPrice derives the per-kWh buy price from a raw spot price.
func (p Price) BuyPrice(spot float64) float64 {
	return (spot+p.MarkupRate)*p.VATMultiplier + p.AdditionalCosts
}

// SellPrice derives the per-kWh sell price from a raw spot price.
func (p Price) SellPrice(spot float64) float64 {
	return spot + p.TaxReduction
}

// Settings is the complete validated configuration handed to the control
// loop at startup and updatable thereafter.
type Settings struct {
	Battery Battery
	Home    Home
	Price   Price
}

// Validate validates every section.
func (s Settings) Validate() error {
	if err := s.Battery.Validate(); err != nil {
		return err
	}
	if err := s.Home.Validate(); err != nil {
		return err
	}
	if err := s.Price.Validate(); err != nil {
		return err
	}
	return nil
}
