package settings

import "testing"

func validBattery() Battery {
	return Battery{
		CapacityKWh:         30,
		MinSoEKWh:           3,
		MaxSoEKWh:           30,
		MaxChargePowerKW:    15,
		MaxDischargePowerKW: 15,
		EfficiencyCharge:    0.9,
		EfficiencyDischarge: 0.9,
		CycleCostPerKWh:     0.40,
	}
}

func TestBatteryValidate(t *testing.T) {
	if err := validBattery().Validate(); err != nil {
		t.Fatalf("expected valid battery, got %v", err)
	}

	bad := validBattery()
	bad.MinSoEKWh = 31
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for min SoE above max")
	}
}

func TestPriceDerivation(t *testing.T) {
	p := Price{Area: "SE3", MarkupRate: 0.05, VATMultiplier: 1.25, AdditionalCosts: 0.10, TaxReduction: 0.60}
	if got, want := p.BuyPrice(1.0), (1.0+0.05)*1.25+0.10; got != want {
		t.Fatalf("BuyPrice = %v, want %v", got, want)
	}
	if got, want := p.SellPrice(1.0), 1.0+0.60; got != want {
		t.Fatalf("SellPrice = %v, want %v", got, want)
	}
}

func TestPriceValidateRequiresArea(t *testing.T) {
	p := Price{VATMultiplier: 1.25}
	if err := p.Validate(); err == nil {
		t.Fatalf("expected error for missing area")
	}
}
