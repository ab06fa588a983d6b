package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/embervolt/bess/settings"
)

// Config is the JSON-loaded runtime configuration: battery/home/price
// settings plus everything needed to wire the adapters and the control
// loop's own tick cadence. Shaped directly on scheduler/config.go's flat,
// json-tagged Config with a DefaultConfig/LoadConfig/LoadConfigFromReader
// trio and an explicit Validate.
type Config struct {
	// Timing
	TickInterval     time.Duration `json:"tick_interval"`      // control loop period length, e.g. 15m
	SensorPollInterval time.Duration `json:"sensor_poll_interval"` // Poll cadence feeding the Sigenergy sensor adapter

	// Battery
	BatteryCapacityKWh         float64 `json:"battery_capacity_kwh"`
	BatteryMinSoEKWh           float64 `json:"battery_min_soe_kwh"`
	BatteryMaxSoEKWh           float64 `json:"battery_max_soe_kwh"`
	BatteryMaxChargePowerKW    float64 `json:"battery_max_charge_power_kw"`
	BatteryMaxDischargePowerKW float64 `json:"battery_max_discharge_power_kw"`
	BatteryEfficiencyCharge    float64 `json:"battery_efficiency_charge"`
	BatteryEfficiencyDischarge float64 `json:"battery_efficiency_discharge"`
	BatteryCycleCostPerKWh     float64 `json:"battery_cycle_cost_per_kwh"`

	// Home / location
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`

	// Price
	PriceArea           string  `json:"price_area"`
	PriceMarkupRate      float64 `json:"price_markup_rate"`
	PriceVATMultiplier   float64 `json:"price_vat_multiplier"`
	PriceAdditionalCosts float64 `json:"price_additional_costs"`
	PriceTaxReduction    float64 `json:"price_tax_reduction"`

	// ENTSO-E price feed
	ENTSOESecurityToken string `json:"entsoe_security_token"`
	ENTSOEUrlFormat     string `json:"entsoe_url_format"`

	// MET Norway weather feed
	WeatherUserAgent  string  `json:"weather_user_agent"`
	MaxSolarPowerKW   float64 `json:"max_solar_power_kw"`
	LoadForecastDays  int     `json:"load_forecast_lookback_days"`

	// Sigenergy plant Modbus
	PlantModbusAddress string `json:"plant_modbus_address"`

	// Optional persistence
	PostgresConnString string `json:"postgres_conn_string"`

	// Logging
	LogLevel string `json:"log_level"` // debug, info, warn, error
}

// DefaultConfig returns a configuration with sane defaults, mirroring
// scheduler/config.go's DefaultConfig.
func DefaultConfig() *Config {
	return &Config{
		TickInterval:       15 * time.Minute,
		SensorPollInterval: 10 * time.Second,

		BatteryCapacityKWh:         10.0,
		BatteryMinSoEKWh:           1.0,
		BatteryMaxSoEKWh:           9.5,
		BatteryMaxChargePowerKW:    5.0,
		BatteryMaxDischargePowerKW: 5.0,
		BatteryEfficiencyCharge:    0.95,
		BatteryEfficiencyDischarge: 0.95,
		BatteryCycleCostPerKWh:     0.05,

		Latitude:  56.9496,
		Longitude: 24.1052,
		Timezone:  "Europe/Riga",

		PriceArea:            "LV",
		PriceMarkupRate:      0,
		PriceVATMultiplier:   1.21,
		PriceAdditionalCosts: 0,
		PriceTaxReduction:    0,

		ENTSOEUrlFormat: "https://web-api.tp.entsoe.eu/api?documentType=A44&out_Domain=10YLV-1001A00074&in_Domain=10YLV-1001A00074&periodStart=%s&periodEnd=%s&securityToken=%s",

		WeatherUserAgent: "bessd/1.0 (ops@example.com)",
		MaxSolarPowerKW:  6.0,
		LoadForecastDays: 7,

		LogLevel: "info",
	}
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader, layering the
// decoded JSON over DefaultConfig so unset fields keep their defaults.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	config := DefaultConfig()

	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config JSON: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks the configuration is structurally usable. Physical
// coherence of the battery/home/price values themselves is checked by
// settings.Settings.Validate, called once ToSettings has assembled them.
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be greater than 0, got: %s", c.TickInterval)
	}
	if c.SensorPollInterval <= 0 {
		return fmt.Errorf("sensor_poll_interval must be greater than 0, got: %s", c.SensorPollInterval)
	}
	if c.Timezone == "" {
		return fmt.Errorf("timezone cannot be empty")
	}
	if c.ENTSOESecurityToken == "" {
		return fmt.Errorf("entsoe_security_token cannot be empty")
	}
	if c.ENTSOEUrlFormat == "" {
		return fmt.Errorf("entsoe_url_format cannot be empty")
	}
	if c.PlantModbusAddress == "" {
		return fmt.Errorf("plant_modbus_address cannot be empty")
	}
	if c.WeatherUserAgent == "" {
		return fmt.Errorf("weather_user_agent cannot be empty")
	}
	if c.LoadForecastDays < 1 {
		return fmt.Errorf("load_forecast_lookback_days must be at least 1, got: %d", c.LoadForecastDays)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level: %s, must be one of: debug, info, warn, error", c.LogLevel)
	}
	return nil
}

// ToSettings assembles the validated settings.Settings the control loop
// operates on.
func (c *Config) ToSettings() (settings.Settings, error) {
	s := settings.Settings{
		Battery: settings.Battery{
			CapacityKWh:         c.BatteryCapacityKWh,
			MinSoEKWh:           c.BatteryMinSoEKWh,
			MaxSoEKWh:           c.BatteryMaxSoEKWh,
			MaxChargePowerKW:    c.BatteryMaxChargePowerKW,
			MaxDischargePowerKW: c.BatteryMaxDischargePowerKW,
			EfficiencyCharge:    c.BatteryEfficiencyCharge,
			EfficiencyDischarge: c.BatteryEfficiencyDischarge,
			CycleCostPerKWh:     c.BatteryCycleCostPerKWh,
		},
		Home: settings.Home{
			Latitude:  c.Latitude,
			Longitude: c.Longitude,
			Timezone:  c.Timezone,
		},
		Price: settings.Price{
			Area:            c.PriceArea,
			MarkupRate:      c.PriceMarkupRate,
			VATMultiplier:   c.PriceVATMultiplier,
			AdditionalCosts: c.PriceAdditionalCosts,
			TaxReduction:    c.PriceTaxReduction,
		},
	}
	if err := s.Validate(); err != nil {
		return settings.Settings{}, err
	}
	return s, nil
}
