// Package main provides the BESS control daemon's entry point and CLI
// interface.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	bessentsoe "github.com/embervolt/bess/adapters/entsoe"
	bessforecast "github.com/embervolt/bess/adapters/forecast"
	bessmeteo "github.com/embervolt/bess/adapters/meteo"
	bessSigenergy "github.com/embervolt/bess/adapters/sigenergy"
	"github.com/embervolt/bess/control"
	"github.com/embervolt/bess/meteo"
	"github.com/embervolt/bess/sigenergy"
	"github.com/embervolt/bess/timegrid"
)

func main() {
	var (
		configFile = flag.String("config", "config.json", "Configuration file path")
		info       = flag.Bool("info", false, "Show Plant Information")
		help       = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	cfg, err := LoadConfig(*configFile)
	if err != nil {
		fmt.Println("Error loading configuration:", err)
		os.Exit(1)
	}

	if *info {
		if err := sigenergy.ShowPlantInfo(cfg.PlantModbusAddress); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		return
	}

	logger := log.New(os.Stdout, "[BESSD] ", log.LstdFlags)

	loop, grid, poller, err := build(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to build control loop: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	now := time.Now()
	if err := loop.Start(ctx, now); err != nil {
		logger.Fatalf("failed to start control loop: %v", err)
	}
	logger.Printf("control loop started in state %s", loop.State())

	go poller.run(ctx)
	go runTickLoop(ctx, loop, grid, cfg.TickInterval, logger)

	logger.Printf("bessd running. Press Ctrl+C to stop...")
	<-sigChan
	logger.Printf("shutdown signal received, stopping...")
	cancel()
}

// build wires every adapter and the control loop together per cfg.
func build(cfg *Config, logger *log.Logger) (*control.Loop, *timegrid.Grid, *sensorPoller, error) {
	settingsValues, err := cfg.ToSettings()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("assemble settings: %w", err)
	}

	grid, err := timegrid.New(cfg.Timezone)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build time grid: %w", err)
	}

	plantClient, err := sigenergy.NewTCPClient(cfg.PlantModbusAddress, sigenergy.PlantAddress)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to plant Modbus: %w", err)
	}

	inverter := bessSigenergy.New(plantClient, settingsValues.Battery)
	sensors := bessSigenergy.NewSensorAdapter(plantClient, grid, cfg.SensorPollInterval)
	prices := bessentsoe.NewPriceAdapter(cfg.ENTSOESecurityToken, cfg.ENTSOEUrlFormat, grid.Location(), grid)

	weatherClient := meteo.NewClient(cfg.WeatherUserAgent)
	solarForecast := bessmeteo.NewSolarForecastAdapter(weatherClient, cfg.Latitude, cfg.Longitude, cfg.MaxSolarPowerKW, cfg.TickInterval.Hours(), grid)
	loadForecast := bessforecast.NewLoadForecastAdapter(sensors, grid, cfg.LoadForecastDays)

	loop := control.New(settingsValues, grid, inverter, sensors, prices, solarForecast, loadForecast, logger)

	if cfg.PostgresConnString != "" {
		db, err := sql.Open("postgres", cfg.PostgresConnString)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres connection: %w", err)
		}
		loop.SetPersistence(db)
	}

	return loop, grid, &sensorPoller{sensors: sensors, interval: cfg.SensorPollInterval, logger: logger}, nil
}

// sensorPoller drives SensorAdapter.Poll on its own cadence, independent
// of the control loop's tick, matching how scheduler/data.go separates
// runDataPoll from the periodic integration step.
type sensorPoller struct {
	sensors  *bessSigenergy.SensorAdapter
	interval time.Duration
	logger   *log.Logger
}

func (p *sensorPoller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.sensors.Poll(); err != nil {
				p.logger.Printf("sensor poll failed: %v", err)
			}
		}
	}
}

// runTickLoop calls Loop.Tick once per period, aligned to period
// boundaries rather than to the time runTickLoop happened to start.
func runTickLoop(ctx context.Context, loop *control.Loop, grid *timegrid.Grid, interval time.Duration, logger *log.Logger) {
	for {
		now := time.Now()
		next := now.Truncate(interval).Add(interval)
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case tickTime := <-timer.C:
			period, err := grid.TimestampToPeriod(tickTime)
			if err != nil {
				logger.Printf("failed to resolve period for tick: %v", err)
				continue
			}
			if err := loop.Tick(ctx, period, false, tickTime); err != nil {
				logger.Printf("tick %d failed: %v", period, err)
			}
		}
	}
}

func showHelp() {
	fmt.Println("bessd - residential battery energy storage system control daemon")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  bessd [flags]")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
