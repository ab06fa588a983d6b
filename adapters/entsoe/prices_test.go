package entsoe

import (
	"testing"
	"time"

	"github.com/embervolt/bess/entsoe"
	"github.com/embervolt/bess/timegrid"
)

// fixtureDoc builds a one-day, hourly-resolution publication document
// starting at dayStart, with price position i+1 set to float64(i).
func fixtureDoc(dayStart time.Time) *entsoe.PublicationMarketDocument {
	points := make([]entsoe.Point, 24)
	for i := 0; i < 24; i++ {
		points[i] = entsoe.Point{Position: i + 1, PriceAmount: float64(i)}
	}
	return &entsoe.PublicationMarketDocument{
		TimeSeries: []entsoe.TimeSeries{
			{
				Period: entsoe.Period{
					TimeInterval: entsoe.TimeInterval{
						Start: dayStart,
						End:   dayStart.Add(24 * time.Hour),
					},
					Resolution: time.Hour,
					Points:     points,
				},
			},
		},
	}
}

func TestExpandPricesOnePerPeriod(t *testing.T) {
	grid, err := timegrid.New("UTC")
	if err != nil {
		t.Fatalf("timegrid.New: %v", err)
	}
	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	doc := fixtureDoc(day)

	prices, err := expandPrices(grid, doc, day)
	if err != nil {
		t.Fatalf("expandPrices: %v", err)
	}
	if len(prices) != 96 {
		t.Fatalf("expected 96 periods, got %d", len(prices))
	}

	// Period 0 is 00:00-00:15, falling in hour position 1 -> price 0.
	if prices[0] != 0 {
		t.Errorf("period 0: price = %v, want 0", prices[0])
	}
	// Period 4 is 01:00-01:15, falling in hour position 2 -> price 1.
	if prices[4] != 1 {
		t.Errorf("period 4: price = %v, want 1", prices[4])
	}
	// Period 92 is 23:00-23:15, falling in hour position 24 -> price 23.
	if prices[92] != 23 {
		t.Errorf("period 92: price = %v, want 23", prices[92])
	}
}

func TestExpandPricesMissingCoverageErrors(t *testing.T) {
	grid, err := timegrid.New("UTC")
	if err != nil {
		t.Fatalf("timegrid.New: %v", err)
	}
	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	// Document only covers the first 12 hours of the day.
	doc := fixtureDoc(day)
	doc.TimeSeries[0].Period.TimeInterval.End = day.Add(12 * time.Hour)

	if _, err := expandPrices(grid, doc, day); err == nil {
		t.Fatal("expected error for periods beyond document coverage")
	}
}
