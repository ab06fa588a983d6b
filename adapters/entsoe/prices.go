// Package entsoe adapts the ENTSO-E transparency platform client into a
// ports.PriceSource, expanding its hourly publication into one spot price
// per control-loop period.
package entsoe

import (
	"context"
	"time"

	bess "github.com/embervolt/bess"
	"github.com/embervolt/bess/entsoe"
	"github.com/embervolt/bess/timegrid"
)

// PriceAdapter downloads the day-ahead publication document and resolves a
// price for every period in the requested day. Modeled on
// scheduler/pricing.go's getCurrentAvgPrice: download once, then look up by
// timestamp per period instead of the teacher's single current-hour lookup.
type PriceAdapter struct {
	securityToken string
	urlFormat     string
	location      *time.Location
	grid          *timegrid.Grid
}

// NewPriceAdapter builds an adapter against the ENTSO-E Transparency
// Platform. urlFormat must contain the three %s verbs
// api_client.go's buildPublicationMarketDataURL fills in
// (periodStart, periodEnd, securityToken).
func NewPriceAdapter(securityToken, urlFormat string, location *time.Location, grid *timegrid.Grid) *PriceAdapter {
	return &PriceAdapter{
		securityToken: securityToken,
		urlFormat:     urlFormat,
		location:      location,
		grid:          grid,
	}
}

// SpotPrices downloads today's publication document (plus tomorrow's once
// the local time is 13:00 or later, see entsoe.DownloadPublicationMarketData)
// and expands it into one price per period of day, using the document's own
// resolution-aware LookupPriceByTime for each period's timestamp. What is
// downloaded does not depend on day: a period of day that the downloaded
// documents do not cover yields a MissingData error.
func (a *PriceAdapter) SpotPrices(ctx context.Context, day time.Time) ([]float64, error) {
	doc, err := entsoe.DownloadPublicationMarketData(ctx, a.securityToken, a.urlFormat, a.location)
	if err != nil {
		return nil, bess.Wrap(bess.KindIO, "entsoe: download publication market data", err)
	}
	return expandPrices(a.grid, doc, day)
}

// expandPrices resolves one price per period of day from an already
// downloaded publication document, isolated from SpotPrices so the
// per-period lookup logic can be tested against a fixture document instead
// of a live ENTSO-E endpoint.
func expandPrices(grid *timegrid.Grid, doc *entsoe.PublicationMarketDocument, day time.Time) ([]float64, error) {
	dayStart, err := grid.TimestampToPeriod(day)
	if err != nil {
		return nil, bess.Wrap(bess.KindInvalidInput, "entsoe: resolve day start period", err)
	}
	periodsInDay := grid.PeriodsInDay(day)

	prices := make([]float64, periodsInDay)
	for i := 0; i < periodsInDay; i++ {
		ts, err := grid.PeriodToTimestamp(dayStart + i)
		if err != nil {
			return nil, bess.Wrap(bess.KindInvalidInput, "entsoe: resolve period timestamp", err)
		}
		price, found := doc.LookupPriceByTime(ts)
		if !found {
			return nil, bess.NewError(bess.KindMissingData, "entsoe: no published price covers this period")
		}
		prices[i] = price
	}
	return prices, nil
}
