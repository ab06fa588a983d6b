// Package meteo provides a Go client library for the MET Norway Location Forecast API.
//
// This package allows you to retrieve weather forecast data from the Norwegian
// Meteorological Institute's location forecast service, via its compact endpoint.
//
// Basic Usage:
//
//	client := meteo.NewClient("YourApp/1.0 (your-email@example.com)")
//
//	location := meteo.Location{
//		Latitude:  59.9139,  // Oslo
//		Longitude: 10.7522,
//	}
//
//	params := meteo.QueryParams{
//		Location: location,
//	}
//
//	forecast, err := client.GetCompact(params)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Use forecast data...
//	for _, step := range forecast.Properties.Timeseries {
//		fmt.Printf("Time: %v, Temperature: %.1f°C\n",
//			step.Time,
//			*step.Data.Instant.Details.AirTemperature)
//	}
//
// GetCompact() returns a compact forecast with essential weather parameters.
//
// The client automatically handles JSON deserialization according to the MET API
// specification and reports non-200 HTTP responses as *APIError; it does not
// validate request parameters.
//
// For more information about the API, visit: https://api.met.no/weatherapi/locationforecast/2.0/documentation
package meteo
