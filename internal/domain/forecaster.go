package domain

import "context"

// Forecaster submits one prepared series to a time-series forecasting model.
type Forecaster interface {
	Forecast(ctx context.Context, req ForecastRequest) (ForecastFrame, error)
}

// CoordinateResolver attaches an approximate location to a county. It never
// fails; unknown counties resolve to a state or national centroid.
type CoordinateResolver interface {
	Resolve(key CountyKey) Coordinate
}
