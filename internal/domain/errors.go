package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResults means no county produced a forecast record, so there is
	// nothing to persist for the run.
	ErrNoResults = errors.New("no risk scores were generated")

	// ErrInsufficientData means a county series has no valid observation to
	// build a forecast input from.
	ErrInsufficientData = errors.New("insufficient data for forecasting")
)

// DataLoadError reports a source file that could not be read.
type DataLoadError struct {
	Source string
	Path   string
	Err    error
}

func (e *DataLoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("load %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("load %s data from %s: %v", e.Source, e.Path, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// SkipReason classifies why a county was left out of a run's results.
type SkipReason string

const (
	SkipInsufficientData SkipReason = "insufficient_data"
	SkipForecastFailed   SkipReason = "forecast_failed"
	SkipEmptyForecast    SkipReason = "empty_forecast"
	SkipUnextractable    SkipReason = "unextractable"
)
