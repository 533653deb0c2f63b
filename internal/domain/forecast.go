package domain

import (
	"math"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Column and frequency names shared with the forecasting service.
const (
	TimestampColumn  = "date"
	TargetColumn     = "risk_index"
	FrequencyMonthly = "monthly"
)

// ForecastRequest is one county's augmented series plus the schema the model
// needs to read it.
type ForecastRequest struct {
	Key             CountyKey
	Series          []SeriesPoint
	TimestampColumn string
	Frequency       string
	TargetColumn    string
}

// NewForecastRequest builds a monthly request for the risk_index column.
func NewForecastRequest(key CountyKey, series []SeriesPoint) ForecastRequest {
	return ForecastRequest{
		Key:             key,
		Series:          series,
		TimestampColumn: TimestampColumn,
		Frequency:       FrequencyMonthly,
		TargetColumn:    TargetColumn,
	}
}

// ForecastColumn is one named column of a forecast result. Cells that were not
// numbers are NaN.
type ForecastColumn struct {
	Name   string
	Values []float64
}

// ForecastFrame is the first result table returned by the forecasting service,
// with columns in the order the service sent them.
type ForecastFrame struct {
	Columns []ForecastColumn
}

// Empty reports whether the frame holds no rows.
func (f ForecastFrame) Empty() bool {
	for _, c := range f.Columns {
		if len(c.Values) > 0 {
			return false
		}
	}
	return true
}

// Column returns the named column.
func (f ForecastFrame) Column(name string) (ForecastColumn, bool) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ForecastColumn{}, false
}

// LastValue returns the final-period value of the target column. When the
// target is absent the first column that is not a date or timestamp is used.
// ok is false when no such column exists or its last value is not finite.
func (f ForecastFrame) LastValue(target string) (float64, bool) {
	col, ok := f.Column(target)
	if !ok {
		for _, c := range f.Columns {
			if c.Name != "date" && c.Name != "timestamp" {
				col, ok = c, true
				break
			}
		}
	}
	if !ok || len(col.Values) == 0 {
		return 0, false
	}
	v := col.Values[len(col.Values)-1]
	if !IsFinite(v) {
		return 0, false
	}
	return v, true
}

// ReconcileRisk floors a forecast at the latest observed risk so smoothing
// never reports a lower risk than the last real observation.
func ReconcileRisk(forecast, latestActual float64) float64 {
	return math.Max(forecast, latestActual)
}

// RegionName formats a key for display: "autauga", "AL" becomes "Autauga, AL".
func RegionName(key CountyKey) string {
	// Casers carry state, so each call gets its own.
	return cases.Title(language.English).String(key.County) + ", " + key.State
}

// NewForecastRecord assembles the output row for one county.
func NewForecastRecord(key CountyKey, score float64, at Coordinate) ForecastRecord {
	return ForecastRecord{
		Key:       key,
		Region:    RegionName(key),
		County:    key.County,
		State:     key.State,
		RiskScore: score,
		Lat:       at.Lat,
		Lon:       at.Lon,
	}
}
