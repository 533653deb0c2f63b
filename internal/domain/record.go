package domain

import "time"

// Source names used in logs, metrics, and load errors.
const (
	SourceFederalEmployment = "federal_employment"
	SourceUnemployment      = "unemployment"
	SourceSNAP              = "snap"
	SourceCostOfLiving      = "cost_of_living"
)

// EmploymentPoint is one month of federal employment for a county.
type EmploymentPoint struct {
	Key               CountyKey
	Date              time.Time
	FederalEmployment float64 // NaN when the cell was blank or unparseable
}

// UnemploymentPoint is one month of unemployment rate (percent) for a county.
type UnemploymentPoint struct {
	Key              CountyKey
	Date             time.Time
	UnemploymentRate float64 // NaN when the cell was blank or unparseable
}

// StaticFact is a single undated per-county value (SNAP households, total cost).
type StaticFact struct {
	Key   CountyKey
	Value float64
}

// TransformStats counts what a transformer kept and dropped.
type TransformStats struct {
	Source  string
	Read    int
	Kept    int
	Dropped int
}

// MergedRow is one (county, month) after joining every source, with each
// derived feature kept for inspection.
type MergedRow struct {
	Key  CountyKey
	Date time.Time

	FederalEmployment float64
	UnemploymentRate  float64
	SNAPHouseholds    float64
	TotalCost         float64

	PopulationEstimate   float64
	EmploymentRatio      float64
	SNAPRate             float64
	UnemploymentRateNorm float64
	CostIndexNorm        float64

	RiskIndex float64
}

// TimeSeriesPoint is the (county, month, risk index) triple fed to forecasting.
type TimeSeriesPoint struct {
	Key       CountyKey
	Date      time.Time
	RiskIndex float64
}

// Point projects the merged row to its time-series point.
func (r MergedRow) Point() TimeSeriesPoint {
	return TimeSeriesPoint{Key: r.Key, Date: r.Date, RiskIndex: r.RiskIndex}
}

// ForecastRecord is the per-county output of a run.
type ForecastRecord struct {
	Key       CountyKey `json:"-"`
	Region    string    `json:"region"`
	County    string    `json:"county"`
	State     string    `json:"state"`
	RiskScore float64   `json:"risk_score"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
}
