package domain

import (
	"math"
	"time"

	"github.com/couchcryptid/county-risk-forecast/internal/table"
)

// defaultEmploymentYear applies when the employment file carries no Year column.
const defaultEmploymentYear = 2025

// employmentMonths maps the fixed monthly columns of the federal employment
// file to their calendar month.
var employmentMonths = []struct {
	column string
	month  time.Month
}{
	{"January Employment", time.January},
	{"February Employment", time.February},
	{"March Employment", time.March},
}

type dateKey struct {
	key  CountyKey
	date time.Time
}

// TransformEmployment unpivots the three monthly employment columns into one
// dated point per month. Rows without a usable year, county, or state are
// dropped. Points that collapse onto the same (county, month) are summed.
func TransformEmployment(t *table.Table) ([]EmploymentPoint, TransformStats) {
	stats := TransformStats{Source: SourceFederalEmployment, Read: t.Len()}
	hasYear := t.HasColumn("Year")

	out := make([]EmploymentPoint, 0, t.Len()*len(employmentMonths))
	seen := make(map[dateKey]int)

	for i := range t.Len() {
		row := t.Row(i)
		key := NewCountyKey(row.Value("County"), row.Value("State"))
		year, ok := employmentYear(row.Value("Year"), hasYear)
		if !ok || !key.Valid() {
			stats.Dropped++
			continue
		}
		stats.Kept++

		for _, m := range employmentMonths {
			date := time.Date(year, m.month, 1, 0, 0, 0, 0, time.UTC)
			emp := CleanNumeric(row.Value(m.column))
			dk := dateKey{key: key, date: date}
			if idx, dup := seen[dk]; dup {
				out[idx].FederalEmployment = nanSum(out[idx].FederalEmployment, emp)
				continue
			}
			seen[dk] = len(out)
			out = append(out, EmploymentPoint{Key: key, Date: date, FederalEmployment: emp})
		}
	}
	return out, stats
}

func employmentYear(raw string, hasColumn bool) (int, bool) {
	if !hasColumn {
		return defaultEmploymentYear, true
	}
	v := CleanNumeric(raw)
	if math.IsNaN(v) || v != math.Trunc(v) || v < 1 || v > 9999 {
		return 0, false
	}
	return int(v), true
}

// TransformUnemployment converts each row into a dated unemployment point,
// resolving the state from its FIPS code. Rows with an unparseable period, no
// county, or no FIPS code are dropped; duplicate (county, month) rates are
// averaged.
func TransformUnemployment(t *table.Table) ([]UnemploymentPoint, TransformStats) {
	stats := TransformStats{Source: SourceUnemployment, Read: t.Len()}

	out := make([]UnemploymentPoint, 0, t.Len())
	seen := make(map[dateKey]int)
	counts := make(map[int]int)

	for i := range t.Len() {
		row := t.Row(i)
		key := CountyKey{
			County: NormalizeCounty(row.Value("County")),
			State:  FIPSToState(PadFIPS(row.Value("State FIPS Code"))),
		}
		date, ok := ParsePeriod(row.Value("Period"))
		if !ok || !key.Valid() {
			stats.Dropped++
			continue
		}
		stats.Kept++

		rate := CleanNumeric(row.FirstValue("Unemployment Rate (%)", "Unemploy-ment Rate (%)"))

		dk := dateKey{key: key, date: date}
		if idx, dup := seen[dk]; dup {
			// Running mean over the finite observations only.
			if !math.IsNaN(rate) {
				n := counts[idx]
				if n == 0 {
					out[idx].UnemploymentRate = rate
				} else {
					out[idx].UnemploymentRate += (rate - out[idx].UnemploymentRate) / float64(n+1)
				}
				counts[idx] = n + 1
			}
			continue
		}
		idx := len(out)
		seen[dk] = idx
		if !math.IsNaN(rate) {
			counts[idx] = 1
		}
		out = append(out, UnemploymentPoint{Key: key, Date: date, UnemploymentRate: rate})
	}
	return out, stats
}

// TransformSNAP reads one SNAP household count per county.
func TransformSNAP(t *table.Table) ([]StaticFact, TransformStats) {
	return staticFacts(t, SourceSNAP, "county_name", "state_name", "snap_households")
}

// TransformCost reads one total cost-of-living figure per county.
func TransformCost(t *table.Table) ([]StaticFact, TransformStats) {
	return staticFacts(t, SourceCostOfLiving, "county", "state", "total_cost")
}

// staticFacts keeps the last row seen for each key, in first-seen order.
func staticFacts(t *table.Table, source, countyCol, stateCol, valueCol string) ([]StaticFact, TransformStats) {
	stats := TransformStats{Source: source, Read: t.Len()}

	out := make([]StaticFact, 0, t.Len())
	seen := make(map[CountyKey]int)

	for i := range t.Len() {
		row := t.Row(i)
		key := NewCountyKey(row.Value(countyCol), row.Value(stateCol))
		if !key.Valid() {
			stats.Dropped++
			continue
		}
		stats.Kept++

		value := CleanNumeric(row.Value(valueCol))
		if idx, dup := seen[key]; dup {
			out[idx].Value = value
			continue
		}
		seen[key] = len(out)
		out = append(out, StaticFact{Key: key, Value: value})
	}
	return out, stats
}

// nanSum adds two possibly-missing values; the result is NaN only when both are.
func nanSum(a, b float64) float64 {
	switch {
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	default:
		return a + b
	}
}
