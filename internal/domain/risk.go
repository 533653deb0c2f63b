package domain

import (
	"cmp"
	"math"
	"slices"
)

// RiskWeights are the coefficients of the composite risk index.
type RiskWeights struct {
	EmploymentRatio  float64
	UnemploymentRate float64
	SNAPRate         float64
	CostIndex        float64
}

// DefaultRiskWeights returns the production weights. They sum to 1.
func DefaultRiskWeights() RiskWeights {
	return RiskWeights{
		EmploymentRatio:  0.4,
		UnemploymentRate: 0.3,
		SNAPRate:         0.2,
		CostIndex:        0.1,
	}
}

// RiskConfig holds the constants the merger scores with.
type RiskConfig struct {
	Weights RiskWeights
	// PopulationMultiplier turns federal employment into a rough population
	// estimate; no real population data is merged in.
	PopulationMultiplier float64
}

// DefaultRiskConfig returns DefaultRiskWeights with a population multiplier of 50.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{Weights: DefaultRiskWeights(), PopulationMultiplier: 50}
}

// MergeAndScore joins the four source fragments onto the unemployment series
// and computes every derived feature and the risk index for each row.
//
// Employment joins on (key, month); SNAP and cost join on key. Missing
// employment and SNAP default to 0; missing unemployment rate and total cost
// default to the median over the merged rows, or 0 when that is undefined.
// The result is sorted by (county, state, date) and every numeric column is
// finite.
func MergeAndScore(unemp []UnemploymentPoint, emp []EmploymentPoint, snap, cost []StaticFact, cfg RiskConfig) []MergedRow {
	if len(unemp) == 0 {
		return nil
	}

	empByMonth := make(map[dateKey]float64, len(emp))
	for _, p := range emp {
		dk := dateKey{key: p.Key, date: p.Date}
		if prev, ok := empByMonth[dk]; ok {
			empByMonth[dk] = nanSum(prev, p.FederalEmployment)
			continue
		}
		empByMonth[dk] = p.FederalEmployment
	}
	snapByKey := factIndex(snap)
	costByKey := factIndex(cost)

	rows := make([]MergedRow, 0, len(unemp))
	for _, u := range unemp {
		row := MergedRow{
			Key:               u.Key,
			Date:              u.Date,
			UnemploymentRate:  u.UnemploymentRate,
			FederalEmployment: math.NaN(),
			SNAPHouseholds:    math.NaN(),
			TotalCost:         math.NaN(),
		}
		if v, ok := empByMonth[dateKey{key: u.Key, date: u.Date}]; ok {
			row.FederalEmployment = v
		}
		if v, ok := snapByKey[u.Key]; ok {
			row.SNAPHouseholds = v
		}
		if v, ok := costByKey[u.Key]; ok {
			row.TotalCost = v
		}
		rows = append(rows, row)
	}

	unempMedian := zeroIfNaN(columnMedian(rows, func(r *MergedRow) float64 { return r.UnemploymentRate }))
	costMedian := zeroIfNaN(columnMedian(rows, func(r *MergedRow) float64 { return r.TotalCost }))

	for i := range rows {
		r := &rows[i]
		r.FederalEmployment = fillMissing(r.FederalEmployment, 0)
		r.SNAPHouseholds = fillMissing(r.SNAPHouseholds, 0)
		r.UnemploymentRate = fillMissing(r.UnemploymentRate, unempMedian)
		r.TotalCost = fillMissing(r.TotalCost, costMedian)
	}

	costMin, costMax := math.Inf(1), math.Inf(-1)
	for i := range rows {
		costMin = math.Min(costMin, rows[i].TotalCost)
		costMax = math.Max(costMax, rows[i].TotalCost)
	}
	costRange := costMax - costMin

	w := cfg.Weights
	for i := range rows {
		r := &rows[i]
		// Ratios use the raw estimate: an overflowed population gives a ratio
		// of 0, not the unscaled count.
		pop := r.FederalEmployment * cfg.PopulationMultiplier
		r.EmploymentRatio = finiteOrZero(r.FederalEmployment / (pop + 1))
		r.SNAPRate = finiteOrZero(r.SNAPHouseholds / (pop + 1))
		r.PopulationEstimate = finiteOrZero(pop)
		r.UnemploymentRateNorm = finiteOrZero(r.UnemploymentRate / 100)
		if IsFinite(costRange) && costRange != 0 {
			r.CostIndexNorm = finiteOrZero((r.TotalCost - costMin) / costRange)
		}
		r.RiskIndex = finiteOrZero(w.EmploymentRatio*r.EmploymentRatio +
			w.UnemploymentRate*r.UnemploymentRateNorm +
			w.SNAPRate*r.SNAPRate +
			w.CostIndex*r.CostIndexNorm)
	}

	slices.SortStableFunc(rows, func(a, b MergedRow) int {
		return cmp.Or(a.Key.Compare(b.Key), a.Date.Compare(b.Date))
	})
	return rows
}

// CountySeries is one county's merged rows in date order.
type CountySeries struct {
	Key  CountyKey
	Rows []MergedRow
}

// Points returns the county's risk-index series.
func (s CountySeries) Points() []TimeSeriesPoint {
	out := make([]TimeSeriesPoint, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Point()
	}
	return out
}

// LatestRisk returns the risk index of the most recent row, or false when the
// series is empty.
func (s CountySeries) LatestRisk() (float64, bool) {
	var (
		latest MergedRow
		found  bool
	)
	for _, r := range s.Rows {
		if !found || !r.Date.Before(latest.Date) {
			latest = r
			found = true
		}
	}
	return latest.RiskIndex, found
}

// SeriesByCounty groups merged rows by county, ordered by key.
func SeriesByCounty(rows []MergedRow) []CountySeries {
	idx := make(map[CountyKey]int)
	var out []CountySeries
	for _, r := range rows {
		i, ok := idx[r.Key]
		if !ok {
			i = len(out)
			idx[r.Key] = i
			out = append(out, CountySeries{Key: r.Key})
		}
		out[i].Rows = append(out[i].Rows, r)
	}
	slices.SortStableFunc(out, func(a, b CountySeries) int { return a.Key.Compare(b.Key) })
	for i := range out {
		slices.SortStableFunc(out[i].Rows, func(a, b MergedRow) int { return a.Date.Compare(b.Date) })
	}
	return out
}

// RiskSummary describes the spread of risk indexes across merged rows.
type RiskSummary struct {
	Rows     int
	Counties int
	Min      float64
	Max      float64
	Mean     float64
}

// SummarizeRisk computes a RiskSummary; all statistics are 0 for no rows.
func SummarizeRisk(rows []MergedRow) RiskSummary {
	s := RiskSummary{Rows: len(rows)}
	if len(rows) == 0 {
		return s
	}
	keys := make(map[CountyKey]struct{})
	s.Min, s.Max = math.Inf(1), math.Inf(-1)
	var sum float64
	for _, r := range rows {
		keys[r.Key] = struct{}{}
		s.Min = math.Min(s.Min, r.RiskIndex)
		s.Max = math.Max(s.Max, r.RiskIndex)
		sum += r.RiskIndex
	}
	s.Counties = len(keys)
	s.Mean = sum / float64(len(rows))
	return s
}

func factIndex(facts []StaticFact) map[CountyKey]float64 {
	m := make(map[CountyKey]float64, len(facts))
	for _, f := range facts {
		m[f.Key] = f.Value
	}
	return m
}

// columnMedian is the median of the finite values of one column, NaN when
// there are none.
func columnMedian(rows []MergedRow, col func(*MergedRow) float64) float64 {
	vals := make([]float64, 0, len(rows))
	for i := range rows {
		if v := col(&rows[i]); IsFinite(v) {
			vals = append(vals, v)
		}
	}
	return median(vals)
}

func median(vals []float64) float64 {
	n := len(vals)
	if n == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(vals)
	slices.Sort(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func fillMissing(v, def float64) float64 {
	if IsFinite(v) {
		return v
	}
	return def
}

func zeroIfNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
