package domain

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// SeriesPoint is one month of a single county's risk-index series.
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Anchor selects where the synthetic monthly grid of a short series ends.
type Anchor string

const (
	// AnchorEarliest ends the grid at the earliest observation, extending the
	// series backward in time. Only the earliest observation lands inside the
	// window; later observations fall after it.
	AnchorEarliest Anchor = "earliest"
	// AnchorLatest ends the grid at the latest observation so every observed
	// month stays inside the window.
	AnchorLatest Anchor = "latest"
)

// ParseAnchor reads an anchor name; "" selects AnchorEarliest.
func ParseAnchor(s string) (Anchor, error) {
	switch Anchor(s) {
	case "", AnchorEarliest:
		return AnchorEarliest, nil
	case AnchorLatest:
		return AnchorLatest, nil
	default:
		return "", fmt.Errorf("unknown augmentation anchor %q (want %q or %q)", s, AnchorEarliest, AnchorLatest)
	}
}

// AugmentConfig controls series augmentation.
type AugmentConfig struct {
	// MinPoints is the exact series length the forecasting model consumes.
	MinPoints int
	Anchor    Anchor
}

// DefaultMinPoints is the context length of the Granite TTM 512-96 model.
const DefaultMinPoints = 512

// DefaultAugmentConfig returns a 512-point config anchored at the earliest observation.
func DefaultAugmentConfig() AugmentConfig {
	return AugmentConfig{MinPoints: DefaultMinPoints, Anchor: AnchorEarliest}
}

// PrepareSeries drops non-finite values and zero dates, normalizes dates to the
// first of the month, and sorts ascending. When two points fall in the same
// month the later one in input order wins.
func PrepareSeries(points []TimeSeriesPoint) []SeriesPoint {
	byMonth := make(map[time.Time]float64, len(points))
	for _, p := range points {
		if p.Date.IsZero() || !IsFinite(p.RiskIndex) {
			continue
		}
		byMonth[MonthStart(p.Date)] = p.RiskIndex
	}
	out := make([]SeriesPoint, 0, len(byMonth))
	for d, v := range byMonth {
		out = append(out, SeriesPoint{Date: d, Value: v})
	}
	slices.SortFunc(out, func(a, b SeriesPoint) int { return a.Date.Compare(b.Date) })
	return out
}

// AugmentSeries returns exactly cfg.MinPoints monthly points with no NaN.
//
// A series at or above the minimum keeps its most recent MinPoints points. A
// shorter one is laid onto a monthly grid of MinPoints periods ending at the
// anchor month; observed values keep their month, gaps are linearly
// interpolated, leading and trailing gaps take the nearest known value, and
// anything left takes the mean of the observations (0 if undefined).
//
// The input must be the output of PrepareSeries. ErrInsufficientData is
// returned when it holds no points.
func AugmentSeries(points []SeriesPoint, cfg AugmentConfig) ([]SeriesPoint, error) {
	if len(points) == 0 {
		return nil, ErrInsufficientData
	}
	m := cfg.MinPoints
	if m <= 0 {
		return nil, fmt.Errorf("augment: minimum points must be positive, got %d", m)
	}
	if len(points) >= m {
		out := make([]SeriesPoint, m)
		copy(out, points[len(points)-m:])
		return out, nil
	}

	end := points[0].Date
	if cfg.Anchor == AnchorLatest {
		end = points[len(points)-1].Date
	}
	end = MonthStart(end)

	known := make(map[time.Time]float64, len(points))
	for _, p := range points {
		known[MonthStart(p.Date)] = p.Value
	}

	out := make([]SeriesPoint, m)
	for i := range out {
		d := end.AddDate(0, i-(m-1), 0)
		v, ok := known[d]
		if !ok {
			v = math.NaN()
		}
		out[i] = SeriesPoint{Date: d, Value: v}
	}

	interpolate(out)
	fillEdges(out)

	if hasNaN(out) {
		fill := seriesMean(points)
		for i := range out {
			if math.IsNaN(out[i].Value) {
				out[i].Value = fill
			}
		}
	}
	return out, nil
}

// interpolate fills interior NaN runs linearly by position between the known
// values on either side.
func interpolate(s []SeriesPoint) {
	prev := -1
	for i := range s {
		if math.IsNaN(s[i].Value) {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			lo, hi := s[prev].Value, s[i].Value
			span := float64(i - prev)
			for j := prev + 1; j < i; j++ {
				s[j].Value = lo + (hi-lo)*float64(j-prev)/span
			}
		}
		prev = i
	}
}

// fillEdges forward-fills then backward-fills.
func fillEdges(s []SeriesPoint) {
	last := math.NaN()
	for i := range s {
		if math.IsNaN(s[i].Value) {
			s[i].Value = last
		} else {
			last = s[i].Value
		}
	}
	next := math.NaN()
	for i := len(s) - 1; i >= 0; i-- {
		if math.IsNaN(s[i].Value) {
			s[i].Value = next
		} else {
			next = s[i].Value
		}
	}
}

func hasNaN(s []SeriesPoint) bool {
	for _, p := range s {
		if math.IsNaN(p.Value) {
			return true
		}
	}
	return false
}

func seriesMean(s []SeriesPoint) float64 {
	var (
		sum float64
		n   int
	)
	for _, p := range s {
		if IsFinite(p.Value) {
			sum += p.Value
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
