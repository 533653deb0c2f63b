package domain

import (
	"math"
	"strconv"
	"strings"
)

var numericNoise = strings.NewReplacer(",", "", "$", "", "€", "", "£", "", "¥", "", " ", "", " ", "")

// CleanNumeric parses a spreadsheet-style number such as "$1,234.50". Blank
// and null-like markers, non-numeric residue, and infinities all yield NaN.
func CleanNumeric(raw string) float64 {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "nan", "none", "null":
		return math.NaN()
	}
	s = numericNoise.Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// finiteOrZero replaces NaN and infinities with 0.
func finiteOrZero(v float64) float64 {
	if IsFinite(v) {
		return v
	}
	return 0
}
