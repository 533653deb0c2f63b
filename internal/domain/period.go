package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// periodParser tries to read one period encoding. ok is false when the input
// is not in its format.
type periodParser func(s string) (t time.Time, ok bool)

var (
	yearMonRe   = regexp.MustCompile(`^(\d{2}|\d{4})-([A-Za-z]{3})`)
	yearMonthRe = regexp.MustCompile(`^(\d{4})-(\d{1,2})`)
	monYearRe   = regexp.MustCompile(`^([A-Za-z]{3})-(\d{4}|\d{2})`)

	// periodParsers run in order; the first success wins.
	periodParsers = []periodParser{
		parseYearMon,
		parseYearMonth,
		parseMonYear,
		parseLayouts,
	}

	// fallbackLayouts cover the occasional full date or spelled-out month.
	fallbackLayouts = []string{
		"2006-01-02",
		"01/02/2006",
		"1/2/2006",
		"Jan 2006",
		"January 2006",
		"2006/01",
	}

	monthAbbrevs = map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
		"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
		"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
	}
)

// ParsePeriod reads an unemployment "Period" value. "24-Jul", "2024-07" and
// "Jul-24" all yield 2024-07-01. Two-digit years are 2000+YY.
func ParsePeriod(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, p := range periodParsers {
		if t, ok := p(s); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// MonthStart returns the first day of t's month at midnight UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func parseYearMon(s string) (time.Time, bool) {
	m := yearMonRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	return monthOf(m[1], m[2])
}

func parseYearMonth(s string) (time.Time, bool) {
	m := yearMonthRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
}

func parseMonYear(s string) (time.Time, bool) {
	m := monYearRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	return monthOf(m[2], m[1])
}

func parseLayouts(s string) (time.Time, bool) {
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthStart(t), true
		}
	}
	return time.Time{}, false
}

func monthOf(yearStr, monStr string) (time.Time, bool) {
	month, ok := monthAbbrevs[strings.ToLower(monStr)]
	if !ok {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, false
	}
	if len(yearStr) == 2 {
		year += 2000
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
}
