package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Delimiters are the separators SniffDelimiter considers, in tie-break order.
var Delimiters = []rune{',', ';', '\t', '|'}

// sniffLines is how many non-empty lines SniffDelimiter samples.
const sniffLines = 20

// SniffDelimiter guesses the field separator from the start of a file. A
// delimiter that appears the same non-zero number of times on every sampled
// line is preferred, the one with more fields winning. Otherwise the most
// frequent candidate is used, and ',' when none appears at all.
func SniffDelimiter(text string) rune {
	var lines []string
	for line := range strings.Lines(text) {
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == sniffLines {
			break
		}
	}
	if len(lines) == 0 {
		return ','
	}

	best, bestCount, bestConsistent := ',', 0, false
	for _, d := range Delimiters {
		total, first, consistent := 0, -1, true
		for _, l := range lines {
			n := countOutsideQuotes(l, d)
			total += n
			if first < 0 {
				first = n
			} else if n != first {
				consistent = false
			}
		}
		consistent = consistent && first > 0
		switch {
		case consistent && (!bestConsistent || first > bestCount):
			best, bestCount, bestConsistent = d, first, true
		case !consistent && !bestConsistent && total > bestCount:
			best, bestCount = d, total
		}
	}
	return best
}

func countOutsideQuotes(line string, d rune) int {
	n, quoted := 0, false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == d && !quoted:
			n++
		}
	}
	return n
}

// Record is one parsed row and the input line it starts on.
type Record struct {
	Line   int
	Fields []string
}

// ParseLines parses text with the given separator, keeping ragged rows and
// the line number of each record. Fully empty lines produce no record.
func ParseLines(text string, comma rune) ([]Record, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var out []Record
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		out = append(out, Record{Line: line, Fields: rec})
	}
}
