package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/county-risk-forecast/internal/adapter/csvfile"
)

const (
	// numericSampleRows is how many well-formed rows are sampled to decide
	// which columns are numeric.
	numericSampleRows = 200
	// numericShare is the fraction of sampled cells that must parse as
	// numbers for a column to count as numeric.
	numericShare = 0.7
)

// Issue kinds written to the report.
const (
	issueBlankRow       = "blank_row"
	issueFieldCount     = "field_count_mismatch"
	issueNumericMissing = "numeric_missing"
	issueNumericParse   = "numeric_parse_fail"
)

var reportHeader = []string{"line_no", "issue", "header_name", "field_index", "raw_value", "row_repr"}

// issue is one finding on one row. fieldIndex is -1 for whole-row issues.
type issue struct {
	line       int
	kind       string
	detail     string
	headerName string
	fieldIndex int
	rawValue   string
	row        []string
}

type scanStats struct {
	encoding        string
	delimiter       rune
	totalRows       int
	malformedRows   int
	wrongFieldCount int
	blankRows       int
	numericMismatch int
}

type scanResult struct {
	stats  scanStats
	issues []issue
}

func scan(raw []byte) (scanResult, error) {
	text, enc := csvfile.Decode(raw)
	delim := csvfile.SniffDelimiter(text)
	records, err := csvfile.ParseLines(text, delim)
	if err != nil {
		return scanResult{}, err
	}
	if len(records) == 0 {
		return scanResult{}, errors.New("no rows")
	}

	res := scanResult{stats: scanStats{encoding: enc, delimiter: delim}}
	header := records[0].Fields
	body := records[1:]
	numeric := numericColumns(body, len(header))

	for _, rec := range body {
		res.stats.totalRows++
		var found []issue
		add := func(kind, detail string, idx int, value string) {
			is := issue{line: rec.Line, kind: kind, detail: detail, fieldIndex: idx, rawValue: value, row: rec.Fields}
			if idx >= 0 {
				is.headerName = header[idx]
			}
			found = append(found, is)
		}

		if isBlank(rec.Fields) {
			add(issueBlankRow, "", -1, "")
			res.stats.blankRows++
		}
		if len(rec.Fields) != len(header) {
			add(issueFieldCount, fmt.Sprintf("got %d, expected %d", len(rec.Fields), len(header)), -1, "")
			res.stats.wrongFieldCount++
		} else {
			for i, isNum := range numeric {
				if !isNum {
					continue
				}
				v := rec.Fields[i]
				switch {
				case strings.TrimSpace(v) == "":
					add(issueNumericMissing, "", i, v)
					res.stats.numericMismatch++
				case !numberLike(v):
					add(issueNumericParse, "", i, v)
					res.stats.numericMismatch++
				}
			}
		}

		if len(found) > 0 {
			res.stats.malformedRows++
			res.issues = append(res.issues, found...)
		}
	}
	return res, nil
}

// numericColumns marks the columns where at least numericShare of the sampled
// cells are number-like. Only rows with the header's width are sampled.
func numericColumns(rows []csvfile.Record, width int) []bool {
	counts := make([]int, width)
	sampled := 0
	for _, r := range rows {
		if sampled == numericSampleRows {
			break
		}
		if len(r.Fields) != width {
			continue
		}
		sampled++
		for i, cell := range r.Fields {
			if numberLike(cell) {
				counts[i]++
			}
		}
	}
	mask := make([]bool, width)
	if sampled == 0 {
		return mask
	}
	for i, n := range counts {
		mask[i] = float64(n)/float64(sampled) >= numericShare
	}
	return mask
}

// numberLike accepts numbers with thousands separators or a percent sign.
func numberLike(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" {
		return false
	}
	t = strings.NewReplacer(",", "", "%", "").Replace(t)
	_, err := strconv.ParseFloat(t, 64)
	return err == nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func writeReport(path string, issues []issue) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(reportHeader); err != nil {
		return err
	}
	for _, is := range issues {
		if err := w.Write(is.reportRow()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func (is issue) reportRow() []string {
	kind := is.kind
	if is.detail != "" {
		kind += " (" + is.detail + ")"
	}
	idx := ""
	if is.fieldIndex >= 0 {
		idx = strconv.Itoa(is.fieldIndex)
	}
	return []string{
		strconv.Itoa(is.line),
		kind,
		is.headerName,
		idx,
		is.rawValue,
		strings.Join(is.row, "|"),
	}
}
