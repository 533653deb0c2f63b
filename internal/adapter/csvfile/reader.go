// Package csvfile reads the source spreadsheets and writes the per-county
// result table.
package csvfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/couchcryptid/county-risk-forecast/internal/domain"
	"github.com/couchcryptid/county-risk-forecast/internal/table"
)

const bom = "\ufeff"

// decodeStrategy turns raw file bytes into UTF-8 text. ok is false when the
// bytes are not valid in that encoding.
type decodeStrategy struct {
	name   string
	decode func(b []byte) (string, bool)
}

// strategies run in order; the first that decodes cleanly wins.
var strategies = []decodeStrategy{
	{"utf-8", decodeUTF8},
	{"utf-8-sig", decodeUTF8BOM},
	{"cp1252", decodeWith(charmap.Windows1252)},
	{"latin-1", decodeWith(charmap.ISO8859_1)},
	{"iso-8859-1", decodeWith(charmap.ISO8859_1)},
}

// Decode converts file bytes to UTF-8 text using the first strategy that
// succeeds and reports its name. When none does, invalid sequences are
// replaced with U+FFFD and the name is "utf-8-replace". A leading byte-order
// mark is always removed.
func Decode(b []byte) (text, encodingName string) {
	for _, s := range strategies {
		if text, ok := s.decode(b); ok {
			return strings.TrimPrefix(text, bom), s.name
		}
	}
	return strings.TrimPrefix(strings.ToValidUTF8(string(b), "\uFFFD"), bom), "utf-8-replace"
}

func decodeUTF8(b []byte) (string, bool) {
	if !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

func decodeUTF8BOM(b []byte) (string, bool) {
	if !utf8.Valid(bytes.TrimPrefix(b, []byte(bom))) {
		return "", false
	}
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	return string(out), true
}

func decodeWith(enc encoding.Encoding) func([]byte) (string, bool) {
	return func(b []byte) (string, bool) {
		out, err := enc.NewDecoder().Bytes(b)
		if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
			return "", false
		}
		return string(out), true
	}
}

// ReadFlexible loads a delimited file into a Table, trying several text
// encodings. Ragged rows are kept as they are. Only an unreadable or
// unparseable file is an error, reported as a *domain.DataLoadError.
func ReadFlexible(path string) (*table.Table, error) {
	t, _, err := ReadFlexibleWithEncoding(path)
	return t, err
}

// ReadFlexibleWithEncoding is ReadFlexible that also reports which decoding
// strategy was used.
func ReadFlexibleWithEncoding(path string) (*table.Table, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", &domain.DataLoadError{Path: path, Err: err}
	}
	text, enc := Decode(raw)

	records, err := parseRecords(strings.NewReader(text), ',')
	if err != nil {
		return nil, enc, &domain.DataLoadError{Path: path, Err: err}
	}
	if len(records) == 0 {
		return table.New(nil, nil), enc, nil
	}
	return table.New(records[0], records[1:]), enc, nil
}

// parseRecords reads every record, tolerating ragged rows and stray quotes.
func parseRecords(r io.Reader, comma rune) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		records = append(records, rec)
	}
}
