package watsonx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/couchcryptid/county-risk-forecast/internal/domain"
)

// decodeFrame reads one forecast result. The service may send it column
// oriented ({"date": [...], "risk_index": [...]}) or as a list of per-period
// records; either way columns keep the order they first appear in.
func decodeFrame(raw json.RawMessage) (domain.ForecastFrame, error) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		return domain.ForecastFrame{}, nil
	case trimmed[0] == '{':
		return decodeColumns(trimmed)
	case trimmed[0] == '[':
		return decodeRecords(trimmed)
	default:
		return domain.ForecastFrame{}, fmt.Errorf("unexpected result shape %.20q", trimmed)
	}
}

func decodeColumns(raw []byte) (domain.ForecastFrame, error) {
	var frame domain.ForecastFrame
	err := walkObject(raw, func(key string, v any) {
		col := domain.ForecastColumn{Name: key}
		if list, ok := v.([]any); ok {
			col.Values = make([]float64, len(list))
			for i, cell := range list {
				col.Values[i] = toFloat(cell)
			}
		} else {
			col.Values = []float64{toFloat(v)}
		}
		frame.Columns = append(frame.Columns, col)
	})
	return frame, err
}

func decodeRecords(raw []byte) (domain.ForecastFrame, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return domain.ForecastFrame{}, err
	}

	var frame domain.ForecastFrame
	index := make(map[string]int)
	for r, rec := range records {
		err := walkObject(rec, func(key string, v any) {
			i, ok := index[key]
			if !ok {
				i = len(frame.Columns)
				index[key] = i
				frame.Columns = append(frame.Columns, domain.ForecastColumn{Name: key, Values: nanSlice(r)})
			}
			frame.Columns[i].Values = append(frame.Columns[i].Values, toFloat(v))
		})
		if err != nil {
			return domain.ForecastFrame{}, fmt.Errorf("record %d: %w", r, err)
		}
		for i := range frame.Columns {
			for len(frame.Columns[i].Values) < r+1 {
				frame.Columns[i].Values = append(frame.Columns[i].Values, math.NaN())
			}
		}
	}
	return frame, nil
}

// walkObject calls fn for each member of a JSON object in document order.
func walkObject(raw []byte, fn func(key string, v any)) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("value of %q: %w", key, err)
		}
		fn(key, v)
	}
	_, err = dec.Token()
	return err
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
