package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/county-risk-forecast/internal/domain"
)

// OutputHeader is the column layout of the result file.
var OutputHeader = []string{"region", "county", "state", "risk_score", "lat", "lon"}

// WriteForecasts replaces the file at path with one row per record. The rows
// are written to a temporary file in the same directory and renamed into
// place, so readers see either the previous run's file or the new one.
func WriteForecasts(path string, records []domain.ForecastRecord) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()           //nolint:errcheck // already failing
			os.Remove(tmp.Name()) //nolint:errcheck // best-effort cleanup
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(OutputHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err = w.Write(recordRow(r)); err != nil {
			return fmt.Errorf("write %s: %w", r.Region, err)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace output: %w", err)
	}
	return nil
}

func recordRow(r domain.ForecastRecord) []string {
	return []string{
		r.Region,
		r.County,
		r.State,
		formatFloat(r.RiskScore),
		formatFloat(r.Lat),
		formatFloat(r.Lon),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ReadForecasts loads a result file. Rows whose risk_score, lat or lon is not
// a finite number are skipped.
func ReadForecasts(path string) ([]domain.ForecastRecord, error) {
	t, err := ReadFlexible(path)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ForecastRecord, 0, t.Len())
	for i := range t.Len() {
		row := t.Row(i)
		score := domain.CleanNumeric(row.Value("risk_score"))
		lat := domain.CleanNumeric(row.Value("lat"))
		lon := domain.CleanNumeric(row.Value("lon"))
		if !domain.IsFinite(score) || !domain.IsFinite(lat) || !domain.IsFinite(lon) {
			continue
		}
		county, state := row.Value("county"), row.Value("state")
		out = append(out, domain.ForecastRecord{
			Key:       domain.CountyKey{County: county, State: state},
			Region:    row.Value("region"),
			County:    county,
			State:     state,
			RiskScore: score,
			Lat:       lat,
			Lon:       lon,
		})
	}
	return out, nil
}
