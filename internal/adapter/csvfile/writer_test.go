package csvfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/county-risk-forecast/internal/domain"
)

func sampleRecords() []domain.ForecastRecord {
	return []domain.ForecastRecord{
		domain.NewForecastRecord(domain.CountyKey{County: "autauga", State: "AL"}, 0.35, domain.Coordinate{Lat: 32.5349, Lon: -86.6428}),
		domain.NewForecastRecord(domain.CountyKey{County: "test", State: "ZZ"}, 0.0125, domain.USCentroid),
	}
}

func TestWriteForecasts_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed", "regional_risk.csv")
	want := sampleRecords()

	require.NoError(t, WriteForecasts(path, want))

	got, err := ReadForecasts(path)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteForecasts_Layout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteForecasts(path, sampleRecords()[1:]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "region,county,state,risk_score,lat,lon\n\"Test, ZZ\",test,ZZ,0.0125,39.8283,-98.5795\n", string(data))
}

func TestWriteForecasts_ReplacesPreviousRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	require.NoError(t, WriteForecasts(path, sampleRecords()))
	require.NoError(t, WriteForecasts(path, sampleRecords()[:1]))

	got, err := ReadForecasts(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Autauga, AL", got[0].Region)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestReadForecasts_SkipsInvalidRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	content := "region,county,state,risk_score,lat,lon\n" +
		"\"A, AL\",a,AL,0.2,32,-86\n" +
		"\"B, AL\",b,AL,n/a,32,-86\n" +
		"\"C, AL\",c,AL,0.1,,-86\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	got, err := ReadForecasts(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].County)
}

func TestReadForecasts_MissingFile(t *testing.T) {
	_, err := ReadForecasts(filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
