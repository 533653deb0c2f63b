package gazetteer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/county-risk-forecast/internal/domain"
)

const countiesCSV = `county,county_ascii,county_full,county_fips,state_id,state_name,lat,lng,population
Autauga,Autauga,Autauga County,01001,AL,Alabama,32.5349,-86.6428,58761
Doña Ana,Dona Ana,Doña Ana County,35013,NM,New Mexico,32.3520,-106.8328,219561
Baltimore,Baltimore,Baltimore County,24005,MD,Maryland,39.4431,-76.6165,850737
Baltimore,Baltimore,Baltimore city,24510,MD,Maryland,39.3000,-76.6105,584548
Prince George's,Prince George's,Prince George's County,24033,MD,Maryland,38.8300,-76.8473,964000
Broken,Broken,Broken County,99999,AL,Alabama,n/a,-86.0,1
`

func loadTestGazetteer(t *testing.T) *Gazetteer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "uscounties.csv")
	require.NoError(t, os.WriteFile(path, []byte(countiesCSV), 0o600))
	g, err := Load(path)
	require.NoError(t, err)
	return g
}

func TestLoad(t *testing.T) {
	g := loadTestGazetteer(t)
	assert.Equal(t, 5, g.Len())
}

func TestLoad_MissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("county,state\nA,AL\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolver_Tiers(t *testing.T) {
	r := NewResolver(loadTestGazetteer(t))

	tests := []struct {
		name     string
		key      domain.CountyKey
		wantTier Tier
		want     domain.Coordinate
	}{
		{
			name:     "exact on plain name",
			key:      domain.CountyKey{County: "autauga", State: "AL"},
			wantTier: TierExact,
			want:     domain.Coordinate{Lat: 32.5349, Lon: -86.6428},
		},
		{
			name:     "exact on ascii variant",
			key:      domain.CountyKey{County: "dona ana", State: "NM"},
			wantTier: TierExact,
			want:     domain.Coordinate{Lat: 32.3520, Lon: -106.8328},
		},
		{
			name:     "accented input matches",
			key:      domain.CountyKey{County: "Doña Ana County", State: "NM"},
			wantTier: TierExact,
			want:     domain.Coordinate{Lat: 32.3520, Lon: -106.8328},
		},
		{
			name:     "raw names are normalized",
			key:      domain.CountyKey{County: "Prince George's County", State: "Maryland"},
			wantTier: TierExact,
			want:     domain.Coordinate{Lat: 38.8300, Lon: -76.8473},
		},
		{
			name:     "first row wins for duplicate names",
			key:      domain.CountyKey{County: "baltimore", State: "MD"},
			wantTier: TierExact,
			want:     domain.Coordinate{Lat: 39.4431, Lon: -76.6165},
		},
		{
			name:     "containment within state",
			key:      domain.CountyKey{County: "prince", State: "MD"},
			wantTier: TierContains,
			want:     domain.Coordinate{Lat: 38.8300, Lon: -76.8473},
		},
		{
			name:     "query contains gazetteer name",
			key:      domain.CountyKey{County: "autauga east", State: "AL"},
			wantTier: TierContains,
			want:     domain.Coordinate{Lat: 32.5349, Lon: -86.6428},
		},
		{
			name:     "no containment across states",
			key:      domain.CountyKey{County: "autauga", State: "GA"},
			wantTier: TierState,
			want:     domain.CentroidOrUS("GA"),
		},
		{
			name:     "unknown county in known state",
			key:      domain.CountyKey{County: "nowhere", State: "AL"},
			wantTier: TierState,
			want:     domain.CentroidOrUS("AL"),
		},
		{
			name:     "unknown state",
			key:      domain.CountyKey{County: "test", State: "ZZ"},
			wantTier: TierCountry,
			want:     domain.Coordinate{Lat: 39.8283, Lon: -98.5795},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, tier := r.Lookup(tt.key)
			assert.Equal(t, tt.wantTier, tier)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, r.Resolve(tt.key))
		})
	}
}

func TestResolver_NilGazetteer(t *testing.T) {
	r := NewResolver(nil)

	got, tier := r.Lookup(domain.CountyKey{County: "autauga", State: "AL"})
	assert.Equal(t, TierState, tier)
	assert.Equal(t, domain.CentroidOrUS("AL"), got)

	got, tier = r.Lookup(domain.CountyKey{})
	assert.Equal(t, TierCountry, tier)
	assert.Equal(t, domain.USCentroid, got)
}

func TestNew_InMemory(t *testing.T) {
	g := New([]Entry{{Names: []string{"test"}, State: "AL", At: domain.Coordinate{Lat: 1, Lon: 2}}})
	assert.Equal(t, domain.Coordinate{Lat: 1, Lon: 2}, NewResolver(g).Resolve(domain.CountyKey{County: "test", State: "AL"}))
}
