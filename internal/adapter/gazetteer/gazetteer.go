// Package gazetteer resolves counties to approximate coordinates from a
// counties reference file, falling back to state and national centroids.
package gazetteer

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/county-risk-forecast/internal/adapter/csvfile"
	"github.com/couchcryptid/county-risk-forecast/internal/domain"
	"github.com/couchcryptid/county-risk-forecast/internal/table"
)

// nameColumns are the county name variants tried for exact matches.
var nameColumns = []string{"county", "county_ascii", "county_full"}

// Entry is one county of the reference file.
type Entry struct {
	Names []string // normalized, deduplicated name variants
	State string
	At    domain.Coordinate
}

// Gazetteer is an immutable county lookup table. Build it once with Load or
// New and share it read-only.
type Gazetteer struct {
	exact   map[domain.CountyKey]domain.Coordinate
	byState map[string][]Entry
	size    int
}

// Load reads a counties file with columns county, county_ascii, county_full,
// state_id, lat and lng. Rows without a usable state or coordinate are skipped.
func Load(path string) (*Gazetteer, error) {
	t, err := csvfile.ReadFlexible(path)
	if err != nil {
		return nil, fmt.Errorf("load gazetteer: %w", err)
	}
	if !t.HasColumn("state_id") || !t.HasColumn("lat") || !t.HasColumn("lng") {
		return nil, fmt.Errorf("load gazetteer %s: need state_id, lat and lng columns", path)
	}
	return New(entriesFromTable(t)), nil
}

func entriesFromTable(t *table.Table) []Entry {
	entries := make([]Entry, 0, t.Len())
	for i := range t.Len() {
		row := t.Row(i)
		lat := domain.CleanNumeric(row.Value("lat"))
		lon := domain.CleanNumeric(row.Value("lng"))
		state := domain.NormalizeState(row.Value("state_id"))
		if !domain.IsFinite(lat) || !domain.IsFinite(lon) || state == "" {
			continue
		}
		var names []string
		for _, col := range nameColumns {
			n := domain.NormalizeCounty(row.Value(col))
			if n != "" && !contains(names, n) {
				names = append(names, n)
			}
		}
		if len(names) == 0 {
			continue
		}
		entries = append(entries, Entry{Names: names, State: state, At: domain.Coordinate{Lat: lat, Lon: lon}})
	}
	return entries
}

// New indexes entries. For duplicate names within a state the first entry wins.
func New(entries []Entry) *Gazetteer {
	g := &Gazetteer{
		exact:   make(map[domain.CountyKey]domain.Coordinate, len(entries)),
		byState: make(map[string][]Entry),
		size:    len(entries),
	}
	for _, e := range entries {
		for _, n := range e.Names {
			k := domain.CountyKey{County: n, State: e.State}
			if _, dup := g.exact[k]; !dup {
				g.exact[k] = e.At
			}
		}
		g.byState[e.State] = append(g.byState[e.State], e)
	}
	return g
}

// Len returns the number of indexed counties.
func (g *Gazetteer) Len() int {
	if g == nil {
		return 0
	}
	return g.size
}

func (g *Gazetteer) lookupExact(k domain.CountyKey) (domain.Coordinate, bool) {
	if g == nil {
		return domain.Coordinate{}, false
	}
	c, ok := g.exact[k]
	return c, ok
}

// lookupContains returns the first entry in the state whose name contains the
// county or is contained by it.
func (g *Gazetteer) lookupContains(k domain.CountyKey) (domain.Coordinate, bool) {
	if g == nil || k.County == "" {
		return domain.Coordinate{}, false
	}
	for _, e := range g.byState[k.State] {
		for _, n := range e.Names {
			if strings.Contains(n, k.County) || strings.Contains(k.County, n) {
				return e.At, true
			}
		}
	}
	return domain.Coordinate{}, false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
