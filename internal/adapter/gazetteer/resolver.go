package gazetteer

import "github.com/couchcryptid/county-risk-forecast/internal/domain"

// Tier names the lookup step that produced a coordinate.
type Tier string

const (
	TierExact    Tier = "exact"
	TierContains Tier = "contains"
	TierState    Tier = "state"
	TierCountry  Tier = "country"
)

// Resolver implements domain.CoordinateResolver over an optional Gazetteer.
type Resolver struct {
	g *Gazetteer
}

// NewResolver wraps g. A nil gazetteer resolves every county to its state or
// national centroid.
func NewResolver(g *Gazetteer) *Resolver {
	return &Resolver{g: g}
}

// Resolve returns the best coordinate for key. It never fails.
func (r *Resolver) Resolve(key domain.CountyKey) domain.Coordinate {
	c, _ := r.Lookup(key)
	return c
}

// Lookup is Resolve that also reports which tier matched. Keys are
// renormalized so raw names resolve the same as joined keys.
func (r *Resolver) Lookup(key domain.CountyKey) (domain.Coordinate, Tier) {
	k := domain.NewCountyKey(key.County, key.State)
	if domain.IsKnownState(k.State) {
		if c, ok := r.g.lookupExact(k); ok {
			return c, TierExact
		}
		if c, ok := r.g.lookupContains(k); ok {
			return c, TierContains
		}
	}
	if c, ok := domain.StateCentroid(k.State); ok {
		return c, TierState
	}
	return domain.USCentroid, TierCountry
}
