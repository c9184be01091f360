// Package geo wraps everything spatial the simulation consumes: nation
// centroids, great-circle distance, terrain ruggedness, and the external
// geometry service that performs the actual polygon work. The core never
// does polygon math itself — a nil region from the service means no
// territory changes hands, which is always a valid outcome.
package geo

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Coord is a point on the globe in decimal degrees.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

const earthRadiusKm = 6371.0

// Distance returns the great-circle distance between two coordinates in km.
func Distance(a, b Coord) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// Region is an opaque handle to a territory polygon owned by the geometry
// service. The core only passes regions around and inspects their area.
type Region struct {
	ID     string  `json:"id"`
	AreaKm float64 `json:"area_km"`
}

// ConquestOptions carries the optional hints the geometry service accepts
// when carving a conquest area.
type ConquestOptions struct {
	Claim    *Region // pre-existing territorial claim to prefer
	Plan     string  // annexation plan identifier, if any
	Location *Coord  // focal point of the fighting
}

// Service is the external geometry collaborator. All methods may return nil,
// which callers treat as "no territorial change" — never an error.
type Service interface {
	MergeTerritory(a, b *Region) *Region
	SubtractTerritory(a, b *Region) *Region
	CalculateConquest(winner, loser string, decisiveness float64, opts ConquestOptions) *Region
}

// NullService is the default geometry backend: every operation reports that
// no territory changed hands. Battles still produce military and relations
// outcomes when this is in use.
type NullService struct{}

func (NullService) MergeTerritory(a, b *Region) *Region    { return nil }
func (NullService) SubtractTerritory(a, b *Region) *Region { return nil }
func (NullService) CalculateConquest(winner, loser string, decisiveness float64, opts ConquestOptions) *Region {
	return nil
}

// ruggednessSeed keeps terrain deterministic across runs so a mountainous
// defender stays mountainous after a restart.
const ruggednessSeed = 7121

var ruggedNoise = opensimplex.NewNormalized(ruggednessSeed)

// Ruggedness returns terrain roughness in [0,1] at a coordinate. Sampled
// from smooth noise so neighboring nations get correlated terrain.
func Ruggedness(c Coord) float64 {
	// Two octaves: continental shape plus local variation.
	v := 0.7*ruggedNoise.Eval2(c.Lon/40, c.Lat/40) +
		0.3*ruggedNoise.Eval2(c.Lon/8, c.Lat/8)
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v
}

// DefenseBonus converts terrain ruggedness at the defender's centroid into
// a loss-reduction fraction for the combat resolver.
func DefenseBonus(c Coord) float64 {
	return 0.05 + 0.30*Ruggedness(c)
}
