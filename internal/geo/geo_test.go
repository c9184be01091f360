package geo

import (
	"math"
	"testing"
)

func TestDistanceKnownPairs(t *testing.T) {
	cases := []struct {
		name string
		a, b Coord
		want float64 // km
		tol  float64
	}{
		{"same point", Coord{Lat: 52.5, Lon: 13.4}, Coord{Lat: 52.5, Lon: 13.4}, 0, 0.001},
		{"paris-berlin", Coord{Lat: 48.85, Lon: 2.35}, Coord{Lat: 52.52, Lon: 13.40}, 878, 15},
		{"antipodal-ish", Coord{Lat: 0, Lon: 0}, Coord{Lat: 0, Lon: 180}, 20015, 30},
	}
	for _, tc := range cases {
		got := Distance(tc.a, tc.b)
		if math.Abs(got-tc.want) > tc.tol {
			t.Errorf("%s: Distance = %.1f km, want %.1f ± %.1f", tc.name, got, tc.want, tc.tol)
		}
		// Symmetric.
		if rev := Distance(tc.b, tc.a); math.Abs(rev-got) > 1e-9 {
			t.Errorf("%s: distance not symmetric: %f vs %f", tc.name, got, rev)
		}
	}
}

func TestRuggednessDeterministicAndBounded(t *testing.T) {
	coords := []Coord{
		{Lat: 27.99, Lon: 86.93}, // Himalaya
		{Lat: 52.34, Lon: 5.55},  // Dutch lowlands
		{Lat: -13.5, Lon: -72.5}, // Andes
		{Lat: 0, Lon: 0},
	}
	for _, c := range coords {
		first := Ruggedness(c)
		if first < 0 || first > 1 {
			t.Errorf("Ruggedness(%v) = %f, outside [0,1]", c, first)
		}
		if again := Ruggedness(c); again != first {
			t.Errorf("Ruggedness(%v) not deterministic: %f vs %f", c, first, again)
		}
	}
}

func TestDefenseBonusRange(t *testing.T) {
	for lat := -80.0; lat <= 80; lat += 7 {
		for lon := -170.0; lon <= 170; lon += 13 {
			b := DefenseBonus(Coord{Lat: lat, Lon: lon})
			if b < 0.05 || b > 0.35 {
				t.Fatalf("DefenseBonus(%f,%f) = %f, outside [0.05,0.35]", lat, lon, b)
			}
		}
	}
}

func TestNullServiceNeverClaimsTerritory(t *testing.T) {
	var svc Service = NullService{}
	r := &Region{ID: "x", AreaKm: 100}
	if svc.MergeTerritory(r, r) != nil {
		t.Error("MergeTerritory returned a region")
	}
	if svc.SubtractTerritory(r, r) != nil {
		t.Error("SubtractTerritory returned a region")
	}
	if svc.CalculateConquest("A", "B", 1.0, ConquestOptions{Claim: r}) != nil {
		t.Error("CalculateConquest returned a region")
	}
}
