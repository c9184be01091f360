// Package refdata is the read-only country reference provider the
// simulation consumes. Lookups that miss fall back to fixed defaults so the
// registry can lazily materialize any code it is handed.
package refdata

import (
	"github.com/talgya/hegemon/internal/entropy"
	"github.com/talgya/hegemon/internal/geo"
)

// Country is the static reference record for one country code.
type Country struct {
	Code       string
	Name       string
	Population int64
	Religion   string
	Culture    string
	Language   string
	Government string
	Centroid   geo.Coord
}

// Provider resolves country reference data by code.
type Provider interface {
	// Lookup returns the reference record and whether it came from real
	// data. On a miss the record is synthesized from defaults.
	Lookup(code string) (Country, bool)
	// Codes lists every known country code.
	Codes() []string
}

// Static is the built-in provider backed by a fixed table.
type Static struct {
	rng entropy.Source
}

// NewStatic returns the built-in provider. The source is used only to
// synthesize fallback populations for unknown codes.
func NewStatic(rng entropy.Source) *Static {
	return &Static{rng: rng}
}

func (s *Static) Lookup(code string) (Country, bool) {
	if c, ok := countries[code]; ok {
		return c, true
	}
	// Fallback defaults: population 1–5M, everything else generic.
	pop := int64(1_000_000 + s.rng.Intn(4_000_000))
	return Country{
		Code:       code,
		Name:       code,
		Population: pop,
		Religion:   "secular",
		Culture:    "mixed",
		Language:   "local",
		Government: "republic",
	}, false
}

func (s *Static) Codes() []string {
	out := make([]string, 0, len(countries))
	for _, c := range countryOrder {
		out = append(out, c)
	}
	return out
}

// countryOrder keeps iteration stable across runs.
var countryOrder = []string{
	"USA", "CHN", "RUS", "IND", "BRA", "DEU", "FRA", "GBR", "JPN", "KOR",
	"TUR", "IRN", "SAU", "EGY", "NGA", "ZAF", "ETH", "IDN", "PAK", "BGD",
	"VNM", "THA", "MEX", "ARG", "COL", "CAN", "AUS", "POL", "UKR", "ESP",
	"ITA", "SWE", "NOR", "GRC", "ISR", "IRQ", "SYR", "AFG", "KAZ", "MNG",
}

var countries = map[string]Country{
	"USA": {"USA", "United States", 334_000_000, "christian", "western", "english", "federal_republic", geo.Coord{Lat: 39.8, Lon: -98.6}},
	"CHN": {"CHN", "China", 1_412_000_000, "secular", "east_asian", "mandarin", "one_party", geo.Coord{Lat: 35.9, Lon: 104.2}},
	"RUS": {"RUS", "Russia", 144_000_000, "orthodox", "slavic", "russian", "federal_republic", geo.Coord{Lat: 61.5, Lon: 105.3}},
	"IND": {"IND", "India", 1_417_000_000, "hindu", "south_asian", "hindi", "federal_republic", geo.Coord{Lat: 20.6, Lon: 79.0}},
	"BRA": {"BRA", "Brazil", 215_000_000, "christian", "latin", "portuguese", "federal_republic", geo.Coord{Lat: -14.2, Lon: -51.9}},
	"DEU": {"DEU", "Germany", 84_000_000, "christian", "western", "german", "parliamentary", geo.Coord{Lat: 51.2, Lon: 10.4}},
	"FRA": {"FRA", "France", 68_000_000, "christian", "western", "french", "semi_presidential", geo.Coord{Lat: 46.2, Lon: 2.2}},
	"GBR": {"GBR", "United Kingdom", 67_000_000, "christian", "western", "english", "parliamentary", geo.Coord{Lat: 55.4, Lon: -3.4}},
	"JPN": {"JPN", "Japan", 125_000_000, "shinto", "east_asian", "japanese", "parliamentary", geo.Coord{Lat: 36.2, Lon: 138.3}},
	"KOR": {"KOR", "South Korea", 52_000_000, "secular", "east_asian", "korean", "presidential", geo.Coord{Lat: 35.9, Lon: 127.8}},
	"TUR": {"TUR", "Turkey", 85_000_000, "muslim", "anatolian", "turkish", "presidential", geo.Coord{Lat: 38.96, Lon: 35.2}},
	"IRN": {"IRN", "Iran", 88_000_000, "muslim", "persian", "farsi", "theocracy", geo.Coord{Lat: 32.4, Lon: 53.7}},
	"SAU": {"SAU", "Saudi Arabia", 36_000_000, "muslim", "arab", "arabic", "monarchy", geo.Coord{Lat: 23.9, Lon: 45.1}},
	"EGY": {"EGY", "Egypt", 110_000_000, "muslim", "arab", "arabic", "presidential", geo.Coord{Lat: 26.8, Lon: 30.8}},
	"NGA": {"NGA", "Nigeria", 218_000_000, "mixed", "west_african", "english", "federal_republic", geo.Coord{Lat: 9.1, Lon: 8.7}},
	"ZAF": {"ZAF", "South Africa", 60_000_000, "christian", "southern_african", "english", "parliamentary", geo.Coord{Lat: -30.6, Lon: 22.9}},
	"ETH": {"ETH", "Ethiopia", 123_000_000, "orthodox", "east_african", "amharic", "federal_republic", geo.Coord{Lat: 9.1, Lon: 40.5}},
	"IDN": {"IDN", "Indonesia", 275_000_000, "muslim", "southeast_asian", "indonesian", "presidential", geo.Coord{Lat: -0.8, Lon: 113.9}},
	"PAK": {"PAK", "Pakistan", 236_000_000, "muslim", "south_asian", "urdu", "federal_republic", geo.Coord{Lat: 30.4, Lon: 69.3}},
	"BGD": {"BGD", "Bangladesh", 171_000_000, "muslim", "south_asian", "bengali", "parliamentary", geo.Coord{Lat: 23.7, Lon: 90.4}},
	"VNM": {"VNM", "Vietnam", 98_000_000, "secular", "southeast_asian", "vietnamese", "one_party", geo.Coord{Lat: 14.1, Lon: 108.3}},
	"THA": {"THA", "Thailand", 71_000_000, "buddhist", "southeast_asian", "thai", "monarchy", geo.Coord{Lat: 15.9, Lon: 101.0}},
	"MEX": {"MEX", "Mexico", 128_000_000, "christian", "latin", "spanish", "federal_republic", geo.Coord{Lat: 23.6, Lon: -102.6}},
	"ARG": {"ARG", "Argentina", 46_000_000, "christian", "latin", "spanish", "federal_republic", geo.Coord{Lat: -38.4, Lon: -63.6}},
	"COL": {"COL", "Colombia", 52_000_000, "christian", "latin", "spanish", "presidential", geo.Coord{Lat: 4.6, Lon: -74.3}},
	"CAN": {"CAN", "Canada", 39_000_000, "christian", "western", "english", "parliamentary", geo.Coord{Lat: 56.1, Lon: -106.3}},
	"AUS": {"AUS", "Australia", 26_000_000, "christian", "western", "english", "parliamentary", geo.Coord{Lat: -25.3, Lon: 133.8}},
	"POL": {"POL", "Poland", 38_000_000, "christian", "slavic", "polish", "parliamentary", geo.Coord{Lat: 51.9, Lon: 19.1}},
	"UKR": {"UKR", "Ukraine", 38_000_000, "orthodox", "slavic", "ukrainian", "semi_presidential", geo.Coord{Lat: 48.4, Lon: 31.2}},
	"ESP": {"ESP", "Spain", 48_000_000, "christian", "western", "spanish", "parliamentary", geo.Coord{Lat: 40.5, Lon: -3.7}},
	"ITA": {"ITA", "Italy", 59_000_000, "christian", "western", "italian", "parliamentary", geo.Coord{Lat: 41.9, Lon: 12.6}},
	"SWE": {"SWE", "Sweden", 10_500_000, "christian", "nordic", "swedish", "parliamentary", geo.Coord{Lat: 60.1, Lon: 18.6}},
	"NOR": {"NOR", "Norway", 5_500_000, "christian", "nordic", "norwegian", "parliamentary", geo.Coord{Lat: 60.5, Lon: 8.5}},
	"GRC": {"GRC", "Greece", 10_400_000, "orthodox", "western", "greek", "parliamentary", geo.Coord{Lat: 39.1, Lon: 21.8}},
	"ISR": {"ISR", "Israel", 9_500_000, "jewish", "levantine", "hebrew", "parliamentary", geo.Coord{Lat: 31.0, Lon: 34.9}},
	"IRQ": {"IRQ", "Iraq", 44_000_000, "muslim", "arab", "arabic", "federal_republic", geo.Coord{Lat: 33.2, Lon: 43.7}},
	"SYR": {"SYR", "Syria", 22_000_000, "muslim", "arab", "arabic", "presidential", geo.Coord{Lat: 34.8, Lon: 38.9}},
	"AFG": {"AFG", "Afghanistan", 41_000_000, "muslim", "central_asian", "pashto", "theocracy", geo.Coord{Lat: 33.9, Lon: 67.7}},
	"KAZ": {"KAZ", "Kazakhstan", 19_500_000, "muslim", "central_asian", "kazakh", "presidential", geo.Coord{Lat: 48.0, Lon: 66.9}},
	"MNG": {"MNG", "Mongolia", 3_400_000, "buddhist", "central_asian", "mongolian", "parliamentary", geo.Coord{Lat: 46.9, Lon: 103.8}},
}
