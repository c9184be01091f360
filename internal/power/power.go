// Package power computes the composite national strength score every other
// subsystem keys off: war targeting, coalition deterrence, crisis posture.
// Pure functions only — callable at any rate.
package power

import "math"

// Input gathers the components of a nation's strength. Zero values are
// valid: an Input{} scores a stable but otherwise powerless state.
type Input struct {
	Soldiers int     // standing army headcount
	Economy  float64 // 0..100 strength index for AI nations
	Budget   float64 // absolute treasury; used instead of Economy when > 0
	Unrest   float64 // 0..100, subtracted from stability

	Allies     int // bilateral military allies
	Coalitions int // formal coalition memberships
	Agreements int // standing diplomatic agreements

	ResearchLevel float64 // 0..60 effective
	Buildings     int     // military-industrial installations

	QualityModifier float64 // troop quality scale; 0 means default 1.0
}

// Score returns the composite strength score, rounded to the nearest
// integer. Weights: 25% military, 25% economy, 20% diplomacy, 15%
// stability, 15% technology.
func Score(in Input) int {
	quality := in.QualityModifier
	if quality == 0 {
		quality = 1.0
	}

	military := math.Min(200, float64(in.Soldiers)/1000) * quality

	economy := in.Economy
	if in.Budget > 0 {
		economy = in.Budget / 100000
	}
	economy = math.Min(200, economy)

	diplomacy := math.Min(100, 10*float64(in.Allies)+15*float64(in.Coalitions)+5*float64(in.Agreements))

	stability := 100 - in.Unrest
	if stability < 0 {
		stability = 0
	}

	technology := math.Min(100, math.Min(60, in.ResearchLevel)+math.Min(40, 5*float64(in.Buildings)))

	total := 0.25*military + 0.25*economy + 0.20*diplomacy + 0.15*stability + 0.15*technology
	return int(math.Round(total))
}
