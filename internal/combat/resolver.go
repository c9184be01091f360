// Package combat resolves battles between two forces as a sequence of
// discrete stochastic rounds. It knows nothing about nations or territory;
// callers feed soldier counts in and apply the casualties and decisiveness
// that come out.
package combat

import "github.com/talgya/hegemon/internal/entropy"

// Intensity scales loss severity per round.
type Intensity uint8

const (
	IntensitySkirmish Intensity = iota
	IntensityStandard
	IntensityTotalWar
)

func (i Intensity) String() string {
	switch i {
	case IntensitySkirmish:
		return "skirmish"
	case IntensityTotalWar:
		return "total_war"
	}
	return "standard"
}

// lossScale maps intensity to a loss-rate multiplier.
func (i Intensity) lossScale() float64 {
	switch i {
	case IntensitySkirmish:
		return 0.5
	case IntensityTotalWar:
		return 1.8
	}
	return 1.0
}

// Side identifies which force a result refers to.
type Side uint8

const (
	SideAttacker Side = iota
	SideDefender
)

func (s Side) String() string {
	if s == SideAttacker {
		return "attacker"
	}
	return "defender"
}

// Round records one exchange: losses applied and forces remaining after.
type Round struct {
	AttackerLosses    int `json:"attacker_losses"`
	DefenderLosses    int `json:"defender_losses"`
	AttackerRemaining int `json:"attacker_remaining"`
	DefenderRemaining int `json:"defender_remaining"`
}

// Result is the full outcome of a simulated battle.
type Result struct {
	Rounds            []Round `json:"rounds"`
	AttackerRemaining int     `json:"attacker_remaining"`
	DefenderRemaining int     `json:"defender_remaining"`
	Winner            Side    `json:"winner"`
	// Decisiveness in [0,1] measures how lopsided the outcome was and
	// scales territorial transfer downstream.
	Decisiveness float64 `json:"decisiveness"`
}

const (
	maxRounds = 20
	// routFraction: a side whose force falls below this fraction of its
	// starting strength breaks and the battle ends.
	routFraction = 0.15
	baseLossRate = 0.04
)

// Simulate runs a battle to completion. defenseBonus in [0,1) reduces
// effective defender losses. Deterministic for a seeded source.
func Simulate(rng entropy.Source, attackerForce, defenderForce int, intensity Intensity, defenseBonus float64) Result {
	if attackerForce < 1 {
		attackerForce = 1
	}
	if defenderForce < 1 {
		defenderForce = 1
	}
	if defenseBonus < 0 {
		defenseBonus = 0
	}
	if defenseBonus > 0.9 {
		defenseBonus = 0.9
	}

	attStart, defStart := attackerForce, defenderForce
	att, def := attackerForce, defenderForce
	scale := intensity.lossScale()

	var rounds []Round
	for len(rounds) < maxRounds {
		// Loss rate shaped by relative force ratio: the outnumbered side
		// bleeds faster. Jitter keeps identical matchups from being scripted.
		ratio := float64(att) / float64(def)

		attRate := baseLossRate * scale * (0.6 + 0.8*rng.Float()) / ratio
		defRate := baseLossRate * scale * (0.6 + 0.8*rng.Float()) * ratio
		defRate *= 1 - defenseBonus

		attLoss := int(float64(att) * clamp01(attRate))
		defLoss := int(float64(def) * clamp01(defRate))
		if attLoss < 1 {
			attLoss = 1
		}
		if defLoss < 1 {
			defLoss = 1
		}

		att -= attLoss
		def -= defLoss
		if att < 0 {
			att = 0
		}
		if def < 0 {
			def = 0
		}

		rounds = append(rounds, Round{
			AttackerLosses:    attLoss,
			DefenderLosses:    defLoss,
			AttackerRemaining: att,
			DefenderRemaining: def,
		})

		if float64(att) < routFraction*float64(attStart) || float64(def) < routFraction*float64(defStart) {
			break
		}
	}

	attFrac := float64(att) / float64(attStart)
	defFrac := float64(def) / float64(defStart)

	// Winner keeps the larger fraction of its starting force; ties favor
	// the defender.
	winner := SideDefender
	if attFrac > defFrac {
		winner = SideAttacker
	}

	decisiveness := attFrac - defFrac
	if decisiveness < 0 {
		decisiveness = -decisiveness
	}
	if decisiveness > 1 {
		decisiveness = 1
	}

	return Result{
		Rounds:            rounds,
		AttackerRemaining: att,
		DefenderRemaining: def,
		Winner:            winner,
		Decisiveness:      decisiveness,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 0.5 {
		return 0.5 // no single round wipes more than half a force
	}
	return v
}
