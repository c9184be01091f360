package combat

import (
	"testing"

	"github.com/talgya/hegemon/internal/entropy"
)

func TestDecisivenessAlwaysInRange(t *testing.T) {
	rng := entropy.NewSeeded(99)
	forces := []struct{ att, def int }{
		{1000, 1000}, {100, 100000}, {100000, 100}, {1, 1}, {50000, 49999},
	}
	for _, f := range forces {
		for _, in := range []Intensity{IntensitySkirmish, IntensityStandard, IntensityTotalWar} {
			res := Simulate(rng, f.att, f.def, in, 0.2)
			if res.Decisiveness < 0 || res.Decisiveness > 1 {
				t.Errorf("decisiveness out of [0,1]: %f (forces %d vs %d, %s)",
					res.Decisiveness, f.att, f.def, in)
			}
			if len(res.Rounds) == 0 || len(res.Rounds) > 20 {
				t.Errorf("round count %d out of bounds", len(res.Rounds))
			}
			if res.AttackerRemaining < 0 || res.DefenderRemaining < 0 {
				t.Error("remaining forces must not go negative")
			}
		}
	}
}

func TestEqualForcesUnbiasedWithoutDefenseBonus(t *testing.T) {
	rng := entropy.NewSeeded(7)
	const trials = 4000
	attackerWins := 0
	for i := 0; i < trials; i++ {
		res := Simulate(rng, 10000, 10000, IntensityStandard, 0)
		if res.Winner == SideAttacker {
			attackerWins++
		}
	}
	// Ties break toward the defender, so expect slightly under half, but no
	// systematic skew beyond stochastic tolerance.
	frac := float64(attackerWins) / trials
	if frac < 0.40 || frac > 0.60 {
		t.Errorf("attacker win rate %f outside tolerance for equal forces", frac)
	}
}

func TestDefenseBonusFavorsDefender(t *testing.T) {
	rng := entropy.NewSeeded(11)
	const trials = 2000
	defWinsPlain, defWinsBonus := 0, 0
	for i := 0; i < trials; i++ {
		if Simulate(rng, 10000, 10000, IntensityStandard, 0).Winner == SideDefender {
			defWinsPlain++
		}
		if Simulate(rng, 10000, 10000, IntensityStandard, 0.4).Winner == SideDefender {
			defWinsBonus++
		}
	}
	if defWinsBonus <= defWinsPlain {
		t.Errorf("defense bonus should raise defender win rate: %d vs %d", defWinsBonus, defWinsPlain)
	}
}

func TestOverwhelmingForceWinsDecisively(t *testing.T) {
	rng := entropy.NewSeeded(3)
	losses := 0
	var totalDecisiveness float64
	const trials = 500
	for i := 0; i < trials; i++ {
		res := Simulate(rng, 200000, 5000, IntensityTotalWar, 0.1)
		if res.Winner != SideAttacker {
			losses++
		}
		totalDecisiveness += res.Decisiveness
	}
	if losses > trials/50 {
		t.Errorf("40:1 attacker lost %d of %d battles", losses, trials)
	}
	if avg := totalDecisiveness / trials; avg < 0.5 {
		t.Errorf("overwhelming victories should be decisive, avg %f", avg)
	}
}

func TestIntensityScalesCasualties(t *testing.T) {
	var skirmish, total int
	const trials = 300
	rngA := entropy.NewSeeded(21)
	rngB := entropy.NewSeeded(21)
	for i := 0; i < trials; i++ {
		a := Simulate(rngA, 20000, 20000, IntensitySkirmish, 0)
		b := Simulate(rngB, 20000, 20000, IntensityTotalWar, 0)
		skirmish += a.Rounds[0].AttackerLosses + a.Rounds[0].DefenderLosses
		total += b.Rounds[0].AttackerLosses + b.Rounds[0].DefenderLosses
	}
	if total <= skirmish {
		t.Errorf("total war first-round casualties (%d) should exceed skirmish (%d)", total, skirmish)
	}
}

func TestSeededDeterminism(t *testing.T) {
	a := Simulate(entropy.NewSeeded(5), 30000, 25000, IntensityStandard, 0.25)
	b := Simulate(entropy.NewSeeded(5), 30000, 25000, IntensityStandard, 0.25)
	if a.Winner != b.Winner || a.Decisiveness != b.Decisiveness ||
		a.AttackerRemaining != b.AttackerRemaining || len(a.Rounds) != len(b.Rounds) {
		t.Error("identical seeds should produce identical battles")
	}
}
