// Package strategy drives the non-player nations. Each nation is assigned a
// fixed personality on first assessment; every tick the director re-reads
// the world, updates the nation's threat level and focus, and queues up to
// two intended actions. War declarations pass through a double gate and a
// heavily damped probability roll on top of the queue.
package strategy

import (
	"math"

	"github.com/talgya/hegemon/internal/coalition"
	"github.com/talgya/hegemon/internal/entropy"
	"github.com/talgya/hegemon/internal/nation"
	"github.com/talgya/hegemon/internal/war"
)

// World is the read view a strategy assesses against.
type World struct {
	Reg        *nation.Registry
	Coalitions *coalition.Manager
	Wars       *war.Ledger
	Rng        entropy.Source
	Tick       uint64
}

// Strategy produces a nation's intended actions for one tick.
type Strategy interface {
	Assess(n *nation.Nation, w *World) []nation.Action
}

// ForPersonality returns the behavior implementation for a personality.
func ForPersonality(p nation.Personality) Strategy {
	switch p {
	case nation.PersonalityExpansionist:
		return expansionist{}
	case nation.PersonalityOpportunist:
		return opportunist{}
	case nation.PersonalityDefensive:
		return defensive{}
	case nation.PersonalityIsolationist:
		return isolationist{}
	case nation.PersonalityTradingPower:
		return tradingPower{}
	case nation.PersonalityIdeological:
		return ideological{}
	}
	return isolationist{}
}

// Director runs the per-tick AI pass over the registry.
type Director struct {
	world *World
}

// NewDirector wires the AI pass to its collaborators.
func NewDirector(reg *nation.Registry, coalitions *coalition.Manager, wars *war.Ledger, rng entropy.Source) *Director {
	return &Director{world: &World{Reg: reg, Coalitions: coalitions, Wars: wars, Rng: rng}}
}

// World exposes the director's view for callers that evaluate gates directly.
func (d *Director) World() *World { return d.world }

// maxQueuedActions caps the backlog a nation can accumulate.
const maxQueuedActions = 6

// Evaluate updates one nation's strategy state for the tick and returns the
// freshly queued actions (at most two). Annexed nations and the player are
// skipped.
func (d *Director) Evaluate(n *nation.Nation, tick uint64) []nation.Action {
	if n == nil || n.Annexed || n.IsPlayer {
		return nil
	}
	d.world.Tick = tick

	if n.Strategy == nil {
		n.Strategy = &nation.StrategyState{}
	}
	if n.Strategy.Personality == nation.PersonalityUnassigned {
		n.Strategy.Personality = assignPersonality(d.world.Rng)
	}

	n.Strategy.ThreatLevel = d.world.ThreatLevel(n)
	n.Strategy.Focus = focusFor(n)

	actions := ForPersonality(n.Strategy.Personality).Assess(n, d.world)
	if len(actions) > 2 {
		actions = actions[:2]
	}
	n.Strategy.Queue = append(n.Strategy.Queue, actions...)
	if len(n.Strategy.Queue) > maxQueuedActions {
		n.Strategy.Queue = n.Strategy.Queue[len(n.Strategy.Queue)-maxQueuedActions:]
	}
	return actions
}

// assignPersonality draws the fixed temperament. Weighted toward the calmer
// personalities so the world is not wall-to-wall expansionists.
func assignPersonality(rng entropy.Source) nation.Personality {
	roll := rng.Float()
	switch {
	case roll < 0.12:
		return nation.PersonalityExpansionist
	case roll < 0.27:
		return nation.PersonalityOpportunist
	case roll < 0.50:
		return nation.PersonalityDefensive
	case roll < 0.67:
		return nation.PersonalityIsolationist
	case roll < 0.87:
		return nation.PersonalityTradingPower
	default:
		return nation.PersonalityIdeological
	}
}

// ThreatLevel scores how menaced a nation is, 0..1: relative power of its
// enemies, active wars, and the strongest hostile coalition.
func (w *World) ThreatLevel(n *nation.Nation) float64 {
	threat := 0.0
	if len(w.Wars.ActiveFor(n.Code)) > 0 {
		threat += 0.4
	}
	own := float64(n.Power)
	if own < 1 {
		own = 1
	}
	for _, enemy := range n.Enemies {
		if e := w.Reg.Get(enemy); e.Actionable() {
			threat += 0.15 * math.Min(2, float64(e.Power)/own)
		}
	}
	if n.Modifiers.Has(nation.ModDestabilized) || n.Modifiers.Has(nation.ModSeparatistUnrest) {
		threat += 0.15
	}
	return math.Min(1, threat)
}

// focusFor derives the posture from the nation's current situation.
func focusFor(n *nation.Nation) nation.Focus {
	switch {
	case n.Strategy.ThreatLevel > 0.5 || n.Political.Unrest > 60:
		return nation.FocusConsolidate
	case n.Modifiers.Has(nation.ModRevanchism) || n.Strategy.Personality == nation.PersonalityExpansionist:
		return nation.FocusExpand
	case len(n.Allies) == 0 && n.Strategy.ThreatLevel > 0.25:
		return nation.FocusAlly
	default:
		return nation.FocusConsolidate
	}
}

// baseWarChance is the per-tick ceiling before personality and desperation
// scaling. Kept deliberately tiny so wars stay rare events.
const baseWarChance = 0.005

// personalityWarFactor scales appetite for war by temperament.
func personalityWarFactor(p nation.Personality) float64 {
	switch p {
	case nation.PersonalityExpansionist:
		return 2.0
	case nation.PersonalityOpportunist:
		return 1.5
	case nation.PersonalityIdeological:
		return 1.2
	case nation.PersonalityDefensive:
		return 0.4
	case nation.PersonalityTradingPower:
		return 0.3
	case nation.PersonalityIsolationist:
		return 0.1
	}
	return 0.5
}

// deterrenceFactor damps war chance by the target's coalition-adjusted
// strength relative to the aggressor.
func deterrenceFactor(ratio float64) float64 {
	switch {
	case ratio > 5:
		return 0.02
	case ratio > 3:
		return 0.1
	case ratio > 2:
		return 0.3
	case ratio > 1.5:
		return 0.6
	default:
		return 1
	}
}

// distanceFactor decays sharply with range: neighbors fight, antipodes
// do not.
func distanceFactor(km float64) float64 {
	if km <= 1000 {
		return 1
	}
	return math.Exp(-(km - 1000) / 3000)
}

// WarChance computes the per-tick probability that n declares war on
// target. Zero when the pair shares a military coalition or when n is
// coalition-restrained without a genuine grievance.
func (w *World) WarChance(n, target *nation.Nation) float64 {
	if n == nil || !target.Actionable() || n.Code == target.Code {
		return 0
	}
	if w.Coalitions.SharedMilitary(n.Code, target.Code) {
		return 0
	}

	rel := n.RelationsWith(target.Code)
	if w.Coalitions.MilitaryCoalitionOf(n.Code) != nil && !genuineReason(n, rel) {
		return 0
	}

	chance := baseWarChance
	chance *= personalityWarFactor(n.Strategy.Personality)
	chance *= 1 + n.TerritoryLost/25 // desperation
	if n.Modifiers.Has(nation.ModRevanchism) {
		chance *= 2
	}
	chance *= distanceFactor(w.Reg.DistanceBetween(n.Code, target.Code))

	targetStrength := float64(target.Soldiers)
	if c := w.Coalitions.MilitaryCoalitionOf(target.Code); c != nil {
		targetStrength = float64(w.Coalitions.CombinedSoldiers(c, ""))
	}
	own := float64(n.Soldiers)
	if own < 1 {
		own = 1
	}
	chance *= deterrenceFactor(targetStrength / own)

	return math.Min(chance, 0.15)
}

// genuineReason is the grievance test that releases a coalition member from
// its own coalition's restraint.
func genuineReason(n *nation.Nation, relationsWithTarget int) bool {
	return (n.Strategy != nil && n.Strategy.Aggression >= 4) ||
		n.TerritoryLost > 10 ||
		relationsWithTarget < -30
}

// ApproveWar applies the double gate on a queued DECLARE_WAR against target
// and rolls the damped probability. Returns true when the declaration
// should go ahead; the queued action is consumed either way only by the
// caller.
func (w *World) ApproveWar(n *nation.Nation, target nation.Code) bool {
	if n == nil || n.Strategy == nil {
		return false
	}
	queued := false
	for _, a := range n.Strategy.Queue {
		if a.Type == nation.ActionDeclareWar && a.Target == target {
			queued = true
			break
		}
	}
	if !queued {
		return false
	}
	rel := n.RelationsWith(target)
	if rel > -50 && !n.Modifiers.Has(nation.ModRevanchism) {
		return false
	}
	t := w.Reg.Get(target)
	if t == nil {
		return false
	}
	return w.Rng.Float() < w.WarChance(n, t)
}
