// AI action consumption: each tick the director queues intents, and the
// orchestrator realizes them here. War declarations are the only intent
// that can wait in the queue across ticks; everything else is consumed the
// tick it is attempted.
package engine

import (
	"log/slog"

	"github.com/talgya/hegemon/internal/combat"
	"github.com/talgya/hegemon/internal/diplomacy"
	"github.com/talgya/hegemon/internal/nation"
)

// consumeQueue realizes a nation's queued actions for this tick.
func (s *Simulation) consumeQueue(n *nation.Nation, tick uint64) {
	if n.Strategy == nil || len(n.Strategy.Queue) == 0 {
		return
	}

	var remaining []nation.Action
	for _, a := range n.Strategy.Queue {
		if s.applyAction(n, a, tick) {
			continue
		}
		remaining = append(remaining, a)
	}
	n.Strategy.Queue = remaining
}

// applyAction executes one intent. Returns true when the action is
// consumed, false when it should stay queued for another attempt.
func (s *Simulation) applyAction(n *nation.Nation, a nation.Action, tick uint64) bool {
	switch a.Type {
	case nation.ActionDeclareWar:
		return s.applyDeclareWar(n, a.Target, tick)

	case nation.ActionDemandTerritory:
		target := s.Reg.Get(a.Target)
		if !target.Actionable() || target.IsPlayer {
			return true
		}
		// Concessions are rare; refusal breeds grievance.
		if target.Soldiers < n.Soldiers/3 && s.Rng.Float() < 0.2 {
			s.Reg.UpdateOccupation(a.Target, 5)
			slog.Info("territorial demand conceded", "demander", n.Code, "target", a.Target)
		} else {
			s.Reg.AdjustBilateral(n.Code, a.Target, -10)
			n.Strategy.Aggression++
		}
		return true

	case nation.ActionBuildMilitary:
		growth := n.Soldiers / 50
		if growth < 500 {
			growth = 500
		}
		s.Reg.AdjustSoldiers(n.Code, growth)
		return true

	case nation.ActionProposeAlliance:
		s.Diplomacy.ProposeAgreement(n.Code, a.Target, nation.AgreementMilitaryAlliance, tick)
		return true

	case nation.ActionTradeAgreement:
		s.Diplomacy.ProposeAgreement(n.Code, a.Target, nation.AgreementTrade, tick)
		return true

	case nation.ActionSanction:
		s.Diplomacy.SetTariff(n.Code, a.Target, nation.TariffEmbargo, tick)
		return true

	case nation.ActionImproveRelations:
		s.Reg.AdjustBilateral(n.Code, a.Target, 5)
		return true
	}
	return true
}

// applyDeclareWar rolls the double-gated declaration. A stale intent whose
// grievance has evaporated is dropped; a live one that fails the
// probability roll stays queued.
func (s *Simulation) applyDeclareWar(n *nation.Nation, target nation.Code, tick uint64) bool {
	t := s.Reg.Get(target)
	if !t.Actionable() {
		return true
	}
	rel := n.RelationsWith(target)
	if rel > -50 && !n.Modifiers.Has(nation.ModRevanchism) {
		return true // grievance gone, intent dropped
	}
	if !s.Director.World().ApproveWar(n, target) {
		return false
	}

	w := s.Wars.Open(n.Code, target, combat.IntensityStandard, tick)
	if w == nil {
		return true
	}
	s.Coalitions.InvokeArticle5(n.Code, target, tick)
	return true
}

// driveCrises makes AI participants act in open crises and closes summits
// the participants have let sit. Consumed once per simulated month.
func (s *Simulation) driveCrises(tick uint64) {
	for _, c := range s.Diplomacy.Crises() {
		if c.Resolved {
			continue
		}
		for _, code := range []nation.Code{c.Initiator, c.Target} {
			n := s.Reg.Get(code)
			if n == nil || n.IsPlayer || n.Annexed {
				continue
			}
			if c.Resolved {
				break
			}
			s.Diplomacy.CrisisMove(c.ID, code, s.pickCrisisAction(n, c), tick)
		}
	}

	for _, su := range s.Diplomacy.Summits() {
		if !su.Concluded && tick > su.OpenedTick+1 {
			s.Diplomacy.ConcludeSummit(su.ID, tick)
		}
	}
}

// pickCrisisAction weighs a participant's temperament against how deep the
// crisis has run. Escalation is never the likely choice.
func (s *Simulation) pickCrisisAction(n *nation.Nation, c *diplomacy.Crisis) diplomacy.CrisisAction {
	escalate := 0.08
	if n.Strategy != nil {
		escalate *= personalityEscalation(n.Strategy.Personality)
	}
	backDown := 0.10 + 0.08*float64(c.Phase-1)
	if s.isOutgunned(n, c) {
		backDown += 0.2
	}

	mediate := 0.2
	if !diplomacy.ActionAllowed(c.Phase, diplomacy.ActionSeekMediation) {
		mediate = 0
	}

	roll := s.Rng.Float()
	switch {
	case roll < escalate:
		return diplomacy.ActionEscalate
	case roll < escalate+backDown:
		return diplomacy.ActionBackDown
	case roll < escalate+backDown+mediate:
		return diplomacy.ActionSeekMediation
	default:
		return diplomacy.ActionHoldFirm
	}
}

func personalityEscalation(p nation.Personality) float64 {
	switch p {
	case nation.PersonalityExpansionist:
		return 2.5
	case nation.PersonalityOpportunist:
		return 1.8
	case nation.PersonalityIdeological:
		return 1.4
	case nation.PersonalityDefensive, nation.PersonalityIsolationist:
		return 0.3
	}
	return 1
}

// isOutgunned compares coalition-adjusted strength across a crisis.
func (s *Simulation) isOutgunned(n *nation.Nation, c *diplomacy.Crisis) bool {
	other := c.Target
	if n.Code == c.Target {
		other = c.Initiator
	}
	o := s.Reg.Get(other)
	if o == nil {
		return false
	}
	own, theirs := float64(n.Soldiers), float64(o.Soldiers)
	if co := s.Coalitions.MilitaryCoalitionOf(n.Code); co != nil {
		own = float64(s.Coalitions.CombinedSoldiers(co, ""))
	}
	if co := s.Coalitions.MilitaryCoalitionOf(other); co != nil {
		theirs = float64(s.Coalitions.CombinedSoldiers(co, ""))
	}
	return theirs > own*2
}
