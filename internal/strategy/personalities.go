package strategy

import (
	"github.com/talgya/hegemon/internal/nation"
)

// queue builds an action list, dropping entries with no target where one
// was required.
func queue(actions ...nation.Action) []nation.Action {
	out := actions[:0]
	for _, a := range actions {
		if a.Target == "" && a.Type != nation.ActionBuildMilitary {
			continue
		}
		out = append(out, a)
	}
	return out
}

// rivals returns actionable nations, coldest relations first, that n could
// plausibly reach. The player polity is a candidate like any other.
func (w *World) rivals(n *nation.Nation, maxKm float64) []*nation.Nation {
	var out []*nation.Nation
	for _, other := range w.Reg.All() {
		if other.Code == n.Code || !other.Actionable() {
			continue
		}
		if maxKm > 0 && !other.IsPlayer && w.Reg.DistanceBetween(n.Code, other.Code) > maxKm {
			continue
		}
		out = append(out, other)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && n.RelationsWith(out[j].Code) < n.RelationsWith(out[j-1].Code); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// coldestRival returns the reachable nation n likes least, or nil.
func (w *World) coldestRival(n *nation.Nation, maxKm float64) *nation.Nation {
	rs := w.rivals(n, maxKm)
	if len(rs) == 0 {
		return nil
	}
	return rs[0]
}

// warmestStranger returns the non-ally nation n likes most, or nil.
func (w *World) warmestStranger(n *nation.Nation) *nation.Nation {
	rs := w.rivals(n, 0)
	for i := len(rs) - 1; i >= 0; i-- {
		if !n.HasAlly(rs[i].Code) && !w.Wars.AtWar(n.Code, rs[i].Code) {
			return rs[i]
		}
	}
	return nil
}

// expansionist hunts weak neighbors and keeps its army growing.
type expansionist struct{}

func (expansionist) Assess(n *nation.Nation, w *World) []nation.Action {
	target := w.coldestRival(n, 4000)
	if target == nil {
		return queue(nation.Action{Type: nation.ActionBuildMilitary})
	}
	rel := n.RelationsWith(target.Code)
	if rel <= -50 || n.Modifiers.Has(nation.ModRevanchism) {
		n.Strategy.Aggression++
		return queue(
			nation.Action{Type: nation.ActionDeclareWar, Target: target.Code},
			nation.Action{Type: nation.ActionBuildMilitary},
		)
	}
	if rel < 0 && target.Soldiers < n.Soldiers/2 {
		return queue(
			nation.Action{Type: nation.ActionDemandTerritory, Target: target.Code},
			nation.Action{Type: nation.ActionBuildMilitary},
		)
	}
	return queue(nation.Action{Type: nation.ActionBuildMilitary})
}

// opportunist strikes nations already weakened and trades with the rest.
type opportunist struct{}

func (opportunist) Assess(n *nation.Nation, w *World) []nation.Action {
	for _, r := range w.rivals(n, 5000) {
		weakened := r.Modifiers.Has(nation.ModDestabilized) ||
			r.Modifiers.Has(nation.ModSeparatistUnrest) ||
			len(w.Wars.ActiveFor(r.Code)) > 0
		if weakened && n.RelationsWith(r.Code) <= -50 {
			n.Strategy.Aggression++
			return queue(nation.Action{Type: nation.ActionDeclareWar, Target: r.Code})
		}
	}
	if friend := w.warmestStranger(n); friend != nil {
		return queue(nation.Action{Type: nation.ActionTradeAgreement, Target: friend.Code})
	}
	return nil
}

// defensive builds and befriends; it starts nothing.
type defensive struct{}

func (defensive) Assess(n *nation.Nation, w *World) []nation.Action {
	if n.Strategy.ThreatLevel > 0.3 {
		actions := []nation.Action{{Type: nation.ActionBuildMilitary}}
		if friend := w.warmestStranger(n); friend != nil && n.RelationsWith(friend.Code) > 50 {
			actions = append(actions, nation.Action{Type: nation.ActionProposeAlliance, Target: friend.Code})
		}
		return queue(actions...)
	}
	if friend := w.warmestStranger(n); friend != nil {
		return queue(nation.Action{Type: nation.ActionImproveRelations, Target: friend.Code})
	}
	return nil
}

// isolationist mostly abstains.
type isolationist struct{}

func (isolationist) Assess(n *nation.Nation, w *World) []nation.Action {
	if n.Strategy.ThreatLevel > 0.5 {
		return queue(nation.Action{Type: nation.ActionBuildMilitary})
	}
	if w.Rng.Float() < 0.05 {
		if friend := w.warmestStranger(n); friend != nil {
			return queue(nation.Action{Type: nation.ActionImproveRelations, Target: friend.Code})
		}
	}
	return nil
}

// tradingPower courts everyone and punishes embargoes with sanctions.
type tradingPower struct{}

func (tradingPower) Assess(n *nation.Nation, w *World) []nation.Action {
	var actions []nation.Action
	if friend := w.warmestStranger(n); friend != nil {
		if n.AgreementWith(friend.Code, nation.AgreementTrade) == nil {
			actions = append(actions, nation.Action{Type: nation.ActionTradeAgreement, Target: friend.Code})
		} else {
			actions = append(actions, nation.Action{Type: nation.ActionImproveRelations, Target: friend.Code})
		}
	}
	if cold := w.coldestRival(n, 0); cold != nil && n.RelationsWith(cold.Code) <= -60 {
		actions = append(actions, nation.Action{Type: nation.ActionSanction, Target: cold.Code})
	}
	return queue(actions...)
}

// ideological aligns with kindred orientations and confronts opposites.
type ideological struct{}

func (ideological) Assess(n *nation.Nation, w *World) []nation.Action {
	var kin, foe *nation.Nation
	var kinGap, foeGap int
	for _, other := range w.rivals(n, 0) {
		gap := n.Political.Orientation - other.Political.Orientation
		if gap < 0 {
			gap = -gap
		}
		if gap <= 30 && (kin == nil || gap < kinGap) {
			kin, kinGap = other, gap
		}
		if gap >= 120 && (foe == nil || gap > foeGap) {
			foe, foeGap = other, gap
		}
	}

	var actions []nation.Action
	if foe != nil {
		if n.RelationsWith(foe.Code) <= -50 {
			n.Strategy.Aggression++
			actions = append(actions, nation.Action{Type: nation.ActionDeclareWar, Target: foe.Code})
		} else {
			actions = append(actions, nation.Action{Type: nation.ActionSanction, Target: foe.Code})
		}
	}
	if kin != nil && !n.HasAlly(kin.Code) {
		actions = append(actions, nation.Action{Type: nation.ActionProposeAlliance, Target: kin.Code})
	}
	return queue(actions...)
}
