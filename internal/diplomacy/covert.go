// Covert actions — budget-for-effect trades with standing diplomatic costs.
package diplomacy

import (
	"fmt"
	"log/slog"

	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/nation"
)

// Fixed budget costs. Balance parameters.
const (
	costDestabilize     = 500_000
	costFundSeparatists = 350_000
	costPropaganda      = 200_000
)

// spendBudget deducts cost from the actor's treasury if it can afford it.
// No mutation occurs on failure.
func (o *Office) spendBudget(actor *nation.Nation, cost float64) error {
	if actor.Economy < cost {
		return fmt.Errorf("insufficient budget: need %.0f, have %.0f", cost, actor.Economy)
	}
	actor.Economy -= cost
	return nil
}

// Destabilize covertly degrades the target's military: soldiers drop 15–25%
// and the DESTABILIZED modifier sticks. Discovery is assumed — relations
// fall by 40.
func (o *Office) Destabilize(actor, target nation.Code, tick uint64) (string, error) {
	a, b := o.Reg.Get(actor), o.Reg.Get(target)
	if a == nil || !b.Actionable() {
		return "", fmt.Errorf("no such nation")
	}
	if err := o.spendBudget(a, costDestabilize); err != nil {
		return "", err
	}

	cut := 0.15 + 0.10*o.Rng.Float()
	lost := int(float64(b.Soldiers) * cut)
	o.Reg.AdjustSoldiers(target, -lost)
	b.Modifiers.Add(nation.ModDestabilized)
	b.Political.Unrest = clamp100(b.Political.Unrest + 15)
	o.Reg.AdjustBilateral(actor, target, -40)
	o.Reg.RecomputePower(b)

	desc := fmt.Sprintf("Unrest sweeps through %s; its army loses %d soldiers to desertion", b.Name, lost)
	o.Events.Emit(event.Event{
		Type:        event.TypeCovert,
		Severity:    event.SeverityMajor,
		Title:       "Destabilization campaign",
		Description: desc,
		Affected:    []string{string(target)},
		Tick:        tick,
	})
	slog.Info("destabilize", "actor", actor, "target", target, "soldiers_lost", lost)
	return desc, nil
}

// FundSeparatists arms internal opposition: the target's composite power
// drops about 20% through economic collapse, unrest, and militia
// defections, and the SEPARATIST_UNREST modifier sticks. Relations fall
// by 30.
func (o *Office) FundSeparatists(actor, target nation.Code, tick uint64) (string, error) {
	a, b := o.Reg.Get(actor), o.Reg.Get(target)
	if a == nil || !b.Actionable() {
		return "", fmt.Errorf("no such nation")
	}
	if err := o.spendBudget(a, costFundSeparatists); err != nil {
		return "", err
	}

	b.Economy *= 0.65
	defected := int(float64(b.Soldiers) * 0.10)
	o.Reg.AdjustSoldiers(target, -defected)
	b.Authority = clamp100(b.Authority - 15)
	b.Political.Unrest = clamp100(b.Political.Unrest + 35)
	b.Political.Stability = clamp100(b.Political.Stability - 20)
	b.Modifiers.Add(nation.ModSeparatistUnrest)
	o.Reg.AdjustBilateral(actor, target, -30)
	o.Reg.RecomputePower(b)

	desc := fmt.Sprintf("Separatist militias funded from abroad erode the authority of %s", b.Name)
	o.Events.Emit(event.Event{
		Type:        event.TypeCovert,
		Severity:    event.SeverityMajor,
		Title:       "Separatists funded",
		Description: desc,
		Affected:    []string{string(target)},
		Tick:        tick,
	})
	return desc, nil
}

// PlantPropaganda seeds friendly narratives: relations improve by 15 and
// the PROPAGANDA modifier sticks. The one covert action with no standing
// penalty.
func (o *Office) PlantPropaganda(actor, target nation.Code, tick uint64) (string, error) {
	a, b := o.Reg.Get(actor), o.Reg.Get(target)
	if a == nil || !b.Actionable() {
		return "", fmt.Errorf("no such nation")
	}
	if err := o.spendBudget(a, costPropaganda); err != nil {
		return "", err
	}

	o.Reg.AdjustBilateral(actor, target, 15)
	b.Modifiers.Add(nation.ModPropaganda)

	desc := fmt.Sprintf("Sympathetic coverage floods the airwaves of %s", b.Name)
	o.Events.Emit(event.Event{
		Type:        event.TypeCovert,
		Severity:    event.SeverityMinor,
		Title:       "Propaganda planted",
		Description: desc,
		Affected:    []string{string(target)},
		Tick:        tick,
	})
	return desc, nil
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
