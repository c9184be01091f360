// Soft power — influence-point actions short of coercion.
package diplomacy

import (
	"fmt"

	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/nation"
)

// InfluenceAction enumerates the soft-power instruments.
type InfluenceAction string

const (
	InfluenceCulturalExchange InfluenceAction = "cultural_exchange"
	InfluenceBroadcast        InfluenceAction = "propaganda_broadcast"
	InfluenceEspionage        InfluenceAction = "espionage"
	InfluenceElection         InfluenceAction = "election_interference"
)

// influenceCosts in influence points.
var influenceCosts = map[InfluenceAction]float64{
	InfluenceCulturalExchange: 20,
	InfluenceBroadcast:        30,
	InfluenceEspionage:        40,
	InfluenceElection:         60,
}

// ExecuteInfluence spends the actor's influence points on a soft-power
// action against the target. Insufficient points fail with a message and no
// state change.
func (o *Office) ExecuteInfluence(actor, target nation.Code, action InfluenceAction, tick uint64) (string, error) {
	a, b := o.Reg.Get(actor), o.Reg.Get(target)
	if a == nil || !b.Actionable() {
		return "", fmt.Errorf("no such nation")
	}
	cost, ok := influenceCosts[action]
	if !ok {
		return "", fmt.Errorf("unknown influence action %q", action)
	}
	if a.Influence < cost {
		return "", fmt.Errorf("insufficient influence: need %.0f, have %.0f", cost, a.Influence)
	}
	a.Influence -= cost

	var desc string
	sev := event.SeverityMinor
	switch action {
	case InfluenceCulturalExchange:
		o.Reg.AdjustBilateral(actor, target, 10)
		desc = fmt.Sprintf("A cultural exchange program warms public opinion in %s", b.Name)
	case InfluenceBroadcast:
		o.Reg.AdjustBilateral(actor, target, 15)
		b.Modifiers.Add(nation.ModPropaganda)
		desc = fmt.Sprintf("Foreign broadcasts sway sentiment across %s", b.Name)
	case InfluenceEspionage:
		// Stolen readiness plans: a small, quiet military edge.
		o.Reg.AdjustSoldiers(target, -b.Soldiers/20)
		o.Reg.RecomputePower(b)
		desc = fmt.Sprintf("An intelligence operation compromises military readiness in %s", b.Name)
		sev = event.SeverityMajor
	case InfluenceElection:
		// Nudge the target's ideology toward the actor's. Exposure risk:
		// a third of attempts leak and cost 30 relations instead.
		if o.Rng.Float() < 0.33 {
			o.Reg.AdjustBilateral(actor, target, -30)
			desc = fmt.Sprintf("An election interference operation in %s is exposed", b.Name)
			sev = event.SeverityMajor
		} else {
			shift := (a.Political.Orientation - b.Political.Orientation) / 4
			b.Political.Orientation += shift
			o.Reg.AdjustBilateral(actor, target, 5)
			desc = fmt.Sprintf("Quiet hands tilt the political landscape of %s", b.Name)
		}
	}

	o.Events.Emit(event.Event{
		Type:        event.TypeInfluence,
		Severity:    sev,
		Title:       "Influence action",
		Description: desc,
		Affected:    []string{string(target)},
		Tick:        tick,
	})
	return desc, nil
}
