package diplomacy

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/hegemon/internal/combat"
	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/nation"
)

// CrisisPhase runs 1 through 5. Phase 5 means war has broken out.
type CrisisPhase uint8

const (
	PhaseIncident CrisisPhase = iota + 1
	PhaseDemands
	PhaseUltimatum
	PhaseMobilization
	PhaseWar
)

func (p CrisisPhase) String() string {
	switch p {
	case PhaseIncident:
		return "incident"
	case PhaseDemands:
		return "demands"
	case PhaseUltimatum:
		return "ultimatum"
	case PhaseMobilization:
		return "mobilization"
	case PhaseWar:
		return "war"
	}
	return "unknown"
}

// CrisisAction is a move either participant can make during a crisis.
type CrisisAction string

const (
	ActionBackDown      CrisisAction = "back_down"
	ActionHoldFirm      CrisisAction = "hold_firm"
	ActionEscalate      CrisisAction = "escalate"
	ActionSeekMediation CrisisAction = "seek_mediation"
	ActionProposeSummit CrisisAction = "propose_summit"
)

// Crisis is a bilateral standoff that can escalate to war one phase at a
// time. Only ESCALATE ever advances the phase; every other action holds or
// resolves it.
type Crisis struct {
	ID          string      `json:"id"`
	Initiator   nation.Code `json:"initiator"`
	Target      nation.Code `json:"target"`
	Phase       CrisisPhase `json:"phase"`
	StartedTick uint64      `json:"started_tick"`
	Resolved    bool        `json:"resolved"`
	Outcome     string      `json:"outcome,omitempty"`
}

// StartCrisis opens a phase-1 crisis between two nations.
func (o *Office) StartCrisis(initiator, target nation.Code, tick uint64) (*Crisis, error) {
	a := o.Reg.Get(initiator)
	b := o.Reg.Get(target)
	if !a.Actionable() || !b.Actionable() {
		return nil, fmt.Errorf("no such nation")
	}
	if initiator == target {
		return nil, fmt.Errorf("a nation cannot open a crisis with itself")
	}
	if o.Wars.Between(initiator, target) != nil {
		return nil, fmt.Errorf("%s and %s are already at war", a.Name, b.Name)
	}
	if o.CrisisBetween(initiator, target) != nil {
		return nil, fmt.Errorf("a crisis between %s and %s is already underway", a.Name, b.Name)
	}
	c := &Crisis{
		ID:          uuid.NewString(),
		Initiator:   initiator,
		Target:      target,
		Phase:       PhaseIncident,
		StartedTick: tick,
	}
	o.crises = append(o.crises, c)
	o.Reg.AdjustBilateral(initiator, target, -10)
	o.Events.Emit(event.Event{
		Type:        event.TypeCrisis,
		Severity:    event.SeverityMajor,
		Title:       "Crisis erupts",
		Description: fmt.Sprintf("A diplomatic incident between %s and %s has sparked a crisis", a.Name, b.Name),
		Affected:    []string{string(initiator), string(target)},
		Tick:        tick,
	})
	return c, nil
}

// Crises returns every crisis record, resolved included.
func (o *Office) Crises() []*Crisis { return o.crises }

// Crisis returns a crisis by id, or nil.
func (o *Office) Crisis(id string) *Crisis {
	for _, c := range o.crises {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// CrisisBetween returns the unresolved crisis involving both nations, or nil.
func (o *Office) CrisisBetween(a, b nation.Code) *Crisis {
	for _, c := range o.crises {
		if c.Resolved {
			continue
		}
		if (c.Initiator == a && c.Target == b) || (c.Initiator == b && c.Target == a) {
			return c
		}
	}
	return nil
}

// ActionAllowed reports whether an action is still on the table at the
// given phase. The option space narrows as a crisis deepens: summits are
// off once an ultimatum stands, and mediation once armies mobilize. Only
// backing down, holding firm, and escalating survive to the end.
func ActionAllowed(p CrisisPhase, a CrisisAction) bool {
	switch a {
	case ActionProposeSummit:
		return p < PhaseUltimatum
	case ActionSeekMediation:
		return p < PhaseMobilization
	}
	return true
}

// CrisisMove applies one action by a crisis participant. Returns a
// description of what happened.
func (o *Office) CrisisMove(id string, actor nation.Code, action CrisisAction, tick uint64) (string, error) {
	c := o.Crisis(id)
	if c == nil || c.Resolved {
		return "", fmt.Errorf("no active crisis with id %s", id)
	}
	if actor != c.Initiator && actor != c.Target {
		return "", fmt.Errorf("%s is not a party to this crisis", actor)
	}
	if !ActionAllowed(c.Phase, action) {
		return "", fmt.Errorf("%s is no longer available at phase %d (%s)", action, c.Phase, c.Phase)
	}
	other := c.Target
	if actor == c.Target {
		other = c.Initiator
	}

	switch action {
	case ActionBackDown:
		return o.crisisBackDown(c, actor, other, tick)
	case ActionHoldFirm:
		// Holding firm neither advances nor resolves.
		return fmt.Sprintf("%s holds firm; the crisis remains at phase %d (%s)",
			nameOf(o.Reg, actor), c.Phase, c.Phase), nil
	case ActionSeekMediation:
		return o.crisisMediation(c, actor, other, tick)
	case ActionProposeSummit:
		s, err := o.ProposeSummit(actor, other, "crisis de-escalation", tick)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s proposes an emergency summit (%s); the crisis holds at phase %d",
			nameOf(o.Reg, actor), s.ID, c.Phase), nil
	case ActionEscalate:
		return o.crisisEscalate(c, actor, other, tick)
	}
	return "", fmt.Errorf("unknown crisis action %q", action)
}

func (o *Office) crisisBackDown(c *Crisis, actor, other nation.Code, tick uint64) (string, error) {
	c.Resolved = true
	c.Outcome = fmt.Sprintf("%s backed down", actor)
	if n := o.Reg.Get(actor); n != nil {
		// Capitulating past the ultimatum stage reads as a national humiliation.
		if c.Phase >= PhaseUltimatum {
			n.Modifiers.Add(nation.ModHumiliated)
		}
		n.Political.Stability = clamp100(n.Political.Stability - 10)
	}
	o.Reg.AdjustBilateral(actor, other, +15)
	o.Events.Emit(event.Event{
		Type:        event.TypeCrisis,
		Severity:    event.SeverityMinor,
		Title:       "Crisis defused",
		Description: fmt.Sprintf("%s backs down; the standoff with %s is over", nameOf(o.Reg, actor), nameOf(o.Reg, other)),
		Affected:    []string{string(actor), string(other)},
		Tick:        tick,
	})
	return fmt.Sprintf("%s backs down and the crisis ends", nameOf(o.Reg, actor)), nil
}

func (o *Office) crisisMediation(c *Crisis, actor, other nation.Code, tick uint64) (string, error) {
	// Mediation can step tensions back but never forward. Success gets
	// harder the deeper the crisis runs.
	chance := 0.6 - 0.1*float64(c.Phase-PhaseIncident)
	if o.Rng.Float() >= chance {
		return fmt.Sprintf("mediation efforts by %s stall; the crisis holds at phase %d",
			nameOf(o.Reg, actor), c.Phase), nil
	}
	if c.Phase > PhaseIncident {
		c.Phase--
		return fmt.Sprintf("third-party mediation cools the crisis to phase %d (%s)", c.Phase, c.Phase), nil
	}
	c.Resolved = true
	c.Outcome = "resolved through mediation"
	o.Reg.AdjustBilateral(actor, other, +10)
	o.Events.Emit(event.Event{
		Type:        event.TypeCrisis,
		Severity:    event.SeverityMinor,
		Title:       "Crisis mediated",
		Description: fmt.Sprintf("Mediators resolve the standoff between %s and %s", nameOf(o.Reg, actor), nameOf(o.Reg, other)),
		Affected:    []string{string(actor), string(other)},
		Tick:        tick,
	})
	return "mediation succeeds and the crisis ends", nil
}

// crisisEscalate advances exactly one phase. Reaching phase 5 declares war.
func (o *Office) crisisEscalate(c *Crisis, actor, other nation.Code, tick uint64) (string, error) {
	if c.Phase >= PhaseWar {
		return "", fmt.Errorf("the crisis has already reached war")
	}
	c.Phase++
	o.Reg.AdjustBilateral(actor, other, -10)

	if c.Phase == PhaseMobilization {
		for _, code := range []nation.Code{c.Initiator, c.Target} {
			if n := o.Reg.Get(code); n != nil && !n.IsPlayer {
				n.Modifiers.Add(nation.ModMobilized)
			}
		}
	}

	if c.Phase < PhaseWar {
		o.Events.Emit(event.Event{
			Type:        event.TypeCrisis,
			Severity:    event.SeverityMajor,
			Title:       "Crisis escalates",
			Description: fmt.Sprintf("The crisis between %s and %s escalates to %s", nameOf(o.Reg, c.Initiator), nameOf(o.Reg, c.Target), c.Phase),
			Affected:    []string{string(c.Initiator), string(c.Target)},
			Tick:        tick,
		})
		return fmt.Sprintf("%s escalates; the crisis is now at phase %d (%s)", nameOf(o.Reg, actor), c.Phase, c.Phase), nil
	}

	c.Resolved = true
	c.Outcome = "escalated to war"
	w := o.Wars.Open(actor, other, combat.IntensityStandard, tick)
	if w == nil {
		return "", fmt.Errorf("crisis reached war but the declaration was refused")
	}
	return fmt.Sprintf("the crisis boils over: %s declares war on %s (war %s)",
		nameOf(o.Reg, actor), nameOf(o.Reg, other), w.ID), nil
}
