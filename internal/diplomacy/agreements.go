// Agreements and tariffs — the bread-and-butter instruments.
package diplomacy

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/nation"
)

// ProposeAgreement rolls the target's acceptance and, on success, records
// the agreement on both parties and improves relations by 10. A rejection
// sours relations by 2. Returns whether the proposal was accepted.
func (o *Office) ProposeAgreement(actor, target nation.Code, t nation.AgreementType, tick uint64) (bool, error) {
	a, b := o.Reg.Get(actor), o.Reg.Get(target)
	if !a.Actionable() || !b.Actionable() || actor == target {
		return false, fmt.Errorf("no such nation available for agreement")
	}
	if o.Wars.AtWar(actor, target) {
		return false, fmt.Errorf("%s is at war with %s", a.Name, b.Name)
	}
	if b.AgreementWith(actor, t) != nil {
		return false, fmt.Errorf("an equivalent agreement already stands")
	}

	relations := b.RelationsWith(actor)
	if o.Rng.Float() >= acceptChance(t, relations) {
		o.Reg.AdjustBilateral(actor, target, -2)
		slog.Debug("agreement rejected", "actor", actor, "target", target, "type", t, "relations", relations)
		return false, nil
	}

	now := time.Now().UTC()
	record := func(n *nation.Nation, with nation.Code) {
		n.Agreements = append(n.Agreements, nation.Agreement{
			ID:         uuid.NewString(),
			Type:       t,
			With:       with,
			SignedTick: tick,
			SignedAt:   now,
		})
	}
	record(a, target)
	record(b, actor)
	o.Reg.AdjustBilateral(actor, target, 10)

	if t == nation.AgreementMilitaryAlliance {
		o.Reg.AddAlly(actor, target)
	}
	if t == nation.AgreementFreeTrade {
		a.Tariff = nation.TariffFreeTrade
		b.Tariff = nation.TariffFreeTrade
		a.TheirTariff = nation.TariffFreeTrade
		b.TheirTariff = nation.TariffFreeTrade
	}

	o.Reg.RecomputePower(a)
	o.Reg.RecomputePower(b)
	o.Events.Emit(event.Event{
		Type:        event.TypeAgreement,
		Severity:    event.SeverityMinor,
		Title:       "Agreement signed",
		Description: fmt.Sprintf("%s and %s have signed a %s agreement", a.Name, b.Name, t),
		Affected:    []string{string(actor), string(target)},
		Tick:        tick,
	})
	return true, nil
}

// BreakAgreement tears up a standing agreement by id. Always succeeds when
// the agreement exists, always costly: relations drop by 40 and any
// alliance it carried is revoked.
func (o *Office) BreakAgreement(actor, target nation.Code, agreementID string, tick uint64) bool {
	a, b := o.Reg.Get(actor), o.Reg.Get(target)
	if a == nil || b == nil {
		return false
	}

	var broken *nation.Agreement
	for i := range a.Agreements {
		if a.Agreements[i].ID == agreementID && a.Agreements[i].With == target {
			broken = &a.Agreements[i]
			a.Agreements = append(a.Agreements[:i], a.Agreements[i+1:]...)
			break
		}
	}
	if broken == nil {
		return false
	}
	// Remove the counterparty's mirrored record of the same type.
	for i := range b.Agreements {
		if b.Agreements[i].With == actor && b.Agreements[i].Type == broken.Type {
			b.Agreements = append(b.Agreements[:i], b.Agreements[i+1:]...)
			break
		}
	}

	o.Reg.AdjustBilateral(actor, target, -40)
	if broken.Type == nation.AgreementMilitaryAlliance {
		o.Reg.RemoveAlly(actor, target)
	}
	o.Reg.RecomputePower(a)
	o.Reg.RecomputePower(b)

	o.Events.Emit(event.Event{
		Type:        event.TypeAgreement,
		Severity:    event.SeverityMajor,
		Title:       "Agreement broken",
		Description: fmt.Sprintf("%s has unilaterally broken its %s agreement with %s", a.Name, broken.Type, b.Name),
		Affected:    []string{string(actor), string(target)},
		Tick:        tick,
	})
	slog.Info("agreement broken", "actor", actor, "target", target, "type", broken.Type)
	return true
}

// tariffRelationDelta is the deterministic diplomatic cost of each level.
func tariffRelationDelta(level nation.Tariff) int {
	switch level {
	case nation.TariffFreeTrade:
		return 10
	case nation.TariffHigh:
		return -10
	case nation.TariffEmbargo:
		return -50
	}
	return 0 // none and low are diplomatically neutral
}

// SetTariff sets the actor's trade barrier against the target and applies
// the deterministic relations delta.
func (o *Office) SetTariff(actor, target nation.Code, level nation.Tariff, tick uint64) bool {
	a, b := o.Reg.Get(actor), o.Reg.Get(target)
	if a == nil || !b.Actionable() {
		return false
	}

	switch {
	case actor == nation.CodePlayer:
		b.Tariff = level
	case target == nation.CodePlayer:
		a.TheirTariff = level
	}
	// AI-to-AI tariffs carry no stored level, only the diplomatic cost.
	o.Reg.AdjustBilateral(actor, target, tariffRelationDelta(level))

	if level == nation.TariffEmbargo {
		o.Events.Emit(event.Event{
			Type:        event.TypeTariff,
			Severity:    event.SeverityMajor,
			Title:       "Embargo imposed",
			Description: fmt.Sprintf("%s has imposed a full embargo on %s", a.Name, b.Name),
			Affected:    []string{string(actor), string(target)},
			Tick:        tick,
		})
	}
	return true
}
