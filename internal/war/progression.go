// War progression — one rate-limited battle resolution per war per real-time
// interval, with partial-success semantics: the military and relations
// outcome always lands even when the deferred territory transfer does not.
package war

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/hegemon/internal/combat"
	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/geo"
	"github.com/talgya/hegemon/internal/nation"
)

// Advance steps every active war that is due for a battle and applies
// terminal conditions. Called once per tick by the orchestrator.
func (l *Ledger) Advance(tick uint64) {
	for _, w := range l.Active() {
		l.Step(w, tick)
	}
}

// Step runs one battle resolution for the war if its rate limiter permits,
// then checks capitulation and timeout. A denied limiter is a silent skip.
func (l *Ledger) Step(w *War, tick uint64) {
	if w.Status != StatusActive {
		return
	}

	att, def := l.reg.Get(w.Attacker), l.reg.Get(w.Defender)
	if att == nil || def == nil || att.Annexed || def.Annexed {
		l.conclude(w, statusForAnnexation(w, att, def), tick)
		return
	}

	// Timeout: long stalemates end in a white peace regardless of gains.
	if tick-w.StartedTick >= timeoutMonths {
		l.concludePeace(w, tick)
		return
	}

	if !w.limiter.Allow() {
		return
	}
	if att.Soldiers == 0 || def.Soldiers == 0 {
		// Exhausted belligerent capitulates without a battle.
		if att.Soldiers == 0 {
			l.conclude(w, StatusDefeat, tick)
		} else {
			l.conclude(w, StatusVictory, tick)
		}
		return
	}

	res := combat.Simulate(l.rng, att.Soldiers, def.Soldiers, w.Intensity, geo.DefenseBonus(def.Centroid))

	attLoss := att.Soldiers - res.AttackerRemaining
	defLoss := def.Soldiers - res.DefenderRemaining
	l.reg.AdjustSoldiers(w.Attacker, -attLoss)
	l.reg.AdjustSoldiers(w.Defender, -defLoss)
	w.AttackerCasualties += attLoss
	w.DefenderCasualties += defLoss

	// Decisiveness scales the territorial consequence of the battle.
	shift := res.Decisiveness * gainPerDecisiveness
	winner, loser := w.Attacker, w.Defender
	if res.Winner == combat.SideDefender {
		winner, loser = w.Defender, w.Attacker
		w.applyGain(combat.SideDefender, shift)
	} else {
		w.applyGain(combat.SideAttacker, shift)
	}
	l.reg.UpdateOccupation(loser, shift)
	l.reg.UpdateOccupation(winner, -shift/2) // reclaiming ground is slower than losing it

	// Territory conquest is a separate, deferred write phase. Its failure
	// or late arrival never rolls back the battle outcome above.
	if l.OnConquest != nil && shift > 0 {
		l.OnConquest(winner, loser, res.Decisiveness)
	}

	winnerName := l.reg.Get(winner).Name
	l.events.Emit(event.Event{
		Type:     event.TypeBattle,
		Severity: event.SeverityMinor,
		Title:    "Battle resolved",
		Description: fmt.Sprintf("%s prevailed over %s (%s casualties on both sides)",
			winnerName, l.reg.Get(loser).Name, humanize.Comma(int64(attLoss+defLoss))),
		Affected: []string{string(w.Attacker), string(w.Defender)},
		Tick:     tick,
	})
	slog.Debug("battle step",
		"war", w.ID,
		"winner", winner,
		"decisiveness", fmt.Sprintf("%.2f", res.Decisiveness),
		"attacker_gain", fmt.Sprintf("%.1f", w.AttackerGain),
		"defender_gain", fmt.Sprintf("%.1f", w.DefenderGain),
	)

	// Forced peace: the side losing half its ground capitulates.
	switch {
	case w.AttackerGain >= capitulationGain:
		l.conclude(w, StatusVictory, tick)
	case w.DefenderGain >= capitulationGain:
		l.conclude(w, StatusDefeat, tick)
	}
}

func statusForAnnexation(w *War, att, def *nation.Nation) Status {
	if def != nil && def.Annexed {
		return StatusVictory
	}
	if att != nil && att.Annexed {
		return StatusDefeat
	}
	return StatusPeace
}

// conclude flips a war terminal and settles the diplomatic aftermath.
func (l *Ledger) conclude(w *War, status Status, tick uint64) {
	if w.Status != StatusActive {
		return
	}
	w.Status = status
	w.EndedTick = tick

	winner, loser := w.Attacker, w.Defender
	if status == StatusDefeat {
		winner, loser = w.Defender, w.Attacker
	}

	if w.Involves(nation.CodePlayer) {
		other := w.Opponent(nation.CodePlayer)
		l.reg.MakePeace(other)
	} else if status != StatusPeace {
		ln := l.reg.Get(loser)
		if ln != nil {
			ln.Modifiers.Add(nation.ModHumiliated)
		}
	}

	title, sev := "Peace", event.SeverityMinor
	desc := fmt.Sprintf("The war between %s and %s has ended in a stalemate", nameOf(l.reg, w.Attacker), nameOf(l.reg, w.Defender))
	if status != StatusPeace {
		title, sev = "Capitulation", event.SeverityMajor
		desc = fmt.Sprintf("%s has capitulated to %s", nameOf(l.reg, loser), nameOf(l.reg, winner))
	}
	l.events.Emit(event.Event{
		Type:        event.TypePeace,
		Severity:    sev,
		Title:       title,
		Description: desc,
		Affected:    []string{string(w.Attacker), string(w.Defender)},
		Tick:        tick,
	})
	slog.Info("war concluded", "war", w.ID, "status", status, "attacker", w.Attacker, "defender", w.Defender)
}

func (l *Ledger) concludePeace(w *War, tick uint64) { l.conclude(w, StatusPeace, tick) }

// ForcePeace ends a war in a stalemate regardless of gains. Used by UN
// peacekeeping resolutions and coalition-war timeouts.
func (l *Ledger) ForcePeace(w *War, tick uint64) { l.conclude(w, StatusPeace, tick) }

// DropNation terminates every active war involving an annexed nation. The
// surviving belligerent is credited with a victory.
func (l *Ledger) DropNation(code nation.Code, tick uint64) {
	for _, w := range l.ActiveFor(code) {
		if w.Attacker == code {
			l.conclude(w, StatusDefeat, tick)
		} else {
			l.conclude(w, StatusVictory, tick)
		}
	}
}

func nameOf(reg *nation.Registry, code nation.Code) string {
	if n := reg.Get(code); n != nil {
		return n.Name
	}
	return string(code)
}
