// Package war tracks nation-vs-nation wars and advances them through the
// combat resolver. Battle stepping is rate-limited per war on real time;
// wars have no cross-war ordering guarantee.
package war

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/talgya/hegemon/internal/combat"
	"github.com/talgya/hegemon/internal/entropy"
	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/geo"
	"github.com/talgya/hegemon/internal/nation"
)

// Status is the lifecycle state of a war record.
type Status uint8

const (
	StatusActive  Status = iota
	StatusPeace          // ended without a decisive result
	StatusVictory        // attacker won
	StatusDefeat         // attacker lost
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusPeace:
		return "peace"
	case StatusVictory:
		return "victory"
	}
	return "defeat"
}

// Tunable progression constants. Balance parameters, not invariants.
const (
	// capitulationGain: cumulative territorial gain at which the losing
	// side sues for peace.
	capitulationGain = 50.0
	// timeoutMonths: wars that drag this long end in a white peace.
	timeoutMonths = 120
	// gainPerDecisiveness: territorial shift of a maximally decisive battle.
	gainPerDecisiveness = 8.0
)

// War is one active or concluded nation-vs-nation conflict.
type War struct {
	ID       string      `json:"id"`
	Attacker nation.Code `json:"attacker"`
	Defender nation.Code `json:"defender"`

	StartedTick uint64 `json:"started_tick"`
	EndedTick   uint64 `json:"ended_tick,omitempty"`

	// Cumulative territorial gain percentages, mutually reducing.
	AttackerGain float64 `json:"attacker_gain"`
	DefenderGain float64 `json:"defender_gain"`

	AttackerCasualties int `json:"attacker_casualties"`
	DefenderCasualties int `json:"defender_casualties"`

	Intensity combat.Intensity `json:"intensity"`
	Status    Status           `json:"status"`

	limiter *rate.Limiter
}

// Involves reports whether code is a belligerent.
func (w *War) Involves(code nation.Code) bool {
	return w.Attacker == code || w.Defender == code
}

// Opponent returns the other belligerent, or "" if code is not in this war.
func (w *War) Opponent(code nation.Code) nation.Code {
	switch code {
	case w.Attacker:
		return w.Defender
	case w.Defender:
		return w.Attacker
	}
	return ""
}

// applyGain credits territorial gain to one side, consuming the other
// side's gain first. Both gauges stay in 0..100.
func (w *War) applyGain(side combat.Side, delta float64) {
	if delta <= 0 {
		return
	}
	gaining, losing := &w.AttackerGain, &w.DefenderGain
	if side == combat.SideDefender {
		gaining, losing = &w.DefenderGain, &w.AttackerGain
	}
	if *losing > 0 {
		take := delta
		if take > *losing {
			take = *losing
		}
		*losing -= take
		delta -= take
	}
	*gaining += delta
	if *gaining > 100 {
		*gaining = 100
	}
}

// Ledger owns every war record and the machinery to advance them.
type Ledger struct {
	wars []*War

	reg    *nation.Registry
	geo    geo.Service
	events *event.Log
	rng    entropy.Source

	// battleInterval gates one resolution step per war per interval.
	battleInterval time.Duration

	// OnConquest, when set, receives a deferred territory-transfer request
	// after a battle. Completion may land in a later tick.
	OnConquest func(winner, loser nation.Code, decisiveness float64)
}

// NewLedger creates an empty war ledger.
func NewLedger(reg *nation.Registry, geoSvc geo.Service, events *event.Log, rng entropy.Source, battleInterval time.Duration) *Ledger {
	if battleInterval <= 0 {
		battleInterval = 5 * time.Second
	}
	return &Ledger{
		reg:            reg,
		geo:            geoSvc,
		events:         events,
		rng:            rng,
		battleInterval: battleInterval,
	}
}

// Restore re-adds a persisted war record, rebuilding the battle limiter
// that does not survive serialization.
func (l *Ledger) Restore(w *War) {
	if w.limiter == nil {
		w.limiter = rate.NewLimiter(rate.Every(l.battleInterval), 1)
	}
	l.wars = append(l.wars, w)
}

// Open creates a war between two nations. Returns nil if either code is
// unknown or annexed, or if the pair already has an active war.
func (l *Ledger) Open(attacker, defender nation.Code, intensity combat.Intensity, tick uint64) *War {
	att, def := l.reg.Get(attacker), l.reg.Get(defender)
	if !att.Actionable() || !def.Actionable() || attacker == defender {
		return nil
	}
	if l.Between(attacker, defender) != nil {
		return nil
	}

	w := &War{
		ID:          uuid.NewString(),
		Attacker:    attacker,
		Defender:    defender,
		StartedTick: tick,
		Intensity:   intensity,
		Status:      StatusActive,
		limiter:     rate.NewLimiter(rate.Every(l.battleInterval), 1),
	}
	l.wars = append(l.wars, w)

	if defender == nation.CodePlayer {
		l.reg.DeclareWar(attacker)
	} else if attacker == nation.CodePlayer {
		l.reg.DeclareWar(defender)
	} else {
		l.reg.AdjustBilateral(attacker, defender, -80)
		addEnemyPair(att, def)
	}

	l.events.Emit(event.Event{
		Type:        event.TypeWarDeclared,
		Severity:    event.SeverityMajor,
		Title:       "War declared",
		Description: fmt.Sprintf("%s has declared war on %s", att.Name, def.Name),
		Affected:    []string{string(attacker), string(defender)},
		Tick:        tick,
	})
	slog.Info("war declared", "attacker", attacker, "defender", defender, "intensity", w.Intensity)
	return w
}

func addEnemyPair(a, b *nation.Nation) {
	if !a.HasEnemy(b.Code) {
		a.Enemies = append(a.Enemies, b.Code)
	}
	if !b.HasEnemy(a.Code) {
		b.Enemies = append(b.Enemies, a.Code)
	}
}

// Active returns all wars still in progress.
func (l *Ledger) Active() []*War {
	var out []*War
	for _, w := range l.wars {
		if w.Status == StatusActive {
			out = append(out, w)
		}
	}
	return out
}

// All returns every war record, concluded ones included.
func (l *Ledger) All() []*War { return l.wars }

// Between returns the active war between two nations, or nil.
func (l *Ledger) Between(a, b nation.Code) *War {
	for _, w := range l.wars {
		if w.Status != StatusActive {
			continue
		}
		if (w.Attacker == a && w.Defender == b) || (w.Attacker == b && w.Defender == a) {
			return w
		}
	}
	return nil
}

// AtWar reports whether two nations have an active war.
func (l *Ledger) AtWar(a, b nation.Code) bool { return l.Between(a, b) != nil }

// ActiveFor returns active wars involving code.
func (l *Ledger) ActiveFor(code nation.Code) []*War {
	var out []*War
	for _, w := range l.wars {
		if w.Status == StatusActive && w.Involves(code) {
			out = append(out, w)
		}
	}
	return out
}
