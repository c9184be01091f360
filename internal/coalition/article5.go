// Collective defense — the Article 5 cascade that turns an attack on one
// military-coalition member into a multi-party conflict.
package coalition

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/hegemon/internal/combat"
	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/nation"
	"github.com/talgya/hegemon/internal/war"
)

// reinforcementShare is the fraction of the combined allied soldier count
// transferred to the defender on mobilization.
const reinforcementShare = 0.10

// coalitionWarTimeout caps how long a cascade can run before stalemate
// peace, in ticks.
const coalitionWarTimeout = 96

// CoalitionWarStatus tracks the aggregate outcome of a cascade.
type CoalitionWarStatus uint8

const (
	CoalitionWarActive  CoalitionWarStatus = iota
	CoalitionWarVictory                    // aggressor broken
	CoalitionWarDefeat                     // original defender annexed
	CoalitionWarPeace                      // time limit without decisive shift
)

func (s CoalitionWarStatus) String() string {
	switch s {
	case CoalitionWarActive:
		return "active"
	case CoalitionWarVictory:
		return "victory"
	case CoalitionWarDefeat:
		return "defeat"
	}
	return "peace"
}

// CoalitionWar tracks an Article 5 cascade as a unit.
type CoalitionWar struct {
	ID          string        `json:"id"`
	CoalitionID string        `json:"coalition_id"`
	Aggressor   nation.Code   `json:"aggressor"`
	Defender    nation.Code   `json:"defender"` // the member originally attacked
	Mobilized   []nation.Code `json:"mobilized"`

	StartedTick uint64 `json:"started_tick"`
	EndedTick   uint64 `json:"ended_tick,omitempty"`

	Casualties             int                `json:"casualties"`
	AggressorTerritoryLost float64            `json:"aggressor_territory_lost"`
	Status                 CoalitionWarStatus `json:"status"`
}

// Wars returns every coalition war record.
func (m *Manager) Wars() []*CoalitionWar { return m.wars }

// InvokeArticle5 runs the collective-defense protocol for an attacked
// member. Returns nil when the defender has no military coalition — the
// attack stays bilateral.
func (m *Manager) InvokeArticle5(aggressor, defender nation.Code, tick uint64) *CoalitionWar {
	c := m.MilitaryCoalitionOf(defender)
	if c == nil {
		return nil
	}
	def := m.reg.Get(defender)
	agg := m.reg.Get(aggressor)
	if def == nil || agg == nil {
		return nil
	}

	// Reinforcement pool: 10% of the combined soldiers of every other
	// member, moved to the defender.
	var mobilized []nation.Code
	pool := 0
	for _, code := range c.Members {
		if code == defender || code == aggressor {
			continue
		}
		ally := m.reg.Get(code)
		if ally == nil || ally.Annexed {
			continue
		}
		contribution := int(float64(ally.Soldiers) * reinforcementShare)
		m.reg.AdjustSoldiers(code, -contribution)
		pool += contribution
		mobilized = append(mobilized, code)
		ally.Modifiers.Add(nation.ModMobilized)

		// Every contributing ally declares war on the aggressor unless
		// already fighting them. Against the player, allies fall to a
		// hostile posture instead of opening a formal war.
		if aggressor == nation.CodePlayer {
			m.reg.UpdateRelations(code, -60)
		} else if !m.ledger.AtWar(code, aggressor) {
			m.ledger.Open(code, aggressor, combat.IntensityStandard, tick)
		}
	}
	m.reg.AdjustSoldiers(defender, pool)

	cw := &CoalitionWar{
		ID:          uuid.NewString(),
		CoalitionID: c.ID,
		Aggressor:   aggressor,
		Defender:    defender,
		Mobilized:   mobilized,
		StartedTick: tick,
		Status:      CoalitionWarActive,
	}
	m.wars = append(m.wars, cw)

	m.events.Emit(event.Event{
		Type:     event.TypeCollectiveDef,
		Severity: event.SeverityCritical,
		Title:    "Article 5 invoked",
		Description: fmt.Sprintf("%s has invoked collective defense against %s: %s reinforcements flow to %s",
			c.Name, nameOf(m.reg, aggressor), humanize.Comma(int64(pool)), nameOf(m.reg, defender)),
		Affected: append(codesOf(mobilized), string(aggressor), string(defender)),
		Tick:     tick,
	})
	slog.Info("article 5 invoked",
		"coalition", c.Name,
		"aggressor", aggressor,
		"defender", defender,
		"allies", len(mobilized),
		"reinforcements", pool,
	)
	return cw
}

// ResolveWars advances coalition war bookkeeping once per tick: aggregate
// casualties, aggressor attrition, and terminal conditions.
func (m *Manager) ResolveWars(ledger *war.Ledger, tick uint64) {
	for _, cw := range m.wars {
		if cw.Status != CoalitionWarActive {
			continue
		}
		agg := m.reg.Get(cw.Aggressor)
		def := m.reg.Get(cw.Defender)
		if agg != nil {
			cw.AggressorTerritoryLost = agg.TerritoryLost
		}

		total := 0
		for _, w := range ledger.All() {
			if w.Involves(cw.Aggressor) && w.StartedTick >= cw.StartedTick {
				total += w.AttackerCasualties + w.DefenderCasualties
			}
		}
		cw.Casualties = total

		switch {
		case def == nil || def.Annexed:
			m.concludeWar(cw, CoalitionWarDefeat, tick)
		case agg == nil || agg.Annexed || cw.AggressorTerritoryLost >= 50:
			m.concludeWar(cw, CoalitionWarVictory, tick)
		case tick-cw.StartedTick >= coalitionWarTimeout:
			m.concludeWar(cw, CoalitionWarPeace, tick)
			// Stalemate: the bilateral wars it spawned wind down too.
			for _, w := range ledger.ActiveFor(cw.Aggressor) {
				if cw.memberInvolved(w) {
					ledger.ForcePeace(w, tick)
				}
			}
		}
	}
}

func (cw *CoalitionWar) memberInvolved(w *war.War) bool {
	if w.Involves(cw.Defender) {
		return true
	}
	for _, code := range cw.Mobilized {
		if w.Involves(code) {
			return true
		}
	}
	return false
}

func (m *Manager) concludeWar(cw *CoalitionWar, status CoalitionWarStatus, tick uint64) {
	cw.Status = status
	cw.EndedTick = tick
	for _, code := range cw.Mobilized {
		if n := m.reg.Get(code); n != nil {
			n.Modifiers.Remove(nation.ModMobilized)
		}
	}
	m.events.Emit(event.Event{
		Type:     event.TypeCollectiveDef,
		Severity: event.SeverityMajor,
		Title:    "Coalition war concluded",
		Description: fmt.Sprintf("The collective defense of %s against %s has ended: %s",
			nameOf(m.reg, cw.Defender), nameOf(m.reg, cw.Aggressor), status),
		Affected: append(codesOf(cw.Mobilized), string(cw.Aggressor), string(cw.Defender)),
		Tick:     tick,
	})
	slog.Info("coalition war concluded", "id", cw.ID, "status", status)
}
