// UN resolutions — a voting sub-state machine consumed once per tick.
package diplomacy

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/nation"
)

// Vote is one nation's position on a resolution.
type Vote uint8

const (
	VoteAbstain Vote = iota
	VoteYes
	VoteNo
)

func (v Vote) String() string {
	switch v {
	case VoteYes:
		return "yes"
	case VoteNo:
		return "no"
	}
	return "abstain"
}

// ResolutionKind determines the effect of a passed resolution.
type ResolutionKind string

const (
	ResolutionCondemn      ResolutionKind = "condemn"
	ResolutionSanction     ResolutionKind = "sanction"
	ResolutionPeacekeeping ResolutionKind = "peacekeeping"
)

// ResolutionStatus is the lifecycle state.
type ResolutionStatus uint8

const (
	ResolutionOpen ResolutionStatus = iota
	ResolutionPassed
	ResolutionFailed
	ResolutionVetoed
)

func (s ResolutionStatus) String() string {
	switch s {
	case ResolutionOpen:
		return "open"
	case ResolutionPassed:
		return "passed"
	case ResolutionFailed:
		return "failed"
	}
	return "vetoed"
}

// securityCouncil holds permanent veto power over resolutions.
var securityCouncil = []nation.Code{"USA", "CHN", "RUS", "FRA", "GBR"}

// passThreshold is the fraction of cast (non-abstain) votes needed.
const passThreshold = 0.55

// votingPeriodTicks is how long a resolution stays open.
const votingPeriodTicks = 2

// Resolution is one motion before the assembly.
type Resolution struct {
	ID         string               `json:"id"`
	Kind       ResolutionKind       `json:"kind"`
	Title      string               `json:"title"`
	Proposer   nation.Code          `json:"proposer"`
	Target     nation.Code          `json:"target"`
	Votes      map[nation.Code]Vote `json:"votes"`
	Veto       bool                 `json:"veto_gate"` // Security-Council veto applies
	OpenedTick uint64               `json:"opened_tick"`
	Status     ResolutionStatus     `json:"status"`
}

// ProposeResolution opens a motion for voting.
func (o *Office) ProposeResolution(proposer nation.Code, kind ResolutionKind, target nation.Code, vetoGate bool, tick uint64) (*Resolution, error) {
	p := o.Reg.Get(proposer)
	t := o.Reg.Get(target)
	if p == nil || !t.Actionable() {
		return nil, fmt.Errorf("no such nation")
	}
	r := &Resolution{
		ID:         uuid.NewString(),
		Kind:       kind,
		Title:      fmt.Sprintf("Resolution to %s %s", kind, t.Name),
		Proposer:   proposer,
		Target:     target,
		Votes:      map[nation.Code]Vote{proposer: VoteYes},
		Veto:       vetoGate,
		OpenedTick: tick,
	}
	o.resolutions = append(o.resolutions, r)
	o.Events.Emit(event.Event{
		Type:        event.TypeResolution,
		Severity:    event.SeverityMinor,
		Title:       "Resolution tabled",
		Description: fmt.Sprintf("%s has tabled a motion: %s", p.Name, r.Title),
		Affected:    []string{string(proposer), string(target)},
		Tick:        tick,
	})
	return r, nil
}

// Resolutions returns every resolution record.
func (o *Office) Resolutions() []*Resolution { return o.resolutions }

// Resolution returns a resolution by id, or nil.
func (o *Office) Resolution(id string) *Resolution {
	for _, r := range o.resolutions {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// CastVote records a vote on an open resolution.
func (o *Office) CastVote(id string, voter nation.Code, v Vote) bool {
	r := o.Resolution(id)
	if r == nil || r.Status != ResolutionOpen {
		return false
	}
	if n := o.Reg.Get(voter); !n.Actionable() {
		return false
	}
	r.Votes[voter] = v
	return true
}

// TickResolutions fills in AI votes and closes motions whose voting period
// has elapsed. Called once per tick by the orchestrator.
func (o *Office) TickResolutions(tick uint64) {
	for _, r := range o.resolutions {
		if r.Status != ResolutionOpen {
			continue
		}
		o.fillAIVotes(r)
		if tick-r.OpenedTick >= votingPeriodTicks {
			o.closeResolution(r, tick)
		}
	}
}

// fillAIVotes makes every nation without a recorded vote take a position
// weighted by its relations to the proposer and the target.
func (o *Office) fillAIVotes(r *Resolution) {
	for _, n := range o.Reg.All() {
		if n.Annexed || n.IsPlayer {
			continue
		}
		if _, voted := r.Votes[n.Code]; voted || n.Code == r.Target {
			continue
		}
		toProposer := n.RelationsWith(r.Proposer)
		toTarget := n.RelationsWith(r.Target)
		lean := float64(toProposer-toTarget) / 200 // -1..1

		roll := o.Rng.Float()
		switch {
		case roll < 0.35+0.4*lean:
			r.Votes[n.Code] = VoteYes
		case roll < 0.7:
			r.Votes[n.Code] = VoteNo
		default:
			r.Votes[n.Code] = VoteAbstain
		}
	}
	if _, voted := r.Votes[r.Target]; !voted && o.Reg.Get(r.Target) != nil {
		r.Votes[r.Target] = VoteNo
	}
}

// closeResolution tallies votes, applies the veto gate, and enacts effects.
func (o *Office) closeResolution(r *Resolution, tick uint64) {
	yes, no := 0, 0
	for _, v := range r.Votes {
		switch v {
		case VoteYes:
			yes++
		case VoteNo:
			no++
		}
	}

	if r.Veto {
		for _, sc := range securityCouncil {
			if r.Votes[sc] == VoteNo {
				r.Status = ResolutionVetoed
				o.emitResolutionResult(r, tick, fmt.Sprintf("vetoed by %s", nameOf(o.Reg, sc)))
				return
			}
		}
	}

	cast := yes + no
	if cast == 0 || float64(yes)/float64(cast) < passThreshold {
		r.Status = ResolutionFailed
		o.emitResolutionResult(r, tick, fmt.Sprintf("failed %d-%d", yes, no))
		return
	}

	r.Status = ResolutionPassed
	o.enactResolution(r, tick)
	o.emitResolutionResult(r, tick, fmt.Sprintf("passed %d-%d", yes, no))
}

func (o *Office) enactResolution(r *Resolution, tick uint64) {
	t := o.Reg.Get(r.Target)
	if t == nil {
		return
	}
	switch r.Kind {
	case ResolutionCondemn:
		// Pariah status: everyone who voted yes cools toward the target.
		for code, v := range r.Votes {
			if v == VoteYes && code != r.Target {
				o.Reg.AdjustBilateral(code, r.Target, -10)
			}
		}
	case ResolutionSanction:
		t.Modifiers.Add(nation.ModSanctioned)
		t.Economy *= 0.8
		o.Reg.RecomputePower(t)
		for code, v := range r.Votes {
			if v == VoteYes {
				o.SetTariff(code, r.Target, nation.TariffEmbargo, tick)
			}
		}
	case ResolutionPeacekeeping:
		for _, w := range o.Wars.ActiveFor(r.Target) {
			o.Wars.ForcePeace(w, tick)
		}
	}
}

func (o *Office) emitResolutionResult(r *Resolution, tick uint64, outcome string) {
	o.Events.Emit(event.Event{
		Type:        event.TypeResolution,
		Severity:    event.SeverityMajor,
		Title:       "Resolution " + r.Status.String(),
		Description: fmt.Sprintf("%s: %s", r.Title, outcome),
		Affected:    []string{string(r.Proposer), string(r.Target)},
		Tick:        tick,
	})
	slog.Info("resolution closed", "id", r.ID, "kind", r.Kind, "status", r.Status)
}

func nameOf(reg *nation.Registry, code nation.Code) string {
	if n := reg.Get(code); n != nil {
		return n.Name
	}
	return string(code)
}
