package diplomacy

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/nation"
)

// SummitProposal is one item on a summit's agenda.
type SummitProposal struct {
	ID       string      `json:"id"`
	Proposer nation.Code `json:"proposer"`
	Text     string      `json:"text"`
	Accepted bool        `json:"accepted"`
	Decided  bool        `json:"decided"`
}

// Summit is a bilateral meeting where proposals are tabled and decided.
type Summit struct {
	ID         string            `json:"id"`
	Host       nation.Code       `json:"host"`
	Guest      nation.Code       `json:"guest"`
	Topic      string            `json:"topic"`
	Proposals  []*SummitProposal `json:"proposals"`
	OpenedTick uint64            `json:"opened_tick"`
	Concluded  bool              `json:"concluded"`
}

// ProposeSummit convenes a summit between two nations. The guest may refuse
// outright when relations are deeply hostile.
func (o *Office) ProposeSummit(host, guest nation.Code, topic string, tick uint64) (*Summit, error) {
	a := o.Reg.Get(host)
	b := o.Reg.Get(guest)
	if !a.Actionable() || !b.Actionable() {
		return nil, fmt.Errorf("no such nation")
	}
	if host == guest {
		return nil, fmt.Errorf("a nation cannot summit with itself")
	}
	rel := a.RelationsWith(guest)
	if rel < -70 && o.Rng.Float() < 0.7 {
		return nil, fmt.Errorf("%s refuses to meet with %s", b.Name, a.Name)
	}
	s := &Summit{
		ID:         uuid.NewString(),
		Host:       host,
		Guest:      guest,
		Topic:      topic,
		OpenedTick: tick,
	}
	o.summits = append(o.summits, s)
	o.Events.Emit(event.Event{
		Type:        event.TypeSummit,
		Severity:    event.SeverityMinor,
		Title:       "Summit convened",
		Description: fmt.Sprintf("%s and %s convene a summit on %s", a.Name, b.Name, topic),
		Affected:    []string{string(host), string(guest)},
		Tick:        tick,
	})
	return s, nil
}

// Summits returns every summit record.
func (o *Office) Summits() []*Summit { return o.summits }

// Summit returns a summit by id, or nil.
func (o *Office) Summit(id string) *Summit {
	for _, s := range o.summits {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// TableProposal adds an agenda item to an open summit.
func (o *Office) TableProposal(summitID string, proposer nation.Code, text string) (*SummitProposal, error) {
	s := o.Summit(summitID)
	if s == nil || s.Concluded {
		return nil, fmt.Errorf("no open summit with id %s", summitID)
	}
	if proposer != s.Host && proposer != s.Guest {
		return nil, fmt.Errorf("%s is not attending this summit", proposer)
	}
	p := &SummitProposal{ID: uuid.NewString(), Proposer: proposer, Text: text}
	s.Proposals = append(s.Proposals, p)
	return p, nil
}

// ConcludeSummit decides every undecided proposal and closes the summit.
// Acceptance odds follow the same warmth model as agreements: proposals land
// when relations are good and die when they are not. Each accepted proposal
// thaws relations a little.
func (o *Office) ConcludeSummit(summitID string, tick uint64) (*Summit, error) {
	s := o.Summit(summitID)
	if s == nil || s.Concluded {
		return nil, fmt.Errorf("no open summit with id %s", summitID)
	}
	accepted := 0
	for _, p := range s.Proposals {
		if p.Decided {
			continue
		}
		other := s.Guest
		if p.Proposer == s.Guest {
			other = s.Host
		}
		rel := o.Reg.Get(p.Proposer).RelationsWith(other)
		chance := 0.2
		if rel > 20 {
			chance = 0.7
		} else if rel > -20 {
			chance = 0.45
		}
		p.Decided = true
		p.Accepted = o.Rng.Float() < chance
		if p.Accepted {
			accepted++
			o.Reg.AdjustBilateral(s.Host, s.Guest, +5)
		}
	}
	s.Concluded = true
	o.Events.Emit(event.Event{
		Type:        event.TypeSummit,
		Severity:    event.SeverityMinor,
		Title:       "Summit concludes",
		Description: fmt.Sprintf("The %s summit closes with %d of %d proposals agreed", s.Topic, accepted, len(s.Proposals)),
		Affected:    []string{string(s.Host), string(s.Guest)},
		Tick:        tick,
	})
	return s, nil
}
