// Player command surface. Every method takes the simulation mutex, acts as
// the player polity, and returns a human-readable description of what
// happened. Commands arrive as strings from the API layer and are parsed
// here.
package engine

import (
	"fmt"

	"github.com/talgya/hegemon/internal/coalition"
	"github.com/talgya/hegemon/internal/combat"
	"github.com/talgya/hegemon/internal/diplomacy"
	"github.com/talgya/hegemon/internal/nation"
)

// ParseIntensity maps a command string to a war intensity.
func ParseIntensity(s string) (combat.Intensity, error) {
	switch s {
	case "skirmish":
		return combat.IntensitySkirmish, nil
	case "", "standard":
		return combat.IntensityStandard, nil
	case "total_war":
		return combat.IntensityTotalWar, nil
	}
	return 0, fmt.Errorf("unknown intensity %q", s)
}

// ParseAgreementType maps a command string to an agreement type.
func ParseAgreementType(s string) (nation.AgreementType, error) {
	switch s {
	case "trade":
		return nation.AgreementTrade, nil
	case "non_aggression":
		return nation.AgreementNonAggression, nil
	case "military_alliance":
		return nation.AgreementMilitaryAlliance, nil
	case "free_trade":
		return nation.AgreementFreeTrade, nil
	case "security_guarantee":
		return nation.AgreementSecurityGuarantee, nil
	}
	return 0, fmt.Errorf("unknown agreement type %q", s)
}

// ParseTariff maps a command string to a tariff level.
func ParseTariff(s string) (nation.Tariff, error) {
	switch s {
	case "free_trade":
		return nation.TariffFreeTrade, nil
	case "none":
		return nation.TariffNone, nil
	case "low":
		return nation.TariffLow, nil
	case "high":
		return nation.TariffHigh, nil
	case "embargo":
		return nation.TariffEmbargo, nil
	}
	return 0, fmt.Errorf("unknown tariff level %q", s)
}

// DeclareWar opens a war by the player against the target. The target's
// collective-defense obligations trigger immediately.
func (s *Simulation) DeclareWar(target nation.Code, intensity string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := ParseIntensity(intensity)
	if err != nil {
		return "", err
	}
	t := s.Reg.Get(target)
	if !t.Actionable() {
		return "", fmt.Errorf("no such nation %s", target)
	}
	w := s.Wars.Open(nation.CodePlayer, target, i, s.LastTick)
	if w == nil {
		return "", fmt.Errorf("war against %s could not be opened", t.Name)
	}
	s.Coalitions.InvokeArticle5(nation.CodePlayer, target, s.LastTick)
	return fmt.Sprintf("War declared on %s", t.Name), nil
}

// MakePeace ends the player's war with the target.
func (s *Simulation) MakePeace(target nation.Code) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.Wars.Between(nation.CodePlayer, target)
	if w == nil {
		return "", fmt.Errorf("no active war with %s", target)
	}
	s.Wars.ForcePeace(w, s.LastTick)
	return fmt.Sprintf("Peace concluded with %s", nameFor(s, target)), nil
}

// ProposeAgreement rolls the target's acceptance of a player proposal.
func (s *Simulation) ProposeAgreement(target nation.Code, agreementType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := ParseAgreementType(agreementType)
	if err != nil {
		return "", err
	}
	ok, err := s.Diplomacy.ProposeAgreement(nation.CodePlayer, target, t, s.LastTick)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("%s declines the %s proposal", nameFor(s, target), t), nil
	}
	return fmt.Sprintf("%s signs the %s agreement", nameFor(s, target), t), nil
}

// BreakAgreement tears up a player agreement by id.
func (s *Simulation) BreakAgreement(target nation.Code, agreementID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Diplomacy.BreakAgreement(nation.CodePlayer, target, agreementID, s.LastTick) {
		return "", fmt.Errorf("no such agreement with %s", target)
	}
	return fmt.Sprintf("Agreement with %s broken", nameFor(s, target)), nil
}

// SetTariff sets the player's trade barrier against the target.
func (s *Simulation) SetTariff(target nation.Code, level string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := ParseTariff(level)
	if err != nil {
		return "", err
	}
	if !s.Diplomacy.SetTariff(nation.CodePlayer, target, l, s.LastTick) {
		return "", fmt.Errorf("no such nation %s", target)
	}
	return fmt.Sprintf("Tariff against %s set to %s", nameFor(s, target), l), nil
}

// CovertAction dispatches one of the covert instruments.
func (s *Simulation) CovertAction(target nation.Code, action string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch action {
	case "destabilize":
		return s.Diplomacy.Destabilize(nation.CodePlayer, target, s.LastTick)
	case "fund_separatists":
		return s.Diplomacy.FundSeparatists(nation.CodePlayer, target, s.LastTick)
	case "plant_propaganda":
		return s.Diplomacy.PlantPropaganda(nation.CodePlayer, target, s.LastTick)
	}
	return "", fmt.Errorf("unknown covert action %q", action)
}

// Influence spends the player's influence points on a soft-power action.
func (s *Simulation) Influence(target nation.Code, action string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Diplomacy.ExecuteInfluence(nation.CodePlayer, target, diplomacy.InfluenceAction(action), s.LastTick)
}

// CreateCoalition founds a coalition led by the player.
func (s *Simulation) CreateCoalition(name, coalitionType string, candidates []nation.Code, reqs *coalition.Requirements) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var t coalition.Type
	switch coalitionType {
	case "military":
		t = coalition.TypeMilitary
	case "trade":
		t = coalition.TypeTrade
	case "research":
		t = coalition.TypeResearch
	default:
		return "", fmt.Errorf("unknown coalition type %q", coalitionType)
	}
	c, err := s.Coalitions.Create(name, t, nation.CodePlayer, candidates, reqs, s.LastTick)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Coalition %q founded with %d members", c.Name, len(c.Members)), nil
}

// CoalitionMembership handles join/leave/invite/kick commands.
func (s *Simulation) CoalitionMembership(id, op string, target nation.Code) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.Coalitions.Get(id)
	if c == nil {
		return "", fmt.Errorf("no such coalition %s", id)
	}
	switch op {
	case "join":
		if !s.Coalitions.Join(id, nation.CodePlayer) {
			return "", fmt.Errorf("not eligible to join %q", c.Name)
		}
		return fmt.Sprintf("Joined coalition %q", c.Name), nil
	case "leave":
		if !s.Coalitions.Leave(id, nation.CodePlayer) {
			return "", fmt.Errorf("not a member of %q", c.Name)
		}
		return fmt.Sprintf("Left coalition %q", c.Name), nil
	case "invite":
		if !s.Coalitions.Join(id, target) {
			return "", fmt.Errorf("%s is not eligible for %q", target, c.Name)
		}
		return fmt.Sprintf("%s joins coalition %q", nameFor(s, target), c.Name), nil
	case "kick":
		if !s.Coalitions.Kick(id, nation.CodePlayer, target) {
			return "", fmt.Errorf("cannot remove %s from %q", target, c.Name)
		}
		return fmt.Sprintf("%s removed from coalition %q", nameFor(s, target), c.Name), nil
	}
	return "", fmt.Errorf("unknown membership op %q", op)
}

// ProposeResolution tables a UN motion in the player's name.
func (s *Simulation) ProposeResolution(kind string, target nation.Code, vetoGate bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.Diplomacy.ProposeResolution(nation.CodePlayer, diplomacy.ResolutionKind(kind), target, vetoGate, s.LastTick)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Tabled: %s (id %s)", r.Title, r.ID), nil
}

// Vote casts the player's vote on an open resolution.
func (s *Simulation) Vote(resolutionID, position string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v diplomacy.Vote
	switch position {
	case "yes":
		v = diplomacy.VoteYes
	case "no":
		v = diplomacy.VoteNo
	case "abstain":
		v = diplomacy.VoteAbstain
	default:
		return "", fmt.Errorf("unknown vote %q", position)
	}
	if !s.Diplomacy.CastVote(resolutionID, nation.CodePlayer, v) {
		return "", fmt.Errorf("no open resolution %s", resolutionID)
	}
	return fmt.Sprintf("Vote recorded: %s", position), nil
}

// StartCrisis opens a crisis between the player and the target.
func (s *Simulation) StartCrisis(target nation.Code) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.Diplomacy.StartCrisis(nation.CodePlayer, target, s.LastTick)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Crisis opened with %s (id %s)", nameFor(s, target), c.ID), nil
}

// RespondToCrisis applies a player action in an open crisis.
func (s *Simulation) RespondToCrisis(crisisID, action string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Diplomacy.CrisisMove(crisisID, nation.CodePlayer, diplomacy.CrisisAction(action), s.LastTick)
}

// ProposeSummit convenes a summit hosted by the player.
func (s *Simulation) ProposeSummit(guest nation.Code, topic string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	su, err := s.Diplomacy.ProposeSummit(nation.CodePlayer, guest, topic, s.LastTick)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Summit with %s convened (id %s)", nameFor(s, guest), su.ID), nil
}

func nameFor(s *Simulation, code nation.Code) string {
	if n := s.Reg.Get(code); n != nil {
		return n.Name
	}
	return string(code)
}
