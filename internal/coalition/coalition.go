// Package coalition implements named alliances and the collective-defense
// protocol. Coalition membership is an absolute veto on two members ever
// becoming AI-vs-AI war rivals.
package coalition

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"

	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/nation"
	"github.com/talgya/hegemon/internal/war"
)

// Type is a coalition's charter.
type Type uint8

const (
	TypeMilitary Type = iota
	TypeTrade
	TypeResearch
)

func (t Type) String() string {
	switch t {
	case TypeMilitary:
		return "military"
	case TypeTrade:
		return "trade"
	}
	return "research"
}

// Candidate is the snapshot a membership rule is evaluated against.
type Candidate struct {
	Code      string
	Religion  string
	Culture   string
	Relations int // with the coalition leader
	Soldiers  int
	Economy   float64
	Power     int
}

// Requirements gates admission. Zero-valued fields are unchecked. RuleSrc,
// when present, is a boolean expression over a Candidate compiled at
// coalition creation.
type Requirements struct {
	Religion     string `json:"religion,omitempty"`
	Culture      string `json:"culture,omitempty"`
	MinRelations int    `json:"min_relations,omitempty"`
	MinSoldiers  int    `json:"min_soldiers,omitempty"` // military charters
	MinEconomy   int    `json:"min_economy,omitempty"`  // trade charters
	RuleSrc      string `json:"rule,omitempty"`

	program *vm.Program
}

// Compile validates and compiles RuleSrc. A nil receiver or empty source is
// a no-op.
func (r *Requirements) Compile() error {
	if r == nil || r.RuleSrc == "" {
		return nil
	}
	p, err := expr.Compile(r.RuleSrc, expr.Env(Candidate{}), expr.AsBool())
	if err != nil {
		return fmt.Errorf("compile membership rule: %w", err)
	}
	r.program = p
	return nil
}

// Coalition is a named alliance with ordered membership.
type Coalition struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Type    Type          `json:"type"`
	Leader  nation.Code   `json:"leader"`
	Members []nation.Code `json:"members"` // leader included, insertion order
	Reqs    *Requirements `json:"requirements,omitempty"`

	FoundedTick uint64 `json:"founded_tick"`
	Dissolved   bool   `json:"dissolved"`
}

// HasMember reports membership.
func (c *Coalition) HasMember(code nation.Code) bool {
	for _, m := range c.Members {
		if m == code {
			return true
		}
	}
	return false
}

// Manager owns every coalition and the collective-defense machinery.
type Manager struct {
	coalitions []*Coalition
	wars       []*CoalitionWar

	reg    *nation.Registry
	ledger *war.Ledger
	events *event.Log
}

// NewManager creates an empty coalition manager.
func NewManager(reg *nation.Registry, ledger *war.Ledger, events *event.Log) *Manager {
	return &Manager{reg: reg, ledger: ledger, events: events}
}

// Restore re-adds a persisted coalition, recompiling any membership rule.
func (m *Manager) Restore(c *Coalition) error {
	if err := c.Reqs.Compile(); err != nil {
		return err
	}
	m.coalitions = append(m.coalitions, c)
	return nil
}

// All returns every non-dissolved coalition.
func (m *Manager) All() []*Coalition {
	var out []*Coalition
	for _, c := range m.coalitions {
		if !c.Dissolved {
			out = append(out, c)
		}
	}
	return out
}

// Get returns a coalition by id, or nil.
func (m *Manager) Get(id string) *Coalition {
	for _, c := range m.coalitions {
		if c.ID == id && !c.Dissolved {
			return c
		}
	}
	return nil
}

// Create founds a coalition. The founder plus at least one eligible member
// are required; ineligible candidates are skipped, and the whole creation
// fails if nobody qualifies.
func (m *Manager) Create(name string, t Type, founder nation.Code, candidates []nation.Code, reqs *Requirements, tick uint64) (*Coalition, error) {
	f := m.reg.Get(founder)
	if !f.Actionable() {
		return nil, fmt.Errorf("founder %s not available", founder)
	}
	if err := reqs.Compile(); err != nil {
		return nil, err
	}

	c := &Coalition{
		ID:          uuid.NewString(),
		Name:        name,
		Type:        t,
		Leader:      founder,
		Members:     []nation.Code{founder},
		Reqs:        reqs,
		FoundedTick: tick,
	}
	for _, cand := range candidates {
		if m.Eligible(c, cand) {
			c.Members = append(c.Members, cand)
		}
	}
	if len(c.Members) < 2 {
		return nil, fmt.Errorf("coalition %q needs at least one eligible member besides the founder", name)
	}
	m.coalitions = append(m.coalitions, c)

	m.events.Emit(event.Event{
		Type:        event.TypeCoalition,
		Severity:    event.SeverityMajor,
		Title:       "Coalition founded",
		Description: fmt.Sprintf("%s founded the %s coalition %q with %d members", nameOf(m.reg, founder), c.Type, name, len(c.Members)),
		Affected:    codesOf(c.Members),
		Tick:        tick,
	})
	slog.Info("coalition founded", "name", name, "type", t, "leader", founder, "members", len(c.Members))
	return c, nil
}

// Eligible checks a candidate against the coalition's requirements and the
// registry. Annexed nations and existing members never qualify.
func (m *Manager) Eligible(c *Coalition, code nation.Code) bool {
	n := m.reg.Get(code)
	if !n.Actionable() || c.HasMember(code) {
		return false
	}
	r := c.Reqs
	if r == nil {
		return true
	}
	if r.Religion != "" && n.Religion != r.Religion {
		return false
	}
	if r.Culture != "" && n.Culture != r.Culture {
		return false
	}
	relations := relationsBetween(m.reg, code, c.Leader)
	if r.MinRelations != 0 && relations < r.MinRelations {
		return false
	}
	// Type-specific floors.
	if c.Type == TypeMilitary && r.MinSoldiers > 0 && n.Soldiers < r.MinSoldiers {
		return false
	}
	if c.Type == TypeTrade && r.MinEconomy > 0 && int(n.Economy) < r.MinEconomy {
		return false
	}
	if r.program != nil {
		out, err := expr.Run(r.program, Candidate{
			Code:      string(n.Code),
			Religion:  n.Religion,
			Culture:   n.Culture,
			Relations: relations,
			Soldiers:  n.Soldiers,
			Economy:   n.Economy,
			Power:     n.Power,
		})
		if err != nil {
			slog.Warn("membership rule evaluation failed", "coalition", c.Name, "candidate", code, "error", err)
			return false
		}
		if ok, _ := out.(bool); !ok {
			return false
		}
	}
	return true
}

// Join admits a nation if eligible.
func (m *Manager) Join(id string, code nation.Code) bool {
	c := m.Get(id)
	if c == nil || !m.Eligible(c, code) {
		return false
	}
	c.Members = append(c.Members, code)
	return true
}

// Leave removes a member. The leader leaving passes leadership to the next
// member in order.
func (m *Manager) Leave(id string, code nation.Code) bool {
	c := m.Get(id)
	if c == nil || !c.HasMember(code) {
		return false
	}
	for i, member := range c.Members {
		if member == code {
			c.Members = append(c.Members[:i], c.Members[i+1:]...)
			break
		}
	}
	if c.Leader == code && len(c.Members) > 0 {
		c.Leader = c.Members[0]
	}
	return true
}

// Kick is Leave initiated by the leader.
func (m *Manager) Kick(id string, leader, target nation.Code) bool {
	c := m.Get(id)
	if c == nil || c.Leader != leader || target == leader {
		return false
	}
	return m.Leave(id, target)
}

// MilitaryCoalitionOf returns the first military coalition code belongs to,
// or nil.
func (m *Manager) MilitaryCoalitionOf(code nation.Code) *Coalition {
	for _, c := range m.All() {
		if c.Type == TypeMilitary && c.HasMember(code) {
			return c
		}
	}
	return nil
}

// Seats tallies live coalition memberships per nation. Dissolved
// coalitions do not count.
func (m *Manager) Seats() map[nation.Code]int {
	seats := make(map[nation.Code]int)
	for _, c := range m.All() {
		for _, code := range c.Members {
			seats[code]++
		}
	}
	return seats
}

// SharedMilitary reports whether two nations share a military coalition.
// This is the absolute rivalry veto consulted by the strategy engine.
func (m *Manager) SharedMilitary(a, b nation.Code) bool {
	for _, c := range m.All() {
		if c.Type == TypeMilitary && c.HasMember(a) && c.HasMember(b) {
			return true
		}
	}
	return false
}

// CombinedSoldiers sums the soldier counts of every member except excluded.
func (m *Manager) CombinedSoldiers(c *Coalition, excluded nation.Code) int {
	total := 0
	for _, code := range c.Members {
		if code == excluded {
			continue
		}
		if n := m.reg.Get(code); n != nil && !n.Annexed {
			total += n.Soldiers
		}
	}
	return total
}

// Prune dissolves coalitions that fell under two members and drops annexed
// members. Runs in the tick-start cleanup.
func (m *Manager) Prune(tick uint64) {
	for _, c := range m.All() {
		kept := c.Members[:0]
		for _, code := range c.Members {
			if n := m.reg.Get(code); n != nil && !n.Annexed {
				kept = append(kept, code)
			}
		}
		c.Members = kept
		if len(c.Members) > 0 && !c.HasMember(c.Leader) {
			c.Leader = c.Members[0]
		}
		if len(c.Members) < 2 {
			c.Dissolved = true
			m.events.Emit(event.Event{
				Type:        event.TypeCoalition,
				Severity:    event.SeverityMinor,
				Title:       "Coalition dissolved",
				Description: fmt.Sprintf("The %s coalition %q has dissolved", c.Type, c.Name),
				Affected:    codesOf(c.Members),
				Tick:        tick,
			})
			slog.Info("coalition dissolved", "name", c.Name)
		}
	}
}

// DropNation removes an annexed nation from every coalition immediately.
func (m *Manager) DropNation(code nation.Code, tick uint64) {
	for _, c := range m.All() {
		if c.HasMember(code) {
			m.Leave(c.ID, code)
		}
	}
	m.Prune(tick)
}

func relationsBetween(reg *nation.Registry, a, b nation.Code) int {
	n := reg.Get(a)
	if n == nil {
		return 0
	}
	return n.RelationsWith(b)
}

func nameOf(reg *nation.Registry, code nation.Code) string {
	if n := reg.Get(code); n != nil {
		return n.Name
	}
	return string(code)
}

func codesOf(members []nation.Code) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = string(m)
	}
	return out
}
