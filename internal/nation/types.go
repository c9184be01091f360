// Package nation holds the authoritative nation records and the registry
// that owns them. Every mutation in the simulation flows through the
// registry's operation set; there is no ambient global state.
package nation

import (
	"time"

	"github.com/talgya/hegemon/internal/geo"
)

// Code is the stable key for a nation (ISO-style three-letter code). The
// player's synthetic polity uses CodePlayer.
type Code string

// CodePlayer keys the synthetic record for the player's own polity.
const CodePlayer Code = "PLR"

// Disposition is the coarse diplomatic stance derived from relations.
type Disposition uint8

const (
	DispositionFriendly Disposition = iota
	DispositionNeutral
	DispositionHostile
	DispositionAtWar
)

func (d Disposition) String() string {
	switch d {
	case DispositionFriendly:
		return "friendly"
	case DispositionNeutral:
		return "neutral"
	case DispositionHostile:
		return "hostile"
	case DispositionAtWar:
		return "at_war"
	}
	return "unknown"
}

// DispositionFor derives the stance from a relations value. Callers pin
// DispositionAtWar separately while a war record exists.
func DispositionFor(relations int) Disposition {
	switch {
	case relations >= 40:
		return DispositionFriendly
	case relations <= -40:
		return DispositionHostile
	default:
		return DispositionNeutral
	}
}

// Tariff is the trade-barrier level one nation applies to another.
type Tariff uint8

const (
	TariffFreeTrade Tariff = iota
	TariffNone
	TariffLow
	TariffHigh
	TariffEmbargo
)

func (t Tariff) String() string {
	switch t {
	case TariffFreeTrade:
		return "free_trade"
	case TariffNone:
		return "none"
	case TariffLow:
		return "low"
	case TariffHigh:
		return "high"
	case TariffEmbargo:
		return "embargo"
	}
	return "unknown"
}

// Modifier is a standing effect on a nation. Stored as a bitset: membership
// checks go through the enumeration, never string comparison.
type Modifier uint32

const (
	ModRevanchism Modifier = 1 << iota // wants lost territory back
	ModAllied                          // holds at least one military alliance
	ModAtWar                           // at war with the player polity
	ModDestabilized
	ModHumiliated
	ModSeparatistUnrest
	ModPropaganda
	ModSanctioned
	ModMobilized
)

// ModifierSet is the bag of standing effects on a nation.
type ModifierSet uint32

func (m *ModifierSet) Add(mod Modifier)     { *m |= ModifierSet(mod) }
func (m *ModifierSet) Remove(mod Modifier)  { *m &^= ModifierSet(mod) }
func (m ModifierSet) Has(mod Modifier) bool { return m&ModifierSet(mod) != 0 }

// Names returns the active modifiers as strings for logging and the API.
func (m ModifierSet) Names() []string {
	names := []struct {
		mod  Modifier
		name string
	}{
		{ModRevanchism, "REVANCHISM"},
		{ModAllied, "ALLIED"},
		{ModAtWar, "AT_WAR"},
		{ModDestabilized, "DESTABILIZED"},
		{ModHumiliated, "HUMILIATED"},
		{ModSeparatistUnrest, "SEPARATIST_UNREST"},
		{ModPropaganda, "PROPAGANDA"},
		{ModSanctioned, "SANCTIONED"},
		{ModMobilized, "MOBILIZED"},
	}
	var out []string
	for _, n := range names {
		if m.Has(n.mod) {
			out = append(out, n.name)
		}
	}
	return out
}

// AgreementType categorizes a standing diplomatic agreement.
type AgreementType uint8

const (
	AgreementTrade AgreementType = iota
	AgreementNonAggression
	AgreementMilitaryAlliance
	AgreementFreeTrade
	AgreementSecurityGuarantee
)

func (a AgreementType) String() string {
	switch a {
	case AgreementTrade:
		return "trade"
	case AgreementNonAggression:
		return "non_aggression"
	case AgreementMilitaryAlliance:
		return "military_alliance"
	case AgreementFreeTrade:
		return "free_trade"
	case AgreementSecurityGuarantee:
		return "security_guarantee"
	}
	return "unknown"
}

// Agreement is one standing agreement with a counterparty nation.
type Agreement struct {
	ID         string        `json:"id"`
	Type       AgreementType `json:"type"`
	With       Code          `json:"with"`
	SignedTick uint64        `json:"signed_tick"`
	SignedAt   time.Time     `json:"signed_at"`
}

// PoliticalState is the internal-politics sub-record of a nation.
type PoliticalState struct {
	Government  string  `json:"government"`
	Leader      string  `json:"leader"`
	Orientation int     `json:"orientation"` // ideological axis, -100..100
	Stability   float64 `json:"stability"`   // 0..100
	Unrest      float64 `json:"unrest"`      // 0..100
}

// Personality is the fixed AI temperament assigned on first assessment.
type Personality uint8

const (
	PersonalityUnassigned Personality = iota
	PersonalityExpansionist
	PersonalityOpportunist
	PersonalityDefensive
	PersonalityIsolationist
	PersonalityTradingPower
	PersonalityIdeological
)

func (p Personality) String() string {
	switch p {
	case PersonalityExpansionist:
		return "EXPANSIONIST"
	case PersonalityOpportunist:
		return "OPPORTUNIST"
	case PersonalityDefensive:
		return "DEFENSIVE"
	case PersonalityIsolationist:
		return "ISOLATIONIST"
	case PersonalityTradingPower:
		return "TRADING_POWER"
	case PersonalityIdeological:
		return "IDEOLOGICAL"
	}
	return "UNASSIGNED"
}

// Focus is the strategic posture the AI re-evaluates each tick.
type Focus uint8

const (
	FocusConsolidate Focus = iota
	FocusExpand
	FocusAlly
)

func (f Focus) String() string {
	switch f {
	case FocusExpand:
		return "expand"
	case FocusAlly:
		return "ally"
	}
	return "consolidate"
}

// ActionType enumerates the intents a strategy can queue.
type ActionType uint8

const (
	ActionDeclareWar ActionType = iota
	ActionDemandTerritory
	ActionBuildMilitary
	ActionProposeAlliance
	ActionTradeAgreement
	ActionSanction
	ActionImproveRelations
)

func (a ActionType) String() string {
	switch a {
	case ActionDeclareWar:
		return "DECLARE_WAR"
	case ActionDemandTerritory:
		return "DEMAND_TERRITORY"
	case ActionBuildMilitary:
		return "BUILD_MILITARY"
	case ActionProposeAlliance:
		return "PROPOSE_ALLIANCE"
	case ActionTradeAgreement:
		return "TRADE_AGREEMENT"
	case ActionSanction:
		return "SANCTION"
	case ActionImproveRelations:
		return "IMPROVE_RELATIONS"
	}
	return "UNKNOWN"
}

// Action is one queued strategic intent with its target.
type Action struct {
	Type   ActionType `json:"type"`
	Target Code       `json:"target"`
}

// StrategyState is the per-nation AI state. Personality never changes once
// assigned; the rest is re-evaluated every tick.
type StrategyState struct {
	Personality Personality `json:"personality"`
	Focus       Focus       `json:"focus"`
	Queue       []Action    `json:"queue"`
	ThreatLevel float64     `json:"threat_level"` // 0..1
	Aggression  int         `json:"aggression"`   // accumulated grievance score
}

// Nation is one record in the registry: a non-player country, or the
// synthetic player polity.
type Nation struct {
	Code Code   `json:"code"`
	Name string `json:"name"`

	// Relations is the stance toward the player polity, -100..100, clamped
	// on every write. Bilateral holds symmetric AI-to-AI relations.
	Relations   int          `json:"relations"`
	Bilateral   map[Code]int `json:"bilateral,omitempty"`
	Disposition Disposition  `json:"disposition"`

	TerritoryLost float64 `json:"territory_lost"` // percent of original land ceded, 0..100

	Population int64   `json:"population"`
	Soldiers   int     `json:"soldiers"`
	Economy    float64 `json:"economy"`   // 0..100 index; absolute budget for the player
	Authority  float64 `json:"authority"` // 0..100
	Influence  float64 `json:"influence"` // soft-power currency
	Power      int     `json:"power"`     // derived, see internal/power

	Modifiers  ModifierSet `json:"modifiers"`
	Agreements []Agreement `json:"agreements"`

	Tariff      Tariff `json:"tariff"`       // the player's tariff against this nation
	TheirTariff Tariff `json:"their_tariff"` // this nation's tariff against the player

	Political PoliticalState `json:"political"`

	Allies  []Code `json:"allies,omitempty"`
	Enemies []Code `json:"enemies,omitempty"`

	// CoalitionSeats counts formal coalition memberships. Coalitions live
	// in their own manager; the engine refreshes this before each power
	// recompute so the diplomacy score can see it.
	CoalitionSeats int `json:"coalition_seats,omitempty"`

	Religion string    `json:"religion"`
	Culture  string    `json:"culture"`
	Centroid geo.Coord `json:"centroid"`

	Annexed   bool `json:"annexed"`
	AnnexedBy Code `json:"annexed_by,omitempty"`

	IsPlayer bool `json:"is_player"`

	Strategy *StrategyState `json:"strategy,omitempty"`
}

// IsAtWar reports whether the nation is at war with the player polity.
func (n *Nation) IsAtWar() bool { return n.Modifiers.Has(ModAtWar) }

// Actionable reports whether the nation may be the target of new diplomatic
// or military actions. Annexed nations are frozen until liberated.
func (n *Nation) Actionable() bool { return n != nil && !n.Annexed }

// HasAlly reports whether code appears in the ally list.
func (n *Nation) HasAlly(code Code) bool {
	for _, a := range n.Allies {
		if a == code {
			return true
		}
	}
	return false
}

// HasEnemy reports whether code appears in the enemy list.
func (n *Nation) HasEnemy(code Code) bool {
	for _, e := range n.Enemies {
		if e == code {
			return true
		}
	}
	return false
}

// RelationsWith returns the bilateral relation to another nation, or the
// player-facing scalar when other is the player. Unknown pairs start at 0.
func (n *Nation) RelationsWith(other Code) int {
	if other == CodePlayer {
		return n.Relations
	}
	return n.Bilateral[other]
}

// AgreementWith returns the first standing agreement of the given type with
// the counterparty, or nil.
func (n *Nation) AgreementWith(other Code, t AgreementType) *Agreement {
	for i := range n.Agreements {
		if n.Agreements[i].With == other && n.Agreements[i].Type == t {
			return &n.Agreements[i]
		}
	}
	return nil
}

// clamp bounds helpers used at every write site.
func clampRelations(v int) int {
	if v > 100 {
		return 100
	}
	if v < -100 {
		return -100
	}
	return v
}

func clampPercent(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
