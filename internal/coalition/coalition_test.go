package coalition

import (
	"testing"
	"time"

	"github.com/talgya/hegemon/internal/entropy"
	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/geo"
	"github.com/talgya/hegemon/internal/nation"
	"github.com/talgya/hegemon/internal/refdata"
	"github.com/talgya/hegemon/internal/war"
)

func newTestManager(t *testing.T) (*Manager, *nation.Registry, *war.Ledger) {
	t.Helper()
	rng := entropy.NewSeeded(8)
	reg := nation.NewRegistry(refdata.NewStatic(rng), rng)
	reg.Initialize([]string{"USA", "GBR", "FRA", "DEU", "POL", "RUS", "CHN", "MNG"})
	events := event.NewLog()
	ledger := war.NewLedger(reg, geo.NullService{}, events, rng, time.Nanosecond)
	return NewManager(reg, ledger, events), reg, ledger
}

func TestCreateRequiresSecondMember(t *testing.T) {
	m, _, _ := newTestManager(t)

	if _, err := m.Create("Lonely Pact", TypeMilitary, "USA", nil, nil, 1); err == nil {
		t.Error("coalition with only a founder should fail")
	}
	c, err := m.Create("Atlantic Pact", TypeMilitary, "USA", []nation.Code{"GBR", "FRA"}, nil, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(c.Members) != 3 || c.Leader != "USA" {
		t.Errorf("members=%v leader=%s", c.Members, c.Leader)
	}
}

func TestEligibilityRequirements(t *testing.T) {
	m, reg, _ := newTestManager(t)
	reg.AdjustBilateral("USA", "GBR", 50)
	reg.AdjustBilateral("USA", "RUS", -50)

	reqs := &Requirements{MinRelations: 20}
	c, err := m.Create("Concord", TypeMilitary, "USA", []nation.Code{"GBR"}, reqs, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.Eligible(c, "RUS") {
		t.Error("nation below the relations floor should be ineligible")
	}
	if m.Join(c.ID, "RUS") {
		t.Error("Join must honor eligibility")
	}
	if m.Join(c.ID, "DEU") {
		t.Error("neutral nation at relations 0 is below the floor and should be rejected")
	}
}

func TestExprMembershipRule(t *testing.T) {
	m, reg, _ := newTestManager(t)
	reg.Get("GBR").Religion = "christian"

	reqs := &Requirements{RuleSrc: `Religion == "christian" && Soldiers > 1000`}
	c, err := m.Create("Holy League", TypeMilitary, "FRA", []nation.Code{"GBR", "CHN"}, reqs, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.HasMember("CHN") {
		t.Error("rule should reject non-matching religion")
	}
	if !c.HasMember("GBR") {
		t.Error("rule should admit matching candidate")
	}
}

func TestBadRuleFailsCreation(t *testing.T) {
	m, _, _ := newTestManager(t)
	if _, err := m.Create("Broken", TypeMilitary, "USA", []nation.Code{"GBR"}, &Requirements{RuleSrc: `Religion ==`}, 1); err == nil {
		t.Error("invalid rule source should fail compilation")
	}
}

func TestArticle5ReinforcementPool(t *testing.T) {
	m, reg, _ := newTestManager(t)

	// Five-member military coalition with fixed armies.
	members := []nation.Code{"GBR", "FRA", "DEU", "POL"}
	for i, code := range append([]nation.Code{"USA"}, members...) {
		reg.Get(code).Soldiers = (i + 1) * 100_000
	}
	if _, err := m.Create("Atlantic Pact", TypeMilitary, "USA", members, nil, 1); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// DEU (soldiers 400k) is attacked; others hold 100k+200k+300k+500k.
	defenderBefore := reg.Get("DEU").Soldiers
	othersBefore := 0
	for _, code := range []nation.Code{"USA", "GBR", "FRA", "POL"} {
		othersBefore += reg.Get(code).Soldiers
	}

	cw := m.InvokeArticle5("RUS", "DEU", 2)
	if cw == nil {
		t.Fatal("Article 5 should fire for a coalition member")
	}
	if len(cw.Mobilized) != 4 {
		t.Errorf("exactly the 4 non-defender members should mobilize, got %d", len(cw.Mobilized))
	}

	gained := reg.Get("DEU").Soldiers - defenderBefore
	want := othersBefore / 10
	if diff := gained - want; diff < -4 || diff > 4 {
		t.Errorf("reinforcements = %d, want ~%d (10%% of combined)", gained, want)
	}

	// Every mobilized ally is now at war with the aggressor.
	for _, code := range cw.Mobilized {
		if !m.ledger.AtWar(code, "RUS") {
			t.Errorf("%s should be at war with the aggressor", code)
		}
		if !reg.Get(code).Modifiers.Has(nation.ModMobilized) {
			t.Errorf("%s should carry MOBILIZED", code)
		}
	}
}

func TestArticle5SkipsAnnexedMembers(t *testing.T) {
	m, reg, _ := newTestManager(t)
	if _, err := m.Create("Pact", TypeMilitary, "USA", []nation.Code{"GBR", "FRA", "DEU", "POL"}, nil, 1); err != nil {
		t.Fatalf("Create: %v", err)
	}
	reg.Annex("POL", "RUS")

	cw := m.InvokeArticle5("RUS", "GBR", 2)
	for _, code := range cw.Mobilized {
		if code == "POL" {
			t.Error("annexed member must not mobilize")
		}
	}
}

func TestArticle5NoCoalitionNoCascade(t *testing.T) {
	m, _, _ := newTestManager(t)
	if cw := m.InvokeArticle5("RUS", "MNG", 2); cw != nil {
		t.Error("nation outside any military coalition should not trigger Article 5")
	}
}

func TestSharedMilitaryVeto(t *testing.T) {
	m, _, _ := newTestManager(t)
	if _, err := m.Create("Pact", TypeMilitary, "USA", []nation.Code{"GBR"}, nil, 1); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !m.SharedMilitary("USA", "GBR") {
		t.Error("co-members should report a shared military coalition")
	}
	if m.SharedMilitary("USA", "RUS") {
		t.Error("non-members should not")
	}
	if _, err := m.Create("Guild", TypeTrade, "FRA", []nation.Code{"DEU"}, nil, 1); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.SharedMilitary("FRA", "DEU") {
		t.Error("trade coalitions do not veto rivalry")
	}
}

func TestPruneDissolvesUndersizedCoalitions(t *testing.T) {
	m, reg, _ := newTestManager(t)
	c, err := m.Create("Pact", TypeMilitary, "USA", []nation.Code{"GBR", "FRA"}, nil, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	m.Leave(c.ID, "FRA")
	m.Prune(3)
	if c.Dissolved {
		t.Fatal("two-member coalition should survive")
	}

	reg.Annex("GBR", "RUS")
	m.Prune(4)
	if !c.Dissolved {
		t.Error("coalition reduced below two members should dissolve")
	}
	if m.Get(c.ID) != nil {
		t.Error("dissolved coalition should not be retrievable")
	}
}

func TestLeaderLeavingPassesLeadership(t *testing.T) {
	m, _, _ := newTestManager(t)
	c, _ := m.Create("Pact", TypeMilitary, "USA", []nation.Code{"GBR", "FRA"}, nil, 1)

	m.Leave(c.ID, "USA")
	if c.Leader != "GBR" {
		t.Errorf("leadership should pass to the next member, got %s", c.Leader)
	}
}

func TestKickRequiresLeader(t *testing.T) {
	m, _, _ := newTestManager(t)
	c, _ := m.Create("Pact", TypeMilitary, "USA", []nation.Code{"GBR", "FRA"}, nil, 1)

	if m.Kick(c.ID, "GBR", "FRA") {
		t.Error("non-leader must not kick")
	}
	if m.Kick(c.ID, "USA", "USA") {
		t.Error("leader cannot kick themselves")
	}
	if !m.Kick(c.ID, "USA", "FRA") {
		t.Error("leader kick should succeed")
	}
	if c.HasMember("FRA") {
		t.Error("kicked member still present")
	}
}

func TestCoalitionWarResolvesOnAnnexation(t *testing.T) {
	m, reg, ledger := newTestManager(t)
	m.Create("Pact", TypeMilitary, "USA", []nation.Code{"GBR", "FRA"}, nil, 1)

	cw := m.InvokeArticle5("RUS", "USA", 2)
	reg.Annex("USA", "RUS")
	m.ResolveWars(ledger, 3)
	if cw.Status != CoalitionWarDefeat {
		t.Errorf("defender annexed should be defeat, got %s", cw.Status)
	}

	cw2 := m.InvokeArticle5("CHN", "GBR", 4)
	reg.Annex("CHN", "GBR")
	m.ResolveWars(ledger, 5)
	if cw2.Status != CoalitionWarVictory {
		t.Errorf("aggressor annexed should be victory, got %s", cw2.Status)
	}
}
