package diplomacy

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/hegemon/internal/combat"
	"github.com/talgya/hegemon/internal/entropy"
	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/geo"
	"github.com/talgya/hegemon/internal/nation"
	"github.com/talgya/hegemon/internal/refdata"
	"github.com/talgya/hegemon/internal/war"
)

func newTestOffice(t *testing.T, seed int64) (*Office, *nation.Registry, *war.Ledger) {
	t.Helper()
	rng := entropy.NewSeeded(seed)
	reg := nation.NewRegistry(refdata.NewStatic(rng), rng)
	reg.Initialize([]string{"USA", "RUS", "FRA", "POL", "MNG"})
	ledger := war.NewLedger(reg, geo.NullService{}, event.NewLog(), rng, time.Hour)
	return NewOffice(reg, ledger, event.NewLog(), rng), reg, ledger
}

func TestTradeAgreementAcceptanceRate(t *testing.T) {
	o, reg, _ := newTestOffice(t, 7)
	fra := reg.Get("FRA")
	player := reg.Player()

	const trials = 10_000
	accepted := 0
	for i := 0; i < trials; i++ {
		fra.Relations = 5
		fra.Agreements = nil
		player.Agreements = nil

		ok, err := o.ProposeAgreement(nation.CodePlayer, "FRA", nation.AgreementTrade, 1)
		if err != nil {
			t.Fatalf("trial %d: %v", i, err)
		}
		if ok {
			accepted++
			if fra.Relations != 15 {
				t.Fatalf("acceptance should leave relations at +15, got %d", fra.Relations)
			}
			if fra.AgreementWith(nation.CodePlayer, nation.AgreementTrade) == nil ||
				player.AgreementWith("FRA", nation.AgreementTrade) == nil {
				t.Fatal("acceptance should record the agreement on both parties")
			}
		} else if fra.Relations != 3 {
			t.Fatalf("rejection should cost 2 relations, got %d", fra.Relations)
		}
	}

	rate := float64(accepted) / trials
	if rate < 0.77 || rate > 0.83 {
		t.Errorf("trade acceptance rate at relations=+5 was %.3f, want about 0.8", rate)
	}
}

func TestAllianceNeverAcceptedBelowThreshold(t *testing.T) {
	o, reg, _ := newTestOffice(t, 11)
	fra := reg.Get("FRA")

	for i := 0; i < 200; i++ {
		fra.Relations = 70 // threshold is strictly greater than 70
		fra.Agreements = nil
		reg.Player().Agreements = nil
		ok, err := o.ProposeAgreement(nation.CodePlayer, "FRA", nation.AgreementMilitaryAlliance, 1)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("alliance must never be accepted at relations <= 70")
		}
	}
}

func TestProposalBlockedByWarAndDuplicates(t *testing.T) {
	o, _, ledger := newTestOffice(t, 3)

	ledger.Open("RUS", nation.CodePlayer, combat.IntensityStandard, 1)
	if _, err := o.ProposeAgreement(nation.CodePlayer, "RUS", nation.AgreementTrade, 2); err == nil {
		t.Error("agreements with a belligerent should be refused")
	}

	// A standing agreement of the same type blocks a second proposal.
	reg := o.Reg
	fra := reg.Get("FRA")
	fra.Agreements = append(fra.Agreements, nation.Agreement{ID: uuid.NewString(), Type: nation.AgreementTrade, With: nation.CodePlayer})
	if _, err := o.ProposeAgreement(nation.CodePlayer, "FRA", nation.AgreementTrade, 2); err == nil {
		t.Error("duplicate agreement should be refused")
	}
}

func TestBreakAgreement(t *testing.T) {
	o, reg, _ := newTestOffice(t, 5)
	fra := reg.Get("FRA")
	player := reg.Player()

	id := uuid.NewString()
	player.Agreements = []nation.Agreement{{ID: id, Type: nation.AgreementTrade, With: "FRA"}}
	fra.Agreements = []nation.Agreement{{ID: uuid.NewString(), Type: nation.AgreementTrade, With: nation.CodePlayer}}
	fra.Relations = 30

	if !o.BreakAgreement(nation.CodePlayer, "FRA", id, 1) {
		t.Fatal("breaking an existing agreement must succeed")
	}
	if len(player.Agreements) != 0 || len(fra.Agreements) != 0 {
		t.Error("both mirrored records should be removed")
	}
	if fra.Relations != -10 {
		t.Errorf("breaking should cost 40 relations, got %d", fra.Relations)
	}
	if o.BreakAgreement(nation.CodePlayer, "FRA", id, 1) {
		t.Error("breaking the same agreement twice should fail")
	}
}

func TestSetTariffPlayerSemantics(t *testing.T) {
	o, reg, _ := newTestOffice(t, 9)
	fra := reg.Get("FRA")
	fra.Relations = 0

	if !o.SetTariff(nation.CodePlayer, "FRA", nation.TariffEmbargo, 1) {
		t.Fatal("SetTariff failed")
	}
	if fra.Tariff != nation.TariffEmbargo {
		t.Error("player tariff should be stored on the target's Tariff field")
	}
	if fra.Relations != -50 {
		t.Errorf("embargo should cost 50 relations, got %d", fra.Relations)
	}

	fra.Relations = 0
	o.SetTariff("FRA", nation.CodePlayer, nation.TariffFreeTrade, 1)
	if fra.TheirTariff != nation.TariffFreeTrade {
		t.Error("a nation's tariff against the player should be stored on TheirTariff")
	}
	if fra.Relations != 10 {
		t.Errorf("free trade should warm relations by 10, got %d", fra.Relations)
	}
}

func TestDestabilizeBudgetGate(t *testing.T) {
	o, reg, _ := newTestOffice(t, 13)
	player := reg.Player()
	rus := reg.Get("RUS")

	player.Economy = 100 // far below the action cost
	soldiersBefore := rus.Soldiers
	if _, err := o.Destabilize(nation.CodePlayer, "RUS", 1); err == nil {
		t.Fatal("destabilize without budget should fail")
	}
	if rus.Soldiers != soldiersBefore || player.Economy != 100 {
		t.Error("a failed covert action must not mutate state")
	}

	player.Economy = 10_000_000
	rus.Relations = 0
	if _, err := o.Destabilize(nation.CodePlayer, "RUS", 1); err != nil {
		t.Fatal(err)
	}
	lostFrac := 1 - float64(rus.Soldiers)/float64(soldiersBefore)
	if lostFrac < 0.15 || lostFrac > 0.25 {
		t.Errorf("destabilize should cut soldiers 15-25%%, cut %.3f", lostFrac)
	}
	if !rus.Modifiers.Has(nation.ModDestabilized) {
		t.Error("DESTABILIZED modifier should stick")
	}
	if rus.Relations != -40 {
		t.Errorf("destabilize should cost 40 relations, got %d", rus.Relations)
	}
	if player.Economy != 10_000_000-500_000 {
		t.Errorf("budget should drop by the action cost, got %.0f", player.Economy)
	}
}

func TestFundSeparatistsGutsCompositePower(t *testing.T) {
	o, reg, _ := newTestOffice(t, 19)
	player := reg.Player()
	fra := reg.Get("FRA")
	player.Economy = 10_000_000

	powerBefore := fra.Power
	if _, err := o.FundSeparatists(nation.CodePlayer, "FRA", 1); err != nil {
		t.Fatal(err)
	}

	drop := 1 - float64(fra.Power)/float64(powerBefore)
	if drop < 0.15 || drop > 0.27 {
		t.Errorf("separatists should gut about a fifth of composite power, cut %.3f", drop)
	}
	if !fra.Modifiers.Has(nation.ModSeparatistUnrest) {
		t.Error("SEPARATIST_UNREST modifier should stick")
	}
	if fra.Relations != -30 {
		t.Errorf("funding separatists should cost 30 relations, got %d", fra.Relations)
	}
}

func TestInfluenceSpendAndGate(t *testing.T) {
	o, reg, _ := newTestOffice(t, 17)
	player := reg.Player()
	fra := reg.Get("FRA")
	fra.Relations = 0

	player.Influence = 100
	if _, err := o.ExecuteInfluence(nation.CodePlayer, "FRA", InfluenceCulturalExchange, 1); err != nil {
		t.Fatal(err)
	}
	if player.Influence != 80 {
		t.Errorf("cultural exchange should cost 20 influence, left %.0f", player.Influence)
	}
	if fra.Relations != 10 {
		t.Errorf("cultural exchange should warm relations by 10, got %d", fra.Relations)
	}

	player.Influence = 10
	if _, err := o.ExecuteInfluence(nation.CodePlayer, "FRA", InfluenceEspionage, 1); err == nil {
		t.Error("influence actions without points should fail")
	}
	if player.Influence != 10 {
		t.Error("a failed influence action must not spend points")
	}
}

func TestResolutionPassesAndSanctions(t *testing.T) {
	o, reg, _ := newTestOffice(t, 19)
	pol := reg.Get("POL")
	economyBefore := pol.Economy

	r, err := o.ProposeResolution("FRA", ResolutionSanction, "POL", false, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, voter := range []nation.Code{"USA", "RUS", "MNG"} {
		if !o.CastVote(r.ID, voter, VoteYes) {
			t.Fatalf("vote by %s rejected", voter)
		}
	}

	o.TickResolutions(3)
	if r.Status != ResolutionPassed {
		t.Fatalf("resolution should pass 4-1, got %s", r.Status)
	}
	if !pol.Modifiers.Has(nation.ModSanctioned) {
		t.Error("sanction resolution should mark the target SANCTIONED")
	}
	if pol.Economy >= economyBefore {
		t.Error("sanctions should damage the target economy")
	}
}

func TestResolutionVeto(t *testing.T) {
	o, reg, _ := newTestOffice(t, 23)

	r, err := o.ProposeResolution("FRA", ResolutionSanction, "POL", true, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, voter := range []nation.Code{"RUS", "MNG"} {
		o.CastVote(r.ID, voter, VoteYes)
	}
	o.CastVote(r.ID, "USA", VoteNo) // Security Council member

	o.TickResolutions(3)
	if r.Status != ResolutionVetoed {
		t.Fatalf("a Security Council no-vote should veto, got %s", r.Status)
	}
	if reg.Get("POL").Modifiers.Has(nation.ModSanctioned) {
		t.Error("a vetoed resolution must have no effect")
	}
}

func TestResolutionPeacekeepingEndsWars(t *testing.T) {
	o, _, ledger := newTestOffice(t, 29)
	w := ledger.Open("RUS", "POL", combat.IntensityStandard, 1)

	r, err := o.ProposeResolution("FRA", ResolutionPeacekeeping, "POL", false, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, voter := range []nation.Code{"USA", "RUS", "MNG"} {
		o.CastVote(r.ID, voter, VoteYes)
	}
	o.TickResolutions(3)
	if r.Status != ResolutionPassed {
		t.Fatalf("resolution should pass, got %s", r.Status)
	}
	if w.Status != war.StatusPeace {
		t.Errorf("peacekeeping should force the target's wars to peace, got %s", w.Status)
	}
}

func TestCrisisEscalatesOnePhaseAtATime(t *testing.T) {
	o, _, ledger := newTestOffice(t, 31)

	c, err := o.StartCrisis("RUS", "FRA", 1)
	if err != nil {
		t.Fatal(err)
	}
	if c.Phase != PhaseIncident {
		t.Fatalf("new crisis should open at phase 1, got %d", c.Phase)
	}

	for c.Phase < PhaseWar {
		before := c.Phase
		if _, err := o.CrisisMove(c.ID, "RUS", ActionEscalate, 2); err != nil {
			t.Fatal(err)
		}
		if c.Phase != before+1 {
			t.Fatalf("escalation jumped from phase %d to %d", before, c.Phase)
		}
	}

	if !c.Resolved || c.Outcome != "escalated to war" {
		t.Error("reaching phase 5 should resolve the crisis as war")
	}
	if ledger.Between("RUS", "FRA") == nil {
		t.Error("phase 5 should declare war between the two participants")
	}
	if _, err := o.CrisisMove(c.ID, "RUS", ActionEscalate, 3); err == nil {
		t.Error("a resolved crisis should reject further moves")
	}
}

func TestCrisisHoldFirmNeverAdvances(t *testing.T) {
	o, _, _ := newTestOffice(t, 37)
	c, err := o.StartCrisis("RUS", "FRA", 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if _, err := o.CrisisMove(c.ID, "FRA", ActionHoldFirm, 2); err != nil {
			t.Fatal(err)
		}
	}
	if c.Phase != PhaseIncident || c.Resolved {
		t.Error("holding firm must neither advance nor resolve a crisis")
	}
}

func TestCrisisDeepPhasesNarrowActions(t *testing.T) {
	o, _, _ := newTestOffice(t, 43)
	c, err := o.StartCrisis("RUS", "FRA", 1)
	if err != nil {
		t.Fatal(err)
	}
	o.CrisisMove(c.ID, "RUS", ActionEscalate, 2) // demands
	o.CrisisMove(c.ID, "RUS", ActionEscalate, 3) // ultimatum

	if _, err := o.CrisisMove(c.ID, "FRA", ActionProposeSummit, 4); err == nil {
		t.Error("summits should be off the table once an ultimatum stands")
	}
	if _, err := o.CrisisMove(c.ID, "FRA", ActionSeekMediation, 4); err != nil {
		t.Errorf("mediation should still be open at the ultimatum phase: %v", err)
	}

	for c.Phase < PhaseMobilization {
		if _, err := o.CrisisMove(c.ID, "RUS", ActionEscalate, 5); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := o.CrisisMove(c.ID, "FRA", ActionSeekMediation, 6); err == nil {
		t.Error("mediation should be off the table once armies mobilize")
	}
	if _, err := o.CrisisMove(c.ID, "FRA", ActionHoldFirm, 6); err != nil {
		t.Errorf("holding firm survives to the last phase: %v", err)
	}
	if c.Resolved {
		t.Fatal("rejected actions must not resolve the crisis")
	}
	if _, err := o.CrisisMove(c.ID, "FRA", ActionBackDown, 7); err != nil {
		t.Errorf("backing down survives to the last phase: %v", err)
	}
}

func TestCrisisBackDownLateIsHumiliating(t *testing.T) {
	o, reg, _ := newTestOffice(t, 41)
	c, err := o.StartCrisis("RUS", "FRA", 1)
	if err != nil {
		t.Fatal(err)
	}
	o.CrisisMove(c.ID, "RUS", ActionEscalate, 2) // demands
	o.CrisisMove(c.ID, "RUS", ActionEscalate, 3) // ultimatum

	if _, err := o.CrisisMove(c.ID, "FRA", ActionBackDown, 4); err != nil {
		t.Fatal(err)
	}
	if !c.Resolved {
		t.Fatal("backing down should resolve the crisis")
	}
	if !reg.Get("FRA").Modifiers.Has(nation.ModHumiliated) {
		t.Error("backing down past the ultimatum stage should humiliate")
	}
	if o.CrisisBetween("RUS", "FRA") != nil {
		t.Error("a resolved crisis should not count as active")
	}

	if _, err := o.StartCrisis("RUS", "FRA", 5); err != nil {
		t.Error("a new crisis should be allowed once the old one is resolved")
	}
}

func TestCrisisRejectsNonParticipants(t *testing.T) {
	o, _, _ := newTestOffice(t, 43)
	c, _ := o.StartCrisis("RUS", "FRA", 1)
	if _, err := o.CrisisMove(c.ID, "USA", ActionEscalate, 2); err == nil {
		t.Error("a non-party should not be able to act in a crisis")
	}
	if _, err := o.StartCrisis("FRA", "RUS", 2); err == nil {
		t.Error("a second concurrent crisis for the same pair should be refused")
	}
}

func TestSummitLifecycle(t *testing.T) {
	o, reg, _ := newTestOffice(t, 47)
	reg.AdjustBilateral("USA", "FRA", 60)

	s, err := o.ProposeSummit("USA", "FRA", "trade normalization", 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := o.TableProposal(s.ID, "RUS", "observer motion"); err == nil {
		t.Error("non-attendees should not table proposals")
	}
	for i := 0; i < 5; i++ {
		if _, err := o.TableProposal(s.ID, "USA", "tariff reduction"); err != nil {
			t.Fatal(err)
		}
	}

	done, err := o.ConcludeSummit(s.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range done.Proposals {
		if !p.Decided {
			t.Error("concluding a summit should decide every proposal")
		}
	}
	if _, err := o.ConcludeSummit(s.ID, 3); err == nil {
		t.Error("a concluded summit should not conclude twice")
	}
	if _, err := o.TableProposal(s.ID, "USA", "late motion"); err == nil {
		t.Error("a concluded summit should reject new proposals")
	}
}
