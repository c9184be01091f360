package nation

import (
	"testing"

	"github.com/talgya/hegemon/internal/entropy"
	"github.com/talgya/hegemon/internal/refdata"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	rng := entropy.NewSeeded(1)
	reg := NewRegistry(refdata.NewStatic(rng), rng)
	reg.Initialize([]string{"USA", "RUS", "FRA", "MNG"})
	return reg
}

func TestUnknownCodeIsSilentNoOp(t *testing.T) {
	reg := newTestRegistry(t)

	if reg.Get("XXX") != nil {
		t.Error("Get for unknown code should return nil")
	}
	if reg.UpdateRelations("XXX", 10) {
		t.Error("UpdateRelations for unknown code should return false")
	}
	if reg.DeclareWar("XXX") {
		t.Error("DeclareWar for unknown code should return false")
	}
	if reg.Annex("XXX", CodePlayer) {
		t.Error("Annex for unknown code should return false")
	}
	if reg.UpdateOccupation("XXX", 10) {
		t.Error("UpdateOccupation for unknown code should return false")
	}
}

func TestRelationsClampedAfterAnySequence(t *testing.T) {
	reg := newTestRegistry(t)
	deltas := []int{80, 80, -300, 17, -1, 250, -42}

	for _, d := range deltas {
		reg.UpdateRelations("RUS", d)
		n := reg.Get("RUS")
		if n.Relations < -100 || n.Relations > 100 {
			t.Fatalf("relations out of range after delta %d: %d", d, n.Relations)
		}
	}
}

func TestTerritoryLostClamped(t *testing.T) {
	reg := newTestRegistry(t)

	reg.UpdateOccupation("FRA", -50)
	if got := reg.Get("FRA").TerritoryLost; got != 0 {
		t.Errorf("territoryLost should clamp at 0, got %f", got)
	}
	reg.UpdateOccupation("FRA", 250)
	if got := reg.Get("FRA").TerritoryLost; got != 100 {
		t.Errorf("territoryLost should clamp at 100, got %f", got)
	}
}

func TestRevanchismThreshold(t *testing.T) {
	reg := newTestRegistry(t)

	reg.UpdateOccupation("RUS", 4)
	if reg.Get("RUS").Modifiers.Has(ModRevanchism) {
		t.Error("4% lost should not trigger revanchism")
	}
	reg.UpdateOccupation("RUS", 3)
	if !reg.Get("RUS").Modifiers.Has(ModRevanchism) {
		t.Error("7% lost should trigger revanchism")
	}
}

func TestDispositionDerivedFromRelations(t *testing.T) {
	reg := newTestRegistry(t)
	n := reg.Get("USA")

	reg.UpdateRelations("USA", 60)
	if n.Disposition != DispositionFriendly {
		t.Errorf("relations %d should be friendly, got %s", n.Relations, n.Disposition)
	}
	reg.UpdateRelations("USA", -120)
	if n.Disposition != DispositionHostile {
		t.Errorf("relations %d should be hostile, got %s", n.Relations, n.Disposition)
	}
}

func TestDispositionPinnedWhileAtWar(t *testing.T) {
	reg := newTestRegistry(t)
	n := reg.Get("RUS")
	n.Agreements = []Agreement{{ID: "a1", Type: AgreementTrade, With: CodePlayer}}

	if !reg.DeclareWar("RUS") {
		t.Fatal("DeclareWar failed")
	}
	if n.Disposition != DispositionAtWar {
		t.Errorf("disposition should be at_war, got %s", n.Disposition)
	}
	if n.Tariff != TariffEmbargo || n.TheirTariff != TariffEmbargo {
		t.Error("war declaration should set mutual embargo")
	}
	if len(n.Agreements) != 0 {
		t.Error("war declaration should clear agreements")
	}

	// Relations mutations must not unpin the disposition mid-war.
	reg.UpdateRelations("RUS", 200)
	if n.Disposition != DispositionAtWar {
		t.Errorf("disposition unpinned during war: %s", n.Disposition)
	}

	if !reg.MakePeace("RUS") {
		t.Fatal("MakePeace failed")
	}
	if n.Disposition == DispositionAtWar {
		t.Error("disposition still at_war after peace")
	}
	if n.Tariff != TariffHigh {
		t.Errorf("peace should relax tariff to high, got %s", n.Tariff)
	}
}

func TestAnnexIdempotent(t *testing.T) {
	reg := newTestRegistry(t)
	reg.DeclareWar("MNG")

	for i := 0; i < 3; i++ {
		if !reg.Annex("MNG", CodePlayer) {
			t.Fatalf("Annex call %d failed", i)
		}
		n := reg.Get("MNG")
		if n.Soldiers != 0 {
			t.Errorf("annexed nation should have 0 soldiers, got %d", n.Soldiers)
		}
		if !n.Annexed || n.AnnexedBy != CodePlayer {
			t.Error("annexed flags not set")
		}
		if n.IsAtWar() {
			t.Error("annexed nation should not retain AT_WAR")
		}
		if n.Actionable() {
			t.Error("annexed nation must not be actionable")
		}
	}
}

func TestLiberateReversesAnnexation(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Annex("FRA", CodePlayer)
	before := reg.Get("FRA").Relations

	if !reg.Liberate("FRA") {
		t.Fatal("Liberate failed")
	}
	n := reg.Get("FRA")
	if n.Annexed {
		t.Error("liberated nation still annexed")
	}
	if n.Soldiers == 0 {
		t.Error("liberated nation should regain a baseline military")
	}
	if n.Relations >= before {
		t.Errorf("liberation should carry a relations penalty: %d -> %d", before, n.Relations)
	}
	if !n.Modifiers.Has(ModRevanchism) {
		t.Error("liberated nation should be revanchist")
	}
	if reg.Liberate("FRA") {
		t.Error("liberating a free nation should be a no-op")
	}
}

func TestBilateralSymmetric(t *testing.T) {
	reg := newTestRegistry(t)

	reg.AdjustBilateral("USA", "RUS", -35)
	if got := reg.Get("USA").RelationsWith("RUS"); got != -35 {
		t.Errorf("USA->RUS = %d, want -35", got)
	}
	if got := reg.Get("RUS").RelationsWith("USA"); got != -35 {
		t.Errorf("RUS->USA = %d, want -35", got)
	}

	reg.AdjustBilateral("USA", "RUS", -200)
	if got := reg.Get("RUS").RelationsWith("USA"); got != -100 {
		t.Errorf("bilateral relations should clamp at -100, got %d", got)
	}
}

func TestAllyListsSymmetric(t *testing.T) {
	reg := newTestRegistry(t)

	reg.AddAlly("USA", "FRA")
	if !reg.Get("USA").HasAlly("FRA") || !reg.Get("FRA").HasAlly("USA") {
		t.Error("alliance should be symmetric")
	}
	if !reg.Get("USA").Modifiers.Has(ModAllied) {
		t.Error("ALLIED modifier should be set")
	}

	reg.RemoveAlly("USA", "FRA")
	if reg.Get("USA").HasAlly("FRA") || reg.Get("FRA").HasAlly("USA") {
		t.Error("alliance removal should be symmetric")
	}
	if reg.Get("USA").Modifiers.Has(ModAllied) {
		t.Error("ALLIED modifier should clear with the last ally")
	}
}

func TestModifierSetClosedEnumeration(t *testing.T) {
	var m ModifierSet
	m.Add(ModRevanchism)
	m.Add(ModAtWar)
	if !m.Has(ModRevanchism) || !m.Has(ModAtWar) || m.Has(ModHumiliated) {
		t.Error("bitset membership wrong")
	}
	m.Remove(ModAtWar)
	if m.Has(ModAtWar) {
		t.Error("Remove did not clear flag")
	}
	names := m.Names()
	if len(names) != 1 || names[0] != "REVANCHISM" {
		t.Errorf("Names() = %v", names)
	}
}

func TestLazyMaterializationFallback(t *testing.T) {
	reg := newTestRegistry(t)

	n := reg.Materialize("ZZZ")
	if n == nil {
		t.Fatal("Materialize returned nil")
	}
	if n.Population < 1_000_000 || n.Population > 5_000_000 {
		t.Errorf("fallback population out of 1-5M range: %d", n.Population)
	}
	if n.Economy != 50 || n.Authority != 50 {
		t.Errorf("fallback economy/authority should be 50, got %f/%f", n.Economy, n.Authority)
	}
	if reg.Get("ZZZ") != n {
		t.Error("materialized nation not registered")
	}
}
