package persistence

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/talgya/hegemon/internal/coalition"
	"github.com/talgya/hegemon/internal/geo"
	"github.com/talgya/hegemon/internal/nation"
	"github.com/talgya/hegemon/internal/war"
)

func sampleNations() []*nation.Nation {
	return []*nation.Nation{
		{
			Code: nation.CodePlayer, Name: "Player Polity", IsPlayer: true,
			Economy: 9_500_000, Influence: 80, Soldiers: 100_000,
			Bilateral: map[nation.Code]int{},
			Political: nation.PoliticalState{Government: "republic", Stability: 70},
		},
		{
			Code: "RUS", Name: "Russia", Relations: -60,
			Disposition: nation.DispositionHostile, TerritoryLost: 12.5,
			Population: 144_000_000, Soldiers: 280_000, Economy: 48,
			Authority: 70, Influence: 55, Power: 61000,
			Bilateral: map[nation.Code]int{"POL": -80},
			Agreements: []nation.Agreement{
				{ID: uuid.NewString(), Type: nation.AgreementTrade, With: "CHN", SignedTick: 4},
			},
			Centroid: geo.Coord{Lat: 61.5, Lon: 99.4},
			Strategy: &nation.StrategyState{
				Personality: nation.PersonalityExpansionist,
				Queue:       []nation.Action{{Type: nation.ActionDeclareWar, Target: "POL"}},
			},
		},
	}
}

func sampleState() ([]*nation.Nation, []*war.War, []*coalition.Coalition) {
	nations := sampleNations()
	nations[1].Modifiers.Add(nation.ModRevanchism)
	wars := []*war.War{{
		ID: uuid.NewString(), Attacker: "RUS", Defender: "POL",
		StartedTick: 10, AttackerGain: 15, AttackerCasualties: 4200,
		DefenderCasualties: 3100, Status: war.StatusActive,
	}}
	coalitions := []*coalition.Coalition{{
		ID: uuid.NewString(), Name: "Eastern Pact", Type: coalition.TypeMilitary,
		Leader: "RUS", Members: []nation.Code{"RUS", "BLR"}, FoundedTick: 3,
		Reqs: &coalition.Requirements{MinRelations: 10, RuleSrc: "Soldiers > 1000"},
	}}
	return nations, wars, coalitions
}

func TestWorldStateRoundTrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "world.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	nations, wars, coalitions := sampleState()
	if err := db.SaveWorldState(nations, wars, coalitions, nil, 42); err != nil {
		t.Fatal(err)
	}
	if !db.HasWorldState() {
		t.Fatal("saved state should be detectable")
	}

	gotNations, err := db.LoadNations()
	if err != nil {
		t.Fatal(err)
	}
	if len(gotNations) != 2 {
		t.Fatalf("expected 2 nations, got %d", len(gotNations))
	}
	var rus *nation.Nation
	for _, n := range gotNations {
		if n.Code == "RUS" {
			rus = n
		}
	}
	if rus == nil {
		t.Fatal("RUS not restored")
	}
	if rus.Relations != -60 || rus.TerritoryLost != 12.5 || !rus.Modifiers.Has(nation.ModRevanchism) {
		t.Error("scalar fields or modifiers lost in round trip")
	}
	if rus.Bilateral["POL"] != -80 {
		t.Error("bilateral map lost in round trip")
	}
	if len(rus.Agreements) != 1 || rus.Agreements[0].With != "CHN" {
		t.Error("agreements lost in round trip")
	}
	if rus.Strategy == nil || rus.Strategy.Personality != nation.PersonalityExpansionist {
		t.Error("strategy state lost in round trip")
	}
	if len(rus.Strategy.Queue) != 1 || rus.Strategy.Queue[0].Target != "POL" {
		t.Error("action queue lost in round trip")
	}

	gotWars, err := db.LoadWars()
	if err != nil {
		t.Fatal(err)
	}
	if len(gotWars) != 1 || gotWars[0].AttackerGain != 15 || gotWars[0].Status != war.StatusActive {
		t.Error("war record lost in round trip")
	}

	gotCoalitions, err := db.LoadCoalitions()
	if err != nil {
		t.Fatal(err)
	}
	if len(gotCoalitions) != 1 {
		t.Fatalf("expected 1 coalition, got %d", len(gotCoalitions))
	}
	c := gotCoalitions[0]
	if c.Leader != "RUS" || len(c.Members) != 2 || c.Reqs == nil || c.Reqs.RuleSrc != "Soldiers > 1000" {
		t.Error("coalition record lost in round trip")
	}

	tick, err := db.GetMeta("last_tick")
	if err != nil || tick != "42" {
		t.Errorf("last_tick = %q, %v", tick, err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	nations, wars, coalitions := sampleState()
	snap := &Snapshot{Tick: 42, Nations: nations, Wars: wars, Coalitions: coalitions}

	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, snap); err != nil {
		t.Fatal(err)
	}

	got, err := ReadSnapshot(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if got.Tick != 42 || len(got.Nations) != 2 || len(got.Wars) != 1 || len(got.Coalitions) != 1 {
		t.Error("snapshot contents lost in round trip")
	}
	if got.Nations[1].Bilateral["POL"] != -80 {
		t.Error("nested state lost in round trip")
	}
}

func TestSnapshotRejectsCorruption(t *testing.T) {
	nations, wars, coalitions := sampleState()
	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, &Snapshot{Tick: 1, Nations: nations, Wars: wars, Coalitions: coalitions}); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	// Flip a byte in the compressed payload.
	corrupted := append([]byte(nil), data...)
	corrupted[len(corrupted)-10] ^= 0xFF
	if _, err := ReadSnapshot(bytes.NewReader(corrupted)); err == nil {
		t.Error("corrupted payload should be rejected")
	}

	// Truncate the body.
	if _, err := ReadSnapshot(bytes.NewReader(data[:len(data)-20])); err == nil {
		t.Error("truncated snapshot should be rejected")
	}

	// Wrong magic.
	bad := append([]byte(nil), data...)
	bad[0] = 'X'
	if _, err := ReadSnapshot(bytes.NewReader(bad)); err == nil {
		t.Error("wrong magic should be rejected")
	}
}

func TestSnapshotExportImportFile(t *testing.T) {
	nations, wars, coalitions := sampleState()
	path := filepath.Join(t.TempDir(), "world.hgsn")

	if err := ExportSnapshot(path, &Snapshot{Tick: 7, Nations: nations, Wars: wars, Coalitions: coalitions}); err != nil {
		t.Fatal(err)
	}
	got, err := ImportSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tick != 7 {
		t.Errorf("tick = %d, want 7", got.Tick)
	}
}
