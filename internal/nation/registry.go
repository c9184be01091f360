// Nation Registry — the owned store every component receives a handle to.
// Missing codes are silent no-ops: the registry is sparse by design and
// nations are lazily materialized from reference data.
package nation

import (
	"fmt"
	"log/slog"

	"github.com/talgya/hegemon/internal/entropy"
	"github.com/talgya/hegemon/internal/geo"
	"github.com/talgya/hegemon/internal/power"
	"github.com/talgya/hegemon/internal/refdata"
)

// revanchismThreshold is the territory-lost percentage above which a nation
// acquires the REVANCHISM modifier.
const revanchismThreshold = 5.0

// Registry is the authoritative keyed collection of nation records.
type Registry struct {
	nations map[Code]*Nation
	order   []Code // stable iteration order

	ref refdata.Provider
	rng entropy.Source
}

// NewRegistry creates an empty registry wired to its collaborators. Event
// emission stays with the instruments and the orchestrator; the registry
// only mutates records.
func NewRegistry(ref refdata.Provider, rng entropy.Source) *Registry {
	return &Registry{
		nations: make(map[Code]*Nation),
		ref:     ref,
		rng:     rng,
	}
}

// Initialize materializes one record per code plus the synthetic player
// polity. Safe to call on an already-populated registry; existing records
// are kept.
func (r *Registry) Initialize(codes []string) {
	if r.Get(CodePlayer) == nil {
		player := &Nation{
			Code:       CodePlayer,
			Name:       "Player Polity",
			IsPlayer:   true,
			Economy:    10_000_000, // absolute budget for the player
			Authority:  50,
			Influence:  100,
			Population: 10_000_000,
			Soldiers:   100_000,
			Bilateral:  make(map[Code]int),
			Political:  PoliticalState{Government: "republic", Stability: 70, Unrest: 20},
		}
		r.put(player)
	}
	for _, code := range codes {
		r.Materialize(Code(code))
	}
	slog.Info("nation registry initialized", "nations", len(r.order))
}

// Materialize returns the record for code, creating it from reference data
// (or fallback defaults) if absent.
func (r *Registry) Materialize(code Code) *Nation {
	if n, ok := r.nations[code]; ok {
		return n
	}
	ref, known := r.ref.Lookup(string(code))

	n := &Nation{
		Code:       code,
		Name:       ref.Name,
		Population: ref.Population,
		Soldiers:   int(ref.Population / 500), // baseline standing army
		Economy:    50,
		Authority:  50,
		Influence:  50,
		Religion:   ref.Religion,
		Culture:    ref.Culture,
		Centroid:   ref.Centroid,
		Bilateral:  make(map[Code]int),
		Political: PoliticalState{
			Government:  ref.Government,
			Leader:      fmt.Sprintf("Premier of %s", ref.Name),
			Orientation: r.rng.Intn(201) - 100,
			Stability:   50 + float64(r.rng.Intn(30)),
			Unrest:      float64(r.rng.Intn(30)),
		},
	}
	n.Disposition = DispositionFor(n.Relations)
	r.RecomputePower(n)
	r.put(n)

	if !known {
		slog.Debug("nation materialized from fallback defaults", "code", code)
	}
	return n
}

func (r *Registry) put(n *Nation) {
	r.nations[n.Code] = n
	r.order = append(r.order, n.Code)
}

// Restore inserts a persisted record, replacing any lazily materialized
// one for the same code.
func (r *Registry) Restore(n *Nation) {
	if n == nil || n.Code == "" {
		return
	}
	if n.Bilateral == nil {
		n.Bilateral = make(map[Code]int)
	}
	if _, ok := r.nations[n.Code]; ok {
		r.nations[n.Code] = n
		return
	}
	r.put(n)
}

// Get returns the record for code, or nil for unknown codes.
func (r *Registry) Get(code Code) *Nation {
	return r.nations[code]
}

// Player returns the synthetic player record.
func (r *Registry) Player() *Nation { return r.nations[CodePlayer] }

// All returns every record in stable insertion order.
func (r *Registry) All() []*Nation {
	out := make([]*Nation, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.nations[code])
	}
	return out
}

// Len returns the number of records, the player included.
func (r *Registry) Len() int { return len(r.order) }

// UpdateRelations applies a clamped delta to the player-facing relations of
// code and recomputes disposition unless the nation is at war. Returns
// false for unknown codes.
func (r *Registry) UpdateRelations(code Code, delta int) bool {
	n := r.Get(code)
	if n == nil {
		return false
	}
	n.Relations = clampRelations(n.Relations + delta)
	if !n.IsAtWar() {
		n.Disposition = DispositionFor(n.Relations)
	}
	return true
}

// AdjustBilateral applies a clamped, symmetric delta to the relations
// between two AI nations. No-op if either code is unknown.
func (r *Registry) AdjustBilateral(a, b Code, delta int) bool {
	na, nb := r.Get(a), r.Get(b)
	if na == nil || nb == nil || a == b {
		return false
	}
	if a == CodePlayer {
		return r.UpdateRelations(b, delta)
	}
	if b == CodePlayer {
		return r.UpdateRelations(a, delta)
	}
	na.Bilateral[b] = clampRelations(na.Bilateral[b] + delta)
	nb.Bilateral[a] = clampRelations(nb.Bilateral[a] + delta)
	return true
}

// DeclareWar flips code into a state of war with the player polity: AT_WAR
// modifier, disposition pinned, mutual embargo, all agreements void.
// Returns false for unknown or annexed nations.
func (r *Registry) DeclareWar(code Code) bool {
	n := r.Get(code)
	if !n.Actionable() {
		return false
	}
	n.Modifiers.Add(ModAtWar)
	n.Disposition = DispositionAtWar
	n.Relations = clampRelations(n.Relations - 50)
	n.Tariff = TariffEmbargo
	n.TheirTariff = TariffEmbargo
	r.voidAgreements(n)
	n.Modifiers.Remove(ModAllied)
	removeCode(&n.Allies, CodePlayer)
	if p := r.Player(); p != nil {
		removeCode(&p.Allies, code)
		r.RecomputePower(p)
	}
	addCode(&n.Enemies, CodePlayer)
	r.RecomputePower(n)
	return true
}

// voidAgreements tears up every standing agreement on the record and the
// mirrored entry on each counterparty. Agreements are recorded on both
// sides, so clearing only one list would leave stale entries feeding the
// counterparty's power score.
func (r *Registry) voidAgreements(n *Nation) {
	for i := range n.Agreements {
		other := r.nations[n.Agreements[i].With]
		if other == nil || other == n {
			continue
		}
		kept := other.Agreements[:0]
		for _, ag := range other.Agreements {
			if ag.With != n.Code {
				kept = append(kept, ag)
			}
		}
		other.Agreements = kept
	}
	n.Agreements = nil
}

// MakePeace clears the state of war with the player: AT_WAR removed,
// tariffs relaxed to high, disposition recomputed from relations.
func (r *Registry) MakePeace(code Code) bool {
	n := r.Get(code)
	if n == nil || !n.IsAtWar() {
		return false
	}
	n.Modifiers.Remove(ModAtWar)
	n.Tariff = TariffHigh
	n.TheirTariff = TariffHigh
	removeCode(&n.Enemies, CodePlayer)
	n.Disposition = DispositionFor(n.Relations)
	return true
}

// Annex marks a nation as absorbed. Idempotent in effect: soldiers zeroed,
// annexed flag set, agreements void. Removal from wars and coalitions is
// the caller's write phase — territory merge is delegated to geometry.
func (r *Registry) Annex(code Code, annexer Code) bool {
	n := r.Get(code)
	if n == nil {
		return false
	}
	n.Annexed = true
	n.AnnexedBy = annexer
	n.Soldiers = 0
	r.voidAgreements(n)
	for _, ally := range n.Allies {
		if other := r.nations[ally]; other != nil {
			removeCode(&other.Allies, code)
		}
	}
	n.Allies = nil
	n.Modifiers.Remove(ModAtWar)
	n.Modifiers.Remove(ModAllied)
	n.Modifiers.Remove(ModMobilized)
	n.TerritoryLost = 100
	n.Disposition = DispositionFor(n.Relations)
	r.RecomputePower(n)
	return true
}

// Liberate reverses an annexation: the nation returns with a reset military
// baseline, lingering resentment toward its former occupier, and the
// revanchist drive that comes with it.
func (r *Registry) Liberate(code Code) bool {
	n := r.Get(code)
	if n == nil || !n.Annexed {
		return false
	}
	occupier := n.AnnexedBy
	n.Annexed = false
	n.AnnexedBy = ""
	n.Soldiers = int(n.Population / 1000) // skeleton force
	n.TerritoryLost = 50
	n.Modifiers.Add(ModRevanchism)
	if occupier == CodePlayer {
		n.Relations = clampRelations(n.Relations - 30)
		n.Disposition = DispositionFor(n.Relations)
	} else if occupier != "" {
		r.AdjustBilateral(code, occupier, -60)
	}
	r.RecomputePower(n)
	return true
}

// UpdateOccupation adjusts territoryLost by deltaPercent, clamped 0..100.
// Crossing the revanchism threshold adds the standing modifier; full loss
// is left for the tick-start cleanup to convert into annexation.
func (r *Registry) UpdateOccupation(code Code, deltaPercent float64) bool {
	n := r.Get(code)
	if n == nil {
		return false
	}
	n.TerritoryLost = clampPercent(n.TerritoryLost + deltaPercent)
	if n.TerritoryLost > revanchismThreshold {
		n.Modifiers.Add(ModRevanchism)
	}
	return true
}

// AdjustSoldiers applies a delta to the army headcount, floored at zero.
func (r *Registry) AdjustSoldiers(code Code, delta int) bool {
	n := r.Get(code)
	if n == nil {
		return false
	}
	n.Soldiers += delta
	if n.Soldiers < 0 {
		n.Soldiers = 0
	}
	return true
}

// RecomputePower refreshes the derived composite score on the record.
func (r *Registry) RecomputePower(n *Nation) {
	if n == nil {
		return
	}
	in := power.Input{
		Soldiers:   n.Soldiers,
		Unrest:     n.Political.Unrest,
		Allies:     len(n.Allies),
		Coalitions: n.CoalitionSeats,
		Agreements: len(n.Agreements),
	}
	if n.IsPlayer {
		in.Budget = n.Economy
	} else {
		in.Economy = n.Economy
	}
	n.Power = power.Score(in)
}

// DistanceBetween returns the centroid distance in km between two nations,
// or 0 when either is unknown.
func (r *Registry) DistanceBetween(a, b Code) float64 {
	na, nb := r.Get(a), r.Get(b)
	if na == nil || nb == nil {
		return 0
	}
	return geo.Distance(na.Centroid, nb.Centroid)
}

// addCode and removeCode maintain the small ally/enemy lists.
func addCode(list *[]Code, code Code) {
	for _, c := range *list {
		if c == code {
			return
		}
	}
	*list = append(*list, code)
}

func removeCode(list *[]Code, code Code) {
	for i, c := range *list {
		if c == code {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
}

// AddAlly records a symmetric military alliance between two nations.
func (r *Registry) AddAlly(a, b Code) bool {
	na, nb := r.Get(a), r.Get(b)
	if na == nil || nb == nil || a == b {
		return false
	}
	addCode(&na.Allies, b)
	addCode(&nb.Allies, a)
	na.Modifiers.Add(ModAllied)
	nb.Modifiers.Add(ModAllied)
	return true
}

// RemoveAlly severs a military alliance in both directions.
func (r *Registry) RemoveAlly(a, b Code) bool {
	na, nb := r.Get(a), r.Get(b)
	if na == nil || nb == nil {
		return false
	}
	removeCode(&na.Allies, b)
	removeCode(&nb.Allies, a)
	if len(na.Allies) == 0 {
		na.Modifiers.Remove(ModAllied)
	}
	if len(nb.Allies) == 0 {
		nb.Modifiers.Remove(ModAllied)
	}
	return true
}
