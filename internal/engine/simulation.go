// Simulation ties the registry, wars, coalitions, diplomacy, and AI
// together and runs one full sequential pass per tick. External callers
// only ever observe committed state between ticks: the mutex covers the
// whole pass, and every command-surface method takes it too.
package engine

import (
	"sync"

	"log/slog"

	"github.com/talgya/hegemon/internal/coalition"
	"github.com/talgya/hegemon/internal/diplomacy"
	"github.com/talgya/hegemon/internal/entropy"
	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/geo"
	"github.com/talgya/hegemon/internal/nation"
	"github.com/talgya/hegemon/internal/strategy"
	"github.com/talgya/hegemon/internal/war"
)

// Simulation holds the complete world state and wires systems together.
type Simulation struct {
	mu sync.Mutex

	Reg        *nation.Registry
	Wars       *war.Ledger
	Coalitions *coalition.Manager
	Diplomacy  *diplomacy.Office
	Director   *strategy.Director
	Events     *event.Log
	Geo        geo.Service
	Rng        entropy.Source

	LastTick uint64
	Stats    SimStats

	conquests *conquestWorker
}

// SimStats tracks aggregate world statistics, refreshed every tick.
type SimStats struct {
	Nations       int     `json:"nations"`
	Annexed       int     `json:"annexed"`
	ActiveWars    int     `json:"active_wars"`
	Coalitions    int     `json:"coalitions"`
	TotalSoldiers int     `json:"total_soldiers"`
	AvgRelations  float64 `json:"avg_relations"`
	PlayerPower   int     `json:"player_power"`
}

// NewSimulation wires the subsystems and starts the deferred-geometry
// worker. Wars opened by any path route their conquest computations through
// the worker; results merge back at the start of a later tick.
func NewSimulation(reg *nation.Registry, wars *war.Ledger, coalitions *coalition.Manager,
	office *diplomacy.Office, director *strategy.Director, events *event.Log,
	geoSvc geo.Service, rng entropy.Source) *Simulation {

	s := &Simulation{
		Reg:        reg,
		Wars:       wars,
		Coalitions: coalitions,
		Diplomacy:  office,
		Director:   director,
		Events:     events,
		Geo:        geoSvc,
		Rng:        rng,
	}
	s.conquests = newConquestWorker(geoSvc)
	wars.OnConquest = s.conquests.enqueue
	return s
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastTick
}

// TickMonth runs the full sequential pass for one simulated month.
func (s *Simulation) TickMonth(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastTick = tick

	// Phase 1: merge deferred geometry results from earlier ticks.
	s.applyConquestResults(tick)

	// Phase 2: defensive cleanup before anything else reads the registry.
	s.cleanupStaleState(tick)

	// Phase 3: military progression.
	s.Wars.Advance(tick)
	s.Coalitions.ResolveWars(s.Wars, tick)
	s.Coalitions.Prune(tick)

	// Phase 4: AI pass. Sequential by design — actions read and write
	// other nations' records.
	for _, n := range s.Reg.All() {
		s.Director.Evaluate(n, tick)
		s.consumeQueue(n, tick)
	}

	// Phase 5: out-of-band diplomacy consumed monthly.
	s.Diplomacy.TickResolutions(tick)
	s.driveCrises(tick)

	// Phase 6: derived values and stats.
	seats := s.Coalitions.Seats()
	for _, n := range s.Reg.All() {
		n.CoalitionSeats = seats[n.Code]
		s.Reg.RecomputePower(n)
	}
	s.updateStats()
}

// TickYear logs the annual report.
func (s *Simulation) TickYear(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slog.Info("annual report",
		"tick", tick,
		"time", SimTime(tick),
		"nations", s.Stats.Nations,
		"annexed", s.Stats.Annexed,
		"active_wars", s.Stats.ActiveWars,
		"coalitions", s.Stats.Coalitions,
		"avg_relations", s.Stats.AvgRelations,
		"player_power", s.Stats.PlayerPower,
	)
}

// cleanupStaleState repairs anything a prior tick may have left dangling:
// nations bled past 100% territory are annexed outright, and annexed
// nations are dropped from wars and coalitions.
func (s *Simulation) cleanupStaleState(tick uint64) {
	for _, n := range s.Reg.All() {
		if n.IsPlayer || n.Annexed {
			continue
		}
		if n.TerritoryLost >= 100 {
			s.annexLocked(n.Code, s.conquerorOf(n), tick)
		}
	}
	for _, n := range s.Reg.All() {
		if n.Annexed {
			s.Wars.DropNation(n.Code, tick)
			s.Coalitions.DropNation(n.Code, tick)
		}
	}
}

// conquerorOf picks who absorbs a collapsed nation: its active-war
// opponent, a listed enemy, or nobody (territory dissolves unclaimed).
func (s *Simulation) conquerorOf(n *nation.Nation) nation.Code {
	for _, w := range s.Wars.ActiveFor(n.Code) {
		return w.Opponent(n.Code)
	}
	for _, e := range n.Enemies {
		if s.Reg.Get(e).Actionable() {
			return e
		}
	}
	return ""
}

func (s *Simulation) updateStats() {
	stats := SimStats{}
	var relSum, relCount int
	for _, n := range s.Reg.All() {
		if n.IsPlayer {
			stats.PlayerPower = n.Power
			continue
		}
		stats.Nations++
		if n.Annexed {
			stats.Annexed++
			continue
		}
		stats.TotalSoldiers += n.Soldiers
		relSum += n.Relations
		relCount++
	}
	stats.ActiveWars = len(s.Wars.Active())
	stats.Coalitions = len(s.Coalitions.All())
	if relCount > 0 {
		stats.AvgRelations = float64(relSum) / float64(relCount)
	}
	s.Stats = stats
}
