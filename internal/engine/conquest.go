// Deferred geometry: conquest computations run off the tick goroutine and
// merge back at the start of a later tick. A dropped or nil result means no
// territory changes hands, never an error.
package engine

import (
	"fmt"

	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/geo"
	"github.com/talgya/hegemon/internal/nation"
)

type conquestTask struct {
	Winner       nation.Code
	Loser        nation.Code
	Decisiveness float64
}

type conquestResult struct {
	conquestTask
	Region *geo.Region
}

// conquestWorker owns the single background goroutine that talks to the
// geometry service.
type conquestWorker struct {
	svc     geo.Service
	tasks   chan conquestTask
	results chan conquestResult
}

func newConquestWorker(svc geo.Service) *conquestWorker {
	w := &conquestWorker{
		svc:     svc,
		tasks:   make(chan conquestTask, 64),
		results: make(chan conquestResult, 64),
	}
	go w.run()
	return w
}

func (w *conquestWorker) run() {
	for t := range w.tasks {
		region := w.svc.CalculateConquest(string(t.Winner), string(t.Loser), t.Decisiveness, geo.ConquestOptions{})
		w.results <- conquestResult{conquestTask: t, Region: region}
	}
}

// enqueue never blocks the battle step: when the queue is full the
// computation is simply skipped for this resolution.
func (w *conquestWorker) enqueue(winner, loser nation.Code, decisiveness float64) {
	select {
	case w.tasks <- conquestTask{Winner: winner, Loser: loser, Decisiveness: decisiveness}:
	default:
		slog.Warn("conquest queue full, skipping geometry for this battle", "winner", winner, "loser", loser)
	}
}

// applyConquestResults drains completed geometry work. Results may belong
// to battles from several ticks ago; the military outcome was already
// applied, so only the territorial record changes here.
func (s *Simulation) applyConquestResults(tick uint64) {
	for {
		select {
		case r := <-s.conquests.results:
			if r.Region == nil {
				continue
			}
			winner, loser := s.Reg.Get(r.Winner), s.Reg.Get(r.Loser)
			if winner == nil || loser == nil {
				continue
			}
			s.Events.Emit(event.Event{
				Type:        event.TypeTerritory,
				Severity:    event.SeverityMinor,
				Title:       "Territory changes hands",
				Description: fmt.Sprintf("%s seizes %s km² from %s", winner.Name, humanize.Commaf(r.Region.AreaKm), loser.Name),
				Affected:    []string{string(r.Winner), string(r.Loser)},
				Tick:        tick,
			})
		default:
			return
		}
	}
}

// Annex absorbs a nation into the annexer. Idempotent in effect: the
// target ends with zero soldiers, full territory loss, and no standing in
// any war or coalition, regardless of prior state.
func (s *Simulation) Annex(code, annexer nation.Code, tick uint64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.annexLocked(code, annexer, tick)
}

func (s *Simulation) annexLocked(code, annexer nation.Code, tick uint64) (string, error) {
	n := s.Reg.Get(code)
	if n == nil || n.IsPlayer {
		return "", fmt.Errorf("no such nation %s", code)
	}
	alreadyAnnexed := n.Annexed

	s.Reg.Annex(code, annexer)
	s.Wars.DropNation(code, tick)
	s.Coalitions.DropNation(code, tick)

	if alreadyAnnexed {
		return fmt.Sprintf("%s is already annexed", n.Name), nil
	}

	by := "unclaimed powers"
	if a := s.Reg.Get(annexer); a != nil {
		by = a.Name
	}
	desc := fmt.Sprintf("%s has been annexed by %s", n.Name, by)
	s.Events.Emit(event.Event{
		Type:        event.TypeAnnexation,
		Severity:    event.SeverityCritical,
		Title:       "Annexation",
		Description: desc,
		Affected:    []string{string(code), string(annexer)},
		Tick:        tick,
	})
	slog.Info("annexation", "nation", code, "annexer", annexer, "tick", tick)
	return desc, nil
}

// Liberate restores an annexed nation, reversing the effect of Annex.
func (s *Simulation) Liberate(code nation.Code, tick uint64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.Reg.Get(code)
	if n == nil || !n.Annexed {
		return "", fmt.Errorf("%s is not annexed", code)
	}
	s.Reg.Liberate(code)

	desc := fmt.Sprintf("%s has been liberated and rejoins the community of nations", n.Name)
	s.Events.Emit(event.Event{
		Type:        event.TypeLiberation,
		Severity:    event.SeverityMajor,
		Title:       "Liberation",
		Description: desc,
		Affected:    []string{string(code)},
		Tick:        tick,
	})
	return desc, nil
}
