package event

import (
	"fmt"
	"testing"
)

func TestEmitAssignsIDAndPreservesOrder(t *testing.T) {
	log := NewLog()
	for i := 0; i < 10; i++ {
		e := log.Emit(Event{
			Type:        TypeBattle,
			Severity:    SeverityMinor,
			Title:       fmt.Sprintf("battle %d", i),
			Description: "skirmish on the frontier",
			Tick:        uint64(i),
		})
		if e.ID == "" {
			t.Fatal("emitted event has no id")
		}
		if e.Time.IsZero() {
			t.Fatal("emitted event has no timestamp")
		}
	}

	recent := log.Recent(10)
	if len(recent) != 10 {
		t.Fatalf("Recent(10) = %d events, want 10", len(recent))
	}
	for i, e := range recent {
		if e.Tick != uint64(i) {
			t.Errorf("event %d out of order: tick %d", i, e.Tick)
		}
	}
}

func TestRecentReturnsCopy(t *testing.T) {
	log := NewLog()
	log.Emit(Event{Type: TypePeace, Severity: SeverityMajor, Title: "armistice", Tick: 1})

	got := log.Recent(1)
	got[0].Title = "mutated"

	if log.Recent(1)[0].Title != "armistice" {
		t.Error("Recent exposed internal storage")
	}
}

func TestRetentionBounded(t *testing.T) {
	log := NewLog()
	for i := 0; i < 5200; i++ {
		log.Emit(Event{Type: TypeBattle, Severity: SeverityMinor, Tick: uint64(i)})
	}
	if log.Len() != 5000 {
		t.Fatalf("retained %d events, want 5000", log.Len())
	}
	// The oldest retained event should be tick 200.
	oldest := log.Recent(0)[0]
	if oldest.Tick != 200 {
		t.Errorf("oldest retained tick = %d, want 200", oldest.Tick)
	}
}

func TestSubscriberReceivesLiveEvents(t *testing.T) {
	log := NewLog()
	ch, cancel := log.Subscribe()
	defer cancel()

	sent := log.Emit(Event{Type: TypeWarDeclared, Severity: SeverityMajor, Title: "war", Tick: 3})

	got := <-ch
	if got.ID != sent.ID {
		t.Fatalf("subscriber got event %q, want %q", got.ID, sent.ID)
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	log := NewLog()
	_, cancel := log.Subscribe()
	defer cancel()

	// Channel buffer is 64; emitting more must not block the emitter.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			log.Emit(Event{Type: TypeBattle, Severity: SeverityMinor, Tick: uint64(i)})
		}
		close(done)
	}()
	<-done

	if log.Len() != 200 {
		t.Fatalf("log retained %d events, want 200", log.Len())
	}
}

func TestCancelClosesChannel(t *testing.T) {
	log := NewLog()
	ch, cancel := log.Subscribe()
	cancel()
	cancel() // second cancel is a no-op

	if _, open := <-ch; open {
		t.Error("channel still open after cancel")
	}

	// Emitting after cancel must not panic.
	log.Emit(Event{Type: TypePeace, Severity: SeverityMinor})
}
