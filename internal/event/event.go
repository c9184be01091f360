// Package event is the append-only diplomatic event sink consumed by
// presentation layers. Events are immutable once emitted; ordering within a
// tick is insertion order.
package event

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity grades how loudly the presentation layer should surface an event.
type Severity int

const (
	SeverityMinor    Severity = 1 // routine diplomacy
	SeverityMajor    Severity = 2 // wars, annexations, sanctions
	SeverityCritical Severity = 3 // Article 5 cascades, capitulations
)

// Type categorizes a diplomatic event.
type Type string

const (
	TypeWarDeclared   Type = "war_declared"
	TypePeace         Type = "peace"
	TypeBattle        Type = "battle"
	TypeAnnexation    Type = "annexation"
	TypeLiberation    Type = "liberation"
	TypeAgreement     Type = "agreement"
	TypeTariff        Type = "tariff"
	TypeCovert        Type = "covert"
	TypeCoalition     Type = "coalition"
	TypeCollectiveDef Type = "collective_defense"
	TypeResolution    Type = "un_resolution"
	TypeCrisis        Type = "crisis"
	TypeSummit        Type = "summit"
	TypeInfluence     Type = "influence"
	TypeTerritory     Type = "territory"
)

// Event is one immutable entry in the diplomatic record.
type Event struct {
	ID          string    `json:"id" db:"id"`
	Type        Type      `json:"type" db:"type"`
	Severity    Severity  `json:"severity" db:"severity"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Affected    []string  `json:"affected,omitempty"`
	Tick        uint64    `json:"tick" db:"tick"`
	Time        time.Time `json:"time" db:"time"`
}

// Log collects events and fans them out to live subscribers.
type Log struct {
	mu     sync.Mutex
	events []Event
	subs   map[int]chan Event
	nextID int
}

// NewLog returns an empty event log.
func NewLog() *Log {
	return &Log{subs: make(map[int]chan Event)}
}

// Emit assigns an id and timestamp, appends the event, and notifies
// subscribers. Returns the stored event.
func (l *Log) Emit(e Event) Event {
	e.ID = uuid.NewString()
	e.Time = time.Now().UTC()

	l.mu.Lock()
	l.events = append(l.events, e)
	// Trim old events to keep memory bounded (persistence has the full record).
	if len(l.events) > 5000 {
		l.events = l.events[len(l.events)-5000:]
	}
	for _, ch := range l.subs {
		select {
		case ch <- e:
		default: // slow subscriber drops events rather than blocking the tick
		}
	}
	l.mu.Unlock()
	return e
}

// Recent returns up to n of the most recent events, newest last.
func (l *Log) Recent(n int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.events) {
		n = len(l.events)
	}
	out := make([]Event, n)
	copy(out, l.events[len(l.events)-n:])
	return out
}

// Len returns the number of retained events.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Subscribe registers a live feed. The returned cancel func must be called
// to release the channel.
func (l *Log) Subscribe() (<-chan Event, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	ch := make(chan Event, 64)
	l.subs[id] = ch
	cancel := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if c, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(c)
		}
	}
	return ch, cancel
}
