package trace

import (
	"sync"
	"time"
)

// SystemAgent is the agent id stamped on simulation-wide events.
const SystemAgent = -1

// Event kinds emitted by the simulation.
const (
	KindState    = "STATE"
	KindSummary  = "SUMMARY"
	KindSystem   = "SYSTEM"
	KindDeadlock = "DEADLOCK"
)

// Event is one immutable state-transition record.
type Event struct {
	Timestamp time.Time
	Agent     int
	Kind      string
	Detail    string
}

// DefaultCapacity is the event log bound; past it, the oldest entries go first.
const DefaultCapacity = 5000

// Log is a bounded, thread-safe, append-only record of events. Producers
// append from any goroutine; consumers drain with Poll.
type Log struct {
	mu     sync.Mutex
	events []Event
	cap    int
}

func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{cap: capacity}
}

// Append records one event, evicting the oldest entries once the log is full.
func (l *Log) Append(agent int, kind, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, Event{
		Timestamp: time.Now(),
		Agent:     agent,
		Kind:      kind,
		Detail:    detail,
	})
	if over := len(l.events) - l.cap; over > 0 {
		l.events = append(l.events[:0], l.events[over:]...)
	}
}

// Poll atomically returns and clears all buffered events. Events appended
// between two polls are always returned by exactly one of them.
func (l *Log) Poll() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.events
	l.events = nil
	return out
}

// Len reports how many events are currently buffered.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
