package focus

import "time"

type EventKind string

const (
	EventStarted      EventKind = "started"
	EventPhaseStarted EventKind = "phase_started"
	EventPhaseEnded   EventKind = "phase_ended"
	EventPaused       EventKind = "paused"
	EventResumed      EventKind = "resumed"
	EventVisibility   EventKind = "visibility"
	EventCompleted    EventKind = "completed"
	EventStopped      EventKind = "stopped"
)

type Event struct {
	Kind EventKind
	At   time.Time
	// Session is the state after the transition. It is the zero value for
	// EventCompleted and EventStopped.
	Session Session
}

const subscriberBuffer = 32

// Subscribe returns a channel receiving every subsequent transition and a
// function that unsubscribes and closes it. Events are dropped for a
// subscriber whose buffer is full.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	e.subMu.Unlock()

	var once bool
	return ch, func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		if once {
			return
		}
		once = true
		delete(e.subs, id)
		close(ch)
	}
}

func (e *Engine) publish(events []Event) {
	if len(events) == 0 {
		return
	}
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ev := range events {
		for _, ch := range e.subs {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
