package speech

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type utterance struct {
	id   uint64
	sink func(Event)
}

// Arbiter serialises access to an Engine so that at most one utterance is
// active process-wide. Every controller in the process shares one Arbiter.
type Arbiter struct {
	engine Engine
	log    *logrus.Entry

	mu     sync.Mutex
	seq    uint64
	active *utterance
	// epoch advances on every Start and Interrupt.
	epoch uint64
}

// NewArbiter wraps engine as the exclusive speech resource.
func NewArbiter(engine Engine, log *logrus.Entry) *Arbiter {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Arbiter{engine: engine, log: log.WithField("component", "speech")}
}

// Engine returns the wrapped engine.
func (a *Arbiter) Engine() Engine {
	return a.engine
}

// Start stops whatever is playing and submits req. The previous utterance's
// owner receives EventInterrupted. sink may be nil for fire-and-forget speech.
func (a *Arbiter) Start(req Request, sink func(Event)) (uint64, error) {
	a.mu.Lock()
	prev, id, err := a.startLocked(req, sink)
	a.mu.Unlock()

	a.notifyInterrupted(prev)
	return id, err
}

// StartAt is Start for a decision taken at epoch. If anything started or
// interrupted speech since, nothing is submitted and ErrPreempted is returned.
func (a *Arbiter) StartAt(epoch uint64, req Request, sink func(Event)) (uint64, error) {
	a.mu.Lock()
	if epoch != a.epoch {
		a.mu.Unlock()
		return 0, ErrPreempted
	}
	prev, id, err := a.startLocked(req, sink)
	a.mu.Unlock()

	a.notifyInterrupted(prev)
	return id, err
}

// Epoch returns the current speech epoch.
func (a *Arbiter) Epoch() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.epoch
}

func (a *Arbiter) startLocked(req Request, sink func(Event)) (*utterance, uint64, error) {
	prev := a.active
	a.active = nil
	a.epoch++
	if err := a.engine.Cancel(); err != nil {
		a.log.WithError(err).Debug("cancel before start failed")
	}

	a.seq++
	u := &utterance{id: a.seq, sink: sink}
	a.active = u
	if err := a.engine.Speak(req, a.relay(u)); err != nil {
		a.active = nil
		return prev, 0, err
	}
	return prev, u.id, nil
}

// Say vocalises text without an owner. It still preempts any narration.
func (a *Arbiter) Say(req Request) error {
	_, err := a.Start(req, nil)
	return err
}

// Interrupt stops the active utterance, if any, and tells its owner. It
// reports whether something was playing.
func (a *Arbiter) Interrupt() bool {
	a.mu.Lock()
	prev := a.active
	a.active = nil
	a.epoch++
	if err := a.engine.Cancel(); err != nil {
		a.log.WithError(err).Debug("cancel failed")
	}
	a.mu.Unlock()

	a.notifyInterrupted(prev)
	return prev != nil
}

// Cancel stops utterance id if it is still the active one. The owner is not
// notified; it asked for this.
func (a *Arbiter) Cancel(id uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active == nil || a.active.id != id {
		return
	}
	a.active = nil
	if err := a.engine.Cancel(); err != nil {
		a.log.WithError(err).Debug("cancel failed")
	}
}

// Release marks utterance id as finished after its owner accepted the end.
func (a *Arbiter) Release(id uint64) {
	a.mu.Lock()
	if a.active != nil && a.active.id == id {
		a.active = nil
	}
	a.mu.Unlock()
}

// Active returns the id of the active utterance, or 0.
func (a *Arbiter) Active() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == nil {
		return 0
	}
	return a.active.id
}

// Speaking re-queries the engine's live signal.
func (a *Arbiter) Speaking() bool {
	return a.engine.Speaking()
}

func (a *Arbiter) notifyInterrupted(u *utterance) {
	if u == nil || u.sink == nil {
		return
	}
	u.sink(Event{Kind: EventInterrupted, Utterance: u.id})
}

// relay forwards engine events for u while u is current. Events for an
// utterance that has been cancelled are dropped, which also swallows the
// errors engines raise when they are cancelled on purpose.
func (a *Arbiter) relay(u *utterance) func(Event) {
	return func(ev Event) {
		ev.Utterance = u.id

		a.mu.Lock()
		current := a.active == u
		switch {
		case !current:
		case ev.Kind == EventError:
			a.active = nil
		case ev.Kind == EventEnd && u.sink == nil:
			a.active = nil
		}
		a.mu.Unlock()

		if !current {
			return
		}
		if ev.Kind == EventError {
			a.log.WithError(ev.Err).Warn("speech engine error")
		}
		if u.sink != nil {
			u.sink(ev)
		}
	}
}
