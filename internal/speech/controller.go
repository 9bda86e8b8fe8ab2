package speech

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultResumeThreshold is how close to the end (in characters) a paused
// position may be before resuming restarts from the top.
const DefaultResumeThreshold = 5

// Binding is the text and voice a controller narrates.
type Binding struct {
	Text   string
	Voice  string
	Rate   float64
	Locale string
}

// Options configure a Controller.
type Options struct {
	// OnProgress receives the global resume position after every boundary.
	OnProgress func(offset int)
	// OnNaturalEnd runs when narration finishes on its own.
	OnNaturalEnd func()
	// ResumeThreshold overrides DefaultResumeThreshold when positive.
	ResumeThreshold int
	Log             *logrus.Entry
}

// Controller narrates one bound text and remembers where it stopped. Pausing
// is stop-and-remember: the utterance is cancelled and the next play submits
// only the unread remainder.
type Controller struct {
	arb       *Arbiter
	threshold int
	opts      Options
	log       *logrus.Entry

	mu      sync.Mutex
	binding Binding
	runes   []rune
	state   State
	// gen invalidates callbacks from utterances this controller abandoned.
	gen    uint64
	utt    uint64
	closed bool

	// beforeSubmit, when set, runs between deciding to play and starting.
	beforeSubmit func()
}

// NewController binds a controller to b on the shared arbiter.
func NewController(arb *Arbiter, b Binding, opts Options) *Controller {
	threshold := opts.ResumeThreshold
	if threshold <= 0 {
		threshold = DefaultResumeThreshold
	}
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Controller{
		arb:       arb,
		threshold: threshold,
		opts:      opts,
		log:       log.WithField("component", "playback"),
		binding:   b,
		runes:     []rune(b.Text),
	}
}

// Play starts narration, resuming from the remembered offset when possible.
// It is a no-op while already playing.
func (c *Controller) Play() error {
	return c.dispatch(input{kind: inPlay})
}

// PauseToggle flips between Playing and Paused. It never reaches Idle.
func (c *Controller) PauseToggle() error {
	return c.dispatch(input{kind: inPauseToggle})
}

// Stop cancels narration and forgets the position.
func (c *Controller) Stop() error {
	return c.dispatch(input{kind: inStop})
}

// Rebind swaps the narrated text. Position is reset when the text changes.
func (c *Controller) Rebind(b Binding) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	textChanged := b.Text != c.binding.Text
	c.binding = b
	if !textChanged {
		c.mu.Unlock()
		return
	}
	c.runes = []rune(b.Text)
	next, eff := step(c.state, input{kind: inRebind})
	c.state = next
	c.gen++
	id := c.utt
	c.mu.Unlock()

	if eff == effCancel {
		c.arb.Cancel(id)
	}
}

// Close is the teardown hook. It stops all speech unconditionally and
// discards any callbacks still in flight.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.state = idle
	c.gen++
	c.mu.Unlock()

	c.arb.Interrupt()
}

// State returns a snapshot of the playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Binding returns the bound text and voice.
func (c *Controller) Binding() Binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.binding
}

func (c *Controller) dispatch(in input) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	in.textLen = len(c.runes)
	in.threshold = c.threshold

	next, eff := step(c.state, in)
	c.state = next

	switch eff {
	case effCancel:
		c.gen++
		id := c.utt
		c.mu.Unlock()
		c.arb.Cancel(id)
		return nil

	case effSubmit:
		c.gen++
		gen := c.gen
		epoch := c.arb.Epoch()
		req := Request{
			Text:   string(c.runes[next.ChunkStart:]),
			Voice:  c.binding.Voice,
			Rate:   c.binding.Rate,
			Locale: c.binding.Locale,
		}
		c.mu.Unlock()
		return c.submit(gen, epoch, req)
	}

	c.mu.Unlock()
	return nil
}

func (c *Controller) submit(gen, epoch uint64, req Request) error {
	if c.beforeSubmit != nil {
		c.beforeSubmit()
	}
	id, err := c.arb.StartAt(epoch, req, c.sink(gen))

	c.mu.Lock()
	if gen != c.gen {
		// Paused, stopped or closed while the utterance was being submitted.
		c.mu.Unlock()
		if err == nil {
			c.arb.Cancel(id)
		}
		return nil
	}
	if errors.Is(err, ErrPreempted) {
		// Other speech won the race; behave as if we had been interrupted.
		c.state, _ = step(c.state, input{kind: inInterrupted})
		c.mu.Unlock()
		c.log.Debug("narration preempted before it started")
		return nil
	}
	if err != nil {
		c.state, _ = step(c.state, input{kind: inFailed})
		c.mu.Unlock()
		c.log.WithError(err).Warn("failed to start narration")
		return err
	}
	c.utt = id
	c.mu.Unlock()
	return nil
}

// sink builds the event handler for the utterance submitted under gen.
func (c *Controller) sink(gen uint64) func(Event) {
	return func(ev Event) {
		var in input
		switch ev.Kind {
		case EventBoundary:
			in = input{kind: inBoundary, index: ev.CharIndex}
		case EventEnd:
			// Some engines report the end early; trust the live signal.
			in = input{kind: inEnd, speaking: c.arb.Speaking()}
		case EventInterrupted:
			in = input{kind: inInterrupted}
		case EventError:
			in = input{kind: inFailed}
		default:
			return
		}

		c.mu.Lock()
		if c.closed || gen != c.gen {
			c.mu.Unlock()
			return
		}
		in.textLen = len(c.runes)
		in.threshold = c.threshold
		before := c.state
		next, eff := step(before, in)
		c.state = next
		if ev.Kind == EventEnd && eff == effNone && before.Status == Playing {
			c.log.Debug("end reported while engine still speaking, ignoring")
		}
		c.mu.Unlock()

		switch eff {
		case effEnded:
			c.arb.Release(ev.Utterance)
			if c.opts.OnNaturalEnd != nil {
				c.opts.OnNaturalEnd()
			}
		case effProgress:
			if c.opts.OnProgress != nil {
				c.opts.OnProgress(next.ResumeOffset)
			}
		}
	}
}
