// Package interact handles taps on words in the reading views.
package interact

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"lingoblitz/internal/config"
	"lingoblitz/internal/llm"
	"lingoblitz/internal/speech"
	"lingoblitz/internal/text"
	"lingoblitz/internal/vocab"
)

// Position anchors the popup to the tapped word on screen.
type Position struct {
	X, Y int
}

// Popup is the translation bubble. At most one exists at a time.
type Popup struct {
	Word        string
	Translation string
	Pending     bool
	Position    Position

	tap uint64
}

// Translator is the translation capability.
type Translator interface {
	Translate(ctx context.Context, word string, from, to config.Language) (string, error)
}

// Coordinator reacts to word taps: it interrupts narration, optionally says
// the word, shows a pending popup and fills it in once the translation
// arrives. Captured words go into the round's vocabulary set.
type Coordinator struct {
	arb        *speech.Arbiter
	translator Translator
	vocab      *vocab.Set
	log        *logrus.Entry

	mu       sync.Mutex
	settings config.Settings
	popup    *Popup
	taps     uint64
	onChange func()
}

// NewCoordinator wires a coordinator to the shared speech arbiter.
func NewCoordinator(arb *speech.Arbiter, translator Translator, set *vocab.Set, settings config.Settings, log *logrus.Entry) *Coordinator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Coordinator{
		arb:        arb,
		translator: translator,
		vocab:      set,
		settings:   settings,
		log:        log.WithField("component", "interact"),
	}
}

// OnChange registers a hook run after every popup or vocabulary change.
func (c *Coordinator) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// SetSettings replaces the languages and voice used for later taps.
func (c *Coordinator) SetSettings(s config.Settings) {
	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()
}

// HandleWordTap runs the whole tap flow and returns once the translation has
// been applied or discarded. Narration is interrupted before anything else
// happens; an interrupted controller keeps its position.
func (c *Coordinator) HandleWordTap(ctx context.Context, word string, pos Position, autoRead bool) error {
	c.arb.Interrupt()

	c.mu.Lock()
	c.taps++
	tap := c.taps
	c.popup = &Popup{Word: word, Pending: true, Position: pos, tap: tap}
	settings := c.settings
	c.mu.Unlock()
	c.changed()

	if autoRead {
		c.say(word, settings)
	}

	clean := text.CleanWord(word)
	translation, err := c.translator.Translate(ctx, clean, settings.LearningLanguage, settings.NativeLanguage)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.WithError(err).WithField("word", clean).Warn("translation failed")
		translation = llm.TranslationUnavailable
	}

	c.mu.Lock()
	current := c.popup != nil && c.popup.tap == tap
	if !current {
		c.mu.Unlock()
		c.log.WithField("word", clean).Debug("discarding translation for superseded word")
		return nil
	}
	c.popup.Translation = translation
	c.popup.Pending = false
	c.mu.Unlock()

	if translation != "" && !llm.IsFailureSentinel(translation) {
		c.vocab.Add(clean, translation)
	}
	c.changed()
	return nil
}

// Popup returns the current popup, if any.
func (c *Coordinator) Popup() (Popup, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.popup == nil {
		return Popup{}, false
	}
	return *c.popup, true
}

// Dismiss closes the popup. A translation still in flight is then discarded.
func (c *Coordinator) Dismiss() {
	c.mu.Lock()
	had := c.popup != nil
	c.popup = nil
	c.mu.Unlock()
	if had {
		c.changed()
	}
}

// SayPopupWord vocalises the word shown in the popup.
func (c *Coordinator) SayPopupWord() bool {
	c.mu.Lock()
	p := c.popup
	settings := c.settings
	c.mu.Unlock()
	if p == nil {
		return false
	}
	c.say(p.Word, settings)
	return true
}

func (c *Coordinator) say(word string, s config.Settings) {
	err := c.arb.Say(speech.Request{
		Text:   text.CleanWord(word),
		Voice:  s.TTS.Voice,
		Rate:   s.TTS.Speed,
		Locale: s.LearningLanguage.Locale(),
	})
	if err != nil {
		c.log.WithError(err).Warn("failed to say word")
	}
}

func (c *Coordinator) changed() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
