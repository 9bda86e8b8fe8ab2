// Package app is the interactive terminal front end: it renders the session
// and turns typed commands into session, playback and word-tap actions.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"lingoblitz/internal/cli/scheme/colours"
	"lingoblitz/internal/config"
	"lingoblitz/internal/interact"
	"lingoblitz/internal/llm"
	"lingoblitz/internal/session"
	"lingoblitz/internal/speech"
	"lingoblitz/internal/store"
	"lingoblitz/internal/vocab"
)

// Options tune the front end.
type Options struct {
	// AutoplayDelay is how long a screen waits before narrating on its own.
	AutoplayDelay   time.Duration
	ResumeThreshold int
	VoiceWait       time.Duration
	VoicePoll       time.Duration
}

// OptionsFromViper reads the app.* and tts.* keys.
func OptionsFromViper() Options {
	return Options{
		AutoplayDelay:   viper.GetDuration("app.autoplay_delay"),
		ResumeThreshold: viper.GetInt("tts.resume_threshold"),
		VoiceWait:       viper.GetDuration("tts.voice_wait"),
		VoicePoll:       viper.GetDuration("tts.voice_poll"),
	}
}

// Deps are the collaborators of an App.
type Deps struct {
	Service llm.Service
	Store   *store.Store
	Engine  speech.Engine
	In      io.Reader
	Out     io.Writer
	Log     *logrus.Entry
	// Shuffle orders proposals and flashcards; nil means random.
	Shuffle func(n int, swap func(i, j int))
}

// App wires one session to the terminal.
type App struct {
	session *session.Session
	coord   *interact.Coordinator
	arb     *speech.Arbiter
	store   *store.Store
	opts    Options
	log     *logrus.Entry

	in    *bufio.Scanner
	out   io.Writer
	outMu sync.Mutex

	voiceMu sync.Mutex
	voices  map[config.Language]string
}

func New(d Deps, opts Options) *App {
	log := d.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	arb := speech.NewArbiter(d.Engine, log)
	set := vocab.NewSet()
	coord := interact.NewCoordinator(arb, d.Service, set, config.FromViper(), log)

	a := &App{
		coord:  coord,
		arb:    arb,
		store:  d.Store,
		opts:   opts,
		log:    log,
		in:     bufio.NewScanner(d.In),
		out:    d.Out,
		voices: make(map[config.Language]string),
	}
	a.session = session.New(session.Deps{
		Service:    d.Service,
		Store:      d.Store,
		Vocab:      set,
		Popups:     coord,
		Shuffle:    d.Shuffle,
		Log:        log,
		OnSettings: coord.SetSettings,
	})
	coord.OnChange(a.popupChanged)
	return a
}

// Session exposes the underlying state machine.
func (a *App) Session() *session.Session {
	return a.session
}

// Close stops narration and background work.
func (a *App) Close() {
	a.arb.Interrupt()
	a.session.Close()
}

// Run drives the session until the learner quits, the input ends or ctx is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	if theme, err := a.store.Theme(ctx); err == nil {
		colours.Apply(theme == store.Dark)
	}

	restored, err := a.session.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore settings: %w", err)
	}
	if !restored {
		a.println(colours.Title, "🌟 Welcome to LingoBlitz! 🌟")
		a.println(colours.Info, "Let's set up your profile.")
		settings, ok := a.askSettings(ctx, config.FromViper(), true)
		if !ok {
			return nil
		}
		if err := a.session.CompleteOnboarding(ctx, settings); err != nil {
			return err
		}
	}

	for ctx.Err() == nil {
		snap := a.session.Snapshot()
		var next bool
		switch snap.State {
		case session.Ready:
			next, err = a.choose(ctx, snap)
		case session.PostArticleChoice:
			next, err = a.read(ctx, snap)
		case session.ShowingQuiz, session.ShowingFeedback:
			next, err = a.quiz(ctx, snap)
		case session.PracticingVocabulary:
			next, err = a.practice(ctx)
		default:
			return fmt.Errorf("unexpected state %s", snap.State)
		}
		if err != nil {
			return err
		}
		if !next {
			break
		}
	}
	a.println(colours.Warning, "👋 ¡Hasta luego! See you next blitz.")
	return nil
}

// readLine prompts and reads one trimmed line. It reports false at end of input.
func (a *App) readLine(prompt string) (string, bool) {
	if prompt != "" {
		a.print(colours.Prompt, prompt)
	}
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

func (a *App) print(c *color.Color, format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	if c == nil {
		fmt.Fprintf(a.out, format, args...)
		return
	}
	c.Fprintf(a.out, format, args...)
}

func (a *App) println(c *color.Color, format string, args ...any) {
	a.print(c, format+"\n", args...)
}

// awaitReady blocks until cond holds for the session, showing msg while it
// waits.
func (a *App) awaitReady(ctx context.Context, msg string, cond func(session.Snapshot) bool) error {
	snaps, stop := a.session.Subscribe()
	defer stop()
	if cond(a.session.Snapshot()) {
		return nil
	}
	a.println(colours.Muted, "⏳ %s", msg)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-snaps:
			if !ok {
				return errors.New("session closed")
			}
			if cond(snap) {
				return nil
			}
		}
	}
}

// voiceFor returns the configured voice or the best one the platform has for
// the language.
func (a *App) voiceFor(ctx context.Context, s config.Settings) string {
	if s.TTS.Voice != "" {
		return s.TTS.Voice
	}
	a.voiceMu.Lock()
	defer a.voiceMu.Unlock()
	if v, ok := a.voices[s.LearningLanguage]; ok {
		return v
	}
	v := speech.DefaultVoice(ctx, a.arb.Engine(), s.LearningLanguage, a.opts.VoiceWait, a.opts.VoicePoll)
	a.voices[s.LearningLanguage] = v
	return v
}

func (a *App) binding(ctx context.Context, s config.Settings, text string) speech.Binding {
	return speech.Binding{
		Text:   text,
		Voice:  a.voiceFor(ctx, s),
		Rate:   s.TTS.Speed,
		Locale: s.LearningLanguage.Locale(),
	}
}

func (a *App) controller(ctx context.Context, s config.Settings, text string, onEnd func()) *speech.Controller {
	return speech.NewController(a.arb, a.binding(ctx, s, text), speech.Options{
		OnNaturalEnd:    onEnd,
		ResumeThreshold: a.opts.ResumeThreshold,
		Log:             a.log,
	})
}

// autoplay starts c after the configured delay. The returned func cancels it.
func (a *App) autoplay(c *speech.Controller) func() {
	t := time.AfterFunc(a.opts.AutoplayDelay, func() {
		if err := c.Play(); err != nil && !errors.Is(err, speech.ErrClosed) {
			a.log.WithError(err).Warn("autoplay failed")
		}
	})
	return func() { t.Stop() }
}

// playback handles the narration commands shared by every screen. It reports
// whether cmd was one of them.
func (a *App) playback(c *speech.Controller, cmd string) bool {
	var err error
	switch cmd {
	case "p", "play":
		err = c.Play()
	case "pause", "resume":
		err = c.PauseToggle()
		if err == nil {
			a.println(colours.Warning, "%s", statusLabel(c.State().Status))
		}
	case "s", "stop":
		err = c.Stop()
		if err == nil {
			a.println(colours.Warning, "⏹️  Stopped")
		}
	case "status":
		a.showStatus(c)
	default:
		return false
	}
	if err != nil {
		a.println(colours.Error, "❌ Playback error: %v", err)
	}
	return true
}

func statusLabel(s speech.Status) string {
	switch s {
	case speech.Playing:
		return "▶️  Playing"
	case speech.Paused:
		return "⏸️  Paused"
	default:
		return "⏹️  Stopped"
	}
}
