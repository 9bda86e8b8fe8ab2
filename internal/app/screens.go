package app

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"lingoblitz/internal/cli/scheme/colours"
	"lingoblitz/internal/interact"
	"lingoblitz/internal/session"
	"lingoblitz/internal/speech"
	"lingoblitz/internal/text"
)

// choose shows the proposals and starts a round with the picked topic.
func (a *App) choose(ctx context.Context, snap session.Snapshot) (bool, error) {
	a.println(nil, "")
	a.println(colours.Title, "📚 What shall we blitz next? 📚")
	for i, p := range snap.Proposals {
		a.println(nil, "  %d. %s", i+1, p)
	}
	if len(snap.Proposals) == 0 {
		a.println(colours.Warning, "🔍 No proposals right now. Type 'r' to try again.")
	}
	a.println(colours.Muted, "Pick a number, type any topic, 'r' for new ideas, 'settings' or 'q' to quit.")

	for {
		line, ok := a.readLine("🌟 Topic: ")
		if !ok || line == "q" || line == "quit" {
			return false, nil
		}
		switch line {
		case "":
			continue
		case "r", "refresh":
			return true, a.session.RequestNewProposals(ctx)
		case "settings":
			return true, a.editSettings(ctx, snap)
		}

		topic := line
		if n, err := strconv.Atoi(line); err == nil {
			if n < 1 || n > len(snap.Proposals) {
				a.println(colours.Error, "❌ Choose between 1 and %d.", len(snap.Proposals))
				continue
			}
			topic = snap.Proposals[n-1]
		}
		return true, a.generate(ctx, topic)
	}
}

// generate runs the article stream, echoing the text as it grows.
func (a *App) generate(ctx context.Context, topic string) error {
	snaps, stop := a.session.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		printedTitle := false
		printed := 0
		for snap := range snaps {
			if snap.State != session.GeneratingArticle {
				continue
			}
			if !printedTitle && snap.Article.Title != "" {
				a.println(nil, "")
				a.println(colours.Title, "📰 %s", snap.Article.Title)
				printedTitle = true
			}
			if len(snap.Article.Content) > printed {
				a.print(nil, "%s", snap.Article.Content[printed:])
				printed = len(snap.Article.Content)
			}
		}
	}()

	a.println(colours.Muted, "✍️  Writing an article about %s...", topic)
	err := a.session.SelectTopic(ctx, topic)
	stop()
	<-done
	a.println(nil, "")
	return err
}

func (a *App) showArticle(snap session.Snapshot) {
	a.println(nil, "")
	if snap.Failed {
		a.println(colours.Error, "❌ %s", snap.Article.Title)
		a.println(nil, "%s", snap.Article.Content)
		return
	}
	a.println(colours.Title, "📰 %s", snap.Article.Title)
	a.println(nil, "%s", snap.Article.Content)
}

// read is the post-article screen: narration, word taps and the next steps.
func (a *App) read(ctx context.Context, snap session.Snapshot) (bool, error) {
	a.showArticle(snap)
	a.showActions(snap.Actions)

	ctrl := a.controller(ctx, snap.Settings, snap.Article.NarrationText(), func() {
		a.println(colours.Success, "✅ Article finished!")
	})
	defer ctrl.Close()
	if snap.Settings.TTS.AutoRead && !snap.Failed {
		defer a.autoplay(ctrl)()
	}

	for {
		line, ok := a.readLine("🎧 > ")
		if !ok {
			return false, nil
		}
		cmd, arg, _ := strings.Cut(line, " ")
		if a.playback(ctrl, cmd) {
			continue
		}
		switch cmd {
		case "":
		case "q", "quit":
			return false, nil
		case "w", "word":
			a.tap(ctx, snap.Article.Content, strings.TrimSpace(arg), snap.Settings.TTS.AutoRead)
		case "index":
			a.showIndex(snap.Article.Content)
		case "say":
			if !a.coord.SayPopupWord() {
				a.println(colours.Warning, "No word selected.")
			}
		case "x", "dismiss":
			a.coord.Dismiss()
		case "words":
			a.showVocabulary()
		case "t", "quiz":
			if err := a.startQuiz(ctx); err != nil {
				a.println(colours.Warning, "⚠️  %v", err)
				continue
			}
			return true, nil
		case "v", "vocab":
			if err := a.startPractice(); err != nil {
				a.println(colours.Warning, "⚠️  %v", err)
				continue
			}
			return true, nil
		case "n", "next":
			if err := a.nextRound(ctx); err != nil {
				a.println(colours.Warning, "⚠️  %v", err)
				continue
			}
			return true, nil
		case "h", "help":
			a.showActions(a.session.Actions())
		default:
			a.println(colours.Warning, "Unknown command %q. Type 'h' for help.", cmd)
		}
	}
}

func (a *App) showActions(act session.Actions) {
	a.println(nil, "")
	a.println(colours.Info, "📋 p play · pause · s stop · w <word|n> translate · index · words · q quit")
	if act.CanTakeQuiz {
		a.println(colours.Info, "   t  take the quiz")
	}
	if act.CanPracticeVocabulary {
		a.println(colours.Info, "   v  practise your words")
	}
	if act.ShowContinue {
		a.println(colours.Info, "   n  next blitz")
	}
}

// startQuiz opens the quiz, waiting for the question if it is still on its way.
func (a *App) startQuiz(ctx context.Context) error {
	if a.session.Snapshot().Failed {
		return errors.New("there is no quiz for this round")
	}
	err := a.session.TakeQuiz()
	if !errors.Is(err, session.ErrNotReady) {
		return err
	}
	if err := a.awaitReady(ctx, "Preparing your quiz...", func(s session.Snapshot) bool { return s.QuizReady }); err != nil {
		return err
	}
	return a.session.TakeQuiz()
}

func (a *App) startPractice() error {
	_, err := a.session.PracticeVocabulary()
	if errors.Is(err, session.ErrNotReady) {
		return errors.New("tap some words first with 'w <word>'")
	}
	return err
}

// nextRound moves on once the next proposals have arrived.
func (a *App) nextRound(ctx context.Context) error {
	err := a.session.NextRound()
	if !errors.Is(err, session.ErrNotReady) {
		return err
	}
	if err := a.awaitReady(ctx, "Finding new topics...", func(s session.Snapshot) bool { return s.ProposalsReady }); err != nil {
		return err
	}
	return a.session.NextRound()
}

// tap resolves arg to a word of content, by position or by spelling, and
// runs the translation flow for it.
func (a *App) tap(ctx context.Context, content, arg string, autoRead bool) {
	if arg == "" {
		a.println(colours.Warning, "Usage: w <word> or w <number> (see 'index').")
		return
	}
	words := text.Words(content)
	word, pos := arg, interact.Position{X: -1}
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(words) {
		word, pos = words[n-1].Text, interact.Position{X: words[n-1].Offset}
	} else {
		for _, w := range words {
			if text.CleanWord(w.Text) == text.CleanWord(arg) {
				word, pos = w.Text, interact.Position{X: w.Offset}
				break
			}
		}
	}
	if err := a.coord.HandleWordTap(ctx, word, pos, autoRead); err != nil {
		a.println(colours.Error, "❌ %v", err)
	}
}

func (a *App) popupChanged() {
	a.session.Touch()
	p, ok := a.coord.Popup()
	if !ok {
		return
	}
	if p.Pending {
		a.println(colours.Muted, "🔎 %s...", p.Word)
		return
	}
	a.print(colours.Word, "💬 %s", text.CleanWord(p.Word))
	a.println(colours.Translation, " → %s", p.Translation)
}

func (a *App) showIndex(content string) {
	var b strings.Builder
	for i, w := range text.Words(content) {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(strconv.Itoa(i+1) + ":" + w.Text)
	}
	a.println(colours.Muted, "%s", b.String())
}

func (a *App) showVocabulary() {
	items := a.session.Snapshot().Vocabulary
	if len(items) == 0 {
		a.println(colours.Muted, "No words captured yet.")
		return
	}
	a.println(colours.Title, "🗂️  Your words (%d)", len(items))
	for _, it := range items {
		a.print(colours.Word, "  %s", it.Word)
		a.println(colours.Translation, " → %s", it.Translation)
	}
}

func (a *App) showStatus(c *speech.Controller) {
	st := c.State()
	a.print(colours.Info, "%s", statusLabel(st.Status))
	if w, ok := text.WordAt(c.Binding().Text, st.ResumeOffset); ok && st.Status != speech.Idle {
		a.print(colours.Muted, " at %q", w.Text)
	}
	a.println(nil, "")
}
