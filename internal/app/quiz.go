package app

import (
	"context"
	"strings"

	"lingoblitz/internal/cli/scheme/colours"
	"lingoblitz/internal/session"
	"lingoblitz/internal/text"
)

// quiz shows the question, or the feedback once an answer was evaluated.
func (a *App) quiz(ctx context.Context, snap session.Snapshot) (bool, error) {
	if snap.State == session.ShowingFeedback {
		return a.feedback(ctx, snap)
	}

	a.println(nil, "")
	a.println(colours.Title, "🧠 Quiz time!")
	a.println(nil, "%s", snap.Question)
	a.println(colours.Muted, "Type your answer, 'skip' to go back, p/pause/s to listen, q to quit.")

	ctrl := a.controller(ctx, snap.Settings, text.StripMarkup(snap.Question), nil)
	defer ctrl.Close()
	if snap.Settings.TTS.AutoRead {
		defer a.autoplay(ctrl)()
	}

	for {
		line, ok := a.readLine("✏️  > ")
		if !ok {
			return false, nil
		}
		if a.playback(ctrl, line) {
			continue
		}
		switch line {
		case "":
			continue
		case "q", "quit":
			return false, nil
		case "skip":
			return true, a.session.FinishQuiz()
		}
		_ = ctrl.Stop()
		a.println(colours.Muted, "🤔 Checking your answer...")
		return true, a.session.SubmitAnswer(ctx, line)
	}
}

func (a *App) feedback(ctx context.Context, snap session.Snapshot) (bool, error) {
	a.println(nil, "")
	a.println(colours.Title, "📝 Feedback")
	a.println(nil, "%s", snap.Feedback)
	a.println(nil, "")

	var opts []string
	if snap.Actions.CanPracticeVocabulary {
		opts = append(opts, "v practise words")
	}
	opts = append(opts, "n next blitz", "b back", "q quit")
	a.println(colours.Info, "📋 %s", strings.Join(opts, " · "))

	ctrl := a.controller(ctx, snap.Settings, text.StripMarkup(snap.Feedback), nil)
	defer ctrl.Close()
	if snap.Settings.TTS.AutoRead {
		defer a.autoplay(ctrl)()
	}

	for {
		line, ok := a.readLine("🎧 > ")
		if !ok {
			return false, nil
		}
		if a.playback(ctrl, line) {
			continue
		}
		switch line {
		case "":
		case "q", "quit":
			return false, nil
		case "b", "back":
			return true, a.session.FinishQuiz()
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
		default:
			a.println(colours.Warning, "Unknown command %q.", line)
		}
	}
}
