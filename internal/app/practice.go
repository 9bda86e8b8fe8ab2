package app

import (
	"context"

	"lingoblitz/internal/cli/scheme/colours"
	"lingoblitz/internal/session"
	"lingoblitz/internal/speech"
)

// practice runs the flashcard deck until every card is known.
func (a *App) practice(ctx context.Context) (bool, error) {
	deck := a.session.Deck()
	snap := a.session.Snapshot()

	a.println(nil, "")
	a.println(colours.Title, "🃏 Flashcards (%d words)", deck.Total())
	a.println(colours.Muted, "f flip · k I know it · u not yet · p hear it · done to stop · q quit")

	var ctrl *speech.Controller
	defer func() {
		if ctrl != nil {
			ctrl.Close()
		}
	}()

	for !deck.Done() {
		card, _ := deck.Current()
		if ctrl == nil {
			ctrl = a.controller(ctx, snap.Settings, card.Word, nil)
		} else {
			ctrl.Rebind(a.binding(ctx, snap.Settings, card.Word))
		}

		if deck.Flipped() {
			a.println(colours.Translation, "   %s", card.Translation)
		} else {
			a.println(colours.Word, "[%d/%d] %s", deck.Total()-deck.Remaining()+1, deck.Total(), card.Word)
		}

		line, ok := a.readLine("🃏 > ")
		if !ok {
			return false, nil
		}
		if a.playback(ctrl, line) {
			continue
		}
		switch line {
		case "q", "quit":
			return false, nil
		case "f", "flip", "":
			deck.Flip()
		case "k", "known":
			deck.Known()
		case "u", "unknown":
			deck.Unknown()
		case "done":
			return true, a.finishPractice(ctx, snap)
		default:
			a.println(colours.Warning, "Unknown command %q.", line)
		}
	}

	a.println(colours.Success, "🎉 All %d words practised!", deck.Total())
	return true, a.finishPractice(ctx, snap)
}

// finishPractice leaves the deck. With the quiz already done the session
// heads straight into the next round, so wait for its proposals first.
func (a *App) finishPractice(ctx context.Context, snap session.Snapshot) error {
	if snap.QuizDone {
		err := a.awaitReady(ctx, "Finding new topics...", func(s session.Snapshot) bool { return s.ProposalsReady })
		if err != nil {
			return err
		}
	}
	return a.session.FinishVocabulary()
}
