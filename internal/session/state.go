package session

import (
	"errors"
	"fmt"
)

// State is the top-level screen the learner is on.
type State int

const (
	Onboarding State = iota
	GeneratingProposals
	Ready
	GeneratingArticle
	PostArticleChoice
	ShowingQuiz
	EvaluatingQuiz
	ShowingFeedback
	PracticingVocabulary
)

var stateNames = map[State]string{
	Onboarding:           "onboarding",
	GeneratingProposals:  "generating-proposals",
	Ready:                "ready",
	GeneratingArticle:    "generating-article",
	PostArticleChoice:    "post-article-choice",
	ShowingQuiz:          "showing-quiz",
	EvaluatingQuiz:       "evaluating-quiz",
	ShowingFeedback:      "showing-feedback",
	PracticingVocabulary: "practicing-vocabulary",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrInvalidTransition is returned when an action is not allowed in the
	// current state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNotReady is returned when an action is gated by a readiness flag
	// that has not flipped yet.
	ErrNotReady = errors.New("not ready")
)

func invalid(action string, from State) error {
	return fmt.Errorf("%s from %s: %w", action, from, ErrInvalidTransition)
}

func notReady(action, what string) error {
	return fmt.Errorf("%s: %s: %w", action, what, ErrNotReady)
}
