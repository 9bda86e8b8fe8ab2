// Package speech owns the process-wide speech synthesis resource and the
// playback controllers that share it.
package speech

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by a Controller after Close.
	ErrClosed = errors.New("speech: controller closed")
	// ErrNoEngine is returned when no usable engine could be created.
	ErrNoEngine = errors.New("speech: no engine available")
	// ErrPreempted is returned by Arbiter.StartAt when other speech activity
	// happened after the start was decided.
	ErrPreempted = errors.New("speech: preempted before start")
)

// Voice describes a voice offered by an engine.
type Voice struct {
	Name   string `json:"name"`
	Locale string `json:"locale"`
	// Local is false for network-backed voices, which are usually the natural ones.
	Local bool `json:"local"`
}

// DisplayName is the label shown in voice pickers.
func (v Voice) DisplayName() string {
	return fmt.Sprintf("%s (%s)", v.Name, v.Locale)
}

// Request is an immutable utterance submitted to an engine.
type Request struct {
	Text   string
	Voice  string
	Rate   float64
	Locale string
}

// EventKind discriminates engine notifications.
type EventKind int

const (
	// EventBoundary reports a character boundary reached inside the utterance.
	EventBoundary EventKind = iota
	// EventEnd reports that the engine believes the utterance finished.
	EventEnd
	// EventError reports a synthesis or playback failure.
	EventError
	// EventInterrupted is raised by the Arbiter when the utterance was stopped
	// on behalf of someone other than its owner.
	EventInterrupted
)

func (k EventKind) String() string {
	switch k {
	case EventBoundary:
		return "boundary"
	case EventEnd:
		return "end"
	case EventError:
		return "error"
	case EventInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Event is a notification about one utterance.
type Event struct {
	Kind EventKind
	// CharIndex is the rune offset relative to the submitted text (boundary only).
	CharIndex int
	Err       error
	// Utterance is stamped by the Arbiter before the event reaches its owner.
	Utterance uint64
}

// Engine is the platform speech capability. Implementations deliver events
// for an utterance through the sink passed to Speak, from any goroutine.
// Speak must return before invoking sink. Engines do not have to guarantee
// exclusivity; the Arbiter does.
type Engine interface {
	Voices(ctx context.Context) ([]Voice, error)
	Speak(req Request, sink func(Event)) error
	Cancel() error
	// Speaking is the live "still producing audio" signal.
	Speaking() bool
}
