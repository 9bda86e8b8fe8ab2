package speech

// Status is the playback status of one controller.
type Status int

const (
	Idle Status = iota
	Playing
	Paused
)

func (s Status) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

// State is the resumable position of one controller. Invariants:
// ResumeOffset >= ChunkStart >= 0, and Status == Idle implies both are 0.
type State struct {
	Status       Status
	ResumeOffset int
	ChunkStart   int
}

type inputKind int

const (
	inPlay inputKind = iota
	inPauseToggle
	inStop
	inBoundary
	inEnd
	inInterrupted
	inFailed
	inRebind
)

// input is everything step needs to know about one stimulus.
type input struct {
	kind inputKind
	// textLen is the rune length of the bound text.
	textLen int
	// threshold is the resume guard: offsets this close to the end restart.
	threshold int
	// index is the chunk-relative boundary index.
	index int
	// speaking is the engine's live signal sampled when the end arrived.
	speaking bool
}

type effect int

const (
	effNone effect = iota
	// effSubmit submits text[ChunkStart:] as a new utterance.
	effSubmit
	// effCancel cancels the controller's own utterance.
	effCancel
	// effEnded releases the utterance and reports a natural end.
	effEnded
	// effProgress publishes ResumeOffset.
	effProgress
)

var idle = State{Status: Idle}

// step is the controller's transition function. It performs no I/O.
func step(s State, in input) (State, effect) {
	switch in.kind {
	case inPlay:
		if s.Status == Playing {
			return s, effNone
		}
		return resume(s, in), effSubmit

	case inPauseToggle:
		switch s.Status {
		case Playing:
			s.Status = Paused
			return s, effCancel
		case Paused:
			return resume(s, in), effSubmit
		}
		return s, effNone

	case inStop:
		if s.Status == Playing {
			return idle, effCancel
		}
		return idle, effNone

	case inBoundary:
		if s.Status != Playing {
			return s, effNone
		}
		pos := s.ChunkStart + max(in.index, 0)
		if in.textLen > 0 && pos > in.textLen {
			pos = in.textLen
		}
		if pos > s.ResumeOffset {
			s.ResumeOffset = pos
		}
		return s, effProgress

	case inEnd:
		if s.Status != Playing || in.speaking {
			return s, effNone
		}
		return idle, effEnded

	case inInterrupted:
		if s.Status == Playing {
			s.Status = Paused
		}
		return s, effNone

	case inFailed:
		return idle, effNone

	case inRebind:
		if s.Status == Playing {
			return idle, effCancel
		}
		return idle, effNone
	}
	return s, effNone
}

// resume starts from ResumeOffset unless it is zero or within the threshold
// of the end, in which case playback restarts from the beginning.
func resume(s State, in input) State {
	from := s.ResumeOffset
	if from > 0 && from < in.textLen-in.threshold {
		return State{Status: Playing, ResumeOffset: from, ChunkStart: from}
	}
	return State{Status: Playing}
}
