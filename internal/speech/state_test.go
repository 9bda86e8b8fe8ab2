package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStep(t *testing.T) {
	const n, th = 100, DefaultResumeThreshold
	playing := func(off, chunk int) State { return State{Status: Playing, ResumeOffset: off, ChunkStart: chunk} }
	paused := func(off, chunk int) State { return State{Status: Paused, ResumeOffset: off, ChunkStart: chunk} }

	tests := []struct {
		name string
		from State
		in   input
		want State
		eff  effect
	}{
		{"play from idle", idle, input{kind: inPlay}, playing(0, 0), effSubmit},
		{"play while playing", playing(10, 0), input{kind: inPlay}, playing(10, 0), effNone},
		{"play resumes", paused(40, 20), input{kind: inPlay}, playing(40, 40), effSubmit},
		{"play near end restarts", paused(96, 0), input{kind: inPlay}, playing(0, 0), effSubmit},
		{"play at threshold restarts", paused(n-th, 0), input{kind: inPlay}, playing(0, 0), effSubmit},
		{"toggle pauses", playing(30, 10), input{kind: inPauseToggle}, paused(30, 10), effCancel},
		{"toggle resumes", paused(30, 10), input{kind: inPauseToggle}, playing(30, 30), effSubmit},
		{"toggle idle", idle, input{kind: inPauseToggle}, idle, effNone},
		{"stop playing", playing(30, 10), input{kind: inStop}, idle, effCancel},
		{"stop paused", paused(30, 10), input{kind: inStop}, idle, effNone},
		{"boundary is chunk relative", playing(30, 30), input{kind: inBoundary, index: 5}, playing(35, 30), effProgress},
		{"boundary never goes back", playing(50, 30), input{kind: inBoundary, index: 5}, playing(50, 30), effProgress},
		{"boundary clamps to text", playing(0, 90), input{kind: inBoundary, index: 50}, playing(100, 90), effProgress},
		{"boundary while paused", paused(30, 0), input{kind: inBoundary, index: 60}, paused(30, 0), effNone},
		{"end while speaking", playing(30, 0), input{kind: inEnd, speaking: true}, playing(30, 0), effNone},
		{"end", playing(30, 0), input{kind: inEnd}, idle, effEnded},
		{"end while paused", paused(30, 0), input{kind: inEnd}, paused(30, 0), effNone},
		{"interrupted", playing(30, 0), input{kind: inInterrupted}, paused(30, 0), effNone},
		{"failed", playing(30, 0), input{kind: inFailed}, idle, effNone},
		{"rebind playing", playing(30, 0), input{kind: inRebind}, idle, effCancel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.textLen = n
			tt.in.threshold = th
			got, eff := step(tt.from, tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.eff, eff)
		})
	}
}
