package speech

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArbiter_StartPreemptsAndNotifies(t *testing.T) {
	engine := NewMockEngine()
	arb := NewArbiter(engine, nil)

	var first []Event
	id1, err := arb.Start(Request{Text: "uno"}, func(ev Event) { first = append(first, ev) })
	require.NoError(t, err)
	id2, err := arb.Start(Request{Text: "dos"}, nil)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, id2, arb.Active())
	require.Len(t, first, 1)
	assert.Equal(t, EventInterrupted, first[0].Kind)
	assert.Equal(t, id1, first[0].Utterance)
	assert.Equal(t, 1, engine.Cancels())
	assert.Zero(t, engine.Overlaps())
}

func TestArbiter_CancelIgnoresStaleID(t *testing.T) {
	engine := NewMockEngine()
	arb := NewArbiter(engine, nil)

	id1, _ := arb.Start(Request{Text: "uno"}, nil)
	id2, _ := arb.Start(Request{Text: "dos"}, nil)

	arb.Cancel(id1)
	assert.Equal(t, id2, arb.Active())
	assert.True(t, engine.Speaking())

	arb.Cancel(id2)
	assert.Zero(t, arb.Active())
	assert.False(t, engine.Speaking())
}

func TestArbiter_DropsEventsFromCancelledUtterance(t *testing.T) {
	engine := NewMockEngine()
	arb := NewArbiter(engine, nil)

	var got []Event
	_, err := arb.Start(Request{Text: "uno dos"}, func(ev Event) { got = append(got, ev) })
	require.NoError(t, err)
	stale := engine.currentUtterance()

	arb.Interrupt()
	stale.sink(Event{Kind: EventError, Err: errors.New("interrupted")})
	stale.sink(Event{Kind: EventBoundary, CharIndex: 4})

	require.Len(t, got, 1)
	assert.Equal(t, EventInterrupted, got[0].Kind)
}

func TestArbiter_SayEndsOnItsOwn(t *testing.T) {
	engine := NewMockEngine()
	arb := NewArbiter(engine, nil)

	require.NoError(t, arb.Say(Request{Text: "hola"}))
	assert.NotZero(t, arb.Active())

	engine.Finish()
	assert.Zero(t, arb.Active())
	assert.False(t, arb.Interrupt())
}

func TestArbiter_InterruptReportsActivity(t *testing.T) {
	engine := NewMockEngine()
	arb := NewArbiter(engine, nil)

	assert.False(t, arb.Interrupt())
	_, _ = arb.Start(Request{Text: "hola"}, nil)
	assert.True(t, arb.Interrupt())
	assert.False(t, engine.Speaking())
}

func TestArbiter_StartAtRefusesStaleEpoch(t *testing.T) {
	engine := NewMockEngine()
	arb := NewArbiter(engine, nil)

	epoch := arb.Epoch()
	arb.Interrupt()
	_, err := arb.StartAt(epoch, Request{Text: "narración"}, nil)
	assert.ErrorIs(t, err, ErrPreempted)
	assert.Empty(t, engine.Requests())

	epoch = arb.Epoch()
	require.NoError(t, arb.Say(Request{Text: "palabra"}))
	_, err = arb.StartAt(epoch, Request{Text: "narración"}, nil)
	assert.ErrorIs(t, err, ErrPreempted)
	assert.Len(t, engine.Requests(), 1)

	id, err := arb.StartAt(arb.Epoch(), Request{Text: "narración"}, nil)
	require.NoError(t, err)
	assert.Equal(t, id, arb.Active())
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "boundary", EventBoundary.String())
	assert.Equal(t, "interrupted", EventInterrupted.String())
}
