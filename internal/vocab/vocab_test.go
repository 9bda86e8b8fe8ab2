package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_NoDuplicates(t *testing.T) {
	s := NewSet()

	assert.True(t, s.Add("Casa,", "house"))
	assert.False(t, s.Add("casa", "home"))
	assert.True(t, s.Add("perro", "dog"))
	assert.False(t, s.Add(" ...", "nothing"))

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("CASA"))
	assert.Equal(t, []Item{{Word: "Casa,", Translation: "house"}, {Word: "perro", Translation: "dog"}}, s.Items())

	s.Clear()
	assert.Zero(t, s.Len())
	assert.False(t, s.Contains("casa"))
}

func noShuffle(int, func(i, j int)) {}

func TestDeck_KnownAndUnknown(t *testing.T) {
	d := NewDeck([]Item{{Word: "uno"}, {Word: "dos"}, {Word: "tres"}}, noShuffle)

	card, ok := d.Current()
	require.True(t, ok)
	assert.Equal(t, "uno", card.Word)

	assert.True(t, d.Flip())
	d.Unknown()
	assert.False(t, d.Flipped())
	card, _ = d.Current()
	assert.Equal(t, "dos", card.Word)

	d.Known()
	card, _ = d.Current()
	assert.Equal(t, "tres", card.Word)
	assert.InDelta(t, 1.0/3, d.Progress(), 1e-9)

	d.Known()
	card, _ = d.Current()
	assert.Equal(t, "uno", card.Word, "index wraps after removing the last position")
	assert.Equal(t, 1, d.Remaining())

	d.Known()
	assert.True(t, d.Done())
	assert.Equal(t, 1.0, d.Progress())
	_, ok = d.Current()
	assert.False(t, ok)
}

func TestDeck_Empty(t *testing.T) {
	d := NewDeck(nil, nil)

	assert.True(t, d.Done())
	assert.Zero(t, d.Progress())
	d.Unknown()
	d.Known()
}
