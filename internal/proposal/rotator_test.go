package proposal

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type call struct {
	excluded []string
	count    int
}

type fakeGenerator struct {
	calls   []call
	answers [][]string
	err     error
}

func (f *fakeGenerator) Proposals(_ context.Context, _ []string, excluded []string, count int) ([]string, error) {
	f.calls = append(f.calls, call{excluded: append([]string(nil), excluded...), count: count})
	if f.err != nil {
		return nil, f.err
	}
	if len(f.answers) == 0 {
		return nil, nil
	}
	next := f.answers[0]
	f.answers = f.answers[1:]
	return next, nil
}

func noShuffle(int, func(i, j int)) {}

func TestRotator_KeepsSkippedForOneRound(t *testing.T) {
	gen := &fakeGenerator{answers: [][]string{
		{"Tapas Culture"},
		{"Jazz in Paris"},
		{"Desert Hiking", "Street Art"},
	}}
	r := NewRotator(gen, WithShuffle(noShuffle))
	ctx := context.Background()

	round2, err := r.Rotate(ctx, "Mountain Trains", []string{"Mountain Trains", "Coffee Farms"}, nil, []string{"Old Topic"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Coffee Farms", "Tapas Culture"}, round2)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, 1, gen.calls[0].count)
	assert.ElementsMatch(t, []string{"Old Topic", "Mountain Trains", "Coffee Farms"}, gen.calls[0].excluded)

	// Coffee Farms is skipped again: it is not carried a second time.
	round3, err := r.Rotate(ctx, "Tapas Culture", round2, nil, []string{"Old Topic", "Mountain Trains"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Jazz in Paris"}, round3[:1])
	assert.NotContains(t, round3, "Coffee Farms")
	assert.Equal(t, 2, gen.calls[1].count)

	// Jazz in Paris was never carried before, so a skip is carried again.
	_, err = r.Rotate(ctx, "Tapas Culture", []string{"Tapas Culture", "Jazz in Paris"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Jazz in Paris", r.Skipped())
}

func TestRotator_InitialClearsHistory(t *testing.T) {
	gen := &fakeGenerator{answers: [][]string{{"A"}, {"B", "C"}, {"D"}}}
	r := NewRotator(gen, WithShuffle(noShuffle))
	ctx := context.Background()

	_, err := r.Rotate(ctx, "X", []string{"X", "Y"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Y", r.Skipped())

	_, err = r.Initial(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, r.Skipped())

	got, err := r.Rotate(ctx, "B", []string{"B", "Y"}, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, got, "Y", "history was cleared so Y is carried")
}

func TestRotator_AbandonedRoundLeavesNoSkip(t *testing.T) {
	gen := &fakeGenerator{answers: [][]string{{"A", "B"}, {"C"}, {"D", "E"}}}
	r := NewRotator(gen, WithShuffle(noShuffle))
	ctx := context.Background()

	stale := r.Round()
	_, err := r.Initial(ctx, nil, nil)
	require.NoError(t, err)

	_, err = stale.Rotate(ctx, "X", []string{"X", "Y"}, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, r.Skipped())

	got, err := r.Rotate(ctx, "A", []string{"A", "B"}, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, got, "B")
	assert.Equal(t, "B", r.Skipped())
}

func TestRotator_GeneratorFailureKeepsSkip(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("overloaded")}
	r := NewRotator(gen, WithShuffle(noShuffle))

	got, err := r.Rotate(context.Background(), "X", []string{"X", "Y"}, nil, nil)

	assert.Error(t, err)
	assert.Equal(t, []string{"Y"}, got)
}

func TestRotator_DropsDuplicatesAndExcluded(t *testing.T) {
	gen := &fakeGenerator{answers: [][]string{{"Done Topic", " New One ", "new one", "", "Another"}}}
	r := NewRotator(gen, WithShuffle(noShuffle))

	got, err := r.Initial(context.Background(), nil, []string{"done topic"})

	require.NoError(t, err)
	assert.Equal(t, []string{"New One", "Another"}, got)
}

func TestRotator_NeverProposesExcluded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pool := make([]string, 8)
		for i := range pool {
			pool[i] = fmt.Sprintf("topic %d", i)
		}
		gen := GeneratorFunc(func(_ context.Context, _ []string, _ []string, count int) ([]string, error) {
			// A careless generator that ignores the exclusion list.
			n := rapid.IntRange(0, 4).Draw(t, "n")
			out := make([]string, n)
			for i := range out {
				out[i] = rapid.SampledFrom(pool).Draw(t, "suggestion")
			}
			return out, nil
		})
		r := NewRotator(gen)

		excluded := rapid.SliceOfDistinct(rapid.SampledFrom(pool), rapid.ID[string]).Draw(t, "excluded")
		current, _ := r.Initial(context.Background(), nil, excluded)

		for round := 0; round < 5 && len(current) > 0; round++ {
			chosen := rapid.SampledFrom(current).Draw(t, "chosen")
			excluded = append(excluded, chosen)
			next, err := r.Rotate(context.Background(), chosen, current, nil, excluded)
			if err != nil {
				t.Fatal(err)
			}
			if len(next) > Size {
				t.Fatalf("%d proposals", len(next))
			}
			for _, p := range next {
				if contains(excluded, p) {
					t.Fatalf("proposed excluded topic %q", p)
				}
			}
			current = next
		}
	})
}
