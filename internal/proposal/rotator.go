// Package proposal rotates the topic suggestions offered between rounds.
package proposal

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
)

// Size is the number of proposals offered per round.
const Size = 2

// Generator suggests up to count new topics, avoiding excluded.
type Generator interface {
	Proposals(ctx context.Context, interests, excluded []string, count int) ([]string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, interests, excluded []string, count int) ([]string, error)

func (f GeneratorFunc) Proposals(ctx context.Context, interests, excluded []string, count int) ([]string, error) {
	return f(ctx, interests, excluded, count)
}

// Rotator produces the next proposal set. A proposal shown but not chosen is
// offered once more in the following round, never twice in a row.
type Rotator struct {
	gen     Generator
	shuffle func(n int, swap func(i, j int))

	mu         sync.Mutex
	skipped    string
	generation uint64
}

// Round pins a rotation to the history it was started from. Once Initial
// runs, a rotation from an earlier round no longer records its skip.
type Round struct {
	r          *Rotator
	generation uint64
}

// Round captures the current history generation.
func (r *Rotator) Round() Round {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Round{r: r, generation: r.generation}
}

// Option configures a Rotator.
type Option func(*Rotator)

// WithShuffle replaces the random shuffle, mainly for tests.
func WithShuffle(shuffle func(n int, swap func(i, j int))) Option {
	return func(r *Rotator) { r.shuffle = shuffle }
}

func NewRotator(gen Generator, opts ...Option) *Rotator {
	r := &Rotator{gen: gen, shuffle: rand.Shuffle}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Initial fetches a fresh set and forgets any carried skip.
func (r *Rotator) Initial(ctx context.Context, interests, excluded []string) ([]string, error) {
	r.mu.Lock()
	r.skipped = ""
	r.generation++
	r.mu.Unlock()

	fresh, err := r.gen.Proposals(ctx, interests, excluded, Size)
	if err != nil {
		return nil, fmt.Errorf("generating proposals: %w", err)
	}
	return r.finish(nil, fresh, excluded), nil
}

// Rotate builds the set that follows a round in which chosen was picked from
// previous. The generator error, if any, is returned alongside whatever could
// be kept.
func (r *Rotator) Rotate(ctx context.Context, chosen string, previous, interests, excluded []string) ([]string, error) {
	return r.Round().Rotate(ctx, chosen, previous, interests, excluded)
}

// Rotate is Rotator.Rotate for the pinned round.
func (rd Round) Rotate(ctx context.Context, chosen string, previous, interests, excluded []string) ([]string, error) {
	r := rd.r
	var skipped string
	for _, p := range previous {
		if p != chosen {
			skipped = p
			break
		}
	}

	r.mu.Lock()
	carried := r.skipped
	if rd.generation == r.generation {
		r.skipped = skipped
	}
	r.mu.Unlock()

	avoid := append(append([]string(nil), excluded...), chosen)
	var kept []string
	if skipped != "" && skipped != carried && !contains(avoid, skipped) {
		kept = append(kept, skipped)
		avoid = append(avoid, skipped)
	}

	var fresh []string
	var err error
	if n := Size - len(kept); n > 0 {
		fresh, err = r.gen.Proposals(ctx, interests, avoid, n)
		if err != nil {
			err = fmt.Errorf("generating proposals: %w", err)
		}
	}
	return r.finish(kept, fresh, avoid), err
}

// Skipped returns the proposal carried from the last rotation.
func (r *Rotator) Skipped() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skipped
}

// finish drops excluded or duplicate suggestions, caps the set and shuffles it.
func (r *Rotator) finish(kept, fresh, avoid []string) []string {
	out := append([]string{}, kept...)
	for _, p := range fresh {
		p = strings.TrimSpace(p)
		if p == "" || contains(avoid, p) || contains(out, p) {
			continue
		}
		if len(out) == Size {
			break
		}
		out = append(out, p)
	}
	r.shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
