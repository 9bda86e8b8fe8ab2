package vocab

import "math/rand/v2"

// Deck is a flashcard round over a shuffled copy of the captured words.
// Known cards leave the deck; unknown ones come back later.
type Deck struct {
	cards   []Item
	total   int
	current int
	flipped bool
	done    bool
}

// NewDeck shuffles items into a deck. shuffle may be nil for rand.Shuffle.
func NewDeck(items []Item, shuffle func(n int, swap func(i, j int))) *Deck {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	cards := append([]Item(nil), items...)
	shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return &Deck{cards: cards, total: len(cards), done: len(cards) == 0}
}

// Current returns the card on top, if any.
func (d *Deck) Current() (Item, bool) {
	if d.done || len(d.cards) == 0 {
		return Item{}, false
	}
	return d.cards[d.current], true
}

// Flip turns the current card and reports whether it now shows the translation.
func (d *Deck) Flip() bool {
	d.flipped = !d.flipped
	return d.flipped
}

func (d *Deck) Flipped() bool { return d.flipped }

// Known removes the current card. Knowing the last card finishes the deck.
func (d *Deck) Known() {
	if d.done {
		return
	}
	d.flipped = false
	if len(d.cards) == 1 {
		d.cards = nil
		d.done = true
		return
	}
	d.cards = append(d.cards[:d.current], d.cards[d.current+1:]...)
	d.current %= len(d.cards)
}

// Unknown moves on to the next card, wrapping around.
func (d *Deck) Unknown() {
	if d.done {
		return
	}
	d.flipped = false
	d.current = (d.current + 1) % len(d.cards)
}

// Remaining is the number of cards not yet known.
func (d *Deck) Remaining() int { return len(d.cards) }

// Total is the deck size at the start of the round.
func (d *Deck) Total() int { return d.total }

// Progress is the fraction of cards known, in [0, 1].
func (d *Deck) Progress() float64 {
	if d.total == 0 {
		return 0
	}
	return float64(d.total-len(d.cards)) / float64(d.total)
}

func (d *Deck) Done() bool { return d.done }
