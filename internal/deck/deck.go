package deck

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
)

// CardsPerDeck is the size of one standard deck.
const CardsPerDeck = 52

var (
	// ErrInvalidDeckCount is returned when a shoe is built from fewer than one deck.
	ErrInvalidDeckCount = errors.New("number of decks must be positive")
	// ErrEmptyDeck is returned when drawing from an exhausted shoe. Reaching it
	// means the reshuffle threshold was placed wrong; it is not retried.
	ErrEmptyDeck = errors.New("cannot draw from an empty deck")
)

// Deck is a shoe of one or more shuffled 52-card decks. Cards are drawn from
// the top of the shuffled order and never restocked until Shuffle.
type Deck struct {
	numDecks     int
	initialCount int
	full         []Card
	cards        []Card
	rng          *rand.Rand
}

// New builds and shuffles a shoe of numDecks decks using rng.
func New(numDecks int, rng *rand.Rand) (*Deck, error) {
	if numDecks <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidDeckCount, numDecks)
	}
	if rng == nil {
		return nil, errors.New("deck requires a random source")
	}

	full, err := buildShoe(numDecks)
	if err != nil {
		return nil, err
	}

	d := &Deck{
		numDecks:     numDecks,
		initialCount: len(full),
		full:         full,
		cards:        make([]Card, 0, len(full)),
		rng:          rng,
	}
	d.Shuffle()
	return d, nil
}

// buildShoe lays out numDecks unshuffled decks
func buildShoe(numDecks int) ([]Card, error) {
	cards := make([]Card, 0, numDecks*CardsPerDeck)
	for range numDecks {
		for _, suit := range Suits {
			for rank := Ace; rank <= King; rank++ {
				c, err := NewCard(rank, suit)
				if err != nil {
					return nil, err
				}
				cards = append(cards, c)
			}
		}
	}
	return cards, nil
}

// Shuffle discards whatever is left, restores the full shoe and permutes it
// uniformly (Fisher-Yates).
func (d *Deck) Shuffle() {
	d.cards = append(d.cards[:0], d.full...)
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (Card, error) {
	n := len(d.cards)
	if n == 0 {
		return Card{}, ErrEmptyDeck
	}
	card := d.cards[n-1]
	d.cards = d.cards[:n-1]
	return card, nil
}

// Len returns the number of cards left in the shoe
func (d *Deck) Len() int {
	return len(d.cards)
}

// NumDecks returns how many decks the shoe was built from.
func (d *Deck) NumDecks() int {
	return d.numDecks
}

// InitialCount returns the size of a full shoe.
func (d *Deck) InitialCount() int {
	return d.initialCount
}

// RemainingFraction returns the share of the full shoe still undrawn, in [0,1].
func (d *Deck) RemainingFraction() float64 {
	return float64(len(d.cards)) / float64(d.initialCount)
}

// AutoShuffleIfNeeded reshuffles when the remaining fraction has dropped
// strictly below threshold and reports whether it did.
func (d *Deck) AutoShuffleIfNeeded(threshold float64) bool {
	if d.RemainingFraction() < threshold {
		d.Shuffle()
		return true
	}
	return false
}
