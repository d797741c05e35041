package deck

import "fmt"

// Suit represents a card suit
type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

// Suits lists the four suits in build order.
var Suits = [...]Suit{Hearts, Diamonds, Clubs, Spades}

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	return s >= Hearts && s <= Spades
}

// Rank represents a card rank, Ace low
type Rank int

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	}
	if r >= Two && r <= Ten {
		return fmt.Sprintf("%d", int(r))
	}
	return "?"
}

// Valid reports whether r is in [Ace, King].
func (r Rank) Valid() bool {
	return r >= Ace && r <= King
}

// Card represents a playing card
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a card, rejecting ranks outside 1-13 and unknown suits.
func NewCard(rank Rank, suit Suit) (Card, error) {
	if !rank.Valid() {
		return Card{}, fmt.Errorf("card rank must be between 1 and 13, got %d", int(rank))
	}
	if !suit.Valid() {
		return Card{}, fmt.Errorf("unknown suit %d", int(suit))
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// String returns the string representation of a card (e.g., "A♥")
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// BlackjackValue returns the card's hard value: Ace counts 1, faces count 10.
// Whether an Ace is promoted to 11 is decided over the whole hand.
func (c Card) BlackjackValue() int {
	switch {
	case c.Rank == Ace:
		return 1
	case c.Rank >= Jack:
		return 10
	default:
		return int(c.Rank)
	}
}

// ParseCards parses compact notation such as "AhTdKs" (rank then suit per
// card, "T" for ten) into cards. Case-insensitive.
func ParseCards(s string) ([]Card, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("card string %q has odd length", s)
	}
	cards := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		c, err := parseCard(s[i], s[i+1])
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i/2+1, err)
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards is ParseCards for literals known to be valid.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

func parseCard(r, s byte) (Card, error) {
	var rank Rank
	switch r {
	case 'A', 'a':
		rank = Ace
	case 'T', 't':
		rank = Ten
	case 'J', 'j':
		rank = Jack
	case 'Q', 'q':
		rank = Queen
	case 'K', 'k':
		rank = King
	default:
		if r < '2' || r > '9' {
			return Card{}, fmt.Errorf("invalid rank %q", r)
		}
		rank = Rank(r - '0')
	}

	var suit Suit
	switch s {
	case 'h', 'H':
		suit = Hearts
	case 'd', 'D':
		suit = Diamonds
	case 'c', 'C':
		suit = Clubs
	case 's', 'S':
		suit = Spades
	default:
		return Card{}, fmt.Errorf("invalid suit %q", s)
	}
	return Card{Rank: rank, Suit: suit}, nil
}
