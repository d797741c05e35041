// Package dealer implements the dealer's hit/stand policy and plays one
// dealer hand against a shoe.
package dealer

import (
	"errors"
	"fmt"

	"github.com/lox/dealersim/internal/deck"
)

const (
	// MinHitUntil and MaxHitUntil bound the hit-until threshold.
	MinHitUntil = 12
	MaxHitUntil = 21

	// BustLimit is the highest non-busted total.
	BustLimit = 21

	// DefaultHitUntil is the casino "stand on 17" rule.
	DefaultHitUntil = 17
)

// ErrInvalidStrategy is returned for hit-until values outside [12,21].
var ErrInvalidStrategy = errors.New("invalid dealer strategy")

// State is the hand-playing state machine position.
type State int

const (
	Dealing State = iota
	Hitting
	Done
)

func (s State) String() string {
	switch s {
	case Dealing:
		return "dealing"
	case Hitting:
		return "hitting"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Round is the result of one dealer hand. GameIndex is assigned by the
// caller running a sequence of rounds.
type Round struct {
	Strategy   int  `json:"strategy"`
	GameIndex  int  `json:"game_index"`
	HandValue  int  `json:"hand_value"`
	IsBusted   bool `json:"is_busted"`
	CardsDrawn int  `json:"cards_drawn"`
}

// Policy draws until the hand total reaches hitUntil.
type Policy struct {
	hitUntil           int
	reshuffleThreshold float64
}

// ValidateStrategy checks a hit-until value.
func ValidateStrategy(hitUntil int) error {
	if hitUntil < MinHitUntil || hitUntil > MaxHitUntil {
		return fmt.Errorf("%w: hit until value should be between %d and %d, got %d",
			ErrInvalidStrategy, MinHitUntil, MaxHitUntil, hitUntil)
	}
	return nil
}

// NewPolicy returns a policy hitting below hitUntil that reshuffles the shoe
// whenever less than reshuffleThreshold of it remains before a draw.
func NewPolicy(hitUntil int, reshuffleThreshold float64) (*Policy, error) {
	if err := ValidateStrategy(hitUntil); err != nil {
		return nil, err
	}
	if reshuffleThreshold <= 0 || reshuffleThreshold >= 1 {
		return nil, fmt.Errorf("reshuffle threshold must be in (0,1), got %v", reshuffleThreshold)
	}
	return &Policy{hitUntil: hitUntil, reshuffleThreshold: reshuffleThreshold}, nil
}

// SetStrategy changes the hit-until threshold. On error the policy is unchanged.
func (p *Policy) SetStrategy(hitUntil int) error {
	if err := ValidateStrategy(hitUntil); err != nil {
		return err
	}
	p.hitUntil = hitUntil
	return nil
}

// HitUntil returns the current threshold.
func (p *Policy) HitUntil() int {
	return p.hitUntil
}

// ShouldHit reports whether the dealer draws on total.
func (p *Policy) ShouldHit(total int) bool {
	return total < p.hitUntil
}

// HandValue totals a hand counting each Ace as 1, then promotes Aces to 11
// one at a time while the total stays at or under 21.
func HandValue(hand []deck.Card) int {
	total, aces := 0, 0
	for _, c := range hand {
		total += c.BlackjackValue()
		if c.IsAce() {
			aces++
		}
	}
	for ; aces > 0; aces-- {
		if total+10 > BustLimit {
			break
		}
		total += 10
	}
	return total
}

// IsBusted reports whether total is over 21.
func IsBusted(total int) bool {
	return total > BustLimit
}

// PlayHand plays one dealer hand: reshuffle check, two cards, then one
// reshuffle check and one card per hit until ShouldHit is false. A bust
// always stops the loop because hitUntil never exceeds 21.
func (p *Policy) PlayHand(d *deck.Deck) (Round, error) {
	hand, err := p.deal(d)
	if err != nil {
		return Round{}, err
	}
	value := HandValue(hand)

	return Round{
		Strategy:   p.hitUntil,
		HandValue:  value,
		IsBusted:   IsBusted(value),
		CardsDrawn: len(hand),
	}, nil
}

func (p *Policy) deal(d *deck.Deck) ([]deck.Card, error) {
	hand := make([]deck.Card, 0, 6)
	state := Dealing

	for state != Done {
		switch state {
		case Dealing:
			d.AutoShuffleIfNeeded(p.reshuffleThreshold)
			for range 2 {
				c, err := d.Draw()
				if err != nil {
					return nil, fmt.Errorf("dealing opening cards: %w", err)
				}
				hand = append(hand, c)
			}
			state = p.next(hand)

		case Hitting:
			d.AutoShuffleIfNeeded(p.reshuffleThreshold)
			c, err := d.Draw()
			if err != nil {
				return nil, fmt.Errorf("hitting on %d: %w", HandValue(hand), err)
			}
			hand = append(hand, c)
			state = p.next(hand)
		}
	}
	return hand, nil
}

func (p *Policy) next(hand []deck.Card) State {
	if p.ShouldHit(HandValue(hand)) {
		return Hitting
	}
	return Done
}
