package protocol

import (
	"fmt"
	"strconv"
)

// Suit is the wire name of a card suit
type Suit string

const (
	Hearts   Suit = "HEARTS"
	Diamonds Suit = "DIAMONDS"
	Clubs    Suit = "CLUBS"
	Spades   Suit = "SPADES"
)

// Symbol returns the display symbol for a suit
func (s Suit) Symbol() string {
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

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Valid reports whether s is one of the four known suits
func (s Suit) Valid() bool {
	switch s {
	case Hearts, Diamonds, Clubs, Spades:
		return true
	}
	return false
}

const (
	MinValue = 2
	Jack     = 11
	Queen    = 12
	King     = 13
	Ace      = 14
)

// Card is a playing card as sent by the server. Cards are only ever
// constructed from server payloads and are never mutated.
type Card struct {
	Suit  Suit `json:"suit"`
	Value int  `json:"value"`
}

// Rank returns the display rank: 2-10 as digits, 11-14 as J, Q, K, A
func (c Card) Rank() string {
	switch c.Value {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	}
	if c.Value < MinValue || c.Value > Ace {
		return "?"
	}
	return strconv.Itoa(c.Value)
}

// String returns the string representation of a card (e.g., "A♠")
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank(), c.Suit.Symbol())
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// Validate checks that the card came off the wire with a known suit and value
func (c Card) Validate() error {
	if !c.Suit.Valid() {
		return fmt.Errorf("%w: unknown suit %q", ErrInvalidCard, c.Suit)
	}
	if c.Value < MinValue || c.Value > Ace {
		return fmt.Errorf("%w: value %d out of range", ErrInvalidCard, c.Value)
	}
	return nil
}
