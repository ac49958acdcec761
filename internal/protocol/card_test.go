package protocol

import (
	"errors"
	"testing"
)

func TestCardString(t *testing.T) {
	tests := []struct {
		card Card
		want string
	}{
		{Card{Suit: Hearts, Value: 14}, "A♥"},
		{Card{Suit: Diamonds, Value: 13}, "K♦"},
		{Card{Suit: Clubs, Value: 12}, "Q♣"},
		{Card{Suit: Spades, Value: 11}, "J♠"},
		{Card{Suit: Spades, Value: 10}, "10♠"},
		{Card{Suit: Hearts, Value: 2}, "2♥"},
		{Card{Suit: "", Value: 1}, "??"},
	}

	for _, tt := range tests {
		if got := tt.card.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.card, got, tt.want)
		}
	}
}

func TestCardIsRed(t *testing.T) {
	if !(Card{Suit: Hearts, Value: 5}).IsRed() {
		t.Error("hearts should be red")
	}
	if !(Card{Suit: Diamonds, Value: 5}).IsRed() {
		t.Error("diamonds should be red")
	}
	if (Card{Suit: Clubs, Value: 5}).IsRed() {
		t.Error("clubs should not be red")
	}
	if (Card{Suit: Spades, Value: 5}).IsRed() {
		t.Error("spades should not be red")
	}
}

func TestCardValidate(t *testing.T) {
	if err := (Card{Suit: Clubs, Value: 2}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Card{Suit: Clubs, Value: 15}).Validate(); !errors.Is(err, ErrInvalidCard) {
		t.Errorf("expected ErrInvalidCard for value 15, got %v", err)
	}
	if err := (Card{Suit: "clubs", Value: 3}).Validate(); !errors.Is(err, ErrInvalidCard) {
		t.Errorf("expected ErrInvalidCard for lowercase suit, got %v", err)
	}
}
