// internal/models/card.go
package models

import "fmt"

// Rank enumerates the thirteen card ranks. The underlying value doubles as
// the pip score of the rank (TWO scores 2, ACE scores 14), so hand scoring
// never needs a lookup table.
type Rank int

const (
	RankTwo Rank = iota + 2
	RankThree
	RankFour
	RankFive
	RankSix
	RankSeven
	RankEight
	RankNine
	RankTen
	RankJack
	RankQueen
	RankKing
	RankAce
)

// Suit enumerates the four suits. The zero value means "no suit" and is used
// for the demanded-suit field when no Ace demand is outstanding.
type Suit int

const (
	SuitHearts Suit = iota + 1
	SuitDiamonds
	SuitClubs
	SuitSpades
)

var rankNames = map[Rank]string{
	RankTwo: "2", RankThree: "3", RankFour: "4", RankFive: "5",
	RankSix: "6", RankSeven: "7", RankEight: "8", RankNine: "9",
	RankTen: "10", RankJack: "J", RankQueen: "Q", RankKing: "K", RankAce: "A",
}

var suitNames = map[Suit]string{
	SuitHearts: "hearts", SuitDiamonds: "diamonds",
	SuitClubs: "clubs", SuitSpades: "spades",
}

func (r Rank) String() string {
	if s, ok := rankNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Rank(%d)", int(r))
}

func (s Suit) String() string {
	if n, ok := suitNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Suit(%d)", int(s))
}

// Valid reports whether r is one of the thirteen playing ranks.
func (r Rank) Valid() bool {
	return r >= RankTwo && r <= RankAce
}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	return s >= SuitHearts && s <= SuitSpades
}

// Demandable reports whether r may be demanded by a Jack. Only the
// "non-functional" ranks FIVE..TEN qualify.
func (r Rank) Demandable() bool {
	return r >= RankFive && r <= RankTen
}

// Card is an immutable card value. Two cards are equal iff rank and suit
// both match.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

func (c Card) String() string {
	return c.Rank.String() + " of " + c.Suit.String()
}

// Pips returns the scoring value of the card: the rank's position in the
// thirteen-rank order plus two, independent of suit.
func (c Card) Pips() int {
	return int(c.Rank)
}

// HasEffect reports whether playing the card changes the pending-effect
// state: draw chains (2, 3), skip chains (4), rank demands (J), suit demands
// (A), and the direction-reversing kings of hearts and spades.
func (c Card) HasEffect() bool {
	switch c.Rank {
	case RankTwo, RankThree, RankFour, RankJack, RankAce:
		return true
	case RankKing:
		return c.Suit == SuitHearts || c.Suit == SuitSpades
	default:
		return false
	}
}

// NewFullDeck returns all 52 cards in rank-then-suit order. Callers shuffle.
func NewFullDeck() []Card {
	cards := make([]Card, 0, 52)
	for r := RankTwo; r <= RankAce; r++ {
		for s := SuitHearts; s <= SuitSpades; s++ {
			cards = append(cards, Card{Rank: r, Suit: s})
		}
	}
	return cards
}
