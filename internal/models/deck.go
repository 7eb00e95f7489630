// internal/models/deck.go
package models

import (
	"math/rand"
	"time"
)

// Deck is an ordered pile of cards. The last element is the top of the pile,
// so the discard pile's current card is always Peek().
type Deck struct {
	Cards []Card `json:"cards"`
}

// Push appends a card to the top of the pile.
func (d *Deck) Push(c Card) {
	d.Cards = append(d.Cards, c)
}

// PushBottom inserts a card beneath the pile.
func (d *Deck) PushBottom(c Card) {
	d.Cards = append([]Card{c}, d.Cards...)
}

// Draw removes and returns the top card. The second return is false when the
// pile is empty; callers decide the recycle policy.
func (d *Deck) Draw() (Card, bool) {
	if len(d.Cards) == 0 {
		return Card{}, false
	}
	top := d.Cards[len(d.Cards)-1]
	d.Cards = d.Cards[:len(d.Cards)-1]
	return top, true
}

// Peek returns the top card without removing it.
func (d *Deck) Peek() (Card, bool) {
	if len(d.Cards) == 0 {
		return Card{}, false
	}
	return d.Cards[len(d.Cards)-1], true
}

// Size returns the number of cards in the pile.
func (d *Deck) Size() int {
	return len(d.Cards)
}

// Clear removes all cards from the pile.
func (d *Deck) Clear() {
	d.Cards = nil
}

// Shuffle applies a uniform random permutation seeded from wall-clock time.
func (d *Deck) Shuffle() {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}
