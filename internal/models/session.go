// internal/models/session.go
package models

import (
	"fmt"
	"time"
)

// Status is the one-way session lifecycle.
type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusPlaying  Status = "PLAYING"
	StatusFinished Status = "FINISHED"
)

// Participant is an entry in the turn order. Bots are tagged explicitly
// rather than inferred from the shape of the id.
type Participant struct {
	ID  string `json:"id"`
	Bot bool   `json:"bot"`
}

// MoveEntry is one line of the session's move log.
type MoveEntry struct {
	PlayerID string    `json:"playerId"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}

// GameState is the aggregate root for one room's Makao session. It is
// persisted as a whole and mutated exclusively through engine operations.
type GameState struct {
	RoomID   string `json:"roomId"`
	ResultID string `json:"resultId,omitempty"`

	// Participants. Order, Hands, Usernames, Avatars, and SkipTurns share
	// the same key set except during the atomic bot substitution.
	Order      []Participant     `json:"order"`
	BotCounter int               `json:"botCounter"`
	Hands      map[string][]Card `json:"hands"`
	Usernames  map[string]string `json:"usernames"`
	Avatars    map[string]string `json:"avatars"`
	SkipTurns  map[string]int    `json:"skipTurns"`

	// Shared piles. The discard pile's top card is the current card.
	DrawPile    Deck `json:"drawPile"`
	DiscardPile Deck `json:"discardPile"`

	// Turn state.
	CurrentPlayer string    `json:"currentPlayer"`
	Reversed      bool      `json:"reversed"`
	DrawnCard     *Card     `json:"drawnCard,omitempty"`
	Playable      []Card    `json:"playable,omitempty"`
	TurnStartedAt time.Time `json:"turnStartedAt,omitempty"`
	TurnRemaining *int      `json:"turnRemaining,omitempty"`

	// Pending effect state. At most one of {EffectActive, DemandedRank,
	// DemandedSuit} governs playability at a time.
	EffectActive bool `json:"effectActive"`
	PendingDraw  int  `json:"pendingDraw"`
	PendingSkip  int  `json:"pendingSkip"`
	DemandedRank Rank `json:"demandedRank,omitempty"`
	DemandedSuit Suit `json:"demandedSuit,omitempty"`

	// Progress and history.
	MoveLog      []MoveEntry    `json:"moveLog,omitempty"`
	LastMove     string         `json:"lastMove,omitempty"`
	EffectNotice string         `json:"effectNotice,omitempty"`
	MakaoPlayer  string         `json:"makaoPlayer,omitempty"`
	ThinkingBot  string         `json:"thinkingBot,omitempty"`
	Losers       []string       `json:"losers,omitempty"`
	Ranking      map[string]int `json:"ranking,omitempty"`
	Placement    map[string]int `json:"placement,omitempty"`

	Status Status `json:"status"`
}

// NewGameState builds a WAITING session for the given room and seating order.
func NewGameState(roomID string, order []Participant) *GameState {
	s := &GameState{
		RoomID:    roomID,
		Order:     order,
		Hands:     make(map[string][]Card),
		Usernames: make(map[string]string),
		Avatars:   make(map[string]string),
		SkipTurns: make(map[string]int),
		Status:    StatusWaiting,
	}
	for _, p := range order {
		s.Hands[p.ID] = nil
	}
	return s
}

// CurrentCard returns the top of the discard pile.
func (s *GameState) CurrentCard() (Card, bool) {
	return s.DiscardPile.Peek()
}

// ParticipantByID finds a participant in the turn order.
func (s *GameState) ParticipantByID(id string) (Participant, bool) {
	for _, p := range s.Order {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// IndexOf returns the seat index of a participant, or -1.
func (s *GameState) IndexOf(id string) int {
	for i, p := range s.Order {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// IsBot reports whether the given participant id is a bot.
func (s *GameState) IsBot(id string) bool {
	p, ok := s.ParticipantByID(id)
	return ok && p.Bot
}

// AllBots reports whether every remaining participant is computer-controlled.
func (s *GameState) AllBots() bool {
	for _, p := range s.Order {
		if !p.Bot {
			return false
		}
	}
	return len(s.Order) > 0
}

// Hand returns the hand of the given participant.
func (s *GameState) Hand(id string) []Card {
	return s.Hands[id]
}

// HoldsCard reports whether the participant holds the exact card.
func (s *GameState) HoldsCard(id string, c Card) bool {
	for _, h := range s.Hands[id] {
		if h == c {
			return true
		}
	}
	return false
}

// RemoveCard removes one copy of the exact card from the participant's hand.
// Returns false if the card is not held.
func (s *GameState) RemoveCard(id string, c Card) bool {
	hand := s.Hands[id]
	for i, h := range hand {
		if h == c {
			s.Hands[id] = append(hand[:i:i], hand[i+1:]...)
			return true
		}
	}
	return false
}

// ClearPendingEffects resets the chain and demand state together with the
// effect notice. Exactly this set must be cleared before any new effect is
// applied so the exclusivity invariant holds.
func (s *GameState) ClearPendingEffects() {
	s.EffectActive = false
	s.PendingDraw = 0
	s.PendingSkip = 0
	s.DemandedRank = 0
	s.DemandedSuit = 0
	s.EffectNotice = ""
}

// CardCount is the total number of cards across piles and hands. The drawn
// card is already counted in its owner's hand. Constant for the lifetime of
// a session.
func (s *GameState) CardCount() int {
	n := s.DrawPile.Size() + s.DiscardPile.Size()
	for _, h := range s.Hands {
		n += len(h)
	}
	return n
}

// MintBotID allocates the next synthetic bot id for this session.
func (s *GameState) MintBotID() string {
	s.BotCounter++
	return fmt.Sprintf("bot-%d", s.BotCounter)
}
