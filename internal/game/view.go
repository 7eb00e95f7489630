// internal/game/view.go
package game

import (
	"github.com/Alveaenerle/online-gaming-service-sub000/internal/models"
)

// ViewCard is a card as a viewer sees it. Playable is the card's own
// playability and is only set on the viewer's cards during their turn.
type ViewCard struct {
	Rank     string `json:"rank"`
	Suit     string `json:"suit"`
	Playable bool   `json:"playable"`
}

// ViewParticipant is one seat as seen from outside: hand size only, never the
// cards themselves.
type ViewParticipant struct {
	ID        string `json:"id"`
	Bot       bool   `json:"bot"`
	Username  string `json:"username"`
	Avatar    string `json:"avatar,omitempty"`
	HandSize  int    `json:"handSize"`
	SkipTurns int    `json:"skipTurns"`
	IsCurrent bool   `json:"isCurrent"`
	HasMakao  bool   `json:"hasMakao"`
}

// PlayerView is the filtered projection of a session for one player. Other
// hands are hidden; the viewer sees their own cards with playability flags.
type PlayerView struct {
	RoomID string        `json:"roomId"`
	Status models.Status `json:"status"`
	You    string        `json:"you"`

	Hand      []ViewCard `json:"hand"`
	DrawnCard *ViewCard  `json:"drawnCard,omitempty"`

	Participants  []ViewParticipant `json:"participants"`
	CurrentCard   *ViewCard         `json:"currentCard,omitempty"`
	CurrentPlayer string            `json:"currentPlayer,omitempty"`
	Reversed      bool              `json:"reversed"`
	DrawPileSize  int               `json:"drawPileSize"`
	DiscardSize   int               `json:"discardSize"`

	EffectActive bool   `json:"effectActive"`
	PendingDraw  int    `json:"pendingDraw"`
	PendingSkip  int    `json:"pendingSkip"`
	DemandedRank string `json:"demandedRank,omitempty"`
	DemandedSuit string `json:"demandedSuit,omitempty"`

	TurnRemaining *int   `json:"turnRemaining,omitempty"`
	ThinkingBot   string `json:"thinkingBot,omitempty"`
	LastMove      string `json:"lastMove,omitempty"`
	EffectNotice  string `json:"effectNotice,omitempty"`

	Losers    []string       `json:"losers,omitempty"`
	Ranking   map[string]int `json:"ranking,omitempty"`
	Placement map[string]int `json:"placement,omitempty"`
}

// NewPlayerView builds the projection of s for one viewer. remaining is the
// derived turn clock, nil whenever no human timer runs.
func NewPlayerView(s *models.GameState, viewerID string, remaining *int) *PlayerView {
	v := &PlayerView{
		RoomID:        s.RoomID,
		Status:        s.Status,
		You:           viewerID,
		Reversed:      s.Reversed,
		CurrentPlayer: s.CurrentPlayer,
		DrawPileSize:  s.DrawPile.Size(),
		DiscardSize:   s.DiscardPile.Size(),
		EffectActive:  s.EffectActive,
		PendingDraw:   s.PendingDraw,
		PendingSkip:   s.PendingSkip,
		TurnRemaining: remaining,
		ThinkingBot:   s.ThinkingBot,
		LastMove:      s.LastMove,
		EffectNotice:  s.EffectNotice,
		Losers:        s.Losers,
		Ranking:       s.Ranking,
		Placement:     s.Placement,
	}
	if s.DemandedRank != 0 {
		v.DemandedRank = s.DemandedRank.String()
	}
	if s.DemandedSuit != 0 {
		v.DemandedSuit = s.DemandedSuit.String()
	}
	if top, ok := s.CurrentCard(); ok {
		v.CurrentCard = &ViewCard{Rank: top.Rank.String(), Suit: top.Suit.String()}
	}

	isViewerTurn := s.CurrentPlayer == viewerID
	for _, c := range s.Hands[viewerID] {
		vc := ViewCard{Rank: c.Rank.String(), Suit: c.Suit.String()}
		if isViewerTurn {
			vc.Playable = viewerCanPlay(s, c)
		}
		v.Hand = append(v.Hand, vc)
	}
	if isViewerTurn && s.DrawnCard != nil {
		v.DrawnCard = &ViewCard{
			Rank:     s.DrawnCard.Rank.String(),
			Suit:     s.DrawnCard.Suit.String(),
			Playable: true,
		}
	}

	for _, p := range s.Order {
		v.Participants = append(v.Participants, ViewParticipant{
			ID:        p.ID,
			Bot:       p.Bot,
			Username:  s.Usernames[p.ID],
			Avatar:    s.Avatars[p.ID],
			HandSize:  len(s.Hands[p.ID]),
			SkipTurns: s.SkipTurns[p.ID],
			IsCurrent: p.ID == s.CurrentPlayer,
			HasMakao:  p.ID == s.MakaoPlayer,
		})
	}
	return v
}

// viewerCanPlay consults the cached playable set when present; after a draw
// the cache narrows to the drawn card alone.
func viewerCanPlay(s *models.GameState, c models.Card) bool {
	if s.Playable == nil {
		return IsPlayable(s, c)
	}
	for _, p := range s.Playable {
		if p == c {
			return true
		}
	}
	return false
}
