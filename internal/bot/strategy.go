// internal/bot/strategy.go
package bot

import (
	"sort"

	"github.com/Alveaenerle/online-gaming-service-sub000/internal/models"
)

// Action is the kind of move a strategy decided on.
type Action int

const (
	// ActionPlay plays Move.Card (with the demand payload when required).
	ActionPlay Action = iota
	// ActionDraw draws one card and lets the engine resolve playability.
	ActionDraw
	// ActionAcceptEffect consumes the pending chain counters.
	ActionAcceptEffect
)

// Move is the decision made by a strategy.
type Move struct {
	Action     Action
	Card       models.Card
	DemandRank models.Rank
	DemandSuit models.Suit
}

// Strategy decides a computer-controlled participant's move. Implementations
// must be pure with respect to the session: they read state, they never
// mutate it.
type Strategy interface {
	ChooseMove(s *models.GameState, playerID string, playable []models.Card) Move
}

// Greedy is the default strategy: shed the most expensive playable card,
// extend chains when possible, and demand whatever the hand holds most of.
type Greedy struct{}

// NewGreedy returns the default bot strategy.
func NewGreedy() *Greedy {
	return &Greedy{}
}

// ChooseMove picks the highest-scoring playable card, or falls back to
// accepting the pending effect / drawing when nothing is playable.
func (g *Greedy) ChooseMove(s *models.GameState, playerID string, playable []models.Card) Move {
	if len(playable) == 0 {
		if s.EffectActive || s.PendingDraw > 0 || s.PendingSkip > 0 {
			return Move{Action: ActionAcceptEffect}
		}
		return Move{Action: ActionDraw}
	}

	hand := s.Hands[playerID]
	scored := make([]models.Card, len(playable))
	copy(scored, playable)
	sort.Slice(scored, func(i, j int) bool {
		return g.score(s, scored[i]) > g.score(s, scored[j])
	})

	best := scored[0]
	mv := Move{Action: ActionPlay, Card: best}
	switch best.Rank {
	case models.RankJack:
		mv.DemandRank = mostHeldDemandableRank(hand, best)
	case models.RankAce:
		mv.DemandSuit = mostHeldSuit(hand, best)
	}
	return mv
}

// score ranks a candidate card. Chain extensions come first so the bot never
// eats a penalty it could pass on, then expensive cards to shed points.
func (g *Greedy) score(s *models.GameState, c models.Card) int {
	score := c.Pips()
	if s.EffectActive {
		// Everything playable during a chain extends it; prefer the
		// heavier stacking card.
		score += 100
	}
	if c.Rank == models.RankQueen {
		// Queens are universal outs; hold them a little longer.
		score -= 5
	}
	return score
}

// mostHeldDemandableRank picks the demandable rank (FIVE..TEN) the hand holds
// most copies of, excluding the jack being played. Defaults to FIVE when the
// hand has none.
func mostHeldDemandableRank(hand []models.Card, played models.Card) models.Rank {
	counts := make(map[models.Rank]int)
	for _, c := range hand {
		if c == played {
			continue
		}
		if c.Rank.Demandable() {
			counts[c.Rank]++
		}
	}
	best := models.RankFive
	bestCount := 0
	for r := models.RankFive; r <= models.RankTen; r++ {
		if counts[r] > bestCount {
			best = r
			bestCount = counts[r]
		}
	}
	return best
}

// mostHeldSuit picks the suit the hand holds most of, excluding the ace being
// played. Defaults to hearts for an otherwise empty hand.
func mostHeldSuit(hand []models.Card, played models.Card) models.Suit {
	counts := make(map[models.Suit]int)
	for _, c := range hand {
		if c == played {
			continue
		}
		counts[c.Suit]++
	}
	best := models.SuitHearts
	bestCount := 0
	for s := models.SuitHearts; s <= models.SuitSpades; s++ {
		if counts[s] > bestCount {
			best = s
			bestCount = counts[s]
		}
	}
	return best
}
