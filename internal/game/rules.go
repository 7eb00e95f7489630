// internal/game/rules.go
package game

import (
	"fmt"
	"sort"

	"github.com/Alveaenerle/online-gaming-service-sub000/internal/models"
)

// IsPlayable decides whether the card may legally be placed on the current
// card given the session's pending-effect state. Precedence: active chain,
// then rank demand, then suit demand, then the queen rule, then the standard
// rank-or-suit match.
func IsPlayable(s *models.GameState, c models.Card) bool {
	current, ok := s.CurrentCard()
	if !ok {
		return false
	}

	if s.EffectActive {
		switch current.Rank {
		case models.RankTwo, models.RankThree:
			// A draw chain can only be extended by another draw card.
			return c.Rank == models.RankTwo || c.Rank == models.RankThree
		case models.RankFour:
			return c.Rank == models.RankFour
		}
	}

	if s.DemandedRank != 0 {
		return c.Rank == s.DemandedRank || c.Rank == models.RankJack
	}

	if s.DemandedSuit != 0 {
		return c.Suit == s.DemandedSuit || c.Rank == models.RankAce
	}

	// Queens go on anything harmless, and anything harmless goes on a queen.
	if c.Rank == models.RankQueen && !current.HasEffect() {
		return true
	}
	if current.Rank == models.RankQueen && !c.HasEffect() {
		return true
	}

	return c.Rank == current.Rank || c.Suit == current.Suit
}

// PlayableCards returns every card in the participant's hand that IsPlayable
// accepts, in hand order.
func PlayableCards(s *models.GameState, playerID string) []models.Card {
	var out []models.Card
	for _, c := range s.Hands[playerID] {
		if IsPlayable(s, c) {
			out = append(out, c)
		}
	}
	return out
}

// ApplyEffect resolves the effect of a just-played card. The effect gates
// (chain flag, demands, notice) are cleared first so that at most one of
// them governs playability afterwards; the cumulative draw/skip counters
// survive the clear so stacked chains keep adding up.
func ApplyEffect(s *models.GameState, c models.Card, demandRank models.Rank, demandSuit models.Suit) {
	s.EffectActive = false
	s.DemandedRank = 0
	s.DemandedSuit = 0
	s.EffectNotice = ""

	switch c.Rank {
	case models.RankTwo:
		s.EffectActive = true
		s.PendingDraw += 2
		s.EffectNotice = fmt.Sprintf("draw chain raised to %d", s.PendingDraw)
	case models.RankThree:
		s.EffectActive = true
		s.PendingDraw += 3
		s.EffectNotice = fmt.Sprintf("draw chain raised to %d", s.PendingDraw)
	case models.RankFour:
		s.EffectActive = true
		s.PendingSkip++
		s.EffectNotice = fmt.Sprintf("skip chain raised to %d", s.PendingSkip)
	case models.RankJack:
		s.DemandedRank = demandRank
		s.EffectNotice = fmt.Sprintf("%ss demanded", demandRank)
	case models.RankAce:
		s.DemandedSuit = demandSuit
		s.EffectNotice = fmt.Sprintf("%s demanded", demandSuit)
	case models.RankKing:
		if c.Suit == models.SuitHearts || c.Suit == models.SuitSpades {
			s.Reversed = !s.Reversed
			s.EffectNotice = "direction reversed"
		}
	}
}

// HandScore is the pip sum of a hand.
func HandScore(hand []models.Card) int {
	sum := 0
	for _, c := range hand {
		sum += c.Pips()
	}
	return sum
}

// ComputePlacement turns a player->score ranking into player->place using
// standard competition ranking: players sort by ascending score and ties
// share the place of the first tied entry.
func ComputePlacement(ranking map[string]int) map[string]int {
	ids := make([]string, 0, len(ranking))
	for id := range ranking {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ranking[ids[i]] != ranking[ids[j]] {
			return ranking[ids[i]] < ranking[ids[j]]
		}
		return ids[i] < ids[j]
	})

	placement := make(map[string]int, len(ids))
	for i, id := range ids {
		if i > 0 && ranking[id] == ranking[ids[i-1]] {
			placement[id] = placement[ids[i-1]]
			continue
		}
		placement[id] = i + 1
	}
	return placement
}
