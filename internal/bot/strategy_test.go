// internal/bot/strategy_test.go
package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alveaenerle/online-gaming-service-sub000/internal/models"
)

func card(r models.Rank, s models.Suit) models.Card {
	return models.Card{Rank: r, Suit: s}
}

func playingState(hand []models.Card) *models.GameState {
	s := models.NewGameState("room", []models.Participant{
		{ID: "bot-1", Bot: true},
		{ID: "alice"},
	})
	s.Status = models.StatusPlaying
	s.CurrentPlayer = "bot-1"
	s.Hands["bot-1"] = hand
	return s
}

func TestGreedyDrawsWhenNothingPlayable(t *testing.T) {
	g := NewGreedy()
	s := playingState([]models.Card{card(models.RankFive, models.SuitHearts)})

	mv := g.ChooseMove(s, "bot-1", nil)
	assert.Equal(t, ActionDraw, mv.Action)
}

func TestGreedyAcceptsChainWhenNothingPlayable(t *testing.T) {
	g := NewGreedy()
	s := playingState([]models.Card{card(models.RankFive, models.SuitHearts)})
	s.EffectActive = true
	s.PendingDraw = 4

	mv := g.ChooseMove(s, "bot-1", nil)
	assert.Equal(t, ActionAcceptEffect, mv.Action)
}

func TestGreedyShedsMostExpensiveCard(t *testing.T) {
	g := NewGreedy()
	hand := []models.Card{
		card(models.RankFive, models.SuitHearts),
		card(models.RankKing, models.SuitDiamonds),
		card(models.RankNine, models.SuitHearts),
	}
	s := playingState(hand)

	playable := []models.Card{
		card(models.RankFive, models.SuitHearts),
		card(models.RankKing, models.SuitDiamonds),
		card(models.RankNine, models.SuitHearts),
	}
	mv := g.ChooseMove(s, "bot-1", playable)
	require.Equal(t, ActionPlay, mv.Action)
	assert.Equal(t, card(models.RankKing, models.SuitDiamonds), mv.Card)
}

func TestGreedyHoldsQueenWhenCloseAlternativeExists(t *testing.T) {
	g := NewGreedy()
	hand := []models.Card{
		card(models.RankQueen, models.SuitHearts),
		card(models.RankTen, models.SuitHearts),
	}
	s := playingState(hand)

	mv := g.ChooseMove(s, "bot-1", hand)
	require.Equal(t, ActionPlay, mv.Action)
	assert.Equal(t, card(models.RankTen, models.SuitHearts), mv.Card,
		"queen scores 12-5=7, below the ten")
}

func TestGreedyJackDemandsMostHeldRank(t *testing.T) {
	g := NewGreedy()
	hand := []models.Card{
		card(models.RankJack, models.SuitHearts),
		card(models.RankSeven, models.SuitClubs),
		card(models.RankSeven, models.SuitDiamonds),
		card(models.RankFive, models.SuitSpades),
	}
	s := playingState(hand)

	mv := g.ChooseMove(s, "bot-1", []models.Card{card(models.RankJack, models.SuitHearts)})
	require.Equal(t, ActionPlay, mv.Action)
	assert.Equal(t, models.RankSeven, mv.DemandRank)
}

func TestGreedyJackDefaultsToFive(t *testing.T) {
	g := NewGreedy()
	hand := []models.Card{
		card(models.RankJack, models.SuitHearts),
		card(models.RankKing, models.SuitClubs),
	}
	s := playingState(hand)

	mv := g.ChooseMove(s, "bot-1", []models.Card{card(models.RankJack, models.SuitHearts)})
	require.Equal(t, ActionPlay, mv.Action)
	assert.Equal(t, models.RankFive, mv.DemandRank, "no demandable rank held")
}

func TestGreedyAceDemandsMostHeldSuit(t *testing.T) {
	g := NewGreedy()
	hand := []models.Card{
		card(models.RankAce, models.SuitHearts),
		card(models.RankSix, models.SuitSpades),
		card(models.RankNine, models.SuitSpades),
		card(models.RankTwo, models.SuitClubs),
	}
	s := playingState(hand)

	mv := g.ChooseMove(s, "bot-1", []models.Card{card(models.RankAce, models.SuitHearts)})
	require.Equal(t, ActionPlay, mv.Action)
	assert.Equal(t, models.SuitSpades, mv.DemandSuit)
}

func TestGreedyExtendsChainOverCheapCard(t *testing.T) {
	g := NewGreedy()
	hand := []models.Card{
		card(models.RankTwo, models.SuitClubs),
		card(models.RankThree, models.SuitSpades),
	}
	s := playingState(hand)
	s.EffectActive = true
	s.PendingDraw = 2

	mv := g.ChooseMove(s, "bot-1", hand)
	require.Equal(t, ActionPlay, mv.Action)
	assert.Equal(t, card(models.RankThree, models.SuitSpades), mv.Card,
		"prefer the heavier stacking card")
}
