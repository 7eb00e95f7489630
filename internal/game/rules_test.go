// internal/game/rules_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alveaenerle/online-gaming-service-sub000/internal/models"
)

func stateWithTop(top models.Card) *models.GameState {
	s := models.NewGameState("room-rules", []models.Participant{
		{ID: "alice"}, {ID: "bob"},
	})
	s.Status = models.StatusPlaying
	s.DiscardPile.Push(top)
	return s
}

func card(r models.Rank, su models.Suit) models.Card {
	return models.Card{Rank: r, Suit: su}
}

func TestIsPlayableStandardMatch(t *testing.T) {
	s := stateWithTop(card(models.RankSeven, models.SuitHearts))

	assert.True(t, IsPlayable(s, card(models.RankSeven, models.SuitClubs)), "rank match")
	assert.True(t, IsPlayable(s, card(models.RankNine, models.SuitHearts)), "suit match")
	assert.False(t, IsPlayable(s, card(models.RankNine, models.SuitClubs)), "no match")
}

func TestIsPlayableEmptyDiscard(t *testing.T) {
	s := models.NewGameState("room-rules", []models.Participant{{ID: "alice"}, {ID: "bob"}})
	assert.False(t, IsPlayable(s, card(models.RankSeven, models.SuitHearts)))
}

func TestIsPlayableDuringDrawChain(t *testing.T) {
	s := stateWithTop(card(models.RankTwo, models.SuitHearts))
	s.EffectActive = true
	s.PendingDraw = 2

	assert.True(t, IsPlayable(s, card(models.RankTwo, models.SuitClubs)))
	assert.True(t, IsPlayable(s, card(models.RankThree, models.SuitSpades)))
	assert.False(t, IsPlayable(s, card(models.RankSeven, models.SuitHearts)),
		"suit match is not enough against an active draw chain")
	assert.False(t, IsPlayable(s, card(models.RankFour, models.SuitHearts)),
		"skip cards do not answer a draw chain")
	assert.False(t, IsPlayable(s, card(models.RankQueen, models.SuitHearts)),
		"queens do not answer a draw chain")
}

func TestIsPlayableDuringSkipChain(t *testing.T) {
	s := stateWithTop(card(models.RankFour, models.SuitDiamonds))
	s.EffectActive = true
	s.PendingSkip = 1

	assert.True(t, IsPlayable(s, card(models.RankFour, models.SuitSpades)))
	assert.False(t, IsPlayable(s, card(models.RankTwo, models.SuitDiamonds)))
	assert.False(t, IsPlayable(s, card(models.RankNine, models.SuitDiamonds)))
}

func TestIsPlayableUnderRankDemand(t *testing.T) {
	s := stateWithTop(card(models.RankJack, models.SuitHearts))
	s.DemandedRank = models.RankSeven

	assert.True(t, IsPlayable(s, card(models.RankSeven, models.SuitClubs)), "demanded rank")
	assert.True(t, IsPlayable(s, card(models.RankJack, models.SuitSpades)), "jack answers a jack")
	assert.False(t, IsPlayable(s, card(models.RankNine, models.SuitHearts)),
		"suit match does not satisfy a rank demand")
	assert.False(t, IsPlayable(s, card(models.RankQueen, models.SuitHearts)))
}

func TestIsPlayableUnderSuitDemand(t *testing.T) {
	s := stateWithTop(card(models.RankAce, models.SuitHearts))
	s.DemandedSuit = models.SuitClubs

	assert.True(t, IsPlayable(s, card(models.RankSix, models.SuitClubs)), "demanded suit")
	assert.True(t, IsPlayable(s, card(models.RankAce, models.SuitDiamonds)), "ace answers an ace")
	assert.False(t, IsPlayable(s, card(models.RankSix, models.SuitHearts)),
		"matching the ace's own suit does not satisfy the demand")
}

func TestIsPlayableQueenRule(t *testing.T) {
	s := stateWithTop(card(models.RankSeven, models.SuitHearts))
	assert.True(t, IsPlayable(s, card(models.RankQueen, models.SuitClubs)),
		"a queen goes on any non-effect card")

	s = stateWithTop(card(models.RankQueen, models.SuitHearts))
	assert.True(t, IsPlayable(s, card(models.RankSix, models.SuitClubs)),
		"any non-effect card goes on a queen")
	assert.False(t, IsPlayable(s, card(models.RankTwo, models.SuitClubs)),
		"effect cards still need a regular match against a queen")
	assert.True(t, IsPlayable(s, card(models.RankTwo, models.SuitHearts)),
		"an effect card may match the queen's suit")

	s = stateWithTop(card(models.RankTwo, models.SuitHearts))
	assert.False(t, IsPlayable(s, card(models.RankQueen, models.SuitClubs)),
		"a queen does not go on an effect card without a match")
}

func TestKingsOnlyRedAndBlackSpecial(t *testing.T) {
	assert.True(t, card(models.RankKing, models.SuitHearts).HasEffect())
	assert.True(t, card(models.RankKing, models.SuitSpades).HasEffect())
	assert.False(t, card(models.RankKing, models.SuitDiamonds).HasEffect())
	assert.False(t, card(models.RankKing, models.SuitClubs).HasEffect())
}

func TestApplyEffectDrawChainAccumulates(t *testing.T) {
	s := stateWithTop(card(models.RankTwo, models.SuitHearts))

	ApplyEffect(s, card(models.RankTwo, models.SuitHearts), 0, 0)
	assert.True(t, s.EffectActive)
	assert.Equal(t, 2, s.PendingDraw)

	ApplyEffect(s, card(models.RankThree, models.SuitClubs), 0, 0)
	assert.True(t, s.EffectActive)
	assert.Equal(t, 5, s.PendingDraw, "stacked chains accumulate")
}

func TestApplyEffectClearsSupersededDemand(t *testing.T) {
	s := stateWithTop(card(models.RankJack, models.SuitHearts))
	ApplyEffect(s, card(models.RankJack, models.SuitHearts), models.RankSeven, 0)
	assert.Equal(t, models.RankSeven, s.DemandedRank)

	// A jack on a jack replaces the demand.
	ApplyEffect(s, card(models.RankJack, models.SuitClubs), models.RankTen, 0)
	assert.Equal(t, models.RankTen, s.DemandedRank)

	// A non-effect card clears it entirely.
	ApplyEffect(s, card(models.RankTen, models.SuitClubs), 0, 0)
	assert.Zero(t, s.DemandedRank)
	assert.False(t, s.EffectActive)
}

func TestApplyEffectSuitDemandAndKings(t *testing.T) {
	s := stateWithTop(card(models.RankAce, models.SuitHearts))
	ApplyEffect(s, card(models.RankAce, models.SuitHearts), 0, models.SuitSpades)
	assert.Equal(t, models.SuitSpades, s.DemandedSuit)

	ApplyEffect(s, card(models.RankKing, models.SuitHearts), 0, 0)
	assert.Zero(t, s.DemandedSuit, "king clears the suit demand")
	assert.True(t, s.Reversed)

	ApplyEffect(s, card(models.RankKing, models.SuitSpades), 0, 0)
	assert.False(t, s.Reversed, "second reversing king restores direction")

	ApplyEffect(s, card(models.RankKing, models.SuitClubs), 0, 0)
	assert.False(t, s.Reversed, "king of clubs has no effect")
}

func TestPlayableCardsPreservesHandOrder(t *testing.T) {
	s := stateWithTop(card(models.RankSeven, models.SuitHearts))
	s.Hands["alice"] = []models.Card{
		card(models.RankNine, models.SuitClubs),   // no
		card(models.RankSeven, models.SuitSpades), // yes
		card(models.RankFive, models.SuitHearts),  // yes
	}

	got := PlayableCards(s, "alice")
	assert.Equal(t, []models.Card{
		card(models.RankSeven, models.SuitSpades),
		card(models.RankFive, models.SuitHearts),
	}, got)
}

func TestHandScore(t *testing.T) {
	assert.Zero(t, HandScore(nil))
	assert.Equal(t, 2+12+14, HandScore([]models.Card{
		card(models.RankTwo, models.SuitHearts),
		card(models.RankQueen, models.SuitClubs),
		card(models.RankAce, models.SuitSpades),
	}))
}

func TestComputePlacement(t *testing.T) {
	placement := ComputePlacement(map[string]int{
		"alice": 10,
		"bob":   4,
		"carol": 10,
		"dave":  25,
	})
	assert.Equal(t, map[string]int{
		"bob":   1,
		"alice": 2,
		"carol": 2,
		"dave":  4,
	}, placement, "ties share a place and the next place is skipped")
}
