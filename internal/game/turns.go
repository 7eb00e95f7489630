// internal/game/turns.go
package game

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Alveaenerle/online-gaming-service-sub000/internal/bot"
	"github.com/Alveaenerle/online-gaming-service-sub000/internal/models"
)

// applyPlay executes a validated play: remove the card, update Makao status,
// then either end the game on an emptied hand or discard the card, resolve
// its effect, and advance the turn.
func (e *Engine) applyPlay(ctx context.Context, s *models.GameState, playerID string, req PlayRequest) error {
	if !s.RemoveCard(playerID, req.Card) {
		return fmt.Errorf("card %s vanished from hand: %w", req.Card, ErrInvalidMove)
	}

	text := "played " + req.Card.String()
	switch req.Card.Rank {
	case models.RankJack:
		text += fmt.Sprintf(", demanding %ss", req.DemandRank)
	case models.RankAce:
		text += fmt.Sprintf(", demanding %s", req.DemandSuit)
	}
	e.logMove(s, playerID, text)

	switch n := len(s.Hands[playerID]); {
	case n == 1:
		s.MakaoPlayer = playerID
	case s.MakaoPlayer == playerID:
		s.MakaoPlayer = ""
	}

	s.DiscardPile.Push(req.Card)
	if len(s.Hands[playerID]) == 0 {
		return e.endGame(ctx, s)
	}

	ApplyEffect(s, req.Card, req.DemandRank, req.DemandSuit)
	s.DrawnCard = nil
	s.Playable = nil
	e.advanceTurn(ctx, s)
	return nil
}

// applyChainPenalty consumes the pending draw/skip counters onto the player
// and zeroes the chain.
func (e *Engine) applyChainPenalty(s *models.GameState, playerID string) {
	if s.PendingDraw > 0 {
		drawn := 0
		for i := 0; i < s.PendingDraw; i++ {
			c, err := e.drawWithRecycle(s)
			if err != nil {
				e.log.WithField("room", s.RoomID).Warnf("chain penalty short %d card(s): %v", s.PendingDraw-drawn, err)
				break
			}
			s.Hands[playerID] = append(s.Hands[playerID], c)
			drawn++
		}
		e.logMove(s, playerID, fmt.Sprintf("drew %d penalty card(s)", drawn))
	}
	if s.PendingSkip > 0 {
		s.SkipTurns[playerID] += s.PendingSkip
		e.logMove(s, playerID, fmt.Sprintf("must sit out %d turn(s)", s.PendingSkip))
	}
	if s.MakaoPlayer == playerID && len(s.Hands[playerID]) != 1 {
		s.MakaoPlayer = ""
	}
	s.ClearPendingEffects()
}

// advanceTurn walks the participant order in the active direction to find the
// next player able to act, applying skip decrements and chain penalties along
// the way. The walk is bounded by 2x the participant count so corrupted state
// cannot spin forever.
func (e *Engine) advanceTurn(ctx context.Context, s *models.GameState) {
	if s.Status != models.StatusPlaying {
		return
	}
	if s.AllBots() {
		e.log.WithField("room", s.RoomID).Info("only bots remain, ending game")
		if err := e.endGame(ctx, s); err != nil {
			e.log.WithError(err).WithField("room", s.RoomID).Error("failed to end all-bot game")
		}
		return
	}

	n := len(s.Order)
	idx := s.IndexOf(s.CurrentPlayer)
	if idx < 0 {
		idx = 0
	}
	for hops := 0; hops < 2*n; hops++ {
		idx = e.nextIndex(s, idx)
		cand := s.Order[idx]

		if s.SkipTurns[cand.ID] > 0 {
			s.SkipTurns[cand.ID]--
			e.logMove(s, cand.ID, "sits out a turn")
			continue
		}

		playable := PlayableCards(s, cand.ID)
		if len(playable) == 0 && s.EffectActive {
			// The chain lands on whoever cannot answer it. With the chain
			// zeroed, re-walk from the unchanged current seat so the
			// penalized player gets their now-unblocked turn (or burns a
			// sit-out from a skip chain). Recursion is single-level: the
			// penalty clears EffectActive.
			e.applyChainPenalty(s, cand.ID)
			e.advanceTurn(ctx, s)
			return
		}

		s.CurrentPlayer = cand.ID
		s.DrawnCard = nil
		s.Playable = playable
		if cand.Bot {
			e.scheduleBotTurn(s)
		} else {
			e.startHumanTurn(s)
		}
		return
	}

	e.log.WithField("room", s.RoomID).Error("turn advancement exceeded hop bound, ending game")
	if err := e.endGame(ctx, s); err != nil {
		e.log.WithError(err).WithField("room", s.RoomID).Error("failed to end game after hop bound")
	}
}

// nextIndex steps one seat in the active direction.
func (e *Engine) nextIndex(s *models.GameState, idx int) int {
	n := len(s.Order)
	if s.Reversed {
		return (idx - 1 + n) % n
	}
	return (idx + 1) % n
}

// startHumanTurn arms the turn timer for the active human and stamps the
// wall-clock start used for remaining-seconds math.
func (e *Engine) startHumanTurn(s *models.GameState) {
	s.ThinkingBot = ""
	s.TurnStartedAt = time.Now()
	roomID, playerID := s.RoomID, s.CurrentPlayer
	e.sched.CancelBotMove(roomID)
	e.sched.StartTurnTimer(roomID, func() {
		e.handleTurnTimeout(roomID, playerID)
	})
}

// scheduleBotTurn marks the bot as thinking (persisted, so humans see it) and
// arms the delayed bot move.
func (e *Engine) scheduleBotTurn(s *models.GameState) {
	s.ThinkingBot = s.CurrentPlayer
	s.TurnStartedAt = time.Time{}
	roomID, botID := s.RoomID, s.CurrentPlayer
	e.sched.CancelTurnTimer(roomID)
	e.sched.ScheduleBotMove(roomID, func() {
		e.executeBotMove(roomID, botID)
	})
}

// executeBotMove is the bot-move callback. It tolerates state drift since
// scheduling: the session is re-loaded fresh, and the move is abandoned
// unless the named bot is still the active player. The in-flight guard keeps
// at most one bot move executing per room.
func (e *Engine) executeBotMove(roomID, botID string) {
	if !e.sched.TryBeginBotMove(roomID) {
		return
	}
	defer e.sched.EndBotMove(roomID)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	unlock := e.lockRoom(roomID)
	defer unlock()

	s, err := e.store.LoadSession(ctx, roomID)
	if err != nil {
		e.log.WithError(err).WithField("room", roomID).Debug("bot move: session gone")
		return
	}
	if s.Status != models.StatusPlaying || s.CurrentPlayer != botID || !s.IsBot(botID) {
		return
	}

	playable := PlayableCards(s, botID)
	mv := e.strategy.ChooseMove(s, botID, playable)

	switch mv.Action {
	case bot.ActionAcceptEffect:
		e.applyChainPenalty(s, botID)
		e.advanceTurn(ctx, s)
	case bot.ActionDraw:
		c, err := e.drawWithRecycle(s)
		if err != nil {
			e.log.WithError(err).WithField("room", roomID).Warn("bot could not draw")
			e.advanceTurn(ctx, s)
			break
		}
		s.Hands[botID] = append(s.Hands[botID], c)
		e.logMove(s, botID, "drew a card")
		if IsPlayable(s, c) {
			follow := e.strategy.ChooseMove(s, botID, []models.Card{c})
			if err := e.applyPlay(ctx, s, botID, PlayRequest{
				Card:       c,
				DemandRank: follow.DemandRank,
				DemandSuit: follow.DemandSuit,
			}); err != nil {
				e.log.WithError(err).WithField("room", roomID).Error("bot failed to play drawn card")
				e.advanceTurn(ctx, s)
			}
		} else {
			e.advanceTurn(ctx, s)
		}
	case bot.ActionPlay:
		if err := e.applyPlay(ctx, s, botID, PlayRequest{
			Card:       mv.Card,
			DemandRank: mv.DemandRank,
			DemandSuit: mv.DemandSuit,
		}); err != nil {
			e.log.WithError(err).WithField("room", roomID).Error("bot move rejected")
			e.advanceTurn(ctx, s)
		}
	}

	if s.ThinkingBot == botID {
		s.ThinkingBot = ""
	}
	if err := e.finishOp(ctx, s); err != nil {
		e.log.WithError(err).WithField("room", roomID).Error("failed to persist bot move")
	}
}

// handleTurnTimeout fires when a human's turn budget elapses. After loading
// fresh state it re-checks that the named player is still present and still
// the active player; anything else means the timer raced an action and the
// callback is a safe no-op.
func (e *Engine) handleTurnTimeout(roomID, playerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	unlock := e.lockRoom(roomID)
	defer unlock()

	s, err := e.store.LoadSession(ctx, roomID)
	if err != nil {
		e.log.WithError(err).WithField("room", roomID).Debug("timeout: session gone")
		return
	}
	p, ok := s.ParticipantByID(playerID)
	if s.Status != models.StatusPlaying || !ok || p.Bot || s.CurrentPlayer != playerID {
		return
	}

	e.log.WithFields(logrus.Fields{"room": roomID, "player": playerID}).Info("turn timed out, substituting bot")
	e.substituteWithBot(ctx, s, playerID, "timed out")

	if e.bcast != nil {
		e.bcast.NotifyRemoved(playerID, "removed after turn timer expired")
	}
	if err := e.rooms.ClearRoom(ctx, playerID); err != nil {
		e.log.WithError(err).WithField("player", playerID).Warn("failed to clear room mapping")
	}
	if err := e.finishOp(ctx, s); err != nil {
		e.log.WithError(err).WithField("room", roomID).Error("failed to persist timeout substitution")
	}
}

// substituteWithBot atomically moves a departing human's hand, skip count,
// username/avatar mapping, and seat to a freshly minted bot. Shared by the
// leave and timeout paths. Returns the bot id.
func (e *Engine) substituteWithBot(ctx context.Context, s *models.GameState, playerID, reason string) string {
	botID := s.MintBotID()
	idx := s.IndexOf(playerID)
	if idx < 0 {
		return ""
	}

	s.Order[idx] = models.Participant{ID: botID, Bot: true}
	s.Hands[botID] = s.Hands[playerID]
	delete(s.Hands, playerID)
	if n, ok := s.SkipTurns[playerID]; ok {
		s.SkipTurns[botID] = n
		delete(s.SkipTurns, playerID)
	}
	s.Usernames[botID] = s.Usernames[playerID]
	delete(s.Usernames, playerID)
	s.Avatars[botID] = s.Avatars[playerID]
	delete(s.Avatars, playerID)

	s.Losers = append(s.Losers, playerID)
	if s.MakaoPlayer == playerID {
		s.MakaoPlayer = ""
	}
	e.logMove(s, botID, reason+", a bot takes over")

	if s.AllBots() {
		if err := e.endGame(ctx, s); err != nil {
			e.log.WithError(err).WithField("room", s.RoomID).Error("failed to end all-bot game")
		}
		return botID
	}

	if s.CurrentPlayer == playerID {
		// The bot inherits the turn in place.
		s.CurrentPlayer = botID
		s.DrawnCard = nil
		s.Playable = PlayableCards(s, botID)
		e.sched.CancelTurnTimer(s.RoomID)
		if len(s.Playable) == 0 && s.EffectActive {
			// The penalized seat keeps the turn once the chain is zeroed.
			e.applyChainPenalty(s, botID)
			s.Playable = PlayableCards(s, botID)
		}
		e.scheduleBotTurn(s)
	}
	return botID
}

// endGame finalizes a session: cancel both scheduler slots, compute ranking
// and placement, clear human room mappings, persist the result record (warn
// and skip without a result id), publish terminal views and the finish event,
// and delete the live session.
func (e *Engine) endGame(ctx context.Context, s *models.GameState) error {
	if s.Status == models.StatusFinished {
		return nil
	}
	roomID := s.RoomID
	e.sched.CancelRoom(roomID)

	s.Status = models.StatusFinished
	s.CurrentPlayer = ""
	s.DrawnCard = nil
	s.Playable = nil
	s.ThinkingBot = ""
	s.TurnStartedAt = time.Time{}
	s.TurnRemaining = nil
	s.ClearPendingEffects()

	s.Ranking = make(map[string]int, len(s.Order))
	for _, p := range s.Order {
		s.Ranking[p.ID] = HandScore(s.Hands[p.ID])
	}
	s.Placement = ComputePlacement(s.Ranking)

	for _, p := range s.Order {
		if p.Bot {
			continue
		}
		if err := e.rooms.ClearRoom(ctx, p.ID); err != nil {
			e.log.WithError(err).WithField("player", p.ID).Warn("failed to clear room mapping at game end")
		}
	}

	if e.results != nil {
		if s.ResultID == "" {
			e.log.WithField("room", roomID).Warn("no result id on session, skipping result persistence")
		} else if err := e.results.RecordResult(ctx, s.ResultID, roomID, s.Ranking, s.Placement); err != nil {
			e.log.WithError(err).WithField("room", roomID).Warn("failed to persist game result")
		}
	}

	e.publishViews(s)
	if e.finish != nil {
		if err := e.finish.PublishFinish(ctx, roomID, s.Status); err != nil {
			e.log.WithError(err).WithField("room", roomID).Warn("failed to publish finish event")
		}
	}
	if err := e.store.DeleteSession(ctx, roomID); err != nil {
		return fmt.Errorf("deleting finished session for room %s: %w", roomID, err)
	}
	e.log.WithFields(logrus.Fields{"room": roomID, "placement": s.Placement}).Info("game finished")
	return nil
}
