// internal/game/engine.go
package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Alveaenerle/online-gaming-service-sub000/internal/bot"
	"github.com/Alveaenerle/online-gaming-service-sub000/internal/config"
	"github.com/Alveaenerle/online-gaming-service-sub000/internal/models"
)

// opTimeout bounds the context of scheduler-initiated operations.
const opTimeout = 10 * time.Second

// SessionStore is the persistence gateway. Load must wrap ErrSessionNotFound
// when no session exists for the room, and the store must be read-after-write
// consistent for a single room from a single process.
type SessionStore interface {
	LoadSession(ctx context.Context, roomID string) (*models.GameState, error)
	SaveSession(ctx context.Context, s *models.GameState) error
	DeleteSession(ctx context.Context, roomID string) error
}

// RoomDirectory maps a user to the room they are currently playing in.
type RoomDirectory interface {
	// RoomFor returns "" when the user has no room mapping.
	RoomFor(ctx context.Context, userID string) (string, error)
	ClearRoom(ctx context.Context, userID string) error
}

// Broadcaster delivers per-player filtered views. Implementations log their
// own failures; publishing is fire-and-forget and never fails an operation.
type Broadcaster interface {
	PublishToPlayer(playerID string, view *PlayerView)
	// NotifyRemoved tells a single player they were removed from the game,
	// distinct from the general per-room broadcast.
	NotifyRemoved(playerID, reason string)
}

// FinishPublisher emits a terminal event to the external event stream so
// collaborating services can tear down invites, lobbies, etc.
type FinishPublisher interface {
	PublishFinish(ctx context.Context, roomID string, status models.Status) error
}

// MoveRecord is one accepted move, pushed to the external historian queue.
type MoveRecord struct {
	RoomID    string `json:"room_id"`
	MoveIndex int    `json:"move_index"`
	PlayerID  string `json:"player_id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// MoveSink receives move records. Push failures are logged, never fatal.
type MoveSink interface {
	PushMoveRecord(ctx context.Context, rec MoveRecord) error
}

// ResultRecorder persists the final ranking/placement of a finished session.
type ResultRecorder interface {
	RecordResult(ctx context.Context, resultID, roomID string, ranking, placement map[string]int) error
}

// PlayRequest carries a play action: the exact card, plus the demand payload
// required for jacks (rank, FIVE..TEN only) and aces (suit).
type PlayRequest struct {
	Card       models.Card `json:"card"`
	DemandRank models.Rank `json:"demandRank,omitempty"`
	DemandSuit models.Suit `json:"demandSuit,omitempty"`
}

// Deps bundles the engine's collaborators. Finish, Moves, and Results may be
// nil; the engine degrades to warnings for those paths.
type Deps struct {
	Store       SessionStore
	Rooms       RoomDirectory
	Broadcaster Broadcaster
	Finish      FinishPublisher
	Moves       MoveSink
	Results     ResultRecorder
	Strategy    bot.Strategy
	Logger      logrus.FieldLogger
}

// Engine is the authoritative Makao rules engine. It has no goroutines of its
// own: callers invoke it synchronously, and the scheduler re-enters it from
// timer callbacks. Every operation runs load -> validate -> mutate -> save
// under the room's mutex, so each room has a single writer.
type Engine struct {
	cfg      config.Engine
	store    SessionStore
	rooms    RoomDirectory
	bcast    Broadcaster
	finish   FinishPublisher
	moves    MoveSink
	results  ResultRecorder
	strategy bot.Strategy
	sched    *Scheduler
	log      logrus.FieldLogger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewEngine wires an engine from its collaborators.
func NewEngine(cfg config.Engine, d Deps) *Engine {
	if d.Strategy == nil {
		d.Strategy = bot.NewGreedy()
	}
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	return &Engine{
		cfg:      cfg,
		store:    d.Store,
		rooms:    d.Rooms,
		bcast:    d.Broadcaster,
		finish:   d.Finish,
		moves:    d.Moves,
		results:  d.Results,
		strategy: d.Strategy,
		sched:    NewScheduler(cfg),
		log:      d.Logger,
	}
}

// Scheduler exposes the engine's scheduler, mainly for tests.
func (e *Engine) Scheduler() *Scheduler {
	return e.sched
}

// lockRoom serializes all mutation for one room. The returned func releases
// the lock.
func (e *Engine) lockRoom(roomID string) func() {
	e.locksMu.Lock()
	if e.locks == nil {
		e.locks = make(map[string]*sync.Mutex)
	}
	mu, ok := e.locks[roomID]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[roomID] = mu
	}
	e.locksMu.Unlock()
	mu.Lock()
	return mu.Unlock
}

// roomFor resolves the caller's room, mapping missing identity and missing
// mapping onto the error taxonomy.
func (e *Engine) roomFor(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrNotAuthenticated
	}
	roomID, err := e.rooms.RoomFor(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolving room for user %s: %w", userID, err)
	}
	if roomID == "" {
		return "", fmt.Errorf("user %s has no room: %w", userID, ErrSessionNotFound)
	}
	return roomID, nil
}

// requireActive runs the checks shared by all turn-scoped operations.
func requireActive(s *models.GameState, userID string) error {
	if s.Status != models.StatusPlaying {
		return fmt.Errorf("session is %s: %w", s.Status, ErrTurnViolation)
	}
	if s.CurrentPlayer != userID {
		return fmt.Errorf("not the active player: %w", ErrTurnViolation)
	}
	return nil
}

// DrawCard draws one card for the active player. The turn is kept when the
// drawn card is playable (it becomes the sole playable option); otherwise the
// turn is lost and play advances.
func (e *Engine) DrawCard(ctx context.Context, userID string) error {
	roomID, err := e.roomFor(ctx, userID)
	if err != nil {
		return err
	}
	unlock := e.lockRoom(roomID)
	defer unlock()

	s, err := e.store.LoadSession(ctx, roomID)
	if err != nil {
		return err
	}
	if err := requireActive(s, userID); err != nil {
		return err
	}
	if s.DrawnCard != nil {
		return fmt.Errorf("already drew this turn: %w", ErrTurnViolation)
	}
	if s.EffectActive {
		return fmt.Errorf("pending chain must be answered, not drawn through: %w", ErrTurnViolation)
	}

	c, err := e.drawWithRecycle(s)
	if err != nil {
		return err
	}
	s.Hands[userID] = append(s.Hands[userID], c)
	e.logMove(s, userID, "drew a card")

	if IsPlayable(s, c) {
		drawn := c
		s.DrawnCard = &drawn
		s.Playable = []models.Card{c}
		// Drawing a playable card does not consume the turn.
		e.startHumanTurn(s)
	} else {
		s.DrawnCard = nil
		s.Playable = nil
		e.advanceTurn(ctx, s)
	}
	return e.finishOp(ctx, s)
}

// PlayCard validates and applies a play of an exact card from the caller's
// hand.
func (e *Engine) PlayCard(ctx context.Context, userID string, req PlayRequest) error {
	roomID, err := e.roomFor(ctx, userID)
	if err != nil {
		return err
	}
	unlock := e.lockRoom(roomID)
	defer unlock()

	s, err := e.store.LoadSession(ctx, roomID)
	if err != nil {
		return err
	}
	if err := requireActive(s, userID); err != nil {
		return err
	}
	if err := e.validatePlay(s, userID, req); err != nil {
		return err
	}
	if err := e.applyPlay(ctx, s, userID, req); err != nil {
		return err
	}
	return e.finishOp(ctx, s)
}

// PlayDrawnCard plays the card drawn earlier this turn. The drawn-card marker
// is cleared before threading into the play path so the action cannot
// re-enter.
func (e *Engine) PlayDrawnCard(ctx context.Context, userID string, req PlayRequest) error {
	roomID, err := e.roomFor(ctx, userID)
	if err != nil {
		return err
	}
	unlock := e.lockRoom(roomID)
	defer unlock()

	s, err := e.store.LoadSession(ctx, roomID)
	if err != nil {
		return err
	}
	if err := requireActive(s, userID); err != nil {
		return err
	}
	if s.DrawnCard == nil {
		return fmt.Errorf("no drawn card to play: %w", ErrTurnViolation)
	}
	req.Card = *s.DrawnCard
	s.DrawnCard = nil

	if err := e.validatePlay(s, userID, req); err != nil {
		return err
	}
	if err := e.applyPlay(ctx, s, userID, req); err != nil {
		return err
	}
	return e.finishOp(ctx, s)
}

// SkipDrawnCard keeps the drawn card in hand and passes the turn.
func (e *Engine) SkipDrawnCard(ctx context.Context, userID string) error {
	roomID, err := e.roomFor(ctx, userID)
	if err != nil {
		return err
	}
	unlock := e.lockRoom(roomID)
	defer unlock()

	s, err := e.store.LoadSession(ctx, roomID)
	if err != nil {
		return err
	}
	if err := requireActive(s, userID); err != nil {
		return err
	}
	if s.DrawnCard == nil {
		return fmt.Errorf("no drawn card to skip: %w", ErrTurnViolation)
	}
	s.DrawnCard = nil
	s.Playable = nil
	e.logMove(s, userID, "kept the drawn card")
	e.advanceTurn(ctx, s)
	return e.finishOp(ctx, s)
}

// AcceptEffect consumes the pending chain counters onto the caller and
// advances the turn. This is the required response to an active chain when
// the caller holds no playable answer.
func (e *Engine) AcceptEffect(ctx context.Context, userID string) error {
	roomID, err := e.roomFor(ctx, userID)
	if err != nil {
		return err
	}
	unlock := e.lockRoom(roomID)
	defer unlock()

	s, err := e.store.LoadSession(ctx, roomID)
	if err != nil {
		return err
	}
	if err := requireActive(s, userID); err != nil {
		return err
	}
	if !s.EffectActive && s.PendingDraw == 0 && s.PendingSkip == 0 {
		return fmt.Errorf("no pending effect to accept: %w", ErrTurnViolation)
	}
	e.applyChainPenalty(s, userID)
	e.advanceTurn(ctx, s)
	return e.finishOp(ctx, s)
}

// handSize is how many cards each participant is dealt.
const handSize = 5

// InitializeGameAfterStart deals the room's WAITING session and begins play:
// shuffled full deck, five cards each, and a non-effectful opening card so the
// game never starts inside a chain or demand.
func (e *Engine) InitializeGameAfterStart(ctx context.Context, roomID string) error {
	unlock := e.lockRoom(roomID)
	defer unlock()

	s, err := e.store.LoadSession(ctx, roomID)
	if err != nil {
		return err
	}
	if s.Status != models.StatusWaiting {
		return fmt.Errorf("room %s is already %s: %w", roomID, s.Status, ErrTurnViolation)
	}
	if len(s.Order) < 2 {
		return fmt.Errorf("need at least two participants: %w", ErrInvalidMove)
	}

	s.DrawPile.Cards = models.NewFullDeck()
	s.DrawPile.Shuffle()
	s.DiscardPile.Clear()

	for i := 0; i < handSize; i++ {
		for _, p := range s.Order {
			c, ok := s.DrawPile.Draw()
			if !ok {
				return fmt.Errorf("deck exhausted during deal: %w", ErrNoCardsLeft)
			}
			s.Hands[p.ID] = append(s.Hands[p.ID], c)
		}
	}

	// Flip the opening card; effectful candidates go back under the pile.
	for i := 0; i < 2*s.DrawPile.Size(); i++ {
		c, ok := s.DrawPile.Draw()
		if !ok {
			return fmt.Errorf("deck exhausted looking for opening card: %w", ErrNoCardsLeft)
		}
		if !c.HasEffect() {
			s.DiscardPile.Push(c)
			break
		}
		s.DrawPile.PushBottom(c)
	}
	if s.DiscardPile.Size() == 0 {
		return fmt.Errorf("no playable opening card found: %w", ErrNoCardsLeft)
	}

	s.Status = models.StatusPlaying
	first := s.Order[0]
	s.CurrentPlayer = first.ID
	s.Playable = PlayableCards(s, first.ID)
	e.logMove(s, first.ID, "opens the game")
	if first.Bot {
		e.scheduleBotTurn(s)
	} else {
		e.startHumanTurn(s)
	}
	e.log.WithFields(logrus.Fields{"room": roomID, "players": len(s.Order)}).Info("game initialized")
	return e.finishOp(ctx, s)
}

// HandlePlayerLeave substitutes a departing human with a bot. Bot-originated
// leave events are an idempotent no-op; bots never leave.
func (e *Engine) HandlePlayerLeave(ctx context.Context, userID string) error {
	roomID, err := e.roomFor(ctx, userID)
	if err != nil {
		return err
	}
	unlock := e.lockRoom(roomID)
	defer unlock()

	s, err := e.store.LoadSession(ctx, roomID)
	if err != nil {
		return err
	}
	p, ok := s.ParticipantByID(userID)
	if !ok || p.Bot {
		return nil
	}
	if s.Status != models.StatusPlaying {
		return nil
	}
	e.log.WithFields(logrus.Fields{"room": roomID, "player": userID}).Info("player left, substituting bot")
	e.substituteWithBot(ctx, s, userID, "left the game")
	return e.finishOp(ctx, s)
}

// ForceEndGame terminates the room's session immediately.
func (e *Engine) ForceEndGame(ctx context.Context, roomID string) error {
	unlock := e.lockRoom(roomID)
	defer unlock()

	s, err := e.store.LoadSession(ctx, roomID)
	if err != nil {
		return err
	}
	if s.Status == models.StatusFinished {
		return nil
	}
	e.log.WithField("room", roomID).Info("force ending game")
	return e.endGame(ctx, s)
}

// validatePlay runs the play-action checks in order: discard pile non-empty,
// card held, demand payload present and valid when required, card playable.
func (e *Engine) validatePlay(s *models.GameState, userID string, req PlayRequest) error {
	if s.DiscardPile.Size() == 0 {
		return fmt.Errorf("discard pile is empty: %w", ErrInvalidMove)
	}
	if !s.HoldsCard(userID, req.Card) {
		return fmt.Errorf("card %s is not in hand: %w", req.Card, ErrInvalidMove)
	}
	switch req.Card.Rank {
	case models.RankJack:
		if !req.DemandRank.Demandable() {
			return fmt.Errorf("jack requires a demanded rank between five and ten: %w", ErrInvalidMove)
		}
	case models.RankAce:
		if !req.DemandSuit.Valid() {
			return fmt.Errorf("ace requires a demanded suit: %w", ErrInvalidMove)
		}
	}
	if !IsPlayable(s, req.Card) {
		return fmt.Errorf("card %s is not playable: %w", req.Card, ErrInvalidMove)
	}
	return nil
}

// drawWithRecycle draws from the draw pile, recycling the discard pile (all
// but the current card) when it runs dry.
func (e *Engine) drawWithRecycle(s *models.GameState) (models.Card, error) {
	if c, ok := s.DrawPile.Draw(); ok {
		return c, nil
	}
	if s.DiscardPile.Size() <= 1 {
		return models.Card{}, fmt.Errorf("room %s: %w", s.RoomID, ErrNoCardsLeft)
	}
	top, _ := s.DiscardPile.Draw()
	rest := s.DiscardPile.Cards
	s.DiscardPile.Cards = []models.Card{top}
	s.DrawPile.Cards = append(s.DrawPile.Cards, rest...)
	s.DrawPile.Shuffle()
	e.log.WithFields(logrus.Fields{"room": s.RoomID, "recycled": len(rest)}).Debug("recycled discard pile")
	c, _ := s.DrawPile.Draw()
	return c, nil
}

// logMove appends to the session move log and ships a record to the
// historian queue, asynchronously and non-fatally.
func (e *Engine) logMove(s *models.GameState, playerID, text string) {
	entry := models.MoveEntry{PlayerID: playerID, Text: text, At: time.Now()}
	s.MoveLog = append(s.MoveLog, entry)
	name := s.Usernames[playerID]
	if name == "" {
		name = playerID
	}
	s.LastMove = name + " " + text

	if e.moves == nil {
		return
	}
	rec := MoveRecord{
		RoomID:    s.RoomID,
		MoveIndex: len(s.MoveLog),
		PlayerID:  playerID,
		Text:      text,
		Timestamp: entry.At.UnixMilli(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := e.moves.PushMoveRecord(ctx, rec); err != nil {
			e.log.WithError(err).WithField("room", rec.RoomID).Warn("failed to push move record")
		}
	}()
}

// finishOp persists and broadcasts a still-live session. A session that
// reached FINISHED inside the operation was already torn down by endGame.
func (e *Engine) finishOp(ctx context.Context, s *models.GameState) error {
	if s.Status == models.StatusFinished {
		return nil
	}
	return e.persistAndPublish(ctx, s)
}

// persistAndPublish saves the session (critical path) and fans out per-player
// views (fire-and-forget).
func (e *Engine) persistAndPublish(ctx context.Context, s *models.GameState) error {
	s.TurnRemaining = e.remainingSeconds(s)
	if err := e.store.SaveSession(ctx, s); err != nil {
		return fmt.Errorf("saving session for room %s: %w", s.RoomID, err)
	}
	e.publishViews(s)
	return nil
}

// publishViews sends each human participant their filtered projection.
func (e *Engine) publishViews(s *models.GameState) {
	if e.bcast == nil {
		return
	}
	remaining := e.remainingSeconds(s)
	for _, p := range s.Order {
		if p.Bot {
			continue
		}
		e.bcast.PublishToPlayer(p.ID, NewPlayerView(s, p.ID, remaining))
	}
}

// remainingSeconds derives the turn clock on demand: nil whenever no human
// timer is running (bot turns, non-PLAYING status).
func (e *Engine) remainingSeconds(s *models.GameState) *int {
	if s.Status != models.StatusPlaying || s.CurrentPlayer == "" || s.IsBot(s.CurrentPlayer) || s.TurnStartedAt.IsZero() {
		return nil
	}
	rem := int((e.cfg.TurnTimeout - time.Since(s.TurnStartedAt)).Seconds())
	if rem < 0 {
		rem = 0
	}
	return &rem
}
