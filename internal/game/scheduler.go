// internal/game/scheduler.go
package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Alveaenerle/online-gaming-service-sub000/internal/config"
)

// Scheduler owns one turn-timer slot and one bot-move slot per room. Starting
// either slot cancels the previous occupant, so a room never has two pending
// timers of the same kind. Callbacks fire on the shared timer pool and must
// re-load fresh state before acting.
type Scheduler struct {
	cfg config.Engine

	mu          sync.Mutex
	turnTimers  map[string]*time.Timer
	botTimers   map[string]*time.Timer
	botInFlight map[string]bool

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewScheduler builds an empty scheduler for the given engine settings.
func NewScheduler(cfg config.Engine) *Scheduler {
	return &Scheduler{
		cfg:         cfg,
		turnTimers:  make(map[string]*time.Timer),
		botTimers:   make(map[string]*time.Timer),
		botInFlight: make(map[string]bool),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// StartTurnTimer arms the room's human turn timer, replacing any prior one.
// fire runs on the timer goroutine after the configured per-turn budget.
func (sc *Scheduler) StartTurnTimer(roomID string, fire func()) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if t, ok := sc.turnTimers[roomID]; ok {
		t.Stop()
	}
	sc.turnTimers[roomID] = time.AfterFunc(sc.cfg.TurnTimeout, fire)
}

// CancelTurnTimer stops and forgets the room's turn timer, if any.
func (sc *Scheduler) CancelTurnTimer(roomID string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if t, ok := sc.turnTimers[roomID]; ok {
		t.Stop()
		delete(sc.turnTimers, roomID)
	}
}

// ScheduleBotMove arms the room's bot-move timer with a randomized delay in
// the configured window, replacing any prior one.
func (sc *Scheduler) ScheduleBotMove(roomID string, fire func()) {
	delay := sc.botDelay()
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if t, ok := sc.botTimers[roomID]; ok {
		t.Stop()
	}
	sc.botTimers[roomID] = time.AfterFunc(delay, fire)
}

// CancelBotMove stops and forgets the room's bot-move timer, if any.
func (sc *Scheduler) CancelBotMove(roomID string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if t, ok := sc.botTimers[roomID]; ok {
		t.Stop()
		delete(sc.botTimers, roomID)
	}
}

// CancelRoom clears both slots and the in-flight marker. Called at game end.
func (sc *Scheduler) CancelRoom(roomID string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if t, ok := sc.turnTimers[roomID]; ok {
		t.Stop()
		delete(sc.turnTimers, roomID)
	}
	if t, ok := sc.botTimers[roomID]; ok {
		t.Stop()
		delete(sc.botTimers, roomID)
	}
	delete(sc.botInFlight, roomID)
}

// TryBeginBotMove is a non-blocking test-and-set: it returns false when a bot
// move is already executing for the room, in which case the caller must exit
// without acting.
func (sc *Scheduler) TryBeginBotMove(roomID string) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.botInFlight[roomID] {
		return false
	}
	sc.botInFlight[roomID] = true
	return true
}

// EndBotMove releases the in-flight marker taken by TryBeginBotMove.
func (sc *Scheduler) EndBotMove(roomID string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.botInFlight, roomID)
}

// TurnTimeout exposes the per-turn budget for remaining-seconds math.
func (sc *Scheduler) TurnTimeout() time.Duration {
	return sc.cfg.TurnTimeout
}

// botDelay draws a uniform delay from [BotDelayMin, BotDelayMax].
func (sc *Scheduler) botDelay() time.Duration {
	sc.rngMu.Lock()
	defer sc.rngMu.Unlock()
	window := sc.cfg.BotDelayMax - sc.cfg.BotDelayMin
	if window <= 0 {
		return sc.cfg.BotDelayMin
	}
	return sc.cfg.BotDelayMin + time.Duration(sc.rng.Int63n(int64(window)+1))
}
