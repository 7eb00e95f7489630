// internal/game/errors.go
package game

import "errors"

// Engine error taxonomy. Operations wrap these sentinels with fmt.Errorf and
// %w so the transport layer can classify failures with errors.Is.
var (
	// ErrNotAuthenticated means the caller identity is missing.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionNotFound means no live session exists for the room, or the
	// caller has no room mapping at all.
	ErrSessionNotFound = errors.New("game session not found")

	// ErrTurnViolation covers acting out of turn, drawing twice, drawing
	// into an active chain, and acting on a drawn card that does not exist.
	ErrTurnViolation = errors.New("turn violation")

	// ErrInvalidMove covers unplayable cards, cards not held, and missing
	// or invalid demand payloads.
	ErrInvalidMove = errors.New("invalid move")

	// ErrNoCardsLeft means the draw and discard piles together cannot
	// supply a card. Deck bookkeeping is broken if this ever fires.
	ErrNoCardsLeft = errors.New("no cards left to draw")
)
