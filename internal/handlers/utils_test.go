// internal/handlers/utils_test.go
package handlers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alveaenerle/online-gaming-service-sub000/internal/game"
)

func TestExtractCookieToken(t *testing.T) {
	assert.Equal(t, "abc123",
		extractCookieToken("auth_token=abc123", "auth_token"))
	assert.Equal(t, "abc123",
		extractCookieToken("other=x; auth_token=abc123; theme=dark", "auth_token"))
	assert.Equal(t, "",
		extractCookieToken("other=x; theme=dark", "auth_token"))
	assert.Equal(t, "",
		extractCookieToken("", "auth_token"))
}

func TestWsErrorMessageMapsSentinels(t *testing.T) {
	assert.Equal(t, "not authenticated", wsErrorMessage(game.ErrNotAuthenticated))
	assert.Equal(t, "no active game", wsErrorMessage(game.ErrSessionNotFound))
	assert.Equal(t, "not your turn", wsErrorMessage(game.ErrTurnViolation))
	assert.Equal(t, "no cards left to draw", wsErrorMessage(game.ErrNoCardsLeft))

	wrapped := fmt.Errorf("card 7 of hearts is not playable: %w", game.ErrInvalidMove)
	assert.Equal(t, wrapped.Error(), wsErrorMessage(wrapped))

	assert.Equal(t, "internal error", wsErrorMessage(fmt.Errorf("redis down")))
}
