package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alveaenerle/online-gaming-service-sub000/internal/game"
)

func TestPlayedAtInterpretsMillisecondTimestamps(t *testing.T) {
	at := time.Date(2026, time.March, 14, 9, 26, 53, 589_000_000, time.UTC)
	rec := game.MoveRecord{Timestamp: at.UnixMilli()}

	got := playedAt(rec)
	assert.True(t, got.Equal(at), "played_at %v drifted from %v", got, at)
	assert.Equal(t, at.Year(), got.Year(), "millisecond epoch must not be read as seconds")
}

func TestPlayedAtSurvivesQueueRoundTrip(t *testing.T) {
	at := time.Now().Truncate(time.Millisecond)
	rec := game.MoveRecord{
		RoomID:    "room-1",
		MoveIndex: 3,
		PlayerID:  "alice",
		Text:      "drew a card",
		Timestamp: at.UnixMilli(),
	}

	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	var decoded game.MoveRecord
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.True(t, playedAt(decoded).Equal(at))
}
