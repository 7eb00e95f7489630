// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Alveaenerle/online-gaming-service-sub000/internal/game"
	"github.com/Alveaenerle/online-gaming-service-sub000/internal/models"
)

const (
	sessionKeyPrefix = "makao:session:"
	roomKeyPrefix    = "makao:room:"

	// FinishChannel carries terminal game events for cross-service cleanup.
	FinishChannel = "makao:events"

	// DefaultMoveQueue is the Redis list consumed by the historian service.
	DefaultMoveQueue = "makao_moves"
)

// Store is the Redis-backed persistence and event gateway: live sessions,
// the user->room directory, finish events, and the historian move queue.
type Store struct {
	rdb       *redis.Client
	moveQueue string
}

// Connect initializes a Store from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
//   - MOVE_QUEUE_NAME (optional, default "makao_moves")
func Connect() (*Store, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Store{
		rdb:       rdb,
		moveQueue: getEnv("MOVE_QUEUE_NAME", DefaultMoveQueue),
	}, nil
}

// LoadSession fetches and decodes the room's session.
func (s *Store) LoadSession(ctx context.Context, roomID string) (*models.GameState, error) {
	data, err := s.rdb.Get(ctx, sessionKeyPrefix+roomID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("room %s: %w", roomID, game.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session for room %s: %w", roomID, err)
	}
	var state models.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decoding session for room %s: %w", roomID, err)
	}
	return &state, nil
}

// SaveSession encodes and writes the session under its room key.
func (s *Store) SaveSession(ctx context.Context, state *models.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session for room %s: %w", state.RoomID, err)
	}
	if err := s.rdb.Set(ctx, sessionKeyPrefix+state.RoomID, data, 0).Err(); err != nil {
		return fmt.Errorf("saving session for room %s: %w", state.RoomID, err)
	}
	return nil
}

// DeleteSession removes the room's live session.
func (s *Store) DeleteSession(ctx context.Context, roomID string) error {
	if err := s.rdb.Del(ctx, sessionKeyPrefix+roomID).Err(); err != nil {
		return fmt.Errorf("deleting session for room %s: %w", roomID, err)
	}
	return nil
}

// RoomFor returns the room the user is mapped to, or "" when none.
func (s *Store) RoomFor(ctx context.Context, userID string) (string, error) {
	roomID, err := s.rdb.Get(ctx, roomKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolving room for user %s: %w", userID, err)
	}
	return roomID, nil
}

// SetRoom maps the user to a room.
func (s *Store) SetRoom(ctx context.Context, userID, roomID string) error {
	if err := s.rdb.Set(ctx, roomKeyPrefix+userID, roomID, 0).Err(); err != nil {
		return fmt.Errorf("mapping user %s to room %s: %w", userID, roomID, err)
	}
	return nil
}

// ClearRoom removes the user's room mapping so they may join elsewhere.
func (s *Store) ClearRoom(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, roomKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("clearing room mapping for user %s: %w", userID, err)
	}
	return nil
}

// finishEvent is the payload published on FinishChannel.
type finishEvent struct {
	RoomID string        `json:"room_id"`
	Status models.Status `json:"status"`
}

// PublishFinish emits a terminal event to the external event stream.
func (s *Store) PublishFinish(ctx context.Context, roomID string, status models.Status) error {
	data, err := json.Marshal(finishEvent{RoomID: roomID, Status: status})
	if err != nil {
		return fmt.Errorf("encoding finish event for room %s: %w", roomID, err)
	}
	if err := s.rdb.Publish(ctx, FinishChannel, data).Err(); err != nil {
		return fmt.Errorf("publishing finish event for room %s: %w", roomID, err)
	}
	return nil
}

// PushMoveRecord serializes the record and pushes it onto the historian
// queue. This does not block the game beyond a quick network send.
func (s *Store) PushMoveRecord(ctx context.Context, rec game.MoveRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal MoveRecord: %w", err)
	}
	if err := s.rdb.RPush(ctx, s.moveQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", s.moveQueue, err)
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a
// default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
