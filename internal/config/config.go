// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Engine holds the engine's tunables. It is built once at startup and passed
// into the engine by value; nothing mutates it afterwards.
type Engine struct {
	// TurnTimeout is the per-turn budget for a human player.
	TurnTimeout time.Duration

	// BotDelayMin/BotDelayMax bound the randomized delay before a scheduled
	// bot move fires, to simulate human pacing.
	BotDelayMin time.Duration
	BotDelayMax time.Duration
}

// Default engine settings: 60s turns, 1-3s bot pacing.
const (
	defaultTurnTimeoutSec = 60
	defaultBotDelayMinMs  = 1000
	defaultBotDelayMaxMs  = 3000
)

// FromEnv reads engine settings from the environment:
//   - TURN_TIMEOUT_SEC (default 60)
//   - BOT_DELAY_MIN_MS (default 1000)
//   - BOT_DELAY_MAX_MS (default 3000)
func FromEnv() Engine {
	cfg := Engine{
		TurnTimeout: time.Duration(getEnvInt("TURN_TIMEOUT_SEC", defaultTurnTimeoutSec)) * time.Second,
		BotDelayMin: time.Duration(getEnvInt("BOT_DELAY_MIN_MS", defaultBotDelayMinMs)) * time.Millisecond,
		BotDelayMax: time.Duration(getEnvInt("BOT_DELAY_MAX_MS", defaultBotDelayMaxMs)) * time.Millisecond,
	}
	if cfg.BotDelayMax < cfg.BotDelayMin {
		cfg.BotDelayMax = cfg.BotDelayMin
	}
	return cfg
}

// getEnvInt parses an environment variable as an integer, else a default.
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
