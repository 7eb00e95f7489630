package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ResultStore persists finished-game records. It satisfies the engine's
// ResultRecorder contract.
type ResultStore struct{}

// NewResultStore returns a recorder backed by the global pool.
func NewResultStore() *ResultStore {
	return &ResultStore{}
}

// RecordResult upserts one row per participant with their final hand score
// and placement, all in a single transaction keyed by the session's result
// id.
func (r *ResultStore) RecordResult(ctx context.Context, resultID, roomID string, ranking, placement map[string]int) error {
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsert := `
			INSERT INTO game_results (id, room_id, status)
			VALUES ($1, $2, 'finished')
			ON CONFLICT (id) DO UPDATE SET status = 'finished'
		`
		if _, e := tx.Exec(ctx, upsert, resultID, roomID); e != nil {
			return e
		}

		q := `
			INSERT INTO game_result_players (result_id, player_id, score, placement)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (result_id, player_id)
			DO UPDATE SET score=$3, placement=$4
		`
		for playerID, score := range ranking {
			if _, e := tx.Exec(ctx, q, resultID, playerID, score, placement[playerID]); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("recording result %s for room %s: %w", resultID, roomID, err)
	}
	return nil
}
