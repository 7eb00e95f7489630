// cmd/historian is an asynchronous service that pops accepted move records
// from a Redis queue and persists them to PostgreSQL in batches.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/Alveaenerle/online-gaming-service-sub000/internal/database"
	"github.com/Alveaenerle/online-gaming-service-sub000/internal/game"
)

// HistorianService consumes move records from Redis and flushes them to the
// database, batching to keep transaction overhead down.
type HistorianService struct {
	redisClient *redis.Client
	queueName   string
	batchSize   int
	flushDelay  time.Duration

	batchMu  sync.Mutex
	batch    []game.MoveRecord
	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewHistorianService builds a service from environment variables.
func NewHistorianService() *HistorianService {
	batchSize := getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	flushMs := getEnvInt("HISTORIAN_FLUSH_MS", 500)

	rdb := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &HistorianService{
		redisClient: rdb,
		queueName:   getEnv("MOVE_QUEUE_NAME", "makao_moves"),
		batchSize:   batchSize,
		flushDelay:  time.Duration(flushMs) * time.Millisecond,
		batch:       make([]game.MoveRecord, 0, batchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
}

// Run connects to the database and starts the consume loop. Blocks until
// Stop is called.
func (hs *HistorianService) Run() {
	database.ConnectDB()

	go hs.readRedisLoop()

	log.Println("historian service started.")
	<-hs.ctx.Done()
	hs.flushBatchToDB()
	log.Println("historian shutting down.")
}

// readRedisLoop pops records via BLPop and accumulates them, flushing on
// batch size or on a timer.
func (hs *HistorianService) readRedisLoop() {
	ticker := time.NewTicker(hs.flushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-hs.ctx.Done():
			return

		case <-ticker.C:
			hs.flushBatchToDB()

		default:
			// 3-second BLPop timeout so context cancellation is noticed.
			res, err := hs.redisClient.BLPop(hs.ctx, 3*time.Second, hs.queueName).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				if errors.Is(err, context.Canceled) {
					return
				}
				log.Printf("[ERROR] BLPop: %v\n", err)
				continue
			}
			if len(res) < 2 {
				continue
			}

			var rec game.MoveRecord
			if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
				log.Printf("invalid move record: %v\n", err)
				continue
			}
			hs.appendToBatch(rec)
		}
	}
}

func (hs *HistorianService) appendToBatch(rec game.MoveRecord) {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()

	hs.batch = append(hs.batch, rec)
	if len(hs.batch) >= hs.batchSize {
		hs.flushLocked()
	}
}

func (hs *HistorianService) flushBatchToDB() {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	hs.flushLocked()
}

// flushLocked writes the pending batch in one transaction. Assumes batchMu
// is held.
func (hs *HistorianService) flushLocked() {
	if len(hs.batch) == 0 {
		return
	}
	batchCopy := make([]game.MoveRecord, len(hs.batch))
	copy(batchCopy, hs.batch)
	hs.batch = hs.batch[:0]

	ctx := context.Background()
	err := pgx.BeginTxFunc(ctx, database.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range batchCopy {
			if err := insertMoveTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertMoveTx: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[ERROR] flush batch: %v\n", err)
	} else {
		log.Printf("Flushed %d moves to DB.\n", len(batchCopy))
	}
}

// insertMoveTx appends one move row. Duplicate (room_id, move_index) pairs
// from redelivery are ignored.
func insertMoveTx(ctx context.Context, tx pgx.Tx, rec game.MoveRecord) error {
	q := `
		INSERT INTO game_moves (room_id, move_index, player_id, move_text, played_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (room_id, move_index) DO NOTHING
	`
	_, err := tx.Exec(ctx, q, rec.RoomID, rec.MoveIndex, rec.PlayerID, rec.Text, playedAt(rec))
	return err
}

// playedAt converts the record's millisecond timestamp into a concrete time
// for the played_at column.
func playedAt(rec game.MoveRecord) time.Time {
	return time.UnixMilli(rec.Timestamp).UTC()
}

// Stop gracefully stops the service.
func (hs *HistorianService) Stop() {
	hs.cancelFn()
}

func main() {
	hs := NewHistorianService()
	go hs.Run()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	hs.Stop()
	log.Println("Historian shutdown complete.")
}

func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}
