package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// DB is the process-wide pgx pool, shared by the result store, the user
// store, and the historian.
var DB *pgxpool.Pool

// connString assembles the DSN from the POSTGRES_USER, POSTGRES_PASSWORD,
// PG_HOST, PG_PORT, and PG_DATABASE environment variables. Defaults cover a
// local docker-compose setup.
func connString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		getEnv("POSTGRES_USER", "postgres"),
		getEnv("POSTGRES_PASSWORD", "postgres"),
		getEnv("PG_HOST", "localhost"),
		getEnv("PG_PORT", "5432"),
		getEnv("PG_DATABASE", "makao"),
	)
}

// ConnectDB initializes the global pool and verifies it with a ping. Fatal on
// failure: neither the game server nor the historian runs without Postgres.
func ConnectDB() {
	config, err := pgxpool.ParseConfig(connString())
	if err != nil {
		logrus.WithError(err).Fatal("invalid postgres configuration")
	}

	DB, err = pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create postgres pool")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := DB.Ping(ctx); err != nil {
		logrus.WithError(err).Fatal("postgres ping failed")
	}

	logrus.WithFields(logrus.Fields{
		"host":     getEnv("PG_HOST", "localhost"),
		"port":     getEnv("PG_PORT", "5432"),
		"database": getEnv("PG_DATABASE", "makao"),
	}).Info("connected to postgres")
}

func getEnv(key, defVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defVal
}
