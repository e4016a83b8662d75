package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the shared Postgres pool used by the result store and the historian.
var DB *pgxpool.Pool

// PostgresDSN builds a connection string from its parts.
func PostgresDSN(user, password, host, port, database string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, database)
}

// ConnectDB opens the global pool and makes sure the schema exists.
func ConnectDB(ctx context.Context, dsn string) error {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("db ping error: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return err
	}

	DB = pool
	log.Printf("Connected to database at %s:%s/%s", config.ConnConfig.Host, fmt.Sprint(config.ConnConfig.Port), config.ConnConfig.Database)
	return nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS games (
	id          UUID PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'in_progress',
	winner      INTEGER,
	reason      TEXT,
	start_time  TIMESTAMPTZ DEFAULT NOW(),
	end_time    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS game_results (
	game_id          UUID NOT NULL REFERENCES games(id),
	player_id        INTEGER NOT NULL,
	name             TEXT NOT NULL,
	color            TEXT NOT NULL,
	points           INTEGER NOT NULL,
	knights          INTEGER NOT NULL,
	has_longest_road BOOLEAN NOT NULL,
	has_largest_army BOOLEAN NOT NULL,
	did_win          BOOLEAN NOT NULL,
	PRIMARY KEY (game_id, player_id)
);

CREATE TABLE IF NOT EXISTS game_actions (
	game_id         UUID NOT NULL REFERENCES games(id),
	action_index    INTEGER NOT NULL,
	actor_player_id INTEGER NOT NULL,
	action_type     TEXT NOT NULL,
	action_payload  JSONB,
	created_at      TIMESTAMPTZ DEFAULT NOW(),
	PRIMARY KEY (game_id, action_index)
);
`

// EnsureSchema creates the tables if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
