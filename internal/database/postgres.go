package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/febuchner/settlers-of-catan/internal/cache"
	"github.com/febuchner/settlers-of-catan/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps results and the action log in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// RecordGameResult writes the games row and one game_results row per player in one transaction.
func (s *PostgresStore) RecordGameResult(ctx context.Context, result models.GameResult) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, status, winner, reason, start_time, end_time)
			VALUES ($1, $2, NULLIF($3, 0), $4, $5, $6)
			ON CONFLICT (id) DO UPDATE
			SET status = EXCLUDED.status, winner = EXCLUDED.winner, reason = EXCLUDED.reason, end_time = EXCLUDED.end_time
		`
		if _, e := tx.Exec(ctx, upsertGame, result.GameID, gameStatus(result), result.Winner, result.Reason, result.StartedAt, result.EndedAt); e != nil {
			return e
		}

		for _, pr := range result.Players {
			q := `
				INSERT INTO game_results (game_id, player_id, name, color, points, knights, has_longest_road, has_largest_army, did_win)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (game_id, player_id)
				DO UPDATE SET points = $5, knights = $6, has_longest_road = $7, has_largest_army = $8, did_win = $9
			`
			if _, e := tx.Exec(ctx, q, result.GameID, pr.PlayerID, pr.Name, string(pr.Color), pr.Points, pr.Knights,
				pr.HasLongestRoad, pr.HasLargestArmy, pr.PlayerID == result.Winner); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert game or results: %w", err)
	}
	return nil
}

// RecentResults returns the latest finished games, newest first.
func (s *PostgresStore) RecentResults(ctx context.Context, limit int) ([]models.GameResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, status, COALESCE(winner, 0), COALESCE(reason, ''), start_time, end_time
		FROM games
		WHERE end_time IS NOT NULL
		ORDER BY end_time DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	var results []models.GameResult
	for rows.Next() {
		var r models.GameResult
		var status string
		if err := rows.Scan(&r.GameID, &status, &r.Winner, &r.Reason, &r.StartedAt, &r.EndedAt); err != nil {
			rows.Close()
			return nil, err
		}
		r.Aborted = status == "aborted"
		results = append(results, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		players, err := s.playerResults(ctx, results[i].GameID)
		if err != nil {
			return nil, err
		}
		results[i].Players = players
	}
	return results, nil
}

func (s *PostgresStore) playerResults(ctx context.Context, gameID uuid.UUID) ([]models.PlayerResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT player_id, name, color, points, knights, has_longest_road, has_largest_army
		FROM game_results WHERE game_id = $1 ORDER BY points DESC, player_id
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query game_results: %w", err)
	}
	defer rows.Close()
	var out []models.PlayerResult
	for rows.Next() {
		var pr models.PlayerResult
		var color string
		if err := rows.Scan(&pr.PlayerID, &pr.Name, &color, &pr.Points, &pr.Knights, &pr.HasLongestRoad, &pr.HasLargestArmy); err != nil {
			return nil, err
		}
		pr.Color = models.Color(color)
		out = append(out, pr)
	}
	return out, rows.Err()
}

// WriteActions inserts a batch of logged actions, creating the games row on first sight.
func (s *PostgresStore) WriteActions(ctx context.Context, batch []cache.GameActionRecord) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range batch {
			if err := insertGameActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertGameActionTx: %w", err)
			}
		}
		return nil
	})
}

func insertGameActionTx(ctx context.Context, tx pgx.Tx, rec cache.GameActionRecord) error {
	upsertGameQ := `
		INSERT INTO games (id, status, start_time)
		VALUES ($1, 'in_progress', NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertGameQ, rec.GameID); err != nil {
		return err
	}

	jsonPayload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	actionInsertQ := `
		INSERT INTO game_actions (game_id, action_index, actor_player_id, action_type, action_payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	_, err = tx.Exec(ctx, actionInsertQ, rec.GameID, rec.ActionIndex, rec.ActorPlayerID, rec.ActionType, jsonPayload)
	return err
}

// MarkAbandoned closes a game that stopped producing actions before it ended.
func (s *PostgresStore) MarkAbandoned(ctx context.Context, gameID uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE games
			SET status = 'abandoned', end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		_, e := tx.Exec(ctx, q, gameID)
		return e
	})
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
