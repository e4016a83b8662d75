package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/febuchner/settlers-of-catan/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the single-file result store used when no Postgres is configured.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens (or creates) the database file and applies pending migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		var count int
		if err := s.conn.QueryRow("SELECT COUNT(*) FROM migrations WHERE id = ?", m.id).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := s.runMigration(m); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.id, m.name, err)
		}
	}
	return nil
}

func (s *SQLiteStore) runMigration(m migration) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.sql); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO migrations (id, name) VALUES (?, ?)", m.id, m.name); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordGameResult stores the result, replacing any earlier row for the same game.
func (s *SQLiteStore) RecordGameResult(ctx context.Context, result models.GameResult) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO games (id, status, winner, reason, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status, winner = excluded.winner,
			reason = excluded.reason, ended_at = excluded.ended_at
	`, result.GameID.String(), gameStatus(result), result.Winner, result.Reason,
		result.StartedAt.UnixMilli(), result.EndedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	for _, pr := range result.Players {
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO game_results
				(game_id, player_id, name, color, points, knights, has_longest_road, has_largest_army)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, result.GameID.String(), pr.PlayerID, pr.Name, string(pr.Color), pr.Points, pr.Knights,
			pr.HasLongestRoad, pr.HasLargestArmy)
		if err != nil {
			return fmt.Errorf("insert result for player %d: %w", pr.PlayerID, err)
		}
	}
	return tx.Commit()
}

// RecentResults returns up to limit results, newest first.
func (s *SQLiteStore) RecentResults(ctx context.Context, limit int) ([]models.GameResult, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, status, winner, reason, started_at, ended_at
		FROM games ORDER BY ended_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}

	var results []models.GameResult
	for rows.Next() {
		var (
			r              models.GameResult
			id, status     string
			started, ended int64
		)
		if err := rows.Scan(&id, &status, &r.Winner, &r.Reason, &started, &ended); err != nil {
			rows.Close()
			return nil, err
		}
		if r.GameID, err = uuid.Parse(id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("bad game id %q: %w", id, err)
		}
		r.Aborted = status == "aborted"
		r.StartedAt = time.UnixMilli(started).UTC()
		r.EndedAt = time.UnixMilli(ended).UTC()
		results = append(results, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		if results[i].Players, err = s.playerResults(ctx, results[i].GameID); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *SQLiteStore) playerResults(ctx context.Context, gameID uuid.UUID) ([]models.PlayerResult, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT player_id, name, color, points, knights, has_longest_road, has_largest_army
		FROM game_results WHERE game_id = ? ORDER BY points DESC, player_id
	`, gameID.String())
	if err != nil {
		return nil, err
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
