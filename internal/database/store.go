// Package database persists finished games and the action log.
package database

import (
	"context"

	"github.com/febuchner/settlers-of-catan/internal/models"
)

// ResultStore records the outcome of finished sessions.
type ResultStore interface {
	RecordGameResult(ctx context.Context, result models.GameResult) error
	RecentResults(ctx context.Context, limit int) ([]models.GameResult, error)
	Close() error
}

func gameStatus(r models.GameResult) string {
	if r.Aborted {
		return "aborted"
	}
	return "completed"
}
