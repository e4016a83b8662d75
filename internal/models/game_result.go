package models

import (
	"time"

	"github.com/google/uuid"
)

// PlayerResult is one seat's line in a finished game.
type PlayerResult struct {
	PlayerID       int    `json:"player_id"`
	Name           string `json:"name"`
	Color          Color  `json:"color"`
	Points         int    `json:"points"`
	Knights        int    `json:"knights"`
	HasLongestRoad bool   `json:"has_longest_road"`
	HasLargestArmy bool   `json:"has_largest_army"`
}

// GameResult is handed to result stores when a session ends.
// Winner is 0 when the session was aborted before anyone won.
type GameResult struct {
	GameID    uuid.UUID      `json:"game_id"`
	Winner    int            `json:"winner"`
	Aborted   bool           `json:"aborted"`
	Reason    string         `json:"reason,omitempty"`
	Players   []PlayerResult `json:"players"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at"`
}
