// internal/game/sync_state.go
package game

import (
	"sort"

	"github.com/febuchner/settlers-of-catan/internal/models"
	"github.com/google/uuid"
)

// ObfTrade is an open domestic offer as listed in a snapshot.
type ObfTrade struct {
	ID        int                  `json:"id"`
	Offerer   int                  `json:"offerer"`
	Offer     *models.ResourceView `json:"offer"`
	Request   *models.ResourceView `json:"request"`
	Acceptors []int                `json:"acceptors,omitempty"`
}

// ObfGameState is the board and table as seen by one player. Other players'
// resources and development cards appear only as totals.
type ObfGameState struct {
	GameID            uuid.UUID           `json:"gameId"`
	Phase             string              `json:"phase"`
	Started           bool                `json:"started"`
	GameOver          bool                `json:"gameOver"`
	CurrentPlayerID   int                 `json:"currentPlayerId,omitempty"`
	InitialTurnsLeft  int                 `json:"initialTurnsLeft"`
	Robber            string              `json:"robber,omitempty"`
	Fields            []*Field            `json:"fields,omitempty"`
	Ports             []Port              `json:"ports,omitempty"`
	Buildings         []models.Building   `json:"buildings"`
	Bank              models.Resources    `json:"bank"`
	DevCardsLeft      int                 `json:"devCardsLeft"`
	Players           []models.PlayerView `json:"players"`
	LongestRoadHolder int                 `json:"longestRoadHolder,omitempty"`
	LargestArmyHolder int                 `json:"largestArmyHolder,omitempty"`
	Trades            []ObfTrade          `json:"trades,omitempty"`
}

// GetCurrentObfuscatedGameState generates a snapshot of the game for the requesting player.
func (g *CatanGame) GetCurrentObfuscatedGameState(forPlayer int) ObfGameState {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.snapshotFor(forPlayer)
}

// RequestSnapshot sends the requesting player a fresh board_snapshot event.
func (g *CatanGame) RequestSnapshot(playerID int) error {
	g.Mu.Lock()
	defer g.unlock()

	if !g.conns[playerID] {
		return illegal("unknown connection %d", playerID)
	}
	snap := g.snapshotFor(playerID)
	g.fireEventToPlayer(playerID, GameEvent{Type: EventBoardSnapshot, State: &snap})
	return nil
}

// snapshotFor builds the obfuscated state.
// Assumes lock is held.
func (g *CatanGame) snapshotFor(forPlayer int) ObfGameState {
	obf := ObfGameState{
		GameID:            g.ID,
		Phase:             g.Phase.String(),
		Started:           g.Started,
		GameOver:          g.GameOver,
		InitialTurnsLeft:  g.InitialTurnsLeft,
		Bank:              g.Bank.Supply,
		DevCardsLeft:      len(g.deck),
		Buildings:         []models.Building{},
		LongestRoadHolder: g.longestRoadHolder,
		LargestArmyHolder: g.largestArmyHolder,
	}
	if g.Started {
		obf.CurrentPlayerID = g.currentPlayer().ID
	}
	if g.Board != nil {
		obf.Robber = g.Board.Robber
		obf.Ports = g.Board.Ports
		obf.Buildings = g.Board.Buildings()
		for _, f := range g.Board.Fields {
			obf.Fields = append(obf.Fields, f)
		}
		sort.Slice(obf.Fields, func(i, j int) bool { return obf.Fields[i].Label < obf.Fields[j].Label })
	}
	for _, p := range g.Players {
		obf.Players = append(obf.Players, p.ViewFor(forPlayer))
	}

	ids := make([]int, 0, len(g.trades))
	for id := range g.trades {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		t := g.trades[id]
		ot := ObfTrade{ID: t.ID, Offerer: t.Offerer, Offer: t.Offer.Exact(), Request: t.Request.Exact()}
		for a := range t.Acceptors {
			ot.Acceptors = append(ot.Acceptors, a)
		}
		sort.Ints(ot.Acceptors)
		obf.Trades = append(obf.Trades, ot)
	}
	return obf
}
