// internal/game/events.go
package game

import (
	"encoding/json"
	"log"

	"github.com/febuchner/settlers-of-catan/internal/models"
)

// GameEventType is an enum-like type for events sent to clients.
type GameEventType string

const (
	EventWelcome         GameEventType = "welcome"
	EventPlayerStatus    GameEventType = "player_status"
	EventPlayerLeft      GameEventType = "player_left"
	EventError           GameEventType = "error"
	EventWarning         GameEventType = "warning"
	EventBoardSnapshot   GameEventType = "board_snapshot"
	EventDiceResult      GameEventType = "dice_result"
	EventEarning         GameEventType = "earning"
	EventCost            GameEventType = "cost"
	EventBuildingPlaced  GameEventType = "building_placed"
	EventRobberMoved     GameEventType = "robber_moved"
	EventDevCardBought   GameEventType = "development_card_bought"
	EventDevCardPlayed   GameEventType = "development_card_played"
	EventLongestRoad     GameEventType = "longest_road_changed"
	EventLargestArmy     GameEventType = "largest_army_changed"
	EventTradeOffered    GameEventType = "trade_offered"
	EventTradeResponse   GameEventType = "trade_response"
	EventTradeExecuted   GameEventType = "trade_executed"
	EventTradeAbandoned  GameEventType = "trade_abandoned"
	EventChat            GameEventType = "chat"
	EventGameOver        GameEventType = "game_over"
)

// ErrorInfo is the typed payload of an error event.
type ErrorInfo struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// EventTrade describes a domestic trade offer or its progress.
type EventTrade struct {
	ID       int                  `json:"id"`
	Offerer  int                  `json:"offerer"`
	Offer    *models.ResourceView `json:"offer,omitempty"`
	Request  *models.ResourceView `json:"request,omitempty"`
	Accepted *bool                `json:"accepted,omitempty"`
}

// GameEvent is a record pushed to one, all-but-one, or all clients.
// Seq increases by one for every event of a session, in delivery order.
type GameEvent struct {
	Seq  int64         `json:"seq"`
	Type GameEventType `json:"type"`

	Player int `json:"player,omitempty"` // subject of the event; ids start at 1
	Target int `json:"target,omitempty"` // counterpart: steal victim, trade partner, previous bonus holder

	Status    *models.PlayerView   `json:"status,omitempty"`
	Resources *models.ResourceView `json:"resources,omitempty"`
	Building  *models.Building     `json:"building,omitempty"`
	Location  string               `json:"location,omitempty"`
	Dice      []int                `json:"dice,omitempty"`
	Card      string               `json:"card,omitempty"` // development card kind, or "unknown"
	Trade     *EventTrade          `json:"trade,omitempty"`
	Error     *ErrorInfo           `json:"error,omitempty"`
	Message   string               `json:"message,omitempty"`
	Token     string               `json:"token,omitempty"`

	Payload map[string]interface{} `json:"payload,omitempty"`

	State *ObfGameState `json:"state,omitempty"`
}

// EncodeEvent marshals a GameEvent, returning "{}" if marshalling fails.
func EncodeEvent(ev GameEvent) []byte {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("WARNING: Failed to marshal GameEvent type %s: %v", ev.Type, err)
		return []byte("{}")
	}
	return data
}

// outbound is an event waiting for the end of the current operation.
// to == 0 means everyone; except excludes one player from an everyone-delivery.
type outbound struct {
	to     int
	except int
	ev     GameEvent
}
