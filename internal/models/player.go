package models

import (
	"encoding/json"
	"fmt"
)

// PlayerStatus is the per-player state of the turn machine.
type PlayerStatus int

const (
	StatusLobby PlayerStatus = iota
	StatusWaitingForStart
	StatusPlaceInitialSettlement
	StatusPlaceInitialRoad
	StatusWaitingForTurn
	StatusRollDice
	StatusDiscardHalf
	StatusMoveRobber
	StatusTradeOrBuild
)

var statusNames = [...]string{
	"lobby",
	"waiting_for_start",
	"place_initial_settlement",
	"place_initial_road",
	"waiting_for_turn",
	"roll_dice",
	"discard_half",
	"move_robber",
	"trade_or_build",
}

func (s PlayerStatus) String() string {
	if s < StatusLobby || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

func (s PlayerStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PlayerStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	for i, n := range statusNames {
		if n == str {
			*s = PlayerStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown player status %q", str)
}

// Color identifies a seat. At most one player holds each color.
type Color string

const (
	Red    Color = "red"
	Orange Color = "orange"
	Blue   Color = "blue"
	White  Color = "white"
)

// Colors is the closed set of seat colors.
var Colors = []Color{Red, Orange, Blue, White}

// Valid reports whether c is one of the seat colors.
func (c Color) Valid() bool {
	for _, k := range Colors {
		if k == c {
			return true
		}
	}
	return false
}

// Player is the canonical per-player record held by the engine.
type Player struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	Color     Color        `json:"color"`
	Status    PlayerStatus `json:"status"`
	Connected bool         `json:"connected"`

	Resources     Resources `json:"-"`
	DevCards      DevCards  `json:"-"`
	VictoryPoints int       `json:"victoryPoints"`
	Knights       int       `json:"knights"`

	HasLongestRoad bool `json:"hasLongestRoad"`
	HasLargestArmy bool `json:"hasLargestArmy"`

	Inventory Inventory `json:"inventory"`

	// BoughtThisRound shadows DevCards for cards that may not be played yet.
	BoughtThisRound DevCards `json:"-"`
	// PlayedDevCard is set once a development card was played this turn.
	PlayedDevCard bool `json:"-"`
}

// PlayerView is a status update as seen by one viewer.
type PlayerView struct {
	ID             int          `json:"id"`
	Name           string       `json:"name"`
	Color          Color        `json:"color"`
	Status         PlayerStatus `json:"status"`
	Connected      bool         `json:"connected"`
	VictoryPoints  int          `json:"victoryPoints"`
	Knights        int          `json:"knights"`
	HasLongestRoad bool         `json:"hasLongestRoad"`
	HasLargestArmy bool         `json:"hasLargestArmy"`
	Inventory      Inventory    `json:"inventory"`
	Resources      *ResourceView `json:"resources"`
	DevCards       *DevCardView  `json:"devCards"`
}

// ViewFor builds the status update for viewer. Only the owner sees exact counts
// and hidden victory-point cards stay out of the public score.
func (p *Player) ViewFor(viewer int) PlayerView {
	v := PlayerView{
		ID:             p.ID,
		Name:           p.Name,
		Color:          p.Color,
		Status:         p.Status,
		Connected:      p.Connected,
		VictoryPoints:  p.VictoryPoints,
		Knights:        p.Knights,
		HasLongestRoad: p.HasLongestRoad,
		HasLargestArmy: p.HasLargestArmy,
		Inventory:      p.Inventory,
	}
	if viewer == p.ID {
		v.Resources = p.Resources.Exact()
		v.DevCards = p.DevCards.Exact()
	} else {
		v.Resources = p.Resources.Hidden()
		v.DevCards = p.DevCards.Hidden()
	}
	return v
}

// Score counts explicit points plus victory-point cards still in hand.
func (p *Player) Score() int {
	return p.VictoryPoints + p.DevCards.VictoryPoint
}
