// internal/models/building.go
package models

import (
	"encoding/json"
	"fmt"
)

// BuildingKind is road, settlement or city.
type BuildingKind int

const (
	Road BuildingKind = iota
	Settlement
	City
)

var buildingNames = [3]string{"road", "settlement", "city"}

func (b BuildingKind) String() string {
	if b < Road || b > City {
		return "unknown"
	}
	return buildingNames[b]
}

func (b BuildingKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *BuildingKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, n := range buildingNames {
		if n == s {
			*b = BuildingKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown building kind %q", s)
}

// Building is a piece on the board. Location is an edge for roads and a vertex otherwise.
type Building struct {
	Owner    int          `json:"owner"`
	Kind     BuildingKind `json:"kind"`
	Location string       `json:"location"`
}

// Inventory holds the pieces a player still has in hand.
type Inventory struct {
	Roads       int `json:"roads"`
	Settlements int `json:"settlements"`
	Cities      int `json:"cities"`
}

// Remaining returns the count left for a kind.
func (i Inventory) Remaining(kind BuildingKind) int {
	switch kind {
	case Road:
		return i.Roads
	case Settlement:
		return i.Settlements
	case City:
		return i.Cities
	}
	return 0
}
