// internal/models/devcards.go
package models

import (
	"encoding/json"
	"fmt"
)

// DevCardKind enumerates the development card kinds.
type DevCardKind int

const (
	Knight DevCardKind = iota
	RoadBuilding
	Monopoly
	YearOfPlenty
	VictoryPoint
)

var devCardNames = [5]string{"knight", "road_building", "monopoly", "year_of_plenty", "victory_point"}

func (k DevCardKind) String() string {
	if k < Knight || k > VictoryPoint {
		return "unknown"
	}
	return devCardNames[k]
}

func (k DevCardKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *DevCardKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, n := range devCardNames {
		if n == s {
			*k = DevCardKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown development card kind %q", s)
}

// DevCards counts development cards by kind.
type DevCards struct {
	Knight       int `json:"knight"`
	RoadBuilding int `json:"roadBuilding"`
	Monopoly     int `json:"monopoly"`
	YearOfPlenty int `json:"yearOfPlenty"`
	VictoryPoint int `json:"victoryPoint"`
}

func (d DevCards) Get(k DevCardKind) int {
	switch k {
	case Knight:
		return d.Knight
	case RoadBuilding:
		return d.RoadBuilding
	case Monopoly:
		return d.Monopoly
	case YearOfPlenty:
		return d.YearOfPlenty
	case VictoryPoint:
		return d.VictoryPoint
	}
	return 0
}

// Add changes the count of one kind by n.
func (d *DevCards) Add(k DevCardKind, n int) {
	switch k {
	case Knight:
		d.Knight += n
	case RoadBuilding:
		d.RoadBuilding += n
	case Monopoly:
		d.Monopoly += n
	case YearOfPlenty:
		d.YearOfPlenty += n
	case VictoryPoint:
		d.VictoryPoint += n
	}
}

func (d DevCards) Total() int {
	return d.Knight + d.RoadBuilding + d.Monopoly + d.YearOfPlenty + d.VictoryPoint
}

// DevCardView mirrors ResourceView: exact counts for the owner, a hidden total for others.
type DevCardView struct {
	Knight       *int `json:"knight,omitempty"`
	RoadBuilding *int `json:"roadBuilding,omitempty"`
	Monopoly     *int `json:"monopoly,omitempty"`
	YearOfPlenty *int `json:"yearOfPlenty,omitempty"`
	VictoryPoint *int `json:"victoryPoint,omitempty"`
	Hidden       *int `json:"hidden,omitempty"`
}

func (d DevCards) Exact() *DevCardView {
	k, r, m, y, v := d.Knight, d.RoadBuilding, d.Monopoly, d.YearOfPlenty, d.VictoryPoint
	return &DevCardView{Knight: &k, RoadBuilding: &r, Monopoly: &m, YearOfPlenty: &y, VictoryPoint: &v}
}

func (d DevCards) Hidden() *DevCardView {
	t := d.Total()
	return &DevCardView{Hidden: &t}
}
