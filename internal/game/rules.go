// internal/game/rules.go
package game

import (
	"fmt"

	"github.com/febuchner/settlers-of-catan/internal/models"
)

// Rules holds the tunable constants of a session.
type Rules struct {
	PointsToWin       int `json:"pointsToWin"`       // victory points needed to end the game
	HandLimit         int `json:"handLimit"`         // players holding more than this discard half on a 7
	BankSupply        int `json:"bankSupply"`        // initial bank units per resource type
	MinPlayers        int `json:"minPlayers"`        // players required before the game can start
	MaxPlayers        int `json:"maxPlayers"`        // seats at the table
	LongestRoadMin    int `json:"longestRoadMin"`    // shortest road that can hold the longest-road bonus
	LargestArmyMin    int `json:"largestArmyMin"`    // fewest knights that can hold the largest-army bonus
	InitialRoads      int `json:"initialRoads"`      // road pieces per player
	InitialSettlement int `json:"initialSettlement"` // settlement pieces per player
	InitialCities     int `json:"initialCities"`     // city pieces per player
}

// DefaultRules returns the standard base-game values.
func DefaultRules() Rules {
	return Rules{
		PointsToWin:       10,
		HandLimit:         7,
		BankSupply:        19,
		MinPlayers:        3,
		MaxPlayers:        4,
		LongestRoadMin:    5,
		LargestArmyMin:    3,
		InitialRoads:      15,
		InitialSettlement: 5,
		InitialCities:     4,
	}
}

func (r Rules) inventory() models.Inventory {
	return models.Inventory{Roads: r.InitialRoads, Settlements: r.InitialSettlement, Cities: r.InitialCities}
}

// Update applies the overrides present in newRules; absent keys keep their value.
func (rules *Rules) Update(newRules map[string]interface{}) error {
	assignInt := func(field *int, key string, minVal int) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		switch v := val.(type) {
		case float64:
			*field = int(v)
		case int:
			*field = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if *field < minVal {
			return fmt.Errorf("%s must be at least %d", key, minVal)
		}
		return nil
	}

	fields := []struct {
		ptr *int
		key string
		min int
	}{
		{&rules.PointsToWin, "pointsToWin", 3},
		{&rules.HandLimit, "handLimit", 1},
		{&rules.BankSupply, "bankSupply", 1},
		{&rules.MinPlayers, "minPlayers", 2},
		{&rules.MaxPlayers, "maxPlayers", 2},
		{&rules.LongestRoadMin, "longestRoadMin", 1},
		{&rules.LargestArmyMin, "largestArmyMin", 1},
		{&rules.InitialRoads, "initialRoads", 2},
		{&rules.InitialSettlement, "initialSettlement", 2},
		{&rules.InitialCities, "initialCities", 0},
	}
	for _, f := range fields {
		if err := assignInt(f.ptr, f.key, f.min); err != nil {
			return err
		}
	}
	if rules.MaxPlayers > len(models.Colors) {
		return fmt.Errorf("maxPlayers cannot exceed %d", len(models.Colors))
	}
	if rules.MinPlayers > rules.MaxPlayers {
		return fmt.Errorf("minPlayers (%d) exceeds maxPlayers (%d)", rules.MinPlayers, rules.MaxPlayers)
	}
	return nil
}

// ParseRules returns a copy of current with the overrides applied.
func ParseRules(overrides map[string]interface{}, current Rules) (Rules, error) {
	r := current
	err := r.Update(overrides)
	return r, err
}
