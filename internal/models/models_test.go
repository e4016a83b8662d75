package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourcesArithmetic(t *testing.T) {
	hand := Resources{Wood: 2, Clay: 1, Wheat: 3}
	cost := Resources{Wood: 1, Clay: 1}

	assert.True(t, hand.Covers(cost))
	assert.Equal(t, Resources{Wood: 1, Wheat: 3}, hand.Sub(cost))
	assert.Equal(t, Resources{Wood: 3, Clay: 2, Wheat: 3}, hand.Add(cost))
	assert.Equal(t, 6, hand.Total())
	assert.False(t, hand.Covers(Resources{Ore: 1}))

	assert.True(t, cost.Sub(hand).HasNegative())
	assert.True(t, Resources{}.IsEmpty())
	assert.Equal(t, Resources{Wood: 1, Clay: 1}, hand.Min(cost))
}

func TestResourcesOverlaps(t *testing.T) {
	assert.True(t, Resources{Wood: 1, Ore: 1}.Overlaps(Resources{Ore: 2}))
	assert.False(t, Resources{Wood: 1}.Overlaps(Resources{Clay: 4}))
}

func TestSingleAndNewResources(t *testing.T) {
	assert.Equal(t, Resources{Sheep: 4}, Single(Sheep, 4))
	all := NewResources(19)
	for _, rt := range ResourceTypes {
		assert.Equal(t, 19, all.Get(rt), rt.String())
	}
}

func TestResourceTypeJSON(t *testing.T) {
	data, err := json.Marshal(Wheat)
	require.NoError(t, err)
	assert.JSONEq(t, `"wheat"`, string(data))

	var rt ResourceType
	require.NoError(t, json.Unmarshal([]byte(`"ore"`), &rt))
	assert.Equal(t, Ore, rt)

	assert.Error(t, json.Unmarshal([]byte(`"gold"`), &rt))
	assert.False(t, ResourceType(9).Valid())
	assert.Equal(t, "unknown", ResourceType(-1).String())
}

func TestResourceViews(t *testing.T) {
	hand := Resources{Wood: 2, Ore: 1}

	hidden := hand.Hidden()
	assert.True(t, hidden.IsHidden())
	assert.Equal(t, 3, *hidden.Hidden)

	exact := hand.Exact()
	assert.False(t, exact.IsHidden())
	assert.Equal(t, 2, *exact.Wood)
	assert.Equal(t, 0, *exact.Sheep)

	data, err := json.Marshal(hidden)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hidden":3}`, string(data))
}

func TestPlayerViewFor(t *testing.T) {
	p := &Player{
		ID:            2,
		Name:          "ada",
		Color:         Blue,
		VictoryPoints: 3,
		Resources:     Resources{Clay: 2},
		DevCards:      DevCards{Knight: 1, VictoryPoint: 1},
	}

	own := p.ViewFor(2)
	require.NotNil(t, own.Resources.Clay)
	assert.Equal(t, 2, *own.Resources.Clay)
	assert.Equal(t, 1, *own.DevCards.VictoryPoint)

	other := p.ViewFor(1)
	assert.True(t, other.Resources.IsHidden())
	assert.Nil(t, other.DevCards.VictoryPoint)
	assert.Equal(t, 2, *other.DevCards.Hidden)
	assert.Equal(t, 3, other.VictoryPoints)

	assert.Equal(t, 4, p.Score())
}

func TestPlayerStatusJSON(t *testing.T) {
	data, err := json.Marshal(StatusDiscardHalf)
	require.NoError(t, err)
	assert.JSONEq(t, `"discard_half"`, string(data))

	var s PlayerStatus
	require.NoError(t, json.Unmarshal([]byte(`"move_robber"`), &s))
	assert.Equal(t, StatusMoveRobber, s)
	assert.Error(t, json.Unmarshal([]byte(`"asleep"`), &s))
}

func TestColorValid(t *testing.T) {
	assert.True(t, Orange.Valid())
	assert.False(t, Color("green").Valid())
}

func TestInventoryRemaining(t *testing.T) {
	inv := Inventory{Roads: 15, Settlements: 5, Cities: 4}
	assert.Equal(t, 15, inv.Remaining(Road))
	assert.Equal(t, 5, inv.Remaining(Settlement))
	assert.Equal(t, 4, inv.Remaining(City))

	var k BuildingKind
	require.NoError(t, json.Unmarshal([]byte(`"city"`), &k))
	assert.Equal(t, City, k)
}

func TestDevCardsAdd(t *testing.T) {
	var d DevCards
	d.Add(Monopoly, 2)
	d.Add(Monopoly, -1)
	d.Add(Knight, 1)
	assert.Equal(t, 1, d.Get(Monopoly))
	assert.Equal(t, 2, d.Total())
}
