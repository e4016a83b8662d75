package game

import (
	"math/rand"
	"testing"

	"github.com/febuchner/settlers-of-catan/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexAndEdgeGeometry(t *testing.T) {
	assert.True(t, IsVertex("MNS"))
	assert.False(t, IsVertex("NMS"), "locations must be normalized")
	assert.False(t, IsVertex("abc"), "a and c are not adjacent")
	assert.False(t, IsVertex("MNO"), "M and O are not adjacent")
	assert.True(t, IsVertex("Aab"))

	assert.True(t, IsEdge("MN"))
	assert.True(t, IsEdge("Aa"))
	assert.False(t, IsEdge("ab"))
	assert.False(t, IsEdge("AS"))

	assert.ElementsMatch(t, []string{"BMN", "MNS"}, EdgeEndpoints("MN"))
	assert.ElementsMatch(t, []string{"MN", "MS", "NS"}, VertexEdges("MNS"))
	assert.ElementsMatch(t, []string{"BMN", "MRS", "NOS"}, AdjacentVertices("MNS"))
	assert.Equal(t, []string{"MNS", "MRS", "NOS", "OPS", "PQS", "QRS"}, FieldVertices("S"))
}

func TestEveryLandFieldHasSixCorners(t *testing.T) {
	for l := range labelHexes {
		if isSeaLabel(l) {
			continue
		}
		assert.Len(t, FieldVertices(l), 6, "field %s", l)
	}
}

func TestGenerateBoard(t *testing.T) {
	fields, ports := GenerateBoard(rand.New(rand.NewSource(3)))
	require.Len(t, fields, 37)
	require.Len(t, ports, 9)

	counts := map[Terrain]int{}
	numbers := 0
	for _, f := range fields {
		counts[f.Terrain]++
		if f.Number != 0 {
			numbers++
			assert.NotEqual(t, 7, f.Number)
		}
		if f.Terrain == Desert || f.Terrain == Sea {
			assert.Zero(t, f.Number, "field %s", f.Label)
		}
	}
	assert.Equal(t, 18, counts[Sea])
	assert.Equal(t, 1, counts[Desert])
	assert.Equal(t, 4, counts[Forest])
	assert.Equal(t, 3, counts[Hills])
	assert.Equal(t, 18, numbers)

	generic := 0
	for _, p := range ports {
		assert.True(t, IsEdge(p.Edge), "port edge %s", p.Edge)
		if p.Resource == nil {
			generic++
		}
	}
	assert.Equal(t, 4, generic)

	b := NewBoard(fields, ports)
	assert.Equal(t, Desert, b.Fields[b.Robber].Terrain)
}

func TestValidRobberLocation(t *testing.T) {
	b := NewBoard(testBoard(nil))
	assert.False(t, b.ValidRobberLocation("S"), "current location")
	assert.False(t, b.ValidRobberLocation("a"), "sea")
	assert.False(t, b.ValidRobberLocation("Z"), "unknown")
	assert.True(t, b.ValidRobberLocation("M"))
}

func TestPortRatios(t *testing.T) {
	ore := models.Ore
	b := NewBoard(testBoard(nil))
	b.Ports = append(b.Ports, Port{Edge: "Fl", Resource: &ore})

	assert.Equal(t, [5]int{4, 4, 4, 4, 4}, b.ratios(1))

	b.place(models.Building{Owner: 1, Kind: models.Settlement, Location: "Aab"})
	assert.Equal(t, [5]int{3, 3, 3, 3, 3}, b.ratios(1))
	assert.Equal(t, [5]int{4, 4, 4, 4, 4}, b.ratios(2))

	b.place(models.Building{Owner: 1, Kind: models.Settlement, Location: "EFl"})
	assert.Equal(t, [5]int{3, 3, 3, 3, 2}, b.ratios(1))
}

func TestYieldsCountCitiesTwice(t *testing.T) {
	b := NewBoard(testBoard(nil))
	b.place(models.Building{Owner: 1, Kind: models.Settlement, Location: "MNS"})
	b.place(models.Building{Owner: 2, Kind: models.City, Location: "ABM"})

	y := b.yields(6)
	assert.Equal(t, models.Resources{Wheat: 1}, y[1])
	assert.Equal(t, models.Resources{Wheat: 2}, y[2])
	assert.Empty(t, b.yields(7))

	b.Robber = "M"
	assert.Empty(t, b.yields(6))
}

func TestStartingResources(t *testing.T) {
	b := NewBoard(testBoard(nil))
	assert.Equal(t, models.Resources{Wheat: 1, Ore: 1}, b.startingResources("MNS"))
	assert.Equal(t, models.Resources{Wheat: 1, Sheep: 2}, b.startingResources("ABM"))
}

func TestLongestRoad(t *testing.T) {
	b := NewBoard(testBoard(nil))
	road := func(owner int, edges ...string) {
		for _, e := range edges {
			require.True(t, IsEdge(e), e)
			b.place(models.Building{Owner: owner, Kind: models.Road, Location: e})
		}
	}

	assert.Zero(t, b.LongestRoad(1))
	road(1, "NS", "MS", "RS", "QS")
	assert.Equal(t, 4, b.LongestRoad(1))
	road(1, "PS", "OS")
	assert.Equal(t, 6, b.LongestRoad(1), "the full ring around S")

	b.place(models.Building{Owner: 1, Kind: models.Settlement, Location: "MRS"})
	assert.Equal(t, 6, b.LongestRoad(1), "own buildings do not break a road")

	b.remove(models.Building{Owner: 1, Kind: models.Settlement, Location: "MRS"})
	b.place(models.Building{Owner: 2, Kind: models.Settlement, Location: "MRS"})
	assert.Equal(t, 6, b.LongestRoad(1), "a ring cut once is still one path")

	b.place(models.Building{Owner: 2, Kind: models.Settlement, Location: "OPS"})
	assert.Equal(t, 3, b.LongestRoad(1))

	// A branch does not add to the length.
	road(1, "NO")
	assert.Equal(t, 3, b.LongestRoad(1))
}
