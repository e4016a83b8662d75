// internal/game/board_gen.go
package game

import (
	"math/rand"
	"sort"

	"github.com/febuchner/settlers-of-catan/internal/models"
)

var landTerrains = []Terrain{
	Forest, Forest, Forest, Forest,
	Hills, Hills, Hills,
	Pasture, Pasture, Pasture, Pasture,
	Farmland, Farmland, Farmland, Farmland,
	Mountains, Mountains, Mountains,
	Desert,
}

var numberChits = []int{2, 3, 3, 4, 4, 5, 5, 6, 6, 8, 8, 9, 9, 10, 10, 11, 11, 12}

// portEdges are the coast edges that carry a harbour.
var portEdges = []string{"Aa", "Cd", "Dh", "Ej", "Fl", "Gr", "Io", "Jk", "Lg"}

// BoardGenerator produces the fields and ports of a new board.
type BoardGenerator func(rng *rand.Rand) ([]*Field, []Port)

// GenerateBoard shuffles terrains, number chits and port kinds over the fixed island shape.
func GenerateBoard(rng *rand.Rand) ([]*Field, []Port) {
	var land, sea []string
	for l := range labelHexes {
		if isSeaLabel(l) {
			sea = append(sea, l)
		} else {
			land = append(land, l)
		}
	}
	sort.Strings(land)
	sort.Strings(sea)

	terrains := append([]Terrain(nil), landTerrains...)
	rng.Shuffle(len(terrains), func(i, j int) { terrains[i], terrains[j] = terrains[j], terrains[i] })
	numbers := append([]int(nil), numberChits...)
	rng.Shuffle(len(numbers), func(i, j int) { numbers[i], numbers[j] = numbers[j], numbers[i] })

	fields := make([]*Field, 0, len(land)+len(sea))
	n := 0
	for i, l := range land {
		f := &Field{Label: l, Hex: labelHexes[l], Terrain: terrains[i]}
		if f.Terrain != Desert {
			f.Number = numbers[n]
			n++
		}
		fields = append(fields, f)
	}
	for _, l := range sea {
		fields = append(fields, &Field{Label: l, Hex: labelHexes[l], Terrain: Sea})
	}

	kinds := make([]*models.ResourceType, 0, len(portEdges))
	for _, t := range models.ResourceTypes {
		t := t
		kinds = append(kinds, &t)
	}
	for len(kinds) < len(portEdges) {
		kinds = append(kinds, nil)
	}
	rng.Shuffle(len(kinds), func(i, j int) { kinds[i], kinds[j] = kinds[j], kinds[i] })
	ports := make([]Port, len(portEdges))
	for i, e := range portEdges {
		ports[i] = Port{Edge: e, Resource: kinds[i]}
	}
	return fields, ports
}
