// internal/game/board.go
package game

import (
	"sort"
	"strings"

	"github.com/febuchner/settlers-of-catan/internal/models"
)

// Hex is an axial field coordinate. Neighbours differ by (±1,0), (0,±1) or ±(1,1).
type Hex struct {
	X int `json:"x"`
	Y int `json:"y"`
}

var hexDirections = [6]Hex{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {-1, -1}}

func (h Hex) add(o Hex) Hex { return Hex{h.X + o.X, h.Y + o.Y} }

func (h Hex) adjacent(o Hex) bool {
	for _, d := range hexDirections {
		if h.add(d) == o {
			return true
		}
	}
	return false
}

// fieldLabels places the 19 land labels (upper case) and the 18 sea labels (lower case).
var fieldLabels = map[Hex]string{
	{0, 3}: "a", {1, 3}: "b", {2, 3}: "c", {3, 3}: "d",
	{-1, 2}: "e", {3, 2}: "f",
	{-2, 1}: "g", {3, 1}: "h",
	{-3, 0}: "i", {3, 0}: "j",
	{-3, -1}: "k", {2, -1}: "l",
	{-3, -2}: "m", {1, -2}: "n",
	{-3, -3}: "o", {-2, -3}: "p", {-1, -3}: "q", {0, -3}: "r",

	{0, 2}: "A", {1, 2}: "B", {2, 2}: "C",
	{-1, 1}: "L", {0, 1}: "M", {1, 1}: "N", {2, 1}: "D",
	{-2, 0}: "K", {-1, 0}: "R", {0, 0}: "S", {1, 0}: "O", {2, 0}: "E",
	{-2, -1}: "J", {-1, -1}: "Q", {0, -1}: "P", {1, -1}: "F",
	{-2, -2}: "I", {-1, -2}: "H", {0, -2}: "G",
}

var labelHexes = func() map[string]Hex {
	m := make(map[string]Hex, len(fieldLabels))
	for h, l := range fieldLabels {
		m[l] = h
	}
	return m
}()

// isSeaLabel reports whether a label names one of the sea fields "a".."r".
func isSeaLabel(l string) bool {
	return len(l) == 1 && l[0] >= 'a' && l[0] <= 'r'
}

func isLandLabel(l string) bool {
	_, ok := labelHexes[l]
	return ok && !isSeaLabel(l)
}

// normalize sorts the characters of a location so "CBN" and "BCN" name the same vertex.
func normalize(loc string) string {
	b := []byte(loc)
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
	return string(b)
}

func splitLabels(loc string) ([]Hex, bool) {
	hexes := make([]Hex, 0, len(loc))
	for _, r := range loc {
		h, ok := labelHexes[string(r)]
		if !ok {
			return nil, false
		}
		hexes = append(hexes, h)
	}
	return hexes, true
}

func touchesLand(loc string) bool {
	for _, r := range loc {
		if isLandLabel(string(r)) {
			return true
		}
	}
	return false
}

// IsVertex reports whether loc names a settlement spot: three mutually adjacent fields, at least one land.
func IsVertex(loc string) bool {
	if len(loc) != 3 || loc != normalize(loc) {
		return false
	}
	h, ok := splitLabels(loc)
	if !ok || h[0] == h[1] || h[1] == h[2] {
		return false
	}
	return h[0].adjacent(h[1]) && h[1].adjacent(h[2]) && h[0].adjacent(h[2]) && touchesLand(loc)
}

// IsEdge reports whether loc names a road spot: two adjacent fields, at least one land.
func IsEdge(loc string) bool {
	if len(loc) != 2 || loc != normalize(loc) {
		return false
	}
	h, ok := splitLabels(loc)
	if !ok {
		return false
	}
	return h[0].adjacent(h[1]) && touchesLand(loc)
}

// commonNeighbours returns the labelled fields adjacent to both a and b.
func commonNeighbours(a, b Hex) []Hex {
	var out []Hex
	for _, d := range hexDirections {
		c := a.add(d)
		if c == b {
			continue
		}
		if _, ok := fieldLabels[c]; ok && c.adjacent(b) {
			out = append(out, c)
		}
	}
	return out
}

func vertexOf(a, b, c Hex) string {
	return normalize(fieldLabels[a] + fieldLabels[b] + fieldLabels[c])
}

// EdgeEndpoints returns the (up to two) vertices joined by an edge.
func EdgeEndpoints(edge string) []string {
	h, ok := splitLabels(edge)
	if !ok || len(h) != 2 {
		return nil
	}
	var out []string
	for _, c := range commonNeighbours(h[0], h[1]) {
		if v := vertexOf(h[0], h[1], c); IsVertex(v) {
			out = append(out, v)
		}
	}
	return out
}

// VertexEdges returns the edges meeting at a vertex.
func VertexEdges(vertex string) []string {
	var out []string
	for _, pair := range [3][2]int{{0, 1}, {0, 2}, {1, 2}} {
		e := normalize(string(vertex[pair[0]]) + string(vertex[pair[1]]))
		if IsEdge(e) {
			out = append(out, e)
		}
	}
	return out
}

// AdjacentVertices returns the vertices one edge away from vertex.
func AdjacentVertices(vertex string) []string {
	var out []string
	for _, e := range VertexEdges(vertex) {
		for _, v := range EdgeEndpoints(e) {
			if v != vertex {
				out = append(out, v)
			}
		}
	}
	return out
}

// FieldVertices returns the corners of a field.
func FieldVertices(label string) []string {
	h, ok := labelHexes[label]
	if !ok {
		return nil
	}
	seen := make(map[string]bool, 6)
	var out []string
	for _, d := range hexDirections {
		n := h.add(d)
		if _, ok := fieldLabels[n]; !ok {
			continue
		}
		for _, c := range commonNeighbours(h, n) {
			v := vertexOf(h, n, c)
			if !seen[v] && IsVertex(v) {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Terrain is the kind of a field.
type Terrain string

const (
	Forest    Terrain = "forest"
	Hills     Terrain = "hills"
	Pasture   Terrain = "pasture"
	Farmland  Terrain = "fields"
	Mountains Terrain = "mountains"
	Desert    Terrain = "desert"
	Sea       Terrain = "sea"
)

// Yield returns the resource produced by the terrain, if any.
func (t Terrain) Yield() (models.ResourceType, bool) {
	switch t {
	case Forest:
		return models.Wood, true
	case Hills:
		return models.Clay, true
	case Pasture:
		return models.Sheep, true
	case Farmland:
		return models.Wheat, true
	case Mountains:
		return models.Ore, true
	}
	return 0, false
}

// Field is one hex of the board.
type Field struct {
	Label   string  `json:"label"`
	Hex     Hex     `json:"hex"`
	Terrain Terrain `json:"terrain"`
	Number  int     `json:"number,omitempty"`
}

// Port grants a better maritime ratio to whoever builds on one of its edge's endpoints.
// A nil Resource is a generic 3:1 port.
type Port struct {
	Edge     string               `json:"edge"`
	Resource *models.ResourceType `json:"resource,omitempty"`
}

// Ratio returns the number of units of t the port takes for one unit.
func (p Port) Ratio(t models.ResourceType) int {
	if p.Resource == nil {
		return 3
	}
	if *p.Resource == t {
		return 2
	}
	return 4
}

// Board is the mutable board state of a session.
type Board struct {
	Fields map[string]*Field
	Ports  []Port
	Robber string

	roads map[string]int             // edge -> owner
	nodes map[string]models.Building // vertex -> settlement or city
}

// NewBoard wraps a generated layout; the robber starts on the desert.
func NewBoard(fields []*Field, ports []Port) *Board {
	b := &Board{
		Fields: make(map[string]*Field, len(fields)),
		Ports:  ports,
		roads:  make(map[string]int),
		nodes:  make(map[string]models.Building),
	}
	for _, f := range fields {
		b.Fields[f.Label] = f
		if f.Terrain == Desert && b.Robber == "" {
			b.Robber = f.Label
		}
	}
	if b.Robber == "" {
		b.Robber = "S"
	}
	return b
}

// RoadOwner returns the owner of a road on edge, or -1.
func (b *Board) RoadOwner(edge string) int {
	if owner, ok := b.roads[edge]; ok {
		return owner
	}
	return -1
}

// Node returns the settlement or city on vertex.
func (b *Board) Node(vertex string) (models.Building, bool) {
	n, ok := b.nodes[vertex]
	return n, ok
}

func (b *Board) place(bd models.Building) {
	if bd.Kind == models.Road {
		b.roads[bd.Location] = bd.Owner
		return
	}
	b.nodes[bd.Location] = bd
}

func (b *Board) remove(bd models.Building) {
	if bd.Kind == models.Road {
		delete(b.roads, bd.Location)
		return
	}
	delete(b.nodes, bd.Location)
}

// Buildings lists every piece on the board in a stable order.
func (b *Board) Buildings() []models.Building {
	out := make([]models.Building, 0, len(b.roads)+len(b.nodes))
	for e, owner := range b.roads {
		out = append(out, models.Building{Owner: owner, Kind: models.Road, Location: e})
	}
	for _, n := range b.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Location < out[j].Location
	})
	return out
}

// ValidRobberLocation reports whether the robber may move to loc.
func (b *Board) ValidRobberLocation(loc string) bool {
	if loc == b.Robber || isSeaLabel(loc) {
		return false
	}
	_, ok := b.Fields[loc]
	return ok
}

// OwnersAround returns the owners of settlements and cities on the corners of a field.
func (b *Board) OwnersAround(label string) map[int]bool {
	owners := make(map[int]bool)
	for _, v := range FieldVertices(label) {
		if n, ok := b.nodes[v]; ok {
			owners[n.Owner] = true
		}
	}
	return owners
}

// ratios returns the best maritime ratio per type for a player.
func (b *Board) ratios(playerID int) [5]int {
	r := [5]int{4, 4, 4, 4, 4}
	for _, p := range b.Ports {
		owned := false
		for _, v := range EdgeEndpoints(p.Edge) {
			if n, ok := b.nodes[v]; ok && n.Owner == playerID {
				owned = true
				break
			}
		}
		if !owned {
			continue
		}
		for _, t := range models.ResourceTypes {
			r[t] = min(r[t], p.Ratio(t))
		}
	}
	return r
}

// yields sums what a dice roll produces for each owner, skipping the robber's field.
func (b *Board) yields(roll int) map[int]models.Resources {
	out := make(map[int]models.Resources)
	labels := make([]string, 0, len(b.Fields))
	for l := range b.Fields {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		f := b.Fields[l]
		if f.Number != roll || l == b.Robber {
			continue
		}
		res, ok := f.Terrain.Yield()
		if !ok {
			continue
		}
		for _, v := range FieldVertices(l) {
			n, ok := b.nodes[v]
			if !ok {
				continue
			}
			amount := 1
			if n.Kind == models.City {
				amount = 2
			}
			out[n.Owner] = out[n.Owner].Add(models.Single(res, amount))
		}
	}
	return out
}

// startingResources is what a second initial settlement on vertex earns.
func (b *Board) startingResources(vertex string) models.Resources {
	var r models.Resources
	for _, c := range strings.Split(vertex, "") {
		f, ok := b.Fields[c]
		if !ok {
			continue
		}
		if res, ok := f.Terrain.Yield(); ok {
			r = r.Add(models.Single(res, 1))
		}
	}
	return r
}
