package game

import (
	"github.com/febuchner/settlers-of-catan/internal/models"
)

const bonusPoints = 2

// LongestRoad returns the length of the longest simple path through the owner's
// roads. An opponent's settlement or city breaks the path.
func (b *Board) LongestRoad(owner int) int {
	best := 0
	used := make(map[string]bool)
	for e, o := range b.roads {
		if o != owner {
			continue
		}
		// A longest path ends in some edge; walk away from it through either endpoint.
		used[e] = true
		for _, v := range EdgeEndpoints(e) {
			best = max(best, 1+b.extendRoad(owner, v, used))
		}
		delete(used, e)
	}
	return best
}

func (b *Board) extendRoad(owner int, vertex string, used map[string]bool) int {
	if vertex == "" {
		return 0
	}
	if n, ok := b.nodes[vertex]; ok && n.Owner != owner {
		return 0
	}
	best := 0
	for _, e := range VertexEdges(vertex) {
		if used[e] || b.RoadOwner(e) != owner {
			continue
		}
		next := ""
		for _, v := range EdgeEndpoints(e) {
			if v != vertex {
				next = v
			}
		}
		used[e] = true
		best = max(best, 1+b.extendRoad(owner, next, used))
		delete(used, e)
	}
	return best
}

// updateLongestRoad recomputes the longest-road holder. The incumbent keeps the
// title on a tie; a tie among challengers leaves it where it is or unassigned.
// Assumes lock is held.
func (g *CatanGame) updateLongestRoad() {
	lengths := make(map[int]int, len(g.Players))
	best := 0
	for _, p := range g.Players {
		lengths[p.ID] = g.Board.LongestRoad(p.ID)
		best = max(best, lengths[p.ID])
	}

	holder := 0
	switch {
	case best < g.Rules.LongestRoadMin:
	case g.longestRoadHolder != 0 && lengths[g.longestRoadHolder] == best:
		holder = g.longestRoadHolder
	default:
		leaders := 0
		for _, p := range g.Players {
			if lengths[p.ID] == best {
				leaders++
				holder = p.ID
			}
		}
		if leaders > 1 {
			holder = 0
		}
	}
	if holder == g.longestRoadHolder {
		return
	}

	prev := g.getPlayerByID(g.longestRoadHolder)
	next := g.getPlayerByID(holder)
	g.moveBonus(prev, next, func(p *models.Player, has bool) { p.HasLongestRoad = has })
	g.longestRoadHolder = holder
	g.fireEvent(GameEvent{
		Type:    EventLongestRoad,
		Player:  holder,
		Target:  idOf(prev),
		Payload: map[string]interface{}{"length": best},
	})
	g.logAction(holder, string(EventLongestRoad), map[string]interface{}{"previous": idOf(prev), "length": best})
}

// updateLargestArmy hands the largest army to p once p has played more knights
// than the current threshold.
// Assumes lock is held.
func (g *CatanGame) updateLargestArmy(p *models.Player) {
	if p.Knights <= g.largestArmySize {
		return
	}
	g.largestArmySize = p.Knights
	if g.largestArmyHolder == p.ID {
		return
	}
	prev := g.getPlayerByID(g.largestArmyHolder)
	g.moveBonus(prev, p, func(pl *models.Player, has bool) { pl.HasLargestArmy = has })
	g.largestArmyHolder = p.ID
	g.fireEvent(GameEvent{
		Type:    EventLargestArmy,
		Player:  p.ID,
		Target:  idOf(prev),
		Payload: map[string]interface{}{"knights": p.Knights},
	})
	g.logAction(p.ID, string(EventLargestArmy), map[string]interface{}{"previous": idOf(prev), "knights": p.Knights})
}

// moveBonus shifts a 2-point bonus from prev to next; either may be nil.
// Assumes lock is held.
func (g *CatanGame) moveBonus(prev, next *models.Player, flag func(*models.Player, bool)) {
	if prev != nil {
		prev.VictoryPoints -= bonusPoints
		flag(prev, false)
		g.broadcastStatus(prev)
	}
	if next != nil {
		next.VictoryPoints += bonusPoints
		flag(next, true)
		g.broadcastStatus(next)
	}
}

func idOf(p *models.Player) int {
	if p == nil {
		return 0
	}
	return p.ID
}
