package game

import (
	"github.com/febuchner/settlers-of-catan/internal/models"
)

// Building prices.
var (
	RoadCost       = models.Resources{Wood: 1, Clay: 1}
	SettlementCost = models.Resources{Wood: 1, Clay: 1, Sheep: 1, Wheat: 1}
	CityCost       = models.Resources{Wheat: 2, Ore: 3}
	DevCardCost    = models.Resources{Sheep: 1, Wheat: 1, Ore: 1}
)

// BuildCost returns the price of a building kind.
func BuildCost(kind models.BuildingKind) models.Resources {
	switch kind {
	case models.Road:
		return RoadCost
	case models.Settlement:
		return SettlementCost
	case models.City:
		return CityCost
	}
	return models.Resources{}
}

// The predicates below never mutate state. Each returns nil when the request is legal.

func requireStatus(p *models.Player, allowed ...models.PlayerStatus) *RuleError {
	for _, s := range allowed {
		if p.Status == s {
			return nil
		}
	}
	return illegal("not allowed while in status %s", p.Status)
}

func requireHolding(p *models.Player, r models.Resources) *RuleError {
	if !p.Resources.Covers(r) {
		return insufficient("you do not have enough resources")
	}
	return nil
}

func requireInventory(p *models.Player, kind models.BuildingKind) *RuleError {
	if p.Inventory.Remaining(kind) <= 0 {
		return illegal("no %s pieces left", kind)
	}
	return nil
}

// checkSettlement validates a settlement spot. connected requires one of the owner's roads at the vertex.
func (b *Board) checkSettlement(owner int, vertex string, connected bool) *RuleError {
	if !IsVertex(vertex) {
		return badPlacement("%q is not a settlement location", vertex)
	}
	if _, taken := b.nodes[vertex]; taken {
		return badPlacement("%s is already occupied", vertex)
	}
	for _, n := range AdjacentVertices(vertex) {
		if _, taken := b.nodes[n]; taken {
			return badPlacement("%s is too close to the building at %s", vertex, n)
		}
	}
	if !connected {
		return nil
	}
	for _, e := range VertexEdges(vertex) {
		if b.RoadOwner(e) == owner {
			return nil
		}
	}
	return badPlacement("%s is not connected to one of your roads", vertex)
}

// checkCity validates upgrading the owner's settlement at vertex.
func (b *Board) checkCity(owner int, vertex string) *RuleError {
	n, ok := b.nodes[vertex]
	if !ok || n.Kind != models.Settlement || n.Owner != owner {
		return badPlacement("a city needs one of your settlements at %s", vertex)
	}
	return nil
}

// checkRoad validates a road spot. A non-empty anchor pins the road to that vertex.
func (b *Board) checkRoad(owner int, edge, anchor string) *RuleError {
	if !IsEdge(edge) {
		return badPlacement("%q is not a road location", edge)
	}
	if b.RoadOwner(edge) != -1 {
		return badPlacement("%s already has a road", edge)
	}
	ends := EdgeEndpoints(edge)
	if anchor != "" {
		for _, v := range ends {
			if v == anchor {
				return nil
			}
		}
		return badPlacement("the road must touch your new settlement at %s", anchor)
	}
	for _, v := range ends {
		if n, ok := b.nodes[v]; ok {
			if n.Owner == owner {
				return nil
			}
			continue
		}
		for _, e := range VertexEdges(v) {
			if e != edge && b.RoadOwner(e) == owner {
				return nil
			}
		}
	}
	return badPlacement("%s is not connected to your roads or buildings", edge)
}

// checkDiscard validates a discard against the player's current hand.
func checkDiscard(p *models.Player, drop models.Resources) *RuleError {
	if drop.HasNegative() {
		return illegal("negative amounts are not allowed")
	}
	if need := p.Resources.Total() / 2; drop.Total() < need {
		return illegal("you must return at least %d cards", need)
	}
	return requireHolding(p, drop)
}

// checkTradeBundles validates the two sides of a domestic offer.
func checkTradeBundles(offer, request models.Resources) *RuleError {
	if offer.HasNegative() || request.HasNegative() {
		return badTrade("negative amounts are not allowed")
	}
	if offer.IsEmpty() || request.IsEmpty() {
		return badTrade("both sides of a trade must be non-empty")
	}
	if offer.Overlaps(request) {
		return badTrade("a resource cannot be offered and requested at once")
	}
	return nil
}

// checkMaritime validates a bank trade against the player's port ratios.
func checkMaritime(ratios [5]int, offer, request models.Resources) *RuleError {
	if err := checkTradeBundles(offer, request); err != nil {
		return err
	}
	units := 0
	for _, t := range models.ResourceTypes {
		n := offer.Get(t)
		if n%ratios[t] != 0 {
			return badTrade("%s must be offered in multiples of %d", t, ratios[t])
		}
		units += n / ratios[t]
	}
	if request.Total() != units {
		return badTrade("the offer buys %d cards, %d requested", units, request.Total())
	}
	return nil
}
