package game

import (
	"math/rand"

	"github.com/febuchner/settlers-of-catan/internal/models"
)

var devDeckCounts = map[models.DevCardKind]int{
	models.Knight:       14,
	models.RoadBuilding: 2,
	models.Monopoly:     2,
	models.YearOfPlenty: 2,
	models.VictoryPoint: 5,
}

func newDevDeck(rng *rand.Rand) []models.DevCardKind {
	deck := make([]models.DevCardKind, 0, 25)
	for k := models.Knight; k <= models.VictoryPoint; k++ {
		for i := 0; i < devDeckCounts[k]; i++ {
			deck = append(deck, k)
		}
	}
	if rng != nil {
		rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	}
	return deck
}

// BuyDevelopmentCard draws the top card of the deck.
func (g *CatanGame) BuyDevelopmentCard(playerID int) error {
	g.Mu.Lock()
	defer g.unlock()

	p, rerr := g.actor(playerID)
	if rerr == nil {
		rerr = requireStatus(p, models.StatusTradeOrBuild)
	}
	if rerr == nil && len(g.deck) == 0 {
		rerr = illegal("there are no development cards left")
	}
	if rerr == nil {
		rerr = requireHolding(p, DevCardCost)
	}
	if rerr != nil {
		return g.reject(playerID, rerr)
	}

	g.pay(p, DevCardCost)
	card := g.deck[len(g.deck)-1]
	g.deck = g.deck[:len(g.deck)-1]
	p.DevCards.Add(card, 1)
	p.BoughtThisRound.Add(card, 1)

	g.fireEventToPlayer(p.ID, GameEvent{Type: EventDevCardBought, Player: p.ID, Card: card.String()})
	g.fireEventToOthers(p.ID, GameEvent{Type: EventDevCardBought, Player: p.ID, Card: "unknown"})
	g.broadcastStatus(p)
	g.logAction(p.ID, string(EventDevCardBought), map[string]interface{}{"card": card.String()})
	g.checkWin()
	return nil
}

// checkPlayable validates playing a card of kind this turn.
func checkPlayable(p *models.Player, kind models.DevCardKind) *RuleError {
	if err := requireStatus(p, models.StatusRollDice, models.StatusTradeOrBuild); err != nil {
		return err
	}
	if p.PlayedDevCard {
		return illegal("you already played a development card this turn")
	}
	if p.DevCards.Get(kind)-p.BoughtThisRound.Get(kind) <= 0 {
		return illegal("you have no playable %s card", kind)
	}
	return nil
}

// consumeCard removes a played card and announces it.
// Assumes lock is held.
func (g *CatanGame) consumeCard(p *models.Player, kind models.DevCardKind) {
	p.DevCards.Add(kind, -1)
	p.PlayedDevCard = true
	g.fireEvent(GameEvent{Type: EventDevCardPlayed, Player: p.ID, Card: kind.String()})
	g.logAction(p.ID, string(EventDevCardPlayed), map[string]interface{}{"card": kind.String()})
}

// PlayKnight moves the robber, steals from target and counts toward the largest army.
func (g *CatanGame) PlayKnight(playerID int, location string, target *int) error {
	g.Mu.Lock()
	defer g.unlock()

	p, rerr := g.actor(playerID)
	if rerr == nil {
		rerr = checkPlayable(p, models.Knight)
	}
	if rerr == nil {
		rerr = g.checkRobber(p, location, target)
	}
	if rerr != nil {
		return g.reject(playerID, rerr)
	}

	g.consumeCard(p, models.Knight)
	g.relocateRobber(p, location, target)
	p.Knights++
	g.updateLargestArmy(p)
	g.broadcastStatus(p)
	g.checkWin()
	return nil
}

// PlayRoadBuilding places up to two free roads. second may be empty.
func (g *CatanGame) PlayRoadBuilding(playerID int, first, second string) error {
	g.Mu.Lock()
	defer g.unlock()

	p, rerr := g.actor(playerID)
	if rerr == nil {
		rerr = checkPlayable(p, models.RoadBuilding)
	}
	if rerr == nil {
		rerr = requireInventory(p, models.Road)
	}
	var roads []string
	if rerr == nil {
		first, second = normalize(first), normalize(second)
		if second == "" || p.Inventory.Roads == 1 {
			second = ""
		}
		roads, rerr = g.Board.planRoads(p.ID, first, second)
	}
	if rerr != nil {
		return g.reject(playerID, rerr)
	}

	g.consumeCard(p, models.RoadBuilding)
	for _, e := range roads {
		g.placeBuilding(p, models.Road, e)
	}
	g.updateLongestRoad()
	g.checkWin()
	return nil
}

// planRoads finds an order in which both roads are legal, trying the given order
// first and then the reverse.
func (b *Board) planRoads(owner int, first, second string) ([]string, *RuleError) {
	if second == "" {
		if err := b.checkRoad(owner, first, ""); err != nil {
			return nil, err
		}
		return []string{first}, nil
	}
	if first == second {
		return nil, badPlacement("both roads target %s", first)
	}
	var lastErr *RuleError
	for _, order := range [2][2]string{{first, second}, {second, first}} {
		if err := b.checkRoad(owner, order[0], ""); err != nil {
			lastErr = err
			continue
		}
		probe := models.Building{Owner: owner, Kind: models.Road, Location: order[0]}
		b.place(probe)
		err := b.checkRoad(owner, order[1], "")
		b.remove(probe)
		if err == nil {
			return []string{order[0], order[1]}, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// PlayMonopoly collects every unit of one type from all other players.
func (g *CatanGame) PlayMonopoly(playerID int, t models.ResourceType) error {
	g.Mu.Lock()
	defer g.unlock()

	p, rerr := g.actor(playerID)
	if rerr == nil {
		rerr = checkPlayable(p, models.Monopoly)
	}
	if rerr == nil && !t.Valid() {
		rerr = illegal("unknown resource type")
	}
	if rerr != nil {
		return g.reject(playerID, rerr)
	}

	g.consumeCard(p, models.Monopoly)
	var collected models.Resources
	for _, victim := range g.Players {
		if victim == p {
			continue
		}
		n := victim.Resources.Get(t)
		if n == 0 {
			continue
		}
		taken := models.Single(t, n)
		victim.Resources = victim.Resources.Sub(taken)
		collected = collected.Add(taken)
		g.announce(EventCost, victim.ID, taken)
		g.broadcastStatus(victim)
	}
	if !collected.IsEmpty() {
		p.Resources = p.Resources.Add(collected)
		g.announce(EventEarning, p.ID, collected)
	}
	g.broadcastStatus(p)
	return nil
}

// PlayYearOfPlenty takes two units from the bank.
func (g *CatanGame) PlayYearOfPlenty(playerID int, a, b models.ResourceType) error {
	g.Mu.Lock()
	defer g.unlock()

	p, rerr := g.actor(playerID)
	if rerr == nil {
		rerr = checkPlayable(p, models.YearOfPlenty)
	}
	if rerr == nil && (!a.Valid() || !b.Valid()) {
		rerr = illegal("unknown resource type")
	}
	if rerr != nil {
		return g.reject(playerID, rerr)
	}

	g.consumeCard(p, models.YearOfPlenty)
	g.earn(p, models.Single(a, 1).Add(models.Single(b, 1)))
	g.broadcastStatus(p)
	return nil
}
