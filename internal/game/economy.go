package game

import (
	"log"

	"github.com/febuchner/settlers-of-catan/internal/models"
)

// earn moves a bundle from the bank to a player. A short bank clamps the amount
// and warns the recipient; the reduced earning is still applied.
// Assumes lock is held.
func (g *CatanGame) earn(p *models.Player, want models.Resources) models.Resources {
	if want.IsEmpty() {
		return want
	}
	granted, clamped := g.Bank.withdraw(want)
	if clamped {
		log.Printf("Game %s: bank short for player %d, wanted %+v got %+v", g.ID, p.ID, want, granted)
		g.fireEventToPlayer(p.ID, GameEvent{
			Type:    EventWarning,
			Player:  p.ID,
			Message: "There were not enough resources in the bank",
		})
	}
	p.Resources = p.Resources.Add(granted)
	g.announce(EventEarning, p.ID, granted)
	return granted
}

// pay moves a validated bundle from a player into the bank.
// Assumes lock is held.
func (g *CatanGame) pay(p *models.Player, cost models.Resources) {
	if cost.IsEmpty() {
		return
	}
	p.Resources = p.Resources.Sub(cost)
	g.Bank.deposit(cost)
	g.announce(EventCost, p.ID, cost)
}

// transfer moves a validated bundle straight from one player to another.
// Assumes lock is held.
func (g *CatanGame) transfer(from, to *models.Player, r models.Resources) {
	if r.IsEmpty() {
		return
	}
	from.Resources = from.Resources.Sub(r)
	to.Resources = to.Resources.Add(r)
	g.announce(EventCost, from.ID, r)
	g.announceWithTarget(EventEarning, to.ID, from.ID, r)
}

// announce sends an earning or cost: exact to the owner, the total to everyone else.
// Assumes lock is held.
func (g *CatanGame) announce(t GameEventType, playerID int, r models.Resources) {
	g.announceWithTarget(t, playerID, 0, r)
}

func (g *CatanGame) announceWithTarget(t GameEventType, playerID, target int, r models.Resources) {
	g.fireEventToPlayer(playerID, GameEvent{Type: t, Player: playerID, Target: target, Resources: r.Exact()})
	g.fireEventToOthers(playerID, GameEvent{Type: t, Player: playerID, Target: target, Resources: r.Hidden()})
}
