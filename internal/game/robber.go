package game

import (
	"github.com/febuchner/settlers-of-catan/internal/models"
)

// MoveRobber relocates the robber after a 7 and optionally steals from target.
func (g *CatanGame) MoveRobber(playerID int, location string, target *int) error {
	g.Mu.Lock()
	defer g.unlock()

	p, rerr := g.actor(playerID)
	if rerr == nil {
		rerr = requireStatus(p, models.StatusMoveRobber)
	}
	if rerr == nil {
		rerr = g.checkRobber(p, location, target)
	}
	if rerr != nil {
		return g.reject(playerID, rerr)
	}

	g.relocateRobber(p, location, target)
	p.Status = models.StatusTradeOrBuild
	g.broadcastStatus(p)
	return nil
}

// checkRobber validates a robber destination and the optional steal target.
// Assumes lock is held.
func (g *CatanGame) checkRobber(p *models.Player, location string, target *int) *RuleError {
	if !g.Board.ValidRobberLocation(location) {
		return badPlacement("the robber cannot move to %q", location)
	}
	if target == nil {
		return nil
	}
	if *target == p.ID {
		return illegal("you cannot steal from yourself")
	}
	if g.getPlayerByID(*target) == nil {
		return illegal("unknown player %d", *target)
	}
	if !g.Board.OwnersAround(location)[*target] {
		return illegal("player %d has no building next to %s", *target, location)
	}
	return nil
}

// relocateRobber moves the robber and performs the steal.
// Assumes lock is held.
func (g *CatanGame) relocateRobber(p *models.Player, location string, target *int) {
	g.Board.Robber = location
	ev := GameEvent{Type: EventRobberMoved, Player: p.ID, Location: location}
	if target != nil {
		ev.Target = *target
	}
	g.fireEvent(ev)
	g.logAction(p.ID, string(EventRobberMoved), map[string]interface{}{"location": location, "target": ev.Target})

	if target != nil {
		g.steal(p, g.getPlayerByID(*target))
	}
}

// steal takes one unit from victim. The type is drawn at random and walks the
// fixed cyclic order until the victim holds some of it.
// Assumes lock is held.
func (g *CatanGame) steal(thief, victim *models.Player) {
	if victim == nil || victim.Resources.Total() == 0 {
		return
	}
	start := g.rng.Intn(len(models.ResourceTypes))
	for i := 0; i < len(models.ResourceTypes); i++ {
		t := models.ResourceTypes[(start+i)%len(models.ResourceTypes)]
		if victim.Resources.Get(t) > 0 {
			g.transfer(victim, thief, models.Single(t, 1))
			g.broadcastStatus(victim)
			g.broadcastStatus(thief)
			return
		}
	}
}
