package game

import (
	"log"

	"github.com/febuchner/settlers-of-catan/internal/models"
)

// RollDice rolls for the current player. A 7 starts the discard and robber flow,
// any other sum pays out field yields.
func (g *CatanGame) RollDice(playerID int) error {
	g.Mu.Lock()
	defer g.unlock()

	p, rerr := g.actor(playerID)
	if rerr == nil {
		rerr = requireStatus(p, models.StatusRollDice)
	}
	if rerr != nil {
		return g.reject(playerID, rerr)
	}

	d1, d2 := g.Dice()
	sum := d1 + d2
	g.fireEvent(GameEvent{Type: EventDiceResult, Player: p.ID, Dice: []int{d1, d2}})
	g.logAction(p.ID, string(EventDiceResult), map[string]interface{}{"dice": []int{d1, d2}})

	if sum == 7 {
		g.startSeven(p)
		return nil
	}

	yields := g.Board.yields(sum)
	for _, pl := range g.Players {
		if r, ok := yields[pl.ID]; ok {
			g.earn(pl, r)
		}
	}
	p.Status = models.StatusTradeOrBuild
	for _, pl := range g.Players {
		g.broadcastStatus(pl)
	}
	return nil
}

// startSeven flags every player over the hand limit for discarding.
// Assumes lock is held.
func (g *CatanGame) startSeven(roller *models.Player) {
	g.sevenRoller = roller.ID
	g.pendingDiscard = make(map[int]bool)
	for _, pl := range g.Players {
		if pl.Resources.Total() > g.Rules.HandLimit {
			g.pendingDiscard[pl.ID] = true
			pl.Status = models.StatusDiscardHalf
			g.broadcastStatus(pl)
		}
	}
	if len(g.pendingDiscard) == 0 {
		roller.Status = models.StatusMoveRobber
		g.broadcastStatus(roller)
		return
	}
	if !g.pendingDiscard[roller.ID] {
		roller.Status = models.StatusWaitingForTurn
		g.broadcastStatus(roller)
	}
}

// Discard returns cards to the bank after a 7.
func (g *CatanGame) Discard(playerID int, drop models.Resources) error {
	g.Mu.Lock()
	defer g.unlock()

	p, rerr := g.actor(playerID)
	if rerr == nil && (!g.pendingDiscard[playerID] || p.Status != models.StatusDiscardHalf) {
		rerr = illegal("you do not have to discard")
	}
	if rerr == nil {
		rerr = checkDiscard(p, drop)
	}
	if rerr != nil {
		return g.reject(playerID, rerr)
	}

	g.pay(p, drop)
	delete(g.pendingDiscard, playerID)
	p.Status = models.StatusWaitingForTurn
	g.logAction(playerID, "discard", map[string]interface{}{"cards": drop.Total()})

	if len(g.pendingDiscard) == 0 {
		if roller := g.getPlayerByID(g.sevenRoller); roller != nil {
			roller.Status = models.StatusMoveRobber
			if roller != p {
				g.broadcastStatus(roller)
			}
		}
	}
	g.broadcastStatus(p)
	return nil
}

// Build places a road, settlement or city.
func (g *CatanGame) Build(playerID int, kind models.BuildingKind, location string) error {
	g.Mu.Lock()
	defer g.unlock()

	p, rerr := g.actor(playerID)
	if rerr == nil {
		rerr = g.checkBuild(p, kind, normalize(location))
	}
	if rerr != nil {
		return g.reject(playerID, rerr)
	}
	location = normalize(location)

	initial := g.Phase == PhaseInitialPlacement
	if !initial {
		g.pay(p, BuildCost(kind))
	}
	g.placeBuilding(p, kind, location)

	if initial && kind == models.Settlement {
		g.initialSettlement[p.ID] = location
		if g.InitialTurnsLeft <= len(g.Players) {
			g.earn(p, g.Board.startingResources(location))
		}
		p.Status = models.StatusPlaceInitialRoad
		g.broadcastStatus(p)
	}
	g.updateLongestRoad()
	if g.checkWin() {
		return nil
	}
	if initial && kind == models.Road {
		g.advanceTurn()
	}
	return nil
}

// checkBuild is the construction predicate: status, pieces, resources, then placement.
// Assumes lock is held.
func (g *CatanGame) checkBuild(p *models.Player, kind models.BuildingKind, location string) *RuleError {
	switch p.Status {
	case models.StatusPlaceInitialSettlement:
		if kind != models.Settlement {
			return illegal("place your initial settlement first")
		}
	case models.StatusPlaceInitialRoad:
		if kind != models.Road {
			return illegal("place your initial road first")
		}
	case models.StatusTradeOrBuild:
	default:
		return illegal("you cannot build while in status %s", p.Status)
	}
	if err := requireInventory(p, kind); err != nil {
		return err
	}
	initial := g.Phase == PhaseInitialPlacement
	if !initial {
		if err := requireHolding(p, BuildCost(kind)); err != nil {
			return err
		}
	}
	switch kind {
	case models.Settlement:
		return g.Board.checkSettlement(p.ID, location, !initial)
	case models.City:
		return g.Board.checkCity(p.ID, location)
	case models.Road:
		anchor := ""
		if initial {
			anchor = g.initialSettlement[p.ID]
		}
		return g.Board.checkRoad(p.ID, location, anchor)
	}
	return illegal("unknown building kind")
}

// placeBuilding applies a validated construction without charging for it.
// Assumes lock is held.
func (g *CatanGame) placeBuilding(p *models.Player, kind models.BuildingKind, location string) {
	switch kind {
	case models.Road:
		p.Inventory.Roads--
	case models.Settlement:
		p.Inventory.Settlements--
		p.VictoryPoints++
	case models.City:
		p.Inventory.Cities--
		p.Inventory.Settlements++
		p.VictoryPoints++
	}
	b := models.Building{Owner: p.ID, Kind: kind, Location: location}
	g.Board.place(b)
	g.fireEvent(GameEvent{Type: EventBuildingPlaced, Player: p.ID, Building: &b})
	g.broadcastStatus(p)
	g.logAction(p.ID, string(EventBuildingPlaced), map[string]interface{}{"kind": kind.String(), "location": location})
}

// EndTurn passes the turn to the next player.
func (g *CatanGame) EndTurn(playerID int) error {
	g.Mu.Lock()
	defer g.unlock()

	p, rerr := g.actor(playerID)
	if rerr == nil {
		rerr = requireStatus(p, models.StatusTradeOrBuild)
	}
	if rerr != nil {
		return g.reject(playerID, rerr)
	}

	g.abandonTradesOf(p.ID)
	p.BoughtThisRound = models.DevCards{}
	p.PlayedDevCard = false
	g.logAction(p.ID, "end_turn", nil)
	g.advanceTurn()
	return nil
}

// advanceTurn moves to the next player: snake order during initial placement,
// strict rotation afterwards.
// Assumes lock is held.
func (g *CatanGame) advanceTurn() {
	n := len(g.Players)
	prev := g.currentPlayer()
	next := (g.CurrentPlayerIndex + 1) % n

	if g.Phase == PhaseInitialPlacement {
		g.InitialTurnsLeft--
		switch {
		case g.InitialTurnsLeft == 0:
			next = 0
			g.Phase = PhaseMain
		case g.InitialTurnsLeft == n:
			next = g.CurrentPlayerIndex
		case g.InitialTurnsLeft < n:
			next = g.CurrentPlayerIndex - 1
		}
	}

	g.CurrentPlayerIndex = next
	g.TurnID++
	cur := g.currentPlayer()
	if prev != cur {
		prev.Status = models.StatusWaitingForTurn
		g.broadcastStatus(prev)
	}
	if g.Phase == PhaseInitialPlacement {
		cur.Status = models.StatusPlaceInitialSettlement
	} else {
		cur.Status = models.StatusRollDice
	}
	g.broadcastStatus(cur)
	log.Printf("Game %s: turn %d goes to player %d (%s)", g.ID, g.TurnID, cur.ID, g.Phase)
}
