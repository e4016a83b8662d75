package game

import (
	"sort"

	"github.com/febuchner/settlers-of-catan/internal/models"
)

// TradeOffer is an open domestic offer.
type TradeOffer struct {
	ID        int
	Offerer   int
	Offer     models.Resources
	Request   models.Resources
	Acceptors map[int]bool
}

func (t *TradeOffer) event() *EventTrade {
	return &EventTrade{ID: t.ID, Offerer: t.Offerer, Offer: t.Offer.Exact(), Request: t.Request.Exact()}
}

// OfferTrade opens a domestic offer and returns its id.
func (g *CatanGame) OfferTrade(playerID int, offer, request models.Resources) (int, error) {
	g.Mu.Lock()
	defer g.unlock()

	p, rerr := g.actor(playerID)
	if rerr == nil {
		rerr = requireStatus(p, models.StatusTradeOrBuild)
	}
	if rerr == nil {
		rerr = checkTradeBundles(offer, request)
	}
	if rerr == nil && !p.Resources.Covers(offer) {
		rerr = badTrade("you do not hold the offered resources")
	}
	if rerr != nil {
		return 0, g.reject(playerID, rerr)
	}

	g.nextTradeID++
	t := &TradeOffer{
		ID:        g.nextTradeID,
		Offerer:   p.ID,
		Offer:     offer,
		Request:   request,
		Acceptors: make(map[int]bool),
	}
	g.trades[t.ID] = t
	g.fireEvent(GameEvent{Type: EventTradeOffered, Player: p.ID, Trade: t.event()})
	g.logAction(p.ID, string(EventTradeOffered), map[string]interface{}{"trade": t.ID})
	return t.ID, nil
}

// RespondTrade records an acceptance or broadcasts an advisory decline.
func (g *CatanGame) RespondTrade(playerID, tradeID int, accept bool) error {
	g.Mu.Lock()
	defer g.unlock()

	p, rerr := g.actor(playerID)
	var t *TradeOffer
	if rerr == nil {
		t, rerr = g.openTrade(tradeID)
	}
	if rerr == nil && t.Offerer == playerID {
		rerr = illegal("you cannot respond to your own offer")
	}
	if rerr == nil && accept {
		rerr = requireHolding(p, t.Request)
	}
	if rerr != nil {
		return g.reject(playerID, rerr)
	}

	ev := GameEvent{Type: EventTradeResponse, Player: playerID, Trade: t.event()}
	ev.Trade.Accepted = &accept
	if accept {
		t.Acceptors[playerID] = true
		g.fireEvent(ev)
	} else {
		delete(t.Acceptors, playerID)
		g.fireEventToOthers(playerID, ev)
	}
	return nil
}

// ExecuteTrade completes an offer with one of its acceptors.
func (g *CatanGame) ExecuteTrade(playerID, tradeID, counterpartyID int) error {
	g.Mu.Lock()
	defer g.unlock()

	p, rerr := g.actor(playerID)
	var t *TradeOffer
	if rerr == nil {
		t, rerr = g.openTrade(tradeID)
	}
	if rerr == nil && t.Offerer != playerID {
		rerr = illegal("only the offering player can execute trade %d", tradeID)
	}
	if rerr == nil {
		rerr = requireStatus(p, models.StatusTradeOrBuild)
	}
	if rerr == nil && !t.Acceptors[counterpartyID] {
		rerr = illegal("player %d has not accepted trade %d", counterpartyID, tradeID)
	}
	var cp *models.Player
	if rerr == nil {
		cp = g.getPlayerByID(counterpartyID)
		if cp == nil {
			rerr = illegal("unknown player %d", counterpartyID)
		}
	}
	if rerr == nil {
		rerr = requireHolding(p, t.Offer)
	}
	if rerr == nil && !cp.Resources.Covers(t.Request) {
		rerr = insufficient("player %d no longer holds the requested resources", counterpartyID)
	}
	if rerr != nil {
		return g.reject(playerID, rerr)
	}

	delete(g.trades, tradeID)
	g.transfer(p, cp, t.Offer)
	g.transfer(cp, p, t.Request)
	g.fireEvent(GameEvent{Type: EventTradeExecuted, Player: p.ID, Target: cp.ID, Trade: t.event()})
	g.broadcastStatus(p)
	g.broadcastStatus(cp)
	g.logAction(p.ID, string(EventTradeExecuted), map[string]interface{}{"trade": tradeID, "counterparty": cp.ID})
	return nil
}

// AbandonTrade withdraws an open offer.
func (g *CatanGame) AbandonTrade(playerID, tradeID int) error {
	g.Mu.Lock()
	defer g.unlock()

	_, rerr := g.actor(playerID)
	var t *TradeOffer
	if rerr == nil {
		t, rerr = g.openTrade(tradeID)
	}
	if rerr == nil && t.Offerer != playerID {
		rerr = illegal("only the offering player can abandon trade %d", tradeID)
	}
	if rerr != nil {
		return g.reject(playerID, rerr)
	}
	g.dropTrade(t)
	return nil
}

func (g *CatanGame) openTrade(tradeID int) (*TradeOffer, *RuleError) {
	t, ok := g.trades[tradeID]
	if !ok {
		return nil, illegal("trade %d is not open", tradeID)
	}
	return t, nil
}

// dropTrade removes an offer and tells everyone.
// Assumes lock is held.
func (g *CatanGame) dropTrade(t *TradeOffer) {
	delete(g.trades, t.ID)
	g.fireEvent(GameEvent{Type: EventTradeAbandoned, Player: t.Offerer, Trade: &EventTrade{ID: t.ID, Offerer: t.Offerer}})
	g.logAction(t.Offerer, string(EventTradeAbandoned), map[string]interface{}{"trade": t.ID})
}

// abandonTradesOf drops every open offer of one player, oldest first.
// Assumes lock is held.
func (g *CatanGame) abandonTradesOf(playerID int) {
	var ids []int
	for id, t := range g.trades {
		if t.Offerer == playerID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	for _, id := range ids {
		g.dropTrade(g.trades[id])
	}
}

// MaritimeTrade exchanges resources with the bank at the player's port ratios.
func (g *CatanGame) MaritimeTrade(playerID int, offer, request models.Resources) error {
	g.Mu.Lock()
	defer g.unlock()

	p, rerr := g.actor(playerID)
	if rerr == nil {
		rerr = requireStatus(p, models.StatusTradeOrBuild)
	}
	if rerr == nil {
		rerr = checkMaritime(g.Board.ratios(p.ID), offer, request)
	}
	if rerr == nil {
		rerr = requireHolding(p, offer)
	}
	if rerr == nil && !g.Bank.Supply.Covers(request) {
		rerr = insufficient("the bank does not have the requested resources")
	}
	if rerr != nil {
		return g.reject(playerID, rerr)
	}

	g.pay(p, offer)
	g.earn(p, request)
	g.broadcastStatus(p)
	g.logAction(p.ID, "maritime_trade", map[string]interface{}{"offer": offer, "request": request})
	return nil
}
