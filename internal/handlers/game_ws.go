package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/febuchner/settlers-of-catan/internal/game"
	"github.com/febuchner/settlers-of-catan/internal/middleware"
	"github.com/febuchner/settlers-of-catan/internal/protocol"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the websocket subprotocol clients must request.
const Subprotocol = "catan"

const writeTimeout = 5 * time.Second

var errChatThrottled = &game.RuleError{Kind: game.KindIllegalAction, Message: "chat rate exceeded"}

// GameWSHandler upgrades the connection, attaches it to the current session
// and runs its read loop until the client leaves or the session ends.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origins := gs.opts.OriginPatterns
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: origins,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the catan subprotocol")
			return
		}

		g := gs.Table.Current()
		sess := gs.session(g.ID)
		if sess == nil {
			c.Close(TableClosedError, "session is closing")
			return
		}

		cl := newClient(gs.newChatLimiter())
		playerID, err := sess.connect(cl)
		if err != nil {
			c.Close(TableClosedError, err.Error())
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)
		logger.Infof("player %d connected to game %s", playerID, g.ID)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			writePump(ctx, c, cl, logger)
			cancel()
		}()

		readErr := readPump(ctx, c, gs, sess, cl, logger)

		sess.remove(cl)
		g.HandleDisconnect(playerID)
		sess.closeIfEnded()
		<-writerDone
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, readErr)
	}
}

// writePump sends queued frames in order. A closed queue ends the
// connection normally once everything before it has been written.
func writePump(ctx context.Context, c *websocket.Conn, cl *client, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-cl.send:
			if !ok {
				if cl.slow {
					c.Close(SlowConsumerError, "outbound queue overflow")
				} else {
					c.Close(websocket.StatusNormalClosure, "session closed")
				}
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("write to player %d failed: %v", cl.playerID, err)
				return
			}
		}
	}
}

// readPump decodes requests and hands them to the engine one at a time.
func readPump(ctx context.Context, c *websocket.Conn, gs *GameServer, sess *session, cl *client, logger *logrus.Logger) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			logger.Warnf("ignoring binary frame from player %d", cl.playerID)
			continue
		}

		env, req, err := protocol.Decode(data)
		if err != nil {
			logger.Debugf("bad frame from player %d: %v", cl.playerID, err)
			sess.reply(cl, protocol.NewAck(env, err))
			continue
		}
		if _, ok := req.(*protocol.PingRequest); ok {
			sess.reply(cl, map[string]string{"type": "pong"})
			continue
		}

		err = gs.dispatch(sess.game, cl, req)
		sess.reply(cl, protocol.NewAck(env, err))
		if sess.closeIfEnded() {
			return nil
		}
	}
}

// dispatch applies one decoded request to the engine.
func (gs *GameServer) dispatch(g *game.CatanGame, cl *client, req protocol.Request) error {
	id := cl.playerID
	switch m := req.(type) {
	case *protocol.JoinRequest:
		if !gs.opts.Guard.Admit(m.Password) {
			return &game.RuleError{Kind: game.KindIllegalAction, Message: "wrong table password"}
		}
		return g.Join(id, m.Name, m.Color)
	case *protocol.ReadyRequest:
		return g.Ready(id)
	case *protocol.RollDiceRequest:
		return g.RollDice(id)
	case *protocol.BuildRequest:
		return g.Build(id, m.Kind, m.Location)
	case *protocol.DiscardRequest:
		return g.Discard(id, m.Resources)
	case *protocol.MoveRobberRequest:
		return g.MoveRobber(id, m.Location, m.Target)
	case *protocol.PlayKnightRequest:
		return g.PlayKnight(id, m.Location, m.Target)
	case *protocol.PlayRoadBuildingRequest:
		return g.PlayRoadBuilding(id, m.First, m.Second)
	case *protocol.PlayMonopolyRequest:
		return g.PlayMonopoly(id, m.Resource)
	case *protocol.PlayYearOfPlentyRequest:
		return g.PlayYearOfPlenty(id, m.First, m.Second)
	case *protocol.OfferTradeRequest:
		_, err := g.OfferTrade(id, m.Offer, m.Request)
		return err
	case *protocol.RespondTradeRequest:
		return g.RespondTrade(id, m.TradeID, m.Accept)
	case *protocol.ExecuteTradeRequest:
		return g.ExecuteTrade(id, m.TradeID, m.Counterparty)
	case *protocol.AbandonTradeRequest:
		return g.AbandonTrade(id, m.TradeID)
	case *protocol.MaritimeTradeRequest:
		return g.MaritimeTrade(id, m.Offer, m.Request)
	case *protocol.BuyDevCardRequest:
		return g.BuyDevelopmentCard(id)
	case *protocol.SendChatRequest:
		if !cl.chat.Allow() {
			return errChatThrottled
		}
		return g.Chat(id, m.Text)
	case *protocol.EndTurnRequest:
		return g.EndTurn(id)
	case *protocol.RequestSnapshotRequest:
		return g.RequestSnapshot(id)
	case *protocol.PingRequest:
		return nil
	}
	return protocol.ErrUnknownType
}
