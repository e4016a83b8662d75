package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/febuchner/settlers-of-catan/internal/auth"
	"github.com/febuchner/settlers-of-catan/internal/database"
	"github.com/febuchner/settlers-of-catan/internal/game"
	"github.com/febuchner/settlers-of-catan/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// sendQueueSize bounds each client's outbound queue.
const sendQueueSize = 256

// ServerOptions configures a GameServer.
type ServerOptions struct {
	Rules          game.Rules
	Results        database.ResultStore // nil disables result recording
	Guard          *auth.TableGuard     // nil leaves the table open
	ChatRatePerSec float64
	ChatBurst      int
	OriginPatterns []string
}

// GameServer owns the table and the websocket clients attached to its sessions.
type GameServer struct {
	Table *game.Table

	opts   ServerOptions
	logger *logrus.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	wg       sync.WaitGroup
}

// NewGameServer builds the server and opens the first session.
func NewGameServer(logger *logrus.Logger, opts ServerOptions) *GameServer {
	if opts.ChatRatePerSec <= 0 {
		opts.ChatRatePerSec = 1
	}
	if opts.ChatBurst <= 0 {
		opts.ChatBurst = 5
	}
	gs := &GameServer{
		opts:     opts,
		logger:   logger,
		sessions: make(map[uuid.UUID]*session),
	}
	gs.Table = game.NewTable(gs.newGame)
	return gs
}

// newGame builds a session wired to this server's transport and stores.
func (gs *GameServer) newGame() *game.CatanGame {
	g := game.NewCatanGame(gs.opts.Rules)
	sess := &session{
		game:    g,
		clients: make(map[int]*client),
		logger:  gs.logger,
	}
	g.BroadcastFn = sess.broadcast
	g.BroadcastToPlayerFn = sess.sendTo
	g.IssueTokenFn = auth.CreateJWT
	g.OnGameEnd = func(result models.GameResult) {
		sess.markEnded()
		gs.recordResult(result)
		gs.Table.Replace(g.ID)
		gs.mu.Lock()
		delete(gs.sessions, g.ID)
		gs.mu.Unlock()
	}

	gs.mu.Lock()
	gs.sessions[g.ID] = sess
	gs.mu.Unlock()
	gs.logger.Infof("opened session %s", g.ID)
	return g
}

func (gs *GameServer) session(id uuid.UUID) *session {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.sessions[id]
}

// recordResult persists the result without holding up the engine.
func (gs *GameServer) recordResult(result models.GameResult) {
	entry := gs.logger.WithFields(logrus.Fields{
		"game":    result.GameID,
		"winner":  result.Winner,
		"aborted": result.Aborted,
	})
	entry.Info("session ended")
	if gs.opts.Results == nil {
		return
	}
	gs.wg.Add(1)
	go func() {
		defer gs.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := gs.opts.Results.RecordGameResult(ctx, result); err != nil {
			entry.WithError(err).Error("failed to record game result")
		}
	}()
}

// Wait blocks until pending result writes have finished.
func (gs *GameServer) Wait() {
	gs.wg.Wait()
}

func (gs *GameServer) newChatLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(gs.opts.ChatRatePerSec), gs.opts.ChatBurst)
}

// client is one websocket connection. The writer goroutine drains send in order.
// closed and slow are guarded by the owning session's mu.
type client struct {
	playerID int
	send     chan []byte
	chat     *rate.Limiter

	closed bool
	slow   bool
}

func newClient(limiter *rate.Limiter) *client {
	return &client{send: make(chan []byte, sendQueueSize), chat: limiter}
}

// close ends the queue. Assumes the session's mu is held.
func (c *client) close() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// session fans engine events out to the clients of one game.
type session struct {
	game   *game.CatanGame
	logger *logrus.Logger

	// connectMu serializes Connect calls so the welcome event can be bound to its client.
	connectMu sync.Mutex

	mu      sync.Mutex
	clients map[int]*client
	joining *client
	ended   bool
}

// connect registers c and asks the engine for a player id.
func (s *session) connect(c *client) (int, error) {
	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	s.mu.Lock()
	s.joining = c
	s.mu.Unlock()

	id, err := s.game.Connect()

	s.mu.Lock()
	s.joining = nil
	s.mu.Unlock()
	return id, err
}

// remove detaches a client and closes its queue.
func (s *session) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[c.playerID] == c {
		delete(s.clients, c.playerID)
	}
	c.close()
}

func (s *session) markEnded() {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
}

// closeIfEnded closes every queue once the session has finished. Writers
// drain what is queued, then close their sockets normally.
func (s *session) closeIfEnded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ended {
		return false
	}
	for _, c := range s.clients {
		c.close()
	}
	return true
}

// enqueue never blocks the engine; a client that cannot keep up is cut off.
// Assumes s.mu is held.
func (s *session) enqueue(c *client, data []byte) {
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.slow = true
		s.logger.Warnf("player %d in game %s is not reading; dropping connection", c.playerID, s.game.ID)
		c.close()
	}
}

// broadcast is the engine's BroadcastFn. It runs under the game lock.
func (s *session) broadcast(ev game.GameEvent) {
	data := game.EncodeEvent(ev)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		s.enqueue(c, data)
	}
}

// sendTo is the engine's BroadcastToPlayerFn. It runs under the game lock.
func (s *session) sendTo(playerID int, ev game.GameEvent) {
	data := game.EncodeEvent(ev)
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.Type == game.EventWelcome && s.joining != nil && ev.Player == playerID {
		s.joining.playerID = playerID
		s.clients[playerID] = s.joining
		s.joining = nil
	}
	if c := s.clients[playerID]; c != nil {
		s.enqueue(c, data)
	}
}

// reply queues a transport-level message (ack, pong) for one client.
func (s *session) reply(c *client, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Errorf("failed to marshal reply: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[c.playerID] != c {
		return
	}
	s.enqueue(c, data)
}
