// internal/game/game.go
package game

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/febuchner/settlers-of-catan/internal/cache"
	"github.com/febuchner/settlers-of-catan/internal/models"
	"github.com/google/uuid"
)

// OnGameEndFunc receives the final result of a session, won or aborted.
type OnGameEndFunc func(result models.GameResult)

// Phase is the global phase of a session.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseInitialPlacement
	PhaseMain
	PhaseOver
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseInitialPlacement:
		return "initial_placement"
	case PhaseMain:
		return "main"
	case PhaseOver:
		return "over"
	}
	return "unknown"
}

const maxChatLength = 500

// CatanGame holds the entire state of one session. Every exported operation
// takes Mu for its whole duration, so all mutations are serialized.
type CatanGame struct {
	ID    uuid.UUID
	Rules Rules

	// Players is in turn order once the game has started.
	Players []*models.Player
	Bank    *Bank
	Board   *Board

	Phase              Phase
	Started            bool
	GameOver           bool
	InitialTurnsLeft   int
	CurrentPlayerIndex int
	TurnID             int
	StartedAt          time.Time

	// 7-roll bookkeeping: who rolled and who still owes a discard.
	sevenRoller    int
	pendingDiscard map[int]bool

	trades      map[int]*TradeOffer
	nextTradeID int

	initialSettlement map[int]string
	longestRoadHolder int
	largestArmyHolder int
	largestArmySize   int
	deck              []models.DevCardKind

	conns        map[int]bool
	nextPlayerID int

	seq         int64
	pending     []outbound
	actionIndex int

	rng *rand.Rand
	// Dice rolls two six-sided dice. Tests replace it with a script.
	Dice func() (int, int)
	// GenerateBoard builds the layout at game start.
	GenerateBoard BoardGenerator

	Mu sync.Mutex

	// BroadcastFn is used to send events to all connected clients. If nil, no broadcast is done.
	BroadcastFn func(ev GameEvent)

	// BroadcastToPlayerFn sends an event to a single connected client.
	BroadcastToPlayerFn func(playerID int, ev GameEvent)

	// IssueTokenFn, if set, signs the session token carried by the welcome event.
	IssueTokenFn func(gameID uuid.UUID, playerID int) (string, error)

	// OnGameEnd is invoked once when the session ends.
	OnGameEnd OnGameEndFunc
}

// NewCatanGame builds an empty session waiting for players.
func NewCatanGame(rules Rules) *CatanGame {
	id, _ := uuid.NewRandom()
	g := &CatanGame{
		ID:            id,
		Rules:         rules,
		conns:         make(map[int]bool),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		GenerateBoard: GenerateBoard,
	}
	g.Dice = g.rollDice
	g.clearSession()
	return g
}

// SetRand replaces the random source used for shuffles, steals and the default dice.
func (g *CatanGame) SetRand(r *rand.Rand) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.rng = r
	g.deck = newDevDeck(r)
}

func (g *CatanGame) rollDice() (int, int) {
	return g.rng.Intn(6) + 1, g.rng.Intn(6) + 1
}

// clearSession wipes players, bank, board, trades and deck.
func (g *CatanGame) clearSession() {
	g.Players = nil
	g.Bank = NewBank(g.Rules.BankSupply)
	g.Board = nil
	g.InitialTurnsLeft = 0
	g.CurrentPlayerIndex = 0
	g.sevenRoller = 0
	g.pendingDiscard = make(map[int]bool)
	g.trades = make(map[int]*TradeOffer)
	g.initialSettlement = make(map[int]string)
	g.longestRoadHolder = 0
	g.largestArmyHolder = 0
	g.largestArmySize = g.Rules.LargestArmyMin - 1
	g.deck = newDevDeck(g.rng)
}

// unlock hands every queued event to the transport, then releases Mu.
// Events leave only after the operation that produced them has finished mutating state.
func (g *CatanGame) unlock() {
	g.flush()
	g.Mu.Unlock()
}

func (g *CatanGame) flush() {
	queue := g.pending
	g.pending = nil
	for _, o := range queue {
		switch {
		case o.to != 0:
			if g.BroadcastToPlayerFn != nil {
				g.BroadcastToPlayerFn(o.to, o.ev)
			}
		case o.except != 0:
			if g.BroadcastToPlayerFn == nil {
				continue
			}
			for _, id := range g.connectedIDs() {
				if id != o.except {
					g.BroadcastToPlayerFn(id, o.ev)
				}
			}
		default:
			if g.BroadcastFn != nil {
				g.BroadcastFn(o.ev)
			} else {
				log.Printf("Warning: BroadcastFn is nil for game %s, cannot broadcast event type %s.", g.ID, o.ev.Type)
			}
		}
	}
}

func (g *CatanGame) connectedIDs() []int {
	ids := make([]int, 0, len(g.conns))
	for id := range g.conns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (g *CatanGame) stamp(ev GameEvent) GameEvent {
	g.seq++
	ev.Seq = g.seq
	return ev
}

// fireEvent queues an event for every connected client.
// Assumes lock is held.
func (g *CatanGame) fireEvent(ev GameEvent) {
	g.pending = append(g.pending, outbound{ev: g.stamp(ev)})
}

// fireEventToPlayer queues an event for one client.
// Assumes lock is held.
func (g *CatanGame) fireEventToPlayer(playerID int, ev GameEvent) {
	if !g.conns[playerID] {
		return
	}
	g.pending = append(g.pending, outbound{to: playerID, ev: g.stamp(ev)})
}

// fireEventToOthers queues an event for every client except one.
// Assumes lock is held.
func (g *CatanGame) fireEventToOthers(playerID int, ev GameEvent) {
	g.pending = append(g.pending, outbound{except: playerID, ev: g.stamp(ev)})
}

// reject reports a refused request to its sender only and returns the error unchanged.
// Assumes lock is held.
func (g *CatanGame) reject(playerID int, err *RuleError) error {
	log.Printf("Game %s: rejected request from player %d: %v", g.ID, playerID, err)
	g.fireEventToPlayer(playerID, GameEvent{
		Type:  EventError,
		Error: &ErrorInfo{Kind: err.Kind, Message: err.Message},
	})
	return err
}

// getPlayerByID is a helper to find a joined player by id.
// Assumes lock is held by caller.
func (g *CatanGame) getPlayerByID(playerID int) *models.Player {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// actor resolves the requesting player and checks the session accepts moves.
// Assumes lock is held.
func (g *CatanGame) actor(playerID int) (*models.Player, *RuleError) {
	if g.GameOver {
		return nil, illegal("the game is over")
	}
	p := g.getPlayerByID(playerID)
	if p == nil {
		return nil, illegal("you have not joined the game")
	}
	if !g.Started {
		return nil, illegal("the game has not started")
	}
	return p, nil
}

func (g *CatanGame) currentPlayer() *models.Player {
	if len(g.Players) == 0 {
		return nil
	}
	return g.Players[g.CurrentPlayerIndex]
}

// broadcastStatus sends the owner an exact status update and everyone else a hidden one.
// Assumes lock is held.
func (g *CatanGame) broadcastStatus(p *models.Player) {
	own := p.ViewFor(p.ID)
	g.fireEventToPlayer(p.ID, GameEvent{Type: EventPlayerStatus, Player: p.ID, Status: &own})
	hidden := p.ViewFor(0)
	g.fireEventToOthers(p.ID, GameEvent{Type: EventPlayerStatus, Player: p.ID, Status: &hidden})
}

// Connect registers a new client and assigns its player id.
func (g *CatanGame) Connect() (int, error) {
	g.Mu.Lock()
	defer g.unlock()

	if g.GameOver {
		return 0, illegal("the game is over")
	}
	if g.Started {
		return 0, illegal("game was already started")
	}
	g.nextPlayerID++
	id := g.nextPlayerID
	g.conns[id] = true

	welcome := GameEvent{Type: EventWelcome, Player: id}
	if g.IssueTokenFn != nil {
		token, err := g.IssueTokenFn(g.ID, id)
		if err != nil {
			log.Printf("Game %s: failed to issue session token for player %d: %v", g.ID, id, err)
		} else {
			welcome.Token = token
		}
	}
	g.fireEventToPlayer(id, welcome)
	for _, p := range g.Players {
		v := p.ViewFor(id)
		g.fireEventToPlayer(id, GameEvent{Type: EventPlayerStatus, Player: p.ID, Status: &v})
	}
	log.Printf("Connection %d opened on game %s", id, g.ID)
	return id, nil
}

// Join seats a connected client with a name and a color.
func (g *CatanGame) Join(playerID int, name string, color models.Color) error {
	g.Mu.Lock()
	defer g.unlock()

	switch {
	case g.GameOver:
		return g.reject(playerID, illegal("the game is over"))
	case g.Started:
		return g.reject(playerID, illegal("game was already started"))
	case !g.conns[playerID]:
		return illegal("unknown connection %d", playerID)
	case g.getPlayerByID(playerID) != nil:
		return g.reject(playerID, illegal("you already joined"))
	case !color.Valid():
		return g.reject(playerID, illegal("unknown color %q", color))
	case len(g.Players) >= g.Rules.MaxPlayers:
		return g.reject(playerID, illegal("the table is full"))
	}
	for _, p := range g.Players {
		if p.Color == color {
			return g.reject(playerID, &RuleError{Kind: KindDuplicateColor, Message: fmt.Sprintf("color %s is already taken", color)})
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Player %d", playerID)
	}
	if len(name) > 32 {
		name = name[:32]
	}

	p := &models.Player{
		ID:        playerID,
		Name:      name,
		Color:     color,
		Status:    models.StatusLobby,
		Connected: true,
		Inventory: g.Rules.inventory(),
	}
	g.Players = append(g.Players, p)
	g.broadcastStatus(p)
	g.logAction(playerID, "player_join", map[string]interface{}{"name": name, "color": color})
	log.Printf("Player %d (%s, %s) joined game %s", playerID, name, color, g.ID)
	return nil
}

// Ready marks a seated player ready. The game starts once every seated player is ready.
func (g *CatanGame) Ready(playerID int) error {
	g.Mu.Lock()
	defer g.unlock()

	if g.GameOver {
		return g.reject(playerID, illegal("the game is over"))
	}
	p := g.getPlayerByID(playerID)
	if p == nil {
		return g.reject(playerID, illegal("you have not joined the game"))
	}
	if g.Started || p.Status != models.StatusLobby {
		return g.reject(playerID, illegal("you are already ready"))
	}
	p.Status = models.StatusWaitingForStart
	g.broadcastStatus(p)
	g.logAction(playerID, "player_ready", nil)
	return g.maybeStart()
}

// maybeStart starts the game when every seated player is ready.
// Assumes lock is held.
func (g *CatanGame) maybeStart() error {
	if g.Started || len(g.Players) == 0 {
		return nil
	}
	for _, p := range g.Players {
		if p.Status != models.StatusWaitingForStart {
			return nil
		}
	}
	if len(g.Players) < g.Rules.MinPlayers {
		return nil
	}
	if err := g.startGame(); err != nil {
		g.abort(err)
		return err
	}
	return nil
}

// startGame generates the board, shuffles the seating and opens initial placement.
// Assumes lock is held.
func (g *CatanGame) startGame() *RuleError {
	turns := 2 * len(g.Players)
	if turns < 6 {
		return &RuleError{Kind: KindConfigurationFault, Message: fmt.Sprintf("initial placement needs at least 6 turns, got %d", turns)}
	}
	g.Started = true
	g.StartedAt = time.Now()
	g.Phase = PhaseInitialPlacement
	g.InitialTurnsLeft = turns

	fields, ports := g.GenerateBoard(g.rng)
	g.Board = NewBoard(fields, ports)

	g.rng.Shuffle(len(g.Players), func(i, j int) { g.Players[i], g.Players[j] = g.Players[j], g.Players[i] })
	g.CurrentPlayerIndex = 0
	for _, p := range g.Players {
		p.Status = models.StatusWaitingForTurn
	}
	g.Players[0].Status = models.StatusPlaceInitialSettlement

	for _, id := range g.connectedIDs() {
		snap := g.snapshotFor(id)
		g.fireEventToPlayer(id, GameEvent{Type: EventBoardSnapshot, State: &snap})
	}
	for _, p := range g.Players {
		g.broadcastStatus(p)
	}

	order := make([]int, len(g.Players))
	for i, p := range g.Players {
		order[i] = p.ID
	}
	g.logAction(0, "game_start", map[string]interface{}{"order": order, "robber": g.Board.Robber})
	log.Printf("Game %s started with %d players, turn order %v.", g.ID, len(g.Players), order)
	return nil
}

// abort ends a session that cannot continue.
// Assumes lock is held.
func (g *CatanGame) abort(err *RuleError) {
	log.Printf("Game %s: aborting session: %v", g.ID, err)
	g.fireEvent(GameEvent{Type: EventError, Error: &ErrorInfo{Kind: err.Kind, Message: err.Message}})
	g.finish(nil, err.Message)
}

// HandleDisconnect forgets a client. Before the game starts the seat is freed;
// afterwards the player stays seated and is shown as disconnected.
func (g *CatanGame) HandleDisconnect(playerID int) {
	g.Mu.Lock()
	defer g.unlock()

	delete(g.conns, playerID)
	if g.GameOver {
		return
	}
	p := g.getPlayerByID(playerID)
	if p == nil {
		return
	}
	g.logAction(playerID, "player_disconnect", nil)
	if !g.Started {
		for i, pl := range g.Players {
			if pl.ID == playerID {
				g.Players = append(g.Players[:i], g.Players[i+1:]...)
				break
			}
		}
		g.fireEvent(GameEvent{Type: EventPlayerLeft, Player: playerID})
		log.Printf("Player %d left the lobby of game %s", playerID, g.ID)
		_ = g.maybeStart()
		return
	}
	p.Connected = false
	g.broadcastStatus(p)
	log.Printf("Player %d disconnected from game %s", playerID, g.ID)
}

// Chat relays a chat line from a seated player to everyone.
func (g *CatanGame) Chat(playerID int, text string) error {
	g.Mu.Lock()
	defer g.unlock()

	if g.GameOver {
		return g.reject(playerID, illegal("the game is over"))
	}
	if g.getPlayerByID(playerID) == nil {
		return g.reject(playerID, illegal("you have not joined the game"))
	}
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxChatLength {
		return g.reject(playerID, illegal("chat messages must be 1 to %d characters", maxChatLength))
	}
	g.fireEvent(GameEvent{Type: EventChat, Player: playerID, Message: text})
	return nil
}

// checkWin ends the game if someone reached the target, looking at the acting player first.
// Assumes lock is held.
func (g *CatanGame) checkWin() bool {
	if g.GameOver || len(g.Players) == 0 {
		return g.GameOver
	}
	n := len(g.Players)
	for i := 0; i < n; i++ {
		p := g.Players[(g.CurrentPlayerIndex+i)%n]
		if p.Score() >= g.Rules.PointsToWin {
			g.endGame(p)
			return true
		}
	}
	return false
}

// endGame announces the winner and wipes the session.
// Assumes lock is held.
func (g *CatanGame) endGame(winner *models.Player) {
	scores := make(map[string]int, len(g.Players))
	for _, p := range g.Players {
		scores[fmt.Sprint(p.ID)] = p.Score()
	}
	g.fireEvent(GameEvent{
		Type:    EventGameOver,
		Player:  winner.ID,
		Message: fmt.Sprintf("%s has won the game!", winner.Name),
		Payload: map[string]interface{}{"scores": scores},
	})
	log.Printf("Game %s: Ended. Winner: player %d (%s). Scores: %v", g.ID, winner.ID, winner.Name, scores)
	g.finish(winner, "")
}

// finish records the result, marks the session over and resets all state.
// Assumes lock is held.
func (g *CatanGame) finish(winner *models.Player, reason string) {
	result := models.GameResult{
		GameID:    g.ID,
		Aborted:   winner == nil,
		Reason:    reason,
		StartedAt: g.StartedAt,
		EndedAt:   time.Now(),
	}
	if winner != nil {
		result.Winner = winner.ID
	}
	for _, p := range g.Players {
		result.Players = append(result.Players, models.PlayerResult{
			PlayerID:       p.ID,
			Name:           p.Name,
			Color:          p.Color,
			Points:         p.Score(),
			Knights:        p.Knights,
			HasLongestRoad: p.HasLongestRoad,
			HasLargestArmy: p.HasLargestArmy,
		})
	}
	g.GameOver = true
	g.Started = false
	g.Phase = PhaseOver
	g.logAction(result.Winner, string(EventGameOver), map[string]interface{}{"aborted": result.Aborted, "reason": reason})

	if g.OnGameEnd != nil {
		g.OnGameEnd(result)
	}
	g.clearSession()
}

// logAction sends the action details to the historian queue via Redis.
// Assumes lock is held by caller.
func (g *CatanGame) logAction(actorID int, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		GameID:        g.ID,
		ActionIndex:   g.actionIndex,
		ActorPlayerID: actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	if cache.Rdb == nil {
		return
	}
	go func(rec cache.GameActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishGameAction(ctx, rec); err != nil {
			log.Printf("Error publishing game action %d to Redis for game %s: %v", rec.ActionIndex, g.ID, err)
		}
	}(record)
}
