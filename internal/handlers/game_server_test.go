package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/febuchner/settlers-of-catan/internal/auth"
	"github.com/febuchner/settlers-of-catan/internal/game"
	"github.com/febuchner/settlers-of-catan/internal/models"
	"github.com/febuchner/settlers-of-catan/internal/protocol"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := auth.Init(time.Hour); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// frame is the subset of outbound messages the tests look at.
type frame struct {
	Type   string `json:"type"`
	Seq    int64  `json:"seq"`
	Player int    `json:"player"`
	Token  string `json:"token"`
	OK     bool   `json:"ok"`
	Error  *struct {
		Kind string `json:"kind"`
	} `json:"error"`
}

type memoryResults struct {
	mu      sync.Mutex
	results []models.GameResult
}

func (m *memoryResults) RecordGameResult(_ context.Context, r models.GameResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	return nil
}

func (m *memoryResults) RecentResults(_ context.Context, limit int) ([]models.GameResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[:min(limit, len(m.results))], nil
}

func (m *memoryResults) Close() error { return nil }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestServer(t *testing.T, opts ServerOptions) *GameServer {
	t.Helper()
	if opts.Rules == (game.Rules{}) {
		opts.Rules = game.DefaultRules()
	}
	return NewGameServer(quietLogger(), opts)
}

// attach connects a channel-backed client to the current session.
func attach(t *testing.T, gs *GameServer) (*session, *client) {
	t.Helper()
	g := gs.Table.Current()
	sess := gs.session(g.ID)
	require.NotNil(t, sess)
	cl := newClient(gs.newChatLimiter())
	id, err := sess.connect(cl)
	require.NoError(t, err)
	require.Equal(t, id, cl.playerID, "welcome binds the client to its id")
	return sess, cl
}

// drain decodes everything currently queued for a client.
func drain(t *testing.T, cl *client) []frame {
	t.Helper()
	var out []frame
	for {
		select {
		case data, ok := <-cl.send:
			if !ok {
				return out
			}
			var f frame
			require.NoError(t, json.Unmarshal(data, &f))
			out = append(out, f)
		default:
			return out
		}
	}
}

func ofType(frames []frame, typ string) []frame {
	var out []frame
	for _, f := range frames {
		if f.Type == typ {
			out = append(out, f)
		}
	}
	return out
}

func TestConnectSendsWelcomeWithToken(t *testing.T) {
	gs := newTestServer(t, ServerOptions{})
	_, cl := attach(t, gs)

	frames := drain(t, cl)
	require.NotEmpty(t, frames)
	welcome := frames[0]
	assert.Equal(t, string(game.EventWelcome), welcome.Type)
	assert.Equal(t, cl.playerID, welcome.Player)

	gameID, playerID, err := auth.AuthenticateJWT(welcome.Token)
	require.NoError(t, err)
	assert.Equal(t, gs.Table.Current().ID, gameID)
	assert.Equal(t, cl.playerID, playerID)
}

func TestDispatchJoinChecksTablePassword(t *testing.T) {
	guard, err := auth.NewTableGuard("robber")
	require.NoError(t, err)
	gs := newTestServer(t, ServerOptions{Guard: guard})
	g := gs.Table.Current()
	_, alice := attach(t, gs)
	_, bob := attach(t, gs)

	err = gs.dispatch(g, alice, &protocol.JoinRequest{Name: "Alice", Color: models.Red, Password: "knight"})
	assert.ErrorIs(t, err, game.ErrIllegalAction)
	assert.Empty(t, g.GetCurrentObfuscatedGameState(0).Players)

	require.NoError(t, gs.dispatch(g, alice, &protocol.JoinRequest{Name: "Alice", Color: models.Red, Password: "robber"}))
	err = gs.dispatch(g, bob, &protocol.JoinRequest{Name: "Bob", Color: models.Red, Password: "robber"})
	assert.ErrorIs(t, err, game.ErrDuplicateColor)
}

func TestChatIsThrottled(t *testing.T) {
	gs := newTestServer(t, ServerOptions{ChatRatePerSec: 0.001, ChatBurst: 1})
	g := gs.Table.Current()
	_, cl := attach(t, gs)
	require.NoError(t, gs.dispatch(g, cl, &protocol.JoinRequest{Color: models.Blue}))

	require.NoError(t, gs.dispatch(g, cl, &protocol.SendChatRequest{Text: "hello"}))
	err := gs.dispatch(g, cl, &protocol.SendChatRequest{Text: "hello again"})
	assert.Equal(t, errChatThrottled, err)

	chats := ofType(drain(t, cl), string(game.EventChat))
	assert.Len(t, chats, 1)
}

func TestSessionEventsArriveInSeqOrder(t *testing.T) {
	gs := newTestServer(t, ServerOptions{})
	g := gs.Table.Current()
	_, a := attach(t, gs)
	_, b := attach(t, gs)
	_, c := attach(t, gs)

	for i, cl := range []*client{a, b, c} {
		require.NoError(t, gs.dispatch(g, cl, &protocol.JoinRequest{Color: models.Colors[i]}))
	}
	for _, cl := range []*client{a, b, c} {
		require.NoError(t, gs.dispatch(g, cl, &protocol.ReadyRequest{}))
	}

	for _, cl := range []*client{a, b, c} {
		frames := drain(t, cl)
		assert.Len(t, ofType(frames, string(game.EventBoardSnapshot)), 1)
		var last int64
		for _, f := range frames {
			assert.GreaterOrEqual(t, f.Seq, last)
			last = f.Seq
		}
	}
}

func TestAbortedSessionIsReplaced(t *testing.T) {
	rules := game.DefaultRules()
	rules.MinPlayers = 2
	store := &memoryResults{}
	gs := newTestServer(t, ServerOptions{Rules: rules, Results: store})
	g := gs.Table.Current()
	sess, a := attach(t, gs)
	_, b := attach(t, gs)

	require.NoError(t, gs.dispatch(g, a, &protocol.JoinRequest{Color: models.Red}))
	require.NoError(t, gs.dispatch(g, b, &protocol.JoinRequest{Color: models.White}))
	require.NoError(t, gs.dispatch(g, a, &protocol.ReadyRequest{}))
	err := gs.dispatch(g, b, &protocol.ReadyRequest{})
	assert.ErrorIs(t, err, game.ErrConfigurationFault, "two players cannot fill six initial turns")

	assert.True(t, sess.closeIfEnded())
	assert.NotEqual(t, g.ID, gs.Table.Current().ID)
	assert.Nil(t, gs.session(g.ID))
	assert.NotNil(t, gs.session(gs.Table.Current().ID))

	frames := drain(t, a)
	require.NotEmpty(t, frames)
	_, open := <-a.send
	assert.False(t, open, "queue is closed after the last event")

	gs.Wait()
	require.Len(t, store.results, 1)
	assert.True(t, store.results[0].Aborted)
	assert.Equal(t, g.ID, store.results[0].GameID)
}

func TestSlowClientIsCutOff(t *testing.T) {
	gs := newTestServer(t, ServerOptions{ChatRatePerSec: 1000, ChatBurst: 1000})
	g := gs.Table.Current()
	_, talker := attach(t, gs)
	_, idle := attach(t, gs)
	require.NoError(t, gs.dispatch(g, talker, &protocol.JoinRequest{Color: models.Orange}))

	for i := 0; i < sendQueueSize+1; i++ {
		_ = gs.dispatch(g, talker, &protocol.SendChatRequest{Text: "spam"})
		drain(t, talker)
	}
	assert.True(t, idle.slow)
}

func TestSnapshotHandler(t *testing.T) {
	gs := newTestServer(t, ServerOptions{})
	g := gs.Table.Current()
	_, cl := attach(t, gs)
	require.NoError(t, gs.dispatch(g, cl, &protocol.JoinRequest{Name: "Ada", Color: models.Red}))

	token, err := auth.CreateJWT(g.ID, cl.playerID)
	require.NoError(t, err)

	h := SnapshotHandler(quietLogger(), gs)

	req := httptest.NewRequest(http.MethodGet, "/game/snapshot", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"Ada"`)

	req = httptest.NewRequest(http.MethodGet, "/game/snapshot", nil)
	req.Header.Set("Cookie", "session_token="+token)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/game/snapshot", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	stale, err := auth.CreateJWT(uuid.New(), 1)
	require.NoError(t, err)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/game/snapshot?token="+stale, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResultsHandler(t *testing.T) {
	gs := newTestServer(t, ServerOptions{})
	w := httptest.NewRecorder()
	ResultsHandler(quietLogger(), gs).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/game/results", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	store := &memoryResults{}
	require.NoError(t, store.RecordGameResult(context.Background(), models.GameResult{GameID: uuid.New(), Winner: 1}))
	gs = newTestServer(t, ServerOptions{Results: store})

	w = httptest.NewRecorder()
	ResultsHandler(quietLogger(), gs).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/game/results?limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got []models.GameResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 1)

	w = httptest.NewRecorder()
	ResultsHandler(quietLogger(), gs).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/game/results?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebSocketRoundTrip(t *testing.T) {
	logger := quietLogger()
	gs := newTestServer(t, ServerOptions{})
	srv := httptest.NewServer(GameWSHandler(logger, gs))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{Subprotocol}})
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")

	read := func() frame {
		_, data, err := c.Read(ctx)
		require.NoError(t, err)
		var f frame
		require.NoError(t, json.Unmarshal(data, &f))
		return f
	}

	welcome := read()
	require.Equal(t, string(game.EventWelcome), welcome.Type)

	msgID := uuid.New()
	data, err := protocol.Encode(msgID, protocol.JoinRequest{Name: "Ada", Color: models.Red})
	require.NoError(t, err)
	require.NoError(t, c.Write(ctx, websocket.MessageText, data))

	status := read()
	assert.Equal(t, string(game.EventPlayerStatus), status.Type)
	assert.Equal(t, welcome.Player, status.Player)
	ack := read()
	assert.Equal(t, "ack", ack.Type)
	assert.True(t, ack.OK)

	data, err = protocol.Encode(uuid.New(), protocol.RollDiceRequest{})
	require.NoError(t, err)
	require.NoError(t, c.Write(ctx, websocket.MessageText, data))
	errEvent := read()
	assert.Equal(t, string(game.EventError), errEvent.Type)
	ack = read()
	assert.False(t, ack.OK)
	require.NotNil(t, ack.Error)
	assert.Equal(t, "illegal_action", ack.Error.Kind)

	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(`{"type":"ping"}`)))
	assert.Equal(t, "pong", read().Type)
}

func TestWebSocketRequiresSubprotocol(t *testing.T) {
	gs := newTestServer(t, ServerOptions{})
	srv := httptest.NewServer(GameWSHandler(quietLogger(), gs))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	_, _, err = c.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, BadSubprotocolError, websocket.CloseStatus(err))
}
