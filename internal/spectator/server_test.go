package spectator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/purchess/purchess/internal/board"
	"github.com/purchess/purchess/internal/chess"
	"github.com/purchess/purchess/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 2 * time.Second

func startedGame(t *testing.T) game.View {
	t.Helper()
	c := game.New(chess.NewRules(nil), game.Options{StartingCoins: 3})
	return c.View()
}

func TestHealthHandler(t *testing.T) {
	s := New(uuid.New())
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/api/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, s.GameID().String(), body["gameId"])
}

func TestGameHandlerBeforeFirstState(t *testing.T) {
	s := New(uuid.New())
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/api/game", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestGameHandler(t *testing.T) {
	s := New(uuid.New())
	s.SetState(startedGame(t))

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/api/game", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var response map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	for _, field := range []string{"gameId", "state", "materialCount", "materialBalance", "spectators"} {
		assert.Contains(t, response, field)
	}

	var snap struct {
		Material chess.MaterialCount `json:"materialCount"`
		State    struct {
			Pieces []json.RawMessage `json:"pieces"`
			Turn   string            `json:"turn"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Len(t, snap.State.Pieces, 32)
	assert.Equal(t, "white", snap.State.Turn)
	assert.Equal(t, snap.Material.White, snap.Material.Black)
}

func TestEventsHandlerKeepsRecentHistory(t *testing.T) {
	s := New(uuid.New())
	for i := 0; i < historySize+10; i++ {
		s.Publish(game.Event{Kind: game.EventMove, Color: board.White})
	}
	s.Publish(game.Event{Kind: game.EventSale, Color: board.Black, Piece: board.Pawn, Coins: 1})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/api/game/events", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Events []map[string]any `json:"events"`
		Total  int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, historySize, body.Total)
	require.Len(t, body.Events, historySize)
	last := body.Events[len(body.Events)-1]
	assert.Equal(t, "sale", last["kind"])
	assert.Equal(t, "black", last["color"])
	assert.Equal(t, "pawn", last["piece"])
	assert.EqualValues(t, 1, last["coins"])
}

func TestMethodNotAllowed(t *testing.T) {
	s := New(uuid.New())
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest("POST", "/api/game", strings.NewReader("{}")))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

// Browsers preflight cross-origin requests; the answer must carry the CORS
// headers even though no handler runs.
func TestCORSPreflight(t *testing.T) {
	s := New(uuid.New())
	req := httptest.NewRequest("OPTIONS", "/api/game", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "GET")
	assert.Empty(t, rr.Body.String())
}

func TestCORSHeadersOnResponses(t *testing.T) {
	s := New(uuid.New())
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/api/health", nil))
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUpdate(t *testing.T, conn *websocket.Conn) Update {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(testTimeout)))
	var u Update
	require.NoError(t, conn.ReadJSON(&u))
	return u
}

// readType skips updates until one of the given type arrives.
func readType(t *testing.T, conn *websocket.Conn, typ string) Update {
	t.Helper()
	for {
		if u := readUpdate(t, conn); u.Type == typ {
			return u
		}
	}
}

func TestWebSocketReceivesStateAndEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := New(uuid.New())
	go s.Hub().Run(ctx)
	s.SetState(startedGame(t))

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	conn := dial(t, srv)

	hello := readUpdate(t, conn)
	assert.Equal(t, "state", hello.Type)
	assert.Equal(t, s.GameID().String(), hello.GameID)

	require.Eventually(t, func() bool { return s.Hub().Count() == 1 }, testTimeout, 5*time.Millisecond)

	s.Publish(game.Event{Kind: game.EventPurchase, Color: board.White, Piece: board.Knight, Coins: 3})
	u := readType(t, conn, string(game.EventPurchase))
	data, ok := u.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "knight", data["piece"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, "pong", readType(t, conn, "pong").Type)
}

func TestShutdownDisconnectsSpectators(t *testing.T) {
	s := New(uuid.New())
	addr, err := s.Start(context.Background(), "127.0.0.1:0")
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.Hub().Count() == 1 }, testTimeout, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.Equal(t, 0, s.Hub().Count())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(testTimeout)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
