package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/seabattle/assets"
	"github.com/robalobadob/seabattle/internal/accounts"
	"github.com/robalobadob/seabattle/internal/board"
	"github.com/robalobadob/seabattle/internal/config"
	"github.com/robalobadob/seabattle/internal/game"
	"github.com/robalobadob/seabattle/internal/leaderboard"
	"github.com/robalobadob/seabattle/internal/match"
	"github.com/robalobadob/seabattle/internal/store"
)

type fixedSource struct{}

func (fixedSource) Generate() board.Board { return board.FixedLayout().Board }

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "test-secret",
		JWTExpiresDays: 1,
		CookieName:     "seabattle_token",
		ClientOrigin:   "http://localhost:5173",
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := store.OpenDB(t.TempDir() + "/server.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db, assets.FS, assets.MigrationsDir))

	svc := match.New(
		store.WithTimeout(store.NewSQLite(db), 0),
		fixedSource{},
		game.NewAdversary(rand.New(rand.NewPCG(5, 5))),
	)
	srv := New(testConfig(), svc, accounts.NewStore(db), leaderboard.NewStore(db))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

// client is one browser: it keeps cookies between calls.
type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, ts *httptest.Server) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
}

// do sends body as JSON and decodes the response into out (if non-nil).
func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type resultBody struct {
	GameID              string `json:"gameId"`
	Outcome             string `json:"outcome"`
	Coordinate          string `json:"coordinate"`
	Winner              string `json:"winner"`
	AdversaryCoordinate string `json:"adversaryCoordinate"`
	AdversaryOutcome    string `json:"adversaryOutcome"`
	Status              string `json:"status"`
	Error               string `json:"error"`
}

func shipCoords() []string {
	b := board.FixedLayout().Board
	var out []string
	for _, c := range board.AllCoords() {
		if b.HasShip(c) {
			out = append(out, c.String())
		}
	}
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]bool
	assert.Equal(t, http.StatusOK, newClient(t, ts).do(http.MethodGet, "/health", nil, &body))
	assert.True(t, body["ok"])
}

func TestGuestGame(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)

	var started resultBody
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/new", nil, &started))
	assert.Equal(t, "started", started.Outcome)
	assert.Equal(t, "active", started.Status)
	assert.NotEmpty(t, started.GameID)

	var res resultBody
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/fire", fireReq{Coord: "a1"}, &res))
	assert.Equal(t, "hit", res.Outcome)
	assert.Equal(t, "A1", res.Coordinate)
	assert.NotEmpty(t, res.AdversaryCoordinate)
	assert.Contains(t, []string{"hit", "miss"}, res.AdversaryOutcome)

	var rej resultBody
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/game/fire", fireReq{Coord: "A1"}, &rej))
	assert.Equal(t, "duplicate", rej.Outcome)

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/game/fire", fireReq{Coord: "K1"}, &rej))
	assert.Equal(t, "invalid", rej.Outcome)

	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/game/new", nil, &rej))
	assert.Equal(t, "game_in_progress", rej.Error)

	var view map[string]json.RawMessage
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/game/active", nil, &view))
	assert.NotContains(t, view, "adversaryBoard")
	var rows []string
	require.NoError(t, json.Unmarshal(view["playerBoard"], &rows))
	assert.Len(t, rows, board.Size)
	assert.JSONEq(t, `{"A1":"hit"}`, string(view["shotsOnAdversary"]))

	// a different guest has no game
	other := newClient(t, ts)
	assert.Equal(t, http.StatusNotFound, other.do(http.MethodGet, "/game/active", nil, &rej))
	assert.Equal(t, http.StatusConflict, other.do(http.MethodPost, "/game/fire", fireReq{Coord: "A1"}, &rej))
	assert.Equal(t, "gameOver", rej.Outcome)
}

func TestSurrender(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/new", nil, nil))

	var res resultBody
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/surrender", nil, &res))
	assert.Equal(t, "surrendered", res.Status)
	assert.Equal(t, "adversary", res.Winner)

	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/game/fire", fireReq{Coord: "B2"}, &res))
	assert.Equal(t, "gameOver", res.Outcome)

	// surrendering frees the slot
	assert.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/new", nil, nil))
}

func TestSignedInWin(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)

	creds := credentials{Username: "admiral", Password: "password123"}
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/signup", creds, nil))
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/auth/signup", creds, nil))

	var me authUser
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/auth/me", nil, &me))
	assert.Equal(t, "admiral", me.Username)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/new", nil, nil))
	ships := shipCoords()
	var res resultBody
	for _, coord := range ships {
		res = resultBody{}
		require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/fire", fireReq{Coord: coord}, &res))
	}
	assert.Equal(t, "player", res.Winner)
	assert.Equal(t, "player_won", res.Status)
	assert.Empty(t, res.AdversaryCoordinate)

	var stats map[string]any
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/stats/me", nil, &stats))
	assert.EqualValues(t, 1, stats["gamesPlayed"])
	assert.EqualValues(t, 1, stats["wins"])
	assert.EqualValues(t, 1, stats["streak"])

	var lb struct {
		Results []leaderboard.Result `json:"results"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/leaderboard", nil, &lb))
	require.Len(t, lb.Results, 1)
	assert.Equal(t, me.ID, lb.Results[0].PlayerID)
	assert.Equal(t, len(ships), lb.Results[0].Shots)

	var mine []summary
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/games/mine", nil, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, game.StatusPlayerWon, mine[0].Status)
	assert.Equal(t, len(ships), mine[0].Hits)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/stats/me", nil, nil))
}

func TestGuestGameKeptOnSignup(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)

	var started resultBody
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/new", nil, &started))
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/fire", fireReq{Coord: "A1"}, nil))

	creds := credentials{Username: "stowaway", Password: "password123"}
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/signup", creds, nil))

	var view map[string]json.RawMessage
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/game/active", nil, &view))
	var id string
	require.NoError(t, json.Unmarshal(view["gameId"], &id))
	assert.Equal(t, started.GameID, id)
	assert.JSONEq(t, `{"A1":"hit"}`, string(view["shotsOnAdversary"]))

	var mine []summary
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/games/mine", nil, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, started.GameID, mine[0].GameID)

	// logging in again from a fresh guest session keeps the game on the account
	other := newClient(t, ts)
	require.Equal(t, http.StatusNotFound, other.do(http.MethodGet, "/game/active", nil, nil))
	require.Equal(t, http.StatusOK, other.do(http.MethodPost, "/auth/login", creds, nil))
	require.Equal(t, http.StatusOK, other.do(http.MethodGet, "/game/active", nil, &view))
	require.NoError(t, json.Unmarshal(view["gameId"], &id))
	assert.Equal(t, started.GameID, id)
}

func TestAuth_Rejections(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/games/mine", nil, nil))
	assert.Equal(t, http.StatusUnauthorized,
		c.do(http.MethodPost, "/auth/login", credentials{Username: "ghost", Password: "password123"}, nil))
	assert.Equal(t, http.StatusBadRequest,
		c.do(http.MethodPost, "/auth/signup", credentials{Username: "x", Password: "password123"}, nil))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	for _, tc := range []struct {
		err     error
		status  int
		code    string
		outcome match.Outcome
	}{
		{game.ErrInvalidCoordinate, http.StatusBadRequest, "invalid_coordinate", match.OutcomeInvalid},
		{fmt.Errorf("x: %w", game.ErrDuplicateShot), http.StatusConflict, "duplicate_shot", match.OutcomeDuplicate},
		{game.ErrGameNotActive, http.StatusConflict, "game_not_active", match.OutcomeGameOver},
		{match.ErrGameBusy, http.StatusTooManyRequests, "game_busy", ""},
		{match.ErrGameInProgress, http.StatusConflict, "game_in_progress", ""},
		{fmt.Errorf("%w: deadline", store.ErrStorageTimeout), http.StatusServiceUnavailable, "storage_timeout", ""},
		{fmt.Errorf("%w: disk", store.ErrStorage), http.StatusServiceUnavailable, "storage_unavailable", ""},
		{errors.New("boom"), http.StatusInternalServerError, "internal", ""},
	} {
		status, body := statusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, body.Error)
		assert.Equal(t, tc.outcome, body.Outcome)
	}
}

func TestWebsocket(t *testing.T) {
	ts := newTestServer(t)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/game/ws"
	conn, _, err := (&websocket.Dialer{Jar: jar}).Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	send := func(cmd wsCommand) map[string]json.RawMessage {
		t.Helper()
		require.NoError(t, conn.WriteJSON(cmd))
		var reply map[string]json.RawMessage
		require.NoError(t, conn.ReadJSON(&reply))
		return reply
	}
	str := func(raw json.RawMessage) string {
		var s string
		_ = json.Unmarshal(raw, &s)
		return s
	}

	reply := send(wsCommand{Action: "active"})
	assert.Equal(t, "no_active_game", str(reply["error"]))

	reply = send(wsCommand{Action: "new"})
	require.Contains(t, reply, "result")

	reply = send(wsCommand{Action: "fire", Coord: "J10"})
	var res resultBody
	require.NoError(t, json.Unmarshal(reply["result"], &res))
	assert.Equal(t, "miss", res.Outcome)

	reply = send(wsCommand{Action: "fire", Coord: "J10"})
	assert.Equal(t, "duplicate", str(reply["outcome"]))

	reply = send(wsCommand{Action: "active"})
	require.Contains(t, reply, "game")

	reply = send(wsCommand{Action: "launch"})
	assert.Equal(t, "unknown_action", str(reply["error"]))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "bad_json", str(reply["error"]))

	// the guest cookie issued on upgrade carries over to plain HTTP
	c := &client{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
	var body resultBody
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/game/new", nil, &body))
	assert.Equal(t, "game_in_progress", body.Error)
}
