package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardtable/blackjack/internal/auth"
	"github.com/cardtable/blackjack/internal/config"
)

func TestMain(m *testing.M) {
	if err := auth.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	cfg := config.Config{
		TurnTimeoutSec: 5,
		CountdownMs:    20,
		DealerDelayMs:  5,
	}
	ts := httptest.NewServer(NewServer(cfg, logger).Routes())
	t.Cleanup(ts.Close)
	return ts
}

// post sends a JSON body and decodes the JSON response into a generic map.
func post(t *testing.T, url string, body interface{}, headers ...string) (int, map[string]interface{}) {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(buf))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func get(t *testing.T, url string, headers ...string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

// createGame creates a room and returns (gameId, hostId, hostToken).
func createGame(t *testing.T, ts *httptest.Server, maxPlayers, rounds int) (string, string, string) {
	t.Helper()
	code, out := post(t, ts.URL+"/games", map[string]interface{}{
		"playerName": "Ana",
		"maxPlayers": maxPlayers,
		"rounds":     rounds,
	})
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, out["gameId"])
	require.NotEmpty(t, out["playerId"])
	require.NotEmpty(t, out["token"])
	return out["gameId"].(string), out["playerId"].(string), out["token"].(string)
}

// waitForState polls until the predicate holds on the game state.
func waitForState(t *testing.T, ts *httptest.Server, gid string, pred func(map[string]interface{}) bool) map[string]interface{} {
	t.Helper()
	var state map[string]interface{}
	require.Eventually(t, func() bool {
		resp, out := get(t, ts.URL+"/games/"+gid)
		if resp.StatusCode != http.StatusOK {
			return false
		}
		state = out
		return pred(out)
	}, 3*time.Second, 10*time.Millisecond)
	return state
}

func TestCreateJoinStartFlow(t *testing.T) {
	ts := newTestServer(t)
	gid, _, hostToken := createGame(t, ts, 2, 1)

	code, out := post(t, ts.URL+"/games/"+gid+"/join", map[string]string{"playerName": "Bruno"})
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, out["token"])

	code, out = post(t, ts.URL+"/games/"+gid+"/start", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["success"])

	state := waitForState(t, ts, gid, func(m map[string]interface{}) bool {
		started, _ := m["started"].(bool)
		return started
	})

	players := state["players"].([]interface{})
	require.Len(t, players, 2)
	assert.Equal(t, "Ana", state["turn"])
	assert.Equal(t, float64(1), state["currentRound"])

	dealer := state["dealer"].(map[string]interface{})
	assert.Equal(t, "Banca", dealer["name"])
	dealerHand := dealer["hand"].([]interface{})
	require.Len(t, dealerHand, 2)
	assert.Equal(t, true, dealerHand[0].(map[string]interface{})["hidden"],
		"hole card stays hidden on the wire")
	_, has := dealerHand[1].(map[string]interface{})["hidden"]
	assert.False(t, has, "second card is face up")

	// Acting via the bearer token issued at create time.
	code, out = post(t, ts.URL+"/games/"+gid+"/hit", map[string]string{},
		"Authorization", "Bearer "+hostToken)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, float64(5), out["timer"])
}

func TestStateConditionalReads(t *testing.T) {
	ts := newTestServer(t)
	gid, _, _ := createGame(t, ts, 2, 1)

	resp, state := get(t, ts.URL+"/games/"+gid)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)
	last := int64(state["lastUpdate"].(float64))
	assert.Equal(t, fmt.Sprintf(`W/"%d"`, last), etag)

	resp, _ = get(t, ts.URL+"/games/"+gid+"?last="+fmt.Sprint(last))
	assert.Equal(t, http.StatusNotModified, resp.StatusCode, "?last= short-circuits")

	resp, _ = get(t, ts.URL+"/games/"+gid, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode, "ETag round-trip short-circuits")

	// A mutation invalidates both.
	code, _ := post(t, ts.URL+"/games/"+gid+"/join", map[string]string{"playerName": "Bruno"})
	require.Equal(t, http.StatusOK, code)
	resp, _ = get(t, ts.URL+"/games/"+gid+"?last="+fmt.Sprint(last), "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEqual(t, etag, resp.Header.Get("ETag"))
}

func TestActAuthorization(t *testing.T) {
	ts := newTestServer(t)
	gid, hostID, _ := createGame(t, ts, 2, 1)
	_, otherID, otherToken := createGame(t, ts, 2, 1)

	code, _ := post(t, ts.URL+"/games/"+gid+"/join", map[string]string{"playerName": "Bruno"})
	require.Equal(t, http.StatusOK, code)
	code, _ = post(t, ts.URL+"/games/"+gid+"/start", nil)
	require.Equal(t, http.StatusOK, code)
	waitForState(t, ts, gid, func(m map[string]interface{}) bool {
		started, _ := m["started"].(bool)
		return started
	})

	// A token issued for a different session is rejected outright.
	code, _ = post(t, ts.URL+"/games/"+gid+"/stand", map[string]string{},
		"Authorization", "Bearer "+otherToken)
	assert.Equal(t, http.StatusForbidden, code)

	// A playerId from another session is not seated here.
	code, _ = post(t, ts.URL+"/games/"+gid+"/stand", map[string]string{"playerId": otherID})
	assert.Equal(t, http.StatusForbidden, code)

	// Garbage playerId, no token.
	code, _ = post(t, ts.URL+"/games/"+gid+"/stand", map[string]string{"playerId": "nope"})
	assert.Equal(t, http.StatusBadRequest, code)

	// The legitimate host id in the body works without any token.
	code, out := post(t, ts.URL+"/games/"+gid+"/stand", map[string]string{"playerId": hostID})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["success"])
}

func TestUnknownSessionIs404(t *testing.T) {
	ts := newTestServer(t)

	resp, out := get(t, ts.URL+"/games/0b5fe041-43c1-4c54-aa69-1bcc3f54912e")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, out["error"])

	resp, _ = get(t, ts.URL+"/games/not-a-uuid")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	code, _ := post(t, ts.URL+"/games/0b5fe041-43c1-4c54-aa69-1bcc3f54912e/join",
		map[string]string{"playerName": "Bruno"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCreateValidation(t *testing.T) {
	ts := newTestServer(t)

	code, out := post(t, ts.URL+"/games", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, out["error"])

	gid, _, _ := createGame(t, ts, 2, 1)
	code, _ = post(t, ts.URL+"/games/"+gid+"/join", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code, "join needs a playerName")

	code, _ = post(t, ts.URL+"/games/"+gid+"/start", nil)
	assert.Equal(t, http.StatusConflict, code, "cannot start a half-empty room")
}

func TestRandomJoinFindsOpenRoom(t *testing.T) {
	ts := newTestServer(t)

	code, out := post(t, ts.URL+"/games/random/join", map[string]string{"playerName": "Bruno"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.NotEmpty(t, out["error"])

	gid, _, _ := createGame(t, ts, 2, 1)
	code, out = post(t, ts.URL+"/games/random/join", map[string]string{"playerName": "Bruno"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, gid, out["gameId"])
	require.NotEmpty(t, out["playerId"])
	require.NotEmpty(t, out["token"])
}

func TestHostLeaveDestroysSession(t *testing.T) {
	ts := newTestServer(t)
	gid, _, hostToken := createGame(t, ts, 2, 1)

	code, out := post(t, ts.URL+"/games/"+gid+"/leave", map[string]string{},
		"Authorization", "Bearer "+hostToken)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["success"])

	resp, _ := get(t, ts.URL+"/games/"+gid)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFullMatchAndRestart(t *testing.T) {
	ts := newTestServer(t)
	gid, _, hostToken := createGame(t, ts, 1, 1)

	code, _ := post(t, ts.URL+"/games/"+gid+"/start", nil)
	require.Equal(t, http.StatusOK, code)
	waitForState(t, ts, gid, func(m map[string]interface{}) bool {
		started, _ := m["started"].(bool)
		return started
	})

	code, _ = post(t, ts.URL+"/games/"+gid+"/restart", nil, "Authorization", "Bearer "+hostToken)
	assert.Equal(t, http.StatusConflict, code, "restart mid-match rejected")

	code, _ = post(t, ts.URL+"/games/"+gid+"/stand", map[string]string{},
		"Authorization", "Bearer "+hostToken)
	require.Equal(t, http.StatusOK, code)

	state := waitForState(t, ts, gid, func(m map[string]interface{}) bool {
		finished, _ := m["finished"].(bool)
		return finished
	})
	winners := state["winner"].([]interface{})
	assert.Equal(t, []interface{}{"Ana"}, winners, "the only player always tops the table")
	dealer := state["dealer"].(map[string]interface{})
	assert.GreaterOrEqual(t, dealer["value"].(float64), float64(17))
	dealerHand := dealer["hand"].([]interface{})
	_, hidden := dealerHand[0].(map[string]interface{})["hidden"]
	assert.False(t, hidden, "hole card revealed once the match is over")

	code, _ = post(t, ts.URL+"/games/"+gid+"/restart", nil)
	require.Equal(t, http.StatusOK, code)
	state = waitForState(t, ts, gid, func(m map[string]interface{}) bool { return true })
	assert.Equal(t, false, state["started"])
	assert.Equal(t, false, state["finished"])
	assert.Equal(t, float64(0), state["currentRound"])
	players := state["players"].([]interface{})
	assert.Equal(t, float64(0), players[0].(map[string]interface{})["points"], "scores reset on restart")
}
