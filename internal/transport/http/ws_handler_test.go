package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"crocodile-service/internal/app"
	"crocodile-service/internal/domain"
	"crocodile-service/internal/infra/memory"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChat = int64(-1001)

func newTestServer(t *testing.T) (*httptest.Server, *app.RoundService) {
	t.Helper()
	bus := app.NewBroadcaster(32)
	stats := memory.NewStatsRepository()
	words := memory.NewWordSource(memory.NewStaticWordLoader("жираф"), time.Hour)
	rounds := app.NewRoundService(memory.NewGameRegistry(), words, stats, bus, app.DefaultRoundConfig())
	resets := app.NewResetService(stats, bus, app.DefaultResetConfig())
	ws := NewWSHandler(rounds, app.NewChatRouter(rounds, resets), bus)

	server := httptest.NewServer(NewRouter(ws, rounds))
	t.Cleanup(func() {
		_, _ = rounds.ForceStop(context.Background(), testChat, 0)
		server.Close()
	})
	return server, rounds
}

func dial(t *testing.T, server *httptest.Server, userID, name string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?chatId=-1001&userId=" + userID + "&name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	expectNext(t, conn, "joined")
	return conn
}

type wireMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func expectNext(t *testing.T, conn *websocket.Conn, typ string) wireMessage {
	t.Helper()
	var msg wireMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, typ, msg.Type, "payload: %s", msg.Payload)
	return msg
}

// readEvent skips messages until a round event of the given type arrives.
func readEvent(t *testing.T, conn *websocket.Conn, typ domain.EventType) domain.RoundEvent {
	t.Helper()
	for i := 0; i < 10; i++ {
		var msg wireMessage
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != "event" {
			continue
		}
		var ev domain.RoundEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &ev))
		if ev.Type == typ {
			return ev
		}
	}
	t.Fatalf("event %s not received", typ)
	return domain.RoundEvent{}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": typ, "payload": payload}))
}

func TestWebSocketRoundFlow(t *testing.T) {
	server, rounds := newTestServer(t)
	leader := dial(t, server, "1", "alice")
	guesser := dial(t, server, "2", "bob")

	send(t, leader, "start", nil)
	started := readEvent(t, leader, domain.EventRoundStarted)
	assert.Equal(t, int64(1), started.PlayerID)
	assert.Empty(t, started.Word)

	var word wordPayload
	require.NoError(t, json.Unmarshal(expectNext(t, leader, "word").Payload, &word))
	assert.Equal(t, "жираф", word.Word)
	readEvent(t, guesser, domain.EventRoundStarted)

	send(t, leader, "text", textPayload{Text: "длинная шея и пятна"})
	require.Eventually(t, func() bool {
		snap, ok := rounds.Snapshot(testChat)
		return ok && snap.GuessingOpen
	}, 2*time.Second, 10*time.Millisecond)

	send(t, guesser, "text", textPayload{Text: "Жираф"})
	win := readEvent(t, guesser, domain.EventWin)
	require.NotNil(t, win.Win)
	assert.Equal(t, int64(2), win.Win.WinnerID)
	assert.Equal(t, "жираф", win.Word)

	next := readEvent(t, guesser, domain.EventRoundStarted)
	assert.Equal(t, int64(2), next.PlayerID)
	expectNext(t, guesser, "word")

	send(t, guesser, "stats", nil)
	var progress domain.PlayerProgress
	require.NoError(t, json.Unmarshal(expectNext(t, guesser, "stats").Payload, &progress))
	assert.Equal(t, 1, progress.Stats.WordsGuessed)
	assert.Equal(t, "bob", progress.Stats.Username)
}

func TestWebSocketRejectsForeignLeaderCommands(t *testing.T) {
	server, _ := newTestServer(t)
	leader := dial(t, server, "1", "alice")
	other := dial(t, server, "3", "carol")

	send(t, leader, "start", nil)
	readEvent(t, other, domain.EventRoundStarted)

	send(t, other, "word", nil)
	var e errorPayload
	require.NoError(t, json.Unmarshal(expectNext(t, other, "error").Payload, &e))
	assert.Equal(t, domain.ErrNotLeader.Error(), e.Message)

	send(t, other, "claim", nil)
	require.NoError(t, json.Unmarshal(expectNext(t, other, "error").Payload, &e))
	assert.Equal(t, domain.ErrRoundInProgress.Error(), e.Message)

	send(t, other, "dance", nil)
	expectNext(t, other, "error")
}

func TestWebSocketStartCannotReplaceActiveRound(t *testing.T) {
	server, rounds := newTestServer(t)
	leader := dial(t, server, "1", "alice")
	other := dial(t, server, "3", "carol")

	send(t, leader, "start", nil)
	started := readEvent(t, other, domain.EventRoundStarted)
	send(t, leader, "text", textPayload{Text: "длинная шея"})
	require.Eventually(t, func() bool {
		snap, ok := rounds.Snapshot(testChat)
		return ok && snap.GuessingOpen
	}, 2*time.Second, 10*time.Millisecond)

	send(t, other, "start", nil)
	var e errorPayload
	require.NoError(t, json.Unmarshal(expectNext(t, other, "error").Payload, &e))
	assert.Equal(t, domain.ErrRoundInProgress.Error(), e.Message)

	snap, ok := rounds.Snapshot(testChat)
	require.True(t, ok)
	assert.Equal(t, started.RoundID, snap.RoundID)
	assert.Equal(t, int64(1), snap.LeaderID)
	assert.True(t, snap.GuessingOpen)
	assert.Equal(t, []string{"длинная шея"}, snap.Explanations)
}

func TestWebSocketWordCount(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dial(t, server, "1", "alice")

	send(t, conn, "words", nil)
	var p wordsPayload
	require.NoError(t, json.Unmarshal(expectNext(t, conn, "words").Payload, &p))
	assert.Equal(t, 1, p.Count)
}

func TestWebSocketRequiresIdentity(t *testing.T) {
	server, _ := newTestServer(t)
	resp, err := http.Get(server.URL + "/ws?chatId=-1001&name=alice")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketRateLimit(t *testing.T) {
	bus := app.NewBroadcaster(8)
	stats := memory.NewStatsRepository()
	words := memory.NewWordSource(memory.NewStaticWordLoader("жираф"), time.Hour)
	rounds := app.NewRoundService(memory.NewGameRegistry(), words, stats, bus, app.DefaultRoundConfig())
	ws := NewWSHandler(rounds, app.NewChatRouter(rounds, app.NewResetService(stats, bus, app.DefaultResetConfig())), bus,
		WithMessageRate(0.001, 1))
	server := httptest.NewServer(NewRouter(ws, rounds))
	defer server.Close()

	conn := dial(t, server, "1", "alice")
	send(t, conn, "stats", nil)
	expectNext(t, conn, "stats")
	send(t, conn, "stats", nil)
	var e errorPayload
	require.NoError(t, json.Unmarshal(expectNext(t, conn, "error").Payload, &e))
	assert.Equal(t, "too many messages", e.Message)
}
