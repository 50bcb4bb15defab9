package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"crocodile-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)
	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatsAPI(t *testing.T) {
	server, rounds := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, rounds.RegisterPlayer(ctx, testChat, 1, "alice"))
	require.NoError(t, rounds.RegisterPlayer(ctx, testChat, 2, "bob"))

	resp, err := http.Get(server.URL + "/chats/-1001/rating?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var top []domain.PlayerStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&top))
	require.Len(t, top, 1)
	assert.Equal(t, int64(1), top[0].PlayerID)

	resp2, err := http.Get(server.URL + "/chats/-1001/players/2")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var progress domain.PlayerProgress
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&progress))
	assert.Equal(t, "bob", progress.Stats.Username)
	assert.Equal(t, 1, progress.Stats.Level)

	resp3, err := http.Get(server.URL + "/chats/abc/rating")
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
}
