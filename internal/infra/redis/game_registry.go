package redis

import (
	"context"
	"strconv"
	"sync"
	"time"

	"crocodile-service/internal/app"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// GameRegistry is a Redis-aware implementation of app.GameRegistry.
// Round state itself stays in process memory; Redis only carries a best-effort
// liveness marker per chat so other instances can see which chats are served here.
// GetOrCreate is called by every round start and claim, which refreshes the marker;
// a chat with no round activity for ttl drops out.
type GameRegistry struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	games  map[int64]*app.Game
}

func NewGameRegistry(client *redis.Client, ttl time.Duration) *GameRegistry {
	return &GameRegistry{
		client: client,
		ttl:    ttl,
		games:  make(map[int64]*app.Game),
	}
}

func (r *GameRegistry) GetOrCreate(chatID int64) *app.Game {
	r.mu.Lock()
	game, ok := r.games[chatID]
	if !ok {
		game = app.NewGame(chatID)
		r.games[chatID] = game
	}
	r.mu.Unlock()

	r.touch(chatID)
	return game
}

func (r *GameRegistry) touch(chatID int64) {
	if err := r.client.Set(context.Background(), r.key(chatID), "1", r.ttl).Err(); err != nil {
		log.Debug().Err(err).Int64("chat", chatID).Msg("refresh chat liveness")
	}
}

func (r *GameRegistry) Get(chatID int64) (*app.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	game, ok := r.games[chatID]
	return game, ok
}

func (r *GameRegistry) key(chatID int64) string {
	return "crocodile:chat:" + strconv.FormatInt(chatID, 10)
}
