package memory

import (
	"sync"

	"crocodile-service/internal/app"
)

// GameRegistry is an in-memory implementation of app.GameRegistry.
// Chats are created on first touch and kept for the process lifetime.
type GameRegistry struct {
	mu    sync.RWMutex
	games map[int64]*app.Game
}

func NewGameRegistry() *GameRegistry {
	return &GameRegistry{
		games: make(map[int64]*app.Game),
	}
}

func (r *GameRegistry) GetOrCreate(chatID int64) *app.Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	if game, ok := r.games[chatID]; ok {
		return game
	}
	game := app.NewGame(chatID)
	r.games[chatID] = game
	return game
}

func (r *GameRegistry) Get(chatID int64) (*app.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	game, ok := r.games[chatID]
	return game, ok
}

// Len reports how many chats have been touched.
func (r *GameRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
