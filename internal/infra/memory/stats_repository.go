package memory

import (
	"context"
	"sort"
	"sync"

	"crocodile-service/internal/domain"
)

type statsKey struct {
	chatID   int64
	playerID int64
}

// StatsRepository keeps player stats in process memory (tests, demos, no-DB runs).
type StatsRepository struct {
	mu    sync.RWMutex
	stats map[statsKey]domain.PlayerStats
}

func NewStatsRepository() *StatsRepository {
	return &StatsRepository{stats: make(map[statsKey]domain.PlayerStats)}
}

func (r *StatsRepository) Load(_ context.Context, chatID, playerID int64) (domain.PlayerStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if st, ok := r.stats[statsKey{chatID, playerID}]; ok {
		return st, nil
	}
	return domain.DefaultPlayerStats(chatID, playerID), nil
}

func (r *StatsRepository) Save(_ context.Context, st domain.PlayerStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[statsKey{st.ChatID, st.PlayerID}] = st
	return nil
}

func (r *StatsRepository) ListChat(_ context.Context, chatID int64) ([]domain.PlayerStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.PlayerStats, 0)
	for key, st := range r.stats {
		if key.chatID == chatID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}
