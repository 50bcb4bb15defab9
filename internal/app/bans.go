package app

import "sync"

// BanRegistry tracks per chat leadership suspensions counted in concluded rounds.
type BanRegistry struct {
	mu    sync.Mutex
	chats map[int64]map[int64]int
}

func NewBanRegistry() *BanRegistry {
	return &BanRegistry{chats: make(map[int64]map[int64]int)}
}

// Install sets or overwrites the remaining rounds for a player. Non-positive rounds lift the ban.
func (b *BanRegistry) Install(chatID, playerID int64, rounds int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if rounds <= 0 {
		b.removeLocked(chatID, playerID)
		return
	}
	bans, ok := b.chats[chatID]
	if !ok {
		bans = make(map[int64]int)
		b.chats[chatID] = bans
	}
	bans[playerID] = rounds
}

func (b *BanRegistry) IsBanned(chatID, playerID int64) bool {
	return b.Remaining(chatID, playerID) > 0
}

// Remaining returns the rounds left on a player's ban, zero when not banned.
func (b *BanRegistry) Remaining(chatID, playerID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chats[chatID][playerID]
}

// DecrementAll is called once per concluded round and drops bans that reach zero.
func (b *BanRegistry) DecrementAll(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bans := b.chats[chatID]
	for playerID, left := range bans {
		if left <= 1 {
			delete(bans, playerID)
			continue
		}
		bans[playerID] = left - 1
	}
	if len(bans) == 0 {
		delete(b.chats, chatID)
	}
}

func (b *BanRegistry) removeLocked(chatID, playerID int64) {
	bans, ok := b.chats[chatID]
	if !ok {
		return
	}
	delete(bans, playerID)
	if len(bans) == 0 {
		delete(b.chats, chatID)
	}
}
