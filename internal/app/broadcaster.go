package app

import (
	"sync"

	"crocodile-service/internal/domain"
)

// Broadcaster fans round events out to per-chat subscribers. Publish never blocks:
// a full subscriber buffer loses its oldest event.
type Broadcaster struct {
	mu     sync.Mutex
	chats  map[int64]map[chan domain.RoundEvent]struct{}
	buffer int
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broadcaster{
		chats:  make(map[int64]map[chan domain.RoundEvent]struct{}),
		buffer: buffer,
	}
}

// Subscribe returns a channel of events for chatID.
// The caller must invoke the returned cancel function to avoid leaks.
func (b *Broadcaster) Subscribe(chatID int64) (<-chan domain.RoundEvent, func()) {
	ch := make(chan domain.RoundEvent, b.buffer)

	b.mu.Lock()
	subs, ok := b.chats[chatID]
	if !ok {
		subs = make(map[chan domain.RoundEvent]struct{})
		b.chats[chatID] = subs
	}
	subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.chats[chatID]
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(b.chats, chatID)
		}
	}
	return ch, cancel
}

func (b *Broadcaster) Publish(ev domain.RoundEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.chats[ev.ChatID] {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
