package app

import (
	"context"
	"sync"
	"time"

	"crocodile-service/internal/domain"
	"github.com/rs/zerolog/log"
)

// ResetPhrase is the step of the reset handshake a trigger phrase maps to.
type ResetPhrase int

const (
	ResetRequest ResetPhrase = iota + 1
	ResetConfirm
	ResetCancel
)

// ResetConfig holds the confirmation window and the trigger phrases for each step.
type ResetConfig struct {
	Window  time.Duration
	Request []string
	Confirm []string
	Cancel  []string
}

func DefaultResetConfig() ResetConfig {
	return ResetConfig{
		Window:  15 * time.Second,
		Request: []string{"reset my stats", "сбросить статистику"},
		Confirm: []string{"confirm reset", "подтверждаю сброс"},
		Cancel:  []string{"cancel reset", "отмена сброса"},
	}
}

// ResetService runs the two-step stats reset: a request opens a window that a matching
// confirmation from the same chat closes. Silence past the window cancels it.
type ResetService struct {
	stats    StatsRepository
	events   Publisher
	window   time.Duration
	triggers map[string]ResetPhrase

	mu      sync.Mutex
	seq     uint64
	pending map[int64]*pendingReset
}

type pendingReset struct {
	chatID int64
	seq    uint64
	timer  *time.Timer
}

func NewResetService(stats StatsRepository, events Publisher, cfg ResetConfig) *ResetService {
	r := &ResetService{
		stats:    stats,
		events:   events,
		window:   cfg.Window,
		triggers: make(map[string]ResetPhrase),
		pending:  make(map[int64]*pendingReset),
	}
	for phrase, list := range map[ResetPhrase][]string{
		ResetRequest: cfg.Request,
		ResetConfirm: cfg.Confirm,
		ResetCancel:  cfg.Cancel,
	} {
		for _, text := range list {
			if key := NormalizeText(text); key != "" {
				r.triggers[key] = phrase
			}
		}
	}
	return r
}

// Lookup maps a message to a handshake step. Only whole-message matches count.
func (r *ResetService) Lookup(text string) (ResetPhrase, bool) {
	phrase, ok := r.triggers[NormalizeText(text)]
	return phrase, ok
}

// Handle runs text through the handshake and reports whether it was a trigger phrase.
func (r *ResetService) Handle(ctx context.Context, chatID, playerID int64, text string) (bool, error) {
	phrase, ok := r.Lookup(text)
	if !ok {
		return false, nil
	}
	switch phrase {
	case ResetRequest:
		return true, r.Request(chatID, playerID)
	case ResetConfirm:
		return true, r.Confirm(ctx, chatID, playerID)
	default:
		return true, r.Cancel(chatID, playerID)
	}
}

// Request opens a confirmation window for playerID in chatID.
func (r *ResetService) Request(chatID, playerID int64) error {
	r.mu.Lock()
	if _, ok := r.pending[playerID]; ok {
		r.mu.Unlock()
		return domain.ErrResetPending
	}
	r.seq++
	p := &pendingReset{chatID: chatID, seq: r.seq}
	seq := r.seq
	p.timer = time.AfterFunc(r.window, func() { r.expire(playerID, seq) })
	r.pending[playerID] = p
	r.mu.Unlock()

	r.publish(domain.EventResetRequested, chatID, playerID)
	return nil
}

// Confirm resets the player's stats to defaults if a request is open in the same chat.
// The display name survives the reset.
func (r *ResetService) Confirm(ctx context.Context, chatID, playerID int64) error {
	if err := r.take(chatID, playerID); err != nil {
		return err
	}
	fresh := domain.DefaultPlayerStats(chatID, playerID)
	if old, err := r.stats.Load(ctx, chatID, playerID); err == nil {
		fresh.Username = old.Username
	} else {
		log.Warn().Err(err).Int64("chat", chatID).Int64("player", playerID).Msg("load stats before reset")
	}
	if err := r.stats.Save(ctx, fresh); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Int64("player", playerID).Msg("reset player stats")
		return err
	}
	log.Info().Int64("chat", chatID).Int64("player", playerID).Msg("player stats reset")
	r.publish(domain.EventResetConfirmed, chatID, playerID)
	return nil
}

// Cancel withdraws an open request.
func (r *ResetService) Cancel(chatID, playerID int64) error {
	if err := r.take(chatID, playerID); err != nil {
		return err
	}
	r.publish(domain.EventResetCancelled, chatID, playerID)
	return nil
}

// Pending reports whether playerID has an open request.
func (r *ResetService) Pending(playerID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[playerID]
	return ok
}

func (r *ResetService) take(chatID, playerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[playerID]
	if !ok {
		return domain.ErrNoPendingReset
	}
	if p.chatID != chatID {
		return domain.ErrResetWrongChat
	}
	p.timer.Stop()
	delete(r.pending, playerID)
	return nil
}

func (r *ResetService) expire(playerID int64, seq uint64) {
	r.mu.Lock()
	p, ok := r.pending[playerID]
	if !ok || p.seq != seq {
		r.mu.Unlock()
		return
	}
	delete(r.pending, playerID)
	r.mu.Unlock()

	r.publish(domain.EventResetExpired, p.chatID, playerID)
}

func (r *ResetService) publish(typ domain.EventType, chatID, playerID int64) {
	r.events.Publish(domain.RoundEvent{
		Type:     typ,
		ChatID:   chatID,
		PlayerID: playerID,
		At:       time.Now(),
	})
}
