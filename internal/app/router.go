package app

import (
	"context"

	"crocodile-service/internal/domain"
)

// ChatRouter dispatches free text from a chat: reset phrases first, then leader
// explanations, then guesses.
type ChatRouter struct {
	rounds *RoundService
	resets *ResetService
}

func NewChatRouter(rounds *RoundService, resets *ResetService) *ChatRouter {
	return &ChatRouter{rounds: rounds, resets: resets}
}

// HandleText returns the round event the message resolved, if any.
func (r *ChatRouter) HandleText(ctx context.Context, chatID, playerID int64, text string) (*domain.RoundEvent, error) {
	if handled, err := r.resets.Handle(ctx, chatID, playerID, text); handled {
		return nil, err
	}
	if r.rounds.RecordLeaderMessage(chatID, playerID, text) {
		return nil, nil
	}
	return r.rounds.RecordGuessAttempt(ctx, chatID, playerID, text)
}
