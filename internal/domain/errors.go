package domain

import "errors"

var (
	// ErrNotLeader is returned when a leader-only action comes from someone else.
	ErrNotLeader = errors.New("player is not the current leader")
	// ErrLeaderBanned is returned when a suspended player tries to lead a round.
	ErrLeaderBanned = errors.New("player is banned from leading")
	// ErrNoActiveRound indicates the chat has no round to act on.
	ErrNoActiveRound = errors.New("no active round in chat")
	// ErrRoundInProgress indicates another player already leads the current round.
	ErrRoundInProgress = errors.New("round already in progress")
	// ErrStatsNotSaved wraps persistence failures that did not stop a round from resolving.
	ErrStatsNotSaved = errors.New("player stats not saved")
	// ErrResetPending is returned when a player already has an open reset request.
	ErrResetPending = errors.New("stats reset already pending")
	// ErrNoPendingReset is returned when confirming or cancelling without a request.
	ErrNoPendingReset = errors.New("no pending stats reset")
	// ErrResetWrongChat indicates a confirmation from a chat other than the request's.
	ErrResetWrongChat = errors.New("stats reset was requested in another chat")
	// ErrInvalidChatID indicates a malformed chat or player identifier.
	ErrInvalidChatID = errors.New("invalid chat or player id")
)
