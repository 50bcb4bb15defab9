package domain

import "time"

// EventType names a round or reset outcome delivered to the messaging side.
type EventType string

const (
	EventRoundStarted   EventType = "roundStarted"
	EventTimeWarning    EventType = "timeWarning"
	EventWin            EventType = "win"
	EventTimeout        EventType = "timeout"
	EventManualEnd      EventType = "manualEnd"
	EventForceStop      EventType = "forceStop"
	EventViolation      EventType = "violation"
	EventResetRequested EventType = "resetRequested"
	EventResetConfirmed EventType = "resetConfirmed"
	EventResetCancelled EventType = "resetCancelled"
	EventResetExpired   EventType = "resetExpired"
)

// RoundEvent is emitted by the engine after a transition commits.
// Word is only set once the round is over.
type RoundEvent struct {
	Type      EventType      `json:"type"`
	ChatID    int64          `json:"chatId"`
	RoundID   string         `json:"roundId,omitempty"`
	PlayerID  int64          `json:"playerId,omitempty"`
	Word      string         `json:"word,omitempty"`
	Remaining time.Duration  `json:"remaining,omitempty"`
	Win       *WinResult     `json:"win,omitempty"`
	Violation *ViolationInfo `json:"violation,omitempty"`
	At        time.Time      `json:"at"`
}

// WinResult carries the rewards computed for a won round.
type WinResult struct {
	WinnerID         int64         `json:"winnerId"`
	LeaderID         int64         `json:"leaderId"`
	Elapsed          time.Duration `json:"elapsed"`
	Position         int           `json:"position"`
	Competitors      int           `json:"competitors"`
	Attempts         int           `json:"attempts"`
	GuessExperience  int           `json:"guessExperience"`
	AbusePenalty     int           `json:"abusePenalty,omitempty"`
	LeaderExperience int           `json:"leaderExperience"`
	RatingDelta      int           `json:"ratingDelta"`
	Rating           int           `json:"rating"`
	OldLevel         int           `json:"oldLevel"`
	Level            int           `json:"level"`
	LevelUp          bool          `json:"levelUp"`
	LevelTitle       string        `json:"levelTitle"`
	ExperienceInto   int           `json:"experienceInto"`
	ExperienceToNext int           `json:"experienceToNext"`
	// NextLeaderID is zero when promotion was withheld.
	NextLeaderID int64 `json:"nextLeaderId,omitempty"`
}

// ViolationInfo describes a round voided by the leader leaking the word.
type ViolationInfo struct {
	LeaderID       int64 `json:"leaderId"`
	ViolationCount int   `json:"violationCount"`
	BanApplied     bool  `json:"banApplied"`
	BanRounds      int   `json:"banRounds,omitempty"`
}
