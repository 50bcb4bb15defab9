package domain

import "time"

// DefaultRating is the starting Elo-like rating of every player.
const DefaultRating = 1000

// FallbackWords is used whenever a vocabulary is empty or cannot be loaded.
var FallbackWords = []string{"кот", "стол", "машина", "книга", "телефон", "окно", "солнце", "река"}

// PlayerStats is the durable progress of one player inside one chat.
type PlayerStats struct {
	ChatID   int64  `json:"chatId"`
	PlayerID int64  `json:"playerId"`
	Username string `json:"username,omitempty"`

	WordsExplained   int           `json:"wordsExplained"`
	WordsGuessed     int           `json:"wordsGuessed"`
	TotalExplainTime time.Duration `json:"totalExplainTime"`
	TotalGuessTime   time.Duration `json:"totalGuessTime"`
	FastestExplain   time.Duration `json:"fastestExplain"` // zero until the first explained round
	FastestGuess     time.Duration `json:"fastestGuess"`   // zero until the first guess
	GuessAttempts    int           `json:"guessAttempts"`

	Level          int `json:"level"`
	Experience     int `json:"experience"`
	Rating         int `json:"rating"`
	ViolationCount int `json:"violationCount"`
}

// DefaultPlayerStats returns the lazily-created record for a player.
func DefaultPlayerStats(chatID, playerID int64) PlayerStats {
	return PlayerStats{
		ChatID:   chatID,
		PlayerID: playerID,
		Level:    1,
		Rating:   DefaultRating,
	}
}

// RecordExplain accounts one explained round of the given duration.
func (s *PlayerStats) RecordExplain(d time.Duration) {
	s.WordsExplained++
	s.TotalExplainTime += d
	if s.FastestExplain == 0 || d < s.FastestExplain {
		s.FastestExplain = d
	}
}

// RecordGuess accounts one guessed word.
func (s *PlayerStats) RecordGuess(d time.Duration, attempts int) {
	s.WordsGuessed++
	s.TotalGuessTime += d
	s.GuessAttempts += attempts
	if s.FastestGuess == 0 || d < s.FastestGuess {
		s.FastestGuess = d
	}
}

func (s PlayerStats) AverageExplainTime() time.Duration {
	if s.WordsExplained == 0 {
		return 0
	}
	return s.TotalExplainTime / time.Duration(s.WordsExplained)
}

func (s PlayerStats) AverageGuessTime() time.Duration {
	if s.WordsGuessed == 0 {
		return 0
	}
	return s.TotalGuessTime / time.Duration(s.WordsGuessed)
}

// PlayerProgress is a display-oriented view of a player's stats.
type PlayerProgress struct {
	Stats               PlayerStats   `json:"stats"`
	Title               string        `json:"title"`
	ExperienceIntoLevel int           `json:"experienceIntoLevel"`
	ExperienceToNext    int           `json:"experienceToNext"`
	AverageExplain      time.Duration `json:"averageExplain"`
	AverageGuess        time.Duration `json:"averageGuess"`
}

// CompetitorSnapshot is the attempt history of one guesser in the current round.
type CompetitorSnapshot struct {
	FirstAttemptAt time.Time `json:"firstAttemptAt"`
	AttemptsUsed   int       `json:"attemptsUsed"`
}

// GameSnapshot is a read-only copy of a chat's round state.
type GameSnapshot struct {
	ChatID               int64
	RoundID              string
	LeaderID             int64
	SecretWord           string
	Active               bool
	WordGuessed          bool
	RoundStartedAt       time.Time
	LeaderFirstMessageAt time.Time
	Explanations         []string
	GuessingOpen         bool
	Competitors          map[int64]CompetitorSnapshot
	WarningSent          bool
	TimerRunning         bool
}
