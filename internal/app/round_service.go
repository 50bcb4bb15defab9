package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"crocodile-service/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// GameRegistry keeps one Game per chat for the lifetime of the process.
type GameRegistry interface {
	GetOrCreate(chatID int64) *Game
	Get(chatID int64) (*Game, bool)
}

// WordSource supplies secret words. It never returns an empty string.
type WordSource interface {
	NextWord(ctx context.Context) string
}

// StatsRepository persists per chat player statistics. Load returns defaults for unknown players.
type StatsRepository interface {
	Load(ctx context.Context, chatID, playerID int64) (domain.PlayerStats, error)
	Save(ctx context.Context, stats domain.PlayerStats) error
	ListChat(ctx context.Context, chatID int64) ([]domain.PlayerStats, error)
}

// Publisher delivers committed events to the messaging side. It must not block.
type Publisher interface {
	Publish(ev domain.RoundEvent)
}

// RoundConfig holds the per-round rules.
type RoundConfig struct {
	Duration            time.Duration
	WarningLead         time.Duration
	AttemptCeiling      int
	SimilarityThreshold float64
	BanTrigger          int
	BanRounds           int
}

func DefaultRoundConfig() RoundConfig {
	return RoundConfig{
		Duration:            180 * time.Second,
		WarningLead:         30 * time.Second,
		AttemptCeiling:      10,
		SimilarityThreshold: DefaultSimilarityThreshold,
		BanTrigger:          2,
		BanRounds:           3,
	}
}

// Option customizes a RoundService.
type Option func(*RoundService)

// WithClock is used by tests for deterministic elapsed times.
func WithClock(now func() time.Time) Option {
	return func(s *RoundService) { s.now = now }
}

func WithScoring(scoring Scoring) Option {
	return func(s *RoundService) { s.scoring = scoring }
}

func WithBanRegistry(bans *BanRegistry) Option {
	return func(s *RoundService) { s.bans = bans }
}

// RoundService is the per-chat round state machine. All access to a chat's Game goes
// through its transitions.
type RoundService struct {
	games   GameRegistry
	words   WordSource
	stats   StatsRepository
	events  Publisher
	bans    *BanRegistry
	cfg     RoundConfig
	scoring Scoring
	now     func() time.Time
	newID   func() string
}

func NewRoundService(games GameRegistry, words WordSource, stats StatsRepository, events Publisher, cfg RoundConfig, opts ...Option) *RoundService {
	s := &RoundService{
		games:   games,
		words:   words,
		stats:   stats,
		events:  events,
		bans:    NewBanRegistry(),
		cfg:     cfg,
		scoring: DefaultScoring(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bans exposes the chat ban registry.
func (s *RoundService) Bans() *BanRegistry {
	return s.bans
}

func (s *RoundService) Scoring() Scoring {
	return s.scoring
}

// Game is the in-memory round state of one chat.
type Game struct {
	chatID int64

	mu                   sync.Mutex
	roundID              string
	leaderID             int64
	secretWord           string
	active               bool
	wordGuessed          bool
	roundStartedAt       time.Time
	leaderFirstMessageAt time.Time
	explanations         []string
	guessingOpen         bool
	competitors          map[int64]*competitor
	timer                *RoundTimer
	warningSent          bool
}

type competitor struct {
	firstAttemptAt time.Time
	attempts       int
}

// NewGame is exported for registries that create chat state on first touch.
func NewGame(chatID int64) *Game {
	return &Game{
		chatID:      chatID,
		competitors: make(map[int64]*competitor),
	}
}

// Snapshot copies the current round state.
func (g *Game) Snapshot() domain.GameSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	competitors := make(map[int64]domain.CompetitorSnapshot, len(g.competitors))
	for id, c := range g.competitors {
		competitors[id] = domain.CompetitorSnapshot{FirstAttemptAt: c.firstAttemptAt, AttemptsUsed: c.attempts}
	}
	return domain.GameSnapshot{
		ChatID:               g.chatID,
		RoundID:              g.roundID,
		LeaderID:             g.leaderID,
		SecretWord:           g.secretWord,
		Active:               g.active,
		WordGuessed:          g.wordGuessed,
		RoundStartedAt:       g.roundStartedAt,
		LeaderFirstMessageAt: g.leaderFirstMessageAt,
		Explanations:         append([]string(nil), g.explanations...),
		GuessingOpen:         g.guessingOpen,
		Competitors:          competitors,
		WarningSent:          g.warningSent,
		TimerRunning:         g.timer != nil,
	}
}

// roundRecord is what a resolution needs once the lock is released.
type roundRecord struct {
	id             string
	leaderID       int64
	word           string
	startedAt      time.Time
	firstMessageAt time.Time
	explanations   []string
	competitors    map[int64]competitor
}

func (g *Game) recordLocked() roundRecord {
	competitors := make(map[int64]competitor, len(g.competitors))
	for id, c := range g.competitors {
		competitors[id] = *c
	}
	return roundRecord{
		id:             g.roundID,
		leaderID:       g.leaderID,
		word:           g.secretWord,
		startedAt:      g.roundStartedAt,
		firstMessageAt: g.leaderFirstMessageAt,
		explanations:   append([]string(nil), g.explanations...),
		competitors:    competitors,
	}
}

// detachTimerLocked cancels the running timer and hands it back for awaiting after unlock.
// Hooks re-check the timer context under the lock, so a cancelled timer cannot act.
func (g *Game) detachTimerLocked() *RoundTimer {
	t := g.timer
	g.timer = nil
	t.Cancel()
	return t
}

// clearLocked returns the game to Idle. The timer must already be detached.
func (g *Game) clearLocked() {
	g.roundID = ""
	g.leaderID = 0
	g.secretWord = ""
	g.active = false
	g.wordGuessed = false
	g.roundStartedAt = time.Time{}
	g.leaderFirstMessageAt = time.Time{}
	g.explanations = nil
	g.guessingOpen = false
	g.competitors = make(map[int64]*competitor)
	g.warningSent = false
}

// concludeLocked snapshots the round and clears it.
func (g *Game) concludeLocked() roundRecord {
	rec := g.recordLocked()
	g.clearLocked()
	return rec
}

func (g *Game) liveLocked(roundID string) bool {
	return g.active && !g.wordGuessed && g.roundID == roundID
}

// StartRound makes leaderID the leader of a fresh round, replacing any prior round state.
func (s *RoundService) StartRound(ctx context.Context, chatID, leaderID int64) (domain.RoundEvent, error) {
	if s.bans.IsBanned(chatID, leaderID) {
		return domain.RoundEvent{}, domain.ErrLeaderBanned
	}
	word := s.words.NextWord(ctx)

	g := s.games.GetOrCreate(chatID)
	g.mu.Lock()
	stale := g.detachTimerLocked()
	ev := s.beginLocked(g, leaderID, word)
	g.mu.Unlock()
	stale.Wait()

	log.Info().Int64("chat", chatID).Str("round", ev.RoundID).Int64("leader", leaderID).Msg("round started")
	s.events.Publish(ev)
	return ev, nil
}

// ClaimLeadership starts a round led by playerID unless another player leads the active one.
func (s *RoundService) ClaimLeadership(ctx context.Context, chatID, playerID int64) (domain.RoundEvent, error) {
	g := s.games.GetOrCreate(chatID)
	g.mu.Lock()
	busy := g.active && g.leaderID != playerID
	g.mu.Unlock()
	if busy {
		return domain.RoundEvent{}, domain.ErrRoundInProgress
	}
	return s.StartRound(ctx, chatID, playerID)
}

func (s *RoundService) beginLocked(g *Game, leaderID int64, word string) domain.RoundEvent {
	g.clearLocked()
	g.roundID = s.newID()
	g.leaderID = leaderID
	g.secretWord = word
	g.active = true
	g.roundStartedAt = s.now()
	g.timer = s.startTimer(g, g.roundID)
	return domain.RoundEvent{
		Type:      domain.EventRoundStarted,
		ChatID:    g.chatID,
		RoundID:   g.roundID,
		PlayerID:  leaderID,
		Remaining: s.cfg.Duration,
		At:        g.roundStartedAt,
	}
}

func (s *RoundService) startTimer(g *Game, roundID string) *RoundTimer {
	return StartRoundTimer(s.cfg.Duration, s.cfg.WarningLead, TimerHooks{
		Warn: func(ctx context.Context) bool {
			return s.warn(ctx, g, roundID)
		},
		Expire: func(ctx context.Context) {
			g.mu.Lock()
			if ctx.Err() != nil || !g.liveLocked(roundID) {
				g.mu.Unlock()
				return
			}
			// this goroutine is the timer; it exits after the hook returns
			g.timer = nil
			rec := g.concludeLocked()
			g.mu.Unlock()

			if _, err := s.finishTimeout(context.WithoutCancel(ctx), g.chatID, rec); err != nil {
				log.Error().Err(err).Int64("chat", g.chatID).Str("round", roundID).Msg("timeout bookkeeping failed")
			}
		},
	})
}

func (s *RoundService) warn(ctx context.Context, g *Game, roundID string) bool {
	g.mu.Lock()
	if ctx.Err() != nil || !g.liveLocked(roundID) {
		g.mu.Unlock()
		return false
	}
	if g.warningSent {
		g.mu.Unlock()
		return true
	}
	g.warningSent = true
	g.mu.Unlock()

	s.events.Publish(domain.RoundEvent{
		Type:      domain.EventTimeWarning,
		ChatID:    g.chatID,
		RoundID:   roundID,
		Remaining: s.cfg.WarningLead,
		At:        s.now(),
	})
	return true
}

// RecordLeaderMessage stores an explanation from the current leader and opens guessing
// on the first one. It reports whether the message was recorded.
func (s *RoundService) RecordLeaderMessage(chatID, leaderID int64, text string) bool {
	g, ok := s.games.Get(chatID)
	if !ok {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.active || g.wordGuessed || g.leaderID != leaderID {
		return false
	}
	g.explanations = append(g.explanations, text)
	if !g.guessingOpen {
		g.leaderFirstMessageAt = s.now()
		g.guessingOpen = true
	}
	return true
}

// RecordGuessAttempt counts a guess and resolves the round when it names the secret word.
// Ineligible attempts are dropped without error; a nil event means nothing was resolved.
func (s *RoundService) RecordGuessAttempt(ctx context.Context, chatID, playerID int64, text string) (*domain.RoundEvent, error) {
	if !IsSingleToken(text) {
		return nil, nil
	}
	g, ok := s.games.Get(chatID)
	if !ok {
		return nil, nil
	}

	g.mu.Lock()
	if !g.active || g.wordGuessed || !g.guessingOpen || playerID == g.leaderID {
		g.mu.Unlock()
		return nil, nil
	}
	c, ok := g.competitors[playerID]
	if !ok {
		c = &competitor{firstAttemptAt: s.now()}
		g.competitors[playerID] = c
	}
	if c.attempts >= s.cfg.AttemptCeiling {
		g.mu.Unlock()
		log.Debug().Int64("chat", chatID).Int64("player", playerID).Msg("attempt ceiling reached")
		return nil, nil
	}
	c.attempts++
	if !IsGuessed(text, g.secretWord) {
		g.mu.Unlock()
		return nil, nil
	}
	rec, stale := s.claimWinLocked(g)
	g.mu.Unlock()
	stale.Wait()

	return s.resolveWin(ctx, g, rec, playerID)
}

// ResolveWin resolves the active round in favour of winnerID.
// A round already being resolved, or a leader naming their own word, makes this a no-op.
func (s *RoundService) ResolveWin(ctx context.Context, chatID, winnerID int64) (*domain.RoundEvent, error) {
	g, ok := s.games.Get(chatID)
	if !ok {
		return nil, nil
	}
	g.mu.Lock()
	if !g.active || g.wordGuessed || winnerID == g.leaderID {
		g.mu.Unlock()
		return nil, nil
	}
	if _, ok := g.competitors[winnerID]; !ok {
		g.competitors[winnerID] = &competitor{firstAttemptAt: s.now(), attempts: 1}
	}
	rec, stale := s.claimWinLocked(g)
	g.mu.Unlock()
	stale.Wait()

	return s.resolveWin(ctx, g, rec, winnerID)
}

// claimWinLocked commits wordGuessed before any suspension so duplicate guesses and
// late timer ticks observe a resolved round.
func (s *RoundService) claimWinLocked(g *Game) (roundRecord, *RoundTimer) {
	g.wordGuessed = true
	return g.recordLocked(), g.detachTimerLocked()
}

func (s *RoundService) resolveWin(ctx context.Context, g *Game, rec roundRecord, winnerID int64) (*domain.RoundEvent, error) {
	if ContainsViolation(rec.explanations, rec.word, s.cfg.SimilarityThreshold) {
		return s.resolveViolation(ctx, g, rec)
	}

	chatID := g.chatID
	now := s.now()
	opened := rec.firstMessageAt
	if opened.IsZero() {
		opened = rec.startedAt
	}
	elapsed := now.Sub(opened)
	if elapsed < 0 {
		elapsed = 0
	}

	winnerEntry := rec.competitors[winnerID]
	position := 1
	others := make([]int64, 0, len(rec.competitors))
	for id, c := range rec.competitors {
		if id == winnerID {
			continue
		}
		others = append(others, id)
		if c.firstAttemptAt.Before(winnerEntry.firstAttemptAt) {
			position++
		}
	}
	sort.Slice(others, func(i, j int) bool { return others[i] < others[j] })

	var saveErrs []error
	ratings := make([]int, 0, len(others))
	for _, id := range others {
		st, err := s.stats.Load(ctx, chatID, id)
		if err != nil {
			log.Error().Err(err).Int64("chat", chatID).Int64("player", id).Msg("load competitor stats")
			continue
		}
		ratings = append(ratings, st.Rating)
	}

	winner := s.loadOrDefault(ctx, chatID, winnerID)
	gained := s.scoring.GuessExperience(elapsed, position, len(others))
	delta := s.scoring.RatingDelta(winner.Rating, ratings, elapsed)
	oldLevel := winner.Level
	winner.RecordGuess(elapsed, winnerEntry.attempts)
	winner.Experience += gained
	penalty := s.scoring.AbusePenalty(gained, winner.WordsGuessed, winner.AverageGuessTime())
	winner.Experience -= penalty
	if winner.Experience < 0 {
		winner.Experience = 0
	}
	winner.Level = s.scoring.LevelFromExperience(winner.Experience)
	winner.Rating += delta
	if err := s.save(ctx, winner); err != nil {
		saveErrs = append(saveErrs, err)
	}

	leaderExp := s.scoring.LeaderExperience(true, CountWords(rec.explanations))
	if rec.leaderID != 0 && rec.leaderID != winnerID {
		leader := s.loadOrDefault(ctx, chatID, rec.leaderID)
		leader.RecordExplain(elapsed)
		leader.Experience += leaderExp
		leader.Level = s.scoring.LevelFromExperience(leader.Experience)
		if err := s.save(ctx, leader); err != nil {
			saveErrs = append(saveErrs, err)
		}
	}

	s.bans.DecrementAll(chatID)
	promote := !s.bans.IsBanned(chatID, winnerID)
	var nextWord string
	if promote {
		nextWord = s.words.NextWord(ctx)
	}

	var started *domain.RoundEvent
	g.mu.Lock()
	if g.roundID == rec.id {
		// the resolving round still owns the game; a newer StartRound would have replaced it
		stale := g.detachTimerLocked()
		g.clearLocked()
		if promote {
			ev := s.beginLocked(g, winnerID, nextWord)
			started = &ev
		}
		g.mu.Unlock()
		stale.Wait()
	} else {
		g.mu.Unlock()
		promote = false
	}

	_, into, toNext := s.scoring.Progress(winner.Experience)
	result := &domain.WinResult{
		WinnerID:         winnerID,
		LeaderID:         rec.leaderID,
		Elapsed:          elapsed,
		Position:         position,
		Competitors:      len(others),
		Attempts:         winnerEntry.attempts,
		GuessExperience:  gained,
		AbusePenalty:     penalty,
		LeaderExperience: leaderExp,
		RatingDelta:      delta,
		Rating:           winner.Rating,
		OldLevel:         oldLevel,
		Level:            winner.Level,
		LevelUp:          winner.Level > oldLevel,
		LevelTitle:       LevelTitle(winner.Level),
		ExperienceInto:   into,
		ExperienceToNext: toNext,
	}
	if promote {
		result.NextLeaderID = winnerID
	}
	ev := domain.RoundEvent{
		Type:     domain.EventWin,
		ChatID:   chatID,
		RoundID:  rec.id,
		PlayerID: winnerID,
		Word:     rec.word,
		Win:      result,
		At:       now,
	}

	log.Info().Int64("chat", chatID).Str("round", rec.id).Int64("winner", winnerID).
		Dur("elapsed", elapsed).Int("exp", gained).Int("rating_delta", delta).Bool("promoted", promote).Msg("round won")
	s.events.Publish(ev)
	if started != nil {
		log.Info().Int64("chat", chatID).Str("round", started.RoundID).Int64("leader", winnerID).Msg("round started")
		s.events.Publish(*started)
	}
	return &ev, joinSaveErrors(saveErrs)
}

func (s *RoundService) resolveViolation(ctx context.Context, g *Game, rec roundRecord) (*domain.RoundEvent, error) {
	chatID := g.chatID
	var saveErr error

	leader := s.loadOrDefault(ctx, chatID, rec.leaderID)
	leader.ViolationCount++
	if err := s.save(ctx, leader); err != nil {
		saveErr = joinSaveErrors([]error{err})
	}

	s.bans.DecrementAll(chatID)
	info := &domain.ViolationInfo{LeaderID: rec.leaderID, ViolationCount: leader.ViolationCount}
	if s.cfg.BanTrigger > 0 && leader.ViolationCount >= s.cfg.BanTrigger {
		s.bans.Install(chatID, rec.leaderID, s.cfg.BanRounds)
		info.BanApplied = true
		info.BanRounds = s.cfg.BanRounds
	}

	g.mu.Lock()
	if g.roundID == rec.id {
		stale := g.detachTimerLocked()
		g.clearLocked()
		g.mu.Unlock()
		stale.Wait()
	} else {
		g.mu.Unlock()
	}

	ev := domain.RoundEvent{
		Type:      domain.EventViolation,
		ChatID:    chatID,
		RoundID:   rec.id,
		PlayerID:  rec.leaderID,
		Word:      rec.word,
		Violation: info,
		At:        s.now(),
	}
	log.Warn().Int64("chat", chatID).Str("round", rec.id).Int64("leader", rec.leaderID).
		Int("violations", leader.ViolationCount).Bool("banned", info.BanApplied).Msg("round voided by leader violation")
	s.events.Publish(ev)
	return &ev, saveErr
}

// ResolveTimeout ends the active round as a timeout. Rounds already resolved are left alone.
func (s *RoundService) ResolveTimeout(ctx context.Context, chatID int64) (*domain.RoundEvent, error) {
	g, ok := s.games.Get(chatID)
	if !ok {
		return nil, nil
	}
	g.mu.Lock()
	if !g.active || g.wordGuessed {
		g.mu.Unlock()
		return nil, nil
	}
	stale := g.detachTimerLocked()
	rec := g.concludeLocked()
	g.mu.Unlock()
	stale.Wait()

	return s.finishTimeout(ctx, chatID, rec)
}

func (s *RoundService) finishTimeout(ctx context.Context, chatID int64, rec roundRecord) (*domain.RoundEvent, error) {
	var saveErr error
	if rec.leaderID != 0 {
		leader := s.loadOrDefault(ctx, chatID, rec.leaderID)
		leader.RecordExplain(s.now().Sub(rec.startedAt))
		leader.Experience += s.scoring.TimeoutExperience
		leader.Level = s.scoring.LevelFromExperience(leader.Experience)
		leader.Rating = s.scoring.TimeoutRating(leader.Rating)
		if err := s.save(ctx, leader); err != nil {
			saveErr = joinSaveErrors([]error{err})
		}
	}
	s.bans.DecrementAll(chatID)

	ev := domain.RoundEvent{
		Type:     domain.EventTimeout,
		ChatID:   chatID,
		RoundID:  rec.id,
		PlayerID: rec.leaderID,
		Word:     rec.word,
		At:       s.now(),
	}
	log.Info().Int64("chat", chatID).Str("round", rec.id).Msg("round timed out")
	s.events.Publish(ev)
	return &ev, saveErr
}

// EndRoundManually lets the leader end the round without scoring.
func (s *RoundService) EndRoundManually(ctx context.Context, chatID, requesterID int64) (*domain.RoundEvent, error) {
	g, ok := s.games.Get(chatID)
	if !ok {
		return nil, domain.ErrNoActiveRound
	}
	g.mu.Lock()
	if !g.active || g.wordGuessed {
		g.mu.Unlock()
		return nil, domain.ErrNoActiveRound
	}
	if g.leaderID != requesterID {
		g.mu.Unlock()
		return nil, domain.ErrNotLeader
	}
	stale := g.detachTimerLocked()
	rec := g.concludeLocked()
	g.mu.Unlock()
	stale.Wait()

	s.bans.DecrementAll(chatID)
	ev := domain.RoundEvent{
		Type:     domain.EventManualEnd,
		ChatID:   chatID,
		RoundID:  rec.id,
		PlayerID: requesterID,
		Word:     rec.word,
		At:       s.now(),
	}
	log.Info().Int64("chat", chatID).Str("round", rec.id).Msg("round ended by leader")
	s.events.Publish(ev)
	return &ev, nil
}

// ForceStop stops the chat's round on anyone's request. It does not count toward bans.
func (s *RoundService) ForceStop(ctx context.Context, chatID, requesterID int64) (*domain.RoundEvent, error) {
	g, ok := s.games.Get(chatID)
	if !ok {
		return nil, domain.ErrNoActiveRound
	}
	g.mu.Lock()
	if !g.active || g.wordGuessed {
		g.mu.Unlock()
		return nil, domain.ErrNoActiveRound
	}
	stale := g.detachTimerLocked()
	rec := g.concludeLocked()
	g.mu.Unlock()
	stale.Wait()

	ev := domain.RoundEvent{
		Type:     domain.EventForceStop,
		ChatID:   chatID,
		RoundID:  rec.id,
		PlayerID: requesterID,
		Word:     rec.word,
		At:       s.now(),
	}
	log.Info().Int64("chat", chatID).Str("round", rec.id).Int64("by", requesterID).Msg("round stopped")
	s.events.Publish(ev)
	return &ev, nil
}

// RevealWord returns the secret word to the current leader.
func (s *RoundService) RevealWord(chatID, leaderID int64) (string, error) {
	g, ok := s.games.Get(chatID)
	if !ok {
		return "", domain.ErrNoActiveRound
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.active || g.wordGuessed {
		return "", domain.ErrNoActiveRound
	}
	if g.leaderID != leaderID {
		return "", domain.ErrNotLeader
	}
	return g.secretWord, nil
}

// SwapWord draws a new secret word for the leader's current round.
func (s *RoundService) SwapWord(ctx context.Context, chatID, leaderID int64) (string, error) {
	if _, err := s.RevealWord(chatID, leaderID); err != nil {
		return "", err
	}
	word := s.words.NextWord(ctx)

	g, _ := s.games.Get(chatID)
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.active || g.wordGuessed {
		return "", domain.ErrNoActiveRound
	}
	if g.leaderID != leaderID {
		return "", domain.ErrNotLeader
	}
	g.secretWord = word
	return word, nil
}

// Snapshot returns a copy of the chat's round state.
func (s *RoundService) Snapshot(chatID int64) (domain.GameSnapshot, bool) {
	g, ok := s.games.Get(chatID)
	if !ok {
		return domain.GameSnapshot{}, false
	}
	return g.Snapshot(), true
}

// PlayerProgress loads a player's stats with level progress for display.
func (s *RoundService) PlayerProgress(ctx context.Context, chatID, playerID int64) (domain.PlayerProgress, error) {
	st, err := s.stats.Load(ctx, chatID, playerID)
	if err != nil {
		return domain.PlayerProgress{}, err
	}
	_, into, toNext := s.scoring.Progress(st.Experience)
	return domain.PlayerProgress{
		Stats:               st,
		Title:               LevelTitle(st.Level),
		ExperienceIntoLevel: into,
		ExperienceToNext:    toNext,
		AverageExplain:      st.AverageExplainTime(),
		AverageGuess:        st.AverageGuessTime(),
	}, nil
}

// VocabularySizer is implemented by word sources that can report how many words they draw from.
type VocabularySizer interface {
	Size(ctx context.Context) int
}

// VocabularySize reports the number of words available for rounds. ok is false when the
// word source cannot tell.
func (s *RoundService) VocabularySize(ctx context.Context) (n int, ok bool) {
	sizer, ok := s.words.(VocabularySizer)
	if !ok {
		return 0, false
	}
	return sizer.Size(ctx), true
}

// RegisterPlayer records the display name of a chat player. Stats are only written when the name changes.
func (s *RoundService) RegisterPlayer(ctx context.Context, chatID, playerID int64, username string) error {
	st, err := s.stats.Load(ctx, chatID, playerID)
	if err != nil {
		return err
	}
	if st.Username == username {
		return nil
	}
	st.Username = username
	return s.save(ctx, st)
}

// Leaderboard returns the chat's players ordered by experience, at most limit entries.
func (s *RoundService) Leaderboard(ctx context.Context, chatID int64, limit int) ([]domain.PlayerStats, error) {
	all, err := s.stats.ListChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Experience != all[j].Experience {
			return all[i].Experience > all[j].Experience
		}
		return all[i].PlayerID < all[j].PlayerID
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *RoundService) loadOrDefault(ctx context.Context, chatID, playerID int64) domain.PlayerStats {
	st, err := s.stats.Load(ctx, chatID, playerID)
	if err != nil {
		log.Error().Err(err).Int64("chat", chatID).Int64("player", playerID).Msg("load player stats")
		return domain.DefaultPlayerStats(chatID, playerID)
	}
	return st
}

func (s *RoundService) save(ctx context.Context, st domain.PlayerStats) error {
	if err := s.stats.Save(ctx, st); err != nil {
		log.Error().Err(err).Int64("chat", st.ChatID).Int64("player", st.PlayerID).Msg("save player stats")
		return fmt.Errorf("player %d: %w", st.PlayerID, err)
	}
	return nil
}

func joinSaveErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrStatsNotSaved, errors.Join(errs...))
}
