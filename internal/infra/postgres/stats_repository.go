package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crocodile-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// StatsRepository persists player stats in the player_stats table.
type StatsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

const statsColumns = `chat_id, player_id, username, words_explained, words_guessed,
	total_explain_ms, total_guess_ms, fastest_explain_ms, fastest_guess_ms, guess_attempts,
	level, experience, rating, violation_count`

func (r *StatsRepository) Load(ctx context.Context, chatID, playerID int64) (domain.PlayerStats, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+statsColumns+` FROM player_stats WHERE chat_id=$1 AND player_id=$2`,
		chatID, playerID)
	st, err := scanStats(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DefaultPlayerStats(chatID, playerID), nil
	}
	if err != nil {
		return domain.PlayerStats{}, fmt.Errorf("load stats: %w", err)
	}
	return st, nil
}

func (r *StatsRepository) Save(ctx context.Context, st domain.PlayerStats) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO player_stats (`+statsColumns+`, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now())
ON CONFLICT (chat_id, player_id) DO UPDATE SET
	username = EXCLUDED.username,
	words_explained = EXCLUDED.words_explained,
	words_guessed = EXCLUDED.words_guessed,
	total_explain_ms = EXCLUDED.total_explain_ms,
	total_guess_ms = EXCLUDED.total_guess_ms,
	fastest_explain_ms = EXCLUDED.fastest_explain_ms,
	fastest_guess_ms = EXCLUDED.fastest_guess_ms,
	guess_attempts = EXCLUDED.guess_attempts,
	level = EXCLUDED.level,
	experience = EXCLUDED.experience,
	rating = EXCLUDED.rating,
	violation_count = EXCLUDED.violation_count,
	updated_at = now()`,
		st.ChatID, st.PlayerID, st.Username, st.WordsExplained, st.WordsGuessed,
		st.TotalExplainTime.Milliseconds(), st.TotalGuessTime.Milliseconds(),
		st.FastestExplain.Milliseconds(), st.FastestGuess.Milliseconds(), st.GuessAttempts,
		st.Level, st.Experience, st.Rating, st.ViolationCount)
	if err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

func (r *StatsRepository) ListChat(ctx context.Context, chatID int64) ([]domain.PlayerStats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+statsColumns+` FROM player_stats WHERE chat_id=$1 ORDER BY player_id`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list chat stats: %w", err)
	}
	defer rows.Close()

	var out []domain.PlayerStats
	for rows.Next() {
		st, err := scanStats(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func scanStats(row pgx.Row) (domain.PlayerStats, error) {
	var (
		st                                     domain.PlayerStats
		totalExplain, totalGuess, fastE, fastG int64
	)
	err := row.Scan(&st.ChatID, &st.PlayerID, &st.Username, &st.WordsExplained, &st.WordsGuessed,
		&totalExplain, &totalGuess, &fastE, &fastG, &st.GuessAttempts,
		&st.Level, &st.Experience, &st.Rating, &st.ViolationCount)
	if err != nil {
		return domain.PlayerStats{}, err
	}
	st.TotalExplainTime = time.Duration(totalExplain) * time.Millisecond
	st.TotalGuessTime = time.Duration(totalGuess) * time.Millisecond
	st.FastestExplain = time.Duration(fastE) * time.Millisecond
	st.FastestGuess = time.Duration(fastG) * time.Millisecond
	return st, nil
}
