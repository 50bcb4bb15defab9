package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"crocodile-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// StatsRepository stores player stats as one hash per chat player:
//
//	HSET stats:{chatID}:{playerID} level 3 experience 450 ...
//	SADD stats:{chatID}:players {playerID}
//
// Writes are last-writer-wins per key.
type StatsRepository struct {
	client *redis.Client
}

func NewStatsRepository(client *redis.Client) *StatsRepository {
	return &StatsRepository{client: client}
}

func (r *StatsRepository) Load(ctx context.Context, chatID, playerID int64) (domain.PlayerStats, error) {
	fields, err := r.client.HGetAll(ctx, statsKey(chatID, playerID)).Result()
	if err != nil {
		return domain.PlayerStats{}, fmt.Errorf("load stats: %w", err)
	}
	return decodeStats(chatID, playerID, fields), nil
}

func (r *StatsRepository) Save(ctx context.Context, st domain.PlayerStats) error {
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, statsKey(st.ChatID, st.PlayerID), encodeStats(st))
	pipe.SAdd(ctx, playersKey(st.ChatID), st.PlayerID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

func (r *StatsRepository) ListChat(ctx context.Context, chatID int64) ([]domain.PlayerStats, error) {
	members, err := r.client.SMembers(ctx, playersKey(chatID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list chat players: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if id, err := strconv.ParseInt(m, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, statsKey(chatID, id))
	}
	if len(ids) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("load chat stats: %w", err)
		}
	}

	out := make([]domain.PlayerStats, 0, len(ids))
	for i, id := range ids {
		out = append(out, decodeStats(chatID, id, cmds[i].Val()))
	}
	return out, nil
}

func statsKey(chatID, playerID int64) string {
	return "stats:" + strconv.FormatInt(chatID, 10) + ":" + strconv.FormatInt(playerID, 10)
}

func playersKey(chatID int64) string {
	return "stats:" + strconv.FormatInt(chatID, 10) + ":players"
}

func encodeStats(st domain.PlayerStats) map[string]interface{} {
	return map[string]interface{}{
		"username":           st.Username,
		"words_explained":    st.WordsExplained,
		"words_guessed":      st.WordsGuessed,
		"total_explain_time": int64(st.TotalExplainTime),
		"total_guess_time":   int64(st.TotalGuessTime),
		"fastest_explain":    int64(st.FastestExplain),
		"fastest_guess":      int64(st.FastestGuess),
		"guess_attempts":     st.GuessAttempts,
		"level":              st.Level,
		"experience":         st.Experience,
		"rating":             st.Rating,
		"violation_count":    st.ViolationCount,
	}
}

// decodeStats starts from defaults so missing or malformed fields keep their default value.
func decodeStats(chatID, playerID int64, fields map[string]string) domain.PlayerStats {
	st := domain.DefaultPlayerStats(chatID, playerID)
	if len(fields) == 0 {
		return st
	}
	st.Username = fields["username"]
	intField(fields, "words_explained", &st.WordsExplained)
	intField(fields, "words_guessed", &st.WordsGuessed)
	durationField(fields, "total_explain_time", &st.TotalExplainTime)
	durationField(fields, "total_guess_time", &st.TotalGuessTime)
	durationField(fields, "fastest_explain", &st.FastestExplain)
	durationField(fields, "fastest_guess", &st.FastestGuess)
	intField(fields, "guess_attempts", &st.GuessAttempts)
	intField(fields, "level", &st.Level)
	intField(fields, "experience", &st.Experience)
	intField(fields, "rating", &st.Rating)
	intField(fields, "violation_count", &st.ViolationCount)
	return st
}

func intField(fields map[string]string, name string, dst *int) {
	if v, err := strconv.Atoi(fields[name]); err == nil {
		*dst = v
	}
}

func durationField(fields map[string]string, name string, dst *time.Duration) {
	if v, err := strconv.ParseInt(fields[name], 10, 64); err == nil {
		*dst = time.Duration(v)
	}
}
