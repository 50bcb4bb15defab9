package redis

import (
	"context"
	"math/rand"
	"time"

	"crocodile-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// WordLoader fetches the vocabulary from a backing store (e.g., Postgres).
type WordLoader interface {
	LoadWords(ctx context.Context) ([]string, error)
}

// WordSource keeps the vocabulary in a Redis set and draws words with SRANDMEMBER.
// On a cache miss the loader fills the set; any failure degrades to domain.FallbackWords.
//
//	SADD words:vocabulary {word...}
type WordSource struct {
	client *redis.Client
	loader WordLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewWordSource(client *redis.Client, loader WordLoader, ttl time.Duration) *WordSource {
	return &WordSource{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const vocabularyKey = "words:vocabulary"

func (s *WordSource) NextWord(ctx context.Context) string {
	word, err := s.client.SRandMember(ctx, vocabularyKey).Result()
	if err == nil && word != "" {
		return word
	}

	result, _, _ := s.sf.Do(vocabularyKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if word, err := s.client.SRandMember(ctx, vocabularyKey).Result(); err == nil && word != "" {
			return word, nil
		}

		words, err := s.loader.LoadWords(ctx)
		if err != nil || len(words) == 0 {
			log.Error().Err(err).Msg("vocabulary unavailable, using fallback list")
			return s.fallback(), nil
		}

		members := make([]interface{}, 0, len(words))
		for _, w := range words {
			if w != "" {
				members = append(members, w)
			}
		}
		if len(members) == 0 {
			return s.fallback(), nil
		}
		pipe := s.client.Pipeline()
		pipe.SAdd(ctx, vocabularyKey, members...)
		if ttl := s.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, vocabularyKey, ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			log.Warn().Err(err).Msg("cache vocabulary")
		}
		return members[s.rnd.Intn(len(members))].(string), nil
	})
	return result.(string)
}

// Size reports how many words the cached vocabulary holds, filling the cache on a miss.
// When nothing can be loaded it reports the fallback list.
func (s *WordSource) Size(ctx context.Context) int {
	n, err := s.client.SCard(ctx, vocabularyKey).Result()
	if err == nil && n > 0 {
		return int(n)
	}
	_ = s.NextWord(ctx)
	if n, err := s.client.SCard(ctx, vocabularyKey).Result(); err == nil && n > 0 {
		return int(n)
	}
	return len(domain.FallbackWords)
}

func (s *WordSource) fallback() string {
	return domain.FallbackWords[s.rnd.Intn(len(domain.FallbackWords))]
}

func (s *WordSource) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
