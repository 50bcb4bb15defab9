package memory

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"crocodile-service/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// WordLoader fetches the vocabulary from a backing store (file, database).
type WordLoader interface {
	LoadWords(ctx context.Context) ([]string, error)
}

// WordSource caches the vocabulary with TTL and draws random words from it.
// An empty or failing loader degrades to domain.FallbackWords.
type WordSource struct {
	loader WordLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu        sync.Mutex
	rnd       *rand.Rand
	words     []string
	expiresAt time.Time
}

func NewWordSource(loader WordLoader, ttl time.Duration) *WordSource {
	return &WordSource{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *WordSource) NextWord(ctx context.Context) string {
	words := s.vocabulary(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	return words[s.rnd.Intn(len(words))]
}

// Size reports the cached vocabulary size.
func (s *WordSource) Size(ctx context.Context) int {
	return len(s.vocabulary(ctx))
}

func (s *WordSource) vocabulary(ctx context.Context) []string {
	s.mu.Lock()
	if len(s.words) > 0 && (s.ttl <= 0 || s.expiresAt.After(s.clock())) {
		words := s.words
		s.mu.Unlock()
		return words
	}
	s.mu.Unlock()

	result, _, _ := s.sf.Do("vocabulary", func() (interface{}, error) {
		words, err := s.loader.LoadWords(ctx)
		words = cleanWords(words)
		if err != nil || len(words) == 0 {
			log.Error().Err(err).Int("fallback", len(domain.FallbackWords)).Msg("vocabulary unavailable, using fallback list")
			words = domain.FallbackWords
		} else {
			log.Info().Int("words", len(words)).Msg("vocabulary loaded")
		}

		s.mu.Lock()
		s.words = words
		s.expiresAt = s.clock().Add(s.ttl)
		s.mu.Unlock()
		return words, nil
	})
	return result.([]string)
}

func cleanWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// StaticWordLoader is a loader backed by a fixed list (useful for tests/demos).
type StaticWordLoader struct {
	words []string
}

func NewStaticWordLoader(words ...string) *StaticWordLoader {
	return &StaticWordLoader{words: words}
}

func (l *StaticWordLoader) LoadWords(context.Context) ([]string, error) {
	return append([]string(nil), l.words...), nil
}

// FileWordLoader reads either a JSON object whose keys are words or a newline separated list.
type FileWordLoader struct {
	path string
}

func NewFileWordLoader(path string) *FileWordLoader {
	return &FileWordLoader{path: path}
}

func (l *FileWordLoader) LoadWords(context.Context) ([]string, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read words file: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		var dict map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &dict); err != nil {
			return nil, fmt.Errorf("decode words dictionary: %w", err)
		}
		words := make([]string, 0, len(dict))
		for w := range dict {
			words = append(words, w)
		}
		return words, nil
	}

	var words []string
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan words file: %w", err)
	}
	return words, nil
}
